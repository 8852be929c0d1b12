package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	periodDay  = "day"
	periodHour = "hour"

	metricsService = "complaint-service"
)

// errQuotaRollback откатывает транзакцию, если один из лимитов превышен
var errQuotaRollback = errors.New("quota limit reached")

// reserveQuery - increment-if-under-limit одним выражением.
// Новая дата или час создают новую строку, поэтому сброс в полночь не нужен.
// Если строка уже есть, ON CONFLICT берет блокировку на нее и проверяет лимит
// по актуальному значению, так что конкурентные резервы не теряются.
const reserveQuery = `
INSERT INTO quota_counters (store_id, period, bucket_start, used, updated_at)
SELECT $1::uuid, $2::text, $3::timestamptz, $4::int, now()
WHERE $4::int <= $5::int
ON CONFLICT (store_id, period, bucket_start) DO UPDATE
SET used = quota_counters.used + EXCLUDED.used, updated_at = now()
WHERE quota_counters.used + EXCLUDED.used <= $5::int
RETURNING used`

const releaseQuery = `
UPDATE quota_counters
SET used = GREATEST(used - $4::int, 0), updated_at = now()
WHERE store_id = $1 AND period = $2 AND bucket_start = $3`

const usageQuery = `
SELECT period, used FROM quota_counters
WHERE store_id = $1
  AND ((period = 'day' AND bucket_start = $2) OR (period = 'hour' AND bucket_start = $3))`

// quotaRepository работает с pgxpool напрямую: резерв квоты - горячий путь
// и должен быть ровно одним SQL выражением на период
type quotaRepository struct {
	pool *pgxpool.Pool
}

// NewQuotaRepository создает репозиторий счетчиков квоты
func NewQuotaRepository(pool *pgxpool.Pool) QuotaRepository {
	return &quotaRepository{pool: pool}
}

func (r *quotaRepository) Reserve(ctx context.Context, key entity.QuotaKey, count, dailyLimit, hourlyLimit int) (bool, error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpUpdate, "quota_counters")
	defer timer.ObserveDuration()

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ok, err := reserveBucket(ctx, tx, key.StoreID, periodDay, key.Day, count, dailyLimit)
		if err != nil {
			return err
		}
		if !ok {
			return errQuotaRollback
		}

		// hourlyLimit = 0 - почасовой лимит выключен
		if hourlyLimit > 0 {
			ok, err = reserveBucket(ctx, tx, key.StoreID, periodHour, key.Hour, count, hourlyLimit)
			if err != nil {
				return err
			}
			if !ok {
				return errQuotaRollback
			}
		}

		return nil
	})
	if errors.Is(err, errQuotaRollback) {
		return false, nil
	}
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpUpdate)
		return false, fmt.Errorf("failed to reserve quota: %w", err)
	}

	return true, nil
}

func reserveBucket(ctx context.Context, tx pgx.Tx, storeID uuid.UUID, period string, bucket time.Time, count, limit int) (bool, error) {
	var used int
	err := tx.QueryRow(ctx, reserveQuery, storeID, period, bucket, count, limit).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to reserve %s bucket: %w", period, err)
	}

	return true, nil
}

func (r *quotaRepository) Release(ctx context.Context, key entity.QuotaKey, count int, hourly bool) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, releaseQuery, key.StoreID, periodDay, key.Day, count); err != nil {
			return fmt.Errorf("failed to release day bucket: %w", err)
		}
		// Часовой счетчик не трогали при резерве без почасового лимита
		if !hourly {
			return nil
		}
		if _, err := tx.Exec(ctx, releaseQuery, key.StoreID, periodHour, key.Hour, count); err != nil {
			return fmt.Errorf("failed to release hour bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.RecordDbError(metricsService, metrics.DbOpUpdate)
		return fmt.Errorf("failed to release quota: %w", err)
	}

	return nil
}

func (r *quotaRepository) Usage(ctx context.Context, key entity.QuotaKey) (entity.QuotaUsage, error) {
	usage := entity.QuotaUsage{StoreID: key.StoreID, Day: key.Day}

	rows, err := r.pool.Query(ctx, usageQuery, key.StoreID, key.Day, key.Hour)
	if err != nil {
		return usage, fmt.Errorf("failed to query quota usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var period string
		var used int
		if err := rows.Scan(&period, &used); err != nil {
			return usage, fmt.Errorf("failed to scan quota usage: %w", err)
		}
		switch period {
		case periodDay:
			usage.UsedDay = used
		case periodHour:
			usage.UsedHour = used
		}
	}
	if err := rows.Err(); err != nil {
		return usage, fmt.Errorf("failed to read quota usage: %w", err)
	}

	return usage, nil
}
