//go:build integration

package repository

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Запуск: TEST_DATABASE_URL=postgres://... go test -tags=integration ./...
func setupQuotaPool(t *testing.T) *pgxpool.Pool {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS quota_counters (
			store_id     uuid        NOT NULL,
			period       text        NOT NULL,
			bucket_start timestamptz NOT NULL,
			used         integer     NOT NULL CHECK (used >= 0),
			updated_at   timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (store_id, period, bucket_start)
		)`)
	require.NoError(t, err)

	return pool
}

func TestQuotaReserve_ConcurrentAttemptsRespectLimit(t *testing.T) {
	pool := setupQuotaPool(t)
	repo := NewQuotaRepository(pool)
	key := entity.NewQuotaKey(uuid.New(), time.Now())

	const attempts = 20
	const limit = 7

	var reserved int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Reserve(context.Background(), key, 1, limit, 0)
			assert.NoError(t, err)
			if ok {
				atomic.AddInt64(&reserved, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), reserved)

	usage, err := repo.Usage(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, limit, usage.UsedDay)
}

func TestQuotaReserve_NewDayStartsFresh(t *testing.T) {
	pool := setupQuotaPool(t)
	repo := NewQuotaRepository(pool)
	storeID := uuid.New()
	today := entity.NewQuotaKey(storeID, time.Date(2025, 11, 1, 23, 59, 0, 0, time.UTC))
	tomorrow := entity.NewQuotaKey(storeID, time.Date(2025, 11, 2, 0, 1, 0, 0, time.UTC))

	ok, err := repo.Reserve(context.Background(), today, 1, 1, 0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Reserve(context.Background(), today, 1, 1, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Reserve(context.Background(), tomorrow, 1, 1, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQuotaReserve_HourlyLimitRollsBackDay(t *testing.T) {
	pool := setupQuotaPool(t)
	repo := NewQuotaRepository(pool)
	key := entity.NewQuotaKey(uuid.New(), time.Now())

	ok, err := repo.Reserve(context.Background(), key, 1, 10, 1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Reserve(context.Background(), key, 1, 10, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	usage, err := repo.Usage(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.UsedDay, "day counter must not keep the rolled back increment")
	assert.Equal(t, 1, usage.UsedHour)
}

func TestQuotaRelease_NeverNegative(t *testing.T) {
	pool := setupQuotaPool(t)
	repo := NewQuotaRepository(pool)
	key := entity.NewQuotaKey(uuid.New(), time.Now())

	ok, err := repo.Reserve(context.Background(), key, 1, 5, 5)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.Release(context.Background(), key, 3, true))

	usage, err := repo.Usage(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.UsedDay)
	assert.Equal(t, 0, usage.UsedHour)
}

func TestQuotaRelease_SkipsHourBucketWithoutHourlyLimit(t *testing.T) {
	pool := setupQuotaPool(t)
	repo := NewQuotaRepository(pool)
	key := entity.NewQuotaKey(uuid.New(), time.Now())

	ok, err := repo.Reserve(context.Background(), key, 1, 5, 5)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.Reserve(context.Background(), key, 1, 5, 0)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.Release(context.Background(), key, 1, false))

	usage, err := repo.Usage(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.UsedDay)
	assert.Equal(t, 1, usage.UsedHour)
}
