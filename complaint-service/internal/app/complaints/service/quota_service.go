package service

import (
	"context"
	"fmt"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/repository"
	"reviewguard/pkg/metrics"
)

// Reservation - успешно зарезервированная квота.
// Ключ запоминается, чтобы откат попал в те же дневной и часовой счетчики.
type Reservation struct {
	Key   entity.QuotaKey
	Count int
	// Hourly - был ли увеличен часовой счетчик
	Hourly bool
}

// QuotaService - квоты магазина на генерацию жалоб.
// Остаток всегда читается из PostgreSQL и нигде не кешируется.
type QuotaService struct {
	repo repository.QuotaRepository
	now  func() time.Time
}

func NewQuotaService(repo repository.QuotaRepository) *QuotaService {
	return &QuotaService{
		repo: repo,
		now:  time.Now,
	}
}

// WithClock подменяет часы, используется в тестах на смену суток
func (s *QuotaService) WithClock(now func() time.Time) *QuotaService {
	s.now = now
	return s
}

// TryReserve атомарно занимает count единиц квоты или возвращает ErrQuotaExceeded
func (s *QuotaService) TryReserve(ctx context.Context, store *entity.Store, count int) (Reservation, error) {
	key := entity.NewQuotaKey(store.ID, s.now())

	ok, err := s.repo.Reserve(ctx, key, count, store.DailyComplaintQuota, store.HourlyComplaintQuota)
	if err != nil {
		metrics.QuotaReservations.WithLabelValues("error").Inc()
		return Reservation{}, fmt.Errorf("failed to reserve quota: %w", err)
	}
	if !ok {
		metrics.QuotaReservations.WithLabelValues("exceeded").Inc()
		return Reservation{}, ErrQuotaExceeded
	}

	metrics.QuotaReservations.WithLabelValues("reserved").Inc()
	return Reservation{Key: key, Count: count, Hourly: store.HourlyComplaintQuota > 0}, nil
}

// Release возвращает квоту, если после резервирования запись не состоялась
func (s *QuotaService) Release(ctx context.Context, r Reservation) error {
	if r.Count <= 0 {
		return nil
	}
	if err := s.repo.Release(ctx, r.Key, r.Count, r.Hourly); err != nil {
		return fmt.Errorf("failed to release quota: %w", err)
	}

	metrics.QuotaReservations.WithLabelValues("released").Inc()
	return nil
}

// Usage возвращает использование квоты за текущие сутки и час
func (s *QuotaService) Usage(ctx context.Context, store *entity.Store) (entity.QuotaUsage, error) {
	usage, err := s.repo.Usage(ctx, entity.NewQuotaKey(store.ID, s.now()))
	if err != nil {
		return usage, fmt.Errorf("failed to get quota usage: %w", err)
	}

	usage.DailyCap = store.DailyComplaintQuota
	usage.HourlyCap = store.HourlyComplaintQuota
	usage.Remaining = remaining(usage)
	return usage, nil
}

// Remaining - сколько жалоб магазин еще может сгенерировать прямо сейчас
func (s *QuotaService) Remaining(ctx context.Context, store *entity.Store) (int, error) {
	usage, err := s.Usage(ctx, store)
	if err != nil {
		return 0, err
	}
	return usage.Remaining, nil
}

func remaining(u entity.QuotaUsage) int {
	left := u.DailyCap - u.UsedDay
	// HourlyCap = 0 означает отсутствие почасового лимита
	if u.HourlyCap > 0 && u.HourlyCap-u.UsedHour < left {
		left = u.HourlyCap - u.UsedHour
	}
	if left < 0 {
		return 0
	}
	return left
}
