package service

import (
	"context"
	"fmt"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/infrastructure"
	"reviewguard/complaint-service/internal/app/complaints/repository"
	"reviewguard/pkg/logger"
)

// ReviewSyncService периодически выгружает новые отзывы активных магазинов из маркетплейса
type ReviewSyncService struct {
	stores      repository.StoreRepository
	marketplace infrastructure.MarketplaceClient
	ingestion   *IngestionService
	cutoff      time.Time
	now         func() time.Time
}

func NewReviewSyncService(
	stores repository.StoreRepository,
	marketplace infrastructure.MarketplaceClient,
	ingestion *IngestionService,
	cutoff time.Time,
) *ReviewSyncService {
	return &ReviewSyncService{
		stores:      stores,
		marketplace: marketplace,
		ingestion:   ingestion,
		cutoff:      cutoff,
		now:         time.Now,
	}
}

// SyncAll проходит по активным магазинам; ошибка одного магазина не останавливает остальные
func (s *ReviewSyncService) SyncAll(ctx context.Context) error {
	stores, err := s.stores.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active stores: %w", err)
	}

	failed := 0
	for i := range stores {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		store := &stores[i]

		// Отзывы старше даты отсечения все равно не пройдут правила
		since := s.cutoff
		if store.LastReviewSyncAt != nil && store.LastReviewSyncAt.After(since) {
			since = *store.LastReviewSyncAt
		}
		startedAt := s.now().UTC()

		inputs, err := s.marketplace.FetchReviews(ctx, store, since)
		if err != nil {
			failed++
			logger.Error().Err(err).Str("store_id", store.ID.String()).Msg("Failed to fetch reviews from marketplace")
			continue
		}

		result, err := s.ingestion.SyncReviews(ctx, store.ID, inputs, "marketplace")
		if err != nil {
			failed++
			logger.Error().Err(err).Str("store_id", store.ID.String()).Msg("Failed to ingest marketplace reviews")
			continue
		}

		if err := s.stores.TouchReviewSync(ctx, store.ID, startedAt); err != nil {
			logger.Warn().Err(err).Str("store_id", store.ID.String()).Msg("Failed to advance review sync watermark")
		}

		logger.Info().
			Str("store_id", store.ID.String()).
			Int("fetched", len(inputs)).
			Int("inserted", result.Inserted).
			Int("skipped", result.Skipped).
			Msg("Marketplace reviews synced")
	}

	if failed > 0 {
		return fmt.Errorf("review sync failed for %d of %d stores", failed, len(stores))
	}
	return nil
}
