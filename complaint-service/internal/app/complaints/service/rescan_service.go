package service

import (
	"context"
	"fmt"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/config"
	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/repository"
	"reviewguard/pkg/logger"

	"github.com/google/uuid"
)

// RescanReport - сколько отзывов подобрано и с каким исходом
type RescanReport struct {
	Picked   int
	Outcomes map[OutcomeKind]int
	// Deferred - отзывы магазинов, чья квота кончилась в этом запуске
	Deferred int
}

// RescanService подбирает отзывы, выпавшие из событийного пути:
// pending (задача отброшена или процесс упал), eligible (ждали квоту)
// и failed с разрешенным повтором
type RescanService struct {
	reviews    repository.ReviewRepository
	generator  ReviewProcessor
	cfg        config.RescanConfig
	retryLimit int
	now        func() time.Time
}

func NewRescanService(reviews repository.ReviewRepository, generator ReviewProcessor, cfg config.RescanConfig, retryLimit int) *RescanService {
	return &RescanService{
		reviews:    reviews,
		generator:  generator,
		cfg:        cfg,
		retryLimit: retryLimit,
		now:        time.Now,
	}
}

// Rescan обрабатывает отзывы синхронно, по одному, не больше RESCAN_BATCH_SIZE за запуск
func (s *RescanService) Rescan(ctx context.Context) (RescanReport, error) {
	report := RescanReport{Outcomes: make(map[OutcomeKind]int)}
	updatedBefore := s.now().Add(-s.cfg.PendingAge)

	filters := []entity.ReviewFilter{
		{
			Statuses:      []entity.ReviewStatus{entity.ReviewStatusPending, entity.ReviewStatusEligible},
			UpdatedBefore: &updatedBefore,
		},
		{
			Statuses:          []entity.ReviewStatus{entity.ReviewStatusFailed},
			RetryEligibleOnly: true,
			MaxAttempts:       s.retryLimit,
		},
	}

	// Магазин с исчерпанной квотой до конца запуска не трогаем
	exhausted := make(map[uuid.UUID]bool)

	budget := s.cfg.BatchSize
	for _, filter := range filters {
		if budget <= 0 || ctx.Err() != nil {
			break
		}

		reviews, err := s.reviews.List(ctx, filter, nil, budget)
		if err != nil {
			return report, fmt.Errorf("failed to list reviews for rescan: %w", err)
		}
		budget -= len(reviews)

		for _, review := range reviews {
			if ctx.Err() != nil {
				break
			}
			if exhausted[review.StoreID] {
				report.Deferred++
				continue
			}

			outcome := s.generator.Process(ctx, review.ID, SourceRescan)
			report.Picked++
			report.Outcomes[outcome.Kind]++
			if outcome.Kind == OutcomeQuotaExceeded {
				exhausted[review.StoreID] = true
			}
		}
	}

	if report.Picked > 0 {
		logger.Info().
			Int("picked", report.Picked).
			Int("generated", report.Outcomes[OutcomeGenerated]).
			Int("failed", report.Outcomes[OutcomeFailed]).
			Int("deferred", report.Deferred).
			Int("exhausted_stores", len(exhausted)).
			Msg("Review rescan finished")
	}

	return report, nil
}
