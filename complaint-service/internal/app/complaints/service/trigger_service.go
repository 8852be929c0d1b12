package service

import (
	"context"
	"fmt"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/repository"
	"reviewguard/pkg/logger"

	"github.com/google/uuid"
)

// TriggerService превращает внешние события в фоновые задачи.
// Все методы возвращают управление сразу, ошибки обработки вызывающему не видны.
type TriggerService struct {
	dispatcher  TaskDispatcher
	generator   ReviewProcessor
	backfill    JobEnqueuer
	reviews     repository.ReviewRepository
	products    repository.ProductRepository
	inlineLimit int
}

func NewTriggerService(
	dispatcher TaskDispatcher,
	generator ReviewProcessor,
	backfill JobEnqueuer,
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	inlineLimit int,
) *TriggerService {
	return &TriggerService{
		dispatcher:  dispatcher,
		generator:   generator,
		backfill:    backfill,
		reviews:     reviews,
		products:    products,
		inlineLimit: inlineLimit,
	}
}

// OnReviewSynced - новый отзыв оценивается сразу
func (s *TriggerService) OnReviewSynced(review *entity.Review) {
	s.dispatchReview(review.ID, SourceReviewSynced)
}

// OnStoreActivated - магазин включен: весь его бэклог уходит в backfill задачу
func (s *TriggerService) OnStoreActivated(storeID uuid.UUID) {
	s.dispatcher.Submit(Task{
		Name: "store_activated",
		Key:  "store-activation:" + storeID.String(),
		Run: func(ctx context.Context) error {
			job, err := s.backfill.EnqueueJob(ctx, storeID, entity.BackfillCriteria{
				Statuses: entity.ReevaluableStatuses,
			})
			if err != nil {
				return fmt.Errorf("failed to enqueue backfill for activated store %s: %w", storeID, err)
			}

			logger.Info().
				Str("store_id", storeID.String()).
				Str("job_id", job.ID.String()).
				Int("total_target", job.TotalTarget).
				Msg("Backfill job enqueued for activated store")
			return nil
		},
	})
}

func (s *TriggerService) OnProductActivated(productID uuid.UUID) {
	s.dispatchProduct(productID, SourceProductActivated)
}

func (s *TriggerService) OnProductRulesEnabled(productID uuid.UUID) {
	s.dispatchProduct(productID, SourceProductRulesEnabled)
}

func (s *TriggerService) dispatchReview(reviewID uuid.UUID, source Source) bool {
	return s.dispatcher.Submit(Task{
		Name: "process_review",
		Key:  "review:" + reviewID.String(),
		Run: func(ctx context.Context) error {
			outcome := s.generator.Process(ctx, reviewID, source)
			return outcome.Err
		},
	})
}

// dispatchProduct переоценивает отзывы товара.
// Небольшой набор обрабатывается сразу, большой целиком уходит в backfill.
func (s *TriggerService) dispatchProduct(productID uuid.UUID, source Source) {
	s.dispatcher.Submit(Task{
		Name: string(source),
		Key:  string(source) + ":" + productID.String(),
		Run: func(ctx context.Context) error {
			return s.reevaluateProduct(ctx, productID, source)
		},
	})
}

func (s *TriggerService) reevaluateProduct(ctx context.Context, productID uuid.UUID, source Source) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to load product %s: %w", productID, err)
	}

	filter := entity.ReviewFilter{
		StoreID:   product.StoreID,
		ProductID: &product.ID,
		Articul:   product.Articul,
		Statuses:  entity.ReevaluableStatuses,
	}

	reviews, err := s.reviews.List(ctx, filter, nil, s.inlineLimit+1)
	if err != nil {
		return fmt.Errorf("failed to list reviews for product %s: %w", productID, err)
	}

	if len(reviews) > s.inlineLimit {
		return s.enqueueProductBackfill(ctx, product)
	}

	dropped := 0
	for _, review := range reviews {
		if !s.dispatchReview(review.ID, source) {
			dropped++
		}
	}

	logger.Info().
		Str("product_id", productID.String()).
		Str("source", string(source)).
		Int("dispatched", len(reviews)-dropped).
		Int("dropped", dropped).
		Msg("Product reviews dispatched for re-evaluation")

	// Отброшенные из-за переполнения очереди отзывы не потеряются: их подберет backfill
	if dropped > 0 {
		return s.enqueueProductBackfill(ctx, product)
	}
	return nil
}

func (s *TriggerService) enqueueProductBackfill(ctx context.Context, product *entity.Product) error {
	job, err := s.backfill.EnqueueJob(ctx, product.StoreID, entity.BackfillCriteria{
		ProductID: &product.ID,
		Statuses:  entity.ReevaluableStatuses,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue backfill for product %s: %w", product.ID, err)
	}

	logger.Info().
		Str("product_id", product.ID.String()).
		Str("job_id", job.ID.String()).
		Int("total_target", job.TotalTarget).
		Msg("Backfill job enqueued for product")
	return nil
}
