package service

import (
	"context"
	"errors"
	"fmt"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/repository"
	"reviewguard/pkg/metrics"

	"github.com/google/uuid"
)

// IngestionService - дедуплицированная вставка отзывов из всех источников:
// HTTP, Kafka и периодической выгрузки из маркетплейса
type IngestionService struct {
	reviews  repository.ReviewRepository
	stores   repository.StoreRepository
	products repository.ProductRepository
	triggers Triggers
}

func NewIngestionService(
	reviews repository.ReviewRepository,
	stores repository.StoreRepository,
	products repository.ProductRepository,
	triggers Triggers,
) *IngestionService {
	return &IngestionService{
		reviews:  reviews,
		stores:   stores,
		products: products,
		triggers: triggers,
	}
}

// SyncReviews вставляет новые отзывы в статусе pending и запускает их оценку.
// Повторно доставленные отзывы пропускаются без ошибки.
func (s *IngestionService) SyncReviews(ctx context.Context, storeID uuid.UUID, inputs []entity.ReviewInput, source string) (*entity.SyncResult, error) {
	if _, err := s.stores.GetByID(ctx, storeID); err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}

	result := &entity.SyncResult{}
	productIDs := make(map[string]*uuid.UUID)

	for _, in := range inputs {
		productID, err := s.resolveProduct(ctx, storeID, in.Articul, productIDs)
		if err != nil {
			return result, err
		}

		review := &entity.Review{
			ID:                 uuid.New(),
			StoreID:            storeID,
			ProductID:          productID,
			Articul:            in.Articul,
			ExternalFeedbackID: in.ExternalFeedbackID,
			FeedbackDate:       in.FeedbackDate.UTC(),
			Rating:             in.Rating,
			Text:               in.Text,
			Status:             entity.ReviewStatusPending,
		}

		inserted, err := s.reviews.InsertIfAbsent(ctx, review)
		if err != nil {
			return result, fmt.Errorf("failed to insert review %s: %w", in.ExternalFeedbackID, err)
		}
		if !inserted {
			result.Skipped++
			metrics.ReviewsIngested.WithLabelValues(source, "skipped").Inc()
			continue
		}

		result.Inserted++
		if productID == nil {
			result.Unknown++
		}
		metrics.ReviewsIngested.WithLabelValues(source, "inserted").Inc()

		s.triggers.OnReviewSynced(review)
	}

	return result, nil
}

// resolveProduct ищет товар по артикулу с кешем на время одной синхронизации
func (s *IngestionService) resolveProduct(ctx context.Context, storeID uuid.UUID, articul string, cache map[string]*uuid.UUID) (*uuid.UUID, error) {
	if id, ok := cache[articul]; ok {
		return id, nil
	}

	product, err := s.products.GetByArticul(ctx, storeID, articul)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			cache[articul] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve product %s: %w", articul, err)
	}

	cache[articul] = &product.ID
	return &product.ID, nil
}
