package service

import (
	"context"
	"errors"
	"fmt"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/repository"

	"github.com/google/uuid"
)

const historyLimit = 100

// ReviewQueryService - чтение состояния отзыва для дашборда
type ReviewQueryService struct {
	reviews repository.ReviewRepository
	history repository.HistoryRepository
}

func NewReviewQueryService(reviews repository.ReviewRepository, history repository.HistoryRepository) *ReviewQueryService {
	return &ReviewQueryService{
		reviews: reviews,
		history: history,
	}
}

// GetReview возвращает отзыв вместе с причиной неприменимости или последней ошибкой
func (s *ReviewQueryService) GetReview(ctx context.Context, reviewID uuid.UUID) (*entity.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

func (s *ReviewQueryService) GetHistory(ctx context.Context, reviewID uuid.UUID) ([]entity.ReviewStatusChange, error) {
	if _, err := s.GetReview(ctx, reviewID); err != nil {
		return nil, err
	}

	changes, err := s.history.ListByReview(ctx, reviewID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get review history: %w", err)
	}
	return changes, nil
}
