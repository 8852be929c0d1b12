package repository

import (
	"context"
	"errors"
	"fmt"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository создает новый репозиторий отзывов
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// InsertIfAbsent вставляет отзыв, повторная синхронизация того же feedback id - no-op
func (r *reviewRepository) InsertIfAbsent(ctx context.Context, review *entity.Review) (bool, error) {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if review.Status == "" {
		review.Status = entity.ReviewStatusPending
	}

	inserted, err := upsertIfAbsent(ctx, r.db, review, "store_id", "external_feedback_id")
	if err != nil {
		return false, fmt.Errorf("failed to insert review: %w", err)
	}

	return inserted, nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	var review entity.Review

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&review)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", result.Error)
	}

	return &review, nil
}

// Transition - условный UPDATE по текущему статусу.
// Конкурентные пути (триггер и backfill) не могут оба перевести отзыв дальше:
// второй получит RowsAffected = 0.
func (r *reviewRepository) Transition(ctx context.Context, id uuid.UUID, from []entity.ReviewStatus, change entity.ReviewTransition) (bool, error) {
	updates := map[string]interface{}{
		"status":            change.To,
		"ineligible_reason": change.IneligibleReason,
		"failure_reason":    change.FailureReason,
		"retry_eligible":    change.RetryEligible,
	}
	if change.CountAttempt {
		updates["attempt_count"] = gorm.Expr("attempt_count + ?", 1)
	}

	result := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition review to %s: %w", change.To, result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *reviewRepository) List(ctx context.Context, filter entity.ReviewFilter, after *entity.ReviewCursor, limit int) ([]entity.Review, error) {
	var reviews []entity.Review

	query := applyReviewFilter(r.db.WithContext(ctx).Model(&entity.Review{}), filter)
	if after != nil {
		query = query.Where("(feedback_date, id) > (?, ?)", after.FeedbackDate, after.ReviewID)
	}

	result := query.Order("feedback_date ASC, id ASC").Limit(limit).Find(&reviews)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", result.Error)
	}

	return reviews, nil
}

func (r *reviewRepository) Count(ctx context.Context, filter entity.ReviewFilter) (int64, error) {
	var count int64

	result := applyReviewFilter(r.db.WithContext(ctx).Model(&entity.Review{}), filter).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", result.Error)
	}

	return count, nil
}

func applyReviewFilter(query *gorm.DB, f entity.ReviewFilter) *gorm.DB {
	if f.StoreID != uuid.Nil {
		query = query.Where("store_id = ?", f.StoreID)
	}
	switch {
	case f.ProductID != nil && f.Articul != "":
		query = query.Where("(product_id = ? OR (product_id IS NULL AND articul = ?))", *f.ProductID, f.Articul)
	case f.ProductID != nil:
		query = query.Where("product_id = ?", *f.ProductID)
	}
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", f.Statuses)
	}
	if f.From != nil {
		query = query.Where("feedback_date >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("feedback_date < ?", *f.To)
	}
	if f.UpdatedBefore != nil {
		query = query.Where("updated_at < ?", *f.UpdatedBefore)
	}
	if f.RetryEligibleOnly {
		query = query.Where("retry_eligible = ?", true)
	}
	if f.MaxAttempts > 0 {
		query = query.Where("attempt_count < ?", f.MaxAttempts)
	}
	return query
}
