package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// errLostRace откатывает транзакцию, когда отзыв уже продвинул другой путь
var errLostRace = errors.New("review already advanced by another path")

type complaintRepository struct {
	db *gorm.DB
}

// NewComplaintRepository создает новый репозиторий жалоб
func NewComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &complaintRepository{db: db}
}

// CreateForReview атомарно фиксирует результат генерации:
// 1. eligible -> complaint_generated (compare-and-set по статусу)
// 2. INSERT жалобы с ON CONFLICT (review_id) DO NOTHING
// Если любой шаг ничего не изменил - транзакция откатывается и возвращается false.
func (r *complaintRepository) CreateForReview(ctx context.Context, complaint *entity.Complaint) (bool, error) {
	if complaint.ID == uuid.Nil {
		complaint.ID = uuid.New()
	}
	if complaint.Status == "" {
		complaint.Status = entity.ComplaintStatusDraft
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Review{}).
			Where("id = ? AND status = ?", complaint.ReviewID, entity.ReviewStatusEligible).
			Updates(map[string]interface{}{
				"status":         entity.ReviewStatusComplaintGenerated,
				"failure_reason": "",
				"retry_eligible": false,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark review generated: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return errLostRace
		}

		inserted, err := upsertIfAbsent(ctx, tx, complaint, "review_id")
		if err != nil {
			return fmt.Errorf("failed to insert complaint: %w", err)
		}
		if !inserted {
			return errLostRace
		}

		return nil
	})
	if errors.Is(err, errLostRace) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Complaint, error) {
	var complaint entity.Complaint

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&complaint)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, fmt.Errorf("failed to get complaint: %w", result.Error)
	}

	return &complaint, nil
}

func (r *complaintRepository) ListSubmittable(ctx context.Context, maxAttempts, limit int) ([]entity.Complaint, error) {
	var complaints []entity.Complaint

	result := r.db.WithContext(ctx).
		Where("status = ? AND submit_attempts < ?", entity.ComplaintStatusDraft, maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&complaints)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list submittable complaints: %w", result.Error)
	}

	return complaints, nil
}

// MarkSubmitted переводит жалобу draft -> submitted и отзыв в complaint_submitted
func (r *complaintRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	var reviewID uuid.UUID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var complaint entity.Complaint
		if err := tx.Where("id = ?", id).First(&complaint).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrComplaintNotFound
			}
			return fmt.Errorf("failed to load complaint: %w", err)
		}
		reviewID = complaint.ReviewID

		result := tx.Model(&entity.Complaint{}).
			Where("id = ? AND status = ?", id, entity.ComplaintStatusDraft).
			Updates(map[string]interface{}{
				"status":       entity.ComplaintStatusSubmitted,
				"submitted_at": at,
				"last_error":   "",
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark complaint submitted: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return errLostRace
		}

		result = tx.Model(&entity.Review{}).
			Where("id = ? AND status = ?", reviewID, entity.ReviewStatusComplaintGenerated).
			Update("status", entity.ReviewStatusComplaintSubmitted)
		if result.Error != nil {
			return fmt.Errorf("failed to mark review submitted: %w", result.Error)
		}

		return nil
	})
	if errors.Is(err, errLostRace) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (r *complaintRepository) MarkRejected(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Complaint{}).
		Where("id = ? AND status = ?", id, entity.ComplaintStatusDraft).
		Updates(map[string]interface{}{
			"status":           entity.ComplaintStatusRejected,
			"rejection_reason": reason,
			"resolved_at":      at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark complaint rejected: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *complaintRepository) RecordSubmitFailure(ctx context.Context, id uuid.UUID, errMsg string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Complaint{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"submit_attempts": gorm.Expr("submit_attempts + ?", 1),
			"last_error":      errMsg,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to record submit failure: %w", result.Error)
	}

	return nil
}

// Resolve фиксирует решение маркетплейса по отправленной жалобе
func (r *complaintRepository) Resolve(ctx context.Context, id uuid.UUID, status entity.ComplaintStatus, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Complaint{}).
		Where("id = ? AND status = ?", id, entity.ComplaintStatusSubmitted).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_at": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to resolve complaint: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *complaintRepository) ExpireDrafts(ctx context.Context, createdBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Complaint{}).
		Where("status = ? AND created_at < ?", entity.ComplaintStatusDraft, createdBefore).
		Update("status", entity.ComplaintStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire drafts: %w", result.Error)
	}

	return result.RowsAffected, nil
}
