package repository

import (
	"context"
	"fmt"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type complaintDetailRepository struct {
	db *gorm.DB
}

// NewComplaintDetailRepository создает репозиторий записей от расширения
func NewComplaintDetailRepository(db *gorm.DB) ComplaintDetailRepository {
	return &complaintDetailRepository{db: db}
}

// InsertIfAbsent - повторная отправка того же скриншота расширением не создает дубль
func (r *complaintDetailRepository) InsertIfAbsent(ctx context.Context, detail *entity.ComplaintDetail) (bool, error) {
	if detail.ID == uuid.Nil {
		detail.ID = uuid.New()
	}

	inserted, err := upsertIfAbsent(ctx, r.db, detail, "store_id", "articul", "feedback_date", "file_name")
	if err != nil {
		return false, fmt.Errorf("failed to insert complaint detail: %w", err)
	}

	return inserted, nil
}
