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

// storeRepository реализует StoreRepository для работы с PostgreSQL через GORM
type storeRepository struct {
	db *gorm.DB
}

// NewStoreRepository создает новый репозиторий магазинов
func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Store, error) {
	var store entity.Store

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&store)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to get store: %w", result.Error)
	}

	return &store, nil
}

func (r *storeRepository) ListActive(ctx context.Context) ([]entity.Store, error) {
	var stores []entity.Store

	result := r.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at").Find(&stores)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list active stores: %w", result.Error)
	}

	return stores, nil
}

// SetActive выполняет условный UPDATE: строка меняется только при переходе false->true или true->false.
// По RowsAffected вызывающий понимает, был ли переход и нужно ли запускать триггер.
func (r *storeRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Store{}).
		Where("id = ? AND is_active = ?", id, !active).
		Update("is_active", active)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update store activity: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Либо магазина нет, либо флаг уже в нужном состоянии
		if _, err := r.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}

	return true, nil
}

func (r *storeRepository) UpdateQuotas(ctx context.Context, id uuid.UUID, daily, hourly *int) error {
	updates := map[string]interface{}{}
	if daily != nil {
		updates["daily_complaint_quota"] = *daily
	}
	if hourly != nil {
		updates["hourly_complaint_quota"] = *hourly
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&entity.Store{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update store quotas: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStoreNotFound
	}

	return nil
}

func (r *storeRepository) SetExtensionKeyHash(ctx context.Context, id uuid.UUID, hash string) error {
	result := r.db.WithContext(ctx).Model(&entity.Store{}).Where("id = ?", id).Update("extension_key_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to set extension key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStoreNotFound
	}

	return nil
}

func (r *storeRepository) TouchReviewSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.Store{}).Where("id = ?", id).Update("last_review_sync_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to update review sync time: %w", result.Error)
	}

	return nil
}
