package repository

import (
	"context"
	"errors"
	"fmt"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", result.Error)
	}

	return &product, nil
}

func (r *productRepository) GetByArticul(ctx context.Context, storeID uuid.UUID, articul string) (*entity.Product, error) {
	var product entity.Product

	result := r.db.WithContext(ctx).Where("store_id = ? AND articul = ?", storeID, articul).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by articul: %w", result.Error)
	}

	return &product, nil
}

func (r *productRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	return r.flip(ctx, id, "is_active", active)
}

func (r *productRepository) SetSubmitComplaints(ctx context.Context, id uuid.UUID, enabled bool) (bool, error) {
	return r.flip(ctx, id, "submit_complaints", enabled)
}

// flip меняет булев флаг только если он отличается от нового значения
func (r *productRepository) flip(ctx context.Context, id uuid.UUID, column string, value bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Product{}).
		Where("id = ? AND "+column+" = ?", id, !value).
		Update(column, value)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update product %s: %w", column, result.Error)
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}

	return true, nil
}
