package service

import (
	"context"
	"errors"
	"fmt"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/repository"
	"reviewguard/pkg/logger"

	"github.com/google/uuid"
)

// ProductService - флаги товара. Включение товара и opt-in на жалобы являются триггерами.
type ProductService struct {
	products repository.ProductRepository
	triggers Triggers
}

func NewProductService(products repository.ProductRepository, triggers Triggers) *ProductService {
	return &ProductService{
		products: products,
		triggers: triggers,
	}
}

func (s *ProductService) UpdateProduct(ctx context.Context, productID uuid.UUID, req *entity.UpdateProductRequest) (*entity.Product, error) {
	if req.IsActive != nil {
		if _, err := s.SetActive(ctx, productID, *req.IsActive); err != nil {
			return nil, err
		}
	}
	if req.SubmitComplaints != nil {
		if _, err := s.SetSubmitComplaints(ctx, productID, *req.SubmitComplaints); err != nil {
			return nil, err
		}
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *ProductService) SetActive(ctx context.Context, productID uuid.UUID, active bool) (bool, error) {
	changed, err := s.products.SetActive(ctx, productID, active)
	if err != nil {
		return false, mapProductError(err)
	}

	if changed && active {
		logger.Info().Str("product_id", productID.String()).Msg("Product activated")
		s.triggers.OnProductActivated(productID)
	}
	return changed, nil
}

func (s *ProductService) SetSubmitComplaints(ctx context.Context, productID uuid.UUID, enabled bool) (bool, error) {
	changed, err := s.products.SetSubmitComplaints(ctx, productID, enabled)
	if err != nil {
		return false, mapProductError(err)
	}

	if changed && enabled {
		logger.Info().Str("product_id", productID.String()).Msg("Product complaint rules enabled")
		s.triggers.OnProductRulesEnabled(productID)
	}
	return changed, nil
}

func mapProductError(err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return ErrProductNotFound
	}
	return fmt.Errorf("failed to update product: %w", err)
}
