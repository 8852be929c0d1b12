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

// StoreService - настройки магазина. Включение магазина является триггером.
type StoreService struct {
	stores   repository.StoreRepository
	quota    *QuotaService
	triggers Triggers
}

func NewStoreService(stores repository.StoreRepository, quota *QuotaService, triggers Triggers) *StoreService {
	return &StoreService{
		stores:   stores,
		quota:    quota,
		triggers: triggers,
	}
}

func (s *StoreService) GetStore(ctx context.Context, storeID uuid.UUID) (*entity.Store, error) {
	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return store, nil
}

// UpdateStore применяет только переданные поля
func (s *StoreService) UpdateStore(ctx context.Context, storeID uuid.UUID, req *entity.UpdateStoreRequest) (*entity.Store, error) {
	if req.DailyComplaintQuota != nil || req.HourlyComplaintQuota != nil {
		if err := s.stores.UpdateQuotas(ctx, storeID, req.DailyComplaintQuota, req.HourlyComplaintQuota); err != nil {
			if errors.Is(err, repository.ErrStoreNotFound) {
				return nil, ErrStoreNotFound
			}
			return nil, fmt.Errorf("failed to update quotas: %w", err)
		}
	}

	if req.IsActive != nil {
		if _, err := s.SetActive(ctx, storeID, *req.IsActive); err != nil {
			return nil, err
		}
	}

	return s.GetStore(ctx, storeID)
}

// SetActive меняет флаг через compare-and-set.
// Триггер срабатывает только на реальном переходе false -> true.
func (s *StoreService) SetActive(ctx context.Context, storeID uuid.UUID, active bool) (bool, error) {
	changed, err := s.stores.SetActive(ctx, storeID, active)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return false, ErrStoreNotFound
		}
		return false, fmt.Errorf("failed to set store active: %w", err)
	}

	if changed {
		logger.Info().Str("store_id", storeID.String()).Bool("is_active", active).Msg("Store activation changed")
		if active {
			s.triggers.OnStoreActivated(storeID)
		}
	}

	return changed, nil
}

func (s *StoreService) GetQuotaUsage(ctx context.Context, storeID uuid.UUID) (entity.QuotaUsage, error) {
	store, err := s.GetStore(ctx, storeID)
	if err != nil {
		return entity.QuotaUsage{}, err
	}
	return s.quota.Usage(ctx, store)
}
