package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/repository"
	"reviewguard/pkg/metrics"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
	"golang.org/x/crypto/bcrypt"
)

const extensionKeyLength = 32

// ExtensionService - ключи браузерного расширения и прием его записей
type ExtensionService struct {
	stores  repository.StoreRepository
	details repository.ComplaintDetailRepository
	newKey  func() string
}

func NewExtensionService(stores repository.StoreRepository, details repository.ComplaintDetailRepository) (*ExtensionService, error) {
	generate, err := nanoid.Standard(extensionKeyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create key generator: %w", err)
	}

	return &ExtensionService{
		stores:  stores,
		details: details,
		newKey:  generate,
	}, nil
}

// IssueKey выпускает новый ключ; в БД хранится только bcrypt хеш,
// открытый ключ возвращается один раз. Старый ключ перестает работать.
func (s *ExtensionService) IssueKey(ctx context.Context, storeID uuid.UUID) (*entity.ExtensionKeyResponse, error) {
	key := s.newKey()

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash extension key: %w", err)
	}

	if err := s.stores.SetExtensionKeyHash(ctx, storeID, string(hash)); err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to save extension key: %w", err)
	}

	return &entity.ExtensionKeyResponse{StoreID: storeID.String(), Key: key}, nil
}

// Authenticate сверяет ключ с хешем магазина
func (s *ExtensionService) Authenticate(ctx context.Context, storeID uuid.UUID, key string) (*entity.Store, error) {
	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return nil, ErrInvalidExtensionKey
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}

	if store.ExtensionKeyHash == "" {
		return nil, ErrInvalidExtensionKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(store.ExtensionKeyHash), []byte(key)); err != nil {
		return nil, ErrInvalidExtensionKey
	}

	return store, nil
}

// SaveComplaintDetail - идемпотентная запись по ключу (store_id, articul, feedback_date, file_name).
// Дубль возвращает inserted=false без ошибки.
func (s *ExtensionService) SaveComplaintDetail(ctx context.Context, storeID uuid.UUID, req *entity.ComplaintDetailRequest) (bool, error) {
	feedbackDate, err := time.Parse("2006-01-02", req.FeedbackDate)
	if err != nil {
		return false, fmt.Errorf("invalid feedback_date: %w", err)
	}

	detail := &entity.ComplaintDetail{
		ID:              uuid.New(),
		StoreID:         storeID,
		Articul:         req.Articul,
		FeedbackDate:    feedbackDate,
		FileName:        req.FileName,
		FeedbackRating:  req.FeedbackRating,
		FeedbackText:    req.FeedbackText,
		ComplaintText:   req.ComplaintText,
		ComplaintStatus: req.ComplaintStatus,
		DriveURL:        req.DriveURL,
	}

	inserted, err := s.details.InsertIfAbsent(ctx, detail)
	if err != nil {
		return false, fmt.Errorf("failed to save complaint detail: %w", err)
	}

	result := "skipped"
	if inserted {
		result = "inserted"
	}
	metrics.ComplaintDetailsSynced.WithLabelValues(result).Inc()

	return inserted, nil
}
