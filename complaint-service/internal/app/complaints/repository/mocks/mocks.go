package mocks

import (
	"context"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/infrastructure"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStoreRepository мок для StoreRepository
type MockStoreRepository struct {
	mock.Mock
}

func (m *MockStoreRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Store), args.Error(1)
}

func (m *MockStoreRepository) ListActive(ctx context.Context) ([]entity.Store, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Store), args.Error(1)
}

func (m *MockStoreRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	args := m.Called(ctx, id, active)
	return args.Bool(0), args.Error(1)
}

func (m *MockStoreRepository) UpdateQuotas(ctx context.Context, id uuid.UUID, daily, hourly *int) error {
	args := m.Called(ctx, id, daily, hourly)
	return args.Error(0)
}

func (m *MockStoreRepository) SetExtensionKeyHash(ctx context.Context, id uuid.UUID, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *MockStoreRepository) TouchReviewSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockProductRepository мок для ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) GetByArticul(ctx context.Context, storeID uuid.UUID, articul string) (*entity.Product, error) {
	args := m.Called(ctx, storeID, articul)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	args := m.Called(ctx, id, active)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) SetSubmitComplaints(ctx context.Context, id uuid.UUID, enabled bool) (bool, error) {
	args := m.Called(ctx, id, enabled)
	return args.Bool(0), args.Error(1)
}

// MockReviewRepository мок для ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) InsertIfAbsent(ctx context.Context, review *entity.Review) (bool, error) {
	args := m.Called(ctx, review)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) Transition(ctx context.Context, id uuid.UUID, from []entity.ReviewStatus, change entity.ReviewTransition) (bool, error) {
	args := m.Called(ctx, id, from, change)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) List(ctx context.Context, filter entity.ReviewFilter, after *entity.ReviewCursor, limit int) ([]entity.Review, error) {
	args := m.Called(ctx, filter, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) Count(ctx context.Context, filter entity.ReviewFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockComplaintRepository мок для ComplaintRepository
type MockComplaintRepository struct {
	mock.Mock
}

func (m *MockComplaintRepository) CreateForReview(ctx context.Context, complaint *entity.Complaint) (bool, error) {
	args := m.Called(ctx, complaint)
	return args.Bool(0), args.Error(1)
}

func (m *MockComplaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Complaint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Complaint), args.Error(1)
}

func (m *MockComplaintRepository) ListSubmittable(ctx context.Context, maxAttempts, limit int) ([]entity.Complaint, error) {
	args := m.Called(ctx, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Complaint), args.Error(1)
}

func (m *MockComplaintRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockComplaintRepository) MarkRejected(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, reason, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockComplaintRepository) RecordSubmitFailure(ctx context.Context, id uuid.UUID, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *MockComplaintRepository) Resolve(ctx context.Context, id uuid.UUID, status entity.ComplaintStatus, at time.Time) (bool, error) {
	args := m.Called(ctx, id, status, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockComplaintRepository) ExpireDrafts(ctx context.Context, createdBefore time.Time) (int64, error) {
	args := m.Called(ctx, createdBefore)
	return args.Get(0).(int64), args.Error(1)
}

// MockComplaintDetailRepository мок для ComplaintDetailRepository
type MockComplaintDetailRepository struct {
	mock.Mock
}

func (m *MockComplaintDetailRepository) InsertIfAbsent(ctx context.Context, detail *entity.ComplaintDetail) (bool, error) {
	args := m.Called(ctx, detail)
	return args.Bool(0), args.Error(1)
}

// MockBackfillJobRepository мок для BackfillJobRepository
type MockBackfillJobRepository struct {
	mock.Mock
}

func (m *MockBackfillJobRepository) Create(ctx context.Context, job *entity.BackfillJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockBackfillJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.BackfillJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.BackfillJob), args.Error(1)
}

func (m *MockBackfillJobRepository) ListClaimable(ctx context.Context, staleBefore time.Time, excludeStores []uuid.UUID, limit int) ([]entity.BackfillJob, error) {
	args := m.Called(ctx, staleBefore, excludeStores, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.BackfillJob), args.Error(1)
}

func (m *MockBackfillJobRepository) Claim(ctx context.Context, job *entity.BackfillJob) (bool, error) {
	args := m.Called(ctx, job)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackfillJobRepository) SaveProgress(ctx context.Context, id uuid.UUID, progress entity.JobProgress) (bool, error) {
	args := m.Called(ctx, id, progress)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackfillJobRepository) Transition(ctx context.Context, id uuid.UUID, from []entity.JobStatus, to entity.JobStatus, lastError string) (bool, error) {
	args := m.Called(ctx, id, from, to, lastError)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackfillJobRepository) Heartbeat(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockQuotaRepository мок для QuotaRepository
type MockQuotaRepository struct {
	mock.Mock
}

func (m *MockQuotaRepository) Reserve(ctx context.Context, key entity.QuotaKey, count, dailyLimit, hourlyLimit int) (bool, error) {
	args := m.Called(ctx, key, count, dailyLimit, hourlyLimit)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuotaRepository) Release(ctx context.Context, key entity.QuotaKey, count int, hourly bool) error {
	args := m.Called(ctx, key, count, hourly)
	return args.Error(0)
}

func (m *MockQuotaRepository) Usage(ctx context.Context, key entity.QuotaKey) (entity.QuotaUsage, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(entity.QuotaUsage), args.Error(1)
}

// MockHistoryRepository мок для HistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, change *entity.ReviewStatusChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListByReview(ctx context.Context, reviewID uuid.UUID, limit int) ([]entity.ReviewStatusChange, error) {
	args := m.Called(ctx, reviewID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReviewStatusChange), args.Error(1)
}

// MockLockRepository мок для LockRepository
type MockLockRepository struct {
	mock.Mock
}

func (m *MockLockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLockRepository) Release(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}

func (m *MockLockRepository) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, token, ttl)
	return args.Bool(0), args.Error(1)
}

// MockMessagePublisher мок для MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// MockTextGenerator мок для TextGenerator
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) GenerateComplaintText(ctx context.Context, prompt infrastructure.ComplaintPrompt) (*infrastructure.GeneratedText, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infrastructure.GeneratedText), args.Error(1)
}

func (m *MockTextGenerator) Provider() string {
	return "mock"
}

// MockMarketplaceClient мок для MarketplaceClient
type MockMarketplaceClient struct {
	mock.Mock
}

func (m *MockMarketplaceClient) FetchReviews(ctx context.Context, store *entity.Store, since time.Time) ([]entity.ReviewInput, error) {
	args := m.Called(ctx, store, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReviewInput), args.Error(1)
}

func (m *MockMarketplaceClient) SubmitComplaint(ctx context.Context, store *entity.Store, complaint *entity.Complaint, externalFeedbackID string) (*infrastructure.SubmitResult, error) {
	args := m.Called(ctx, store, complaint, externalFeedbackID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infrastructure.SubmitResult), args.Error(1)
}
