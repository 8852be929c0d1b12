package handler

import (
	"context"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/google/uuid"
)

type IngestionServiceInterface interface {
	SyncReviews(ctx context.Context, storeID uuid.UUID, inputs []entity.ReviewInput, source string) (*entity.SyncResult, error)
}

type ReviewQueryServiceInterface interface {
	GetReview(ctx context.Context, reviewID uuid.UUID) (*entity.Review, error)
	GetHistory(ctx context.Context, reviewID uuid.UUID) ([]entity.ReviewStatusChange, error)
}

type StoreServiceInterface interface {
	UpdateStore(ctx context.Context, storeID uuid.UUID, req *entity.UpdateStoreRequest) (*entity.Store, error)
	GetQuotaUsage(ctx context.Context, storeID uuid.UUID) (entity.QuotaUsage, error)
}

type ProductServiceInterface interface {
	UpdateProduct(ctx context.Context, productID uuid.UUID, req *entity.UpdateProductRequest) (*entity.Product, error)
}

type BackfillServiceInterface interface {
	EnqueueJob(ctx context.Context, storeID uuid.UUID, criteria entity.BackfillCriteria) (*entity.BackfillJob, error)
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (*entity.BackfillJob, error)
	CancelJob(ctx context.Context, jobID uuid.UUID) (*entity.BackfillJob, error)
}

type ComplaintServiceInterface interface {
	Resolve(ctx context.Context, complaintID uuid.UUID, resolution string) (*entity.Complaint, error)
}

type ExtensionServiceInterface interface {
	IssueKey(ctx context.Context, storeID uuid.UUID) (*entity.ExtensionKeyResponse, error)
	Authenticate(ctx context.Context, storeID uuid.UUID, key string) (*entity.Store, error)
	SaveComplaintDetail(ctx context.Context, storeID uuid.UUID, req *entity.ComplaintDetailRequest) (bool, error)
}
