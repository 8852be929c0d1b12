package service

import (
	"context"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/google/uuid"
)

// ReviewProcessor - общий путь оценки и генерации, его используют триггеры, backfill и rescan
type ReviewProcessor interface {
	Process(ctx context.Context, reviewID uuid.UUID, source Source) Outcome
}

// TaskDispatcher принимает фоновую задачу и никогда не блокирует вызывающего
type TaskDispatcher interface {
	Submit(task Task) bool
}

type JobEnqueuer interface {
	EnqueueJob(ctx context.Context, storeID uuid.UUID, criteria entity.BackfillCriteria) (*entity.BackfillJob, error)
}

// Triggers - fire-and-forget точки входа для внешних событий
type Triggers interface {
	OnReviewSynced(review *entity.Review)
	OnStoreActivated(storeID uuid.UUID)
	OnProductActivated(productID uuid.UUID)
	OnProductRulesEnabled(productID uuid.UUID)
}

// ReviewIngester - дедуплицированная вставка отзывов, общая для HTTP и Kafka
type ReviewIngester interface {
	SyncReviews(ctx context.Context, storeID uuid.UUID, inputs []entity.ReviewInput, source string) (*entity.SyncResult, error)
}
