package repository

import (
	"context"
	"errors"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/google/uuid"
)

var (
	// Стандартные ошибки репозиториев для обработки в service layer
	ErrStoreNotFound     = errors.New("store not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrReviewNotFound    = errors.New("review not found")
	ErrComplaintNotFound = errors.New("complaint not found")
	ErrJobNotFound       = errors.New("backfill job not found")
)

// StoreRepository определяет методы для работы с магазинами
type StoreRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Store, error)
	ListActive(ctx context.Context) ([]entity.Store, error)
	// SetActive меняет флаг только при реальном переходе, changed=false если флаг уже такой
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
	UpdateQuotas(ctx context.Context, id uuid.UUID, daily, hourly *int) error
	SetExtensionKeyHash(ctx context.Context, id uuid.UUID, hash string) error
	TouchReviewSync(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ProductRepository определяет методы для работы с товарами
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetByArticul(ctx context.Context, storeID uuid.UUID, articul string) (*entity.Product, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
	SetSubmitComplaints(ctx context.Context, id uuid.UUID, enabled bool) (bool, error)
}

// ReviewRepository определяет методы для работы с отзывами
type ReviewRepository interface {
	// InsertIfAbsent - дедуплицированная вставка по (store_id, external_feedback_id)
	InsertIfAbsent(ctx context.Context, review *entity.Review) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	// Transition - compare-and-set статуса: обновляет только если текущий статус входит в from
	Transition(ctx context.Context, id uuid.UUID, from []entity.ReviewStatus, change entity.ReviewTransition) (bool, error)
	// List возвращает отзывы в порядке (feedback_date, id) строго после курсора
	List(ctx context.Context, filter entity.ReviewFilter, after *entity.ReviewCursor, limit int) ([]entity.Review, error)
	Count(ctx context.Context, filter entity.ReviewFilter) (int64, error)
}

// ComplaintRepository определяет методы для работы с жалобами
type ComplaintRepository interface {
	// CreateForReview в одной транзакции переводит отзыв eligible -> complaint_generated
	// и вставляет жалобу; created=false если другой путь успел раньше
	CreateForReview(ctx context.Context, complaint *entity.Complaint) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Complaint, error)
	ListSubmittable(ctx context.Context, maxAttempts, limit int) ([]entity.Complaint, error)
	MarkSubmitted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkRejected(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error)
	RecordSubmitFailure(ctx context.Context, id uuid.UUID, errMsg string) error
	Resolve(ctx context.Context, id uuid.UUID, status entity.ComplaintStatus, at time.Time) (bool, error)
	ExpireDrafts(ctx context.Context, createdBefore time.Time) (int64, error)
}

// ComplaintDetailRepository - записи от браузерного расширения
type ComplaintDetailRepository interface {
	InsertIfAbsent(ctx context.Context, detail *entity.ComplaintDetail) (bool, error)
}

// BackfillJobRepository определяет методы для персистентной очереди backfill
type BackfillJobRepository interface {
	Create(ctx context.Context, job *entity.BackfillJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.BackfillJob, error)
	// ListClaimable возвращает queued, paused_quota и зависшие running задачи,
	// не больше одной на магазин
	ListClaimable(ctx context.Context, staleBefore time.Time, excludeStores []uuid.UUID, limit int) ([]entity.BackfillJob, error)
	// Claim переводит задачу в running, если ее status и updated_at не изменились
	Claim(ctx context.Context, job *entity.BackfillJob) (bool, error)
	// SaveProgress никогда не уменьшает processed_count
	SaveProgress(ctx context.Context, id uuid.UUID, progress entity.JobProgress) (bool, error)
	Transition(ctx context.Context, id uuid.UUID, from []entity.JobStatus, to entity.JobStatus, lastError string) (bool, error)
	// Heartbeat обновляет updated_at running задачи, чтобы она не считалась зависшей
	Heartbeat(ctx context.Context, id uuid.UUID) (bool, error)
}

// QuotaRepository - атомарные счетчики квоты (PostgreSQL через pgx)
type QuotaRepository interface {
	// Reserve увеличивает дневной и часовой счетчики, только если оба остаются в пределах лимитов
	Reserve(ctx context.Context, key entity.QuotaKey, count, dailyLimit, hourlyLimit int) (bool, error)
	// Release уменьшает счетчики, не опуская их ниже нуля.
	// hourly=false - часовой счетчик при резерве не увеличивался и не уменьшается
	Release(ctx context.Context, key entity.QuotaKey, count int, hourly bool) error
	Usage(ctx context.Context, key entity.QuotaKey) (entity.QuotaUsage, error)
}

// HistoryRepository - история статусов отзывов (MongoDB)
type HistoryRepository interface {
	Append(ctx context.Context, change *entity.ReviewStatusChange) error
	ListByReview(ctx context.Context, reviewID uuid.UUID, limit int) ([]entity.ReviewStatusChange, error)
}

// LockRepository - распределенные блокировки в Redis
type LockRepository interface {
	// Acquire возвращает токен владельца, ok=false если блокировка занята
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
	// Extend продлевает TTL, ok=false если блокировкой уже владеет другой токен или она истекла
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
}
