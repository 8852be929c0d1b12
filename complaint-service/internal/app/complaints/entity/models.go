package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Store - магазин продавца на маркетплейсе
type Store struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name                 string     `json:"name" gorm:"type:varchar(255);not null"`
	IsActive             bool       `json:"is_active" gorm:"not null"`
	DailyComplaintQuota  int        `json:"daily_complaint_quota" gorm:"not null"`
	HourlyComplaintQuota int        `json:"hourly_complaint_quota" gorm:"not null"` // 0 - без почасового лимита
	MarketplaceToken     string     `json:"-" gorm:"type:text"`
	ExtensionKeyHash     string     `json:"-" gorm:"type:varchar(255)"` // bcrypt хеш ключа расширения
	LastReviewSyncAt     *time.Time `json:"last_review_sync_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Store) TableName() string {
	return "stores"
}

// Product - товар магазина с персональными флагами жалоб
type Product struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	StoreID          uuid.UUID `json:"store_id" gorm:"type:uuid;not null;uniqueIndex:ux_product_store_articul,priority:1"`
	Articul          string    `json:"articul" gorm:"type:varchar(64);not null;uniqueIndex:ux_product_store_articul,priority:2"`
	Name             string    `json:"name" gorm:"type:varchar(255)"`
	IsActive         bool      `json:"is_active" gorm:"not null"`
	SubmitComplaints bool      `json:"submit_complaints" gorm:"not null"` // opt-in на автожалобы
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

// ReviewStatus - статус обработки отзыва
type ReviewStatus string

const (
	ReviewStatusPending            ReviewStatus = "pending"             // Только что синхронизирован
	ReviewStatusEligible           ReviewStatus = "eligible"            // Прошел правила, ждет генерации или квоты
	ReviewStatusIneligible         ReviewStatus = "ineligible"          // Не прошел правила (см. ineligible_reason)
	ReviewStatusComplaintGenerated ReviewStatus = "complaint_generated" // Жалоба создана (draft)
	ReviewStatusComplaintSubmitted ReviewStatus = "complaint_submitted" // Жалоба отправлена в маркетплейс
	ReviewStatusFailed             ReviewStatus = "failed"              // Ошибка генерации (см. retry_eligible)
)

// ReevaluableStatuses - статусы, из которых отзыв можно оценить повторно
var ReevaluableStatuses = []ReviewStatus{
	ReviewStatusPending,
	ReviewStatusEligible,
	ReviewStatusIneligible,
	ReviewStatusFailed,
}

// Review - отзыв покупателя, синхронизированный из маркетплейса
type Review struct {
	ID                 uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	StoreID            uuid.UUID    `json:"store_id" gorm:"type:uuid;not null;uniqueIndex:ux_review_store_feedback,priority:1;index:idx_review_scan,priority:1"`
	ProductID          *uuid.UUID   `json:"product_id,omitempty" gorm:"type:uuid;index"`
	Articul            string       `json:"articul" gorm:"type:varchar(64);not null"`
	ExternalFeedbackID string       `json:"external_feedback_id" gorm:"type:varchar(128);not null;uniqueIndex:ux_review_store_feedback,priority:2"`
	FeedbackDate       time.Time    `json:"feedback_date" gorm:"not null;index:idx_review_scan,priority:3"`
	Rating             int          `json:"rating" gorm:"not null"`
	Text               string       `json:"text" gorm:"type:text"`
	Status             ReviewStatus `json:"status" gorm:"type:varchar(32);not null;index:idx_review_scan,priority:2"`
	IneligibleReason   string       `json:"ineligible_reason,omitempty" gorm:"type:varchar(64)"`
	FailureReason      string       `json:"failure_reason,omitempty" gorm:"type:text"`
	RetryEligible      bool         `json:"retry_eligible" gorm:"not null"`
	AttemptCount       int          `json:"attempt_count" gorm:"not null"`
	CreatedAt          time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Review) TableName() string {
	return "reviews"
}

// ReviewTransition - изменение статуса отзыва через compare-and-set
type ReviewTransition struct {
	To               ReviewStatus
	IneligibleReason string
	FailureReason    string
	RetryEligible    bool
	CountAttempt     bool // увеличить attempt_count
}

// ComplaintStatus - жизненный цикл жалобы
type ComplaintStatus string

const (
	ComplaintStatusDraft     ComplaintStatus = "draft"
	ComplaintStatusSubmitted ComplaintStatus = "submitted"
	ComplaintStatusAccepted  ComplaintStatus = "accepted"
	ComplaintStatusRejected  ComplaintStatus = "rejected"
	ComplaintStatusExpired   ComplaintStatus = "expired"
)

// Complaint - сгенерированная жалоба, не более одной на отзыв
type Complaint struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	ReviewID        uuid.UUID       `json:"review_id" gorm:"type:uuid;not null;uniqueIndex:ux_complaint_review"`
	StoreID         uuid.UUID       `json:"store_id" gorm:"type:uuid;not null;index"`
	Text            string          `json:"text" gorm:"type:text;not null"`
	ModelUsed       string          `json:"model_used" gorm:"type:varchar(64)"`
	Status          ComplaintStatus `json:"status" gorm:"type:varchar(32);not null;index"`
	SubmitAttempts  int             `json:"submit_attempts" gorm:"not null"`
	LastError       string          `json:"last_error,omitempty" gorm:"type:text"`
	RejectionReason string          `json:"rejection_reason,omitempty" gorm:"type:text"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Complaint) TableName() string {
	return "complaints"
}

// ComplaintDetail - запись, присланная браузерным расширением
// Естественный ключ: (store_id, articul, feedback_date, file_name)
type ComplaintDetail struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	StoreID         uuid.UUID `json:"store_id" gorm:"type:uuid;not null;uniqueIndex:ux_complaint_detail_key,priority:1"`
	Articul         string    `json:"articul" gorm:"type:varchar(64);not null;uniqueIndex:ux_complaint_detail_key,priority:2"`
	FeedbackDate    time.Time `json:"feedback_date" gorm:"type:date;not null;uniqueIndex:ux_complaint_detail_key,priority:3"`
	FileName        string    `json:"file_name" gorm:"type:varchar(255);not null;uniqueIndex:ux_complaint_detail_key,priority:4"`
	FeedbackRating  int       `json:"feedback_rating"`
	FeedbackText    string    `json:"feedback_text" gorm:"type:text"`
	ComplaintText   string    `json:"complaint_text" gorm:"type:text"`
	ComplaintStatus string    `json:"complaint_status" gorm:"type:varchar(64)"`
	DriveURL        string    `json:"drive_url" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (ComplaintDetail) TableName() string {
	return "complaint_details"
}

// JobStatus - статус backfill задачи
type JobStatus string

const (
	JobStatusQueued      JobStatus = "queued"
	JobStatusRunning     JobStatus = "running"
	JobStatusPausedQuota JobStatus = "paused_quota"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusFailed      JobStatus = "failed"
	JobStatusCancelled   JobStatus = "cancelled"
)

// IsTerminal - из терминального статуса переходов нет
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// BackfillJob - персистентная задача обработки исторического бэклога
type BackfillJob struct {
	ID                 uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	StoreID            uuid.UUID         `json:"store_id" gorm:"type:uuid;not null;index:idx_backfill_store_status,priority:1"`
	ProductID          *uuid.UUID        `json:"product_id,omitempty" gorm:"type:uuid"`
	Filter             datatypes.JSONMap `json:"filter" gorm:"type:jsonb"`
	Statuses           pq.StringArray    `json:"statuses" gorm:"type:text[]"`
	TotalTarget        int               `json:"total_target" gorm:"not null"`
	ProcessedCount     int               `json:"processed_count" gorm:"not null"`
	GeneratedCount     int               `json:"generated_count" gorm:"not null"`
	SkippedCount       int               `json:"skipped_count" gorm:"not null"`
	FailedCount        int               `json:"failed_count" gorm:"not null"`
	CursorFeedbackDate *time.Time        `json:"cursor_feedback_date,omitempty"`
	CursorReviewID     *uuid.UUID        `json:"cursor_review_id,omitempty" gorm:"type:uuid"`
	Status             JobStatus         `json:"status" gorm:"type:varchar(32);not null;index:idx_backfill_store_status,priority:2"`
	LastError          string            `json:"last_error,omitempty" gorm:"type:text"`
	RunCount           int               `json:"run_count" gorm:"not null"`
	StartedAt          *time.Time        `json:"started_at,omitempty"`
	FinishedAt         *time.Time        `json:"finished_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

func (BackfillJob) TableName() string {
	return "backfill_jobs"
}

// Cursor возвращает позицию, после которой продолжается обработка
func (j *BackfillJob) Cursor() *ReviewCursor {
	if j.CursorFeedbackDate == nil || j.CursorReviewID == nil {
		return nil
	}
	return &ReviewCursor{FeedbackDate: *j.CursorFeedbackDate, ReviewID: *j.CursorReviewID}
}

// JobProgress - прогресс, сохраняемый после каждого батча
type JobProgress struct {
	ProcessedCount int
	GeneratedCount int
	SkippedCount   int
	FailedCount    int
	Cursor         *ReviewCursor
	LastError      string
}

// QuotaKey - ключ счетчиков квоты магазина на конкретный день и час (UTC)
type QuotaKey struct {
	StoreID uuid.UUID
	Day     time.Time
	Hour    time.Time
}

// NewQuotaKey строит ключ по моменту времени
func NewQuotaKey(storeID uuid.UUID, now time.Time) QuotaKey {
	now = now.UTC()
	return QuotaKey{
		StoreID: storeID,
		Day:     time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Hour:    now.Truncate(time.Hour),
	}
}

// QuotaUsage - использованная квота за день и за час
type QuotaUsage struct {
	StoreID   uuid.UUID `json:"store_id"`
	Day       time.Time `json:"day"`
	UsedDay   int       `json:"used_day"`
	UsedHour  int       `json:"used_hour"`
	DailyCap  int       `json:"daily_cap"`
	HourlyCap int       `json:"hourly_cap"`
	Remaining int       `json:"remaining"`
}
