package entity

import "time"

// ReviewInput - отзыв в том виде, в каком его отдает маркетплейс
type ReviewInput struct {
	ExternalFeedbackID string    `json:"external_feedback_id" validate:"required,max=128"`
	Articul            string    `json:"articul" validate:"required,max=64"`
	FeedbackDate       time.Time `json:"feedback_date" validate:"required"`
	Rating             int       `json:"rating" validate:"required,min=1,max=5"`
	Text               string    `json:"text" validate:"max=5000"`
}

// SyncReviewsRequest DTO для POST /api/v1/reviews/sync
type SyncReviewsRequest struct {
	StoreID string        `json:"store_id" validate:"required,uuid"`
	Reviews []ReviewInput `json:"reviews" validate:"required,min=1,max=500,dive"`
}

// SyncResult - итог дедуплицированной вставки отзывов
type SyncResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Unknown  int `json:"unknown_product"` // вставлены без product_id
}

// UpdateStoreRequest DTO для PATCH /api/v1/stores/:store_id
type UpdateStoreRequest struct {
	IsActive             *bool `json:"is_active"`
	DailyComplaintQuota  *int  `json:"daily_complaint_quota" validate:"omitempty,min=0,max=100000"`
	HourlyComplaintQuota *int  `json:"hourly_complaint_quota" validate:"omitempty,min=0,max=100000"`
}

// UpdateProductRequest DTO для PATCH /api/v1/products/:product_id
type UpdateProductRequest struct {
	IsActive         *bool `json:"is_active"`
	SubmitComplaints *bool `json:"submit_complaints"`
}

// EnqueueBackfillRequest DTO для POST /api/v1/stores/:store_id/backfill-jobs
type EnqueueBackfillRequest struct {
	ProductID  string     `json:"product_id" validate:"omitempty,uuid"`
	From       *time.Time `json:"from"`
	To         *time.Time `json:"to"`
	Statuses   []string   `json:"statuses" validate:"omitempty,dive,oneof=pending eligible ineligible failed"`
	MaxReviews int        `json:"max_reviews" validate:"omitempty,min=1"`
}

// ResolutionRequest DTO для POST /api/v1/complaints/:complaint_id/resolution
type ResolutionRequest struct {
	Resolution string `json:"resolution" validate:"required,oneof=accepted rejected"`
}

// ComplaintDetailRequest DTO от браузерного расширения
type ComplaintDetailRequest struct {
	Articul         string `json:"articul" validate:"required,max=64"`
	FeedbackDate    string `json:"feedback_date" validate:"required,datetime=2006-01-02"`
	FileName        string `json:"file_name" validate:"required,max=255"`
	FeedbackRating  int    `json:"feedback_rating" validate:"omitempty,min=1,max=5"`
	FeedbackText    string `json:"feedback_text" validate:"max=5000"`
	ComplaintText   string `json:"complaint_text" validate:"max=5000"`
	ComplaintStatus string `json:"complaint_status" validate:"max=64"`
	DriveURL        string `json:"drive_url" validate:"omitempty,url"`
}

// ExtensionKeyResponse - ключ возвращается в открытом виде только один раз
type ExtensionKeyResponse struct {
	StoreID string `json:"store_id"`
	Key     string `json:"key"`
}
