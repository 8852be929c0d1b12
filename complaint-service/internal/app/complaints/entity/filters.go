package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReviewFilter - условия выборки отзывов для триггеров, backfill и rescan
// Нулевой StoreID означает все магазины
type ReviewFilter struct {
	StoreID   uuid.UUID
	ProductID *uuid.UUID
	// Articul вместе с ProductID захватывает отзывы без product_id,
	// синхронизированные до появления товара в каталоге
	Articul           string
	Statuses          []ReviewStatus
	From              *time.Time
	To                *time.Time
	UpdatedBefore     *time.Time
	RetryEligibleOnly bool
	MaxAttempts       int
}

// ReviewCursor - keyset-позиция в порядке (feedback_date, id)
type ReviewCursor struct {
	FeedbackDate time.Time `json:"feedback_date"`
	ReviewID     uuid.UUID `json:"review_id"`
}

// BackfillCriteria - критерии отбора для новой backfill задачи
type BackfillCriteria struct {
	ProductID  *uuid.UUID
	From       *time.Time
	To         *time.Time
	Statuses   []ReviewStatus
	MaxReviews int
}

// Ключи в BackfillJob.Filter
const (
	FilterKeyFrom       = "from"
	FilterKeyTo         = "to"
	FilterKeyMaxReviews = "max_reviews"
	FilterKeyArticul    = "articul"
)

// ReviewFilter восстанавливает фильтр выборки из сохраненной задачи
func (j *BackfillJob) ReviewFilter() ReviewFilter {
	f := ReviewFilter{
		StoreID:   j.StoreID,
		ProductID: j.ProductID,
	}
	for _, s := range j.Statuses {
		f.Statuses = append(f.Statuses, ReviewStatus(s))
	}
	if articul, ok := j.Filter[FilterKeyArticul].(string); ok && j.ProductID != nil {
		f.Articul = articul
	}
	f.From = filterTime(j.Filter, FilterKeyFrom)
	f.To = filterTime(j.Filter, FilterKeyTo)
	return f
}

func filterTime(m map[string]interface{}, key string) *time.Time {
	raw, ok := m[key].(string)
	if !ok || raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
