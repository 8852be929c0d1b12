package entity

import (
	"time"

	"github.com/google/uuid"
)

// Типы событий Kafka
const (
	EventTypeReviewsSynced         = "REVIEWS_SYNCED"
	EventTypeComplaintGenerated    = "COMPLAINT_GENERATED"
	EventTypeComplaintSubmitted    = "COMPLAINT_SUBMITTED"
	EventTypeComplaintRejected     = "COMPLAINT_REJECTED"
	EventTypeBackfillJobQueued     = "BACKFILL_JOB_QUEUED"
	EventTypeBackfillStatusChanged = "BACKFILL_JOB_STATUS_CHANGED"
)

// ReviewsSyncedEvent - входящее событие из review_events
type ReviewsSyncedEvent struct {
	EventType string        `json:"event_type"`
	StoreID   uuid.UUID     `json:"store_id"`
	Reviews   []ReviewInput `json:"reviews"`
	Timestamp time.Time     `json:"timestamp"`
}

// ComplaintEvent - исходящее событие жизненного цикла жалобы
type ComplaintEvent struct {
	EventType   string          `json:"event_type"`
	ComplaintID uuid.UUID       `json:"complaint_id"`
	ReviewID    uuid.UUID       `json:"review_id"`
	StoreID     uuid.UUID       `json:"store_id"`
	Status      ComplaintStatus `json:"status"`
	Source      string          `json:"source,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// BackfillJobEvent - исходящее событие смены статуса backfill задачи
type BackfillJobEvent struct {
	EventType      string    `json:"event_type"`
	JobID          uuid.UUID `json:"job_id"`
	StoreID        uuid.UUID `json:"store_id"`
	Status         JobStatus `json:"status"`
	ProcessedCount int       `json:"processed_count"`
	TotalTarget    int       `json:"total_target"`
	LastError      string    `json:"last_error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// ReviewStatusChange - запись истории статусов отзыва (MongoDB)
type ReviewStatusChange struct {
	ReviewID string    `json:"review_id" bson:"review_id"`
	StoreID  string    `json:"store_id" bson:"store_id"`
	From     string    `json:"from" bson:"from"`
	To       string    `json:"to" bson:"to"`
	Reason   string    `json:"reason,omitempty" bson:"reason,omitempty"`
	Source   string    `json:"source" bson:"source"`
	At       time.Time `json:"at" bson:"at"`
}
