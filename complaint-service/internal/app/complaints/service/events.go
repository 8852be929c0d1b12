package service

import (
	"context"
	"encoding/json"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/infrastructure"
	"reviewguard/pkg/logger"
)

// EventPublisher отправляет события в complaint_events.
// Ошибки Kafka только логируются: состояние уже сохранено в БД.
type EventPublisher struct {
	producer infrastructure.MessagePublisher
	now      func() time.Time
}

func NewEventPublisher(producer infrastructure.MessagePublisher) *EventPublisher {
	return &EventPublisher{producer: producer, now: time.Now}
}

// Enabled - false, если продюсер не сконфигурирован
func (p *EventPublisher) Enabled() bool {
	return p != nil && p.producer != nil
}

func (p *EventPublisher) PublishComplaint(ctx context.Context, eventType string, complaint *entity.Complaint, source string) {
	if !p.Enabled() {
		return
	}
	event := entity.ComplaintEvent{
		EventType:   eventType,
		ComplaintID: complaint.ID,
		ReviewID:    complaint.ReviewID,
		StoreID:     complaint.StoreID,
		Status:      complaint.Status,
		Source:      source,
		Timestamp:   p.now(),
	}
	p.publish(ctx, complaint.StoreID.String(), eventType, event)
}

func (p *EventPublisher) PublishJob(ctx context.Context, eventType string, job *entity.BackfillJob) {
	if !p.Enabled() {
		return
	}
	event := entity.BackfillJobEvent{
		EventType:      eventType,
		JobID:          job.ID,
		StoreID:        job.StoreID,
		Status:         job.Status,
		ProcessedCount: job.ProcessedCount,
		TotalTarget:    job.TotalTarget,
		LastError:      job.LastError,
		Timestamp:      p.now(),
	}
	p.publish(ctx, job.ID.String(), eventType, event)
}

func (p *EventPublisher) publish(ctx context.Context, key, eventType string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal event")
		return
	}

	if err := p.producer.PublishMessage(ctx, key, data); err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Str("key", key).Msg("Failed to publish event")
	}
}
