package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/service"
	"reviewguard/pkg/logger"
	"reviewguard/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const serviceName = "complaint-service"

// KafkaConsumer читает синхронизированные отзывы из топика review_events
type KafkaConsumer struct {
	reader    *kafka.Reader
	ingestion service.ReviewIngester
	topic     string
	groupID   string
	stopChan  chan struct{}
	doneChan  chan struct{}
}

func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	ingestion service.ReviewIngester,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.FirstOffset, // вставка идемпотентна, повторное чтение безопасно
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &KafkaConsumer{
		reader:    reader,
		ingestion: ingestion,
		topic:     topic,
		groupID:   groupID,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start запускает чтение в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group_id", c.groupID).Msg("Starting Kafka consumer")
	go c.consume(ctx)
}

func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer")
	close(c.stopChan)
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close Kafka reader")
	}
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}

				metrics.RecordKafkaError(serviceName, c.topic, "fetch")
				logger.Error().Err(err).Msg("Error fetching message")
				time.Sleep(time.Second)
				continue
			}

			start := time.Now()
			if err := c.processMessage(ctx, message); err != nil {
				// offset не коммитим: после перезапуска сообщение будет прочитано снова
				metrics.RecordKafkaError(serviceName, c.topic, "process")
				logger.Error().
					Err(err).
					Int64("offset", message.Offset).
					Int("partition", message.Partition).
					Msg("Error processing message")
				continue
			}
			metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, time.Since(start))

			if err := c.reader.CommitMessages(ctx, message); err != nil {
				metrics.RecordKafkaError(serviceName, c.topic, "commit")
				logger.Error().Err(err).Msg("Error committing message")
			}
		}
	}
}

// processMessage возвращает ошибку только для временных сбоев.
// Битые сообщения и неизвестные магазины пропускаются, иначе они блокировали бы партицию.
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ReviewsSyncedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		logger.Warn().Err(err).Int64("offset", message.Offset).Msg("Skipping malformed review event")
		return nil
	}

	if event.EventType != entity.EventTypeReviewsSynced {
		logger.Debug().Str("event_type", event.EventType).Msg("Skipping unsupported event type")
		return nil
	}

	logger.Info().
		Str("store_id", event.StoreID.String()).
		Int("reviews", len(event.Reviews)).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received reviews synced event")

	result, err := c.ingestion.SyncReviews(ctx, event.StoreID, event.Reviews, "kafka")
	if err != nil {
		if errors.Is(err, service.ErrStoreNotFound) {
			logger.Warn().Str("store_id", event.StoreID.String()).Msg("Skipping reviews for unknown store")
			return nil
		}
		return fmt.Errorf("failed to ingest reviews: %w", err)
	}

	logger.Info().
		Str("store_id", event.StoreID.String()).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Msg("Reviews from Kafka ingested")

	return nil
}
