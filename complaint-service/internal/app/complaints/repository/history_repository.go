package repository

import (
	"context"
	"fmt"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type historyRepository struct {
	collection *mongo.Collection
}

// NewHistoryRepository создает append-only журнал статусов отзывов
// Индекс (review_id, at) создается при старте
func NewHistoryRepository(db *mongo.Database) HistoryRepository {
	collection := db.Collection("review_status_history")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "review_id", Value: 1},
			{Key: "at", Value: -1},
		},
		Options: options.Index().SetName("review_id_at_idx"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		// Индекс может уже существовать, работу не прерываем
		logger.Warn().Err(err).Msg("failed to create review_status_history index")
	}

	return &historyRepository{collection: collection}
}

func (r *historyRepository) Append(ctx context.Context, change *entity.ReviewStatusChange) error {
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, change); err != nil {
		return fmt.Errorf("failed to append review history: %w", err)
	}

	return nil
}

func (r *historyRepository) ListByReview(ctx context.Context, reviewID uuid.UUID, limit int) ([]entity.ReviewStatusChange, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"review_id": reviewID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find review history: %w", err)
	}
	defer cursor.Close(ctx)

	changes := make([]entity.ReviewStatusChange, 0)
	if err := cursor.All(ctx, &changes); err != nil {
		return nil, fmt.Errorf("failed to decode review history: %w", err)
	}

	return changes, nil
}
