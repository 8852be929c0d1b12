package infrastructure

import (
	"context"
	"errors"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"
)

// ErrTransient - сетевая ошибка, таймаут, 429 или 5xx внешнего API.
// Такие вызовы имеет смысл повторить.
var ErrTransient = errors.New("transient downstream failure")

// MessagePublisher определяет интерфейс для публикации сообщений в Kafka
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
}

// ComplaintPrompt - данные отзыва, из которых генерируется текст жалобы
type ComplaintPrompt struct {
	ReviewText   string
	Rating       int
	ProductName  string
	Articul      string
	FeedbackDate time.Time
}

// GeneratedText - результат генерации
type GeneratedText struct {
	Text      string
	ModelUsed string
}

// TextGenerator - провайдер генерации текста жалобы (LLM или шаблон)
type TextGenerator interface {
	GenerateComplaintText(ctx context.Context, prompt ComplaintPrompt) (*GeneratedText, error)
	Provider() string
}

// SubmitStatus - ответ маркетплейса на отправку жалобы
type SubmitStatus string

const (
	SubmitAccepted SubmitStatus = "accepted"
	SubmitRejected SubmitStatus = "rejected"
)

type SubmitResult struct {
	Status SubmitStatus
	Reason string
}

// MarketplaceClient - API маркетплейса для отзывов и жалоб.
// Временные ошибки возвращаются обернутыми в ErrTransient.
type MarketplaceClient interface {
	FetchReviews(ctx context.Context, store *entity.Store, since time.Time) ([]entity.ReviewInput, error)
	SubmitComplaint(ctx context.Context, store *entity.Store, complaint *entity.Complaint, externalFeedbackID string) (*SubmitResult, error)
}
