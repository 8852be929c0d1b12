package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/config"
	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/infrastructure"
	"reviewguard/complaint-service/internal/app/complaints/repository"
	"reviewguard/pkg/logger"
	"reviewguard/pkg/metrics"

	"github.com/google/uuid"
)

// Source - что инициировало обработку отзыва
type Source string

const (
	SourceReviewSynced        Source = "review_synced"
	SourceStoreActivated      Source = "store_activated"
	SourceProductActivated    Source = "product_activated"
	SourceProductRulesEnabled Source = "product_rules_enabled"
	SourceBackfill            Source = "backfill"
	SourceRescan              Source = "rescan"
)

type OutcomeKind string

const (
	OutcomeGenerated     OutcomeKind = "generated"
	OutcomeSkipped       OutcomeKind = "skipped"
	OutcomeFailed        OutcomeKind = "failed"
	OutcomeQuotaExceeded OutcomeKind = "quota_exceeded"
)

// Причины для исходов, которые не дает RuleValidator
const (
	reasonQuotaExceeded    = "quota_exceeded"
	reasonReviewNotFound   = "review_not_found"
	reasonLookupFailed     = "lookup_failed"
	reasonGenerationFailed = "generation_failed"
	reasonPersistFailed    = "persist_failed"
)

// Outcome - результат обработки одного отзыва.
// Неприменимость правил - это исход, а не ошибка.
type Outcome struct {
	ReviewID    uuid.UUID
	Kind        OutcomeKind
	Reason      string
	ComplaintID uuid.UUID
	Err         error
}

// GeneratorService - единственный путь от отзыва к черновику жалобы:
// правила -> генерация текста -> резерв квоты -> запись
type GeneratorService struct {
	reviews    repository.ReviewRepository
	stores     repository.StoreRepository
	products   repository.ProductRepository
	complaints repository.ComplaintRepository
	history    repository.HistoryRepository
	quota      *QuotaService
	validator  *RuleValidator
	textGen    infrastructure.TextGenerator
	events     *EventPublisher

	maxAttempts int
	backoff     time.Duration
}

func NewGeneratorService(
	reviews repository.ReviewRepository,
	stores repository.StoreRepository,
	products repository.ProductRepository,
	complaints repository.ComplaintRepository,
	history repository.HistoryRepository,
	quota *QuotaService,
	validator *RuleValidator,
	textGen infrastructure.TextGenerator,
	events *EventPublisher,
	cfg config.GenerationConfig,
) *GeneratorService {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &GeneratorService{
		reviews:     reviews,
		stores:      stores,
		products:    products,
		complaints:  complaints,
		history:     history,
		quota:       quota,
		validator:   validator,
		textGen:     textGen,
		events:      events,
		maxAttempts: maxAttempts,
		backoff:     cfg.RetryBackoff,
	}
}

// Process оценивает отзыв и, если он подходит, создает черновик жалобы.
// Квота резервируется только после успешной генерации текста.
func (s *GeneratorService) Process(ctx context.Context, reviewID uuid.UUID, source Source) Outcome {
	outcome := s.process(ctx, reviewID, source)
	s.record(outcome, source)
	return outcome
}

func (s *GeneratorService) process(ctx context.Context, reviewID uuid.UUID, source Source) Outcome {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return failed(reviewID, reasonReviewNotFound, fmt.Errorf("%w: review %s not found", ErrStructural, reviewID))
		}
		return failed(reviewID, reasonLookupFailed, err)
	}

	store, product, err := s.loadContext(ctx, review)
	if err != nil {
		return failed(reviewID, reasonLookupFailed, err)
	}

	verdict := s.validator.IsEligible(review, product, store)
	if !verdict.Eligible {
		if verdict.Reason == ReasonAlreadyProcessed {
			return skipped(reviewID, ReasonAlreadyProcessed)
		}
		return s.markIneligible(ctx, review, verdict.Reason, source)
	}

	if review.Status != entity.ReviewStatusEligible {
		ok, err := s.reviews.Transition(ctx, review.ID, entity.ReevaluableStatuses, entity.ReviewTransition{To: entity.ReviewStatusEligible})
		if err != nil {
			return failed(reviewID, reasonLookupFailed, err)
		}
		if !ok {
			return skipped(reviewID, ReasonAlreadyProcessed)
		}
		s.appendHistory(ctx, review, entity.ReviewStatusEligible, "", source)
		review.Status = entity.ReviewStatusEligible
	}

	// Дешевая предварительная проверка, чтобы не тратить вызов LLM
	left, err := s.quota.Remaining(ctx, store)
	if err != nil {
		return failed(reviewID, reasonLookupFailed, err)
	}
	if left == 0 {
		return Outcome{ReviewID: reviewID, Kind: OutcomeQuotaExceeded, Reason: reasonQuotaExceeded}
	}

	text, err := s.generate(ctx, review, product)
	if err != nil {
		return s.markFailed(ctx, review, reasonGenerationFailed, err, source)
	}

	reservation, err := s.quota.TryReserve(ctx, store, 1)
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			return Outcome{ReviewID: reviewID, Kind: OutcomeQuotaExceeded, Reason: reasonQuotaExceeded}
		}
		return failed(reviewID, reasonLookupFailed, err)
	}

	complaint := &entity.Complaint{
		ID:        uuid.New(),
		ReviewID:  review.ID,
		StoreID:   review.StoreID,
		Text:      text.Text,
		ModelUsed: text.ModelUsed,
		Status:    entity.ComplaintStatusDraft,
	}

	created, err := s.complaints.CreateForReview(ctx, complaint)
	if err != nil {
		s.release(ctx, reservation)
		return s.markFailed(ctx, review, reasonPersistFailed, fmt.Errorf("%w: %v", ErrTransientDownstream, err), source)
	}
	if !created {
		s.release(ctx, reservation)
		return skipped(reviewID, ReasonAlreadyProcessed)
	}

	s.appendHistory(ctx, review, entity.ReviewStatusComplaintGenerated, "", source)
	s.events.PublishComplaint(ctx, entity.EventTypeComplaintGenerated, complaint, string(source))
	metrics.ComplaintsGenerated.WithLabelValues(string(source)).Inc()

	return Outcome{ReviewID: reviewID, Kind: OutcomeGenerated, ComplaintID: complaint.ID}
}

// loadContext загружает магазин и товар; отсутствие записи - не ошибка, а nil
func (s *GeneratorService) loadContext(ctx context.Context, review *entity.Review) (*entity.Store, *entity.Product, error) {
	store, err := s.stores.GetByID(ctx, review.StoreID)
	if err != nil {
		if !errors.Is(err, repository.ErrStoreNotFound) {
			return nil, nil, err
		}
		store = nil
	}

	var product *entity.Product
	if review.ProductID != nil {
		product, err = s.products.GetByID(ctx, *review.ProductID)
	} else {
		// Товар мог появиться в каталоге позже отзыва
		product, err = s.products.GetByArticul(ctx, review.StoreID, review.Articul)
	}
	if err != nil {
		if !errors.Is(err, repository.ErrProductNotFound) {
			return nil, nil, err
		}
		product = nil
	}

	return store, product, nil
}

// generate вызывает провайдера текста; временные ошибки повторяются с линейной задержкой
func (s *GeneratorService) generate(ctx context.Context, review *entity.Review, product *entity.Product) (*infrastructure.GeneratedText, error) {
	prompt := infrastructure.ComplaintPrompt{
		ReviewText:   review.Text,
		Rating:       review.Rating,
		ProductName:  product.Name,
		Articul:      review.Articul,
		FeedbackDate: review.FeedbackDate,
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		start := time.Now()
		text, err := s.textGen.GenerateComplaintText(ctx, prompt)
		metrics.RecordTextGeneration(s.textGen.Provider(), time.Since(start), err)
		if err == nil {
			return text, nil
		}

		lastErr = err
		if !errors.Is(err, ErrTransientDownstream) || attempt == s.maxAttempts {
			break
		}

		logger.Review(review.ID, review.StoreID).Warn().
			Err(err).
			Int("attempt", attempt).
			Msg("Text generation failed, retrying")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTransientDownstream, ctx.Err())
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}

	return nil, lastErr
}

func (s *GeneratorService) markIneligible(ctx context.Context, review *entity.Review, reason ReasonCode, source Source) Outcome {
	ok, err := s.reviews.Transition(ctx, review.ID, entity.ReevaluableStatuses, entity.ReviewTransition{
		To:               entity.ReviewStatusIneligible,
		IneligibleReason: string(reason),
	})
	if err != nil {
		return failed(review.ID, reasonLookupFailed, err)
	}
	if !ok {
		return skipped(review.ID, ReasonAlreadyProcessed)
	}

	if review.Status != entity.ReviewStatusIneligible || review.IneligibleReason != string(reason) {
		s.appendHistory(ctx, review, entity.ReviewStatusIneligible, string(reason), source)
	}
	return skipped(review.ID, reason)
}

// markFailed фиксирует ошибку на отзыве; retry_eligible только для временных ошибок
func (s *GeneratorService) markFailed(ctx context.Context, review *entity.Review, reason string, cause error, source Source) Outcome {
	transient := errors.Is(cause, ErrTransientDownstream)

	_, err := s.reviews.Transition(ctx, review.ID, []entity.ReviewStatus{entity.ReviewStatusEligible}, entity.ReviewTransition{
		To:            entity.ReviewStatusFailed,
		FailureReason: cause.Error(),
		RetryEligible: transient,
		CountAttempt:  true,
	})
	if err != nil {
		logger.Review(review.ID, review.StoreID).Error().Err(err).Msg("Failed to mark review as failed")
	} else {
		s.appendHistory(ctx, review, entity.ReviewStatusFailed, reason, source)
	}

	return failed(review.ID, reason, cause)
}

func (s *GeneratorService) release(ctx context.Context, r Reservation) {
	if err := s.quota.Release(ctx, r); err != nil {
		logger.Error().Err(err).Str("store_id", r.Key.StoreID.String()).Msg("Failed to release quota")
	}
}

func (s *GeneratorService) appendHistory(ctx context.Context, review *entity.Review, to entity.ReviewStatus, reason string, source Source) {
	if s.history == nil {
		return
	}

	change := &entity.ReviewStatusChange{
		ReviewID: review.ID.String(),
		StoreID:  review.StoreID.String(),
		From:     string(review.Status),
		To:       string(to),
		Reason:   reason,
		Source:   string(source),
		At:       time.Now().UTC(),
	}
	if err := s.history.Append(ctx, change); err != nil {
		logger.Warn().Err(err).Str("review_id", change.ReviewID).Msg("Failed to append status history")
	}
}

func (s *GeneratorService) record(o Outcome, source Source) {
	metrics.RecordEvaluation(string(o.Kind), o.Reason)

	event := logger.Info()
	if o.Kind == OutcomeFailed {
		event = logger.Error().Err(o.Err)
	}
	event.
		Str("review_id", o.ReviewID.String()).
		Str("source", string(source)).
		Str("outcome", string(o.Kind)).
		Str("reason", o.Reason).
		Msg("Review evaluated")
}

func failed(reviewID uuid.UUID, reason string, err error) Outcome {
	return Outcome{ReviewID: reviewID, Kind: OutcomeFailed, Reason: reason, Err: err}
}

func skipped(reviewID uuid.UUID, reason ReasonCode) Outcome {
	return Outcome{ReviewID: reviewID, Kind: OutcomeSkipped, Reason: string(reason)}
}
