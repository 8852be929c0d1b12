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

// SubmitReport - итог одного прохода отправки черновиков
type SubmitReport struct {
	Submitted int
	Rejected  int
	Failed    int
}

// SubmissionService отправляет черновики жалоб в маркетплейс и ведет их жизненный цикл
type SubmissionService struct {
	complaints  repository.ComplaintRepository
	reviews     repository.ReviewRepository
	stores      repository.StoreRepository
	marketplace infrastructure.MarketplaceClient
	events      *EventPublisher
	cfg         config.SubmissionConfig
	now         func() time.Time
}

func NewSubmissionService(
	complaints repository.ComplaintRepository,
	reviews repository.ReviewRepository,
	stores repository.StoreRepository,
	marketplace infrastructure.MarketplaceClient,
	events *EventPublisher,
	cfg config.SubmissionConfig,
) *SubmissionService {
	return &SubmissionService{
		complaints:  complaints,
		reviews:     reviews,
		stores:      stores,
		marketplace: marketplace,
		events:      events,
		cfg:         cfg,
		now:         time.Now,
	}
}

// SubmitDrafts отправляет до SUBMIT_BATCH_SIZE черновиков.
// Временная ошибка увеличивает submit_attempts; после лимита черновик больше не выбирается.
func (s *SubmissionService) SubmitDrafts(ctx context.Context) (SubmitReport, error) {
	var report SubmitReport
	if !s.cfg.AutoSubmit {
		return report, nil
	}

	drafts, err := s.complaints.ListSubmittable(ctx, s.cfg.MaxAttempts, s.cfg.BatchSize)
	if err != nil {
		return report, fmt.Errorf("failed to list drafts: %w", err)
	}

	stores := make(map[uuid.UUID]*entity.Store)
	for i := range drafts {
		if ctx.Err() != nil {
			break
		}
		complaint := &drafts[i]

		switch s.submitOne(ctx, complaint, stores) {
		case infrastructure.SubmitAccepted:
			report.Submitted++
		case infrastructure.SubmitRejected:
			report.Rejected++
		default:
			report.Failed++
		}
	}

	logger.Info().
		Int("drafts", len(drafts)).
		Int("submitted", report.Submitted).
		Int("rejected", report.Rejected).
		Int("failed", report.Failed).
		Msg("Complaint submission finished")

	return report, nil
}

func (s *SubmissionService) submitOne(ctx context.Context, complaint *entity.Complaint, stores map[uuid.UUID]*entity.Store) infrastructure.SubmitStatus {
	store, err := s.cachedStore(ctx, complaint.StoreID, stores)
	if err != nil {
		s.recordFailure(ctx, complaint, err)
		return ""
	}

	review, err := s.reviews.GetByID(ctx, complaint.ReviewID)
	if err != nil {
		s.recordFailure(ctx, complaint, err)
		return ""
	}

	result, err := s.marketplace.SubmitComplaint(ctx, store, complaint, review.ExternalFeedbackID)
	if err != nil {
		metrics.MarketplaceSubmissions.WithLabelValues("transient_error").Inc()
		s.recordFailure(ctx, complaint, err)
		return ""
	}

	now := s.now().UTC()
	switch result.Status {
	case infrastructure.SubmitRejected:
		metrics.MarketplaceSubmissions.WithLabelValues("rejected").Inc()
		if _, err := s.complaints.MarkRejected(ctx, complaint.ID, result.Reason, now); err != nil {
			logger.Error().Err(err).Str("complaint_id", complaint.ID.String()).Msg("Failed to mark complaint rejected")
			return ""
		}
		complaint.Status = entity.ComplaintStatusRejected
		s.events.PublishComplaint(ctx, entity.EventTypeComplaintRejected, complaint, "marketplace")
		return infrastructure.SubmitRejected
	default:
		metrics.MarketplaceSubmissions.WithLabelValues("accepted").Inc()
		ok, err := s.complaints.MarkSubmitted(ctx, complaint.ID, now)
		if err != nil {
			logger.Error().Err(err).Str("complaint_id", complaint.ID.String()).Msg("Failed to mark complaint submitted")
			return ""
		}
		if ok {
			complaint.Status = entity.ComplaintStatusSubmitted
			s.events.PublishComplaint(ctx, entity.EventTypeComplaintSubmitted, complaint, "marketplace")
		}
		return infrastructure.SubmitAccepted
	}
}

func (s *SubmissionService) cachedStore(ctx context.Context, id uuid.UUID, cache map[uuid.UUID]*entity.Store) (*entity.Store, error) {
	if store, ok := cache[id]; ok {
		return store, nil
	}
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = store
	return store, nil
}

func (s *SubmissionService) recordFailure(ctx context.Context, complaint *entity.Complaint, cause error) {
	logger.Warn().
		Err(cause).
		Str("complaint_id", complaint.ID.String()).
		Int("attempt", complaint.SubmitAttempts+1).
		Msg("Complaint submission failed")

	if err := s.complaints.RecordSubmitFailure(ctx, complaint.ID, cause.Error()); err != nil {
		logger.Error().Err(err).Str("complaint_id", complaint.ID.String()).Msg("Failed to record submission failure")
	}
}

// ExpireDrafts помечает expired черновики старше DRAFT_TTL
func (s *SubmissionService) ExpireDrafts(ctx context.Context) (int64, error) {
	expired, err := s.complaints.ExpireDrafts(ctx, s.now().Add(-s.cfg.DraftTTL))
	if err != nil {
		return 0, fmt.Errorf("failed to expire drafts: %w", err)
	}
	if expired > 0 {
		logger.Info().Int64("expired", expired).Msg("Stale complaint drafts expired")
	}
	return expired, nil
}

// Resolve фиксирует решение маркетплейса по отправленной жалобе
func (s *SubmissionService) Resolve(ctx context.Context, complaintID uuid.UUID, resolution string) (*entity.Complaint, error) {
	status := entity.ComplaintStatus(resolution)
	if status != entity.ComplaintStatusAccepted && status != entity.ComplaintStatusRejected {
		return nil, ErrInvalidResolution
	}

	ok, err := s.complaints.Resolve(ctx, complaintID, status, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve complaint: %w", err)
	}

	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, repository.ErrComplaintNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	if !ok {
		// Решение уже записано или жалоба еще не отправлена
		return complaint, fmt.Errorf("%w: complaint is %s", ErrInvalidResolution, complaint.Status)
	}

	if status == entity.ComplaintStatusRejected {
		s.events.PublishComplaint(ctx, entity.EventTypeComplaintRejected, complaint, "resolution")
	}
	return complaint, nil
}
