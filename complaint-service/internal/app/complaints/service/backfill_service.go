package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/config"
	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/repository"
	"reviewguard/pkg/logger"
	"reviewguard/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const backfillLockPrefix = lockKeyPrefix + "backfill:store:"

var activeJobStatuses = []entity.JobStatus{
	entity.JobStatusQueued,
	entity.JobStatusRunning,
	entity.JobStatusPausedQuota,
}

// BatchReport - итог одного батча: исход по каждому отзыву
type BatchReport struct {
	JobID     uuid.UUID
	Requested int
	Fetched   int
	Generated int
	Skipped   int
	Failed    int
	QuotaHit  bool
	// LeaseLost - блокировка магазина перехвачена во время батча
	LeaseLost bool
	Outcomes  []Outcome
	Cursor    *entity.ReviewCursor
}

// Processed - отзывы, после которых курсор сдвинулся
func (b BatchReport) Processed() int {
	return b.Generated + b.Skipped + b.Failed
}

type JobRunReport struct {
	JobID       uuid.UUID
	StoreID     uuid.UUID
	Batches     []BatchReport
	FinalStatus entity.JobStatus
	Err         error
}

// TickReport - итог одного запуска по расписанию
type TickReport struct {
	Jobs    []JobRunReport
	Skipped int
	Err     error
}

// BackfillService - персистентная очередь задач по обработке бэклога отзывов.
// Состояние задачи целиком в БД, поэтому любой процесс может продолжить ее с курсора.
type BackfillService struct {
	jobs      repository.BackfillJobRepository
	reviews   repository.ReviewRepository
	stores    repository.StoreRepository
	products  repository.ProductRepository
	locks     repository.LockRepository
	quota     *QuotaService
	generator ReviewProcessor
	events    *EventPublisher
	cfg       config.BackfillConfig
	now       func() time.Time
}

func NewBackfillService(
	jobs repository.BackfillJobRepository,
	reviews repository.ReviewRepository,
	stores repository.StoreRepository,
	products repository.ProductRepository,
	locks repository.LockRepository,
	quota *QuotaService,
	generator ReviewProcessor,
	events *EventPublisher,
	cfg config.BackfillConfig,
) *BackfillService {
	return &BackfillService{
		jobs:      jobs,
		reviews:   reviews,
		stores:    stores,
		products:  products,
		locks:     locks,
		quota:     quota,
		generator: generator,
		events:    events,
		cfg:       cfg,
		now:       time.Now,
	}
}

// EnqueueJob создает задачу в статусе queued.
// total_target фиксируется при создании: min(число подходящих отзывов, max_reviews).
func (s *BackfillService) EnqueueJob(ctx context.Context, storeID uuid.UUID, criteria entity.BackfillCriteria) (*entity.BackfillJob, error) {
	if _, err := s.stores.GetByID(ctx, storeID); err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}

	product, err := s.validateCriteria(ctx, storeID, &criteria)
	if err != nil {
		return nil, err
	}

	filter := entity.ReviewFilter{
		StoreID:   storeID,
		ProductID: criteria.ProductID,
		Statuses:  criteria.Statuses,
		From:      criteria.From,
		To:        criteria.To,
	}
	if product != nil {
		filter.Articul = product.Articul
	}
	matching, err := s.reviews.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count matching reviews: %w", err)
	}

	target := int(matching)
	if criteria.MaxReviews > 0 && criteria.MaxReviews < target {
		target = criteria.MaxReviews
	}

	job := &entity.BackfillJob{
		ID:          uuid.New(),
		StoreID:     storeID,
		ProductID:   criteria.ProductID,
		Filter:      criteriaToFilter(criteria, filter.Articul),
		TotalTarget: target,
		Status:      entity.JobStatusQueued,
	}
	for _, st := range criteria.Statuses {
		job.Statuses = append(job.Statuses, string(st))
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create backfill job: %w", err)
	}

	metrics.RecordBackfillTransition(string(entity.JobStatusQueued))
	s.events.PublishJob(ctx, entity.EventTypeBackfillJobQueued, job)

	logger.Job(job.ID, storeID).Info().
		Int("total_target", target).
		Msg("Backfill job queued")

	return job, nil
}

// validateCriteria нормализует критерии и возвращает товар, если задача ограничена товаром
func (s *BackfillService) validateCriteria(ctx context.Context, storeID uuid.UUID, c *entity.BackfillCriteria) (*entity.Product, error) {
	if c.From != nil && c.To != nil && !c.From.Before(*c.To) {
		return nil, fmt.Errorf("%w: from must be before to", ErrInvalidFilter)
	}
	if c.MaxReviews < 0 {
		return nil, fmt.Errorf("%w: max_reviews must not be negative", ErrInvalidFilter)
	}

	if len(c.Statuses) == 0 {
		c.Statuses = entity.ReevaluableStatuses
	}
	for _, st := range c.Statuses {
		if !isReevaluable(st) {
			return nil, fmt.Errorf("%w: status %q cannot be re-evaluated", ErrInvalidFilter, st)
		}
	}

	if c.ProductID == nil {
		return nil, nil
	}

	product, err := s.products.GetByID(ctx, *c.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product.StoreID != storeID {
		return nil, fmt.Errorf("%w: product belongs to another store", ErrInvalidFilter)
	}

	return product, nil
}

func (s *BackfillService) GetJobStatus(ctx context.Context, jobID uuid.UUID) (*entity.BackfillJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get backfill job: %w", err)
	}
	return job, nil
}

// CancelJob отменяет незавершенную задачу.
// Батч, который уже выполняется, дорабатывает до конца; следующий не начнется.
func (s *BackfillService) CancelJob(ctx context.Context, jobID uuid.UUID) (*entity.BackfillJob, error) {
	job, err := s.GetJobStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return job, ErrJobTerminal
	}

	ok, err := s.jobs.Transition(ctx, jobID, activeJobStatuses, entity.JobStatusCancelled, "cancelled by operator")
	if err != nil {
		return nil, fmt.Errorf("failed to cancel backfill job: %w", err)
	}

	job, err = s.GetJobStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Задача успела завершиться между чтением и отменой
		return job, ErrJobTerminal
	}

	metrics.RecordBackfillTransition(string(entity.JobStatusCancelled))
	s.events.PublishJob(ctx, entity.EventTypeBackfillStatusChanged, job)
	return job, nil
}

// RunTick - один запуск по расписанию. Время работы ограничено
// числом задач и числом батчей на задачу.
// Кандидаты читаются страницами по одному на магазин: магазин, который
// пропущен (пауза без квоты, занятая блокировка) или уже отработал в этом
// тике, исключается из следующих страниц, поэтому старые задачи одних
// магазинов не занимают все слоты тика.
func (s *BackfillService) RunTick(ctx context.Context) TickReport {
	var report TickReport

	staleBefore := s.now().Add(-s.cfg.StaleAfter)
	var seenStores []uuid.UUID
	candidates := 0

	for len(report.Jobs) < s.cfg.MaxJobsPerTick && ctx.Err() == nil {
		jobs, err := s.jobs.ListClaimable(ctx, staleBefore, seenStores, s.cfg.MaxJobsPerTick-len(report.Jobs))
		if err != nil {
			report.Err = err
			logger.Error().Err(err).Msg("Failed to list claimable backfill jobs")
			return report
		}
		if len(jobs) == 0 {
			break
		}
		candidates += len(jobs)

		for i := range jobs {
			if ctx.Err() != nil {
				break
			}

			job := &jobs[i]
			seenStores = append(seenStores, job.StoreID)

			if job.Status == entity.JobStatusPausedQuota && !s.quotaAvailable(ctx, job.StoreID) {
				report.Skipped++
				continue
			}

			run, ran := s.runWithStoreLock(ctx, job)
			if !ran {
				report.Skipped++
				continue
			}
			report.Jobs = append(report.Jobs, run)
		}
	}

	logger.Info().
		Int("candidates", candidates).
		Int("processed_jobs", len(report.Jobs)).
		Int("skipped_jobs", report.Skipped).
		Msg("Backfill tick finished")

	return report
}

// quotaAvailable - приостановленную задачу не трогаем, пока квота магазина не восстановилась
func (s *BackfillService) quotaAvailable(ctx context.Context, storeID uuid.UUID) bool {
	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		// Отсутствующий магазин обработает runJob и переведет задачу в failed
		return errors.Is(err, repository.ErrStoreNotFound)
	}

	left, err := s.quota.Remaining(ctx, store)
	if err != nil {
		logger.Warn().Err(err).Str("store_id", storeID.String()).Msg("Failed to check quota for paused job")
		return false
	}
	return left > 0
}

// storeLease - захваченная блокировка магазина
type storeLease struct {
	key   string
	token string
}

// runWithStoreLock гарантирует, что задачи одного магазина не выполняются параллельно
func (s *BackfillService) runWithStoreLock(ctx context.Context, job *entity.BackfillJob) (JobRunReport, bool) {
	lockKey := backfillLockPrefix + job.StoreID.String()

	token, ok, err := s.locks.Acquire(ctx, lockKey, s.cfg.LockTTL)
	if err != nil {
		logger.Job(job.ID, job.StoreID).Warn().Err(err).Msg("Failed to acquire backfill store lock")
		return JobRunReport{}, false
	}
	if !ok {
		return JobRunReport{}, false
	}
	defer func() {
		if err := s.locks.Release(context.Background(), lockKey, token); err != nil {
			logger.Warn().Err(err).Str("key", lockKey).Msg("Failed to release backfill store lock")
		}
	}()

	claimed, err := s.jobs.Claim(ctx, job)
	if err != nil {
		logger.Job(job.ID, job.StoreID).Error().Err(err).Msg("Failed to claim backfill job")
		return JobRunReport{}, false
	}
	if !claimed {
		return JobRunReport{}, false
	}

	return s.runJob(ctx, job.ID, job.StoreID, storeLease{key: lockKey, token: token}), true
}

func (s *BackfillService) runJob(ctx context.Context, jobID, storeID uuid.UUID, lease storeLease) JobRunReport {
	run := JobRunReport{JobID: jobID, StoreID: storeID, FinalStatus: entity.JobStatusRunning}
	s.transitioned(ctx, jobID, entity.JobStatusRunning)

	for b := 0; b < s.cfg.MaxBatchesPerTick; b++ {
		if ctx.Err() != nil {
			break
		}

		batch, status, err := s.runBatch(ctx, jobID, lease)
		if batch != nil {
			run.Batches = append(run.Batches, *batch)
		}
		run.FinalStatus = status
		if err != nil {
			run.Err = err
		}
		if status != entity.JobStatusRunning || err != nil {
			break
		}
		// Без блокировки следующий батч не начинается, задача уходит в очередь
		if batch != nil && batch.LeaseLost {
			break
		}
	}

	// Лимит батчей на тик исчерпан: задача возвращается в очередь до следующего тика
	if run.FinalStatus == entity.JobStatusRunning {
		lastError := ""
		if run.Err != nil {
			lastError = run.Err.Error()
		}
		if s.transition(ctx, jobID, entity.JobStatusQueued, lastError) {
			run.FinalStatus = entity.JobStatusQueued
		}
	}

	return run
}

// runBatch обрабатывает один батч и возвращает статус задачи после него.
// Ошибка отдельного отзыва не прерывает батч.
func (s *BackfillService) runBatch(ctx context.Context, jobID uuid.UUID, lease storeLease) (*BatchReport, entity.JobStatus, error) {
	timer := metrics.NewTimer()
	defer func() { metrics.BackfillBatchDuration.Observe(timer.Seconds()) }()

	// Перечитываем задачу перед каждым батчем: ее могли отменить
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			logger.Warn().Str("job_id", jobID.String()).Msg("Backfill job disappeared, stopping")
			return nil, "", nil
		}
		return nil, entity.JobStatusRunning, fmt.Errorf("failed to reload backfill job: %w", err)
	}
	if job.Status != entity.JobStatusRunning {
		metrics.BackfillBatches.WithLabelValues(string(job.Status)).Inc()
		return nil, job.Status, nil
	}

	store, err := s.stores.GetByID(ctx, job.StoreID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			cause := fmt.Errorf("%w: store %s no longer exists", ErrStructural, job.StoreID)
			return nil, s.finish(ctx, job, entity.JobStatusFailed, cause.Error()), cause
		}
		return nil, entity.JobStatusRunning, fmt.Errorf("failed to load store: %w", err)
	}

	left, err := s.quota.Remaining(ctx, store)
	if err != nil {
		return nil, entity.JobStatusRunning, err
	}
	if left == 0 {
		return nil, s.finish(ctx, job, entity.JobStatusPausedQuota, job.LastError), nil
	}

	limit := job.TotalTarget - job.ProcessedCount
	if limit <= 0 {
		return nil, s.finish(ctx, job, entity.JobStatusCompleted, job.LastError), nil
	}
	if limit > s.cfg.BatchSize {
		limit = s.cfg.BatchSize
	}

	reviews, err := s.reviews.List(ctx, job.ReviewFilter(), job.Cursor(), limit)
	if err != nil {
		return nil, entity.JobStatusRunning, fmt.Errorf("failed to fetch backfill batch: %w", err)
	}

	batch := &BatchReport{JobID: job.ID, Requested: limit, Fetched: len(reviews), Cursor: job.Cursor()}
	lastError := job.LastError

	for _, review := range reviews {
		outcome := s.generator.Process(ctx, review.ID, SourceBackfill)
		batch.Outcomes = append(batch.Outcomes, outcome)

		if outcome.Kind == OutcomeQuotaExceeded {
			// Курсор остается перед этим отзывом, он будет обработан после восстановления квоты
			batch.QuotaHit = true
			break
		}

		switch outcome.Kind {
		case OutcomeGenerated:
			batch.Generated++
		case OutcomeSkipped:
			batch.Skipped++
		case OutcomeFailed:
			batch.Failed++
			lastError = fmt.Sprintf("review %s: %v", review.ID, outcome.Err)
		}
		batch.Cursor = &entity.ReviewCursor{FeedbackDate: review.FeedbackDate, ReviewID: review.ID}

		if !s.heartbeat(ctx, job, lease) {
			batch.LeaseLost = true
		}
	}

	processed := job.ProcessedCount + batch.Processed()
	progress := entity.JobProgress{
		ProcessedCount: processed,
		GeneratedCount: job.GeneratedCount + batch.Generated,
		SkippedCount:   job.SkippedCount + batch.Skipped,
		FailedCount:    job.FailedCount + batch.Failed,
		Cursor:         batch.Cursor,
		LastError:      lastError,
	}

	// Прогресс сохраняется до смены статуса, в том числе перед паузой
	saved, err := s.jobs.SaveProgress(ctx, job.ID, progress)
	if err != nil {
		return batch, entity.JobStatusRunning, fmt.Errorf("failed to save backfill progress: %w", err)
	}
	if !saved {
		logger.Job(job.ID, job.StoreID).Warn().Int("processed", processed).Msg("Backfill progress is behind stored value, not saved")
	}
	job.ProcessedCount = processed

	switch {
	case batch.QuotaHit:
		return batch, s.finish(ctx, job, entity.JobStatusPausedQuota, lastError), nil
	case len(reviews) < limit || processed >= job.TotalTarget:
		return batch, s.finish(ctx, job, entity.JobStatusCompleted, lastError), nil
	}

	metrics.BackfillBatches.WithLabelValues("ok").Inc()
	return batch, entity.JobStatusRunning, nil
}

// heartbeat продлевает блокировку магазина и updated_at задачи после каждого отзыва.
// Пока updated_at свежий, задачу не считают зависшей и не захватывают повторно.
// false - блокировкой владеет кто-то другой.
func (s *BackfillService) heartbeat(ctx context.Context, job *entity.BackfillJob, lease storeLease) bool {
	log := logger.Job(job.ID, job.StoreID)

	if _, err := s.jobs.Heartbeat(ctx, job.ID); err != nil {
		log.Warn().Err(err).Msg("Failed to heartbeat backfill job")
	}

	extended, err := s.locks.Extend(ctx, lease.key, lease.token, s.cfg.LockTTL)
	if err != nil {
		log.Warn().Err(err).Str("key", lease.key).Msg("Failed to extend backfill store lock")
		return true
	}
	if !extended {
		log.Warn().Str("key", lease.key).Msg("Backfill store lock lost")
	}
	return extended
}

// finish переводит running задачу в новый статус; если задачу успели изменить
// (например, отменить), возвращается фактический статус
func (s *BackfillService) finish(ctx context.Context, job *entity.BackfillJob, to entity.JobStatus, lastError string) entity.JobStatus {
	metrics.BackfillBatches.WithLabelValues(string(to)).Inc()

	if s.transition(ctx, job.ID, to, lastError) {
		logger.Job(job.ID, job.StoreID).Info().
			Str("status", string(to)).
			Int("processed", job.ProcessedCount).
			Int("total_target", job.TotalTarget).
			Msg("Backfill job status changed")
		return to
	}

	current, err := s.jobs.GetByID(ctx, job.ID)
	if err != nil {
		return to
	}
	return current.Status
}

func (s *BackfillService) transition(ctx context.Context, jobID uuid.UUID, to entity.JobStatus, lastError string) bool {
	ok, err := s.jobs.Transition(ctx, jobID, []entity.JobStatus{entity.JobStatusRunning}, to, lastError)
	if err != nil {
		logger.Error().Err(err).Str("job_id", jobID.String()).Str("status", string(to)).Msg("Failed to transition backfill job")
		return false
	}
	if ok {
		s.transitioned(ctx, jobID, to)
	}
	return ok
}

func (s *BackfillService) transitioned(ctx context.Context, jobID uuid.UUID, status entity.JobStatus) {
	metrics.RecordBackfillTransition(string(status))
	if !s.events.Enabled() {
		return
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return
	}
	s.events.PublishJob(ctx, entity.EventTypeBackfillStatusChanged, job)
}

func criteriaToFilter(c entity.BackfillCriteria, articul string) datatypes.JSONMap {
	filter := datatypes.JSONMap{}
	if articul != "" {
		filter[entity.FilterKeyArticul] = articul
	}
	if c.From != nil {
		filter[entity.FilterKeyFrom] = c.From.UTC().Format(time.RFC3339)
	}
	if c.To != nil {
		filter[entity.FilterKeyTo] = c.To.UTC().Format(time.RFC3339)
	}
	if c.MaxReviews > 0 {
		filter[entity.FilterKeyMaxReviews] = c.MaxReviews
	}
	return filter
}

func isReevaluable(status entity.ReviewStatus) bool {
	for _, st := range entity.ReevaluableStatuses {
		if st == status {
			return true
		}
	}
	return false
}
