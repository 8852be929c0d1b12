package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type backfillJobRepository struct {
	db *gorm.DB
}

// NewBackfillJobRepository создает репозиторий очереди backfill задач
func NewBackfillJobRepository(db *gorm.DB) BackfillJobRepository {
	return &backfillJobRepository{db: db}
}

func (r *backfillJobRepository) Create(ctx context.Context, job *entity.BackfillJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = entity.JobStatusQueued
	}

	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create backfill job: %w", err)
	}

	return nil
}

func (r *backfillJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.BackfillJob, error) {
	var job entity.BackfillJob

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get backfill job: %w", result.Error)
	}

	return &job, nil
}

// ListClaimable выбирает по одному кандидату на магазин (самую старую задачу)
// и отдает их в порядке создания. Магазины, у которых уже есть живая running
// задача, и магазины из excludeStores пропускаются.
func (r *backfillJobRepository) ListClaimable(ctx context.Context, staleBefore time.Time, excludeStores []uuid.UUID, limit int) ([]entity.BackfillJob, error) {
	perStore := r.db.
		Model(&entity.BackfillJob{}).
		Select("DISTINCT ON (store_id) *").
		Where("status IN ? OR (status = ? AND updated_at < ?)",
			[]entity.JobStatus{entity.JobStatusQueued, entity.JobStatusPausedQuota},
			entity.JobStatusRunning, staleBefore).
		Where(`NOT EXISTS (
			SELECT 1 FROM backfill_jobs AS other
			WHERE other.store_id = backfill_jobs.store_id
			  AND other.id <> backfill_jobs.id
			  AND other.status = ?
			  AND other.updated_at >= ?)`,
			entity.JobStatusRunning, staleBefore).
		Order("store_id, created_at ASC, id ASC")
	if len(excludeStores) > 0 {
		perStore = perStore.Where("store_id NOT IN ?", excludeStores)
	}

	var jobs []entity.BackfillJob
	result := r.db.WithContext(ctx).
		Table("(?) AS candidates", perStore).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list claimable backfill jobs: %w", result.Error)
	}

	return jobs, nil
}

// Claim - compare-and-set по (status, updated_at): из двух воркеров,
// прочитавших одну и ту же версию задачи, захватит только один.
// last_error не сбрасывается, его заменит только следующая ошибка.
func (r *backfillJobRepository) Claim(ctx context.Context, job *entity.BackfillJob) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.BackfillJob{}).
		Where("id = ? AND status = ? AND updated_at = ?", job.ID, job.Status, job.UpdatedAt).
		Updates(map[string]interface{}{
			"status":     entity.JobStatusRunning,
			"run_count":  gorm.Expr("run_count + ?", 1),
			"started_at": gorm.Expr("COALESCE(started_at, ?)", time.Now().UTC()),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim backfill job: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// SaveProgress сохраняет курсор и счетчики после батча.
// Условие processed_count <= ? не дает прогрессу откатиться назад.
func (r *backfillJobRepository) SaveProgress(ctx context.Context, id uuid.UUID, progress entity.JobProgress) (bool, error) {
	updates := map[string]interface{}{
		"processed_count": progress.ProcessedCount,
		"generated_count": progress.GeneratedCount,
		"skipped_count":   progress.SkippedCount,
		"failed_count":    progress.FailedCount,
		"last_error":      progress.LastError,
	}
	if progress.Cursor != nil {
		updates["cursor_feedback_date"] = progress.Cursor.FeedbackDate
		updates["cursor_review_id"] = progress.Cursor.ReviewID
	}

	result := r.db.WithContext(ctx).
		Model(&entity.BackfillJob{}).
		Where("id = ? AND processed_count <= ?", id, progress.ProcessedCount).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to save backfill progress: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *backfillJobRepository) Transition(ctx context.Context, id uuid.UUID, from []entity.JobStatus, to entity.JobStatus, lastError string) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"last_error": lastError,
	}
	if to.IsTerminal() {
		updates["finished_at"] = time.Now().UTC()
	}

	result := r.db.WithContext(ctx).
		Model(&entity.BackfillJob{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition backfill job to %s: %w", to, result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *backfillJobRepository) Heartbeat(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.BackfillJob{}).
		Where("id = ? AND status = ?", id, entity.JobStatusRunning).
		Update("updated_at", time.Now().UTC())
	if result.Error != nil {
		return false, fmt.Errorf("failed to heartbeat backfill job: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}
