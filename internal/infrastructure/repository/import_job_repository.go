package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
	"github.com/mohammadpnp/identity-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Enqueue(ctx context.Context, req domain.ImportRequest) (string, error) {
	job := models.ImportJob{
		SourcePath:    req.SourcePath,
		RootAccountID: req.RootAccountID,
		BatchID:       nullableText(req.BatchID),
		Status:        "queued",
	}

	if err := r.db.WithContext(ctx).Create(&job).Error; err != nil {
		return "", fmt.Errorf("create import job: %w", err)
	}

	return job.ID, nil
}

// ClaimNext leases the oldest queued job, or a running job whose lease has
// expired. It returns nil when nothing is claimable.
func (r *ImportJobRepository) ClaimNext(ctx context.Context, leaseDuration time.Duration) (*domain.ImportJob, error) {
	var row models.ImportJob
	res := r.db.WithContext(ctx).Raw(`
UPDATE import_jobs
SET status = 'running',
    attempts = attempts + 1,
    heartbeat_at = NOW(),
    lease_expires_at = NOW() + make_interval(secs => ?),
    started_at = COALESCE(started_at, NOW()),
    updated_at = NOW()
WHERE id = (
    SELECT id FROM import_jobs
    WHERE status = 'queued'
       OR (status = 'running' AND lease_expires_at < NOW())
    ORDER BY created_at
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING *
`, leaseDuration.Seconds()).Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("claim import job: %w", res.Error)
	}
	if res.RowsAffected == 0 || row.ID == "" {
		return nil, nil
	}

	return &domain.ImportJob{
		ID:            row.ID,
		SourcePath:    row.SourcePath,
		RootAccountID: row.RootAccountID,
		BatchID:       deref(row.BatchID),
		Status:        row.Status,
		Attempts:      row.Attempts,
		MaxAttempts:   row.MaxAttempts,
	}, nil
}

func (r *ImportJobRepository) Heartbeat(ctx context.Context, jobID string, leaseDuration time.Duration) error {
	res := r.db.WithContext(ctx).Exec(`
UPDATE import_jobs
SET heartbeat_at = NOW(),
    lease_expires_at = NOW() + make_interval(secs => ?),
    updated_at = NOW()
WHERE id = ? AND status = 'running'
`, leaseDuration.Seconds(), jobID)
	if res.Error != nil {
		return fmt.Errorf("heartbeat import job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.New("import job is not running")
	}
	return nil
}

func (r *ImportJobRepository) UpdateProgress(ctx context.Context, jobID string, progress domain.ImportProgress) error {
	err := r.db.WithContext(ctx).Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"progress_processed": progress.ProcessedCount,
			"updated_at":         time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("update import progress: %w", err)
	}
	return nil
}

func (r *ImportJobRepository) Complete(ctx context.Context, jobID string, summary domain.ImportSummary) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&models.ImportJob{ID: jobID}).
		Select("status", "progress_processed", "users_count", "errors", "warnings", "error_message", "finished_at", "lease_expires_at", "updated_at").
		Updates(models.ImportJob{
			Status:            "succeeded",
			ProgressProcessed: summary.ProcessedCount,
			UsersCount:        summary.UsersCount,
			Errors:            summary.Errors,
			Warnings:          summary.Warnings,
			FinishedAt:        &now,
			UpdatedAt:         now,
		}).Error
	if err != nil {
		return fmt.Errorf("complete import job: %w", err)
	}
	return nil
}

func (r *ImportJobRepository) Requeue(ctx context.Context, jobID string, reason string) error {
	err := r.db.WithContext(ctx).Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":           "queued",
			"error_message":    reason,
			"lease_expires_at": nil,
			"updated_at":       time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("requeue import job: %w", err)
	}
	return nil
}

func (r *ImportJobRepository) Fail(ctx context.Context, jobID string, reason string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":           "failed",
			"error_message":    reason,
			"lease_expires_at": nil,
			"finished_at":      now,
			"updated_at":       now,
		}).Error
	if err != nil {
		return fmt.Errorf("fail import job: %w", err)
	}
	return nil
}
