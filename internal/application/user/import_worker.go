package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

const maxStoredMessages = 1000

// SourceResolver turns a job's source path into a record source.
type SourceResolver interface {
	Resolve(sourcePath string) (domain.RecordSource, error)
}

type importRunner interface {
	Run(ctx context.Context, source domain.RecordSource, run domain.RunContext, progress func(processed int64)) (*domain.RunReport, error)
}

type importWorkerJobRepo interface {
	ClaimNext(ctx context.Context, leaseDuration time.Duration) (*domain.ImportJob, error)
	Heartbeat(ctx context.Context, jobID string, leaseDuration time.Duration) error
	UpdateProgress(ctx context.Context, jobID string, progress domain.ImportProgress) error
	Complete(ctx context.Context, jobID string, summary domain.ImportSummary) error
	Requeue(ctx context.Context, jobID string, reason string) error
	Fail(ctx context.Context, jobID string, reason string) error
}

type ImportWorkerConfig struct {
	Workers           int
	PollInterval      time.Duration
	LeaseDuration     time.Duration
	HeartbeatInterval time.Duration
}

type ImportWorker struct {
	repo     importWorkerJobRepo
	sources  SourceResolver
	importer importRunner
	cfg      ImportWorkerConfig
	log      *slog.Logger
	now      domain.Clock

	once sync.Once
}

func NewImportWorker(repo importWorkerJobRepo, sources SourceResolver, importer importRunner, cfg ImportWorkerConfig, log *slog.Logger) *ImportWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = 60 * time.Second
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = cfg.LeaseDuration / 2
	}
	if log == nil {
		log = slog.Default()
	}

	return &ImportWorker{
		repo:     repo,
		sources:  sources,
		importer: importer,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

func (w *ImportWorker) Start(ctx context.Context) {
	w.once.Do(func() {
		for i := 0; i < w.cfg.Workers; i++ {
			go w.workerLoop(ctx)
		}
	})
}

func (w *ImportWorker) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.repo.ClaimNext(ctx, w.cfg.LeaseDuration)
		if err != nil {
			w.log.Error("claim next import job failed", "error", err)
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		if job == nil {
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		if err := w.ProcessJob(ctx, *job); err != nil {
			w.log.Error("process import job failed", "job_id", job.ID, "error", err)
		}
	}
}

// ProcessJob runs one claimed job. Progress and heartbeats are published
// after each committed chunk and are best effort.
func (w *ImportWorker) ProcessJob(ctx context.Context, job domain.ImportJob) error {
	log := w.log.With("job_id", job.ID, "source_path", job.SourcePath)

	source, err := w.sources.Resolve(job.SourcePath)
	if err != nil {
		return w.onProcessingError(ctx, job, fmt.Errorf("resolve import source: %w", err))
	}

	lastHeartbeat := w.now()
	progress := func(processed int64) {
		if err := w.repo.UpdateProgress(ctx, job.ID, domain.ImportProgress{ProcessedCount: processed}); err != nil {
			log.Warn("update import progress failed", "error", err)
		}
		if w.now().Sub(lastHeartbeat) < w.cfg.HeartbeatInterval {
			return
		}
		if err := w.repo.Heartbeat(ctx, job.ID, w.cfg.LeaseDuration); err != nil {
			log.Warn("import job heartbeat failed", "error", err)
			return
		}
		lastHeartbeat = w.now()
	}

	var processed int64
	report, err := w.importer.Run(ctx, source, domain.RunContext{
		RootAccountID: job.RootAccountID,
		BatchID:       job.BatchID,
	}, func(n int64) {
		processed = n
		progress(n)
	})
	if err != nil {
		return w.onProcessingError(ctx, job, err)
	}

	summary := domain.ImportSummary{
		ProcessedCount: processed,
		UsersCount:     report.Counts.Users,
		Errors:         capMessages(report.Errors),
		Warnings:       capMessages(report.Warnings),
	}
	if err := w.repo.Complete(ctx, job.ID, summary); err != nil {
		return w.onProcessingError(ctx, job, fmt.Errorf("complete job: %w", err))
	}

	log.Info("import job completed", "users", summary.UsersCount, "errors", len(report.Errors), "warnings", len(report.Warnings))
	return nil
}

// onProcessingError leaves a job interrupted by shutdown alone; its lease
// expires and another worker reclaims it.
func (w *ImportWorker) onProcessingError(ctx context.Context, job domain.ImportJob, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	reason := truncateReason(err.Error())
	if job.Attempts < job.MaxAttempts {
		if requeueErr := w.repo.Requeue(ctx, job.ID, reason); requeueErr != nil {
			return fmt.Errorf("%v; requeue failed: %w", err, requeueErr)
		}
		return err
	}

	if failErr := w.repo.Fail(ctx, job.ID, reason); failErr != nil {
		return fmt.Errorf("%v; fail update failed: %w", err, failErr)
	}
	return err
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}

func capMessages(messages []string) []string {
	if len(messages) <= maxStoredMessages {
		return messages
	}
	return messages[:maxStoredMessages]
}
