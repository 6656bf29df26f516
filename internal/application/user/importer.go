package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

// RunRecorder receives run-level measurements. A nil recorder is allowed.
type RunRecorder interface {
	ChunkCommitted(rows int)
	RunFinished(report *domain.RunReport, elapsed time.Duration, err error)
}

type ImporterConfig struct {
	// GateOnValidation skips rows whose line produced a verifier error.
	GateOnValidation bool
}

// Importer runs the verify pass, the chunked apply pass and the deferred
// bookkeeping for one source.
type Importer struct {
	verifier   *Verifier
	chunker    *Chunker
	bookkeeper *Bookkeeper
	hasher     domain.PasswordHasher
	recorder   RunRecorder
	cfg        ImporterConfig
	now        domain.Clock
	log        *slog.Logger
}

func NewImporter(chunker *Chunker, bookkeeper *Bookkeeper, hasher domain.PasswordHasher, recorder RunRecorder, cfg ImporterConfig, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		verifier:   NewVerifier(),
		chunker:    chunker,
		bookkeeper: bookkeeper,
		hasher:     hasher,
		recorder:   recorder,
		cfg:        cfg,
		now:        time.Now,
		log:        log,
	}
}

// Run imports source into run's root account. Row-level problems end up in
// the returned report; an error means the run itself did not complete.
func (i *Importer) Run(ctx context.Context, source domain.RecordSource, run domain.RunContext, progress func(processed int64)) (*domain.RunReport, error) {
	start := i.now()
	report := domain.NewRunReport()
	log := i.log.With("root_account_id", run.RootAccountID, "batch_id", run.BatchID)

	err := i.run(ctx, source, run, report, progress, log)
	elapsed := i.now().Sub(start)
	if i.recorder != nil {
		i.recorder.RunFinished(report, elapsed, err)
	}
	if err != nil {
		log.Error("users import failed", "error", err, "elapsed", elapsed)
		return report, err
	}

	log.Info("users import finished",
		"users", report.Counts.Users,
		"errors", len(report.Errors),
		"warnings", len(report.Warnings),
		"elapsed", elapsed,
	)
	log.Debug("users took", "seconds", elapsed.Seconds())
	return report, nil
}

func (i *Importer) run(ctx context.Context, source domain.RecordSource, run domain.RunContext, report *domain.RunReport, progress func(int64), log *slog.Logger) error {
	verification, err := i.verify(ctx, source, report)
	if err != nil {
		return err
	}
	if verification.RejectedCount() > 0 {
		log.Warn("verification reported errors", "rows", verification.RejectedCount(), "gated", i.cfg.GateOnValidation)
	}

	stream, err := source.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOpenRecordSource, err)
	}
	defer stream.Close()

	reconciler := NewReconciler(run, i.hasher, log)
	deferred := &domain.DeferredIDSets{}
	var processed int64

	apply := func(ctx context.Context, tx domain.IdentityTx, rec domain.ImportRecord) error {
		if i.cfg.GateOnValidation && verification.Rejected(rec.Line) {
			report.AddWarning("skipping user %s on line %d: row failed validation", rec.ExternalUserID, rec.Line)
			return nil
		}
		return reconciler.ApplyRow(ctx, tx, rec, report, deferred)
	}
	onChunk := func(rows int) {
		processed += int64(rows)
		if i.recorder != nil {
			i.recorder.ChunkCommitted(rows)
		}
		if progress != nil {
			progress(processed)
		}
	}

	if err := i.chunker.Run(ctx, stream, apply, onChunk); err != nil {
		return err
	}

	if err := i.bookkeeper.Finalize(ctx, run, deferred); err != nil {
		return err
	}
	return nil
}

func (i *Importer) verify(ctx context.Context, source domain.RecordSource, report *domain.RunReport) (Verification, error) {
	stream, err := source.Open(ctx)
	if err != nil {
		return Verification{}, fmt.Errorf("%w: %v", ErrOpenRecordSource, err)
	}
	defer stream.Close()

	return i.verifier.Verify(ctx, stream, report)
}
