package user_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	app "github.com/mohammadpnp/identity-import/internal/application/user"
	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

type fakeWorkerRepo struct {
	claimedJob      *domain.ImportJob
	claimErr        error
	progressCalls   []domain.ImportProgress
	completeSummary *domain.ImportSummary
	requeueCalled   bool
	failCalled      bool
	failMessage     string
}

func (f *fakeWorkerRepo) ClaimNext(ctx context.Context, leaseDuration time.Duration) (*domain.ImportJob, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	job := f.claimedJob
	f.claimedJob = nil
	return job, nil
}

func (f *fakeWorkerRepo) Heartbeat(ctx context.Context, jobID string, leaseDuration time.Duration) error {
	return nil
}

func (f *fakeWorkerRepo) UpdateProgress(ctx context.Context, jobID string, progress domain.ImportProgress) error {
	f.progressCalls = append(f.progressCalls, progress)
	return nil
}

func (f *fakeWorkerRepo) Complete(ctx context.Context, jobID string, summary domain.ImportSummary) error {
	f.completeSummary = &summary
	return nil
}

func (f *fakeWorkerRepo) Requeue(ctx context.Context, jobID string, reason string) error {
	f.requeueCalled = true
	f.failMessage = reason
	return nil
}

func (f *fakeWorkerRepo) Fail(ctx context.Context, jobID string, reason string) error {
	f.failCalled = true
	f.failMessage = reason
	return nil
}

type fakeResolver struct {
	source domain.RecordSource
	err    error
}

func (f *fakeResolver) Resolve(sourcePath string) (domain.RecordSource, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.source, nil
}

type fakeRunner struct {
	report *domain.RunReport
	err    error
	run    domain.RunContext
	chunks []int64
}

func (f *fakeRunner) Run(ctx context.Context, source domain.RecordSource, run domain.RunContext, progress func(processed int64)) (*domain.RunReport, error) {
	f.run = run
	for _, n := range f.chunks {
		progress(n)
	}
	if f.report == nil {
		f.report = domain.NewRunReport()
	}
	return f.report, f.err
}

func TestImportWorkerProcessJobSuccess(t *testing.T) {
	t.Parallel()

	repo := &fakeWorkerRepo{}
	report := domain.NewRunReport()
	report.Counts.Users = 3
	report.AddError("no login_id given for user U3")
	report.AddWarning("duplicate user id U1")
	runner := &fakeRunner{report: report, chunks: []int64{2, 3}}

	worker := app.NewImportWorker(repo, &fakeResolver{source: newSliceSource()}, runner, app.ImportWorkerConfig{LeaseDuration: 30 * time.Second}, nil)

	err := worker.ProcessJob(context.Background(), domain.ImportJob{
		ID:            "job-1",
		SourcePath:    "users.csv",
		RootAccountID: rootAccount,
		BatchID:       "batch-1",
		Attempts:      1,
		MaxAttempts:   5,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if runner.run.RootAccountID != rootAccount || runner.run.BatchID != "batch-1" {
		t.Fatalf("unexpected run context: %+v", runner.run)
	}
	if repo.completeSummary == nil {
		t.Fatal("expected complete summary")
	}
	if repo.completeSummary.UsersCount != 3 {
		t.Fatalf("expected users=3, got %d", repo.completeSummary.UsersCount)
	}
	if repo.completeSummary.ProcessedCount != 3 {
		t.Fatalf("expected processed=3, got %d", repo.completeSummary.ProcessedCount)
	}
	if len(repo.completeSummary.Errors) != 1 || len(repo.completeSummary.Warnings) != 1 {
		t.Fatalf("unexpected messages: %+v", repo.completeSummary)
	}
	if len(repo.progressCalls) != 2 {
		t.Fatalf("expected 2 progress updates, got %d", len(repo.progressCalls))
	}
}

func TestImportWorkerCapsStoredMessages(t *testing.T) {
	t.Parallel()

	repo := &fakeWorkerRepo{}
	report := domain.NewRunReport()
	for i := 0; i < 1500; i++ {
		report.AddWarning("duplicate user id U%d", i)
	}

	worker := app.NewImportWorker(repo, &fakeResolver{source: newSliceSource()}, &fakeRunner{report: report}, app.ImportWorkerConfig{}, nil)

	if err := worker.ProcessJob(context.Background(), domain.ImportJob{ID: "job-1", SourcePath: "users.csv", Attempts: 1, MaxAttempts: 3}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := len(repo.completeSummary.Warnings); got != 1000 {
		t.Fatalf("expected 1000 stored warnings, got %d", got)
	}
}

func TestImportWorkerProcessJobRetryableFailure(t *testing.T) {
	t.Parallel()

	repo := &fakeWorkerRepo{}
	runner := &fakeRunner{err: fmt.Errorf("%w: connection reset", app.ErrChunkTransaction)}

	worker := app.NewImportWorker(repo, &fakeResolver{source: newSliceSource()}, runner, app.ImportWorkerConfig{LeaseDuration: 30 * time.Second}, nil)

	err := worker.ProcessJob(context.Background(), domain.ImportJob{ID: "job-1", SourcePath: "users.csv", Attempts: 1, MaxAttempts: 3})
	if err == nil {
		t.Fatal("expected error")
	}
	if !repo.requeueCalled {
		t.Fatal("expected requeue to be called")
	}
	if repo.failCalled {
		t.Fatal("did not expect fail to be called")
	}
}

func TestImportWorkerProcessJobTerminalFailure(t *testing.T) {
	t.Parallel()

	repo := &fakeWorkerRepo{}
	runner := &fakeRunner{err: errors.New("connection reset")}

	worker := app.NewImportWorker(repo, &fakeResolver{source: newSliceSource()}, runner, app.ImportWorkerConfig{LeaseDuration: 30 * time.Second}, nil)

	err := worker.ProcessJob(context.Background(), domain.ImportJob{ID: "job-1", SourcePath: "users.csv", Attempts: 3, MaxAttempts: 3})
	if err == nil {
		t.Fatal("expected error")
	}
	if !repo.failCalled {
		t.Fatal("expected fail to be called")
	}
	if repo.requeueCalled {
		t.Fatal("did not expect requeue to be called")
	}
}

func TestImportWorkerLeavesJobOnShutdown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &fakeWorkerRepo{}
	runner := &fakeRunner{err: context.Canceled}
	worker := app.NewImportWorker(repo, &fakeResolver{source: newSliceSource()}, runner, app.ImportWorkerConfig{}, nil)

	err := worker.ProcessJob(ctx, domain.ImportJob{ID: "job-1", Attempts: 1, MaxAttempts: 5})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if repo.requeueCalled || repo.failCalled {
		t.Fatal("expected interrupted job to be left for lease expiry")
	}
}

func TestImportWorkerUnresolvableSource(t *testing.T) {
	t.Parallel()

	repo := &fakeWorkerRepo{}
	worker := app.NewImportWorker(repo, &fakeResolver{err: errors.New("unsupported source users.txt")}, &fakeRunner{}, app.ImportWorkerConfig{}, nil)

	err := worker.ProcessJob(context.Background(), domain.ImportJob{ID: "job-1", SourcePath: "users.txt", Attempts: 1, MaxAttempts: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if !repo.failCalled || repo.failMessage == "" {
		t.Fatalf("expected job to fail with a reason, got %+v", repo)
	}
}

func TestImportWorkerStartClaimsJobs(t *testing.T) {
	t.Parallel()

	repo := &fakeWorkerRepo{claimedJob: &domain.ImportJob{ID: "job-1", SourcePath: "users.csv", Attempts: 1, MaxAttempts: 3}}
	done := make(chan struct{})
	runner := &signalRunner{done: done}

	worker := app.NewImportWorker(repo, &fakeResolver{source: newSliceSource()}, runner, app.ImportWorkerConfig{
		Workers:      1,
		PollInterval: 10 * time.Millisecond,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected claimed job to be processed")
	}
}

type signalRunner struct {
	done chan struct{}
}

func (s *signalRunner) Run(ctx context.Context, source domain.RecordSource, run domain.RunContext, progress func(processed int64)) (*domain.RunReport, error) {
	close(s.done)
	return domain.NewRunReport(), nil
}
