package user_test

import (
	"context"
	"errors"
	"testing"

	app "github.com/mohammadpnp/identity-import/internal/application/user"
	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

type fakeJobRepo struct {
	req domain.ImportRequest
	err error
}

func (f *fakeJobRepo) Enqueue(ctx context.Context, req domain.ImportRequest) (string, error) {
	f.req = req
	if f.err != nil {
		return "", f.err
	}
	return "job-1", nil
}

func TestStartImportUsersQueuesJob(t *testing.T) {
	t.Parallel()

	repo := &fakeJobRepo{}
	out, err := app.NewStartImportUsers(repo).Execute(context.Background(), app.StartImportUsersInput{
		SourcePath:    " exports/users.CSV ",
		RootAccountID: rootAccount,
		BatchID:       "batch-1",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.JobID != "job-1" || out.Status != "queued" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if repo.req.SourcePath != "exports/users.CSV" || repo.req.RootAccountID != rootAccount || repo.req.BatchID != "batch-1" {
		t.Fatalf("unexpected request: %+v", repo.req)
	}
}

func TestStartImportUsersValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   app.StartImportUsersInput
		want error
	}{
		{name: "blank source", in: app.StartImportUsersInput{RootAccountID: rootAccount}, want: app.ErrInvalidImportSource},
		{name: "unsupported extension", in: app.StartImportUsersInput{SourcePath: "users.json", RootAccountID: rootAccount}, want: app.ErrInvalidImportSource},
		{name: "blank root account", in: app.StartImportUsersInput{SourcePath: "users.xlsx", RootAccountID: "  "}, want: app.ErrInvalidRootAccount},
	}

	for _, tt := range tests {
		_, err := app.NewStartImportUsers(&fakeJobRepo{}).Execute(context.Background(), tt.in)
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestStartImportUsersEnqueueFailure(t *testing.T) {
	t.Parallel()

	_, err := app.NewStartImportUsers(&fakeJobRepo{err: errors.New("db down")}).Execute(context.Background(), app.StartImportUsersInput{
		SourcePath:    "users.csv",
		RootAccountID: rootAccount,
	})
	if !errors.Is(err, app.ErrEnqueueImportJob) {
		t.Fatalf("expected ErrEnqueueImportJob, got %v", err)
	}
}
