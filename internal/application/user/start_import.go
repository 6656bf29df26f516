package user

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

type StartImportUsersInput struct {
	SourcePath    string
	RootAccountID string
	BatchID       string
}

type StartImportUsersOutput struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type StartImportUsers interface {
	Execute(ctx context.Context, in StartImportUsersInput) (StartImportUsersOutput, error)
}

type startImportUsers struct {
	importJobRepo domain.ImportJobRepository
}

func NewStartImportUsers(importJobRepo domain.ImportJobRepository) StartImportUsers {
	return &startImportUsers{importJobRepo: importJobRepo}
}

func (uc *startImportUsers) Execute(ctx context.Context, in StartImportUsersInput) (StartImportUsersOutput, error) {
	sourcePath := strings.TrimSpace(in.SourcePath)
	if sourcePath == "" || !IsSupportedSource(sourcePath) {
		return StartImportUsersOutput{}, ErrInvalidImportSource
	}

	rootAccountID := strings.TrimSpace(in.RootAccountID)
	if rootAccountID == "" {
		return StartImportUsersOutput{}, ErrInvalidRootAccount
	}

	jobID, err := uc.importJobRepo.Enqueue(ctx, domain.ImportRequest{
		SourcePath:    sourcePath,
		RootAccountID: rootAccountID,
		BatchID:       strings.TrimSpace(in.BatchID),
	})
	if err != nil {
		return StartImportUsersOutput{}, fmt.Errorf("%w: %v", ErrEnqueueImportJob, err)
	}

	return StartImportUsersOutput{
		JobID:  jobID,
		Status: "queued",
	}, nil
}

func IsSupportedSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}
