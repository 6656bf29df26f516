package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

type GetUserByIDInput struct {
	ID string
}

type GetUserLoginOutput struct {
	ID             string `json:"id"`
	AccountID      string `json:"account_id"`
	UniqueID       string `json:"unique_id"`
	ExternalUserID string `json:"external_user_id,omitempty"`
	WorkflowState  string `json:"workflow_state"`
	BatchID        string `json:"batch_id,omitempty"`
}

type GetUserByIDOutput struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	WorkflowState   string               `json:"workflow_state"`
	CreationBatchID string               `json:"creation_batch_id,omitempty"`
	Logins          []GetUserLoginOutput `json:"logins"`
}

type GetUserByID interface {
	Execute(ctx context.Context, in GetUserByIDInput) (GetUserByIDOutput, error)
}

type getUserByID struct {
	repo domain.UserQueryRepository
}

func NewGetUserByID(repo domain.UserQueryRepository) GetUserByID {
	return &getUserByID{repo: repo}
}

func (uc *getUserByID) Execute(ctx context.Context, in GetUserByIDInput) (GetUserByIDOutput, error) {
	if err := uuid.Validate(in.ID); err != nil {
		return GetUserByIDOutput{}, ErrInvalidUserID
	}

	profile, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return GetUserByIDOutput{}, ErrUserNotFound
		}
		return GetUserByIDOutput{}, fmt.Errorf("%w: %v", ErrGetUserByID, err)
	}

	logins := make([]GetUserLoginOutput, 0, len(profile.Logins))
	for _, login := range profile.Logins {
		logins = append(logins, GetUserLoginOutput{
			ID:             login.ID,
			AccountID:      login.AccountID,
			UniqueID:       login.UniqueID,
			ExternalUserID: login.ExternalUserID,
			WorkflowState:  string(login.WorkflowState),
			BatchID:        login.BatchID,
		})
	}

	return GetUserByIDOutput{
		ID:              profile.User.ID,
		Name:            profile.User.DisplayName,
		WorkflowState:   string(profile.User.WorkflowState),
		CreationBatchID: profile.User.CreationBatchID,
		Logins:          logins,
	}, nil
}
