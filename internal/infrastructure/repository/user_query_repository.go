package repository

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
	"github.com/mohammadpnp/identity-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

type UserQueryRepository struct {
	db *gorm.DB
}

func NewUserQueryRepository(db *gorm.DB) *UserQueryRepository {
	return &UserQueryRepository{db: db}
}

func (r *UserQueryRepository) GetByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var row models.User

	err := r.db.WithContext(ctx).
		Preload("Logins", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		First(&row, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	logins := make([]domain.Login, 0, len(row.Logins))
	for _, login := range row.Logins {
		logins = append(logins, loginFromModel(login))
	}

	return &domain.UserProfile{
		User:   userFromModel(row),
		Logins: logins,
	}, nil
}
