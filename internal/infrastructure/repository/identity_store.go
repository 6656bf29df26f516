package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
	"github.com/mohammadpnp/identity-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdentityStore persists users, logins and communication channels. Chunk
// transactions are gorm transactions; nested scopes are gorm savepoints.
type IdentityStore struct {
	db *gorm.DB
}

func NewIdentityStore(db *gorm.DB) *IdentityStore {
	return &IdentityStore{db: db}
}

func (s *IdentityStore) InChunk(ctx context.Context, fn func(tx domain.IdentityTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&identityTx{db: tx})
	})
}

type identityTx struct {
	db *gorm.DB
}

func (t *identityTx) Nested(ctx context.Context, fn func(tx domain.IdentityTx) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&identityTx{db: tx})
	})
}

func (t *identityTx) FindLoginByExternalUserID(ctx context.Context, accountID, externalUserID string) (*domain.Login, error) {
	return t.findLogin(ctx, "account_id = ? AND external_user_id = ?", accountID, externalUserID)
}

func (t *identityTx) FindLoginByUniqueID(ctx context.Context, accountID, uniqueID string) (*domain.Login, error) {
	return t.findLogin(ctx, "account_id = ? AND unique_id = ?", accountID, uniqueID)
}

func (t *identityTx) findLogin(ctx context.Context, query string, args ...any) (*domain.Login, error) {
	var row models.Login
	err := t.db.WithContext(ctx).Where(query, args...).Order("created_at").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find login: %w", err)
	}
	login := loginFromModel(row)
	return &login, nil
}

func (t *identityTx) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var row models.User
	err := t.db.WithContext(ctx).First(&row, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u := userFromModel(row)
	return &u, nil
}

func (t *identityTx) GetChannel(ctx context.Context, channelID string) (*domain.CommunicationChannel, error) {
	var row models.CommunicationChannel
	err := t.db.WithContext(ctx).First(&row, "id = ?", channelID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	ch := channelFromModel(row)
	return &ch, nil
}

func (t *identityTx) FindActiveChannel(ctx context.Context, path string, channelType domain.ChannelType) (*domain.CommunicationChannel, error) {
	var row models.CommunicationChannel
	err := t.db.WithContext(ctx).
		Where("path = ? AND path_type = ? AND workflow_state = ?", path, string(channelType), string(domain.ChannelActive)).
		Order("created_at").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active channel: %w", err)
	}
	ch := channelFromModel(row)
	return &ch, nil
}

func (t *identityTx) SaveUser(ctx context.Context, u *domain.User) error {
	row := userToModel(*u)
	if err := t.save(ctx, &row, &row.ID); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	u.ID = row.ID
	return nil
}

func (t *identityTx) SaveLogin(ctx context.Context, l *domain.Login) error {
	row := loginToModel(*l)
	if err := t.save(ctx, &row, &row.ID); err != nil {
		return fmt.Errorf("save login: %w", err)
	}
	l.ID = row.ID
	return nil
}

func (t *identityTx) SaveChannel(ctx context.Context, c *domain.CommunicationChannel) error {
	row := channelToModel(*c)
	if err := t.save(ctx, &row, &row.ID); err != nil {
		return fmt.Errorf("save channel: %w", err)
	}
	c.ID = row.ID
	return nil
}

// save inserts rows without an id and updates every column otherwise.
func (t *identityTx) save(ctx context.Context, row any, id *string) error {
	db := t.db.WithContext(ctx).Omit(clause.Associations)
	if *id == "" {
		*id = uuid.NewString()
		return db.Create(row).Error
	}

	res := db.Select("*").Omit("created_at").Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (t *identityTx) DestroyChannel(ctx context.Context, channelID string) error {
	db := t.db.WithContext(ctx)
	if err := db.Model(&models.Login{}).
		Where("communication_channel_id = ?", channelID).
		Update("communication_channel_id", nil).Error; err != nil {
		return fmt.Errorf("unlink channel: %w", err)
	}
	if err := db.Delete(&models.CommunicationChannel{}, "id = ?", channelID).Error; err != nil {
		return fmt.Errorf("destroy channel: %w", err)
	}
	return nil
}

func (t *identityTx) DeleteEnrollments(ctx context.Context, userID, rootAccountID string) error {
	err := t.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("user_id = ? AND root_account_id = ? AND workflow_state <> ?", userID, rootAccountID, "deleted").
		Update("workflow_state", "deleted").Error
	if err != nil {
		return fmt.Errorf("delete enrollments: %w", err)
	}
	return nil
}

func userFromModel(row models.User) domain.User {
	return domain.User{
		ID:              row.ID,
		DisplayName:     row.Name,
		ManagedName:     deref(row.ManagedName),
		WorkflowState:   domain.UserState(row.WorkflowState),
		CreationBatchID: deref(row.CreationBatchID),
	}
}

func userToModel(u domain.User) models.User {
	return models.User{
		ID:              u.ID,
		Name:            u.DisplayName,
		ManagedName:     nullableText(u.ManagedName),
		WorkflowState:   string(u.WorkflowState),
		CreationBatchID: nullableText(u.CreationBatchID),
	}
}

func loginFromModel(row models.Login) domain.Login {
	return domain.Login{
		ID:                    row.ID,
		UserID:                row.UserID,
		AccountID:             row.AccountID,
		UniqueID:              row.UniqueID,
		ExternalSourceID:      deref(row.ExternalSourceID),
		ExternalUserID:        deref(row.ExternalUserID),
		WorkflowState:         domain.LoginState(row.WorkflowState),
		CryptedPassword:       deref(row.CryptedPassword),
		PasswordAutoGenerated: row.PasswordAutoGenerated,
		ExternalPasswordHash:  deref(row.ExternalPasswordHash),
		PersistenceToken:      row.PersistenceToken,
		LinkedChannelID:       deref(row.CommunicationChannelID),
		BatchID:               deref(row.BatchID),
	}
}

func loginToModel(l domain.Login) models.Login {
	return models.Login{
		ID:                     l.ID,
		UserID:                 l.UserID,
		AccountID:              l.AccountID,
		UniqueID:               l.UniqueID,
		ExternalSourceID:       nullableText(l.ExternalSourceID),
		ExternalUserID:         nullableText(l.ExternalUserID),
		WorkflowState:          string(l.WorkflowState),
		CryptedPassword:        nullableText(l.CryptedPassword),
		PasswordAutoGenerated:  l.PasswordAutoGenerated,
		ExternalPasswordHash:   nullableText(l.ExternalPasswordHash),
		PersistenceToken:       l.PersistenceToken,
		CommunicationChannelID: nullableText(l.LinkedChannelID),
		BatchID:                nullableText(l.BatchID),
	}
}

func channelFromModel(row models.CommunicationChannel) domain.CommunicationChannel {
	return domain.CommunicationChannel{
		ID:            row.ID,
		UserID:        row.UserID,
		LoginID:       deref(row.LoginID),
		Path:          row.Path,
		Type:          domain.ChannelType(row.PathType),
		WorkflowState: domain.ChannelState(row.WorkflowState),
	}
}

func channelToModel(c domain.CommunicationChannel) models.CommunicationChannel {
	return models.CommunicationChannel{
		ID:            c.ID,
		UserID:        c.UserID,
		LoginID:       nullableText(c.LoginID),
		Path:          c.Path,
		PathType:      string(c.Type),
		WorkflowState: string(c.WorkflowState),
	}
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
