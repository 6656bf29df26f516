package repository

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
	"github.com/mohammadpnp/identity-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

const (
	SettingUpdatesPerTransaction = "sis_updates_per_transaction"
	SettingTransactionSeconds    = "sis_transaction_seconds"
)

// SettingsRepository serves chunk limits from the settings table, falling
// back to the configured defaults.
type SettingsRepository struct {
	db       *gorm.DB
	defaults domain.ChunkLimits
	log      *slog.Logger
}

func NewSettingsRepository(db *gorm.DB, defaults domain.ChunkLimits, log *slog.Logger) *SettingsRepository {
	if log == nil {
		log = slog.Default()
	}
	return &SettingsRepository{db: db, defaults: defaults, log: log}
}

func (r *SettingsRepository) ChunkLimits(ctx context.Context) domain.ChunkLimits {
	limits := r.defaults

	var rows []models.Setting
	err := r.db.WithContext(ctx).
		Where("name IN ?", []string{SettingUpdatesPerTransaction, SettingTransactionSeconds}).
		Find(&rows).Error
	if err != nil {
		r.log.Warn("read chunk settings failed, using defaults", "error", err)
		return limits
	}

	for _, row := range rows {
		value, err := strconv.Atoi(row.Value)
		if err != nil || value <= 0 {
			r.log.Warn("ignoring invalid setting", "name", row.Name, "value", row.Value)
			continue
		}
		switch row.Name {
		case SettingUpdatesPerTransaction:
			limits.MaxRows = value
		case SettingTransactionSeconds:
			limits.MaxDuration = time.Duration(value) * time.Second
		}
	}
	return limits
}
