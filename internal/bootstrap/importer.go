package bootstrap

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	app "github.com/mohammadpnp/identity-import/internal/application/user"
	"github.com/mohammadpnp/identity-import/internal/config"
	"github.com/mohammadpnp/identity-import/internal/infrastructure/crypto"
	"github.com/mohammadpnp/identity-import/internal/infrastructure/repository"
	"gorm.io/gorm"
)

// NewImporter wires the import pipeline onto the gorm identity store and
// the pgx bulk repository.
func NewImporter(cfg *config.Config, db *gorm.DB, pool *pgxpool.Pool, recorder app.RunRecorder, log *slog.Logger) *app.Importer {
	store := repository.NewIdentityStore(db)
	settings := repository.NewSettingsRepository(db, cfg.ChunkLimits(), log)
	bulk := repository.NewBulkBookkeepingRepository(pool)

	chunker := app.NewChunker(store, settings, nil, log)
	bookkeeper := app.NewBookkeeper(bulk, log)
	hasher := crypto.NewBcryptHasher(cfg.Password.BcryptCost)

	return app.NewImporter(chunker, bookkeeper, hasher, recorder, app.ImporterConfig{
		GateOnValidation: cfg.Import.GateOnValidation,
	}, log)
}
