package user

import (
	"context"
	"fmt"
	"log/slog"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

// Bookkeeper applies the bulk updates deferred during a run.
type Bookkeeper struct {
	bulk domain.BulkBookkeeper
	log  *slog.Logger
}

func NewBookkeeper(bulk domain.BulkBookkeeper, log *slog.Logger) *Bookkeeper {
	if log == nil {
		log = slog.Default()
	}
	return &Bookkeeper{bulk: bulk, log: log}
}

// Finalize consumes deferred once. Empty sets are skipped, and batch
// stamping is skipped for runs without a batch.
func (b *Bookkeeper) Finalize(ctx context.Context, run domain.RunContext, deferred *domain.DeferredIDSets) error {
	if ids := deferred.NewUsers.IDs(); len(ids) > 0 {
		if err := b.bulk.AddAccountAssociations(ctx, run.RootAccountID, ids); err != nil {
			return fmt.Errorf("%w: add account associations: %v", ErrFinalizeRun, err)
		}
	}
	if ids := deferred.DeletedUsers.IDs(); len(ids) > 0 {
		if err := b.bulk.RecomputeAccountAssociations(ctx, ids); err != nil {
			return fmt.Errorf("%w: recompute account associations: %v", ErrFinalizeRun, err)
		}
	}
	if run.HasBatch() {
		if ids := deferred.UsersToStamp.IDs(); len(ids) > 0 {
			if err := b.bulk.StampUserBatch(ctx, run.BatchID, ids); err != nil {
				return fmt.Errorf("%w: stamp user batch: %v", ErrFinalizeRun, err)
			}
		}
		if ids := deferred.LoginsToStamp.IDs(); len(ids) > 0 {
			if err := b.bulk.StampLoginBatch(ctx, run.BatchID, ids); err != nil {
				return fmt.Errorf("%w: stamp login batch: %v", ErrFinalizeRun, err)
			}
		}
	}

	b.log.Debug("deferred bookkeeping applied",
		"new_users", deferred.NewUsers.Len(),
		"deleted_users", deferred.DeletedUsers.Len(),
		"stamped_users", deferred.UsersToStamp.Len(),
		"stamped_logins", deferred.LoginsToStamp.Len(),
	)
	*deferred = domain.DeferredIDSets{}
	return nil
}
