package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bulkChunkSize = 10000

// BulkBookkeepingRepository applies set-based updates over id lists
// collected during an import run.
type BulkBookkeepingRepository struct {
	pool *pgxpool.Pool
}

func NewBulkBookkeepingRepository(pool *pgxpool.Pool) *BulkBookkeepingRepository {
	return &BulkBookkeepingRepository{pool: pool}
}

// AddAccountAssociations links new users to the root account at depth 0
// without recomputing anything else.
func (r *BulkBookkeepingRepository) AddAccountAssociations(ctx context.Context, rootAccountID string, userIDs []string) error {
	return r.inChunks(ctx, userIDs, func(tx pgx.Tx, ids []string) error {
		if _, err := tx.Exec(ctx, `
INSERT INTO user_account_associations (user_id, account_id, depth, created_at, updated_at)
SELECT u.id, $2, 0, NOW(), NOW()
FROM users u
WHERE u.id = ANY($1::uuid[])
ON CONFLICT (user_id, account_id) DO NOTHING
`, ids, rootAccountID); err != nil {
			return fmt.Errorf("add account associations: %w", err)
		}
		return nil
	})
}

// RecomputeAccountAssociations rebuilds associations from active logins and
// enrollments that are not deleted.
func (r *BulkBookkeepingRepository) RecomputeAccountAssociations(ctx context.Context, userIDs []string) error {
	return r.inChunks(ctx, userIDs, func(tx pgx.Tx, ids []string) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_account_associations WHERE user_id = ANY($1::uuid[])`, ids); err != nil {
			return fmt.Errorf("clear account associations: %w", err)
		}

		if _, err := tx.Exec(ctx, `
WITH memberships AS (
    SELECT l.user_id, l.account_id
    FROM logins l
    WHERE l.user_id = ANY($1::uuid[]) AND l.workflow_state = 'active'
    UNION
    SELECT e.user_id, e.root_account_id
    FROM enrollments e
    WHERE e.user_id = ANY($1::uuid[]) AND e.workflow_state <> 'deleted'
)
INSERT INTO user_account_associations (user_id, account_id, depth, created_at, updated_at)
SELECT m.user_id, m.account_id, 0, NOW(), NOW()
FROM memberships m
JOIN users u ON u.id = m.user_id
WHERE u.workflow_state <> 'deleted'
ON CONFLICT (user_id, account_id) DO NOTHING
`, ids); err != nil {
			return fmt.Errorf("rebuild account associations: %w", err)
		}
		return nil
	})
}

func (r *BulkBookkeepingRepository) StampUserBatch(ctx context.Context, batchID string, userIDs []string) error {
	return r.inChunks(ctx, userIDs, func(tx pgx.Tx, ids []string) error {
		if _, err := tx.Exec(ctx, `
UPDATE users SET creation_batch_id = $1, updated_at = NOW()
WHERE id = ANY($2::uuid[])
`, batchID, ids); err != nil {
			return fmt.Errorf("stamp user batch: %w", err)
		}
		return nil
	})
}

func (r *BulkBookkeepingRepository) StampLoginBatch(ctx context.Context, batchID string, loginIDs []string) error {
	return r.inChunks(ctx, loginIDs, func(tx pgx.Tx, ids []string) error {
		if _, err := tx.Exec(ctx, `
UPDATE logins SET batch_id = $1, updated_at = NOW()
WHERE id = ANY($2::uuid[])
`, batchID, ids); err != nil {
			return fmt.Errorf("stamp login batch: %w", err)
		}
		return nil
	})
}

func (r *BulkBookkeepingRepository) inChunks(ctx context.Context, ids []string, fn func(tx pgx.Tx, ids []string) error) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for start := 0; start < len(ids); start += bulkChunkSize {
		end := min(start+bulkChunkSize, len(ids))
		if err := fn(tx, ids[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit bulk update: %w", err)
	}
	return nil
}
