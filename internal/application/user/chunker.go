package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

// RowFunc applies one record inside an open chunk transaction. A returned
// error aborts the chunk and the run.
type RowFunc func(ctx context.Context, tx domain.IdentityTx, rec domain.ImportRecord) error

// ChunkFunc is called after a chunk commits with the number of rows it held.
type ChunkFunc func(rows int)

type Chunker struct {
	store  domain.IdentityStore
	limits domain.ChunkLimitsProvider
	now    domain.Clock
	log    *slog.Logger
}

func NewChunker(store domain.IdentityStore, limits domain.ChunkLimitsProvider, now domain.Clock, log *slog.Logger) *Chunker {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Chunker{store: store, limits: limits, now: now, log: log}
}

// Run drives the stream through chunk transactions until it is exhausted.
// Each chunk holds at most MaxRows rows and stops taking rows once its
// deadline has passed; a row is never split across chunks.
func (c *Chunker) Run(ctx context.Context, stream domain.RecordStream, apply RowFunc, onChunk ChunkFunc) error {
	cur := &recordCursor{stream: stream}

	for cur.more(ctx) {
		if err := ctx.Err(); err != nil {
			return err
		}

		limits := c.limits.ChunkLimits(ctx).Normalize()
		rows := 0

		err := c.store.InChunk(ctx, func(tx domain.IdentityTx) error {
			rows = 0
			deadline := c.now().Add(limits.MaxDuration)
			batch := cur.batch(limits.MaxRows, func() bool { return c.now().Before(deadline) })

			for batch.next(ctx) {
				if err := apply(ctx, tx, batch.record()); err != nil {
					return err
				}
				rows++
			}
			return cur.err
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrChunkTransaction, err)
		}

		c.log.Debug("chunk committed", "rows", rows, "max_rows", limits.MaxRows, "max_duration", limits.MaxDuration)
		if onChunk != nil {
			onChunk(rows)
		}
	}

	return cur.err
}

// recordCursor peeks one record ahead so a chunk is only opened when a
// row is waiting.
type recordCursor struct {
	stream  domain.RecordStream
	pending *domain.ImportRecord
	done    bool
	err     error
}

func (c *recordCursor) more(ctx context.Context) bool {
	if c.pending != nil {
		return true
	}
	if c.done {
		return false
	}

	rec, err := c.stream.Next(ctx)
	if err != nil {
		c.done = true
		if !errors.Is(err, io.EOF) {
			c.err = fmt.Errorf("%w: %v", ErrReadRecordSource, err)
		}
		return false
	}
	c.pending = &rec
	return true
}

func (c *recordCursor) take() domain.ImportRecord {
	rec := *c.pending
	c.pending = nil
	return rec
}

func (c *recordCursor) batch(maxRows int, inTime func() bool) *chunkBatch {
	return &chunkBatch{cur: c, remaining: maxRows, inTime: inTime}
}

// chunkBatch is the bounded view of the cursor used by one chunk.
type chunkBatch struct {
	cur       *recordCursor
	remaining int
	inTime    func() bool
	started   bool
	current   domain.ImportRecord
}

func (b *chunkBatch) next(ctx context.Context) bool {
	if b.started && (b.remaining <= 0 || !b.inTime()) {
		return false
	}
	if !b.cur.more(ctx) {
		return false
	}
	b.started = true
	b.remaining--
	b.current = b.cur.take()
	return true
}

func (b *chunkBatch) record() domain.ImportRecord {
	return b.current
}
