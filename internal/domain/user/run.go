package user

import "time"

// RunContext scopes one import run.
type RunContext struct {
	RootAccountID string
	BatchID       string
}

func (r RunContext) HasBatch() bool {
	return r.BatchID != ""
}

type ChunkLimits struct {
	MaxRows     int
	MaxDuration time.Duration
}

func (l ChunkLimits) Normalize() ChunkLimits {
	if l.MaxRows <= 0 {
		l.MaxRows = 1
	}
	if l.MaxDuration <= 0 {
		l.MaxDuration = time.Second
	}
	return l
}
