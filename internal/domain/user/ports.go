package user

import (
	"context"
	"time"
)

type ImportJobRepository interface {
	Enqueue(ctx context.Context, req ImportRequest) (string, error)
}

type UserQueryRepository interface {
	GetByID(ctx context.Context, userID string) (*UserProfile, error)
}

// RecordStream yields records in source order and returns io.EOF once
// exhausted.
type RecordStream interface {
	Next(ctx context.Context) (ImportRecord, error)
	Close() error
}

// RecordSource can be opened more than once; each stream starts at the
// first record.
type RecordSource interface {
	Open(ctx context.Context) (RecordStream, error)
}

type IdentityStore interface {
	// InChunk runs fn inside a chunk transaction that commits when fn
	// returns nil.
	InChunk(ctx context.Context, fn func(tx IdentityTx) error) error
}

// IdentityTx is the identity store bound to an open transaction. Lookups
// return nil, nil when nothing matches.
type IdentityTx interface {
	// Nested runs fn in a rollback scope inside the current transaction.
	// When fn fails only its own writes are undone.
	Nested(ctx context.Context, fn func(tx IdentityTx) error) error

	FindLoginByExternalUserID(ctx context.Context, accountID, externalUserID string) (*Login, error)
	FindLoginByUniqueID(ctx context.Context, accountID, uniqueID string) (*Login, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	GetChannel(ctx context.Context, channelID string) (*CommunicationChannel, error)
	FindActiveChannel(ctx context.Context, path string, channelType ChannelType) (*CommunicationChannel, error)

	// Save methods insert when ID is empty and assign the new ID.
	SaveUser(ctx context.Context, u *User) error
	SaveLogin(ctx context.Context, l *Login) error
	SaveChannel(ctx context.Context, c *CommunicationChannel) error
	DestroyChannel(ctx context.Context, channelID string) error

	DeleteEnrollments(ctx context.Context, userID, rootAccountID string) error
}

type BulkBookkeeper interface {
	AddAccountAssociations(ctx context.Context, rootAccountID string, userIDs []string) error
	RecomputeAccountAssociations(ctx context.Context, userIDs []string) error
	StampUserBatch(ctx context.Context, batchID string, userIDs []string) error
	StampLoginBatch(ctx context.Context, batchID string, loginIDs []string) error
}

type ChunkLimitsProvider interface {
	ChunkLimits(ctx context.Context) ChunkLimits
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(hash, plain string) bool
}

type Clock func() time.Time
