package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/console/internal/console/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface. Concrete drivers (sqlite, redis,
// memory) implement this. The console only persists its session record, but
// it is exposed as a sub-repository so the drivers stay shaped the same way.
type Store interface {
	SessionRecords() SessionRecords

	// ApplyMigrations prepares the backing schema. Drivers without a schema
	// treat it as a no-op.
	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error
}

type SessionRecords interface {
	// GetSessionRecord returns the record stored under name or ErrNotFound.
	GetSessionRecord(ctx context.Context, name string) (domain.SessionRecord, error)

	// PutSessionRecord inserts or replaces the record with the same name.
	PutSessionRecord(ctx context.Context, rec domain.SessionRecord) error

	// DeleteSessionRecord removes the record. Deleting a missing record is not
	// an error.
	DeleteSessionRecord(ctx context.Context, name string) error
}
