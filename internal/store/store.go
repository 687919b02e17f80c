package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/recall/internal/deck"
)

// Backend names a Store implementation.
type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

var (
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrNoState is returned by Load when nothing has been saved yet.
	ErrNoState = errors.New("no stored state")
)

// Store loads and saves complete snapshots.
//
// Load returns ErrNoState when nothing has been saved yet; the caller
// decides how to seed a fresh snapshot. Loaded snapshots are validated; a
// malformed document or invalid parameter set is returned as an error and
// must abort the caller before any mutation.
type Store interface {
	Load(ctx context.Context) (*deck.Snapshot, error)
	Save(ctx context.Context, snap *deck.Snapshot) error
	Close() error
}

// Open returns the Store for backend at path.
func Open(ctx context.Context, backend Backend, path string) (Store, error) {
	switch backend {
	case BackendJSON, "":
		return NewFileStore(path), nil
	case BackendSQLite:
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// finish validates a freshly loaded snapshot.
func finish(snap *deck.Snapshot) (*deck.Snapshot, error) {
	snap.Normalize()
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}
