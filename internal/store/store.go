// Package store is the best-effort persistence collaborator. Gameplay never
// waits on it; every write goes through the async Writer.
package store

import (
	"context"
	"errors"

	"github.com/mquell/undercover/internal/game"
)

// ErrNotFound is returned when no snapshot exists for a match id.
var ErrNotFound = errors.New("match snapshot not found")

// Store persists match snapshots keyed by match id.
type Store interface {
	Save(ctx context.Context, snap game.Snapshot) error
	Get(ctx context.Context, id string) (game.Snapshot, error)
	// ListActive returns every snapshot whose match can still be resumed
	// after a restart (anything not in the game-over phase).
	ListActive(ctx context.Context) ([]game.Snapshot, error)
	Delete(ctx context.Context, id string) error
}
