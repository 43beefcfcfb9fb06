package store

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mquell/undercover/internal/game"
)

// Writer decouples gameplay from the database: snapshots are queued on a
// buffered channel and flushed by a background worker. Enqueue never blocks
// and failures are logged, never surfaced.
type Writer struct {
	store Store
	jobs  chan game.Snapshot
}

// NewWriter creates a writer flushing into the given store.
func NewWriter(store Store, buffer int) *Writer {
	return &Writer{
		store: store,
		jobs:  make(chan game.Snapshot, buffer),
	}
}

// Enqueue queues a snapshot for persistence. When the buffer is full the
// snapshot is dropped; a later mutation will enqueue a fresher one.
func (w *Writer) Enqueue(snap game.Snapshot) {
	select {
	case w.jobs <- snap:
	default:
		log.Warn().Str("match_id", snap.ID).Msg("persistence queue full, dropping snapshot")
	}
}

// Run processes queued snapshots until the context is cancelled. Finished
// matches are deleted from the store so they are not recovered on restart.
func (w *Writer) Run(ctx context.Context) {
	log.Info().Msg("snapshot writer started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("snapshot writer shutting down")
			return
		case snap := <-w.jobs:
			w.flush(ctx, snap)
		}
	}
}

func (w *Writer) flush(ctx context.Context, snap game.Snapshot) {
	var err error
	if snap.Phase == game.PhaseGameOver {
		err = w.store.Delete(ctx, snap.ID)
	} else {
		err = w.store.Save(ctx, snap)
	}
	if err != nil {
		log.Error().Err(err).Str("match_id", snap.ID).Msg("snapshot write failed")
	}
}
