package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mquell/undercover/internal/game"
)

type fakeStore struct {
	mu      sync.Mutex
	saved   []game.Snapshot
	deleted []string
	err     error
}

func (f *fakeStore) Save(ctx context.Context, snap game.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, snap)
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (game.Snapshot, error) {
	return game.Snapshot{}, ErrNotFound
}

func (f *fakeStore) ListActive(ctx context.Context) ([]game.Snapshot, error) {
	return nil, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func (f *fakeStore) deletedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestWriterSavesActiveSnapshots(t *testing.T) {
	fs := &fakeStore{}
	w := NewWriter(fs, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Enqueue(game.Snapshot{ID: "AAAA11", Phase: game.PhasePlaying})
	w.Enqueue(game.Snapshot{ID: "BBBB22", Phase: game.PhaseRoundResult})

	waitFor(t, func() bool { return fs.savedCount() == 2 })

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.saved[0].ID != "AAAA11" || fs.saved[1].ID != "BBBB22" {
		t.Fatalf("saved = %v", fs.saved)
	}
}

func TestWriterDeletesFinishedMatches(t *testing.T) {
	fs := &fakeStore{}
	w := NewWriter(fs, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Enqueue(game.Snapshot{ID: "CCCC33", Phase: game.PhaseGameOver})

	waitFor(t, func() bool { return fs.deletedCount() == 1 })
	if fs.savedCount() != 0 {
		t.Fatal("finished snapshot should be deleted, not saved")
	}
}

func TestWriterDropsWhenQueueFull(t *testing.T) {
	fs := &fakeStore{}
	w := NewWriter(fs, 1)

	// No worker running: the second enqueue must drop, not block.
	w.Enqueue(game.Snapshot{ID: "DDDD44", Phase: game.PhasePlaying})
	done := make(chan struct{})
	go func() {
		w.Enqueue(game.Snapshot{ID: "EEEE55", Phase: game.PhasePlaying})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestWriterSwallowsStoreErrors(t *testing.T) {
	fs := &fakeStore{err: errors.New("db down")}
	w := NewWriter(fs, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Enqueue(game.Snapshot{ID: "FFFF66", Phase: game.PhasePlaying})
	w.Enqueue(game.Snapshot{ID: "GGGG77", Phase: game.PhaseGameOver})

	// Drain happens despite errors; give the worker a moment and make sure
	// nothing was recorded.
	waitFor(t, func() bool { return len(w.jobs) == 0 })
	if fs.savedCount() != 0 || fs.deletedCount() != 0 {
		t.Fatal("failed writes must not be recorded")
	}
}
