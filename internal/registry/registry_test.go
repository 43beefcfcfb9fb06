package registry

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/mquell/undercover/internal/game"
)

type stubWords struct{}

func (stubWords) Draw(exclude string) (string, string) {
	return "penguin", "animals"
}

func newTestRegistry() *Registry {
	return New(stubWords{}, clockwork.NewFakeClock(), rand.New(rand.NewSource(1)))
}

func host() game.Identity {
	return game.Identity{ID: "host-1", Name: "Ada", AvatarRef: "a1"}
}

func TestCreateAssignsJoinCode(t *testing.T) {
	r := newTestRegistry()
	m := r.Create(host(), game.DefaultConfig())

	if len(m.ID) != codeLength {
		t.Fatalf("code %q has length %d, want %d", m.ID, len(m.ID), codeLength)
	}
	for _, c := range m.ID {
		if !strings.ContainsRune(codeCharset, c) {
			t.Fatalf("code %q contains %q outside the charset", m.ID, c)
		}
	}

	got, err := r.Get(m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != m {
		t.Fatal("Get returned a different match")
	}
}

func TestCreateAvoidsCodeCollisions(t *testing.T) {
	r := newTestRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		m := r.Create(host(), game.DefaultConfig())
		if seen[m.ID] {
			t.Fatalf("code %q issued twice", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestGetUnknown(t *testing.T) {
	r := newTestRegistry()
	if _, err := r.Get("NOPE42"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFindByPlayer(t *testing.T) {
	r := newTestRegistry()
	m := r.Create(host(), game.DefaultConfig())
	m.AddPlayer(game.Identity{ID: "p2", Name: "Bo"})

	if got := r.FindByPlayer("p2"); got != m {
		t.Fatal("FindByPlayer missed the member")
	}
	if got := r.FindByPlayer("stranger"); got != nil {
		t.Fatal("FindByPlayer matched a non-member")
	}
}

func TestPreview(t *testing.T) {
	r := newTestRegistry()
	m := r.Create(host(), game.DefaultConfig())
	m.AddPlayer(game.Identity{ID: "p2", Name: "Bo"})

	p, err := r.Preview(m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.MatchID != m.ID || p.HostName != "Ada" || p.PlayerCount != 2 || p.Status != "lobby" {
		t.Fatalf("preview = %+v", p)
	}
}

type stubLoader struct {
	snaps []game.Snapshot
	err   error
}

func (s stubLoader) ListActive(ctx context.Context) ([]game.Snapshot, error) {
	return s.snaps, s.err
}

func TestHydrateRestoresActiveMatches(t *testing.T) {
	r := newTestRegistry()
	live := r.Create(host(), game.DefaultConfig())
	live.AddPlayer(game.Identity{ID: "p2", Name: "Bo"})
	if err := live.StartGame("host-1"); err != nil {
		t.Fatal(err)
	}
	snap := live.Snapshot()

	finished := snap
	finished.ID = "DONE11"
	finished.Phase = game.PhaseGameOver

	fresh := newTestRegistry()
	err := fresh.Hydrate(context.Background(), stubLoader{snaps: []game.Snapshot{snap, finished}})
	if err != nil {
		t.Fatal(err)
	}

	restored, err := fresh.Get(snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Phase() != game.PhasePlaying || restored.RoundCount() != 1 {
		t.Fatalf("restored phase=%v round=%d", restored.Phase(), restored.RoundCount())
	}
	if !restored.HasPlayer("p2") {
		t.Fatal("roster lost in hydration")
	}

	if _, err := fresh.Get("DONE11"); !errors.Is(err, ErrNotFound) {
		t.Fatal("finished matches must not be recovered")
	}
}

func TestHydratePropagatesLoaderError(t *testing.T) {
	r := newTestRegistry()
	boom := errors.New("boom")
	if err := r.Hydrate(context.Background(), stubLoader{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestPreviewOfSnapshot(t *testing.T) {
	r := newTestRegistry()
	m := r.Create(host(), game.DefaultConfig())

	p := PreviewOfSnapshot(m.Snapshot())
	if p.MatchID != m.ID || p.HostName != "Ada" || p.PlayerCount != 1 {
		t.Fatalf("preview = %+v", p)
	}
}
