package httpapi

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/mquell/undercover/internal/game"
	"github.com/mquell/undercover/internal/registry"
	"github.com/mquell/undercover/internal/store"
)

type stubWords struct{}

func (stubWords) Draw(exclude string) (string, string) {
	return "penguin", "animals"
}

type stubStore struct {
	snaps map[string]game.Snapshot
}

func (s *stubStore) Save(ctx context.Context, snap game.Snapshot) error { return nil }

func (s *stubStore) Get(ctx context.Context, id string) (game.Snapshot, error) {
	snap, ok := s.snaps[id]
	if !ok {
		return game.Snapshot{}, store.ErrNotFound
	}
	return snap, nil
}

func (s *stubStore) ListActive(ctx context.Context) ([]game.Snapshot, error) { return nil, nil }
func (s *stubStore) Delete(ctx context.Context, id string) error             { return nil }

func newTestAPI(t *testing.T, st store.Store) (*registry.Registry, *httptest.Server) {
	t.Helper()
	reg := registry.New(stubWords{}, clockwork.NewFakeClock(), rand.New(rand.NewSource(1)))
	mux := http.NewServeMux()
	New(reg, st).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return reg, srv
}

func getPreview(t *testing.T, srv *httptest.Server, id string) (int, registry.Preview) {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/matches/" + id + "/preview")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var p registry.Preview
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode, p
}

func TestPreviewFromRegistry(t *testing.T) {
	reg, srv := newTestAPI(t, nil)
	m := reg.Create(game.Identity{ID: "u1", Name: "Ada"}, game.DefaultConfig())
	m.AddPlayer(game.Identity{ID: "u2", Name: "Bo"})

	status, p := getPreview(t, srv, m.ID)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if p.MatchID != m.ID || p.HostName != "Ada" || p.PlayerCount != 2 || p.Status != "lobby" {
		t.Fatalf("preview = %+v", p)
	}
}

func TestPreviewFallsBackToStore(t *testing.T) {
	reg, srvNoStore := newTestAPI(t, nil)
	m := reg.Create(game.Identity{ID: "u1", Name: "Ada"}, game.DefaultConfig())
	snap := m.Snapshot()

	st := &stubStore{snaps: map[string]game.Snapshot{snap.ID: snap}}
	_, srv := newTestAPI(t, st)

	status, p := getPreview(t, srv, snap.ID)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want fallback hit", status)
	}
	if p.MatchID != snap.ID || p.HostName != "Ada" {
		t.Fatalf("preview = %+v", p)
	}

	// Without the store the same id is a plain miss.
	status, _ = getPreview(t, srvNoStore, "ZZZZ99")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestPreviewUnknownMatch(t *testing.T) {
	_, srv := newTestAPI(t, &stubStore{})
	status, _ := getPreview(t, srv, "NOPE42")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestHealth(t *testing.T) {
	_, srv := newTestAPI(t, nil)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
