// Package registry owns the in-memory map of live matches. Each match is
// authoritative only in the process that created it.
package registry

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mquell/undercover/internal/game"
)

// ErrNotFound is returned when a match id is unknown.
var ErrNotFound = errors.New("match not found")

const (
	codeLength  = 6
	codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// SnapshotLoader is what Hydrate needs from the persistence collaborator.
type SnapshotLoader interface {
	ListActive(ctx context.Context) ([]game.Snapshot, error)
}

// Preview is the lightweight lookup shape served by the query interface.
type Preview struct {
	MatchID     string `json:"matchId"`
	HostName    string `json:"hostName"`
	PlayerCount int    `json:"playerCount"`
	Status      string `json:"status"`
}

// Registry maps match codes to live matches. There is no eviction: finished
// matches stay until the process exits.
type Registry struct {
	mu      sync.RWMutex
	matches map[string]*game.Match

	words game.WordSource
	clock clockwork.Clock
	rng   *rand.Rand
}

// New creates an empty registry that builds matches with the given
// collaborators.
func New(words game.WordSource, clock clockwork.Clock, rng *rand.Rand) *Registry {
	return &Registry{
		matches: make(map[string]*game.Match),
		words:   words,
		clock:   clock,
		rng:     rng,
	}
}

// Create makes a new match hosted by the given identity.
func (r *Registry) Create(host game.Identity, cfg game.Config) *game.Match {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.newCode()
	m := game.NewMatch(code, host, cfg, r.words, r.clock, r.rng)
	r.matches[code] = m

	log.Info().Str("match_id", code).Str("host_id", host.ID).Msg("match created")
	return m
}

// Get looks up a match by id.
func (r *Registry) Get(id string) (*game.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

// FindByPlayer returns the match the identity currently plays in, or nil.
func (r *Registry) FindByPlayer(playerID string) *game.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.matches {
		if m.HasPlayer(playerID) {
			return m
		}
	}
	return nil
}

// Preview returns the lookup shape for a match, if present.
func (r *Registry) Preview(id string) (Preview, error) {
	m, err := r.Get(id)
	if err != nil {
		return Preview{}, err
	}
	return previewOf(m.Snapshot()), nil
}

// Hydrate loads every recoverable snapshot from the store into the
// registry. Matches that already finished are not recovered.
func (r *Registry) Hydrate(ctx context.Context, loader SnapshotLoader) error {
	snaps, err := loader.ListActive(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snap := range snaps {
		if snap.Phase == game.PhaseGameOver {
			continue
		}
		r.matches[snap.ID] = game.FromSnapshot(snap, r.words, r.clock, r.rng)
	}
	log.Info().Int("matches", len(snaps)).Msg("registry hydrated from store")
	return nil
}

// PreviewOfSnapshot builds a preview straight from a persisted snapshot,
// used when the registry itself misses.
func PreviewOfSnapshot(snap game.Snapshot) Preview {
	return previewOf(snap)
}

func previewOf(snap game.Snapshot) Preview {
	hostName := ""
	for _, p := range snap.Players {
		if p.ID == snap.HostID {
			hostName = p.Name
			break
		}
	}
	return Preview{
		MatchID:     snap.ID,
		HostName:    hostName,
		PlayerCount: len(snap.Players),
		Status:      snap.Phase.String(),
	}
}

func (r *Registry) newCode() string {
	for {
		buf := make([]byte, codeLength)
		for i := range buf {
			buf[i] = codeCharset[r.rng.Intn(len(codeCharset))]
		}
		code := string(buf)
		if _, taken := r.matches[code]; !taken {
			return code
		}
	}
}
