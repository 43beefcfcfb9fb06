// Package session binds authenticated identities to live matches across
// reconnects. Every inbound action enters the match state machine through
// here, serialized behind one lock, and every mutation is followed by a
// broadcast and a fire-and-forget persistence write.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mquell/undercover/internal/events"
	"github.com/mquell/undercover/internal/game"
	"github.com/mquell/undercover/internal/registry"
)

// ErrNotConnected is returned when an action arrives for an identity
// without a live session.
var ErrNotConnected = errors.New("no active session for this identity")

// Persister receives snapshots after each mutation.
type Persister interface {
	Enqueue(snap game.Snapshot)
}

// Manager tracks one session per identity and routes actions into matches.
type Manager struct {
	mu       sync.Mutex
	cfg      Config
	clock    clockwork.Clock
	registry *registry.Registry
	persist  Persister // nil when persistence is unavailable
	events   events.Publisher
	sessions map[string]*state
}

// NewManager creates a session manager.
func NewManager(reg *registry.Registry, persist Persister, pub events.Publisher, cfg Config, clock clockwork.Clock) *Manager {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Manager{
		cfg:      cfg,
		clock:    clock,
		registry: reg,
		persist:  persist,
		events:   pub,
		sessions: make(map[string]*state),
	}
}

// Connect binds a fresh connection to the identity. Any older connection is
// superseded and closed. A recent explicit leave suppresses auto-rejoin;
// otherwise the player is rebound to their match and sent their projection.
func (m *Manager) Connect(identity game.Identity, conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	st := m.sessions[identity.ID]
	if st == nil {
		st = &state{}
		m.sessions[identity.ID] = st
	}
	st.identity = identity

	if old := st.conn; old != nil && old != conn {
		_ = old.SendJSON(Outbound{Type: MsgSessionReplaced, Data: TextPayload{Message: "signed in from another device"}})
		_ = old.Close()
		log.Info().Str("user_id", identity.ID).Msg("previous session replaced")
	}
	st.conn = conn
	st.lastHeartbeat = now
	m.rescheduleInactivity(st)

	if st.explicitlyLeft(now) {
		st.leftUntil = now
		m.sendState(conn, nil)
		return
	}

	match := m.registry.FindByPlayer(identity.ID)
	if match == nil {
		// A pending timer for a match we no longer belong to is stale.
		m.cancelRemoval(st)
		m.sendState(conn, nil)
		return
	}

	m.cancelRemoval(st)
	m.sendState(conn, match.StateFor(identity.ID))
	log.Info().Str("user_id", identity.ID).Str("match_id", match.ID).Msg("player rebound to match")
}

// Disconnect handles a dropped connection. If the identity plays in a
// match, removal is deferred by a grace period sized by heartbeat recency.
func (m *Manager) Disconnect(identityID string, conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.sessions[identityID]
	if st == nil || st.conn != conn {
		// A superseded connection going away is not a disconnect.
		return
	}
	st.conn = nil

	match := m.registry.FindByPlayer(identityID)
	if match == nil {
		m.destroyIfIdle(identityID, st)
		return
	}

	recency := m.clock.Now().Sub(st.lastHeartbeat)
	grace := m.cfg.ShortGrace
	if recency < m.cfg.ActivityThreshold {
		grace = m.cfg.LongGrace
	}

	st.removalGen++
	gen := st.removalGen
	st.removalMatch = match.ID
	st.removal = m.clock.AfterFunc(grace, func() {
		m.expireRemoval(identityID, gen)
	})
	log.Info().
		Str("user_id", identityID).
		Str("match_id", match.ID).
		Dur("grace", grace).
		Msg("disconnect grace timer started")
}

// expireRemoval fires when a grace period ran out without a reconnect.
func (m *Manager) expireRemoval(identityID string, gen int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.sessions[identityID]
	if st == nil || st.removalGen != gen || st.conn != nil {
		return
	}
	st.removal = nil

	match := m.registry.FindByPlayer(identityID)
	if match != nil && match.ID == st.removalMatch {
		m.applyRemoval(match, st.identity)
	}
	st.removalMatch = ""
	m.destroyIfIdle(identityID, st)
}

// Leave is the player-initiated exit. Removal is immediate and a short-TTL
// marker prevents the next connection from auto-rejoining.
func (m *Manager) Leave(identityID, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.sessions[identityID]
	if st == nil {
		return ErrNotConnected
	}
	m.cancelRemoval(st)

	match, err := m.registry.Get(matchID)
	if err != nil {
		return err
	}
	m.applyRemoval(match, st.identity)
	st.leftUntil = m.clock.Now().Add(m.cfg.LeftTTL)
	m.clock.AfterFunc(m.cfg.LeftTTL, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if cur := m.sessions[identityID]; cur != nil {
			m.destroyIfIdle(identityID, cur)
		}
	})
	if st.conn != nil {
		m.sendState(st.conn, nil)
	}
	return nil
}

// Heartbeat records client liveness. It only feeds the recency
// classification used on disconnect; it never removes anyone.
func (m *Manager) Heartbeat(identityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.sessions[identityID]
	if st == nil {
		return
	}
	st.lastHeartbeat = m.clock.Now()
	m.rescheduleInactivity(st)
}

// CreateMatch creates a match hosted by the identity and pushes the lobby
// state back. Creating while in another match leaves that match first.
func (m *Manager) CreateMatch(identityID string, hintEnabled *bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.sessions[identityID]
	if st == nil {
		return ErrNotConnected
	}
	if cur := m.registry.FindByPlayer(identityID); cur != nil {
		m.applyRemoval(cur, st.identity)
	}

	cfg := game.DefaultConfig()
	if hintEnabled != nil {
		cfg.HintEnabled = *hintEnabled
	}
	match := m.registry.Create(st.identity, cfg)
	m.sendState(st.conn, match.StateFor(identityID))
	m.persistMatch(match)
	m.publish(events.TypeMatchCreated, match.ID, nil)
	return nil
}

// JoinMatch adds the identity to a match. Joining mid-round is allowed; the
// newcomer waits for the next round.
func (m *Manager) JoinMatch(identityID, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.sessions[identityID]
	if st == nil {
		return ErrNotConnected
	}
	match, err := m.registry.Get(matchID)
	if err != nil {
		return err
	}
	if cur := m.registry.FindByPlayer(identityID); cur != nil && cur.ID != matchID {
		m.applyRemoval(cur, st.identity)
	}

	joined := match.AddPlayer(st.identity)
	m.broadcast(match)
	if joined {
		m.toast(match, fmt.Sprintf("%s joined the match", st.identity.Name), identityID)
	}
	m.persistMatch(match)
	return nil
}

// StartMatch starts the first round (host only).
func (m *Manager) StartMatch(identityID, matchID string) error {
	return m.mutate(matchID, func(match *game.Match) error {
		if err := match.StartGame(identityID); err != nil {
			return err
		}
		m.publish(events.TypeRoundStarted, match.ID, map[string]int{"round": match.RoundCount()})
		return nil
	})
}

// CastVote records or clears the identity's vote. An empty target clears.
func (m *Manager) CastVote(identityID, matchID, targetID string) error {
	return m.mutate(matchID, func(match *game.Match) error {
		if err := match.CastVote(identityID, targetID); err != nil {
			return err
		}
		if match.Phase() == game.PhaseGameOver {
			m.publish(events.TypeGameOver, match.ID, map[string]string{"winner": match.WinnerID()})
		}
		return nil
	})
}

// EndMatch force-finishes the match (host only).
func (m *Manager) EndMatch(identityID, matchID string) error {
	return m.mutate(matchID, func(match *game.Match) error {
		if err := match.EndGame(identityID); err != nil {
			return err
		}
		m.publish(events.TypeGameOver, match.ID, map[string]string{"winner": match.WinnerID()})
		return nil
	})
}

// PlayAgain starts the next round, or a fresh series from game over (host
// only).
func (m *Manager) PlayAgain(identityID, matchID string) error {
	return m.mutate(matchID, func(match *game.Match) error {
		if err := match.PlayAgain(identityID); err != nil {
			return err
		}
		m.publish(events.TypeRoundStarted, match.ID, map[string]int{"round": match.RoundCount()})
		return nil
	})
}

// GetState pushes the identity's current projection, or a cleared state if
// they are in no match.
func (m *Manager) GetState(identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.sessions[identityID]
	if st == nil || st.conn == nil {
		return ErrNotConnected
	}
	if match := m.registry.FindByPlayer(identityID); match != nil {
		m.sendState(st.conn, match.StateFor(identityID))
	} else {
		m.sendState(st.conn, nil)
	}
	return nil
}

// mutate runs one action against a match and reacts to the new state:
// broadcast first, then queue the snapshot.
func (m *Manager) mutate(matchID string, fn func(*game.Match) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, err := m.registry.Get(matchID)
	if err != nil {
		return err
	}
	if err := fn(match); err != nil {
		return err
	}
	m.broadcast(match)
	m.persistMatch(match)
	return nil
}

// applyRemoval takes a player out of a match and notifies the remainder.
// Caller holds the lock.
func (m *Manager) applyRemoval(match *game.Match, identity game.Identity) {
	res := match.RemovePlayer(identity.ID)
	if !res.Removed {
		return
	}
	m.broadcast(match)
	m.toast(match, fmt.Sprintf("%s left the match", identity.Name))
	if res.NewHostID != "" {
		m.toast(match, fmt.Sprintf("%s is now the host", m.playerName(match, res.NewHostID)))
	}
	m.persistMatch(match)
	m.publish(events.TypePlayerLeft, match.ID, map[string]string{"player": identity.ID})
	log.Info().
		Str("user_id", identity.ID).
		Str("match_id", match.ID).
		Bool("round_ended", res.RoundEnded).
		Msg("player removed from match")
}

func (m *Manager) playerName(match *game.Match, id string) string {
	for _, p := range match.Players() {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

func (m *Manager) cancelRemoval(st *state) {
	if st.removal != nil {
		st.removal.Stop()
		st.removal = nil
	}
	st.removalGen++
	st.removalMatch = ""
}

// rescheduleInactivity arms the monitoring-only heartbeat marker.
func (m *Manager) rescheduleInactivity(st *state) {
	if st.inactivity != nil {
		st.inactivity.Stop()
	}
	id := st.identity.ID
	st.inactivity = m.clock.AfterFunc(m.cfg.HeartbeatTimeout, func() {
		log.Debug().Str("user_id", id).Msg("heartbeat silence")
	})
}

// destroyIfIdle drops the session record once nothing references it.
// Caller holds the lock.
func (m *Manager) destroyIfIdle(identityID string, st *state) {
	if st.conn != nil || st.pendingRemoval() || st.explicitlyLeft(m.clock.Now()) {
		return
	}
	if st.inactivity != nil {
		st.inactivity.Stop()
	}
	delete(m.sessions, identityID)
}

func (m *Manager) persistMatch(match *game.Match) {
	if m.persist == nil {
		return
	}
	m.persist.Enqueue(match.Snapshot())
}

func (m *Manager) publish(eventType, matchID string, data any) {
	m.events.Publish(events.Event{
		Type:    eventType,
		MatchID: matchID,
		At:      m.clock.Now(),
		Data:    data,
	})
}
