package session

import (
	"github.com/rs/zerolog/log"

	"github.com/mquell/undercover/internal/game"
)

// broadcast pushes each player of the match their own filtered projection
// through their live connection, if any. Caller holds the lock.
func (m *Manager) broadcast(match *game.Match) {
	for _, p := range match.Players() {
		st := m.sessions[p.ID]
		if st == nil || st.conn == nil {
			continue
		}
		m.sendState(st.conn, match.StateFor(p.ID))
	}
}

// toast sends an informational message to every connected player of the
// match except the excluded ids. Caller holds the lock.
func (m *Manager) toast(match *game.Match, message string, exclude ...string) {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	for _, p := range match.Players() {
		if skip[p.ID] {
			continue
		}
		st := m.sessions[p.ID]
		if st == nil || st.conn == nil {
			continue
		}
		if err := st.conn.SendJSON(Outbound{Type: MsgToast, Data: TextPayload{Message: message}}); err != nil {
			log.Warn().Err(err).Str("user_id", p.ID).Msg("failed to send toast")
		}
	}
}

// sendState pushes a projection; a nil view means "no active match".
func (m *Manager) sendState(conn Conn, view *game.View) {
	if conn == nil {
		return
	}
	var data any
	if view != nil {
		data = view
	}
	if err := conn.SendJSON(Outbound{Type: MsgStateUpdate, Data: data}); err != nil {
		log.Warn().Err(err).Msg("failed to push state update")
	}
}
