package session

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mquell/undercover/internal/game"
)

// Config tunes the connection lifecycle.
type Config struct {
	// LongGrace is the removal delay for players whose heartbeat was
	// recent when the socket dropped (typically a phone screen lock).
	LongGrace time.Duration
	// ShortGrace is the removal delay for players that were already quiet.
	ShortGrace time.Duration
	// ActivityThreshold splits the two: heartbeat younger than this means
	// the player is likely still around.
	ActivityThreshold time.Duration
	// LeftTTL is how long an explicit leave suppresses auto-rejoin.
	LeftTTL time.Duration
	// HeartbeatTimeout schedules the inactivity marker. The marker only
	// feeds the recency classification above, it removes nobody.
	HeartbeatTimeout time.Duration
}

// DefaultConfig returns the default session tuning.
func DefaultConfig() Config {
	return Config{
		LongGrace:         90 * time.Second,
		ShortGrace:        10 * time.Second,
		ActivityThreshold: 45 * time.Second,
		LeftTTL:           10 * time.Second,
		HeartbeatTimeout:  30 * time.Second,
	}
}

// state is the lifecycle record for one identity. It exists while the
// identity has a connection, a pending removal, or a fresh left marker.
type state struct {
	identity      game.Identity
	conn          Conn
	lastHeartbeat time.Time

	removal      clockwork.Timer
	removalGen   int
	removalMatch string

	leftUntil time.Time

	inactivity clockwork.Timer
}

func (s *state) pendingRemoval() bool {
	return s.removal != nil
}

func (s *state) explicitlyLeft(now time.Time) bool {
	return now.Before(s.leftUntil)
}
