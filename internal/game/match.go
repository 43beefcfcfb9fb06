package game

import (
	"math/rand"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
)

// Identity is a verified user handed to us by the auth layer.
type Identity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarRef string `json:"avatarRef"`
}

// Player is one member of a match roster.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AvatarRef string    `json:"avatarRef"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// WordSource supplies the secret word for a round.
type WordSource interface {
	// Draw returns a word and its category, avoiding the excluded word
	// when possible.
	Draw(exclude string) (word, category string)
}

// RemovalResult describes the side effects of removing a player.
type RemovalResult struct {
	Removed    bool
	NewHostID  string // set when the host left and the role moved on
	RoundEnded bool   // set when the impostor left mid-round
}

// Match is the state machine for one game. It is not safe for concurrent
// use; the session layer serializes every mutation.
type Match struct {
	ID     string
	HostID string

	phase   Phase
	config  Config
	players []*Player

	// scores outlives roster membership: entries are never pruned when a
	// player leaves.
	scores map[string]int

	roundPlayers    map[string]bool
	eliminated      map[string]bool
	currentTurn     int
	votes           map[string]string
	turnHistory     []TurnRecord
	secretWord      string
	secretCategory  string
	impostorID      string
	impostorHistory []string
	playerOrder     []string
	startingPlayer  string
	roundCount      int
	lastRoundScores map[string]int
	winnerID        string

	clock clockwork.Clock
	rng   *rand.Rand
	words WordSource
}

// TurnRecord is one entry of the append-only per-round vote log.
type TurnRecord struct {
	Turn       int               `json:"turn"`
	Votes      map[string]string `json:"votes"`
	Tally      map[string]int    `json:"tally"`
	Eliminated string            `json:"eliminated,omitempty"`
	WasTie     bool              `json:"wasTie"`
}

// NewMatch creates a match in the lobby phase with the given host.
func NewMatch(id string, host Identity, cfg Config, words WordSource, clock clockwork.Clock, rng *rand.Rand) *Match {
	m := &Match{
		ID:              id,
		phase:           PhaseLobby,
		config:          cfg,
		scores:          make(map[string]int),
		roundPlayers:    make(map[string]bool),
		eliminated:      make(map[string]bool),
		votes:           make(map[string]string),
		lastRoundScores: make(map[string]int),
		clock:           clock,
		rng:             rng,
		words:           words,
	}
	m.AddPlayer(host)
	m.HostID = host.ID
	return m
}

// Phase returns the current phase.
func (m *Match) Phase() Phase {
	return m.phase
}

// Config returns the match configuration.
func (m *Match) Config() Config {
	return m.config
}

// RoundCount returns how many rounds have been started in this series.
func (m *Match) RoundCount() int {
	return m.roundCount
}

// ImpostorID returns the identity holding the impostor role this round.
func (m *Match) ImpostorID() string {
	return m.impostorID
}

// WinnerID returns the declared winner, empty while the game is ongoing.
func (m *Match) WinnerID() string {
	return m.winnerID
}

// Score returns the cumulative score for an identity.
func (m *Match) Score(id string) int {
	return m.scores[id]
}

// Players returns the roster in arrival order.
func (m *Match) Players() []Player {
	out := make([]Player, len(m.players))
	for i, p := range m.players {
		out[i] = *p
	}
	return out
}

// HasPlayer reports whether the identity is a current roster member.
func (m *Match) HasPlayer(id string) bool {
	return m.findPlayer(id) != nil
}

func (m *Match) findPlayer(id string) *Player {
	for _, p := range m.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AddPlayer appends a player to the roster. It is idempotent by id and
// reports whether the roster changed. A join during an active round does
// not touch roundPlayers; the newcomer waits for the next round.
func (m *Match) AddPlayer(user Identity) bool {
	if m.findPlayer(user.ID) != nil {
		return false
	}
	m.players = append(m.players, &Player{
		ID:        user.ID,
		Name:      user.Name,
		AvatarRef: user.AvatarRef,
		JoinedAt:  m.clock.Now(),
	})
	if _, ok := m.scores[user.ID]; !ok {
		m.scores[user.ID] = 0
	}
	m.recomputePlayerOrder()
	return true
}

// RemovePlayer drops a player from the roster and every round-scoped
// structure, keeping the historical score entry. The host role moves to the
// first remaining player if needed. An impostor leaving mid-round forfeits
// the round; otherwise the departure may complete the pending vote.
func (m *Match) RemovePlayer(id string) RemovalResult {
	var res RemovalResult
	p := m.findPlayer(id)
	if p == nil {
		return res
	}
	res.Removed = true

	for i, cur := range m.players {
		if cur.ID == id {
			m.players = append(m.players[:i], m.players[i+1:]...)
			break
		}
	}
	delete(m.roundPlayers, id)
	delete(m.eliminated, id)
	delete(m.votes, id)
	for voter, target := range m.votes {
		if target == id {
			delete(m.votes, voter)
		}
	}
	m.recomputePlayerOrder()

	if m.HostID == id && len(m.players) > 0 {
		m.HostID = m.players[0].ID
		res.NewHostID = m.HostID
	}

	if m.phase == PhasePlaying {
		if m.impostorID == id {
			// The impostor vanished. The round simply ends: nobody is
			// awarded end-of-round points.
			m.endRoundForfeit()
			res.RoundEnded = true
		} else if m.allActiveVoted() {
			m.resolveVotes()
		}
	}
	return res
}

// StartGame starts the first round of a series. Only the host may call it
// and at least two players must be present. The first start freezes the
// round limit.
func (m *Match) StartGame(callerID string) error {
	if callerID != m.HostID {
		return ErrNotHost
	}
	if len(m.players) < 2 {
		return ErrNotEnoughPlayers
	}
	if m.roundCount == 0 {
		m.config.MaxRounds = defaultMaxRounds
	}
	m.startRound()
	return nil
}

// EndGame force-finishes the match. Host only.
func (m *Match) EndGame(callerID string) error {
	if callerID != m.HostID {
		return ErrNotHost
	}
	m.phase = PhaseGameOver
	return nil
}

// PlayAgain starts a new round. Host only. Called from game over it resets
// the series (scores and round counter); from any other phase it keeps the
// running totals.
func (m *Match) PlayAgain(callerID string) error {
	if callerID != m.HostID {
		return ErrNotHost
	}
	if len(m.players) < 2 {
		return ErrNotEnoughPlayers
	}
	if m.phase == PhaseGameOver {
		for id := range m.scores {
			m.scores[id] = 0
		}
		m.roundCount = 0
		m.winnerID = ""
	}
	m.startRound()
	return nil
}

// recomputePlayerOrder rebuilds the base order: current players sorted by
// join time. Used only to derive each round's starting player.
func (m *Match) recomputePlayerOrder() {
	ordered := make([]*Player, len(m.players))
	copy(ordered, m.players)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].JoinedAt.Before(ordered[j].JoinedAt)
	})
	m.playerOrder = make([]string, len(ordered))
	for i, p := range ordered {
		m.playerOrder[i] = p.ID
	}
}
