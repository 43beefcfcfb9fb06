package game

import (
	"math/rand"

	"github.com/jonboulle/clockwork"
)

// Snapshot is the persisted form of a match, used for best-effort recovery
// after a process restart.
type Snapshot struct {
	ID              string            `json:"id"`
	HostID          string            `json:"hostId"`
	Phase           Phase             `json:"phase"`
	Config          Config            `json:"config"`
	Players         []Player          `json:"players"`
	Scores          map[string]int    `json:"scores"`
	RoundPlayers    []string          `json:"roundPlayers"`
	Eliminated      []string          `json:"eliminatedInRound"`
	CurrentTurn     int               `json:"currentTurn"`
	Votes           map[string]string `json:"votes"`
	TurnHistory     []TurnRecord      `json:"turnHistory"`
	SecretWord      string            `json:"secretWord"`
	SecretCategory  string            `json:"secretCategory"`
	ImpostorID      string            `json:"impostorId"`
	ImpostorHistory []string          `json:"impostorHistory"`
	StartingPlayer  string            `json:"startingPlayerId"`
	RoundCount      int               `json:"roundCount"`
	LastRoundScores map[string]int    `json:"lastRoundScores"`
	WinnerID        string            `json:"winnerId"`
}

// Snapshot captures the full match state.
func (m *Match) Snapshot() Snapshot {
	return Snapshot{
		ID:              m.ID,
		HostID:          m.HostID,
		Phase:           m.phase,
		Config:          m.config,
		Players:         m.Players(),
		Scores:          copyScores(m.scores),
		RoundPlayers:    setToList(m.roundPlayers, m.playerOrder),
		Eliminated:      setToList(m.eliminated, m.playerOrder),
		CurrentTurn:     m.currentTurn,
		Votes:           copyVotes(m.votes),
		TurnHistory:     append([]TurnRecord(nil), m.turnHistory...),
		SecretWord:      m.secretWord,
		SecretCategory:  m.secretCategory,
		ImpostorID:      m.impostorID,
		ImpostorHistory: append([]string(nil), m.impostorHistory...),
		StartingPlayer:  m.startingPlayer,
		RoundCount:      m.roundCount,
		LastRoundScores: copyScores(m.lastRoundScores),
		WinnerID:        m.winnerID,
	}
}

// FromSnapshot rebuilds a match from its persisted form.
func FromSnapshot(snap Snapshot, words WordSource, clock clockwork.Clock, rng *rand.Rand) *Match {
	m := &Match{
		ID:              snap.ID,
		HostID:          snap.HostID,
		phase:           snap.Phase,
		config:          snap.Config,
		scores:          copyScores(snap.Scores),
		roundPlayers:    listToSet(snap.RoundPlayers),
		eliminated:      listToSet(snap.Eliminated),
		currentTurn:     snap.CurrentTurn,
		votes:           copyVotes(snap.Votes),
		turnHistory:     append([]TurnRecord(nil), snap.TurnHistory...),
		secretWord:      snap.SecretWord,
		secretCategory:  snap.SecretCategory,
		impostorID:      snap.ImpostorID,
		impostorHistory: append([]string(nil), snap.ImpostorHistory...),
		startingPlayer:  snap.StartingPlayer,
		roundCount:      snap.RoundCount,
		lastRoundScores: copyScores(snap.LastRoundScores),
		winnerID:        snap.WinnerID,
		clock:           clock,
		rng:             rng,
		words:           words,
	}
	if m.scores == nil {
		m.scores = make(map[string]int)
	}
	if m.votes == nil {
		m.votes = make(map[string]string)
	}
	if m.lastRoundScores == nil {
		m.lastRoundScores = make(map[string]int)
	}
	for _, p := range snap.Players {
		cp := p
		m.players = append(m.players, &cp)
	}
	m.recomputePlayerOrder()
	return m
}

func setToList(set map[string]bool, order []string) []string {
	out := make([]string, 0, len(set))
	for _, id := range order {
		if set[id] {
			out = append(out, id)
		}
	}
	return out
}

func listToSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, id := range list {
		set[id] = true
	}
	return set
}
