package game

import "strings"

// View is the slice of match state a single viewer is allowed to see.
type View struct {
	MatchID string   `json:"matchId"`
	HostID  string   `json:"hostId"`
	You     string   `json:"you"`
	Phase   Phase    `json:"phase"`
	Players []Player `json:"players"`
	Config  Config   `json:"config"`

	Scores      map[string]int `json:"scores"`
	Round       int            `json:"round"`
	Turn        int            `json:"turn"`
	MaxTurns    int            `json:"maxTurns"`
	PlayerOrder []string       `json:"playerOrder"`

	StartingPlayerID string   `json:"startingPlayerId,omitempty"`
	Word             string   `json:"word,omitempty"`
	Category         string   `json:"category,omitempty"`
	ActivePlayers    []string `json:"activePlayers,omitempty"`
	Eliminated       []string `json:"eliminated,omitempty"`
	YourVote         string   `json:"yourVote,omitempty"`
	HasVoted         bool     `json:"hasVoted"`

	ImpostorID      string         `json:"impostorId,omitempty"`
	TurnHistory     []TurnRecord   `json:"turnHistory,omitempty"`
	LastRoundScores map[string]int `json:"lastRoundScores,omitempty"`
	WinnerID        string         `json:"winnerId,omitempty"`
}

// StateFor projects the match for one viewer. It returns nil for anyone who
// is not a current player. During play the impostor gets a masked word (plus
// the category when hints are on) while friends see the real word; once the
// round is over everything is revealed to everyone.
func (m *Match) StateFor(viewerID string) *View {
	if m.findPlayer(viewerID) == nil {
		return nil
	}

	v := &View{
		MatchID:     m.ID,
		HostID:      m.HostID,
		You:         viewerID,
		Phase:       m.phase,
		Players:     m.Players(),
		Config:      m.config,
		Scores:      copyScores(m.scores),
		Round:       m.roundCount,
		Turn:        m.currentTurn,
		MaxTurns:    MaxTurns,
		PlayerOrder: append([]string(nil), m.playerOrder...),
	}

	switch m.phase {
	case PhasePlaying:
		if !m.roundPlayers[viewerID] {
			v.Phase = PhaseWaiting
			return v
		}
		v.StartingPlayerID = m.startingPlayer
		v.ActivePlayers = m.activePlayers()
		v.Eliminated = m.eliminatedList()
		v.YourVote = m.votes[viewerID]
		_, v.HasVoted = m.votes[viewerID]
		if viewerID == m.impostorID {
			v.Word = maskWord(m.secretWord)
			if m.config.HintEnabled {
				v.Category = m.secretCategory
			}
		} else {
			v.Word = m.secretWord
			v.Category = m.secretCategory
		}

	case PhaseRoundResult, PhaseGameOver:
		v.ImpostorID = m.impostorID
		v.Word = m.secretWord
		v.Category = m.secretCategory
		v.Eliminated = m.eliminatedList()
		v.TurnHistory = append([]TurnRecord(nil), m.turnHistory...)
		v.LastRoundScores = copyScores(m.lastRoundScores)
		if m.phase == PhaseGameOver {
			v.WinnerID = m.winnerID
		}
	}
	return v
}

func (m *Match) eliminatedList() []string {
	out := make([]string, 0, len(m.eliminated))
	for _, id := range m.playerOrder {
		if m.eliminated[id] {
			out = append(out, id)
		}
	}
	return out
}

func copyScores(scores map[string]int) map[string]int {
	out := make(map[string]int, len(scores))
	for id, n := range scores {
		out[id] = n
	}
	return out
}

// maskWord replaces every rune of the secret word with a placeholder so the
// impostor still learns the word length.
func maskWord(word string) string {
	return strings.Repeat("?", len([]rune(word)))
}
