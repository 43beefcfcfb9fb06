package game

// Phase represents the current phase of a match.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhasePlaying     Phase = "playing"
	PhaseRoundResult Phase = "round_result"
	PhaseGameOver    Phase = "game_over"

	// PhaseWaiting is never stored on a match. It is what a player who
	// joined mid-round sees instead of PhasePlaying until the next round
	// starts.
	PhaseWaiting Phase = "waiting_next_round"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}
