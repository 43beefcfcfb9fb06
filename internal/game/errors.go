package game

import "errors"

// Validation errors. All of them leave match state untouched and are meant
// to be relayed back to the acting connection, never to kill the process.
var (
	ErrNotHost          = errors.New("only the host can perform this action")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrWrongPhase       = errors.New("action not allowed in the current phase")
	ErrVoterEliminated  = errors.New("eliminated players cannot vote")
	ErrVoterNotInRound  = errors.New("voter is not part of the current round")
	ErrSelfVote         = errors.New("cannot vote for yourself")
	ErrTargetEliminated = errors.New("vote target is already eliminated")
	ErrTargetNotInRound = errors.New("vote target is not part of the current round")
)
