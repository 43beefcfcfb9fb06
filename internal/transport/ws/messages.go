package ws

import "encoding/json"

// Inbound action types. The acting identity is implied by the
// authenticated connection, never by the payload.
const (
	ActionCreateMatch = "create_match"
	ActionJoinMatch   = "join_match"
	ActionStartMatch  = "start_match"
	ActionCastVote    = "cast_vote"
	ActionEndMatch    = "end_match"
	ActionPlayAgain   = "play_again"
	ActionLeaveMatch  = "leave_match"
	ActionHeartbeat   = "heartbeat"
	ActionGetState    = "get_state"
)

// Inbound is the envelope for every client-to-server message.
type Inbound struct {
	Type    string          `json:"type"`
	MatchID string          `json:"matchId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateMatchPayload carries the match options.
type CreateMatchPayload struct {
	HintEnabled *bool `json:"hintEnabled,omitempty"`
}

// CastVotePayload carries the vote target. A null target clears the
// caller's vote.
type CastVotePayload struct {
	TargetID *string `json:"targetId"`
}
