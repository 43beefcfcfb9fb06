package session

// Outbound message types pushed over a live connection.
const (
	MsgStateUpdate     = "state_update"
	MsgActionError     = "action_error"
	MsgToast           = "toast"
	MsgSessionReplaced = "session_replaced"
)

// Outbound is the envelope for every server-to-client message.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// TextPayload carries a human-readable message (toasts, errors,
// session-replaced notices).
type TextPayload struct {
	Message string `json:"message"`
}

// Conn is one live client connection as the session layer sees it.
type Conn interface {
	SendJSON(v any) error
	Close() error
}
