// Package ws carries the live channel: one authenticated WebSocket per
// player, actions in, filtered state updates out.
package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mquell/undercover/internal/game"
	"github.com/mquell/undercover/internal/session"
)

// Authenticator verifies identity tokens before the upgrade.
type Authenticator interface {
	Verify(token string) (game.Identity, error)
}

// Config holds the WebSocket connection tuning.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns the default WebSocket tuning.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Handler upgrades connections and routes inbound actions into the session
// manager.
type Handler struct {
	manager  *session.Manager
	auth     Authenticator
	upgrader websocket.Upgrader
	cfg      Config
}

// NewHandler creates the WebSocket handler.
func NewHandler(manager *session.Manager, auth Authenticator, cfg Config) *Handler {
	return &Handler{
		manager: manager,
		auth:    auth,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleConnection)
}

// HandleConnection verifies the token, upgrades the connection and starts
// the pumps. Auth failures refuse the connection before any state is
// touched.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	identity, err := h.auth.Verify(token)
	if err != nil {
		http.Error(w, "authentication rejected", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := newClient(identity, conn, h)
	go client.writePump()
	h.manager.Connect(identity, client)
	go client.readPump()

	log.Info().
		Str("connection_id", client.id).
		Str("user_id", identity.ID).
		Msg("websocket connection established")
}

// dispatch routes one inbound message. Validation problems come back to the
// acting connection as action errors and never touch match state.
func (h *Handler) dispatch(c *Client, message []byte) {
	var in Inbound
	if err := json.Unmarshal(message, &in); err != nil {
		h.sendError(c, "malformed message")
		return
	}

	var err error
	switch in.Type {
	case ActionCreateMatch:
		var p CreateMatchPayload
		if len(in.Payload) > 0 {
			if err := json.Unmarshal(in.Payload, &p); err != nil {
				h.sendError(c, "malformed payload")
				return
			}
		}
		err = h.manager.CreateMatch(c.identity.ID, p.HintEnabled)
	case ActionJoinMatch:
		err = h.manager.JoinMatch(c.identity.ID, in.MatchID)
	case ActionStartMatch:
		err = h.manager.StartMatch(c.identity.ID, in.MatchID)
	case ActionCastVote:
		var p CastVotePayload
		if len(in.Payload) > 0 {
			if err := json.Unmarshal(in.Payload, &p); err != nil {
				h.sendError(c, "malformed payload")
				return
			}
		}
		target := ""
		if p.TargetID != nil {
			target = *p.TargetID
		}
		err = h.manager.CastVote(c.identity.ID, in.MatchID, target)
	case ActionEndMatch:
		err = h.manager.EndMatch(c.identity.ID, in.MatchID)
	case ActionPlayAgain:
		err = h.manager.PlayAgain(c.identity.ID, in.MatchID)
	case ActionLeaveMatch:
		err = h.manager.Leave(c.identity.ID, in.MatchID)
	case ActionHeartbeat:
		h.manager.Heartbeat(c.identity.ID)
	case ActionGetState:
		err = h.manager.GetState(c.identity.ID)
	default:
		h.sendError(c, fmt.Sprintf("unknown action %q", in.Type))
		return
	}

	if err != nil {
		h.sendError(c, err.Error())
	}
}

func (h *Handler) sendError(c *Client, message string) {
	if err := c.SendJSON(session.Outbound{Type: session.MsgActionError, Data: session.TextPayload{Message: message}}); err != nil {
		log.Debug().Err(err).Str("connection_id", c.id).Msg("failed to send action error")
	}
}
