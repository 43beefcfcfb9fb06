// Package events publishes match lifecycle events for anything listening on
// the bus (analytics, moderation tooling). Publishing is fire-and-forget.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Event types emitted by the session layer.
const (
	TypeMatchCreated = "created"
	TypeRoundStarted = "round_started"
	TypeGameOver     = "game_over"
	TypePlayerLeft   = "player_left"
)

// Event is one match lifecycle notification.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	MatchID string    `json:"matchId"`
	At      time.Time `json:"at"`
	Data    any       `json:"data,omitempty"`
}

// Publisher emits lifecycle events. Implementations must never block
// gameplay on delivery.
type Publisher interface {
	Publish(event Event)
}

// NATS publishes events to subjects of the form <prefix>.match.<type>.
type NATS struct {
	nc     *nats.Conn
	prefix string
}

// ConnectNATS dials the NATS server.
func ConnectNATS(url, prefix string) (*NATS, error) {
	nc, err := nats.Connect(url, nats.Name("undercover-server"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NATS{nc: nc, prefix: prefix}, nil
}

// Publish sends the event. Errors are logged and swallowed.
func (n *NATS) Publish(event Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event_type", event.Type).Msg("failed to marshal event")
		return
	}
	subject := fmt.Sprintf("%s.match.%s", n.prefix, event.Type)
	if err := n.nc.Publish(subject, data); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

// Close drains the connection.
func (n *NATS) Close() {
	n.nc.Close()
}

// Noop is the publisher used when no bus is configured.
type Noop struct{}

// Publish discards the event.
func (Noop) Publish(Event) {}
