package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mquell/undercover/internal/game"
)

var errConnClosed = errors.New("connection closed")

// Client is one live WebSocket connection bound to a verified identity.
type Client struct {
	id       string
	identity game.Identity
	conn     *websocket.Conn
	handler  *Handler

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(identity game.Identity, conn *websocket.Conn, handler *Handler) *Client {
	return &Client{
		id:       uuid.New().String(),
		identity: identity,
		conn:     conn,
		handler:  handler,
		send:     make(chan []byte, 256),
	}
}

// SendJSON marshals the message and queues it for the write pump. A slow
// consumer gets an error instead of blocking the game loop.
func (c *Client) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// Close shuts the send channel; the write pump tears down the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.handler.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.handler.cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.handler.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes inbound actions and feeds them to the dispatcher. When
// the read side dies the session layer decides whether the player is gone.
func (c *Client) readPump() {
	defer func() {
		c.handler.manager.Disconnect(c.identity.ID, c)
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.handler.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.handler.cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.handler.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("unexpected close")
			}
			return
		}
		c.handler.dispatch(c, message)
		c.conn.SetReadDeadline(time.Now().Add(c.handler.cfg.ReadTimeout))
	}
}
