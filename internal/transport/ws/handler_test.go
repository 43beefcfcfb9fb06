package ws

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/mquell/undercover/internal/auth"
	"github.com/mquell/undercover/internal/game"
	"github.com/mquell/undercover/internal/registry"
	"github.com/mquell/undercover/internal/session"
)

var testSecret = []byte("ws-test-secret")

type stubWords struct{}

func (stubWords) Draw(exclude string) (string, string) {
	return "penguin", "animals"
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	clock := clockwork.NewRealClock()
	reg := registry.New(stubWords{}, clock, rand.New(rand.NewSource(1)))
	manager := session.NewManager(reg, nil, nil, session.DefaultConfig(), clock)
	handler := NewHandler(manager, auth.NewVerifier(testSecret, clock), DefaultConfig())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, userID, name string) string {
	t.Helper()
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"name": name,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatal(err)
	}
	return env
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) envelope {
	t.Helper()
	for i := 0; i < 10; i++ {
		env := readEnvelope(t, conn)
		if env.Type == msgType {
			return env
		}
	}
	t.Fatalf("no %s message received", msgType)
	return envelope{}
}

func sendAction(t *testing.T, conn *websocket.Conn, in Inbound) {
	t.Helper()
	if err := conn.WriteJSON(in); err != nil {
		t.Fatal(err)
	}
}

func TestConnectionRejectedWithoutValidToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws?token=garbage")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestConnectPushesClearedState(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, signToken(t, "u1", "Ada"))

	env := readEnvelope(t, conn)
	if env.Type != session.MsgStateUpdate {
		t.Fatalf("first message type = %q, want state_update", env.Type)
	}
	if string(env.Data) != "" && string(env.Data) != "null" {
		t.Fatalf("data = %s, want empty", env.Data)
	}
}

func TestCreateMatchOverSocket(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, signToken(t, "u1", "Ada"))
	readEnvelope(t, conn) // initial cleared state

	sendAction(t, conn, Inbound{Type: ActionCreateMatch})

	env := readUntil(t, conn, session.MsgStateUpdate)
	var view game.View
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatal(err)
	}
	if view.Phase != game.PhaseLobby || view.HostID != "u1" || view.MatchID == "" {
		t.Fatalf("view = %+v", view)
	}
}

func TestJoinAndStartOverSocket(t *testing.T) {
	srv := newTestServer(t)
	hostConn := dial(t, srv, signToken(t, "u1", "Ada"))
	readEnvelope(t, hostConn)
	sendAction(t, hostConn, Inbound{Type: ActionCreateMatch})

	env := readUntil(t, hostConn, session.MsgStateUpdate)
	var lobby game.View
	if err := json.Unmarshal(env.Data, &lobby); err != nil {
		t.Fatal(err)
	}

	joinConn := dial(t, srv, signToken(t, "u2", "Bo"))
	readEnvelope(t, joinConn)
	sendAction(t, joinConn, Inbound{Type: ActionJoinMatch, MatchID: lobby.MatchID})
	env = readUntil(t, joinConn, session.MsgStateUpdate)
	var joined game.View
	if err := json.Unmarshal(env.Data, &joined); err != nil {
		t.Fatal(err)
	}
	if len(joined.Players) != 2 {
		t.Fatalf("players = %v", joined.Players)
	}

	sendAction(t, hostConn, Inbound{Type: ActionStartMatch, MatchID: lobby.MatchID})
	for {
		env = readUntil(t, joinConn, session.MsgStateUpdate)
		var playing game.View
		if err := json.Unmarshal(env.Data, &playing); err != nil {
			t.Fatal(err)
		}
		if playing.Phase == game.PhaseLobby {
			continue
		}
		if playing.Phase != game.PhasePlaying {
			t.Fatalf("phase = %v, want playing", playing.Phase)
		}
		if playing.Word == "" {
			t.Fatal("player got no word")
		}
		break
	}
}

func TestActionErrorsComeBackToSender(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, signToken(t, "u1", "Ada"))
	readEnvelope(t, conn)

	sendAction(t, conn, Inbound{Type: ActionJoinMatch, MatchID: "NOPE42"})
	env := readUntil(t, conn, session.MsgActionError)
	var payload session.TextPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Message != "match not found" {
		t.Fatalf("message = %q", payload.Message)
	}
}

func TestUnknownActionRejected(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, signToken(t, "u1", "Ada"))
	readEnvelope(t, conn)

	sendAction(t, conn, Inbound{Type: "dance"})
	env := readUntil(t, conn, session.MsgActionError)
	if env.Type != session.MsgActionError {
		t.Fatalf("type = %q", env.Type)
	}
}

func TestMalformedMessageRejected(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, signToken(t, "u1", "Ada"))
	readEnvelope(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{nope")); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, session.MsgActionError)
}
