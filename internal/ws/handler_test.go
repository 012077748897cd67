package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playpool/minipool/internal/config"
	"github.com/playpool/minipool/internal/game"
)

func testConfig() *config.Config {
	return &config.Config{
		SessionExpiryMinutes: 30,
		MaxSessions:          10,
		TickRate:             60,
		Rules:                config.DefaultRules(),
	}
}

// setupSession starts a hub, a manager publishing to it and one session, and
// serves that session over an httptest server.
func setupSession(t *testing.T) (*Hub, *game.Manager, *game.Runner, *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)

	m := game.NewManager(testConfig(), hub)
	t.Cleanup(m.Shutdown)
	runner, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Serve(runner, w, r); err != nil {
			t.Errorf("Serve: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return hub, m, runner, conn
}

// readUntil reads messages until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", msgType, err)
		}
		var msg map[string]interface{}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad message %s: %v", data, err)
		}
		if msg["type"] == msgType {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	msg := map[string]interface{}{"type": msgType}
	if data != nil {
		msg["data"] = data
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}

func TestServeSendsInitialState(t *testing.T) {
	hub, _, runner, conn := setupSession(t)

	msg := readUntil(t, conn, "state")
	if msg["session_id"] != runner.ID() {
		t.Errorf("session_id = %v, want %s", msg["session_id"], runner.ID())
	}
	state := msg["state"].(map[string]interface{})
	if state["balls_remaining"].(float64) != 3 {
		t.Errorf("balls_remaining = %v", state["balls_remaining"])
	}
	if hub.RoomSize(runner.ID()) != 1 {
		t.Errorf("room size = %d", hub.RoomSize(runner.ID()))
	}
}

func TestPointerMessagesDriveTheSession(t *testing.T) {
	_, _, runner, conn := setupSession(t)
	readUntil(t, conn, "state")

	send(t, conn, "pointer_down", PointerData{X: 250, Y: 200})
	readUntil(t, conn, "power")

	send(t, conn, "pointer_move", PointerData{X: 250, Y: 250})
	gl := readUntil(t, conn, "guideline")
	if gl["guideline"] == nil {
		t.Error("guideline update without a guideline")
	}

	send(t, conn, "pointer_up", PointerData{X: 300, Y: 200})
	shot := readUntil(t, conn, "shot")
	detail := shot["shot"].(map[string]interface{})
	if detail["power"].(float64) <= 0 {
		t.Errorf("shot power = %v", detail["power"])
	}

	snap, err := runner.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Aim.Aiming {
		t.Error("still aiming after pointer_up")
	}
}

func TestResetAndGetState(t *testing.T) {
	_, _, _, conn := setupSession(t)
	readUntil(t, conn, "state")

	send(t, conn, "reset", nil)
	reset := readUntil(t, conn, "reset")
	if reset["score"].(float64) != 0 || reset["balls_remaining"].(float64) != 3 {
		t.Errorf("reset update = %v", reset)
	}

	send(t, conn, "get_state", nil)
	readUntil(t, conn, "state")
}

func TestBadMessagesGetErrors(t *testing.T) {
	_, _, _, conn := setupSession(t)
	readUntil(t, conn, "state")

	send(t, conn, "juggle", nil)
	if msg := readUntil(t, conn, "error"); msg["message"] != "Unknown message type" {
		t.Errorf("message = %v", msg["message"])
	}

	send(t, conn, "pointer_down", "not-a-point")
	if msg := readUntil(t, conn, "error"); msg["message"] != "Invalid pointer data" {
		t.Errorf("message = %v", msg["message"])
	}
}

func TestHubPublishIgnoresOtherSessions(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := &Client{hub: hub, sessionID: "a", send: make(chan []byte, 4), joined: make(chan struct{})}
	hub.register <- c
	<-c.joined

	hub.Publish(game.Update{Type: game.UpdateScore, SessionID: "b"})
	hub.Publish(game.Update{Type: game.UpdateScore, SessionID: "a", Score: 3})

	select {
	case data := <-c.send:
		var u game.Update
		json.Unmarshal(data, &u)
		if u.SessionID != "a" || u.Score != 3 {
			t.Errorf("got %+v", u)
		}
	default:
		t.Fatal("no update delivered")
	}
	if len(c.send) != 0 {
		t.Error("update for another session was delivered")
	}
}

func TestHandleCommandReset(t *testing.T) {
	m := game.NewManager(testConfig(), nil)
	defer m.Shutdown()
	runner, _ := m.Create()

	payload, _ := json.Marshal(Command{Type: "reset", SessionID: runner.ID()})
	if err := handleCommand(context.Background(), m, payload); err != nil {
		t.Fatalf("handleCommand: %v", err)
	}

	missing, _ := json.Marshal(Command{Type: "reset", SessionID: "table_gone"})
	if err := handleCommand(context.Background(), m, missing); !errors.Is(err, game.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
	if err := handleCommand(context.Background(), m, []byte(`{"type":"explode"}`)); err == nil {
		t.Error("unknown command accepted")
	}
	if err := handleCommand(context.Background(), m, []byte(`{`)); err == nil {
		t.Error("malformed payload accepted")
	}
}

func TestRedisPublisherSkipsFrames(t *testing.T) {
	p := NewRedisPublisher(nil, 2)
	p.Publish(game.Update{Type: game.UpdateFrame})
	p.Publish(game.Update{Type: game.UpdatePower})
	p.Publish(game.Update{Type: game.UpdatePocket})
	p.Publish(game.Update{Type: game.UpdateFoul})
	p.Publish(game.Update{Type: game.UpdateScore})

	if len(p.queue) != 2 {
		t.Fatalf("queued %d updates, want 2", len(p.queue))
	}
}
