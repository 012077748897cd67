package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playpool/minipool/internal/game"
	"github.com/playpool/minipool/internal/physics"
)

const commandTimeout = 2 * time.Second

// PointerData is the payload of pointer_down, pointer_move and pointer_up.
type PointerData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StateMessage answers get_state and greets a new connection.
type StateMessage struct {
	Type      string        `json:"type"`
	SessionID string        `json:"session_id"`
	State     game.Snapshot `json:"state"`
}

// Serve upgrades the request and attaches the connection to runner's session.
// The caller has already authorized the request.
func (h *Hub) Serve(runner *game.Runner, w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		runner:    runner,
		sessionID: runner.ID(),
		send:      make(chan []byte, sendBuffer),
		joined:    make(chan struct{}),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return errors.New("websocket hub stopped")
	}
	<-client.joined

	go client.writePump()
	go client.readPump()

	client.sendState()
	return nil
}

// readPump reads pointer input and commands until the connection drops.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close for session %s: %v", c.sessionID, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}

		if err := c.handleMessage(msg); err != nil {
			if errors.Is(err, game.ErrRunnerStopped) {
				c.sendError("Session ended")
				return
			}
			c.sendError(err.Error())
		}
	}
}

var errUnknownMessage = errors.New("Unknown message type")

// handleMessage forwards one client message to the session runner.
func (c *Client) handleMessage(msg WSMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch msg.Type {
	case "pointer_down", "pointer_move", "pointer_up":
		var data PointerData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return errors.New("Invalid pointer data")
		}
		p := physics.NewVec2(data.X, data.Y)
		switch msg.Type {
		case "pointer_down":
			_, err := c.runner.PointerDown(ctx, p)
			return err
		case "pointer_move":
			return c.runner.PointerMove(ctx, p)
		default:
			_, err := c.runner.PointerUp(ctx, p)
			return err
		}

	case "reset":
		_, err := c.runner.Reset(ctx)
		return err

	case "get_state":
		c.sendState()
		return nil

	default:
		return errUnknownMessage
	}
}

func (c *Client) sendState() {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	snap, err := c.runner.Snapshot(ctx)
	if err != nil {
		c.sendError("Session unavailable")
		return
	}
	c.sendJSON(StateMessage{Type: "state", SessionID: c.sessionID, State: snap})
}
