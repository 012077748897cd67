package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playpool/minipool/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client is one websocket connection attached to a table session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	runner    *game.Runner
	sessionID string
	send      chan []byte
	joined    chan struct{}
}

// Hub fans session updates out to the connections watching each session.
// It implements game.Sink.
type Hub struct {
	rooms      map[string]map[*Client]bool // sessionID -> clients
	register   chan *Client
	unregister chan *Client
	upgrader   websocket.Upgrader
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub. checkOrigin may be nil to accept every origin.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Run owns room membership until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, room := range h.rooms {
				for c := range room {
					close(c.send)
				}
				delete(h.rooms, id)
			}
			h.mu.Unlock()
			log.Println("[WS] Hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[c.sessionID]; !ok {
				h.rooms[c.sessionID] = make(map[*Client]bool)
			}
			h.rooms[c.sessionID][c] = true
			size := len(h.rooms[c.sessionID])
			h.mu.Unlock()
			close(c.joined)
			log.Printf("[WS] Client joined session %s (room_size=%d)", c.sessionID, size)

		case c := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[c.sessionID]; ok && room[c] {
				delete(room, c)
				if len(room) == 0 {
					delete(h.rooms, c.sessionID)
				}
				close(c.send)
				log.Printf("[WS] Client left session %s", c.sessionID)
			}
			h.mu.Unlock()
		}
	}
}

// Publish sends an update to every client of its session. It never blocks:
// a client with a full buffer misses the message.
func (h *Hub) Publish(u game.Update) {
	h.BroadcastToSession(u.SessionID, u)
}

// BroadcastToSession sends a message to all clients watching a session
func (h *Hub) BroadcastToSession(sessionID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[sessionID] {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] Send buffer full for a client of session %s, dropping message", sessionID)
		}
	}
}

// RoomSize is the number of clients watching a session.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for session %s: %v", c.sessionID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for session %s: %v", c.sessionID, err)
				return
			}
		}
	}
}

// sendJSON queues a message for this client only.
func (c *Client) sendJSON(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.rooms[c.sessionID][c] {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] Dropped direct message for session %s (buffer full)", c.sessionID)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
