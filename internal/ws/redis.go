package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/playpool/minipool/internal/game"
	"github.com/redis/go-redis/v9"
)

const (
	EventsChannel   = "table_events"
	CommandsChannel = "table_commands"
)

// RedisPublisher mirrors every session update onto the table_events channel.
// Publish only queues; Start does the network writes.
type RedisPublisher struct {
	rdb   *redis.Client
	queue chan []byte
}

func NewRedisPublisher(rdb *redis.Client, buffer int) *RedisPublisher {
	if buffer <= 0 {
		buffer = 1024
	}
	return &RedisPublisher{rdb: rdb, queue: make(chan []byte, buffer)}
}

// Publish implements game.Sink. Frame and power updates stay local.
func (p *RedisPublisher) Publish(u game.Update) {
	if u.Type == game.UpdateFrame || u.Type == game.UpdatePower {
		return
	}
	b, err := json.Marshal(u)
	if err != nil {
		log.Printf("[REDIS] marshal update failed: %v", err)
		return
	}
	select {
	case p.queue <- b:
	default:
		log.Printf("[REDIS] publish queue full; dropping %s for %s", u.Type, u.SessionID)
	}
}

// Start writes queued updates until ctx is cancelled.
func (p *RedisPublisher) Start(ctx context.Context) {
	log.Printf("[REDIS] publisher started on %s", EventsChannel)
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-p.queue:
			if err := p.rdb.Publish(ctx, EventsChannel, b).Err(); err != nil {
				log.Printf("[REDIS] publish failed: %v", err)
			}
		}
	}
}

// Command is an external instruction received on table_commands.
type Command struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// SessionLookup finds a live session runner.
type SessionLookup interface {
	Get(id string) (*game.Runner, error)
}

// StartCommandSubscriber applies table_commands messages until ctx is cancelled.
func StartCommandSubscriber(ctx context.Context, rdb *redis.Client, sessions SessionLookup) {
	if rdb == nil {
		log.Println("[REDIS] client not set; command subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, CommandsChannel)
	defer pubsub.Close()
	ch := pubsub.Channel()

	log.Printf("[REDIS] %s subscriber started", CommandsChannel)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := handleCommand(ctx, sessions, []byte(msg.Payload)); err != nil {
				log.Printf("[REDIS] command rejected: %v (payload=%s)", err, msg.Payload)
			}
		}
	}
}

func handleCommand(ctx context.Context, sessions SessionLookup, payload []byte) error {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("invalid command payload: %w", err)
	}

	switch cmd.Type {
	case "reset":
		runner, err := sessions.Get(cmd.SessionID)
		if err != nil {
			return fmt.Errorf("session %q: %w", cmd.SessionID, err)
		}
		cctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		if _, err := runner.Reset(cctx); err != nil {
			return fmt.Errorf("reset %s: %w", cmd.SessionID, err)
		}
		log.Printf("[REDIS] session %s reset by external command", cmd.SessionID)
		return nil
	default:
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
}
