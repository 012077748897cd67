package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playpool/minipool/internal/game"
	"github.com/playpool/minipool/internal/models"
)

// EventStore journals shots, pockets, fouls and resets to table_events. It is
// a game.Sink: Publish only queues, a single worker does the inserts.
type EventStore struct {
	db      *sqlx.DB
	queue   chan models.TableEvent
	timeout time.Duration // per-insert deadline
}

const defaultInsertTimeout = 5 * time.Second

// NewEventStore creates a store with room for buffer pending rows.
func NewEventStore(db *sqlx.DB, buffer int) *EventStore {
	if buffer <= 0 {
		buffer = 256
	}
	return &EventStore{db: db, queue: make(chan models.TableEvent, buffer), timeout: defaultInsertTimeout}
}

// Publish queues journal-worthy updates. A full queue drops the row rather
// than stalling the session loop.
func (s *EventStore) Publish(u game.Update) {
	ev, ok := eventFromUpdate(u)
	if !ok {
		return
	}
	select {
	case s.queue <- ev:
	default:
		log.Printf("[DB] Journal queue full; dropping %s event for %s", ev.Kind, ev.SessionID)
	}
}

func eventFromUpdate(u game.Update) (models.TableEvent, bool) {
	ev := models.TableEvent{
		SessionID: u.SessionID,
		Step:      int64(u.Step),
		Score:     u.Score,
		Remaining: u.Remaining,
		CreatedAt: time.Now().UTC(),
	}
	switch u.Type {
	case game.UpdateShot:
		if u.Shot == nil {
			return ev, false
		}
		ev.Kind = models.EventShot
		ev.Angle = sql.NullFloat64{Float64: u.Shot.Angle, Valid: true}
		ev.Power = sql.NullFloat64{Float64: u.Shot.Power, Valid: true}
	case game.UpdatePocket:
		if u.Pocketed == nil {
			return ev, false
		}
		ev.Kind = models.EventPocket
		ev.Color = sql.NullString{String: u.Pocketed.Color, Valid: true}
		ev.Value = sql.NullInt64{Int64: int64(u.Pocketed.Value), Valid: true}
	case game.UpdateFoul:
		ev.Kind = models.EventFoul
	case game.UpdateReset:
		ev.Kind = models.EventReset
	default:
		return ev, false
	}
	return ev, true
}

// Start drains the queue until ctx is cancelled, then flushes what is left.
func (s *EventStore) Start(ctx context.Context) {
	log.Println("[DB] Journal worker started")
	for {
		select {
		case <-ctx.Done():
			s.flush()
			log.Println("[DB] Journal worker stopping")
			return
		case ev := <-s.queue:
			s.write(ev)
		}
	}
}

// write inserts one queued row under the store's deadline so a hung database
// cannot stall the worker.
func (s *EventStore) write(ev models.TableEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := s.Insert(ctx, ev)
	if err != nil {
		log.Printf("[DB] Failed to journal %s event for %s: %v", ev.Kind, ev.SessionID, err)
	}
	return err
}

func (s *EventStore) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	for {
		select {
		case ev := <-s.queue:
			if err := s.Insert(ctx, ev); err != nil {
				log.Printf("[DB] Failed to journal %s event for %s: %v", ev.Kind, ev.SessionID, err)
			}
		default:
			return
		}
	}
}

// Insert writes one row.
func (s *EventStore) Insert(ctx context.Context, ev models.TableEvent) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO table_events
		(session_id, step, kind, color, value, angle, power, score, balls_remaining, created_at)
		VALUES (:session_id, :step, :kind, :color, :value, :angle, :power, :score, :balls_remaining, :created_at)`, ev)
	if err != nil {
		return fmt.Errorf("insert table event: %w", err)
	}
	return nil
}

// List returns a session's journal in step order.
func (s *EventStore) List(ctx context.Context, sessionID string) ([]models.TableEvent, error) {
	var events []models.TableEvent
	err := s.db.SelectContext(ctx, &events, `SELECT id, session_id, step, kind, color, value, angle, power, score, balls_remaining, created_at
		FROM table_events WHERE session_id=$1 ORDER BY step, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list table events: %w", err)
	}
	return events, nil
}
