package models

import (
	"database/sql"
	"time"
)

// Journal event kinds.
const (
	EventShot   = "shot"
	EventPocket = "pocket"
	EventFoul   = "foul"
	EventReset  = "reset"
)

// TableEvent is one row of the table_events journal.
type TableEvent struct {
	ID        int64           `db:"id" json:"id"`
	SessionID string          `db:"session_id" json:"session_id"`
	Step      int64           `db:"step" json:"step"`
	Kind      string          `db:"kind" json:"kind"`
	Color     sql.NullString  `db:"color" json:"-"`
	Value     sql.NullInt64   `db:"value" json:"-"`
	Angle     sql.NullFloat64 `db:"angle" json:"-"`
	Power     sql.NullFloat64 `db:"power" json:"-"`
	Score     int             `db:"score" json:"score"`
	Remaining int             `db:"balls_remaining" json:"balls_remaining"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// TableEventView flattens the nullable columns for JSON and CSV output.
type TableEventView struct {
	ID        int64     `json:"id" csv:"id"`
	SessionID string    `json:"session_id" csv:"session_id"`
	Step      int64     `json:"step" csv:"step"`
	Kind      string    `json:"kind" csv:"kind"`
	Color     string    `json:"color,omitempty" csv:"color"`
	Value     int64     `json:"value,omitempty" csv:"value"`
	Angle     float64   `json:"angle,omitempty" csv:"angle"`
	Power     float64   `json:"power,omitempty" csv:"power"`
	Score     int       `json:"score" csv:"score"`
	Remaining int       `json:"balls_remaining" csv:"balls_remaining"`
	CreatedAt time.Time `json:"created_at" csv:"created_at"`
}

// View returns the flattened form of the event.
func (e TableEvent) View() TableEventView {
	return TableEventView{
		ID:        e.ID,
		SessionID: e.SessionID,
		Step:      e.Step,
		Kind:      e.Kind,
		Color:     e.Color.String,
		Value:     e.Value.Int64,
		Angle:     e.Angle.Float64,
		Power:     e.Power.Float64,
		Score:     e.Score,
		Remaining: e.Remaining,
		CreatedAt: e.CreatedAt,
	}
}
