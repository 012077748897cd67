package game

import "github.com/playpool/minipool/internal/physics"

// UpdateType names an outbound display update.
type UpdateType string

const (
	UpdateScore     UpdateType = "score"
	UpdateRemaining UpdateType = "balls_remaining"
	UpdateGuideline UpdateType = "guideline"
	UpdatePower     UpdateType = "power"
	UpdateShot      UpdateType = "shot"
	UpdatePocket    UpdateType = "pocket"
	UpdateFoul      UpdateType = "foul"
	UpdateReset     UpdateType = "reset"
	UpdateFrame     UpdateType = "frame"
)

// Guideline is the aim line drawn from the cue ball.
type Guideline struct {
	From  physics.Vec2 `json:"from"`
	To    physics.Vec2 `json:"to"`
	Angle float64      `json:"angle"`
}

// Shot describes the impulse applied on release.
type Shot struct {
	Angle    float64      `json:"angle"`
	Power    float64      `json:"power"`
	Velocity physics.Vec2 `json:"velocity"`
}

// Pocketed describes an object ball that dropped.
type Pocketed struct {
	BallID int    `json:"ball_id"`
	Color  string `json:"color"`
	Value  int    `json:"value"`
}

// Update is one message for the display collaborator. Score and Remaining
// always carry the current totals.
type Update struct {
	Type      UpdateType  `json:"type"`
	SessionID string      `json:"session_id"`
	Step      uint64      `json:"step"`
	Score     int         `json:"score"`
	Remaining int         `json:"balls_remaining"`
	Power     float64     `json:"power"`
	Guideline *Guideline  `json:"guideline,omitempty"`
	Shot      *Shot       `json:"shot,omitempty"`
	Pocketed  *Pocketed   `json:"pocketed,omitempty"`
	Balls     []BallState `json:"balls,omitempty"`
}

// Sink receives updates synchronously on the session goroutine.
// Implementations must not block.
type Sink interface {
	Publish(u Update)
}

// Sinks fans an update out to every member.
type Sinks []Sink

func (s Sinks) Publish(u Update) {
	for _, sink := range s {
		if sink != nil {
			sink.Publish(u)
		}
	}
}

type discardSink struct{}

func (discardSink) Publish(Update) {}
