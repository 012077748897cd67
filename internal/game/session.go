package game

import (
	"fmt"
	"log"

	"github.com/playpool/minipool/internal/config"
	"github.com/playpool/minipool/internal/physics"
)

// Session owns the score, the ball registry and the aim state of one table.
// It is not safe for concurrent use: a Runner (or a test) is its only caller,
// and engine callbacks arrive on that same goroutine.
type Session struct {
	ID string

	rules  config.Rules
	engine Engine
	table  *Table
	balls  *Registry
	aim    *Aim
	sink   Sink
	scores map[string]int

	score int
}

// Snapshot is a copy of session state safe to hand to other goroutines.
type Snapshot struct {
	ID        string      `json:"id"`
	Step      uint64      `json:"step"`
	Score     int         `json:"score"`
	Remaining int         `json:"balls_remaining"`
	Aim       AimState    `json:"aim"`
	Cue       BallState   `json:"cue"`
	Balls     []BallState `json:"balls"`
}

// NewSession builds the table, racks the balls and subscribes to the
// engine's collisionStart and afterUpdate events.
func NewSession(id string, engine Engine, rules config.Rules, sink Sink) (*Session, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = discardSink{}
	}

	tr := rules.Table
	table, err := NewTable(engine, tr.Width, tr.Height, tr.WallThickness, tr.PocketRadius)
	if err != nil {
		return nil, err
	}
	table.Register(engine)

	s := &Session{
		ID:     id,
		rules:  rules,
		engine: engine,
		table:  table,
		aim:    NewAim(rules.Aim),
		sink:   sink,
		scores: rules.ScoreTable(),
	}
	s.balls = NewRegistry(engine, table, rules)

	cueStart := physics.NewVec2(rules.Rack.CueStart.X, rules.Rack.CueStart.Y)
	if !table.InsidePlayfield(cueStart, rules.Ball.Radius) {
		return nil, fmt.Errorf("%w: cue start outside the playfield", ErrInvalidGeometry)
	}
	if _, err := s.balls.SpawnCueBall(cueStart); err != nil {
		return nil, fmt.Errorf("spawning cue ball: %w", err)
	}

	base := physics.NewVec2(rules.Rack.Base.X, rules.Rack.Base.Y)
	for _, p := range RackPositions(len(rules.Palette), base, rules.Ball.Radius, rules.Rack.Spacing, rules.Rack.Layout) {
		if !table.InsidePlayfield(p, rules.Ball.Radius) {
			return nil, fmt.Errorf("%w: rack extends outside the playfield", ErrInvalidGeometry)
		}
	}
	if _, err := s.balls.SpawnObjectBalls(rules.Colors(), base, rules.Rack.Spacing); err != nil {
		return nil, fmt.Errorf("spawning object balls: %w", err)
	}

	engine.OnCollisionStart(s.handleCollisionStart)
	engine.OnAfterUpdate(s.stabilize)

	log.Printf("[SESSION] %s created: %d object balls, cue at (%.0f,%.0f)",
		id, s.balls.Count(), cueStart.X, cueStart.Y)
	return s, nil
}

func (s *Session) Score() int { return s.score }
func (s *Session) Remaining() int { return s.balls.Count() }
func (s *Session) Aim() AimState { return s.aim.State() }
func (s *Session) Table() *Table { return s.table }
func (s *Session) Registry() *Registry { return s.balls }
func (s *Session) Rules() config.Rules { return s.rules }
func (s *Session) Cue() *Ball { return s.balls.Cue() }
func (s *Session) Step() uint64 { return s.engine.StepCount() }

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:        s.ID,
		Step:      s.engine.StepCount(),
		Score:     s.score,
		Remaining: s.balls.Count(),
		Aim:       s.aim.State(),
		Cue:       s.balls.Cue().State(),
		Balls:     objectStates(s.balls.Balls()),
	}
}

func objectStates(balls []*Ball) []BallState {
	out := make([]BallState, len(balls))
	for i, b := range balls {
		out[i] = b.State()
	}
	return out
}

// Reset zeroes the score, re-racks the table and cancels any aim in progress.
func (s *Session) Reset() error {
	s.aim.Cancel()
	s.score = 0
	if err := s.balls.ResetAll(); err != nil {
		return fmt.Errorf("resetting rack: %w", err)
	}
	log.Printf("[SESSION] %s reset", s.ID)
	s.publish(UpdateReset, func(u *Update) { u.Balls = s.balls.States() })
	return nil
}

// Frame publishes the positions of every ball in play.
func (s *Session) Frame() {
	s.publish(UpdateFrame, func(u *Update) { u.Balls = s.balls.States() })
}

func (s *Session) publish(t UpdateType, fill func(u *Update)) {
	u := Update{
		Type:      t,
		SessionID: s.ID,
		Step:      s.engine.StepCount(),
		Score:     s.score,
		Remaining: s.balls.Count(),
		Power:     s.aim.Percent(),
	}
	if fill != nil {
		fill(&u)
	}
	s.sink.Publish(u)
}
