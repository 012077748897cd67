package game

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/playpool/minipool/internal/config"
	"github.com/playpool/minipool/internal/physics"
)

// BallKind distinguishes the cue ball from object balls.
type BallKind int

const (
	BallObject BallKind = iota
	BallCue
)

// CueFill is the display fill of the cue ball.
const CueFill = "#ffffff"

// Ball is a registry entry wrapping a physics body.
type Ball struct {
	Body  *physics.Body
	Kind  BallKind
	Color string // empty for the cue ball
	Fill  string
}

// IsCue reports whether this is the cue ball.
func (b *Ball) IsCue() bool {
	return b.Kind == BallCue
}

// BallState is a read-only view of a ball for snapshots and frames.
type BallState struct {
	ID    int     `json:"id"`
	Color string  `json:"color,omitempty"`
	Fill  string  `json:"fill,omitempty"`
	Cue   bool    `json:"cue"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
}

func (b *Ball) State() BallState {
	return BallState{
		ID:    b.Body.ID,
		Color: b.Color,
		Fill:  b.Fill,
		Cue:   b.IsCue(),
		X:     b.Body.Position.X,
		Y:     b.Body.Position.Y,
		VX:    b.Body.Velocity.X,
		VY:    b.Body.Velocity.Y,
	}
}

var (
	ErrCueBallExists = errors.New("cue ball already spawned")
	ErrNoCueBall     = errors.New("cue ball not spawned")
	ErrOverlap       = errors.New("ball placement overlaps")
)

// Registry tracks which balls are in play. The engine owns body state; the
// registry owns membership and keeps it in step with the world.
type Registry struct {
	engine Engine
	table  *Table
	rules  config.Rules

	cue    *Ball
	balls  []*Ball
	byBody map[int]*Ball
}

// NewRegistry creates an empty registry for the given table.
func NewRegistry(engine Engine, table *Table, rules config.Rules) *Registry {
	return &Registry{
		engine: engine,
		table:  table,
		rules:  rules,
		byBody: make(map[int]*Ball),
	}
}

func (r *Registry) ballOptions(tag string) physics.BodyOptions {
	return physics.BodyOptions{
		Label:       physics.LabelBall,
		Restitution: r.rules.Ball.Restitution,
		Friction:    r.rules.Ball.Friction,
		FrictionAir: r.rules.Ball.FrictionAir,
		Density:     r.rules.Ball.Density,
		Tag:         tag,
	}
}

// SpawnCueBall creates the session's single cue ball.
func (r *Registry) SpawnCueBall(pos physics.Vec2) (*Ball, error) {
	if r.cue != nil {
		return nil, ErrCueBallExists
	}
	radius := r.rules.Ball.Radius
	if r.table.OverlapsPocket(pos, radius) {
		return nil, fmt.Errorf("%w: cue ball at (%.1f,%.1f) touches a pocket", ErrOverlap, pos.X, pos.Y)
	}

	body := r.engine.NewCircle(pos.X, pos.Y, radius, r.ballOptions("cue"))
	r.engine.Add(body)
	r.cue = &Ball{Body: body, Kind: BallCue, Fill: CueFill}
	r.byBody[body.ID] = r.cue
	return r.cue, nil
}

// SpawnObjectBalls lays out one ball per color starting at base. Positions are
// validated before any body is created, so a failed spawn leaves no trace.
func (r *Registry) SpawnObjectBalls(colors []string, base physics.Vec2, spacing float64) ([]*Ball, error) {
	if spacing <= 0 {
		return nil, fmt.Errorf("%w: spacing must be positive", ErrOverlap)
	}
	radius := r.rules.Ball.Radius
	positions := RackPositions(len(colors), base, radius, spacing, r.rules.Rack.Layout)

	for i, p := range positions {
		if r.table.OverlapsPocket(p, radius) {
			return nil, fmt.Errorf("%w: ball %d at (%.1f,%.1f) touches a pocket", ErrOverlap, i, p.X, p.Y)
		}
		if r.cue != nil && r.cue.Body.Position.DistanceTo(p) < 2*radius {
			return nil, fmt.Errorf("%w: ball %d touches the cue ball", ErrOverlap, i)
		}
		for _, other := range r.balls {
			if other.Body.Position.DistanceTo(p) < 2*radius {
				return nil, fmt.Errorf("%w: ball %d touches an existing ball", ErrOverlap, i)
			}
		}
	}

	spawned := make([]*Ball, 0, len(colors))
	bodies := make([]*physics.Body, 0, len(colors))
	for i, color := range colors {
		p := positions[i]
		body := r.engine.NewCircle(p.X, p.Y, radius, r.ballOptions(color))
		b := &Ball{Body: body, Kind: BallObject, Color: color, Fill: r.rules.FillFor(color)}
		spawned = append(spawned, b)
		bodies = append(bodies, body)
	}
	r.engine.Add(bodies...)
	for _, b := range spawned {
		r.balls = append(r.balls, b)
		r.byBody[b.Body.ID] = b
	}
	return spawned, nil
}

// RackPositions returns n centers for the chosen layout. Neighbouring balls
// are 2*radius+spacing apart, so none overlap.
func RackPositions(n int, base physics.Vec2, radius, spacing float64, layout string) []physics.Vec2 {
	step := 2*radius + spacing
	out := make([]physics.Vec2, 0, n)

	if layout != config.LayoutTriangle {
		for i := 0; i < n; i++ {
			out = append(out, physics.NewVec2(base.X+float64(i)*step, base.Y))
		}
		return out
	}

	rowStep := step * math.Sqrt(3) / 2
	for row := 0; len(out) < n; row++ {
		for j := 0; j <= row && len(out) < n; j++ {
			x := base.X + float64(row)*rowStep
			y := base.Y + (float64(j)-float64(row)/2)*step
			out = append(out, physics.NewVec2(x, y))
		}
	}
	return out
}

// Remove takes an object ball out of the world and the active list. Removing
// a ball that is not in play, or the cue ball, is a no-op. Returns whether
// anything changed.
func (r *Registry) Remove(b *Ball) bool {
	if b == nil || b.IsCue() {
		return false
	}
	if _, ok := r.byBody[b.Body.ID]; !ok {
		return false
	}
	r.engine.Remove(b.Body)
	delete(r.byBody, b.Body.ID)
	for i, cur := range r.balls {
		if cur == b {
			r.balls = append(r.balls[:i], r.balls[i+1:]...)
			break
		}
	}
	return true
}

// RespotCue moves the cue ball to its canonical start and stops it.
func (r *Registry) RespotCue() {
	if r.cue == nil {
		return
	}
	start := r.rules.Rack.CueStart
	r.engine.SetPosition(r.cue.Body, physics.NewVec2(start.X, start.Y))
	r.engine.SetVelocity(r.cue.Body, physics.Vec2{})
}

// ResetAll removes every object ball, respawns the full palette at the
// canonical rack and re-spots the cue ball. The cue ball body is reused.
func (r *Registry) ResetAll() error {
	if r.cue == nil {
		return ErrNoCueBall
	}
	r.RespotCue()

	for _, b := range r.balls {
		r.engine.Remove(b.Body)
		delete(r.byBody, b.Body.ID)
	}
	r.balls = nil

	base := physics.NewVec2(r.rules.Rack.Base.X, r.rules.Rack.Base.Y)
	if _, err := r.SpawnObjectBalls(r.rules.Colors(), base, r.rules.Rack.Spacing); err != nil {
		return err
	}
	log.Printf("[TABLE] Rack reset: %d object balls", len(r.balls))
	return nil
}

// Cue returns the cue ball, nil before SpawnCueBall.
func (r *Registry) Cue() *Ball {
	return r.cue
}

// Balls returns a copy of the object balls in play.
func (r *Registry) Balls() []*Ball {
	out := make([]*Ball, len(r.balls))
	copy(out, r.balls)
	return out
}

// Count is the number of object balls in play.
func (r *Registry) Count() int {
	return len(r.balls)
}

// Lookup finds the in-play ball (cue included) for a body.
func (r *Registry) Lookup(body *physics.Body) (*Ball, bool) {
	if body == nil {
		return nil, false
	}
	b, ok := r.byBody[body.ID]
	return b, ok
}

// Contains reports whether b is currently in play.
func (r *Registry) Contains(b *Ball) bool {
	if b == nil {
		return false
	}
	cur, ok := r.byBody[b.Body.ID]
	return ok && cur == b
}

// all returns the cue ball followed by the object balls.
func (r *Registry) all() []*Ball {
	out := make([]*Ball, 0, len(r.balls)+1)
	if r.cue != nil {
		out = append(out, r.cue)
	}
	return append(out, r.balls...)
}

// States returns snapshots of every ball in play, cue first.
func (r *Registry) States() []BallState {
	all := r.all()
	out := make([]BallState, len(all))
	for i, b := range all {
		out[i] = b.State()
	}
	return out
}
