// Package physics adapts a chipmunk space to the stepped, event-emitting world
// the rule layer drives. Velocities are expressed in units per step.
package physics

import (
	"sort"

	"github.com/jakecoffman/cp"
)

// stepDt advances the space by one unit of time per Step, so a velocity of
// (5, 0) moves a body five units each step.
const stepDt = 1.0

// World owns bodies and advances them one step at a time. It is not safe for
// concurrent use; a single goroutine drives Step and every mutation.
type World struct {
	space  *cp.Space
	bodies []*Body
	byID   map[int]*Body
	nextID int
	step   uint64

	types   map[Label]cp.CollisionType
	started []Pair

	collisionStart []func(CollisionEvent)
	afterUpdate    []func()
}

// NewWorld creates an empty world with no gravity.
func NewWorld() *World {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})
	return &World{
		space:  space,
		byID:   make(map[int]*Body),
		nextID: 1,
		types:  make(map[Label]cp.CollisionType),
	}
}

// collisionType returns the chipmunk collision type for a label, registering
// begin handlers against every label seen so far the first time it appears.
func (w *World) collisionType(label Label) cp.CollisionType {
	if t, ok := w.types[label]; ok {
		return t
	}
	t := cp.CollisionType(len(w.types) + 1)
	w.types[label] = t
	for _, other := range w.types {
		h := w.space.NewCollisionHandler(t, other)
		h.BeginFunc = w.begin
	}
	return t
}

// begin runs inside cp.Space.Step for every arbiter on its first touching
// step. Pairs are queued and dispatched once the step has finished.
func (w *World) begin(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
	sa, sb := arb.Shapes()
	a, okA := sa.UserData.(*Body)
	b, okB := sb.UserData.(*Body)
	if okA && okB {
		w.started = append(w.started, Pair{BodyA: a, BodyB: b})
	}
	return true
}

func (w *World) newBody(shape Shape, pos Vec2, opts BodyOptions) *Body {
	b := newBody(w.nextID, shape, pos, opts)
	w.nextID++
	return b
}

// NewCircle creates a circular body. The body is not part of the world until Add.
func (w *World) NewCircle(x, y, radius float64, opts BodyOptions) *Body {
	b := w.newBody(ShapeCircle, NewVec2(x, y), opts)
	b.Radius = radius
	b.attach(w.collisionType(b.Label))
	return b
}

// NewRectangle creates an axis-aligned rectangle centered at (x, y).
func (w *World) NewRectangle(x, y, width, height float64, opts BodyOptions) *Body {
	b := w.newBody(ShapeRectangle, NewVec2(x, y), opts)
	b.Width = width
	b.Height = height
	b.attach(w.collisionType(b.Label))
	return b
}

// Add registers bodies with the world. Bodies already present are skipped.
func (w *World) Add(bodies ...*Body) {
	for _, b := range bodies {
		if b == nil || b.rigid == nil {
			continue
		}
		if _, exists := w.byID[b.ID]; exists {
			continue
		}
		w.space.AddBody(b.rigid)
		w.space.AddShape(b.collider)
		w.byID[b.ID] = b
		w.bodies = append(w.bodies, b)
	}
}

// Remove deregisters bodies. Removing an absent body is a no-op.
func (w *World) Remove(bodies ...*Body) {
	for _, b := range bodies {
		if b == nil {
			continue
		}
		if _, exists := w.byID[b.ID]; !exists {
			continue
		}
		w.space.RemoveShape(b.collider)
		w.space.RemoveBody(b.rigid)
		delete(w.byID, b.ID)
		for i, cur := range w.bodies {
			if cur == b {
				w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
				break
			}
		}
	}
}

// Contains reports whether the body is currently registered.
func (w *World) Contains(b *Body) bool {
	if b == nil {
		return false
	}
	_, ok := w.byID[b.ID]
	return ok
}

// Bodies returns a copy of the registered bodies in insertion order.
func (w *World) Bodies() []*Body {
	out := make([]*Body, len(w.bodies))
	copy(out, w.bodies)
	return out
}

// SetPosition moves a body without affecting its velocity.
func (w *World) SetPosition(b *Body, p Vec2) {
	b.Position = p
	b.rigid.SetPosition(toVector(p))
	if b.Static && w.Contains(b) {
		w.space.ReindexShapesForBody(b.rigid)
	}
}

// SetVelocity replaces the body velocity and clears any spin.
func (w *World) SetVelocity(b *Body, v Vec2) {
	if b.Static {
		return
	}
	b.Velocity = v
	b.rigid.SetVelocity(v.X, v.Y)
	b.rigid.SetAngularVelocity(0)
}

// OnCollisionStart subscribes to pairs that begin touching.
func (w *World) OnCollisionStart(fn func(CollisionEvent)) {
	w.collisionStart = append(w.collisionStart, fn)
}

// OnAfterUpdate subscribes to step completion.
func (w *World) OnAfterUpdate(fn func()) {
	w.afterUpdate = append(w.afterUpdate, fn)
}

// StepCount returns the number of completed steps.
func (w *World) StepCount() uint64 {
	return w.step
}

// Step advances the space once, then fires collisionStart for pairs that
// began touching during the step, ordered by body id, followed by
// afterUpdate. Handlers run synchronously after the space has unlocked, so
// they may add or remove bodies.
func (w *World) Step() {
	w.step++
	w.started = w.started[:0]

	w.space.Step(stepDt)

	for _, b := range w.bodies {
		if !b.Static {
			b.sync()
		}
	}

	if len(w.started) > 0 {
		pairs := make([]Pair, len(w.started))
		for i, p := range w.started {
			if p.BodyA.ID > p.BodyB.ID {
				p.BodyA, p.BodyB = p.BodyB, p.BodyA
			}
			pairs[i] = p
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			if pairs[i].BodyA.ID != pairs[j].BodyA.ID {
				return pairs[i].BodyA.ID < pairs[j].BodyA.ID
			}
			return pairs[i].BodyB.ID < pairs[j].BodyB.ID
		})
		ev := CollisionEvent{Step: w.step, Pairs: pairs}
		for _, fn := range w.collisionStart {
			fn(ev)
		}
	}

	for _, fn := range w.afterUpdate {
		fn()
	}
}

func toVector(v Vec2) cp.Vector {
	return cp.Vector{X: v.X, Y: v.Y}
}

func fromVector(v cp.Vector) Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}
