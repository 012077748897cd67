package physics

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Label classifies a body for the rule layer.
type Label string

const (
	LabelBall   Label = "ball"
	LabelPocket Label = "pocket"
	LabelWall   Label = "wall"
)

// Shape is the collision geometry of a body.
type Shape int

const (
	ShapeCircle Shape = iota
	ShapeRectangle
)

// DefaultDensity is used when BodyOptions.Density is left at zero.
const DefaultDensity = 0.001

// BodyOptions configures a body at creation time.
type BodyOptions struct {
	Label       Label
	Static      bool
	Sensor      bool
	Restitution float64
	Friction    float64
	FrictionAir float64 // fraction of velocity lost per step
	Density     float64
	Tag         string // opaque identity tag (ball color)
}

// Body is a rigid body owned by a World. Position and Velocity mirror the
// chipmunk body after every step; callers read them freely but mutate them
// through World.SetPosition / World.SetVelocity.
type Body struct {
	ID          int     `json:"id"`
	Label       Label   `json:"label"`
	Shape       Shape   `json:"shape"`
	Position    Vec2    `json:"position"`
	Velocity    Vec2    `json:"velocity"`
	Radius      float64 `json:"radius,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
	Static      bool    `json:"static"`
	Sensor      bool    `json:"sensor"`
	Restitution float64 `json:"-"`
	Friction    float64 `json:"-"`
	FrictionAir float64 `json:"-"`
	Density     float64 `json:"-"`
	Tag         string  `json:"tag,omitempty"`

	rigid    *cp.Body
	collider *cp.Shape
}

func newBody(id int, shape Shape, pos Vec2, opts BodyOptions) *Body {
	density := opts.Density
	if density <= 0 {
		density = DefaultDensity
	}
	return &Body{
		ID:          id,
		Label:       opts.Label,
		Shape:       shape,
		Position:    pos,
		Static:      opts.Static,
		Sensor:      opts.Sensor,
		Restitution: opts.Restitution,
		Friction:    opts.Friction,
		FrictionAir: opts.FrictionAir,
		Density:     density,
		Tag:         opts.Tag,
	}
}

// attach builds the chipmunk body and shape. Dynamic bodies take their mass
// from density * area.
func (b *Body) attach(ctype cp.CollisionType) {
	if b.Static {
		b.rigid = cp.NewStaticBody()
	} else {
		var mass, moment float64
		switch b.Shape {
		case ShapeCircle:
			mass = b.Density * math.Pi * b.Radius * b.Radius
			moment = cp.MomentForCircle(mass, 0, b.Radius, cp.Vector{})
		case ShapeRectangle:
			mass = b.Density * b.Width * b.Height
			moment = cp.MomentForBox(mass, b.Width, b.Height)
		}
		b.rigid = cp.NewBody(mass, moment)
		if b.FrictionAir > 0 {
			keep := 1 - b.FrictionAir
			b.rigid.SetVelocityUpdateFunc(func(body *cp.Body, gravity cp.Vector, damping, dt float64) {
				cp.BodyUpdateVelocity(body, gravity, damping*keep, dt)
			})
		}
	}
	b.rigid.SetPosition(toVector(b.Position))
	b.rigid.UserData = b

	switch b.Shape {
	case ShapeCircle:
		b.collider = cp.NewCircle(b.rigid, b.Radius, cp.Vector{})
	case ShapeRectangle:
		b.collider = cp.NewBox(b.rigid, b.Width, b.Height, 0)
	}
	b.collider.SetElasticity(b.Restitution)
	b.collider.SetFriction(b.Friction)
	b.collider.SetSensor(b.Sensor)
	b.collider.SetCollisionType(ctype)
	b.collider.UserData = b
}

// sync copies the simulated state back onto the exported fields.
func (b *Body) sync() {
	b.Position = fromVector(b.rigid.Position())
	b.Velocity = fromVector(b.rigid.Velocity())
}

// Speed returns the velocity magnitude.
func (b *Body) Speed() float64 {
	return b.Velocity.Magnitude()
}

// Pair is two bodies whose shapes started touching during a step.
type Pair struct {
	BodyA *Body
	BodyB *Body
}

// CollisionEvent carries every pair that began contact in one step.
type CollisionEvent struct {
	Step  uint64
	Pairs []Pair
}
