package game

import "github.com/playpool/minipool/internal/physics"

// Engine is the physics collaborator the rule layer drives. physics.World
// satisfies it.
type Engine interface {
	NewCircle(x, y, radius float64, opts physics.BodyOptions) *physics.Body
	NewRectangle(x, y, width, height float64, opts physics.BodyOptions) *physics.Body
	Add(bodies ...*physics.Body)
	Remove(bodies ...*physics.Body)
	SetPosition(b *physics.Body, p physics.Vec2)
	SetVelocity(b *physics.Body, v physics.Vec2)
	OnCollisionStart(fn func(physics.CollisionEvent))
	OnAfterUpdate(fn func())
	Step()
	StepCount() uint64
}

var _ Engine = (*physics.World)(nil)
