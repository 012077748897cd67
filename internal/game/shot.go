package game

import (
	"log"

	"github.com/playpool/minipool/internal/physics"
)

// PointerDown starts aiming. It is ignored while the cue ball is still moving
// on either axis, or when an aim is already in progress. Returns whether
// aiming started.
func (s *Session) PointerDown(p physics.Vec2) bool {
	if s.aim.Aiming() || !s.CueAtRest() {
		return false
	}

	s.aim.Start()
	s.aim.SetAngle(s.balls.Cue().Body.Position.AngleTo(p))
	s.aim.Tick()
	s.publish(UpdatePower, nil)
	return true
}

// PointerMove updates the aim angle and publishes the guideline.
func (s *Session) PointerMove(p physics.Vec2) {
	if !s.aim.Aiming() {
		return
	}
	from := s.balls.Cue().Body.Position
	angle := from.AngleTo(p)
	s.aim.SetAngle(angle)

	g := &Guideline{
		From:  from,
		To:    from.Plus(physics.FromAngle(angle, s.rules.Aim.GuidelineLength)),
		Angle: angle,
	}
	s.publish(UpdateGuideline, func(u *Update) { u.Guideline = g })
}

// PointerUp fires the shot: the cue velocity is replaced by
// (cos, sin)(angle) * power * ForceScale, then the meter empties. A release
// without an active aim does nothing. Returns whether a shot was taken.
func (s *Session) PointerUp(p physics.Vec2) bool {
	if !s.aim.Aiming() {
		return false
	}
	cue := s.balls.Cue()
	angle := cue.Body.Position.AngleTo(p)
	s.aim.SetAngle(angle)

	power := s.aim.Release()
	force := power * s.rules.Aim.ForceScale
	v := physics.FromAngle(angle, force)
	s.engine.SetVelocity(cue.Body, v)

	log.Printf("[SESSION] %s shot: angle=%.3f power=%.0f velocity=(%.3f,%.3f)",
		s.ID, angle, power, v.X, v.Y)
	s.publish(UpdateShot, func(u *Update) {
		u.Shot = &Shot{Angle: angle, Power: power, Velocity: v}
	})
	return true
}

// TickPower advances the power meter once. The runner calls it every frame;
// it is a no-op unless aiming, so releasing stops the meter with no extra tick.
func (s *Session) TickPower() {
	if s.aim.Tick() {
		s.publish(UpdatePower, nil)
	}
}

// CueAtRest reports whether the cue ball is slow enough to aim.
func (s *Session) CueAtRest() bool {
	return s.balls.Cue().Body.Velocity.BelowOnBothAxes(s.rules.Aim.RestThreshold)
}

