package game

import "github.com/playpool/minipool/internal/physics"

// stabilize runs after every physics step. Any ball whose velocity is below
// the threshold on both axes is stopped dead, so balls come to rest in finite
// time and the aim guard can release.
func (s *Session) stabilize() {
	threshold := s.rules.Stabilization.Threshold
	for _, b := range s.balls.all() {
		v := b.Body.Velocity
		if v.IsZero() || !v.BelowOnBothAxes(threshold) {
			continue
		}
		s.engine.SetVelocity(b.Body, physics.Vec2{})
	}
}
