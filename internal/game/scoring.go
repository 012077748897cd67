package game

import (
	"log"

	"github.com/playpool/minipool/internal/physics"
)

// handleCollisionStart applies the pocketing rules to every pair in one step's
// batch. Pairs without a pocket are ignored. An object ball scores and leaves
// play; the cue ball is re-spotted with a foul penalty. A ball already gone
// from the registry is never scored twice, and the cue ball is penalised at
// most once per batch.
func (s *Session) handleCollisionStart(ev physics.CollisionEvent) {
	cueSpotted := false
	for _, pair := range ev.Pairs {
		ball, ok := s.pocketedBall(pair)
		if !ok {
			continue
		}
		if ball.IsCue() {
			if cueSpotted {
				continue
			}
			cueSpotted = true
			s.foul()
			continue
		}
		s.pocket(ball)
	}
}

// pocketedBall returns the in-play ball of a ball/pocket pair.
func (s *Session) pocketedBall(pair physics.Pair) (*Ball, bool) {
	var candidate *physics.Body
	switch {
	case pair.BodyA.Label == physics.LabelPocket && pair.BodyB.Label != physics.LabelPocket:
		candidate = pair.BodyB
	case pair.BodyB.Label == physics.LabelPocket && pair.BodyA.Label != physics.LabelPocket:
		candidate = pair.BodyA
	default:
		return nil, false
	}
	if candidate.Label != physics.LabelBall {
		return nil, false
	}
	return s.balls.Lookup(candidate)
}

// ScoreFor returns the value of a color; unknown colors are worth nothing.
func (s *Session) ScoreFor(color string) int {
	return s.scores[color]
}

func (s *Session) pocket(ball *Ball) {
	value := s.ScoreFor(ball.Color)
	id := ball.Body.ID
	if !s.balls.Remove(ball) {
		return
	}
	s.score += value

	log.Printf("[SESSION] %s pocketed %s ball %d (+%d) score=%d remaining=%d",
		s.ID, ball.Color, id, value, s.score, s.balls.Count())
	s.publish(UpdatePocket, func(u *Update) {
		u.Pocketed = &Pocketed{BallID: id, Color: ball.Color, Value: value}
	})
	s.publish(UpdateScore, nil)
	s.publish(UpdateRemaining, nil)
}

func (s *Session) foul() {
	s.balls.RespotCue()
	s.score -= s.rules.FoulPenalty
	if s.score < 0 {
		s.score = 0
	}

	log.Printf("[SESSION] %s foul: cue ball pocketed, score=%d", s.ID, s.score)
	s.publish(UpdateFoul, nil)
	s.publish(UpdateScore, nil)
}
