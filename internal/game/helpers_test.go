package game

import (
	"sync"
	"testing"

	"github.com/playpool/minipool/internal/config"
	"github.com/playpool/minipool/internal/physics"
)

// recorder is a Sink that keeps every update for inspection.
type recorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recorder) Publish(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) ofType(t UpdateType) []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Update
	for _, u := range r.updates {
		if u.Type == t {
			out = append(out, u)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = nil
}

func newTestSession(t *testing.T) (*Session, *physics.World, *recorder) {
	t.Helper()
	return newTestSessionWithRules(t, config.DefaultRules())
}

func newTestSessionWithRules(t *testing.T, rules config.Rules) (*Session, *physics.World, *recorder) {
	t.Helper()
	world := physics.NewWorld()
	rec := &recorder{}
	s, err := NewSession("table_test", world, rules, rec)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s, world, rec
}

// pocketPair builds the pair the engine would report for ball touching pocket i.
func pocketPair(s *Session, b *Ball, i int) physics.Pair {
	return physics.Pair{BodyA: s.Table().Pockets[i], BodyB: b.Body}
}

func ballByColor(t *testing.T, s *Session, color string) *Ball {
	t.Helper()
	for _, b := range s.Registry().Balls() {
		if b.Color == color {
			return b
		}
	}
	t.Fatalf("no %s ball in play", color)
	return nil
}
