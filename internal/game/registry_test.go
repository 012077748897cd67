package game

import (
	"errors"
	"math"
	"testing"

	"github.com/playpool/minipool/internal/config"
	"github.com/playpool/minipool/internal/physics"
)

func newTestRegistry(t *testing.T) (*Registry, *physics.World) {
	t.Helper()
	w := physics.NewWorld()
	table, err := NewTable(w, 800, 400, 20, 20)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	table.Register(w)
	return NewRegistry(w, table, config.DefaultRules()), w
}

func TestSpawnCueBallOnlyOnce(t *testing.T) {
	reg, w := newTestRegistry(t)
	cue, err := reg.SpawnCueBall(physics.NewVec2(200, 200))
	if err != nil {
		t.Fatalf("SpawnCueBall: %v", err)
	}
	if !cue.IsCue() || !w.Contains(cue.Body) {
		t.Fatal("cue ball not registered with the world")
	}
	if _, err := reg.SpawnCueBall(physics.NewVec2(300, 200)); !errors.Is(err, ErrCueBallExists) {
		t.Fatalf("second spawn err = %v, want ErrCueBallExists", err)
	}
}

func TestBallStatesCarryFill(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if _, err := reg.SpawnCueBall(physics.NewVec2(200, 200)); err != nil {
		t.Fatalf("SpawnCueBall: %v", err)
	}
	if _, err := reg.SpawnObjectBalls([]string{"red", "blue", "purple"}, physics.NewVec2(500, 200), 2); err != nil {
		t.Fatalf("SpawnObjectBalls: %v", err)
	}

	want := []string{CueFill, "#ff0000", "#0000ff", ""}
	states := reg.States()
	if len(states) != len(want) {
		t.Fatalf("states = %d, want %d", len(states), len(want))
	}
	for i, st := range states {
		if st.Fill != want[i] {
			t.Errorf("ball %d (%s) fill = %q, want %q", i, st.Color, st.Fill, want[i])
		}
	}
}

func TestSpawnObjectBallsRejectsPocketOverlap(t *testing.T) {
	reg, w := newTestRegistry(t)
	before := len(w.Bodies())

	_, err := reg.SpawnObjectBalls([]string{"red", "yellow"}, physics.NewVec2(740, 200), 2)
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("err = %v, want ErrOverlap", err)
	}
	if len(w.Bodies()) != before || reg.Count() != 0 {
		t.Error("failed spawn left bodies behind")
	}
}

func TestRackPositionsDoNotOverlap(t *testing.T) {
	for _, layout := range []string{config.LayoutRow, config.LayoutTriangle} {
		t.Run(layout, func(t *testing.T) {
			ps := RackPositions(10, physics.NewVec2(500, 200), 10, 2, layout)
			if len(ps) != 10 {
				t.Fatalf("got %d positions", len(ps))
			}
			for i := range ps {
				for j := i + 1; j < len(ps); j++ {
					if d := ps[i].DistanceTo(ps[j]); d < 20-1e-9 {
						t.Errorf("balls %d and %d are %.3f apart", i, j, d)
					}
				}
			}
		})
	}
}

func TestRackPositionsRowSpacing(t *testing.T) {
	ps := RackPositions(3, physics.NewVec2(600, 200), 10, 2, config.LayoutRow)
	for i, p := range ps {
		want := 600 + float64(i)*22
		if math.Abs(p.X-want) > 1e-9 || p.Y != 200 {
			t.Errorf("ball %d at %+v, want (%v,200)", i, p, want)
		}
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	reg, w := newTestRegistry(t)
	reg.SpawnCueBall(physics.NewVec2(200, 200))
	balls, err := reg.SpawnObjectBalls([]string{"red", "yellow", "blue"}, physics.NewVec2(600, 200), 2)
	if err != nil {
		t.Fatalf("SpawnObjectBalls: %v", err)
	}

	if !reg.Remove(balls[0]) {
		t.Fatal("first Remove should succeed")
	}
	if reg.Remove(balls[0]) {
		t.Fatal("second Remove should be a no-op")
	}
	if reg.Count() != 2 || reg.Contains(balls[0]) || w.Contains(balls[0].Body) {
		t.Errorf("registry out of step after removal: count=%d", reg.Count())
	}
	if reg.Remove(reg.Cue()) {
		t.Error("Remove must never take the cue ball out of play")
	}
}

func TestResetAllRestoresRack(t *testing.T) {
	reg, w := newTestRegistry(t)
	reg.SpawnCueBall(physics.NewVec2(200, 200))
	balls, _ := reg.SpawnObjectBalls([]string{"red", "yellow", "blue"}, physics.NewVec2(600, 200), 2)
	reg.Remove(balls[1])
	w.SetPosition(reg.Cue().Body, physics.NewVec2(400, 300))
	w.SetVelocity(reg.Cue().Body, physics.NewVec2(3, 1))

	if err := reg.ResetAll(); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}

	if reg.Count() != 3 {
		t.Fatalf("count = %d, want 3", reg.Count())
	}
	cue := reg.Cue().Body
	if cue.Position != physics.NewVec2(200, 200) || !cue.Velocity.IsZero() {
		t.Errorf("cue at %+v moving %+v after reset", cue.Position, cue.Velocity)
	}
	for _, old := range balls {
		if w.Contains(old.Body) {
			t.Errorf("stale body %d still in the world", old.Body.ID)
		}
	}
	// walls, pockets, cue and the new rack
	if got := len(w.Bodies()); got != 14 {
		t.Errorf("world has %d bodies, want 14", got)
	}
}

func TestResetAllWithoutCue(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if err := reg.ResetAll(); !errors.Is(err, ErrNoCueBall) {
		t.Fatalf("err = %v, want ErrNoCueBall", err)
	}
}
