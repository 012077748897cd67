package game

import (
	"errors"
	"testing"

	"github.com/playpool/minipool/internal/physics"
)

func TestNewTablePocketLayout(t *testing.T) {
	w := physics.NewWorld()
	table, err := NewTable(w, 800, 400, 20, 20)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	want := []physics.Vec2{
		{X: 20, Y: 20}, {X: 780, Y: 20},
		{X: 20, Y: 200}, {X: 780, Y: 200},
		{X: 20, Y: 380}, {X: 780, Y: 380},
	}
	for i, p := range table.Pockets {
		if p.Position != want[i] {
			t.Errorf("pocket %d at %+v, want %+v", i, p.Position, want[i])
		}
		if !p.Sensor || !p.Static || p.Label != physics.LabelPocket {
			t.Errorf("pocket %d must be a static sensor labelled pocket", i)
		}
		if p.Radius != 20 {
			t.Errorf("pocket %d radius = %v", i, p.Radius)
		}
	}
	for i, wall := range table.Walls {
		if !wall.Static || wall.Sensor || wall.Label != physics.LabelWall {
			t.Errorf("wall %d must be a static solid wall", i)
		}
	}
}

func TestNewTableRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name                 string
		width, height, thick float64
		radius               float64
	}{
		{"zero width", 0, 400, 20, 20},
		{"negative pocket", 800, 400, 20, -1},
		{"walls fill table", 40, 400, 20, 20},
		{"pockets overlap", 800, 100, 20, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(physics.NewWorld(), tt.width, tt.height, tt.thick, tt.radius)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Fatalf("err = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}

func TestTableRegisterOnce(t *testing.T) {
	w := physics.NewWorld()
	table, err := NewTable(w, 800, 400, 20, 20)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	table.Register(w)
	table.Register(w)

	if got := len(w.Bodies()); got != 10 {
		t.Fatalf("world has %d bodies, want 10", got)
	}
	if !table.IsPocket(table.Pockets[3]) || table.IsPocket(table.Walls[0]) {
		t.Error("IsPocket misidentified a body")
	}
}

func TestInsidePlayfield(t *testing.T) {
	table, _ := NewTable(physics.NewWorld(), 800, 400, 20, 20)

	if !table.InsidePlayfield(physics.NewVec2(200, 200), 10) {
		t.Error("cue start should be inside the playfield")
	}
	if table.InsidePlayfield(physics.NewVec2(795, 200), 10) {
		t.Error("ball inside the right wall should be outside the playfield")
	}
}
