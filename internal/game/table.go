package game

import (
	"errors"
	"fmt"
	"log"

	"github.com/playpool/minipool/internal/physics"
)

// ErrInvalidGeometry is returned when table dimensions cannot form a playable table.
var ErrInvalidGeometry = errors.New("invalid table geometry")

// NumPockets is fixed: four corners plus two middle pockets.
const NumPockets = 6

// Table holds the static walls and pocket sensors. Nothing here changes after
// NewTable returns.
type Table struct {
	Width         float64
	Height        float64
	WallThickness float64
	PocketRadius  float64
	Walls         [4]*physics.Body
	Pockets       [NumPockets]*physics.Body

	registered bool
}

// NewTable builds the walls and pockets through the engine's body factory.
// Pockets sit wallThickness in from the corners and at half height on the
// left and right edges.
func NewTable(engine Engine, width, height, wallThickness, pocketRadius float64) (*Table, error) {
	if width <= 0 || height <= 0 || wallThickness <= 0 || pocketRadius <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive (w=%v h=%v t=%v r=%v)",
			ErrInvalidGeometry, width, height, wallThickness, pocketRadius)
	}
	if 2*wallThickness >= width || 2*wallThickness >= height {
		return nil, fmt.Errorf("%w: walls leave no playing surface", ErrInvalidGeometry)
	}

	t := &Table{
		Width:         width,
		Height:        height,
		WallThickness: wallThickness,
		PocketRadius:  pocketRadius,
	}

	// Contact material is the product of both shapes, so cushions use 1 and
	// the ball material alone decides bounce and grip.
	wallOpts := physics.BodyOptions{Label: physics.LabelWall, Static: true, Restitution: 1, Friction: 1}
	t.Walls = [4]*physics.Body{
		engine.NewRectangle(width/2, 0, width, wallThickness, wallOpts),       // top
		engine.NewRectangle(width/2, height, width, wallThickness, wallOpts),  // bottom
		engine.NewRectangle(0, height/2, wallThickness, height, wallOpts),     // left
		engine.NewRectangle(width, height/2, wallThickness, height, wallOpts), // right
	}

	pocketOpts := physics.BodyOptions{Label: physics.LabelPocket, Static: true, Sensor: true}
	for i, p := range PocketPositions(width, height, wallThickness) {
		t.Pockets[i] = engine.NewCircle(p.X, p.Y, pocketRadius, pocketOpts)
	}

	for i := 0; i < NumPockets; i++ {
		for j := i + 1; j < NumPockets; j++ {
			if t.Pockets[i].Position.DistanceTo(t.Pockets[j].Position) < 2*pocketRadius {
				return nil, fmt.Errorf("%w: pockets %d and %d overlap", ErrInvalidGeometry, i, j)
			}
		}
	}

	return t, nil
}

// PocketPositions returns the six pocket centers in a fixed order:
// top-left, top-right, middle-left, middle-right, bottom-left, bottom-right.
func PocketPositions(width, height, wallThickness float64) [NumPockets]physics.Vec2 {
	return [NumPockets]physics.Vec2{
		physics.NewVec2(wallThickness, wallThickness),
		physics.NewVec2(width-wallThickness, wallThickness),
		physics.NewVec2(wallThickness, height/2),
		physics.NewVec2(width-wallThickness, height/2),
		physics.NewVec2(wallThickness, height-wallThickness),
		physics.NewVec2(width-wallThickness, height-wallThickness),
	}
}

// Register adds walls and pockets to the world. Only the first call has an effect.
func (t *Table) Register(engine Engine) {
	if t.registered {
		log.Printf("[TABLE] Table already registered, skipping")
		return
	}
	engine.Add(t.Walls[:]...)
	engine.Add(t.Pockets[:]...)
	t.registered = true
}

// IsPocket reports whether body is one of this table's pockets.
func (t *Table) IsPocket(body *physics.Body) bool {
	for _, p := range t.Pockets {
		if p == body {
			return true
		}
	}
	return false
}

// OverlapsPocket reports whether a circle at pos with radius r touches any pocket.
func (t *Table) OverlapsPocket(pos physics.Vec2, r float64) bool {
	for _, p := range t.Pockets {
		if p.Position.DistanceTo(pos) < p.Radius+r {
			return true
		}
	}
	return false
}

// InsidePlayfield reports whether a circle at pos lies fully inside the walls.
func (t *Table) InsidePlayfield(pos physics.Vec2, r float64) bool {
	inner := t.WallThickness / 2
	return pos.X-r >= inner && pos.X+r <= t.Width-inner &&
		pos.Y-r >= inner && pos.Y+r <= t.Height-inner
}
