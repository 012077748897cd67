package physics

import "math"

// Vec2 is a 2D vector in table-local units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// FromAngle returns the vector of the given length pointing along angle (radians).
func FromAngle(angle, length float64) Vec2 {
	return Vec2{X: math.Cos(angle) * length, Y: math.Sin(angle) * length}
}

func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// AngleTo returns the bearing in radians from v towards o.
func (v Vec2) AngleTo(o Vec2) float64 {
	return math.Atan2(o.Y-v.Y, o.X-v.X)
}

func (v Vec2) DistanceTo(o Vec2) float64 {
	return o.Minus(v).Magnitude()
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// BelowOnBothAxes reports whether |X| and |Y| are both strictly below threshold.
func (v Vec2) BelowOnBothAxes(threshold float64) bool {
	return math.Abs(v.X) < threshold && math.Abs(v.Y) < threshold
}
