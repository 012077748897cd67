package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Rack layouts for the object balls.
const (
	LayoutRow      = "row"
	LayoutTriangle = "triangle"
)

// Rules holds the table geometry and game-rule constants.
type Rules struct {
	Table         TableRules         `yaml:"table"`
	Ball          BallRules          `yaml:"ball"`
	Rack          RackRules          `yaml:"rack"`
	Palette       []PaletteEntry     `yaml:"palette"`
	Aim           AimRules           `yaml:"aim"`
	Stabilization StabilizationRules `yaml:"stabilization"`
	FoulPenalty   int                `yaml:"foul_penalty"`
}

// TableRules is the static table geometry.
type TableRules struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	WallThickness float64 `yaml:"wall_thickness"`
	PocketRadius  float64 `yaml:"pocket_radius"`
}

// BallRules are the material properties shared by every ball.
type BallRules struct {
	Radius      float64 `yaml:"radius"`
	Restitution float64 `yaml:"restitution"` // must be in (0,1)
	Friction    float64 `yaml:"friction"`
	FrictionAir float64 `yaml:"friction_air"`
	Density     float64 `yaml:"density"`
}

// Point is a table-local coordinate.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// RackRules places the cue ball and the object balls.
type RackRules struct {
	CueStart Point   `yaml:"cue_start"`
	Base     Point   `yaml:"base"`
	Spacing  float64 `yaml:"spacing"` // gap between neighbouring balls
	Layout   string  `yaml:"layout"`
}

// PaletteEntry maps an object-ball color to its score value.
type PaletteEntry struct {
	Color string `yaml:"color"`
	Fill  string `yaml:"fill"`
	Score int    `yaml:"score"`
}

// AimRules drive the power meter and the shot impulse.
type AimRules struct {
	MaxPower        float64 `yaml:"max_power"`
	PowerIncrement  float64 `yaml:"power_increment"`
	ForceScale      float64 `yaml:"force_scale"`
	GuidelineLength float64 `yaml:"guideline_length"`
	RestThreshold   float64 `yaml:"rest_threshold"` // cue speed per axis below which aiming is allowed
}

// StabilizationRules control the per-step velocity clamp.
type StabilizationRules struct {
	Threshold float64 `yaml:"threshold"`
}

// DefaultRules returns the embedded rules.
func DefaultRules() Rules {
	var r Rules
	if err := yaml.Unmarshal(defaultsYAML, &r); err != nil {
		panic(fmt.Sprintf("config: embedded rules are invalid: %v", err))
	}
	return r
}

// LoadRules starts from the embedded defaults and overlays the file at path,
// if any. Only fields present in the file are overwritten.
func LoadRules(path string) (Rules, error) {
	r := DefaultRules()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Rules{}, fmt.Errorf("reading rules file: %w", err)
		}
		if err := yaml.Unmarshal(data, &r); err != nil {
			return Rules{}, fmt.Errorf("parsing rules file: %w", err)
		}
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// ErrInvalidRules wraps every rules validation failure.
var ErrInvalidRules = errors.New("invalid rules")

// Validate checks value ranges. Table geometry is checked separately when
// the table is built.
func (r Rules) Validate() error {
	switch {
	case r.Ball.Radius <= 0:
		return fmt.Errorf("%w: ball radius must be positive", ErrInvalidRules)
	case r.Ball.Restitution <= 0 || r.Ball.Restitution >= 1:
		return fmt.Errorf("%w: ball restitution must be in (0,1), got %v", ErrInvalidRules, r.Ball.Restitution)
	case r.Ball.Friction < 0:
		return fmt.Errorf("%w: ball friction must not be negative", ErrInvalidRules)
	case r.Ball.FrictionAir < 0 || r.Ball.FrictionAir >= 1:
		return fmt.Errorf("%w: friction_air must be in [0,1)", ErrInvalidRules)
	case r.Ball.Density <= 0:
		return fmt.Errorf("%w: ball density must be positive", ErrInvalidRules)
	case r.Rack.Spacing <= 0:
		return fmt.Errorf("%w: rack spacing must be positive", ErrInvalidRules)
	case r.Rack.Layout != LayoutRow && r.Rack.Layout != LayoutTriangle:
		return fmt.Errorf("%w: unknown rack layout %q", ErrInvalidRules, r.Rack.Layout)
	case len(r.Palette) == 0:
		return fmt.Errorf("%w: palette is empty", ErrInvalidRules)
	case r.Aim.MaxPower <= 0 || r.Aim.PowerIncrement <= 0:
		return fmt.Errorf("%w: max_power and power_increment must be positive", ErrInvalidRules)
	case r.Aim.ForceScale <= 0:
		return fmt.Errorf("%w: force_scale must be positive", ErrInvalidRules)
	case r.Aim.RestThreshold <= 0 || r.Stabilization.Threshold <= 0:
		return fmt.Errorf("%w: thresholds must be positive", ErrInvalidRules)
	case r.FoulPenalty < 0:
		return fmt.Errorf("%w: foul_penalty must not be negative", ErrInvalidRules)
	}
	seen := make(map[string]bool, len(r.Palette))
	for _, p := range r.Palette {
		if p.Color == "" {
			return fmt.Errorf("%w: palette entry without color", ErrInvalidRules)
		}
		if seen[p.Color] {
			return fmt.Errorf("%w: duplicate palette color %q", ErrInvalidRules, p.Color)
		}
		seen[p.Color] = true
	}
	return nil
}

// Colors returns the palette colors in rack order.
func (r Rules) Colors() []string {
	out := make([]string, len(r.Palette))
	for i, p := range r.Palette {
		out[i] = p.Color
	}
	return out
}

// FillFor returns the display fill of a palette color, or "" when unmapped.
func (r Rules) FillFor(color string) string {
	for _, p := range r.Palette {
		if p.Color == color {
			return p.Fill
		}
	}
	return ""
}

// ScoreTable returns color -> score value.
func (r Rules) ScoreTable() map[string]int {
	out := make(map[string]int, len(r.Palette))
	for _, p := range r.Palette {
		out[p.Color] = p.Score
	}
	return out
}
