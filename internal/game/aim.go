package game

import "github.com/playpool/minipool/internal/config"

// AimState is the transient state of one aim cycle.
type AimState struct {
	Aiming     bool    `json:"aiming"`
	Power      float64 `json:"power"`
	Increasing bool    `json:"increasing"`
	Angle      float64 `json:"angle"`
}

// Aim is the power meter and aim angle. It knows nothing about balls; Session
// applies the guard and the shot.
type Aim struct {
	rules config.AimRules
	state AimState
}

func NewAim(rules config.AimRules) *Aim {
	return &Aim{rules: rules, state: AimState{Increasing: true}}
}

func (a *Aim) State() AimState {
	return a.state
}

func (a *Aim) Aiming() bool {
	return a.state.Aiming
}

// Start begins a new aim cycle with an empty meter.
func (a *Aim) Start() {
	a.state = AimState{Aiming: true, Increasing: true, Angle: a.state.Angle}
}

// SetAngle records the current aim angle in radians.
func (a *Aim) SetAngle(angle float64) {
	a.state.Angle = angle
}

// Tick advances the power meter by one increment. The meter bounces between 0
// and MaxPower, flipping direction exactly at either bound. Returns false when
// not aiming, in which case nothing changes.
func (a *Aim) Tick() bool {
	if !a.state.Aiming {
		return false
	}
	if a.state.Increasing {
		a.state.Power += a.rules.PowerIncrement
		if a.state.Power >= a.rules.MaxPower {
			a.state.Power = a.rules.MaxPower
			a.state.Increasing = false
		}
	} else {
		a.state.Power -= a.rules.PowerIncrement
		if a.state.Power <= 0 {
			a.state.Power = 0
			a.state.Increasing = true
		}
	}
	return true
}

// Release ends the cycle and returns the power sampled at release.
func (a *Aim) Release() float64 {
	power := a.state.Power
	a.Cancel()
	return power
}

// Cancel returns to idle with an empty meter.
func (a *Aim) Cancel() {
	a.state.Aiming = false
	a.state.Power = 0
	a.state.Increasing = true
}

// Percent is the meter fill for the power indicator, 0..100.
func (a *Aim) Percent() float64 {
	return a.state.Power / a.rules.MaxPower * 100
}
