package rigid

import (
	"fmt"
	"math"
)

const (
	DefaultGravity       = 9.8
	DefaultRestitution   = 0.3
	DefaultFriction      = 0.8
	DefaultRestThreshold = 0.05
)

// Params are the tunables of a contact step.
type Params struct {
	Gravity       float64 `yaml:"gravity" json:"gravity" config:"DICE_GRAVITY"`
	Restitution   float64 `yaml:"restitution" json:"restitution" config:"DICE_RESTITUTION"`
	Friction      float64 `yaml:"friction" json:"friction" config:"DICE_FRICTION"`
	RestThreshold float64 `yaml:"rest_threshold" json:"rest_threshold" config:"DICE_REST_THRESHOLD"`
}

func DefaultParams() Params {
	return Params{
		Gravity:       DefaultGravity,
		Restitution:   DefaultRestitution,
		Friction:      DefaultFriction,
		RestThreshold: DefaultRestThreshold,
	}
}

// Validate checks every field against its range. Values are never coerced.
func (p Params) Validate() error {
	for _, name := range paramNames {
		v := p.get(name)
		if !inBounds(name, v) {
			return &ParamError{Name: name, Value: v}
		}
	}
	return nil
}

var paramNames = []string{"gravity", "restitution", "friction", "rest_threshold"}

func inBounds(name string, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	switch name {
	case "gravity":
		return v >= 0
	case "restitution", "friction":
		return v >= 0 && v <= 1
	case "rest_threshold":
		return v > 0
	}
	return false
}

func (p Params) get(name string) float64 {
	switch name {
	case "gravity":
		return p.Gravity
	case "restitution":
		return p.Restitution
	case "friction":
		return p.Friction
	case "rest_threshold":
		return p.RestThreshold
	}
	return math.NaN()
}

func (p Params) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity":        p.Gravity,
		"restitution":    p.Restitution,
		"friction":       p.Friction,
		"rest_threshold": p.RestThreshold,
	}
}

func (p *Params) SetParam(name string, value float64) error {
	if !inBounds(name, value) {
		if math.IsNaN(p.get(name)) {
			return fmt.Errorf("unknown param: %s", name)
		}
		return &ParamError{Name: name, Value: value}
	}
	switch name {
	case "gravity":
		p.Gravity = value
	case "restitution":
		p.Restitution = value
	case "friction":
		p.Friction = value
	case "rest_threshold":
		p.RestThreshold = value
	}
	return nil
}
