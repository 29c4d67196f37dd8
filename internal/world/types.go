package world

import (
	"errors"

	"github.com/san-kum/diceroll/internal/rigid"
)

var (
	ErrInvalidConfig = errors.New("world: invalid config")
	ErrDuplicateDie  = errors.New("world: die name already in use")
	ErrUnknownDie    = errors.New("world: no die with that name")
)

// NamedPose is a die's pose tagged with its name.
type NamedPose struct {
	Name string `json:"name"`
	rigid.Pose
}

// Frame is what renderers and metrics see after each step.
type Frame struct {
	Step  int         `json:"step"`
	Time  float64     `json:"time"`
	Poses []NamedPose `json:"poses"`
}

// AllResting reports whether every die in the frame is at rest.
func (f Frame) AllResting() bool {
	for _, p := range f.Poses {
		if p.State != rigid.Resting {
			return false
		}
	}
	return true
}

type Observer interface {
	OnFrame(f Frame)
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Config struct {
	Dt              float64 `yaml:"dt"`
	Duration        float64 `yaml:"duration"`
	Workers         int     `yaml:"workers"`
	StopWhenResting bool    `yaml:"stop_when_resting"`
}

func DefaultConfig() Config {
	return Config{
		Dt:              1.0 / 60,
		Duration:        10.0,
		Workers:         4,
		StopWhenResting: true,
	}
}

type Result struct {
	Frames     []Frame            `json:"frames"`
	Metrics    map[string]float64 `json:"metrics"`
	StepsTaken int                `json:"steps_taken"`
	// SettledAt maps die name to the simulated time it came to rest.
	SettledAt map[string]float64 `json:"settled_at"`
}
