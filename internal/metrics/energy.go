package metrics

import (
	"math"

	"github.com/san-kum/diceroll/internal/world"
)

// EnergyLoss is the fraction of the first observed mechanical energy that
// has been dissipated by contact.
type EnergyLoss struct {
	name    string
	gravity float64
	masses  map[string]float64
	initial float64
	current float64
	samples int
}

func NewEnergyLoss(gravity float64, masses map[string]float64) *EnergyLoss {
	return &EnergyLoss{
		name:    "energy_loss",
		gravity: gravity,
		masses:  masses,
	}
}

func (e *EnergyLoss) Name() string { return e.name }

func (e *EnergyLoss) Observe(f world.Frame) {
	total := 0.0
	for _, p := range f.Poses {
		total += p.Energy(e.masses[p.Name], e.gravity)
	}
	if e.samples == 0 {
		e.initial = total
	}
	e.current = total
	e.samples++
}

func (e *EnergyLoss) Value() float64 {
	if e.samples == 0 || e.initial == 0 {
		return 0
	}
	return 1 - e.current/math.Abs(e.initial)
}

func (e *EnergyLoss) Reset() {
	e.initial = 0
	e.current = 0
	e.samples = 0
}

// Defaults returns the metrics every run records.
func Defaults(gravity float64, masses map[string]float64) []world.Metric {
	return []world.Metric{
		NewBounces(),
		NewReboundPeak(),
		NewSettleTime(),
		NewEnergyLoss(gravity, masses),
	}
}
