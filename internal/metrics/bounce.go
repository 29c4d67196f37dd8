package metrics

import "github.com/san-kum/diceroll/internal/world"

// Bounces counts ground impacts that sent a die back upward.
type Bounces struct {
	name   string
	prevVy map[string]float64
	count  int
}

func NewBounces() *Bounces {
	return &Bounces{name: "bounces", prevVy: make(map[string]float64)}
}

func (b *Bounces) Name() string { return b.name }

func (b *Bounces) Observe(f world.Frame) {
	for _, p := range f.Poses {
		vy := p.Velocity.Y()
		if prev, ok := b.prevVy[p.Name]; ok && prev < 0 && vy > 0 {
			b.count++
		}
		b.prevVy[p.Name] = vy
	}
}

func (b *Bounces) Value() float64 { return float64(b.count) }

func (b *Bounces) Reset() {
	b.count = 0
	b.prevVy = make(map[string]float64)
}

// ReboundPeak is the greatest height above resting height reached by any die
// after its first ground contact.
type ReboundPeak struct {
	name      string
	contacted map[string]bool
	peak      float64
}

func NewReboundPeak() *ReboundPeak {
	return &ReboundPeak{name: "rebound_peak", contacted: make(map[string]bool)}
}

func (r *ReboundPeak) Name() string { return r.name }

func (r *ReboundPeak) Observe(f world.Frame) {
	for _, p := range f.Poses {
		h := p.Position.Y() - p.Size/2
		if h <= 0 {
			r.contacted[p.Name] = true
			continue
		}
		if r.contacted[p.Name] && h > r.peak {
			r.peak = h
		}
	}
}

func (r *ReboundPeak) Value() float64 { return r.peak }

func (r *ReboundPeak) Reset() {
	r.peak = 0
	r.contacted = make(map[string]bool)
}
