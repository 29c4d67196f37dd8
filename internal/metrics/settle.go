package metrics

import "github.com/san-kum/diceroll/internal/world"

// SettleTime is the first frame time at which every die rests, or -1.
type SettleTime struct {
	name string
	at   float64
}

func NewSettleTime() *SettleTime {
	return &SettleTime{name: "settle_time", at: -1}
}

func (s *SettleTime) Name() string { return s.name }

func (s *SettleTime) Observe(f world.Frame) {
	if s.at < 0 && len(f.Poses) > 0 && f.AllResting() {
		s.at = f.Time
	}
}

func (s *SettleTime) Value() float64 { return s.at }

func (s *SettleTime) Reset() { s.at = -1 }
