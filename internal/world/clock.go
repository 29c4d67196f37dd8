package world

// FrameClock turns variable render deltas into a whole number of fixed
// physics steps. Leftover time carries into the next frame.
type FrameClock struct {
	Dt       float64
	MaxSteps int
	acc      float64
}

func NewFrameClock(dt float64, maxSteps int) *FrameClock {
	if maxSteps < 1 {
		maxSteps = 1
	}
	return &FrameClock{Dt: dt, MaxSteps: maxSteps}
}

// Advance adds elapsed seconds and returns how many steps to take. When the
// cap is hit the backlog is dropped so a stalled renderer cannot spiral.
func (c *FrameClock) Advance(elapsed float64) int {
	if elapsed <= 0 || c.Dt <= 0 {
		return 0
	}
	c.acc += elapsed
	n := int(c.acc / c.Dt)
	if n > c.MaxSteps {
		c.acc = 0
		return c.MaxSteps
	}
	c.acc -= float64(n) * c.Dt
	return n
}

// Alpha is the fraction of a step left in the accumulator.
func (c *FrameClock) Alpha() float64 {
	if c.Dt <= 0 {
		return 0
	}
	return c.acc / c.Dt
}

func (c *FrameClock) Reset() { c.acc = 0 }
