package rigid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Integrator advances bodies with semi-implicit Euler and resolves contact
// with the ground plane y = 0.
type Integrator struct {
	params Params
}

func NewIntegrator(p Params) (*Integrator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Integrator{params: p}, nil
}

// Default returns an integrator using DefaultParams.
func Default() *Integrator {
	return &Integrator{params: DefaultParams()}
}

func (in *Integrator) Params() Params { return in.params }

// Throw puts b back into flight. The body is left untouched on error.
func (in *Integrator) Throw(b *Body, velocity, angularVelocity, position mgl64.Vec3) error {
	for _, arg := range []struct {
		name string
		v    mgl64.Vec3
	}{{"position", position}, {"velocity", velocity}, {"spin", angularVelocity}} {
		if !finite(arg.v) {
			return &ThrowError{Height: position.Y(), Min: b.GroundHeight(), Field: arg.name}
		}
	}
	if position.Y() <= b.GroundHeight() {
		return &ThrowError{Height: position.Y(), Min: b.GroundHeight()}
	}

	b.state = Airborne
	b.position = position
	b.velocity = velocity
	b.angularVelocity = angularVelocity
	b.orientation = mgl64.QuatIdent()
	b.force = mgl64.Vec3{}
	return nil
}

// Step advances b by dt using the integrator's parameters.
func (in *Integrator) Step(b *Body, dt float64) (State, error) {
	return in.step(b, dt, in.params)
}

// StepWith advances b by dt using p in place of the integrator's parameters.
func (in *Integrator) StepWith(b *Body, dt float64, p Params) (State, error) {
	if err := p.Validate(); err != nil {
		return b.state, err
	}
	return in.step(b, dt, p)
}

// CheckTimestep reports whether dt is usable for a step.
func CheckTimestep(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return &TimestepError{Dt: dt}
	}
	return nil
}

func (in *Integrator) step(b *Body, dt float64, p Params) (State, error) {
	if err := CheckTimestep(dt); err != nil {
		return b.state, err
	}
	if b.state == Resting {
		return Resting, nil
	}

	// gravity is the only force
	b.force = mgl64.Vec3{0, -b.mass * p.Gravity, 0}
	b.velocity = b.velocity.Add(b.force.Mul(dt / b.mass))

	b.position = b.position.Add(b.velocity.Mul(dt))
	b.orientation = integrateOrientation(b.orientation, b.angularVelocity, dt)

	groundY := b.GroundHeight()
	if b.position.Y() > groundY {
		return Airborne, nil
	}

	b.position[1] = groundY

	// Impacts no faster than one step of gravity are a body sitting on the
	// ground, not a bounce.
	vy := b.velocity.Y()
	if math.Abs(vy) > p.RestThreshold+p.Gravity*dt {
		vy = -vy * p.Restitution
	} else {
		vy = 0
	}
	b.velocity = mgl64.Vec3{b.velocity.X() * p.Friction, vy, b.velocity.Z() * p.Friction}
	b.angularVelocity = b.angularVelocity.Mul(p.Friction)

	if b.velocity.Len() < p.RestThreshold && b.angularVelocity.Len() < p.RestThreshold {
		b.state = Resting
		b.velocity = mgl64.Vec3{}
		b.angularVelocity = mgl64.Vec3{}
		b.force = mgl64.Vec3{}
		b.position[1] = groundY
	}
	return b.state, nil
}

// integrateOrientation applies the rotation exp(w*dt) in world frame.
func integrateOrientation(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	rate := w.Len()
	if rate == 0 {
		return q
	}
	dq := mgl64.QuatRotate(rate*dt, w.Mul(1/rate))
	return dq.Mul(q).Normalize()
}
