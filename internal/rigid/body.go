package rigid

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type State int

const (
	Airborne State = iota
	Resting
)

func (s State) String() string {
	switch s {
	case Airborne:
		return "airborne"
	case Resting:
		return "resting"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "airborne":
		*s = Airborne
	case "resting":
		*s = Resting
	default:
		return fmt.Errorf("unknown state: %q", text)
	}
	return nil
}

// Body is one simulated cube. Size is the edge length, so the center of mass
// touches the ground plane at y = Size/2.
type Body struct {
	position        mgl64.Vec3
	orientation     mgl64.Quat
	velocity        mgl64.Vec3
	angularVelocity mgl64.Vec3
	force           mgl64.Vec3
	mass            float64
	size            float64
	state           State
}

// NewBody returns a body resting on the ground at the origin.
func NewBody(mass, size float64) (*Body, error) {
	if !positive(mass) || !positive(size) {
		return nil, ErrInvalidBody
	}
	return &Body{
		position:    mgl64.Vec3{0, size / 2, 0},
		orientation: mgl64.QuatIdent(),
		mass:        mass,
		size:        size,
		state:       Resting,
	}, nil
}

func (b *Body) Mass() float64               { return b.mass }
func (b *Body) Size() float64               { return b.size }
func (b *Body) GroundHeight() float64       { return b.size / 2 }
func (b *Body) State() State                { return b.state }
func (b *Body) Position() mgl64.Vec3        { return b.position }
func (b *Body) Velocity() mgl64.Vec3        { return b.velocity }
func (b *Body) AngularVelocity() mgl64.Vec3 { return b.angularVelocity }
func (b *Body) Orientation() mgl64.Quat     { return b.orientation }
func (b *Body) Force() mgl64.Vec3           { return b.force }

// Clone returns an independent copy.
func (b *Body) Clone() *Body {
	c := *b
	return &c
}

// Inertia is the moment of inertia of a solid cube about any axis through its center.
func (b *Body) Inertia() float64 {
	return b.mass * b.size * b.size / 6
}

// Energy returns kinetic (linear + rotational) plus potential energy,
// with potential measured from the resting height.
func (b *Body) Energy(gravity float64) float64 {
	return Snapshot(b).Energy(b.mass, gravity)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
