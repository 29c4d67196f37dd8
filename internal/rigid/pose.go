package rigid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is a read-only snapshot of a body for renderers.
type Pose struct {
	Position        mgl64.Vec3 `json:"position"`
	Orientation     mgl64.Quat `json:"orientation"`
	Velocity        mgl64.Vec3 `json:"velocity"`
	AngularVelocity mgl64.Vec3 `json:"angular_velocity"`
	Size            float64    `json:"size"`
	State           State      `json:"state"`
}

func Snapshot(b *Body) Pose {
	return Pose{
		Position:        b.position,
		Orientation:     b.orientation,
		Velocity:        b.velocity,
		AngularVelocity: b.angularVelocity,
		Size:            b.size,
		State:           b.state,
	}
}

// Energy is the mechanical energy of a cube of the given mass in this pose.
func (p Pose) Energy(mass, gravity float64) float64 {
	v2 := p.Velocity.Dot(p.Velocity)
	w2 := p.AngularVelocity.Dot(p.AngularVelocity)
	inertia := mass * p.Size * p.Size / 6
	ke := 0.5*mass*v2 + 0.5*inertia*w2
	pe := mass * gravity * (p.Position.Y() - p.Size/2)
	return ke + pe
}

// Euler returns XYZ-order Euler angles in radians. Only renderers that insist
// on Euler rotations should use this; the integrator never does.
func (p Pose) Euler() mgl64.Vec3 {
	m := p.Orientation.Normalize().Mat4()
	m13 := clamp(m.At(0, 2), -1, 1)

	y := math.Asin(m13)
	if math.Abs(m13) < 0.9999999 {
		return mgl64.Vec3{
			math.Atan2(-m.At(1, 2), m.At(2, 2)),
			y,
			math.Atan2(-m.At(0, 1), m.At(0, 0)),
		}
	}
	return mgl64.Vec3{math.Atan2(m.At(2, 1), m.At(1, 1)), y, 0}
}

// AxisAngle returns a unit rotation axis and an angle in radians.
func (p Pose) AxisAngle() (mgl64.Vec3, float64) {
	q := p.Orientation.Normalize()
	w := clamp(q.W, -1, 1)
	angle := 2 * math.Acos(w)
	s := math.Sqrt(1 - w*w)
	if s < 1e-9 {
		return mgl64.Vec3{1, 0, 0}, 0
	}
	return q.V.Mul(1 / s), angle
}

// Corners returns the 8 world-space vertices of the cube. Indices 0-3 are the
// -z face, 4-7 the +z face, each counter-clockwise from (-,-).
func (p Pose) Corners() [8]mgl64.Vec3 {
	s := p.Size / 2
	local := [8]mgl64.Vec3{
		{-s, -s, -s}, {s, -s, -s}, {s, s, -s}, {-s, s, -s},
		{-s, -s, s}, {s, -s, s}, {s, s, s}, {-s, s, s},
	}
	var out [8]mgl64.Vec3
	for i, c := range local {
		out[i] = p.Position.Add(p.Orientation.Rotate(c))
	}
	return out
}

// CubeEdges indexes pairs of Corners that form the 12 cube edges.
var CubeEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
