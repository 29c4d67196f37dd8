package viz

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/diceroll/internal/rigid"
	"github.com/san-kum/diceroll/internal/world"
)

// Scene is the static backdrop (axes and floor grid) plus one cube per die.
type Scene struct {
	Camera     *Camera
	AxisLength float64
	GridHalf   float64
	GridStep   float64
	static     *Wireframe
}

func NewScene() *Scene {
	s := &Scene{
		Camera:     NewCamera(),
		AxisLength: 60,
		GridHalf:   50,
		GridStep:   10,
	}
	s.rebuild()
	return s
}

func (s *Scene) rebuild() {
	s.static = NewWireframe()
	s.static.Merge(CreateAxesWireframe(s.AxisLength))
	s.static.Merge(CreateGridWireframe(s.GridHalf, s.GridStep))
}

// CubeWireframe returns the 12 world-space edges of the die in pose p.
func CubeWireframe(p rigid.Pose) *Wireframe {
	w := NewWireframe()
	corners := p.Corners()
	for _, e := range rigid.CubeEdges {
		w.AddEdge(corners[e[0]], corners[e[1]])
	}
	return w
}

// Wireframe is everything visible in frame f.
func (s *Scene) Wireframe(f world.Frame) *Wireframe {
	w := NewWireframe()
	w.Merge(s.static)
	for _, p := range f.Poses {
		w.Merge(CubeWireframe(p.Pose))
		// drop line from the cube centre to its floor footprint
		foot := mgl64.Vec3{p.Position.X(), 0, p.Position.Z()}
		if p.State == rigid.Airborne {
			w.AddDashed(p.Position, foot)
		}
	}
	return w
}

func (s *Scene) Draw(c *Canvas, f world.Frame) {
	c.Clear()
	Render3D(c, s.Wireframe(f), s.Camera)
}
