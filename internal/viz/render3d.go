package viz

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective look-at camera. FOV is vertical, in degrees.
type Camera struct {
	Eye, Target, Up mgl64.Vec3
	FOV, Near, Far  float64
}

// NewCamera places the eye at (30, 50, 120) looking at the origin.
func NewCamera() *Camera {
	return &Camera{
		Eye:    mgl64.Vec3{30, 50, 120},
		Target: mgl64.Vec3{0, 0, 0},
		Up:     mgl64.Vec3{0, 1, 0},
		FOV:    45,
		Near:   0.1,
		Far:    2000,
	}
}

// ViewProjection returns the combined clip transform for a screen of sw x sh.
func (c *Camera) ViewProjection(sw, sh int) mgl64.Mat4 {
	aspect := 1.0
	if sh > 0 {
		aspect = float64(sw) / float64(sh)
	}
	proj := mgl64.Perspective(mgl64.DegToRad(c.FOV), aspect, c.Near, c.Far)
	view := mgl64.LookAtV(c.Eye, c.Target, c.Up)
	return proj.Mul4(view)
}

// Project maps a world point to screen coordinates. depth is the distance
// along the view direction; ok is false behind the near plane.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (x, y int, depth float64, ok bool) {
	return project(c.ViewProjection(sw, sh), c.Near, p, sw, sh)
}

func project(vp mgl64.Mat4, near float64, p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	clip := vp.Mul4x1(p.Vec4(1))
	w := clip.W()
	if w <= near {
		return 0, 0, 0, false
	}
	nx, ny := clip.X()/w, clip.Y()/w
	sx := int((nx + 1) / 2 * float64(sw))
	sy := int((1 - ny) / 2 * float64(sh))
	return sx, sy, w, true
}

type Edge struct {
	Start, End mgl64.Vec3
	Dashed     bool
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe                 { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e mgl64.Vec3)   { w.Edges = append(w.Edges, Edge{s, e, false}) }
func (w *Wireframe) AddDashed(s, e mgl64.Vec3) { w.Edges = append(w.Edges, Edge{s, e, true}) }
func (w *Wireframe) AddPoint(p mgl64.Vec3)     { w.Edges = append(w.Edges, Edge{p, p, false}) }
func (w *Wireframe) Merge(o *Wireframe)        { w.Edges = append(w.Edges, o.Edges...) }
func (w *Wireframe) Clear()                    { w.Edges = w.Edges[:0] }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
	dashed         bool
}

// Render3D draws the wireframe far to near. Edges with an end behind the
// camera, or projecting far outside the canvas, are skipped.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	dw, dh := c.Dots()
	vp := cam.ViewProjection(dw, dh)

	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := project(vp, cam.Near, e.Start, dw, dh)
		x2, y2, d2, v2 := project(vp, cam.Near, e.End, dw, dh)
		if !v1 || !v2 || offscreen(x1, y1, dw, dh) || offscreen(x2, y2, dw, dh) {
			continue
		}
		proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2, e.Dashed})
	}

	sort.SliceStable(proj, func(i, j int) bool { return proj[i].depth > proj[j].depth })
	for _, e := range proj {
		switch {
		case e.x1 == e.x2 && e.y1 == e.y2:
			c.Set(e.x1, e.y1)
		case e.dashed:
			c.DrawDashed(e.x1, e.y1, e.x2, e.y2, 2)
		default:
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

func offscreen(x, y, w, h int) bool {
	return x < -4*w || x > 5*w || y < -4*h || y > 5*h
}

// CreateAxesWireframe draws the three axes out to ±l. Negative halves are
// dashed.
func CreateAxesWireframe(l float64) *Wireframe {
	w, o := NewWireframe(), mgl64.Vec3{}
	for i := 0; i < 3; i++ {
		var d mgl64.Vec3
		d[i] = l
		w.AddEdge(o, d)
		w.AddDashed(o, d.Mul(-1))
	}
	return w
}

// CreateGridWireframe is a square grid on y = 0 spanning ±half in x and z.
func CreateGridWireframe(half, step float64) *Wireframe {
	w := NewWireframe()
	if step <= 0 || half <= 0 {
		return w
	}
	n := int(half / step)
	for i := -n; i <= n; i++ {
		v := float64(i) * step
		w.AddEdge(mgl64.Vec3{v, 0, -half}, mgl64.Vec3{v, 0, half})
		w.AddEdge(mgl64.Vec3{-half, 0, v}, mgl64.Vec3{half, 0, v})
	}
	return w
}
