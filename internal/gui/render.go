package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/diceroll/internal/rigid"
)

const (
	axisLength = 60
	gridHalf   = 50
	gridStep   = 10
	dashCount  = 12
)

func vec(v mgl64.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v.X()), float32(v.Y()), float32(v.Z()))
}

func drawGrid(half, step float32) {
	for x := -half; x <= half; x += step {
		rl.DrawLine3D(rl.NewVector3(x, 0, -half), rl.NewVector3(x, 0, half), ColGrid)
		rl.DrawLine3D(rl.NewVector3(-half, 0, x), rl.NewVector3(half, 0, x), ColGrid)
	}
}

// drawAxes draws the positive half of each axis solid and the negative half
// dashed.
func drawAxes(length float64) {
	colors := [3]rl.Color{ColAxisX, ColAxisY, ColAxisZ}
	for i, col := range colors {
		var d mgl64.Vec3
		d[i] = length
		rl.DrawLine3D(vec(mgl64.Vec3{}), vec(d), col)

		neg := d.Mul(-1)
		for k := 0; k < dashCount; k += 2 {
			from := neg.Mul(float64(k) / dashCount)
			to := neg.Mul(float64(k+1) / dashCount)
			rl.DrawLine3D(vec(from), vec(to), col)
		}
	}
}

// drawDie draws the cube outline rotated by the pose's axis and angle.
func drawDie(p rigid.Pose) {
	col := ColDie
	if p.State == rigid.Resting {
		col = ColResting
	}
	axis, angle := p.AxisAngle()
	size := float32(p.Size)

	rl.PushMatrix()
	rl.Translatef(float32(p.Position.X()), float32(p.Position.Y()), float32(p.Position.Z()))
	rl.Rotatef(float32(mgl64.RadToDeg(angle)), float32(axis.X()), float32(axis.Y()), float32(axis.Z()))
	rl.DrawCubeWires(rl.NewVector3(0, 0, 0), size, size, size, col)
	rl.PopMatrix()

	if p.State == rigid.Airborne {
		rl.DrawLine3D(vec(p.Position), rl.NewVector3(float32(p.Position.X()), 0, float32(p.Position.Z())), ColTextDim)
	}
}
