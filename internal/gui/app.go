package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/rs/zerolog"

	"github.com/san-kum/diceroll/internal/world"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColDie     = rl.NewColor(235, 235, 235, 255)
	ColResting = rl.NewColor(120, 200, 140, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(40, 40, 40, 255)
	ColAxisX   = rl.NewColor(220, 80, 80, 255)
	ColAxisY   = rl.NewColor(80, 220, 80, 255)
	ColAxisZ   = rl.NewColor(80, 80, 220, 255)
)

const (
	screenWidth  = 1280
	screenHeight = 720
	maxSubsteps  = 8
)

type App struct {
	World   *world.World
	Rethrow func(*world.World) error
	Title   string
	Dt      float64
	Camera  rl.Camera3D
	Running bool

	clock *world.FrameClock
	frame world.Frame
	log   zerolog.Logger
	err   error
}

func NewApp(w *world.World, dt float64, rethrow func(*world.World) error, title string, log zerolog.Logger) *App {
	return &App{
		World:   w,
		Rethrow: rethrow,
		Title:   title,
		Dt:      dt,
		Camera: rl.NewCamera3D(
			rl.NewVector3(30, 50, 120),
			rl.NewVector3(0, 0, 0),
			rl.NewVector3(0, 1, 0),
			45.0,
			rl.CameraPerspective,
		),
		Running: true,
		clock:   world.NewFrameClock(dt, maxSubsteps),
		frame:   w.Frame(),
		log:     log,
	}
}

// Run opens the window and blocks until it is closed. The returned error is
// the first failed physics step, if any.
func Run(w *world.World, dt float64, rethrow func(*world.World) error, title string, log zerolog.Logger) error {
	rl.InitWindow(screenWidth, screenHeight, "diceroll")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)
	rl.SetExitKey(rl.KeyQ)

	app := NewApp(w, dt, rethrow, title, log)
	app.RunLoop()
	return app.err
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		a.Update()
		a.Draw()
	}
}

func (a *App) Update() {
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyR) && a.Rethrow != nil {
		if err := a.Rethrow(a.World); err != nil {
			a.log.Error().Err(err).Msg("rethrow failed")
		} else {
			a.clock.Reset()
			a.frame = a.World.Frame()
			a.err = nil
			a.Running = true
		}
	}

	rl.UpdateCamera(&a.Camera, rl.CameraOrbital)

	if !a.Running || a.err != nil {
		return
	}
	n := a.clock.Advance(float64(rl.GetFrameTime()))
	for i := 0; i < n; i++ {
		f, err := a.World.Step(a.Dt)
		if err != nil {
			a.err = err
			a.log.Error().Err(err).Msg("step failed")
			return
		}
		a.frame = f
	}
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	rl.BeginMode3D(a.Camera)
	drawGrid(gridHalf, gridStep)
	drawAxes(axisLength)
	for _, p := range a.frame.Poses {
		drawDie(p.Pose)
	}
	rl.EndMode3D()

	a.DrawHUD()
	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	rl.DrawText("diceroll", 30, 30, 24, ColDie)
	rl.DrawText(fmt.Sprintf(":: %s", a.Title), 150, 34, 16, ColText)

	status := "ROLLING"
	switch {
	case a.err != nil:
		status = "ERROR"
	case !a.Running:
		status = "PAUSED"
	case a.frame.AllResting():
		status = "AT REST"
	}
	rl.DrawText(status, 1130, 30, 16, ColDie)

	y := int32(70)
	for _, p := range a.frame.Poses {
		e := p.Euler()
		line := fmt.Sprintf("%-4s y=%6.2f  rot=(%5.2f %5.2f %5.2f)  %s", p.Name, p.Position.Y(), e.X(), e.Y(), e.Z(), p.State)
		rl.DrawText(line, 30, y, 14, ColText)
		y += 18
	}

	rl.DrawText(fmt.Sprintf("t=%.2fs", a.frame.Time), 30, 650, 14, ColText)
	rl.DrawText("[SPACE] PAUSE  [R] RETHROW  [Q] QUIT", 880, 680, 14, ColTextDim)
	rl.DrawFPS(30, 680)
}
