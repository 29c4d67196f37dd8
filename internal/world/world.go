package world

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/diceroll/internal/rigid"
)

type die struct {
	name string
	body *rigid.Body
}

// World steps a set of named dice together.
type World struct {
	integ     *rigid.Integrator
	dice      []die
	index     map[string]int
	metrics   []Metric
	observers []Observer
	log       zerolog.Logger
	workers   int
	step      int
	t         float64
}

type Option func(*World)

func WithLogger(l zerolog.Logger) Option {
	return func(w *World) { w.log = l }
}

// WithWorkers bounds how many dice are stepped concurrently.
func WithWorkers(n int) Option {
	return func(w *World) { w.workers = n }
}

func New(integ *rigid.Integrator, opts ...Option) *World {
	w := &World{
		integ:     integ,
		index:     make(map[string]int),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       zerolog.Nop(),
		workers:   1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) AddMetric(m Metric)     { w.metrics = append(w.metrics, m) }
func (w *World) AddObserver(o Observer) { w.observers = append(w.observers, o) }

func (w *World) Integrator() *rigid.Integrator { return w.integ }
func (w *World) Time() float64                 { return w.t }
func (w *World) Len() int                      { return len(w.dice) }

func (w *World) Add(name string, b *rigid.Body) error {
	if _, ok := w.index[name]; ok {
		return eris.Wrapf(ErrDuplicateDie, "add %q", name)
	}
	w.index[name] = len(w.dice)
	w.dice = append(w.dice, die{name: name, body: b})
	return nil
}

func (w *World) Body(name string) (*rigid.Body, bool) {
	i, ok := w.index[name]
	if !ok {
		return nil, false
	}
	return w.dice[i].body, true
}

func (w *World) Names() []string {
	names := make([]string, len(w.dice))
	for i, d := range w.dice {
		names[i] = d.name
	}
	return names
}

func (w *World) Throw(name string, velocity, spin, position mgl64.Vec3) error {
	b, ok := w.Body(name)
	if !ok {
		return eris.Wrapf(ErrUnknownDie, "throw %q", name)
	}
	if err := w.integ.Throw(b, velocity, spin, position); err != nil {
		return err
	}
	w.log.Debug().
		Str("die", name).
		Floats64("position", position[:]).
		Floats64("velocity", velocity[:]).
		Floats64("spin", spin[:]).
		Msg("die thrown")
	return nil
}

// Frame returns the current poses without stepping.
func (w *World) Frame() Frame {
	poses := make([]NamedPose, len(w.dice))
	for i, d := range w.dice {
		poses[i] = NamedPose{Name: d.name, Pose: rigid.Snapshot(d.body)}
	}
	return Frame{Step: w.step, Time: w.t, Poses: poses}
}

// Step advances every die by dt. Each body is owned by one goroutine for the
// duration of the step.
func (w *World) Step(dt float64) (Frame, error) {
	if err := rigid.CheckTimestep(dt); err != nil {
		return w.Frame(), err
	}

	before := make([]rigid.State, len(w.dice))
	for i, d := range w.dice {
		before[i] = d.body.State()
	}

	if err := w.stepAll(dt); err != nil {
		return w.Frame(), err
	}

	w.step++
	w.t += dt

	for i, d := range w.dice {
		if before[i] == rigid.Airborne && d.body.State() == rigid.Resting {
			p := d.body.Position()
			w.log.Info().
				Str("die", d.name).
				Float64("t", w.t).
				Floats64("position", p[:]).
				Msg("die settled")
		}
	}
	return w.Frame(), nil
}

func (w *World) stepAll(dt float64) error {
	if w.workers <= 1 || len(w.dice) <= 1 {
		for _, d := range w.dice {
			if _, err := w.integ.Step(d.body, dt); err != nil {
				return eris.Wrapf(err, "step %q", d.name)
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(w.workers)
	for _, d := range w.dice {
		g.Go(func() error {
			if _, err := w.integ.Step(d.body, dt); err != nil {
				return eris.Wrapf(err, "step %q", d.name)
			}
			return nil
		})
	}
	return g.Wait()
}

func (w *World) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Workers > 0 {
		w.workers = cfg.Workers
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Frames:    make([]Frame, 0, steps+1),
		Metrics:   make(map[string]float64),
		SettledAt: make(map[string]float64),
	}

	for _, m := range w.metrics {
		m.Reset()
	}

	frame := w.Frame()
	w.observe(frame)
	result.Frames = append(result.Frames, frame)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			w.collect(result)
			return result, ctx.Err()
		default:
		}

		if cfg.StopWhenResting && frame.AllResting() {
			break
		}

		prev := frame
		next, err := w.Step(cfg.Dt)
		if err != nil {
			return result, err
		}
		frame = next
		result.StepsTaken++

		for j, p := range frame.Poses {
			if prev.Poses[j].State == rigid.Airborne && p.State == rigid.Resting {
				result.SettledAt[p.Name] = frame.Time
			}
		}

		w.observe(frame)
		result.Frames = append(result.Frames, frame)
	}

	w.collect(result)
	w.log.Info().
		Int("steps", result.StepsTaken).
		Float64("t", w.t).
		Int("settled", len(result.SettledAt)).
		Msg("run finished")
	return result, nil
}

// RunWithCallback steps until the duration elapses or fn returns false.
func (w *World) RunWithCallback(ctx context.Context, cfg Config, fn func(Frame) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	end := w.t + cfg.Duration
	frame := w.Frame()
	for w.t < end {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !fn(frame) {
			return nil
		}
		if cfg.StopWhenResting && frame.AllResting() {
			return nil
		}

		var err error
		frame, err = w.Step(cfg.Dt)
		if err != nil {
			return err
		}
		w.observe(frame)
	}
	return nil
}

func (w *World) observe(f Frame) {
	for _, m := range w.metrics {
		m.Observe(f)
	}
	for _, o := range w.observers {
		o.OnFrame(f)
	}
}

func (w *World) collect(result *Result) {
	for _, m := range w.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return eris.Wrapf(ErrInvalidConfig, "dt must be positive, got %f", cfg.Dt)
	}
	if !(cfg.Duration > 0) || math.IsInf(cfg.Duration, 0) {
		return eris.Wrapf(ErrInvalidConfig, "duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Workers < 0 {
		return eris.Wrapf(ErrInvalidConfig, "workers must not be negative, got %d", cfg.Workers)
	}
	return nil
}
