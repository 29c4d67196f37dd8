package world_test

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/san-kum/diceroll/internal/rigid"
	"github.com/san-kum/diceroll/internal/world"
)

type frameCounter struct{ frames int }

func (c *frameCounter) OnFrame(world.Frame) { c.frames++ }

type airborneMetric struct{ samples, airborne int }

func (m *airborneMetric) Name() string { return "airborne_fraction" }
func (m *airborneMetric) Observe(f world.Frame) {
	for _, p := range f.Poses {
		m.samples++
		if p.State == rigid.Airborne {
			m.airborne++
		}
	}
}
func (m *airborneMetric) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.airborne) / float64(m.samples)
}
func (m *airborneMetric) Reset() { m.samples, m.airborne = 0, 0 }

func newDie() *rigid.Body {
	b, err := rigid.NewBody(10, 10)
	Expect(err).NotTo(HaveOccurred())
	return b
}

var _ = Describe("World", func() {
	var w *world.World

	BeforeEach(func() {
		w = world.New(rigid.Default(), world.WithWorkers(4))
	})

	It("rejects duplicate and unknown dice", func() {
		Expect(w.Add("a", newDie())).To(Succeed())
		Expect(w.Add("a", newDie())).To(MatchError(world.ErrDuplicateDie))
		Expect(w.Throw("b", mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 20, 0})).To(MatchError(world.ErrUnknownDie))
		Expect(w.Names()).To(Equal([]string{"a"}))
	})

	It("passes throw validation errors through", func() {
		Expect(w.Add("a", newDie())).To(Succeed())
		Expect(w.Throw("a", mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 5, 0})).To(MatchError(rigid.ErrInvalidThrow))
	})

	It("rejects a bad dt before touching any die", func() {
		Expect(w.Add("a", newDie())).To(Succeed())
		Expect(w.Throw("a", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{}, mgl64.Vec3{0, 20, 0})).To(Succeed())
		before := w.Frame()

		_, err := w.Step(-1)
		Expect(err).To(MatchError(rigid.ErrInvalidTimestep))
		Expect(w.Frame()).To(Equal(before))
	})

	It("steps dice in parallel exactly like stepping them alone", func() {
		integ := rigid.Default()
		solo := make([]*rigid.Body, 8)
		for i := range solo {
			solo[i] = newDie()
			name := fmt.Sprintf("d%d", i)
			Expect(w.Add(name, newDie())).To(Succeed())

			v := mgl64.Vec3{float64(i), 0, float64(-i)}
			spin := mgl64.Vec3{0.1 * float64(i), 0, 0.2}
			pos := mgl64.Vec3{float64(i) * 15, 20 + float64(i), 0}
			Expect(w.Throw(name, v, spin, pos)).To(Succeed())
			Expect(integ.Throw(solo[i], v, spin, pos)).To(Succeed())
		}

		for step := 0; step < 500; step++ {
			frame, err := w.Step(0.01)
			Expect(err).NotTo(HaveOccurred())
			for i, b := range solo {
				_, err := integ.Step(b, 0.01)
				Expect(err).NotTo(HaveOccurred())
				Expect(frame.Poses[i].Pose).To(Equal(rigid.Snapshot(b)))
			}
		}
	})

	Describe("Run", func() {
		It("validates the config", func() {
			_, err := w.Run(context.Background(), world.Config{Dt: 0, Duration: 1})
			Expect(err).To(MatchError(world.ErrInvalidConfig))
			_, err = w.Run(context.Background(), world.Config{Dt: 0.1, Duration: -1})
			Expect(err).To(MatchError(world.ErrInvalidConfig))
		})

		It("stops once every die rests and records when", func() {
			var buf bytes.Buffer
			w = world.New(rigid.Default(), world.WithLogger(zerolog.New(&buf)))
			Expect(w.Add("classic", newDie())).To(Succeed())
			Expect(w.Throw("classic", mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 0, 0.1}, mgl64.Vec3{0, 50, 0})).To(Succeed())

			counter := &frameCounter{}
			metric := &airborneMetric{}
			w.AddObserver(counter)
			w.AddMetric(metric)

			cfg := world.DefaultConfig()
			cfg.Duration = 60
			result, err := w.Run(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.SettledAt).To(HaveKey("classic"))
			Expect(result.StepsTaken).To(BeNumerically("<", int(60/cfg.Dt)))
			Expect(result.Frames).To(HaveLen(result.StepsTaken + 1))
			Expect(result.Frames[len(result.Frames)-1].AllResting()).To(BeTrue())
			Expect(result.Metrics).To(HaveKey("airborne_fraction"))
			Expect(counter.frames).To(Equal(len(result.Frames)))
			Expect(buf.String()).To(ContainSubstring("die settled"))
		})

		It("honours cancellation", func() {
			Expect(w.Add("a", newDie())).To(Succeed())
			Expect(w.Throw("a", mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 1000, 0})).To(Succeed())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			result, err := w.Run(ctx, world.DefaultConfig())
			Expect(err).To(MatchError(context.Canceled))
			Expect(result.StepsTaken).To(Equal(0))
		})
	})

	It("stops a callback run when asked", func() {
		Expect(w.Add("a", newDie())).To(Succeed())
		Expect(w.Throw("a", mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 1000, 0})).To(Succeed())

		calls := 0
		err := w.RunWithCallback(context.Background(), world.DefaultConfig(), func(f world.Frame) bool {
			calls++
			return calls < 10
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(10))
		Expect(w.Frame().Step).To(Equal(9))
	})
})

var _ = Describe("FrameClock", func() {
	It("carries leftover time between frames", func() {
		c := world.NewFrameClock(0.25, 10)
		Expect(c.Advance(0.625)).To(Equal(2))
		Expect(c.Alpha()).To(Equal(0.5))
		Expect(c.Advance(0.125)).To(Equal(1))
		Expect(c.Alpha()).To(Equal(0.0))
	})

	It("caps the steps per frame and drops the backlog", func() {
		c := world.NewFrameClock(0.01, 3)
		Expect(c.Advance(1)).To(Equal(3))
		Expect(c.Alpha()).To(Equal(0.0))
	})

	It("ignores non-positive deltas", func() {
		c := world.NewFrameClock(0.01, 3)
		Expect(c.Advance(0)).To(Equal(0))
		Expect(c.Advance(-1)).To(Equal(0))
	})
})
