package rigid_test

import (
	"errors"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/diceroll/internal/rigid"
)

func mustBody(mass, size float64) *rigid.Body {
	b, err := rigid.NewBody(mass, size)
	Expect(err).NotTo(HaveOccurred())
	return b
}

var _ = Describe("Integrator", func() {
	var integ *rigid.Integrator

	BeforeEach(func() {
		integ = rigid.Default()
	})

	Describe("Throw", func() {
		It("puts the body in flight with the given state", func() {
			b := mustBody(10, 10)
			Expect(integ.Throw(b, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 0, 0.1}, mgl64.Vec3{0, 50, 0})).To(Succeed())

			Expect(b.State()).To(Equal(rigid.Airborne))
			Expect(b.Position()).To(Equal(mgl64.Vec3{0, 50, 0}))
			Expect(b.Velocity()).To(Equal(mgl64.Vec3{2, 0, 0}))
			Expect(b.AngularVelocity()).To(Equal(mgl64.Vec3{0, 0, 0.1}))
			Expect(b.Force()).To(Equal(mgl64.Vec3{}))
		})

		It("clears the force left over from a previous flight", func() {
			b := mustBody(10, 10)
			Expect(integ.Throw(b, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 50, 0})).To(Succeed())
			_, err := integ.Step(b, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Force().Y()).To(BeNumerically("<", 0))

			Expect(integ.Throw(b, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 30, 0})).To(Succeed())
			Expect(b.Force()).To(Equal(mgl64.Vec3{}))
		})

		DescribeTable("rejects starts at or below contact height and leaves the body alone",
			func(pos mgl64.Vec3) {
				b := mustBody(10, 10)
				before := rigid.Snapshot(b)

				err := integ.Throw(b, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, pos)
				Expect(err).To(MatchError(rigid.ErrInvalidThrow))

				var te *rigid.ThrowError
				Expect(errors.As(err, &te)).To(BeTrue())
				Expect(te.Min).To(Equal(5.0))
				Expect(rigid.Snapshot(b)).To(Equal(before))
			},
			Entry("exactly at contact height", mgl64.Vec3{0, 5, 0}),
			Entry("below contact height", mgl64.Vec3{0, 1, 0}),
			Entry("under the ground", mgl64.Vec3{0, -3, 0}),
			Entry("non-finite height", mgl64.Vec3{0, math.NaN(), 0}),
		)

		DescribeTable("names the non-finite input",
			func(vel, spin, pos mgl64.Vec3, field string) {
				b := mustBody(10, 10)
				before := rigid.Snapshot(b)

				err := integ.Throw(b, vel, spin, pos)
				Expect(err).To(MatchError(rigid.ErrInvalidThrow))

				var te *rigid.ThrowError
				Expect(errors.As(err, &te)).To(BeTrue())
				Expect(te.Field).To(Equal(field))
				Expect(err.Error()).To(ContainSubstring(field + " is not finite"))
				Expect(err.Error()).NotTo(ContainSubstring("need >"))
				Expect(rigid.Snapshot(b)).To(Equal(before))
			},
			Entry("velocity", mgl64.Vec3{math.NaN(), 0, 0}, mgl64.Vec3{}, mgl64.Vec3{0, 50, 0}, "velocity"),
			Entry("spin", mgl64.Vec3{}, mgl64.Vec3{0, math.Inf(1), 0}, mgl64.Vec3{0, 50, 0}, "spin"),
			Entry("position", mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{math.Inf(-1), 50, 0}, "position"),
		)

		It("reports a low start by height", func() {
			err := integ.Throw(mustBody(10, 10), mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 2, 0})

			var te *rigid.ThrowError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.Field).To(BeEmpty())
			Expect(err.Error()).To(ContainSubstring("need > 5.0000"))
		})
	})

	Describe("Step", func() {
		DescribeTable("rejects bad timesteps without touching the body",
			func(dt float64) {
				b := mustBody(10, 10)
				Expect(integ.Throw(b, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 0, 0.1}, mgl64.Vec3{0, 50, 0})).To(Succeed())
				before := rigid.Snapshot(b)

				_, err := integ.Step(b, dt)
				Expect(err).To(MatchError(rigid.ErrInvalidTimestep))
				Expect(rigid.Snapshot(b)).To(Equal(before))
			},
			Entry("zero", 0.0),
			Entry("negative", -1.0),
			Entry("NaN", math.NaN()),
			Entry("+Inf", math.Inf(1)),
		)

		It("rejects bad timesteps on a resting body too", func() {
			b := mustBody(1, 1)
			_, err := integ.Step(b, 0)
			Expect(err).To(MatchError(rigid.ErrInvalidTimestep))
		})

		It("applies gravity then moves with the new velocity", func() {
			b := mustBody(10, 10)
			Expect(integ.Throw(b, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{}, mgl64.Vec3{0, 50, 0})).To(Succeed())

			st, err := integ.Step(b, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(st).To(Equal(rigid.Airborne))
			Expect(b.Force()).To(Equal(mgl64.Vec3{0, -98, 0}))
			Expect(b.Velocity().Y()).To(BeNumerically("~", -9.8, 1e-12))
			Expect(b.Position().Y()).To(BeNumerically("~", 40.2, 1e-12))
			Expect(b.Position().X()).To(BeNumerically("~", 2, 1e-12))
		})

		It("rotates the orientation by the angular velocity", func() {
			b := mustBody(10, 10)
			Expect(integ.Throw(b, mgl64.Vec3{}, mgl64.Vec3{0, 0, 0.1}, mgl64.Vec3{0, 50, 0})).To(Succeed())

			_, err := integ.Step(b, 1)
			Expect(err).NotTo(HaveOccurred())

			euler := rigid.Snapshot(b).Euler()
			Expect(euler.X()).To(BeNumerically("~", 0, 1e-9))
			Expect(euler.Y()).To(BeNumerically("~", 0, 1e-9))
			Expect(euler.Z()).To(BeNumerically("~", 0.1, 1e-9))
			Expect(b.Orientation().Len()).To(BeNumerically("~", 1, 1e-12))
		})

		Describe("impact threshold", func() {
			// One step of gravity adds g*dt, so with dt=1 an impact no faster
			// than restThreshold+g = 9.85 is a body settling, not a bounce.
			It("stops an impact within one step of gravity", func() {
				b := mustBody(10, 10)
				Expect(integ.Throw(b, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 5.5, 0})).To(Succeed())

				st, err := integ.Step(b, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(st).To(Equal(rigid.Resting))
				Expect(b.Velocity()).To(Equal(mgl64.Vec3{}))
				Expect(b.Position().Y()).To(Equal(5.0))
			})

			It("bounces an impact faster than one step of gravity", func() {
				b := mustBody(10, 10)
				Expect(integ.Throw(b, mgl64.Vec3{0, -3, 0}, mgl64.Vec3{}, mgl64.Vec3{0, 5.5, 0})).To(Succeed())

				st, err := integ.Step(b, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(st).To(Equal(rigid.Airborne))
				Expect(b.Velocity().Y()).To(BeNumerically("~", 12.8*0.3, 1e-9))
				Expect(b.Position().Y()).To(Equal(5.0))
			})

			It("bounces slow impacts when dt is small", func() {
				fine := mustBody(10, 10)
				Expect(integ.Throw(fine, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{}, mgl64.Vec3{0, 5.00001, 0})).To(Succeed())
				st, err := integ.Step(fine, 1e-4)
				Expect(err).NotTo(HaveOccurred())
				Expect(st).To(Equal(rigid.Airborne))
				Expect(fine.Velocity().Y()).To(BeNumerically("~", (1+9.8e-4)*0.3, 1e-9))
			})
		})

		It("uses per-call params with StepWith", func() {
			b := mustBody(1, 1)
			Expect(integ.Throw(b, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 10, 0})).To(Succeed())

			p := rigid.DefaultParams()
			p.Gravity = 0
			_, err := integ.StepWith(b, 1, p)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Position().Y()).To(Equal(10.0))

			p.Restitution = 2
			_, err = integ.StepWith(b, 1, p)
			Expect(err).To(MatchError(rigid.ErrParameterBounds))
		})

		It("follows the classic die throw to rest", func() {
			b := mustBody(10, 10)
			Expect(integ.Throw(b, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 0, 0.1}, mgl64.Vec3{0, 50, 0})).To(Succeed())

			prevY := b.Position().Y()
			for i := 1; i <= 2; i++ {
				st, err := integ.Step(b, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(st).To(Equal(rigid.Airborne))
				Expect(b.Position().Y()).To(BeNumerically("<", prevY))
				prevY = b.Position().Y()
			}

			st, err := integ.Step(b, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(st).To(Equal(rigid.Airborne))
			Expect(b.Position().Y()).To(Equal(5.0))
			Expect(b.Velocity().Y()).To(BeNumerically("~", 8.82, 1e-9))
			Expect(b.Velocity().X()).To(BeNumerically("~", 1.6, 1e-12))
			Expect(b.AngularVelocity().Z()).To(BeNumerically("~", 0.08, 1e-12))

			steps := 3
			for st != rigid.Resting && steps < 100 {
				st, err = integ.Step(b, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(b.Position().Y()).To(BeNumerically("<", 50.0))
				steps++
			}

			Expect(st).To(Equal(rigid.Resting))
			Expect(b.Position().Y()).To(Equal(5.0))
			Expect(b.Velocity()).To(Equal(mgl64.Vec3{}))
			Expect(b.AngularVelocity()).To(Equal(mgl64.Vec3{}))
		})
	})

	Describe("physical properties", func() {
		It("never lets a bounce peak exceed the previous one", func() {
			b := mustBody(1, 1)
			Expect(integ.Throw(b, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 20, 0})).To(Succeed())

			peaks := []float64{20}
			current := math.Inf(-1)
			st := rigid.Airborne
			for i := 0; i < 200000 && st != rigid.Resting; i++ {
				var err error
				st, err = integ.Step(b, 0.001)
				Expect(err).NotTo(HaveOccurred())

				y := b.Position().Y()
				if y == b.GroundHeight() {
					if !math.IsInf(current, -1) {
						peaks = append(peaks, current)
					}
					current = math.Inf(-1)
					continue
				}
				current = math.Max(current, y)
			}

			Expect(st).To(Equal(rigid.Resting))
			Expect(len(peaks)).To(BeNumerically(">", 2))
			for i := 1; i < len(peaks); i++ {
				Expect(peaks[i]).To(BeNumerically("<=", peaks[i-1]))
			}
		})

		It("never penetrates the ground", func() {
			rng := rand.New(rand.NewSource(7))
			b := mustBody(3, 2)
			for throw := 0; throw < 20; throw++ {
				v := mgl64.Vec3{rng.Float64()*20 - 10, rng.Float64()*40 - 20, rng.Float64()*20 - 10}
				w := mgl64.Vec3{rng.Float64() * 5, rng.Float64() * 5, rng.Float64() * 5}
				Expect(integ.Throw(b, v, w, mgl64.Vec3{0, 1.5 + rng.Float64()*30, 0})).To(Succeed())

				for i := 0; i < 2000; i++ {
					dt := 0.001 + rng.Float64()*0.2
					_, err := integ.Step(b, dt)
					Expect(err).NotTo(HaveOccurred())
					Expect(b.Position().Y()).To(BeNumerically(">=", b.GroundHeight()))
				}
			}
		})

		It("keeps a resting body still", func() {
			b := mustBody(10, 10)
			Expect(integ.Throw(b, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 12, 0})).To(Succeed())
			st := rigid.Airborne
			for i := 0; i < 10000 && st != rigid.Resting; i++ {
				st, _ = integ.Step(b, 0.01)
			}
			Expect(st).To(Equal(rigid.Resting))

			rest := rigid.Snapshot(b)
			for i := 0; i < 50; i++ {
				st, err := integ.Step(b, 0.01)
				Expect(err).NotTo(HaveOccurred())
				Expect(st).To(Equal(rigid.Resting))
				Expect(rigid.Snapshot(b)).To(Equal(rest))
			}
		})

		It("is deterministic", func() {
			a, b := mustBody(2, 1), mustBody(2, 1)
			for _, body := range []*rigid.Body{a, b} {
				Expect(integ.Throw(body, mgl64.Vec3{3, 4, -1}, mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0, 8, 0})).To(Succeed())
			}

			other := rigid.Default()
			for i := 0; i < 3000; i++ {
				dt := 0.002 + float64(i%7)*0.003
				_, errA := integ.Step(a, dt)
				_, errB := other.Step(b, dt)
				Expect(errA).NotTo(HaveOccurred())
				Expect(errB).NotTo(HaveOccurred())
				Expect(rigid.Snapshot(a)).To(Equal(rigid.Snapshot(b)))
			}
		})
	})
})
