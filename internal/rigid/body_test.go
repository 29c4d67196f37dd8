package rigid_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/diceroll/internal/rigid"
)

var _ = Describe("Body", func() {
	DescribeTable("rejects non-positive mass or size",
		func(mass, size float64) {
			_, err := rigid.NewBody(mass, size)
			Expect(err).To(MatchError(rigid.ErrInvalidBody))
		},
		Entry("zero mass", 0.0, 1.0),
		Entry("negative mass", -1.0, 1.0),
		Entry("zero size", 1.0, 0.0),
		Entry("NaN size", 1.0, math.NaN()),
		Entry("infinite mass", math.Inf(1), 1.0),
	)

	It("starts resting on the ground", func() {
		b := mustBody(10, 10)
		Expect(b.State()).To(Equal(rigid.Resting))
		Expect(b.Position()).To(Equal(mgl64.Vec3{0, 5, 0}))
		Expect(b.Velocity()).To(Equal(mgl64.Vec3{}))
		Expect(b.Orientation()).To(Equal(mgl64.QuatIdent()))
		Expect(b.Energy(9.8)).To(Equal(0.0))
	})

	It("counts height, speed and spin in its energy", func() {
		b := mustBody(2, 1)
		Expect(rigid.Default().Throw(b, mgl64.Vec3{3, 0, 0}, mgl64.Vec3{0, 6, 0}, mgl64.Vec3{0, 10.5, 0})).To(Succeed())

		ke := 0.5 * 2 * 9.0
		rot := 0.5 * (2.0 / 6.0) * 36
		pe := 2 * 9.8 * 10
		Expect(b.Energy(9.8)).To(BeNumerically("~", ke+rot+pe, 1e-9))
	})

	It("clones independently", func() {
		b := mustBody(1, 1)
		c := b.Clone()
		Expect(rigid.Default().Throw(c, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 3, 0})).To(Succeed())
		Expect(b.State()).To(Equal(rigid.Resting))
		Expect(c.State()).To(Equal(rigid.Airborne))
	})

	It("marshals its state by name", func() {
		text, err := rigid.Airborne.MarshalText()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(text)).To(Equal("airborne"))

		var st rigid.State
		Expect(st.UnmarshalText([]byte("resting"))).To(Succeed())
		Expect(st).To(Equal(rigid.Resting))
		Expect(st.UnmarshalText([]byte("flying"))).NotTo(Succeed())
	})
})

var _ = Describe("Params", func() {
	It("accepts the defaults", func() {
		Expect(rigid.DefaultParams().Validate()).To(Succeed())
		_, err := rigid.NewIntegrator(rigid.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
	})

	DescribeTable("rejects out-of-range values",
		func(mutate func(*rigid.Params), name string) {
			p := rigid.DefaultParams()
			mutate(&p)
			err := p.Validate()
			Expect(err).To(MatchError(rigid.ErrParameterBounds))
			Expect(err.Error()).To(ContainSubstring(name))

			_, err = rigid.NewIntegrator(p)
			Expect(err).To(MatchError(rigid.ErrParameterBounds))
		},
		Entry("negative gravity", func(p *rigid.Params) { p.Gravity = -1 }, "gravity"),
		Entry("restitution above one", func(p *rigid.Params) { p.Restitution = 1.5 }, "restitution"),
		Entry("negative friction", func(p *rigid.Params) { p.Friction = -0.1 }, "friction"),
		Entry("zero rest threshold", func(p *rigid.Params) { p.RestThreshold = 0 }, "rest_threshold"),
		Entry("NaN gravity", func(p *rigid.Params) { p.Gravity = math.NaN() }, "gravity"),
	)

	It("exposes and updates params by name", func() {
		p := rigid.DefaultParams()
		Expect(p.GetParams()).To(HaveKeyWithValue("friction", 0.8))

		Expect(p.SetParam("friction", 0.5)).To(Succeed())
		Expect(p.Friction).To(Equal(0.5))

		Expect(p.SetParam("friction", 2)).To(MatchError(rigid.ErrParameterBounds))
		Expect(p.Friction).To(Equal(0.5))

		Expect(p.SetParam("drag", 1)).To(MatchError(ContainSubstring("unknown param")))
	})
})

var _ = Describe("Pose", func() {
	It("converts orientation to axis-angle and Euler angles", func() {
		p := rigid.Pose{Orientation: mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0}), Size: 1}

		axis, angle := p.AxisAngle()
		Expect(angle).To(BeNumerically("~", 0.3, 1e-12))
		Expect(axis.ApproxEqual(mgl64.Vec3{0, 1, 0})).To(BeTrue())

		euler := p.Euler()
		Expect(euler.Y()).To(BeNumerically("~", 0.3, 1e-12))
		Expect(euler.X()).To(BeNumerically("~", 0, 1e-12))
	})

	It("returns a default axis for the identity rotation", func() {
		axis, angle := rigid.Pose{Orientation: mgl64.QuatIdent()}.AxisAngle()
		Expect(angle).To(Equal(0.0))
		Expect(axis).To(Equal(mgl64.Vec3{1, 0, 0}))
	})

	It("places corners around the center", func() {
		p := rigid.Snapshot(mustBody(10, 10))
		corners := p.Corners()
		Expect(corners[0].ApproxEqual(mgl64.Vec3{-5, 0, -5})).To(BeTrue())
		Expect(corners[6].ApproxEqual(mgl64.Vec3{5, 10, 5})).To(BeTrue())

		for _, e := range rigid.CubeEdges {
			Expect(corners[e[0]].Sub(corners[e[1]]).Len()).To(BeNumerically("~", 10, 1e-9))
		}
	})
})
