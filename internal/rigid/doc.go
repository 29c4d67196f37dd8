// Package rigid integrates thrown cubes falling onto the ground plane y = 0.
//
// The package owns nothing global. Every [Body] carries its own state and an
// [Integrator] is a pure function of its [Params] plus the body it is given:
//
//   - [Body]: mass, edge length, position, orientation, velocities, state
//   - [Integrator]: semi-implicit Euler with ground contact and rest detection
//   - [Pose]: read-only snapshot handed to renderers
//
// # Example
//
//	die, _ := rigid.NewBody(10, 10)
//	integ := rigid.Default()
//	_ = integ.Throw(die, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 0, 0.1}, mgl64.Vec3{0, 50, 0})
//	for {
//		st, _ := integ.Step(die, 1.0/60)
//		if st == rigid.Resting {
//			break
//		}
//	}
//
// # Thread Safety
//
// Distinct bodies may be stepped from distinct goroutines. Steps of the same
// body must be sequential.
package rigid
