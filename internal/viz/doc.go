// Package viz renders dice in the terminal.
//
// A [Scene] turns a [world.Frame] into a [Wireframe] of axes, floor grid and
// cubes, and [Render3D] projects it onto a braille [Canvas]. [Model] is the
// Bubble Tea program behind the live command.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Throw every die again
//	T     - Cycle color themes
//	Q     - Quit
package viz
