// Package gui is the raylib window behind the gui command. It steps a
// world every frame through a FrameClock and draws each die as a wire cube
// over a floor grid and colored axes, viewed from (30, 50, 120) by an
// orbiting camera.
package gui
