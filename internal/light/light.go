// Package light drives the synthetic light that is swept around an object
// while its decomposition is re-shaded frame by frame.
package light

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Light overrides the network's own lighting estimate.
// A is the ambient and B the directional intensity; DX, DY place the light.
type Light struct {
	A, B   float64
	DX, DY float64
}

// Vector packs the light in the order the network expects it.
func (l Light) Vector() []float32 {
	return []float32{float32(l.A), float32(l.B), float32(l.DX), float32(l.DY)}
}

// Sweep parameterises the light trajectory across frames.
type Sweep struct {
	RotStart float64
	RotTime  float64 // frames per revolution
	DStart   float64
	DSpeed   float64
	AMin     float64
	AMax     float64
	BMin     float64
	BMax     float64
	Frames   int
}

// XY returns the light position for a frame.
func (s Sweep) XY(frame int) (x, y float64) {
	rotation := s.RotStart + float64(frame)/s.RotTime*math.Pi*2
	d := s.DStart + float64(frame)*s.DSpeed
	return math.Sin(rotation) * d, math.Cos(rotation)*d*.5 + .5
}

// Intensity interpolates ambient and directional strength over the sweep.
// Frame 1 sits at the minimum and frame Frames at the maximum.
func (s Sweep) Intensity(frame int) (a, b float64) {
	lam := float64(frame-1) / float64(max(s.Frames-1, 1))
	a = (1-lam)*s.AMin + lam*s.AMax
	b = (1-lam)*s.BMin + lam*s.BMax
	return a, b
}

// Direction is the unit vector pointing towards the light.
func (s Sweep) Direction(frame int) r3.Vec {
	x, y := s.XY(frame)
	return r3.Unit(r3.Vec{X: x, Y: y, Z: 1})
}

// At returns the light override for a frame. Frame 0 returns nil so that
// the network renders with the lighting it predicted itself.
func (s Sweep) At(frame int) *Light {
	if frame == 0 {
		return nil
	}
	x, y := s.XY(frame)
	a, b := s.Intensity(frame)
	return &Light{A: a, B: b, DX: x, DY: y}
}
