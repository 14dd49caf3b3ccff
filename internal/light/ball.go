package light

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Ball shades a unit sphere seen head-on from +z with a directional light,
// producing a size x size row-major plane. Row 0 is the top of the sphere.
// Pixels outside the silhouette are 0.
func Ball(dir r3.Vec, size int) []float32 {
	out := make([]float32, max(size, 0)*max(size, 0))
	if size <= 0 || r3.Norm(dir) == 0 {
		return out
	}
	l := r3.Unit(dir)

	half := float64(size) / 2
	for j := 0; j < size; j++ {
		// pixel centres, y up
		y := (half - (float64(j) + .5)) / half
		for i := 0; i < size; i++ {
			x := (float64(i) + .5 - half) / half
			r2 := x*x + y*y
			if r2 > 1 {
				continue
			}
			n := r3.Vec{X: x, Y: y, Z: math.Sqrt(1 - r2)}
			if s := r3.Dot(n, l); s > 0 {
				out[j*size+i] = float32(s)
			}
		}
	}
	return out
}
