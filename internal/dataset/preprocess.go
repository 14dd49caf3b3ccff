package dataset

import (
	"image"

	"github.com/nfnt/resize"
)

// Preprocess resizes img to size x size and packs it planar (CHW) with
// values scaled from [0, 1] to [-1, 1].
func Preprocess(img image.Image, size int) []float32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	inputData := make([]float32, 3*width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			pixelIndex := y*width + x
			inputData[pixelIndex] = float32(r)/65535.0*2 - 1
			inputData[width*height+pixelIndex] = float32(g)/65535.0*2 - 1
			inputData[2*width*height+pixelIndex] = float32(b)/65535.0*2 - 1
		}
	}
	return inputData
}

// Plane resizes img to size x size and returns its first channel in [0, 1].
// Bilinear filtering keeps mask edges from ringing.
func Plane(img image.Image, size int) []float32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	out := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out[y*width+x] = float32(r) / 65535.0
		}
	}
	return out
}
