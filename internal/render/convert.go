// Package render turns network outputs into displayable images.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/Brownie44l1/derender-viz/internal/model"
)

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func planes(t *model.Tensor, channels int) (w, h int, err error) {
	if len(t.Shape) < 3 {
		return 0, 0, fmt.Errorf("tensor shape %v is not image-like", t.Shape)
	}
	w, h = t.Dim(1), t.Dim(2)
	if t.Dim(3) < channels {
		return 0, 0, fmt.Errorf("tensor shape %v has fewer than %d channels", t.Shape, channels)
	}
	if len(t.Data) < t.Dim(3)*w*h {
		return 0, 0, fmt.Errorf("tensor data too short for shape %v", t.Shape)
	}
	return w, h, nil
}

// RGB interleaves the first three channels of the first batch entry into
// HWC order. With shift set, values are clamped to [-1, 1] and mapped to
// [0, 1].
func RGB(t *model.Tensor, shift bool) ([]float32, int, int, error) {
	w, h, err := planes(t, 3)
	if err != nil {
		return nil, 0, 0, err
	}
	n := w * h
	out := make([]float32, 3*n)
	for c := 0; c < 3; c++ {
		src := t.Data[c*n : (c+1)*n]
		for p, v := range src {
			if shift {
				v = clamp(v, -1, 1)/2 + .5
			}
			out[p*3+c] = v
		}
	}
	return out, w, h, nil
}

// NormalRGB maps a unit normal map from [-1, 1] to [0, 1] without clamping.
func NormalRGB(t *model.Tensor) ([]float32, int, int, error) {
	out, w, h, err := RGB(t, false)
	if err != nil {
		return nil, 0, 0, err
	}
	for i, v := range out {
		out[i] = v/2 + .5
	}
	return out, w, h, nil
}

// Grey extracts one channel of the first batch entry.
func Grey(t *model.Tensor, channel int) ([]float32, int, int, error) {
	w, h, err := planes(t, channel+1)
	if err != nil {
		return nil, 0, 0, err
	}
	n := w * h
	return append([]float32(nil), t.Data[channel*n:(channel+1)*n]...), w, h, nil
}

// Depth rescales a depth map so that [near, far] covers [0, 1].
func Depth(t *model.Tensor, near, far float64) ([]float32, int, int, error) {
	if far <= near {
		return nil, 0, 0, fmt.Errorf("depth range [%g, %g] is empty", near, far)
	}
	out, w, h, err := Grey(t, 0)
	if err != nil {
		return nil, 0, 0, err
	}
	for i, v := range out {
		out[i] = float32((float64(v) - near) / (far - near))
	}
	return out, w, h, nil
}

// FlipXY inverts the first two channels of an HWC buffer in place.
func FlipXY(hwc []float32) {
	for i := 0; i+2 < len(hwc); i += 3 {
		hwc[i] = 1 - hwc[i]
		hwc[i+1] = 1 - hwc[i+1]
	}
}

// Mask marks the values strictly greater than threshold.
func Mask(plane []float32, threshold float32) []bool {
	out := make([]bool, len(plane))
	for i, v := range plane {
		out[i] = v > threshold
	}
	return out
}

// ApplyMask zeroes every pixel outside the mask. An HW mask is broadcast over
// all channels of the buffer. A nil mask leaves the values untouched.
func ApplyMask(values []float32, channels int, mask []bool) ([]float32, error) {
	if mask == nil {
		return values, nil
	}
	if len(mask)*channels != len(values) {
		return nil, fmt.Errorf("mask of %d pixels does not match %d values with %d channels", len(mask), len(values), channels)
	}
	out := append([]float32(nil), values...)
	for p, keep := range mask {
		if keep {
			continue
		}
		for c := 0; c < channels; c++ {
			out[p*channels+c] = 0
		}
	}
	return out, nil
}

func toByte(v float32) uint8 {
	x := v * 255
	if x <= 0 {
		return 0
	}
	if x >= 255 {
		return 255
	}
	return uint8(x)
}

// ToImage quantises [0, 1] values to 8 bits. One channel produces a grey
// image, three channels an opaque NRGBA image.
func ToImage(values []float32, w, h, channels int) (image.Image, error) {
	if len(values) != w*h*channels {
		return nil, fmt.Errorf("got %d values for %dx%dx%d", len(values), w, h, channels)
	}
	switch channels {
	case 1:
		img := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetGray(x, y, color.Gray{Y: toByte(values[y*w+x])})
			}
		}
		return img, nil
	case 3:
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			row := y * img.Stride
			for x := 0; x < w; x++ {
				src := (y*w + x) * 3
				p := row + x*4
				img.Pix[p+0] = toByte(values[src+0])
				img.Pix[p+1] = toByte(values[src+1])
				img.Pix[p+2] = toByte(values[src+2])
				img.Pix[p+3] = 0xFF
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}
}
