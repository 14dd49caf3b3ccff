package render

import (
	"image"
	"math"
	"testing"

	"github.com/Brownie44l1/derender-viz/internal/model"
)

func approx(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-6 }

// 1x3x1x2 tensor: two pixels, planar channels.
func rgbTensor() *model.Tensor {
	return &model.Tensor{
		Shape: []int64{1, 3, 1, 2},
		Data: []float32{
			-2, 1, // R
			0, .5, // G
			-.5, 3, // B
		},
	}
}

func TestRGBShift(t *testing.T) {
	out, w, h, err := RGB(rgbTensor(), true)
	if err != nil {
		t.Fatal(err)
	}
	if w != 2 || h != 1 {
		t.Fatalf("got %dx%d", w, h)
	}
	want := []float32{0, .5, .25, 1, .75, 1}
	for i := range want {
		if !approx(out[i], want[i]) {
			t.Fatalf("value %d: got %g want %g (%v)", i, out[i], want[i], out)
		}
	}
}

func TestNormalRGBDoesNotClamp(t *testing.T) {
	out, _, _, err := NormalRGB(rgbTensor())
	if err != nil {
		t.Fatal(err)
	}
	if !approx(out[0], -.5) || !approx(out[5], 2) {
		t.Fatalf("normal mapping should be linear: %v", out)
	}
}

func TestRGBRejectsGrey(t *testing.T) {
	grey := &model.Tensor{Shape: []int64{1, 1, 2, 2}, Data: make([]float32, 4)}
	if _, _, _, err := RGB(grey, true); err == nil {
		t.Fatal("expected error for single channel tensor")
	}
	short := &model.Tensor{Shape: []int64{1, 3, 2, 2}, Data: make([]float32, 5)}
	if _, _, _, err := RGB(short, true); err == nil {
		t.Fatal("expected error for short data")
	}
	if _, _, _, err := RGB(&model.Tensor{Shape: []int64{4}}, true); err == nil {
		t.Fatal("expected error for flat tensor")
	}
}

func TestGreyAndDepth(t *testing.T) {
	tensor := &model.Tensor{Shape: []int64{1, 2, 1, 2}, Data: []float32{.9, 1.1, 7, 8}}
	g, w, h, err := Grey(tensor, 1)
	if err != nil {
		t.Fatal(err)
	}
	if w != 2 || h != 1 || g[0] != 7 || g[1] != 8 {
		t.Fatalf("channel 1: %v", g)
	}
	g[0] = 0
	if tensor.Data[2] != 7 {
		t.Fatal("Grey must copy")
	}

	d, _, _, err := Depth(tensor, .9, 1.1)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(d[0], 0) || math.Abs(float64(d[1]-1)) > 1e-5 {
		t.Fatalf("depth normalisation: %v", d)
	}
	if _, _, _, err := Depth(tensor, 1, 1); err == nil {
		t.Fatal("expected error for empty range")
	}
}

func TestFlipXY(t *testing.T) {
	hwc := []float32{.2, .3, .4, 1, 0, .5}
	FlipXY(hwc)
	want := []float32{.8, .7, .4, 0, 1, .5}
	for i := range want {
		if !approx(hwc[i], want[i]) {
			t.Fatalf("got %v", hwc)
		}
	}
}

func TestMaskAndApply(t *testing.T) {
	m := Mask([]float32{.2, .6, .5}, .5)
	if m[0] || !m[1] || m[2] {
		t.Fatalf("threshold is strict: %v", m)
	}

	rgb := []float32{1, 1, 1, 2, 2, 2, 3, 3, 3}
	out, err := ApplyMask(rgb, 3, m)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{0, 0, 0, 2, 2, 2, 0, 0, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("broadcast mask: %v", out)
		}
	}
	if rgb[0] != 1 {
		t.Fatal("ApplyMask must not modify its input")
	}

	same, err := ApplyMask(rgb, 3, nil)
	if err != nil || &same[0] != &rgb[0] {
		t.Fatal("nil mask should pass values through")
	}
	if _, err := ApplyMask(rgb, 1, m); err == nil {
		t.Fatal("expected size mismatch error")
	}
}

func TestToImage(t *testing.T) {
	img, err := ToImage([]float32{-1, .5, 2, 1}, 2, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	g, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("expected *image.Gray, got %T", img)
	}
	if g.GrayAt(0, 0).Y != 0 || g.GrayAt(1, 0).Y != 127 || g.GrayAt(0, 1).Y != 255 || g.GrayAt(1, 1).Y != 255 {
		t.Fatalf("unexpected grey pixels %v", g.Pix)
	}

	img, err = ToImage([]float32{1, 0, .5}, 1, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	n := img.(*image.NRGBA)
	if n.Pix[0] != 255 || n.Pix[1] != 0 || n.Pix[2] != 127 || n.Pix[3] != 255 {
		t.Fatalf("unexpected rgb pixel %v", n.Pix)
	}

	if _, err := ToImage([]float32{1}, 2, 2, 1); err == nil {
		t.Fatal("expected length error")
	}
	if _, err := ToImage(make([]float32, 8), 2, 2, 2); err == nil {
		t.Fatal("expected channel error")
	}
}
