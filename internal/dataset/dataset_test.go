package dataset

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func solid(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	if err := imaging.Save(imaging.New(w, h, c), path); err != nil {
		t.Fatal(err)
	}
}

func TestNewListsImagesInOrder(t *testing.T) {
	dir := t.TempDir()
	solid(t, filepath.Join(dir, "000002.png"), 8, 8, color.NRGBA{A: 255})
	solid(t, filepath.Join(dir, "000001.jpg"), 8, 8, color.NRGBA{A: 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "masks"), 0o755); err != nil {
		t.Fatal(err)
	}

	ds, err := New(Options{Dir: dir, ImageSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 2 || ds.Name(0) != "000001.jpg" || ds.Name(1) != "000002.png" {
		t.Fatalf("unexpected listing: %v", ds.files)
	}
	if ds.Name(2) != "" || ds.Name(-1) != "" {
		t.Fatal("out of range names should be empty")
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(Options{Dir: t.TempDir(), ImageSize: 4}); err == nil {
		t.Fatal("expected error for empty directory")
	}
	if _, err := New(Options{Dir: filepath.Join(t.TempDir(), "missing"), ImageSize: 4}); err == nil {
		t.Fatal("expected error for missing directory")
	}
	if _, err := New(Options{Dir: t.TempDir(), ImageSize: 0}); err == nil {
		t.Fatal("expected error for zero image size")
	}
}

func TestGetPreprocesses(t *testing.T) {
	dir := t.TempDir()
	solid(t, filepath.Join(dir, "a.png"), 16, 12, color.NRGBA{R: 255, G: 0, B: 255, A: 255})

	ds, err := New(Options{Dir: dir, ImageSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	s, err := ds.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if s.Size != 4 || len(s.Input) != 3*4*4 {
		t.Fatalf("unexpected sample shape: size=%d len=%d", s.Size, len(s.Input))
	}
	for i := 0; i < 16; i++ {
		r, g, b := s.Input[i], s.Input[16+i], s.Input[32+i]
		if math.Abs(float64(r-1)) > 1e-3 || math.Abs(float64(g+1)) > 1e-3 || math.Abs(float64(b-1)) > 1e-3 {
			t.Fatalf("pixel %d: got (%g, %g, %g)", i, r, g, b)
		}
	}
	if s.Mask != nil || s.DepthPrior != nil {
		t.Fatal("no precomputed dir, so no priors")
	}

	if _, err := ds.Get(1); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := ds.Get(-1); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestGetLoadsPriors(t *testing.T) {
	dir, pre := t.TempDir(), t.TempDir()
	solid(t, filepath.Join(dir, "000007.png"), 8, 8, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	solid(t, filepath.Join(pre, "000007_mask.png"), 8, 8, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	solid(t, filepath.Join(pre, "000007_depth.png"), 8, 8, color.NRGBA{R: 0, G: 0, B: 0, A: 255})

	ds, err := New(Options{Dir: dir, PrecomputedDir: pre, ImageSize: 4, MinDepth: .9, MaxDepth: 1.1})
	if err != nil {
		t.Fatal(err)
	}
	s, err := ds.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Mask) != 16 || len(s.DepthPrior) != 16 {
		t.Fatalf("priors missing: mask=%d depth=%d", len(s.Mask), len(s.DepthPrior))
	}
	for i := range s.Mask {
		if s.Mask[i] < .99 {
			t.Fatalf("mask pixel %d = %g", i, s.Mask[i])
		}
		if math.Abs(float64(s.DepthPrior[i])-.9) > 1e-4 {
			t.Fatalf("black depth should map to min depth, got %g", s.DepthPrior[i])
		}
	}
}

func TestGetMissingPriorsStayNil(t *testing.T) {
	dir, pre := t.TempDir(), t.TempDir()
	solid(t, filepath.Join(dir, "x.png"), 4, 4, color.NRGBA{A: 255})
	ds, err := New(Options{Dir: dir, PrecomputedDir: pre, ImageSize: 4, MinDepth: .9, MaxDepth: 1.1})
	if err != nil {
		t.Fatal(err)
	}
	s, err := ds.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if s.Mask != nil || s.DepthPrior != nil {
		t.Fatal("absent files should leave priors nil")
	}
}

func TestLoadMask(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(2, 1, color.NRGBA{A: 255})
	img.Set(1, 0, color.NRGBA{R: 1, A: 255})
	path := filepath.Join(dir, "m.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatal(err)
	}

	mask, bounds, err := LoadMask(path)
	if err != nil {
		t.Fatal(err)
	}
	if bounds != image.Rect(0, 0, 2, 1) || len(mask) != 2 || mask[0] || !mask[1] {
		t.Fatalf("unexpected mask %v over %v", mask, bounds)
	}

	mask, _, err = LoadMask(filepath.Join(dir, "none.png"))
	if err != nil || mask != nil {
		t.Fatalf("missing mask should be nil without error, got %v %v", mask, err)
	}
}
