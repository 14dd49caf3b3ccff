package render

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFileSinkWritesByExtension(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "hydrant")
	sink, err := NewFileSink(dir, 90)
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(1, 1, color.Gray{Y: 200})

	for _, name := range []string{"000005_0.jpg", "000005_0.png"} {
		if err := sink.Save(name, img); err != nil {
			t.Fatal(err)
		}
		back, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if back.Bounds().Dx() != 3 || back.Bounds().Dy() != 2 {
			t.Fatalf("%s: unexpected bounds %v", name, back.Bounds())
		}
	}

	if err := sink.Save("bad.xyz", img); err == nil {
		t.Fatal("expected error for unknown extension")
	}
}

func TestDryRunSinkLogsOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := DryRunSink{Logger: zap.New(core)}
	if err := sink.Save("000005_albedo.jpg", image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	if logs.Len() != 1 || logs.All()[0].ContextMap()["file"] != "000005_albedo.jpg" {
		t.Fatalf("unexpected logs %v", logs.All())
	}
}

func TestGIFBuilder(t *testing.T) {
	g := NewGIFBuilder(10)
	path := filepath.Join(t.TempDir(), "sweep.gif")
	if err := g.Write(path); err == nil {
		t.Fatal("expected error without frames")
	}
	for i := 0; i < 3; i++ {
		g.Add(imaging.New(4, 4, color.NRGBA{R: uint8(80 * i), A: 255}))
	}
	if g.Len() != 3 {
		t.Fatalf("got %d frames", g.Len())
	}
	if err := g.Write(path); err != nil {
		t.Fatal(err)
	}
	if st, err := os.Stat(path); err != nil || st.Size() == 0 {
		t.Fatalf("gif not written: %v", err)
	}
}
