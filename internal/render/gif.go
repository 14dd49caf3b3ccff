package render

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
)

// GIFBuilder collects frames of a light sweep into a looping animation.
type GIFBuilder struct {
	delay int // 100ths of a second
	anim  gif.GIF
}

func NewGIFBuilder(delay int) *GIFBuilder {
	return &GIFBuilder{delay: delay}
}

// Add quantises img to the Plan 9 palette and appends it.
func (g *GIFBuilder) Add(img image.Image) {
	b := img.Bounds()
	pal := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
	draw.FloydSteinberg.Draw(pal, pal.Bounds(), img, b.Min)
	g.anim.Image = append(g.anim.Image, pal)
	g.anim.Delay = append(g.anim.Delay, g.delay)
}

func (g *GIFBuilder) Len() int { return len(g.anim.Image) }

func (g *GIFBuilder) Write(path string) error {
	if len(g.anim.Image) == 0 {
		return fmt.Errorf("no frames to write to %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	g.anim.LoopCount = 0
	if err := gif.EncodeAll(f, &g.anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
