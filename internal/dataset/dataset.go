// Package dataset loads validation images together with the priors that
// were precomputed for them.
package dataset

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}

// Options configure an ImageDataset.
type Options struct {
	Dir            string
	PrecomputedDir string
	ImageSize      int
	MinDepth       float64
	MaxDepth       float64
}

// Sample is one preprocessed dataset entry.
type Sample struct {
	Index int
	Name  string
	Size  int
	// Input is planar RGB (3 x Size x Size) scaled to [-1, 1].
	Input []float32
	// Mask is the foreground mask (Size x Size, [0, 1]); nil when absent.
	Mask []float32
	// DepthPrior is Size x Size in [MinDepth, MaxDepth]; nil when absent.
	DepthPrior []float32
}

// ImageDataset indexes the images of a directory in name order.
type ImageDataset struct {
	opts  Options
	files []string
}

func New(opts Options) (*ImageDataset, error) {
	if opts.ImageSize <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %d", opts.ImageSize)
	}
	entries, err := os.ReadDir(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, e.Name())
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", opts.Dir)
	}
	sort.Strings(files)
	return &ImageDataset{opts: opts, files: files}, nil
}

func (d *ImageDataset) Len() int { return len(d.files) }

// Name returns the file name of sample i, or "" when i is out of range.
func (d *ImageDataset) Name(i int) string {
	if i < 0 || i >= len(d.files) {
		return ""
	}
	return d.files[i]
}

// Get loads and preprocesses sample i.
func (d *ImageDataset) Get(i int) (*Sample, error) {
	if i < 0 || i >= len(d.files) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", i, len(d.files))
	}
	name := d.files[i]
	img, err := imaging.Open(filepath.Join(d.opts.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	size := d.opts.ImageSize
	sample := &Sample{
		Index: i,
		Name:  name,
		Size:  size,
		Input: Preprocess(img, size),
	}

	if d.opts.PrecomputedDir == "" {
		return sample, nil
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	mask, err := loadPlane(filepath.Join(d.opts.PrecomputedDir, stem+"_mask.png"), size)
	if err != nil {
		return nil, err
	}
	sample.Mask = mask

	depth, err := loadPlane(filepath.Join(d.opts.PrecomputedDir, stem+"_depth.png"), size)
	if err != nil {
		return nil, err
	}
	if depth != nil {
		span := float32(d.opts.MaxDepth - d.opts.MinDepth)
		for k, v := range depth {
			depth[k] = float32(d.opts.MinDepth) + v*span
		}
	}
	sample.DepthPrior = depth
	return sample, nil
}

// loadPlane reads the first channel of an image as a size x size plane in
// [0, 1]. A missing file yields nil.
func loadPlane(path string, size int) ([]float32, error) {
	img, err := imaging.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return Plane(img, size), nil
}

// LoadMask reads a mask image at its own resolution and thresholds the first
// channel at zero. A missing file yields nil.
func LoadMask(path string) ([]bool, image.Rectangle, error) {
	img, err := imaging.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, image.Rectangle{}, nil
	}
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	b := img.Bounds()
	mask := make([]bool, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			mask = append(mask, r > 0)
		}
	}
	return mask, b, nil
}
