package render

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// Sink receives finished visualizations by file name.
type Sink interface {
	Save(name string, img image.Image) error
}

// FileSink writes images under Dir; the encoder follows the name's extension.
type FileSink struct {
	Dir     string
	Quality int
}

func NewFileSink(dir string, quality int) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &FileSink{Dir: dir, Quality: quality}, nil
}

func (s *FileSink) Save(name string, img image.Image) error {
	path := filepath.Join(s.Dir, name)
	if err := imaging.Save(img, path, imaging.JPEGQuality(s.Quality)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// DryRunSink only reports what would have been written.
type DryRunSink struct {
	Logger *zap.Logger
}

func (s DryRunSink) Save(name string, img image.Image) error {
	b := img.Bounds()
	s.Logger.Info("dry run, skipping write",
		zap.String("file", name),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()))
	return nil
}
