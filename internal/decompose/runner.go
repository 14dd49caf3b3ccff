// Package decompose renders the intrinsic components of selected samples
// while a synthetic light circles the object.
package decompose

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/Brownie44l1/derender-viz/internal/config"
	"github.com/Brownie44l1/derender-viz/internal/dataset"
	"github.com/Brownie44l1/derender-viz/internal/light"
	"github.com/Brownie44l1/derender-viz/internal/logging"
	"github.com/Brownie44l1/derender-viz/internal/model"
	"github.com/Brownie44l1/derender-viz/internal/render"
)

// Output component names produced by the network.
const (
	outRecon        = "recon_im"
	outAlbedo       = "recon_albedo"
	outNormal       = "recon_normal"
	outNormalNoRef  = "recon_normal_noref"
	outDepth        = "recon_depth"
	outBump         = "recon_bump"
	outDiffuse      = "recon_diffuse_shading"
	outSpecular     = "recon_specular_shading"
	outNeural       = "neural_shading"
	outSpecStrength = "recon_light_spec_strength"
	outLRAlbedo     = "lr_recon_albedo"
	outLRNormal     = "lr_recon_normal"
	outLRMask       = "lr_recon_im_mask"
)

// Decomposer runs the derendering network on one sample.
type Decomposer interface {
	Forward(sample *dataset.Sample, l *light.Light) (model.Outputs, error)
	MinDepth() float64
	MaxDepth() float64
}

// Dataset yields preprocessed samples by index.
type Dataset interface {
	Get(i int) (*dataset.Sample, error)
}

// Stats summarises a run.
type Stats struct {
	Samples int
	Frames  int
	Written int // images handed to the sink plus animations written
}

type Runner struct {
	cfg    config.Config
	paths  config.Paths
	data   Dataset
	model  Decomposer
	sink   render.Sink
	logger *zap.Logger
	sweep  light.Sweep

	stats Stats
}

func NewRunner(cfg config.Config, paths config.Paths, data Dataset, m Decomposer, sink render.Sink, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		paths:  paths,
		data:   data,
		model:  m,
		sink:   sink,
		logger: logger,
		sweep:  SweepFromConfig(cfg),
	}
}

// SweepFromConfig builds the light trajectory of a run.
func SweepFromConfig(cfg config.Config) light.Sweep {
	return light.Sweep{
		RotStart: cfg.RotStart,
		RotTime:  cfg.RotTime,
		DStart:   cfg.DStart,
		DSpeed:   cfg.DSpeed,
		AMin:     cfg.AMin,
		AMax:     cfg.AMax,
		BMin:     cfg.BMin,
		BMax:     cfg.BMax,
		Frames:   cfg.Frames,
	}
}

// Run renders every index for frames 0..Frames.
func (r *Runner) Run(ctx context.Context, indices []int) (Stats, error) {
	r.stats = Stats{}
	r.logger.Info("rendering decompositions",
		zap.Ints("indices", indices),
		zap.Int("frames", r.cfg.Frames),
		zap.String("out", r.paths.Out))

	for _, index := range indices {
		if err := ctx.Err(); err != nil {
			return r.stats, err
		}
		if err := r.renderIndex(ctx, index); err != nil {
			return r.stats, fmt.Errorf("index %d: %w", index, err)
		}
		r.stats.Samples++
	}
	return r.stats, nil
}

func (r *Runner) renderIndex(ctx context.Context, index int) error {
	sample, err := r.data.Get(index)
	if err != nil {
		return fmt.Errorf("failed to load sample: %w", err)
	}
	logger := logging.WithSample(r.logger, index, sample.Name)
	logger.Info("loaded sample")

	var photoMask []bool
	if r.cfg.Kind() == config.KindPhotos {
		photoMask, _, err = dataset.LoadMask(filepath.Join(r.paths.Masks, fmt.Sprintf("%06d.png", index)))
		if err != nil {
			return err
		}
	}

	var anim *render.GIFBuilder
	if r.cfg.GIF {
		anim = render.NewGIFBuilder(r.cfg.GIFDelay)
	}

	for i := 0; i <= r.cfg.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.renderFrame(logger, sample, i, photoMask, anim); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		r.stats.Frames++
	}

	if anim != nil && anim.Len() > 0 {
		name := fmt.Sprintf("%06d_sweep.gif", index)
		if r.cfg.DryRun {
			logger.Info("dry run, skipping animation", zap.String("file", name))
			return nil
		}
		if err := anim.Write(filepath.Join(r.paths.Out, name)); err != nil {
			return fmt.Errorf("failed to write animation: %w", err)
		}
		r.stats.Written++
	}
	return nil
}

func (r *Runner) renderFrame(logger *zap.Logger, sample *dataset.Sample, i int, photoMask []bool, anim *render.GIFBuilder) error {
	logger = logging.WithFrame(logger, i)
	out, err := r.model.Forward(sample, r.sweep.At(i))
	if err != nil {
		return err
	}

	if s, ok := out[outSpecStrength]; ok {
		logger.Info("specular strength", zap.Float64("mean", mean(s.Data)))
	}

	mask, err := r.mask(sample, out, photoMask)
	if err != nil {
		return err
	}

	prefix := fmt.Sprintf("%06d", sample.Index)
	o := r.cfg.Outputs

	if o.Reconstruction {
		reconMask := mask
		if i == 0 {
			reconMask = nil
		}
		img, err := r.writeRGB(out, outRecon, fmt.Sprintf("%s_%d", prefix, i), true, false, reconMask)
		if err != nil {
			return err
		}
		if anim != nil {
			anim.Add(img)
		}
	}
	if o.Ball {
		size := r.cfg.BallSize
		ball := light.Ball(r.sweep.Direction(i), size)
		if _, err := r.write(fmt.Sprintf("shading_%d", i), ball, size, size, 1, nil); err != nil {
			return err
		}
	}
	if o.Diffuse {
		if err := r.writeGrey(out, outDiffuse, fmt.Sprintf("%s_%d_diff", prefix, i), mask); err != nil {
			return err
		}
	}
	if o.Specular {
		if err := r.writeGrey(out, outSpecular, fmt.Sprintf("%s_%d_spec", prefix, i), mask); err != nil {
			return err
		}
	}
	if o.Neural {
		if err := r.writeGrey(out, outNeural, fmt.Sprintf("%s_%d_nr", prefix, i), mask); err != nil {
			return err
		}
	}

	if i == 0 {
		return r.renderStatic(out, sample, prefix, mask)
	}
	return nil
}

// renderStatic writes the light independent components.
func (r *Runner) renderStatic(out model.Outputs, sample *dataset.Sample, prefix string, mask []bool) error {
	o := r.cfg.Outputs

	if o.Input {
		input := model.Outputs{"input_im": {
			Shape: []int64{1, 3, int64(sample.Size), int64(sample.Size)},
			Data:  sample.Input,
		}}
		if _, err := r.writeRGB(input, "input_im", prefix+"_input", true, false, nil); err != nil {
			return err
		}
	}
	if o.Albedo {
		if _, err := r.writeRGB(out, outAlbedo, prefix+"_albedo", true, false, mask); err != nil {
			return err
		}
	}
	if o.Depth {
		t, err := out.Get(outDepth)
		if err != nil {
			return err
		}
		d, w, h, err := render.Depth(t, r.model.MinDepth(), r.model.MaxDepth())
		if err != nil {
			return err
		}
		if _, err := r.write(prefix+"_depth", d, w, h, 1, mask); err != nil {
			return err
		}
	}
	if o.Normal {
		if _, err := r.writeRGB(out, outNormal, prefix+"_normal", false, false, mask); err != nil {
			return err
		}
	}
	if o.Bump {
		if _, err := r.writeRGB(out, outBump, prefix+"_bump", false, false, mask); err != nil {
			return err
		}
	}
	if o.NormalNoRef {
		if _, err := r.writeRGB(out, outNormalNoRef, prefix+"_normal_noref", false, false, mask); err != nil {
			return err
		}
	}
	if o.LRAlbedo {
		if _, err := r.writeRGB(out, outLRAlbedo, prefix+"_lr_albedo", true, false, nil); err != nil {
			return err
		}
	}
	if o.LRNormal {
		if _, err := r.writeRGB(out, outLRNormal, prefix+"_lr_normal", true, true, nil); err != nil {
			return err
		}
	}
	return nil
}

// mask picks the foreground mask for the category's dataset layout.
func (r *Runner) mask(sample *dataset.Sample, out model.Outputs, photoMask []bool) ([]bool, error) {
	switch r.cfg.Kind() {
	case config.KindCosy:
		t, err := out.Get(outLRMask)
		if err != nil {
			return nil, err
		}
		plane, _, _, err := render.Grey(t, 0)
		if err != nil {
			return nil, err
		}
		return render.Mask(plane, 0), nil
	case config.KindPhotos:
		return photoMask, nil
	default:
		if sample.Mask == nil {
			return nil, nil
		}
		return render.Mask(sample.Mask, .5), nil
	}
}

// writeRGB saves a three channel component. shift maps [-1, 1] to [0, 1]
// with clamping, otherwise the values are treated as unit normals.
func (r *Runner) writeRGB(out model.Outputs, key, name string, shift, flip bool, mask []bool) (image.Image, error) {
	t, err := out.Get(key)
	if err != nil {
		return nil, err
	}
	var (
		values []float32
		w, h   int
	)
	if shift {
		values, w, h, err = render.RGB(t, true)
	} else {
		values, w, h, err = render.NormalRGB(t)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if flip {
		render.FlipXY(values)
	}
	return r.write(name, values, w, h, 3, mask)
}

func (r *Runner) writeGrey(out model.Outputs, key, name string, mask []bool) error {
	t, err := out.Get(key)
	if err != nil {
		return err
	}
	values, w, h, err := render.Grey(t, 0)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	_, err = r.write(name, values, w, h, 1, mask)
	return err
}

func (r *Runner) write(name string, values []float32, w, h, channels int, mask []bool) (image.Image, error) {
	masked, err := render.ApplyMask(values, channels, mask)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	img, err := render.ToImage(masked, w, h, channels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := r.sink.Save(name+"."+r.cfg.Format, img); err != nil {
		return nil, err
	}
	r.stats.Written++
	return img, nil
}

func mean(data []float32) float64 {
	xs := make([]float64, len(data))
	for i, v := range data {
		xs[i] = float64(v)
	}
	return stat.Mean(xs, nil)
}
