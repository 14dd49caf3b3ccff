package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Brownie44l1/derender-viz/internal/config"
	"github.com/Brownie44l1/derender-viz/internal/dataset"
	"github.com/Brownie44l1/derender-viz/internal/decompose"
	"github.com/Brownie44l1/derender-viz/internal/logging"
	"github.com/Brownie44l1/derender-viz/internal/model"
	"github.com/Brownie44l1/derender-viz/internal/render"
)

type flags struct {
	config   string
	category string
	model    string
	metadata string
	out      string
	frames   int
	indices  string
	dryRun   bool
	gif      bool
	ortLib   string
	cuda     int
	dev      bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.config, "config", "", "JSON run configuration")
	flag.StringVar(&f.category, "category", "", "dataset category (hydrant, toybus, cosy, photos, ...)")
	flag.StringVar(&f.model, "model", "", "exported ONNX derendering model")
	flag.StringVar(&f.metadata, "metadata", "", "model metadata sidecar (default: model path with .json)")
	flag.StringVar(&f.out, "out", "", "output root; images go to <out>/<category>")
	flag.IntVar(&f.frames, "frames", -1, "light sweep frames after the base frame")
	flag.StringVar(&f.indices, "indices", "", "comma separated sample indices (overrides the category table)")
	flag.BoolVar(&f.dryRun, "dry-run", false, "log file names instead of writing images")
	flag.BoolVar(&f.gif, "gif", false, "also write an animated GIF of each light sweep")
	flag.StringVar(&f.ortLib, "ort-lib", os.Getenv("ONNXRUNTIME_LIB"), "onnxruntime shared library")
	flag.IntVar(&f.cuda, "cuda", -2, "CUDA device id, -1 for CPU")
	flag.BoolVar(&f.dev, "dev", false, "human readable logs")
	flag.Parse()
	return f
}

func loadConfig(f flags) (config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return cfg, err
		}
	}
	if f.category != "" {
		cfg.Category = f.category
	}
	if f.model != "" {
		cfg.ModelPath = f.model
	}
	if f.metadata != "" {
		cfg.MetadataPath = f.metadata
	}
	if f.out != "" {
		cfg.OutRoot = f.out
	}
	if f.frames >= 0 {
		cfg.Frames = f.frames
	}
	if f.indices != "" {
		indices, err := config.ParseIndices(f.indices)
		if err != nil {
			return cfg, err
		}
		cfg.Indices = indices
	}
	if f.dryRun {
		cfg.DryRun = true
	}
	if f.gif {
		cfg.GIF = true
	}
	if f.ortLib != "" {
		cfg.ONNXLibrary = f.ortLib
	}
	if f.cuda >= -1 {
		cfg.CUDADevice = f.cuda
	}
	return cfg, cfg.Validate()
}

func main() {
	f := parseFlags()

	newLogger := logging.NewLogger
	if f.dev {
		newLogger = logging.NewDevelopmentLogger
	}
	base, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer base.Sync() //nolint:errcheck

	runID := uuid.NewString()
	logger := logging.WithOperation(base, "decompose", runID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f, runID, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		base.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags, runID string, logger *zap.Logger) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return logging.NewOperationError("config", runID, err)
	}
	paths, err := cfg.Paths()
	if err != nil {
		return logging.NewOperationError("config", runID, err)
	}
	indices, err := cfg.SelectIndices()
	if err != nil {
		return logging.NewOperationError("config", runID, err)
	}

	logger.Info("loading dataset",
		zap.String("category", cfg.Category),
		zap.String("dir", paths.Test),
		zap.String("precomputed", paths.Precomputed))
	data, err := dataset.New(dataset.Options{
		Dir:            paths.Test,
		PrecomputedDir: paths.Precomputed,
		ImageSize:      cfg.ImageSize,
		MinDepth:       cfg.MinDepth,
		MaxDepth:       cfg.MaxDepth,
	})
	if err != nil {
		return logging.NewOperationError("dataset", runID, err)
	}

	logger.Info("loading model", zap.String("model", cfg.ModelPath), zap.String("metadata", cfg.Metadata()))
	server, err := model.NewServer(cfg.ModelPath, cfg.Metadata(), model.Options{
		LibraryPath: cfg.ONNXLibrary,
		CUDADevice:  cfg.CUDADevice,
	})
	if err != nil {
		return logging.NewOperationError("model", runID, err)
	}
	defer server.Close()

	if server.Metadata.ImageSize != cfg.ImageSize {
		return logging.NewOperationError("model", runID,
			fmt.Errorf("model expects %dpx images, dataset produces %dpx", server.Metadata.ImageSize, cfg.ImageSize))
	}

	var sink render.Sink = render.DryRunSink{Logger: logger}
	if !cfg.DryRun {
		if sink, err = render.NewFileSink(paths.Out, cfg.JPEGQuality); err != nil {
			return logging.NewOperationError("output", runID, err)
		}
	}

	runner := decompose.NewRunner(cfg, paths, data, server, sink, logger)
	stats, err := runner.Run(ctx, indices)
	if err != nil {
		return logging.NewOperationError("render", runID, err)
	}
	logger.Info("done",
		zap.Int("samples", stats.Samples),
		zap.Int("frames", stats.Frames),
		zap.Int("written", stats.Written))
	return nil
}
