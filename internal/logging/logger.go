package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds a production ready structured logger.
func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	return cfg.Build()
}

// NewDevelopmentLogger builds a human readable logger for interactive runs.
func NewDevelopmentLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	return cfg.Build()
}

// WithOperation enriches the logger with operation and run identifiers.
func WithOperation(logger *zap.Logger, operation, runID string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if runID != "" {
		fields = append(fields, zap.String("run_id", runID))
	}
	return logger.With(fields...)
}

// WithSample scopes a logger to one dataset sample.
func WithSample(logger *zap.Logger, index int, name string) *zap.Logger {
	return logger.With(zap.Int("index", index), zap.String("name", name))
}

// WithFrame scopes a logger to one frame of the light sweep. Frame 0 is the
// network's own lighting and is tagged as such.
func WithFrame(logger *zap.Logger, frame int) *zap.Logger {
	return logger.With(zap.Int("frame", frame), zap.Bool("predicted_light", frame == 0))
}
