// Package logging builds the zap logger used for operational messages.
// Diagnostics about entries are not logs and never go through here.
package logging

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // "console" or "json"
	Verbose bool   `yaml:"-"`      // Forces debug level
}

// New builds a logger writing to stderr. Unknown levels fall back to warn.
func New(cfg Config) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	if cfg.Verbose {
		level.SetLevel(zap.DebugLevel)
	}
	zapConfig.Level = level

	if cfg.Format == "json" {
		zapConfig.Encoding = "json"
	} else {
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	zapConfig.Sampling = nil

	return zapConfig.Build()
}

// NewRunID returns a fresh identifier tagging every log line of one run.
func NewRunID() string {
	return uuid.NewString()
}

// WithRun returns logger annotated with the run identifier.
func WithRun(logger *zap.Logger, runID string) *zap.Logger {
	return logger.With(zap.String("run_id", runID))
}
