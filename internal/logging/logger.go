// Package logging builds the process logger. Logs go to stderr so stdout
// carries only command output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RunIDKey is the field that ties a crawl's log lines together.
const RunIDKey = "run_id"

// Options shapes the process logger.
type Options struct {
	// Development switches to colored console output at debug level.
	Development bool
	// Level overrides the default level, e.g. "warn". Empty keeps the default.
	Level string
	// Command names the CLI command and is attached to every entry.
	Command string
}

// New builds a zap.Logger from opts.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = false
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if opts.Level != "" {
		level, err := zap.ParseAtomicLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("logging level: %w", err)
		}
		cfg.Level = level
	}
	if opts.Command != "" {
		cfg.InitialFields = map[string]any{"command": opts.Command}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// ForRun returns a child logger tagged with the crawl run id.
func ForRun(logger *zap.Logger, runID string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(zap.String(RunIDKey, runID))
}
