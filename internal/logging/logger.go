// Package logging builds the zap logger shared by the API, CLI and seed commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Must is New for command entry points, falling back to a production logger.
func Must(level string, development bool) *zap.Logger {
	logger, err := New(level, development)
	if err != nil {
		logger = zap.Must(zap.NewProduction())
		logger.Warn("falling back to default logger", zap.Error(err))
	}
	return logger
}
