// Package logger builds the zap logger used by the bookform binary.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Modes accepted by New.
const (
	DevelopmentMode = "development"
	ProductionMode  = "production"
)

// New builds a logger for mode at level ("debug", "info", "warn", "error").
// An empty level means info.
func New(mode, level string, opts ...zap.Option) (*zap.Logger, error) {
	cfg, err := newZapConfig(mode, level)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("logger: build: %w", err)
	}
	return logger, nil
}

func newZapConfig(mode, level string) (zap.Config, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return zap.Config{}, fmt.Errorf("logger: %w", err)
		}
		lvl = parsed
	}

	var cfg zap.Config
	switch mode {
	case ProductionMode:
		cfg = zap.NewProductionConfig()
	case DevelopmentMode, "":
		cfg = zap.NewDevelopmentConfig()
	default:
		return zap.Config{}, fmt.Errorf("logger: unknown mode %q", mode)
	}
	cfg.Level.SetLevel(lvl)
	return cfg, nil
}
