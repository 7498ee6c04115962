// Package logging builds the zap loggers shared by the server and CLI.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a JSON production logger at the given level. An empty level
// means info.
func New(level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if err := setLevel(&cfg, level); err != nil {
		return nil, err
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// NewConsole returns a human-readable logger writing to stderr, for the CLI.
func NewConsole(level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	if level == "" {
		level = "warn"
	}
	if err := setLevel(&cfg, level); err != nil {
		return nil, err
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

func setLevel(cfg *zap.Config, level string) error {
	if level == "" {
		return nil
	}
	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg.Level = atomic
	return nil
}
