// Package obs builds the shared zap.Logger used by the CLI and every
// internal package, the way theRebelliousNerd-codenerd's cmd/nerd
// wires zap: a production config, switched to debug level when
// verbose output is requested.
package obs

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger for CLI output. verbose raises the level to
// debug for library-internal logging; CLI commands themselves log at
// info.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("obs: build logger: %w", err)
	}
	return logger, nil
}

// NewNop returns a logger that discards everything, for tests and
// library call sites that have no logger wired in yet.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
