// Package logging sets up the diagnostics log. The terminal belongs to the
// UI, so diagnostics go to a file instead of stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Open creates (or appends to) the diagnostics file at path and returns a
// logger writing JSON lines to it. The returned closer must be called on
// exit. debug lowers the level from info to debug.
func Open(path string, debug bool) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("creating log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("opening log file: %w", err)
	}

	return New(f, debug), f, nil
}

// New returns a logger writing to w.
func New(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
