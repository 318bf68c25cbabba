// SPDX-License-Identifier: EPL-2.0

// Package logging sets up the default slog logger for the command line tools.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ErrUnknownLevel is returned for a level name Configure does not know.
var ErrUnknownLevel = errors.New("unknown log level")

// Level parses "none", "error", "warn", "info" or "debug". ok is false for
// "none".
func Level(name string) (level slog.Level, ok bool, err error) {
	switch name {
	case "none":
		return 0, false, nil
	case "error":
		return slog.LevelError, true, nil
	case "warn":
		return slog.LevelWarn, true, nil
	case "info":
		return slog.LevelInfo, true, nil
	case "debug":
		return slog.LevelDebug, true, nil
	}
	return 0, false, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
}

// Configure points the default logger at stderr as text, or at file as JSON
// when file is set. The returned file, if any, is for the caller to close.
func Configure(level, file string) (*os.File, error) {
	lvl, enabled, err := Level(level)
	if err != nil {
		return nil, err
	}
	if !enabled {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return nil, nil
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if file == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		return nil, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, opts)))

	return f, nil
}

// New builds a logger writing text to w, for callers that do not want to
// touch the default logger.
func New(w io.Writer, level string) (*slog.Logger, error) {
	lvl, enabled, err := Level(level)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return slog.New(slog.DiscardHandler), nil
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
