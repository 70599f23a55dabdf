package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// newLogger opens path for appending and returns a JSON slog logger writing
// to it. The TUI owns the terminal, so logs never go to stdout or stderr;
// when the file can't be opened logging is discarded.
func newLogger(path string, debug bool) (*slog.Logger, func() error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	noop := func() error { return nil }
	if path == "" {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), noop
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), noop
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), noop
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return logger.With("pid", os.Getpid()), f.Close
}
