// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap loggers used across rigrun-refs.
//
// Library packages take a *zap.Logger and fall back to zap.NewNop(); only the
// CLI constructs real loggers, from config or from -v/-q flags.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the log encoder.
type Format string

const (
	// FormatConsole is a human-readable, tab-separated line format.
	FormatConsole Format = "console"
	// FormatJSON emits one JSON object per line.
	FormatJSON Format = "json"
)

// levelOff sits above every zap level, so nothing is written.
const levelOff = zapcore.FatalLevel + 1

// Options configures New.
type Options struct {
	Level  zapcore.Level
	Format Format
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New creates a logger writing to opts.Output.
func New(opts Options) (*zap.Logger, error) {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch opts.Format {
	case FormatJSON:
		enc = zapcore.NewJSONEncoder(encCfg)
	case FormatConsole, "":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(opts.Level))
	return zap.New(core), nil
}

// NewFile creates a logger appending to the file at path. The returned
// closer must be closed when logging is done.
func NewFile(path string, level zapcore.Level, format Format) (*zap.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger, err := New(Options{Level: level, Format: format, Output: f})
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, f, nil
}

// ParseLevel converts a level name to a zap level.
// Supports: debug, info, warn, error, off (case-insensitive).
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "off", "none":
		return levelOff, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// LevelFromVerbosity maps CLI flags to a level:
//   - quiet: nothing is logged
//   - 0: warn
//   - 1: info
//   - 2+: debug
func LevelFromVerbosity(verbosity int, quiet bool) zapcore.Level {
	if quiet {
		return levelOff
	}
	switch verbosity {
	case 0:
		return zapcore.WarnLevel
	case 1:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
