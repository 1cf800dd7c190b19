// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// LogConfig selects the command logger's level and handler.
type LogConfig struct {
	// Level is debug, info, warn, or error. Empty means info.
	Level string

	// Format is auto, text, or json. Empty means auto: text when
	// stderr is a terminal, JSON otherwise.
	Format string
}

// LogParams is an embeddable parameter struct adding --log-level and
// --log-format to a command.
type LogParams struct {
	LogLevel  string `flag:"log-level" desc:"log level: debug, info, warn, error" default:"info"`
	LogFormat string `flag:"log-format" desc:"log format: auto, text, json" default:"auto"`
}

// Logging returns the logger configuration selected by the flags.
func (p *LogParams) Logging() LogConfig {
	return LogConfig{Level: p.LogLevel, Format: p.LogFormat}
}

// NewCommandLogger creates a structured logger for CLI command operations
// writing to stderr. When stderr is a terminal, uses slog.TextHandler for
// human-readable output. When stderr is piped or redirected (CI, scripts),
// uses slog.JSONHandler for machine-parseable output. config can force
// either handler.
//
// Callers scope the logger with command-specific context via With():
//
//	logger = logger.With("run_id", runID, "node", target.Name)
func NewCommandLogger(config LogConfig) (*slog.Logger, error) {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), config)
}

func newLogger(w io.Writer, isTerminal bool, config LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if config.Level != "" {
		if err := level.UnmarshalText([]byte(config.Level)); err != nil {
			return nil, Validation("invalid --log-level %q (want debug, info, warn, or error)", config.Level)
		}
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(config.Format) {
	case "", "auto":
		if isTerminal {
			handler = slog.NewTextHandler(w, options)
		} else {
			handler = slog.NewJSONHandler(w, options)
		}
	case "text":
		handler = slog.NewTextHandler(w, options)
	case "json":
		handler = slog.NewJSONHandler(w, options)
	default:
		return nil, Validation("invalid --log-format %q (want auto, text, or json)", config.Format)
	}
	return slog.New(handler), nil
}
