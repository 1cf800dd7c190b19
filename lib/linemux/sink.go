// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package linemux

import (
	"log/slog"

	"github.com/charmbracelet/x/ansi"
)

// LogSink returns a [Sink] that logs each line at Info level with a
// "stream" attribute. ANSI escape sequences are stripped first:
// nixos-rebuild and rsync colour their output when they think they are
// on a terminal, and escape codes are noise in JSON logs.
func LogSink(logger *slog.Logger) Sink {
	return FuncSink(func(stream Stream, text string) {
		logger.Info(ansi.Strip(text), "stream", stream.String())
	})
}
