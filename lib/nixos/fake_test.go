// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nixos

import (
	"context"
	"strings"

	"github.com/bureau-foundation/henix/lib/linemux"
	"github.com/bureau-foundation/henix/lib/remote"
)

// scriptedSession answers commands by prefix match on the rendered
// command line and records everything it ran, in order.
type scriptedSession struct {
	captured map[string]remote.Captured
	streamed map[string]linemux.ExitStatus
	output   map[string][]string

	ran []string
}

func newScriptedSession() *scriptedSession {
	return &scriptedSession{
		captured: make(map[string]remote.Captured),
		streamed: make(map[string]linemux.ExitStatus),
		output:   make(map[string][]string),
	}
}

func (s *scriptedSession) RunCaptured(_ context.Context, command remote.Command) (remote.Captured, error) {
	line := command.String()
	s.ran = append(s.ran, line)
	for prefix, captured := range s.captured {
		if strings.HasPrefix(line, prefix) {
			return captured, nil
		}
	}
	return remote.Captured{}, nil
}

func (s *scriptedSession) RunStreamed(_ context.Context, command remote.Command, sink linemux.Sink) (linemux.ExitStatus, error) {
	line := command.String()
	s.ran = append(s.ran, line)
	for prefix, lines := range s.output {
		if strings.HasPrefix(line, prefix) {
			for _, text := range lines {
				sink.Line(linemux.Stdout, text)
			}
		}
	}
	for prefix, status := range s.streamed {
		if strings.HasPrefix(line, prefix) {
			return status, nil
		}
	}
	return linemux.ExitStatus{}, nil
}

func (s *scriptedSession) Close() error { return nil }

func (s *scriptedSession) ranMatching(prefix string) []string {
	var matched []string
	for _, line := range s.ran {
		if strings.HasPrefix(line, prefix) {
			matched = append(matched, line)
		}
	}
	return matched
}
