// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package linemux

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Stream identifies which output stream a line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// String returns "stdout" or "stderr".
func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("stream(%d)", int(s))
	}
}

// Sink receives complete lines as they arrive. Line is called from a
// single goroutine for the lifetime of one [Run] call, so
// implementations need no locking unless shared across runs.
type Sink interface {
	Line(stream Stream, text string)
}

// FuncSink adapts a function to [Sink].
type FuncSink func(stream Stream, text string)

// Line calls f.
func (f FuncSink) Line(stream Stream, text string) { f(stream, text) }

// Process is the narrow view of a spawned command that [Run] needs.
// StdoutPipe and StderrPipe must be called before Start; the returned
// readers must be fully drained before Wait is called.
type Process interface {
	StdoutPipe() (io.Reader, error)
	StderrPipe() (io.Reader, error)
	Start() error

	// Wait blocks until the process exits. A process that ran and
	// exited non-zero is reported through the status, not the error.
	Wait() (ExitStatus, error)
}

// ExitStatus is the final status of a process.
type ExitStatus struct {
	// Code is the exit code. -1 when the process was killed by a
	// signal.
	Code int

	// Signal names the terminating signal, if any (e.g. "KILL").
	Signal string
}

// Success reports whether the process exited with code 0.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && s.Signal == ""
}

// String formats the status for log output.
func (s ExitStatus) String() string {
	if s.Signal != "" {
		return "signal " + s.Signal
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

// SpawnError reports that the process could not be started.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string { return "spawning process: " + e.Err.Error() }

func (e *SpawnError) Unwrap() error { return e.Err }

// WaitError reports that the process started but its exit status could
// not be collected.
type WaitError struct {
	Err error
}

func (e *WaitError) Error() string { return "waiting for process: " + e.Err.Error() }

func (e *WaitError) Unwrap() error { return e.Err }

// line is one unit on the fan-in channel. done marks the end of a
// stream; text is meaningless when done is set.
type line struct {
	stream Stream
	text   string
	done   bool
}

// Run starts process, forwards every line of its stdout and stderr to
// sink until both streams are exhausted, and returns the exit status.
//
// If a stream's pipe cannot be obtained, a warning is logged and that
// stream is not captured; the remaining stream is still drained and the
// process is still waited on.
//
// Cancelling ctx stops forwarding lines but does not kill the process:
// killing is the owner's job (exec.CommandContext, or the SSH session's
// signal). Run still waits for the process so no resources leak.
func Run(ctx context.Context, process Process, sink Sink, logger *slog.Logger) (ExitStatus, error) {
	var readers []streamReader

	stdout, err := process.StdoutPipe()
	if err != nil {
		logger.Warn("could not capture stdout, it will not be logged", "error", err)
	} else {
		readers = append(readers, streamReader{stream: Stdout, reader: stdout})
	}

	stderr, err := process.StderrPipe()
	if err != nil {
		logger.Warn("could not capture stderr, it will not be logged", "error", err)
	} else {
		readers = append(readers, streamReader{stream: Stderr, reader: stderr})
	}

	if err := process.Start(); err != nil {
		return ExitStatus{}, &SpawnError{Err: err}
	}

	lines := make(chan line)
	for _, reader := range readers {
		go reader.forward(lines, logger)
	}

	for remaining := len(readers); remaining > 0; {
		received := <-lines
		if received.done {
			remaining--
			continue
		}
		if ctx.Err() != nil {
			// Keep draining so the readers can exit, but stop
			// emitting once the caller has given up.
			continue
		}
		sink.Line(received.stream, received.text)
	}

	status, err := process.Wait()
	if err != nil {
		var waitError *WaitError
		if errors.As(err, &waitError) {
			return ExitStatus{}, err
		}
		return ExitStatus{}, &WaitError{Err: err}
	}
	return status, nil
}

type streamReader struct {
	stream Stream
	reader io.Reader
}

// forward reads newline-delimited lines until EOF, sending each one in
// order. A final line without a trailing newline is still sent.
func (s streamReader) forward(lines chan<- line, logger *slog.Logger) {
	defer func() { lines <- line{stream: s.stream, done: true} }()

	buffered := bufio.NewReader(s.reader)
	for {
		text, err := buffered.ReadString('\n')
		if text != "" {
			text = strings.TrimSuffix(text, "\n")
			text = strings.TrimSuffix(text, "\r")
			lines <- line{stream: s.stream, text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("error reading process output", "stream", s.stream.String(), "error", err)
			}
			return
		}
	}
}
