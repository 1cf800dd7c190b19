// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package linemux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/henix/lib/testutil"
)

// recordingSink collects lines per stream, plus the combined order.
type recordingSink struct {
	stdout []string
	stderr []string
	total  int
}

func (s *recordingSink) Line(stream Stream, text string) {
	s.total++
	switch stream {
	case Stdout:
		s.stdout = append(s.stdout, text)
	case Stderr:
		s.stderr = append(s.stderr, text)
	}
}

// shellScript emits stdoutLines lines on stdout and stderrLines lines on
// stderr, interleaved, then exits with code.
func shellScript(stdoutLines, stderrLines, code int) string {
	var script strings.Builder
	for i := 0; i < stdoutLines || i < stderrLines; i++ {
		if i < stdoutLines {
			fmt.Fprintf(&script, "echo out-%d; ", i)
		}
		if i < stderrLines {
			fmt.Fprintf(&script, "echo err-%d >&2; ", i)
		}
	}
	fmt.Fprintf(&script, "exit %d", code)
	return script.String()
}

func expectedLines(prefix string, count int) []string {
	lines := make([]string, 0, count)
	for i := range count {
		lines = append(lines, fmt.Sprintf("%s-%d", prefix, i))
	}
	return lines
}

func TestRunDrainsBothStreams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		stdoutLines int
		stderrLines int
		code        int
	}{
		{name: "success", stdoutLines: 20, stderrLines: 15, code: 0},
		{name: "nonzero exit", stdoutLines: 5, stderrLines: 7, code: 3},
		{name: "empty stderr", stdoutLines: 12, stderrLines: 0, code: 0},
		{name: "empty stdout", stdoutLines: 0, stderrLines: 9, code: 1},
		{name: "no output", stdoutLines: 0, stderrLines: 0, code: 0},
		{name: "heavy output", stdoutLines: 2000, stderrLines: 2000, code: 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			sink := &recordingSink{}
			cmd := exec.Command("sh", "-c", shellScript(test.stdoutLines, test.stderrLines, test.code))
			status, err := Run(context.Background(), Command(cmd), sink, testutil.DiscardLogger())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			if status.Code != test.code {
				t.Errorf("exit code = %d, want %d", status.Code, test.code)
			}
			if status.Success() != (test.code == 0) {
				t.Errorf("Success() = %v for code %d", status.Success(), test.code)
			}
			if sink.total != test.stdoutLines+test.stderrLines {
				t.Errorf("emitted %d lines, want %d", sink.total, test.stdoutLines+test.stderrLines)
			}
			assertLines(t, "stdout", sink.stdout, expectedLines("out", test.stdoutLines))
			assertLines(t, "stderr", sink.stderr, expectedLines("err", test.stderrLines))
		})
	}
}

func TestRunPartialFinalLine(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	cmd := exec.Command("sh", "-c", `printf 'first\nsecond'; printf 'crlf\r\n' >&2`)
	status, err := Run(context.Background(), Command(cmd), sink, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !status.Success() {
		t.Fatalf("status = %s, want success", status)
	}
	assertLines(t, "stdout", sink.stdout, []string{"first", "second"})
	assertLines(t, "stderr", sink.stderr, []string{"crlf"})
}

func TestRunBlankLinesAreEmitted(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	cmd := exec.Command("sh", "-c", `printf 'a\n\nb\n'`)
	if _, err := Run(context.Background(), Command(cmd), sink, testutil.DiscardLogger()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertLines(t, "stdout", sink.stdout, []string{"a", "", "b"})
}

func TestRunSpawnFailure(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("/nonexistent/henix-test-binary")
	_, err := Run(context.Background(), Command(cmd), &recordingSink{}, testutil.DiscardLogger())
	var spawnError *SpawnError
	if !errors.As(err, &spawnError) {
		t.Fatalf("Run error = %v, want *SpawnError", err)
	}
}

func TestRunSignalledProcess(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("sh", "-c", "echo before; kill -KILL $$")
	sink := &recordingSink{}
	status, err := Run(context.Background(), Command(cmd), sink, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status.Success() {
		t.Fatal("killed process reported success")
	}
	if status.Signal != "KILL" {
		t.Errorf("Signal = %q, want KILL", status.Signal)
	}
	assertLines(t, "stdout", sink.stdout, []string{"before"})
}

// fakeProcess lets tests control pipe availability and wait results
// without spawning anything.
type fakeProcess struct {
	stdout    io.Reader
	stderr    io.Reader
	stdoutErr error
	stderrErr error
	startErr  error
	status    ExitStatus
	waitErr   error
	waited    bool
}

func (p *fakeProcess) StdoutPipe() (io.Reader, error) { return p.stdout, p.stdoutErr }
func (p *fakeProcess) StderrPipe() (io.Reader, error) { return p.stderr, p.stderrErr }
func (p *fakeProcess) Start() error                   { return p.startErr }
func (p *fakeProcess) Wait() (ExitStatus, error) {
	p.waited = true
	return p.status, p.waitErr
}

func TestRunMissingStreamDegrades(t *testing.T) {
	t.Parallel()

	process := &fakeProcess{
		stdoutErr: errors.New("stdout already taken"),
		stderr:    strings.NewReader("warning: one\nwarning: two\n"),
		status:    ExitStatus{Code: 4},
	}
	logger, records := testutil.CaptureLogger()
	sink := &recordingSink{}

	status, err := Run(context.Background(), process, sink, logger)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status.Code != 4 {
		t.Errorf("exit code = %d, want 4", status.Code)
	}
	if !process.waited {
		t.Error("process was not waited on")
	}
	assertLines(t, "stderr", sink.stderr, []string{"warning: one", "warning: two"})
	if warnings := records.Count(slog.LevelWarn); warnings != 1 {
		t.Errorf("logged %d warnings, want 1", warnings)
	}
}

func TestRunNoStreamsStillWaits(t *testing.T) {
	t.Parallel()

	process := &fakeProcess{
		stdoutErr: errors.New("unavailable"),
		stderrErr: errors.New("unavailable"),
		status:    ExitStatus{Code: 0},
	}
	status, err := Run(context.Background(), process, &recordingSink{}, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !status.Success() || !process.waited {
		t.Fatalf("status = %s, waited = %v", status, process.waited)
	}
}

func TestRunWaitFailure(t *testing.T) {
	t.Parallel()

	process := &fakeProcess{
		stdout:  strings.NewReader("line\n"),
		stderr:  strings.NewReader(""),
		waitErr: errors.New("connection lost"),
	}
	_, err := Run(context.Background(), process, &recordingSink{}, testutil.DiscardLogger())
	var waitError *WaitError
	if !errors.As(err, &waitError) {
		t.Fatalf("Run error = %v, want *WaitError", err)
	}
}

// TestRunDoesNotStarve writes to stderr while stdout stays open and
// silent: the stderr line must reach the sink before stdout closes.
func TestRunDoesNotStarve(t *testing.T) {
	t.Parallel()

	stdoutReader, stdoutWriter := io.Pipe()
	stderrReader, stderrWriter := io.Pipe()
	process := &fakeProcess{stdout: stdoutReader, stderr: stderrReader}

	seen := make(chan string, 4)
	sink := FuncSink(func(stream Stream, text string) { seen <- stream.String() + ":" + text })

	done := make(chan error, 1)
	go func() {
		_, err := Run(context.Background(), process, sink, testutil.DiscardLogger())
		done <- err
	}()

	go fmt.Fprintln(stderrWriter, "progress")
	if got := testutil.RequireReceive(t, seen, 5*time.Second, "stderr line while stdout idle"); got != "stderr:progress" {
		t.Fatalf("first line = %q, want stderr:progress", got)
	}

	go fmt.Fprintln(stdoutWriter, "result")
	if got := testutil.RequireReceive(t, seen, 5*time.Second, "stdout line"); got != "stdout:result" {
		t.Fatalf("second line = %q, want stdout:result", got)
	}

	stdoutWriter.Close()
	stderrWriter.Close()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Run returns after both streams close"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestLogSinkStripsEscapes(t *testing.T) {
	t.Parallel()

	logger, records := testutil.CaptureLogger()
	LogSink(logger).Line(Stderr, "\x1b[1;31merror:\x1b[0m build failed")

	messages := records.Messages()
	if len(messages) != 1 || messages[0] != "error: build failed" {
		t.Fatalf("messages = %q, want [\"error: build failed\"]", messages)
	}
}

func assertLines(t *testing.T, stream string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d lines, want %d (got %q)", stream, len(got), len(want), truncate(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s line %d = %q, want %q", stream, i, got[i], want[i])
		}
	}
}

func truncate(lines []string) []string {
	if len(lines) > 10 {
		return lines[:10]
	}
	return lines
}
