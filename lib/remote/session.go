// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/bureau-foundation/henix/lib/linemux"
)

// Session is one authenticated SSH connection to a node. Commands run
// on separate SSH channels, so a Session may run several commands in
// sequence; it is not meant to be shared between node deployments.
type Session struct {
	client   *ssh.Client
	endpoint Endpoint
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Endpoint returns the endpoint this session is connected to.
func (s *Session) Endpoint() Endpoint { return s.endpoint }

// RunCaptured runs command to completion and returns its exit status
// with stdout and stderr buffered in full.
func (s *Session) RunCaptured(ctx context.Context, command Command) (Captured, error) {
	commandLine := command.String()
	session, err := s.client.NewSession()
	if err != nil {
		return Captured{}, &ExecError{Command: commandLine, Err: err}
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	session.Stdin = command.Stdin

	stop := killOnCancel(ctx, session)
	runErr := session.Run(commandLine)
	if !stop() {
		return Captured{}, &ExecError{Command: commandLine, Err: ctx.Err()}
	}

	status, err := exitStatus(runErr)
	if err != nil {
		return Captured{}, &ExecError{Command: commandLine, Err: err}
	}
	return Captured{Status: status, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}

// RunStreamed runs command and forwards its output to sink line by line
// through linemux. Spawn and wait failures surface as
// *linemux.SpawnError and *linemux.WaitError inside an [ExecError].
func (s *Session) RunStreamed(ctx context.Context, command Command, sink linemux.Sink) (linemux.ExitStatus, error) {
	commandLine := command.String()
	session, err := s.client.NewSession()
	if err != nil {
		return linemux.ExitStatus{}, &ExecError{Command: commandLine, Err: err}
	}
	defer session.Close()
	session.Stdin = command.Stdin

	stop := killOnCancel(ctx, session)
	status, err := linemux.Run(ctx, &sessionProcess{session: session, command: commandLine}, sink, s.logger)
	if !stop() {
		return linemux.ExitStatus{}, &ExecError{Command: commandLine, Err: ctx.Err()}
	}
	if err != nil {
		return linemux.ExitStatus{}, &ExecError{Command: commandLine, Err: err}
	}
	return status, nil
}

// Close closes the underlying connection. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

// killOnCancel signals and closes session when ctx is cancelled. The
// returned stop function reports false if the cancellation already
// fired.
func killOnCancel(ctx context.Context, session *ssh.Session) func() bool {
	return context.AfterFunc(ctx, func() {
		// Not every sshd honours signal requests; closing the channel
		// makes sshd hang up on the command either way.
		session.Signal(ssh.SIGKILL)
		session.Close()
	})
}

// exitStatus converts the error from ssh.Session.Run/Wait into an exit
// status. Only failures to obtain a status are returned as errors.
func exitStatus(err error) (linemux.ExitStatus, error) {
	if err == nil {
		return linemux.ExitStatus{Code: 0}, nil
	}
	var exitError *ssh.ExitError
	if errors.As(err, &exitError) {
		return linemux.ExitStatus{Code: exitError.ExitStatus(), Signal: exitError.Signal()}, nil
	}
	return linemux.ExitStatus{}, err
}

// sessionProcess adapts an ssh.Session to linemux.Process.
type sessionProcess struct {
	session *ssh.Session
	command string
}

func (p *sessionProcess) StdoutPipe() (io.Reader, error) { return p.session.StdoutPipe() }

func (p *sessionProcess) StderrPipe() (io.Reader, error) { return p.session.StderrPipe() }

func (p *sessionProcess) Start() error { return p.session.Start(p.command) }

func (p *sessionProcess) Wait() (linemux.ExitStatus, error) {
	return exitStatus(p.session.Wait())
}
