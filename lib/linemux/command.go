// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package linemux

import (
	"errors"
	"io"
	"os/exec"
)

// Command adapts a local *exec.Cmd to [Process]. Stdin is left as the
// caller configured it (nil means /dev/null).
func Command(cmd *exec.Cmd) Process {
	return &localProcess{cmd: cmd}
}

type localProcess struct {
	cmd *exec.Cmd
}

func (p *localProcess) StdoutPipe() (io.Reader, error) { return p.cmd.StdoutPipe() }

func (p *localProcess) StderrPipe() (io.Reader, error) { return p.cmd.StderrPipe() }

func (p *localProcess) Start() error { return p.cmd.Start() }

func (p *localProcess) Wait() (ExitStatus, error) {
	err := p.cmd.Wait()
	if err == nil {
		return ExitStatus{Code: 0}, nil
	}

	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		status := ExitStatus{Code: exitError.ExitCode()}
		if status.Code == -1 {
			status.Signal = signalName(exitError)
		}
		return status, nil
	}
	return ExitStatus{}, err
}
