// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package linemux

import (
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// signalName returns the short signal name ("KILL", "TERM") for a
// process terminated by a signal, matching the names the SSH protocol
// reports for remote processes.
func signalName(exitError *exec.ExitError) string {
	waitStatus, ok := exitError.Sys().(syscall.WaitStatus)
	if !ok || !waitStatus.Signaled() {
		return "unknown"
	}
	name := unix.SignalName(waitStatus.Signal())
	if name == "" {
		return "unknown"
	}
	return strings.TrimPrefix(name, "SIG")
}
