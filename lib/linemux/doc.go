// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package linemux drains a child process's stdout and stderr into a
// line-oriented sink while the process runs, then reports its exit
// status.
//
// Both streams are read concurrently, one goroutine per stream, and the
// lines are merged through a single fan-in channel. A chatty stream
// never starves the other: whichever stream produces a line first is
// emitted first. Line order within one stream is preserved exactly;
// ordering between the two streams is arrival order only.
//
// The package knows nothing about nodes or deployments. Anything that
// can hand out two output pipes, start, and wait satisfies [Process]:
// [Command] adapts a local *exec.Cmd, and lib/remote adapts an SSH
// session.
//
// A non-zero exit is not an error. [Run] returns the [ExitStatus] and
// leaves the success decision to the caller. Errors are reserved for
// the process failing to start ([SpawnError]) or failing to be waited
// on ([WaitError]).
package linemux
