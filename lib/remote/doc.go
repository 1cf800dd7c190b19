// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote runs commands on deployment nodes over SSH.
//
// A [Dialer] holds the process-wide SSH client settings (account,
// authentication, host key policy) and is safe to share across
// goroutines. [Dialer.Connect] opens one [Session] per node; a Session
// is owned by exactly one node deployment and closed when that
// deployment finishes.
//
// Sessions offer two ways to run a [Command]:
//
//   - [Session.RunCaptured] buffers stdout and stderr in memory. Used
//     for short steps whose output matters only on failure (readlink,
//     symlink updates, directory cleanup).
//   - [Session.RunStreamed] forwards output line by line through
//     lib/linemux as it is produced. Used for long steps (the remote
//     build) so progress appears in the log while it happens.
//
// Commands are rendered to a single POSIX shell command line with
// every word quoted, because the SSH exec request hands the remote
// login shell a string, not an argv.
//
// Connection failures are reported as [ConnectError] so callers can
// tell "never reached the node" apart from "a command on the node
// failed".
package remote
