// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import "fmt"

// ConnectError reports that no session could be established with a
// node: dial failure, handshake failure, rejected host key, or failed
// authentication.
type ConnectError struct {
	Endpoint Endpoint
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ExecError reports that a command could not be run to completion on an
// established connection (channel open failure, lost connection, or
// cancellation). A command that ran and exited non-zero is not an
// ExecError; its status is returned normally.
type ExecError struct {
	Command string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("running %q: %v", e.Command, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
