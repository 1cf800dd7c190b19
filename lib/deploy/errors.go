// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/henix/lib/linemux"
)

// StageError is a failure of one step of a node run. The Stage field
// classifies it: StageConnecting is a connection error, StageHashing a
// hash error, StageCopying a copy error, StageBuilding a build error,
// StageRollingBack a rollback error.
type StageError struct {
	Node  string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.Node, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ExitStatusError reports a remote command that ran but exited
// unsuccessfully.
type ExitStatusError struct {
	Command string
	Status  linemux.ExitStatus
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("%s failed with %s", e.Command, e.Status)
}

// ValidationError reports target names that do not exist in the node
// map, or a malformed node map. It is returned before any node is
// contacted.
type ValidationError struct {
	// Unknown lists the requested targets missing from the node map.
	Unknown []string

	// Known lists the node names that do exist, for the error message.
	Known []string

	// Problems lists structural problems with the node map itself.
	Problems []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf(
			"unknown target node(s) %s (known nodes: %s); did you remember to `git add` its configuration?",
			quoteAll(e.Unknown), strings.Join(e.Known, ", ")))
	}
	parts = append(parts, e.Problems...)
	return strings.Join(parts, "; ")
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	return strings.Join(quoted, ", ")
}
