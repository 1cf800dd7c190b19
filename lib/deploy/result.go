// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"
	"time"
)

// Stage is a step of the node state machine.
type Stage string

const (
	StageConnecting  Stage = "connecting"
	StageHashing     Stage = "hashing"
	StageCopying     Stage = "copying"
	StageBuilding    Stage = "building"
	StageLinking     Stage = "linking"
	StageRollingBack Stage = "rolling back"
	StageDone        Stage = "done"
)

// Outcome is the terminal state of one node run.
type Outcome int

const (
	Succeeded Outcome = iota
	FailedWithRollback
	FailedNoRollback
	ConnectionFailed
)

// String returns a short human-readable name.
func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case FailedWithRollback:
		return "failed, rolled back"
	case FailedNoRollback:
		return "failed"
	case ConnectionFailed:
		return "connection failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is produced exactly once per node run.
type Result struct {
	Node    string
	Outcome Outcome

	// Stage is the stage that failed, or StageDone on success.
	Stage Stage

	// Hash is the configuration hash, empty if hashing never finished.
	Hash string

	// Err is the failure that ended the run. Nil on success.
	Err error

	// RollbackErr is set when rollback was attempted and failed. Err
	// still holds the failure that triggered the rollback.
	RollbackErr error

	// LinkErr is set when the "latest" link could not be updated.
	// It does not affect Outcome.
	LinkErr error

	Duration time.Duration
}

// AnyFailed reports whether any result is not Succeeded. Callers that
// want a process-level failure signal use this.
func AnyFailed(results []Result) bool {
	for _, result := range results {
		if result.Outcome != Succeeded {
			return true
		}
	}
	return false
}
