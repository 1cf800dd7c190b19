// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/henix/lib/codec"
	"github.com/bureau-foundation/henix/lib/deploy"
)

// FileName is the journal's name inside its state directory.
const FileName = "last-run.cbor"

// Run is one deployment run.
type Run struct {
	// ID correlates the journal with the run's log lines (run_id).
	ID string `cbor:"id"`

	StartedAt  time.Time `cbor:"started_at"`
	FinishedAt time.Time `cbor:"finished_at"`

	ConfigDir string `cbor:"config_dir"`
	Mode      string `cbor:"mode"`

	// Targets is the requested target filter; empty means every node.
	Targets []string `cbor:"targets,omitempty"`

	Nodes []Node `cbor:"nodes"`
}

// Node is one node's result within a run. Errors are stored as their
// messages.
type Node struct {
	Name          string        `cbor:"name"`
	Outcome       string        `cbor:"outcome"`
	Stage         string        `cbor:"stage,omitempty"`
	Hash          string        `cbor:"hash,omitempty"`
	Error         string        `cbor:"error,omitempty"`
	RollbackError string        `cbor:"rollback_error,omitempty"`
	LinkError     string        `cbor:"link_error,omitempty"`
	Duration      time.Duration `cbor:"duration"`
}

// Failed reports whether the node did not deploy successfully.
func (n Node) Failed() bool {
	return n.Outcome != deploy.Succeeded.String()
}

// NodesFromResults converts orchestrator results for the journal.
func NodesFromResults(results []deploy.Result) []Node {
	nodes := make([]Node, len(results))
	for i, result := range results {
		nodes[i] = Node{
			Name:          result.Node,
			Outcome:       result.Outcome.String(),
			Hash:          result.Hash,
			Error:         errorText(result.Err),
			RollbackError: errorText(result.RollbackErr),
			LinkError:     errorText(result.LinkErr),
			Duration:      result.Duration,
		}
		if result.Outcome != deploy.Succeeded {
			nodes[i].Stage = string(result.Stage)
		}
	}
	return nodes
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// DefaultPath returns $XDG_STATE_HOME/henix/last-run.cbor, falling back
// to ~/.local/state when XDG_STATE_HOME is unset.
func DefaultPath() (string, error) {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locating journal: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "henix", FileName), nil
}

// Write atomically replaces the journal at path with run, creating the
// parent directory if needed.
func Write(path string, run Run) error {
	data, err := codec.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling journal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating journal directory: %w", err)
	}

	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating temporary journal file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary journal file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary journal file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary journal file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming journal into place: %w", err)
	}

	// Persist the rename itself.
	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}

	return nil
}

// ErrNoJournal is returned by Read when no run has been recorded.
var ErrNoJournal = errors.New("no deployment has been recorded")

// Read loads the journal at path. A missing file yields ErrNoJournal.
func Read(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Run{}, fmt.Errorf("%w (no journal at %s)", ErrNoJournal, path)
		}
		return Run{}, err
	}

	var run Run
	if err := codec.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("parsing journal %s: %w", path, err)
	}
	return run, nil
}

// ReadRaw returns the journal's bytes unparsed, for diagnostics.
func ReadRaw(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w (no journal at %s)", ErrNoJournal, path)
	}
	return data, err
}
