// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/muesli/termenv"

	"github.com/bureau-foundation/henix/cmd/henix/cli"
	"github.com/bureau-foundation/henix/lib/codec"
	"github.com/bureau-foundation/henix/lib/journal"
)

type statusParams struct {
	cli.JSONOutput
	Journal  string `flag:"journal" desc:"journal to read (default $XDG_STATE_HOME/henix/last-run.cbor)"`
	Diagnose bool   `flag:"diagnose" desc:"print the raw journal in CBOR diagnostic notation"`
}

// runStatus is the JSON form of a recorded run.
type runStatus struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	ConfigDir  string       `json:"config_dir"`
	Mode       string       `json:"mode"`
	Targets    []string     `json:"targets"`
	Nodes      []nodeStatus `json:"nodes"`
	Failed     int          `json:"failed"`
}

type nodeStatus struct {
	Name          string  `json:"name"`
	Outcome       string  `json:"outcome"`
	Stage         string  `json:"stage,omitempty"`
	Hash          string  `json:"hash,omitempty"`
	Error         string  `json:"error,omitempty"`
	RollbackError string  `json:"rollback_error,omitempty"`
	LinkError     string  `json:"link_error,omitempty"`
	Seconds       float64 `json:"duration_seconds"`
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show the outcome of the last deployment",
		Description: `Print the journal recorded by the last "henix deploy": one row per
node with its outcome, the stage a failed node stopped at, and the
error it reported.`,
		Usage: "henix status [flags]",
		Examples: []cli.Example{
			{
				Description: "List failed nodes with jq",
				Command:     `henix status --json | jq -r '.nodes[] | select(.outcome != "succeeded") | .name'`,
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runStatusCommand(&params, os.Stdout, outputProfile(os.Stdout))
		},
	}
}

func runStatusCommand(params *statusParams, stdout io.Writer, profile termenv.Profile) error {
	path := params.Journal
	if path == "" {
		defaultPath, err := journal.DefaultPath()
		if err != nil {
			return cli.Internal("locating journal: %w", err)
		}
		path = defaultPath
	}

	if params.Diagnose {
		return diagnoseJournal(stdout, path)
	}

	run, err := journal.Read(path)
	if err != nil {
		if errors.Is(err, journal.ErrNoJournal) {
			return cli.NotFound("%w", err)
		}
		return cli.Internal("%w", err)
	}

	if done, err := params.EmitJSON(statusFromRun(run)); done {
		return err
	}

	if err := renderSummary(stdout, profile, run); err != nil {
		return cli.Internal("writing status: %w", err)
	}
	fmt.Fprintf(stdout, "finished %s (took %s)\n",
		run.FinishedAt.Local().Format(time.DateTime),
		run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	return nil
}

func diagnoseJournal(w io.Writer, path string) error {
	data, err := journal.ReadRaw(path)
	if err != nil {
		if errors.Is(err, journal.ErrNoJournal) {
			return cli.NotFound("%w", err)
		}
		return cli.Internal("reading journal: %w", err)
	}
	diagnostic, err := codec.Diagnose(data)
	if err != nil {
		return cli.Internal("decoding journal %s: %w", path, err)
	}
	_, err = fmt.Fprintln(w, diagnostic)
	return err
}

func statusFromRun(run journal.Run) runStatus {
	status := runStatus{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		ConfigDir:  run.ConfigDir,
		Mode:       run.Mode,
		Targets:    run.Targets,
		Nodes:      make([]nodeStatus, 0, len(run.Nodes)),
	}
	if status.Targets == nil {
		status.Targets = []string{}
	}
	for _, node := range run.Nodes {
		if node.Failed() {
			status.Failed++
		}
		status.Nodes = append(status.Nodes, nodeStatus{
			Name:          node.Name,
			Outcome:       node.Outcome,
			Stage:         node.Stage,
			Hash:          node.Hash,
			Error:         node.Error,
			RollbackError: node.RollbackError,
			LinkError:     node.LinkError,
			Seconds:       node.Duration.Seconds(),
		})
	}
	return status
}
