// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/henix/cmd/henix/cli"
	"github.com/bureau-foundation/henix/lib/version"
)

func root() *cli.Command {
	return &cli.Command{
		Name:    "henix",
		Summary: "Deploy NixOS configurations to a fleet over SSH",
		Description: `Deploy NixOS configurations to a fleet over SSH.

henix copies the configuration flake to each node under a directory
named by its content hash, runs nixos-rebuild there, and points the
node's "latest" link at the result. Nodes are deployed concurrently;
a failing node never stops the others.`,
		Subcommands: []*cli.Command{
			deployCommand(),
			statusCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Deploy every node in the flake in the current directory",
				Command:     "henix deploy",
			},
			{
				Description: "Stage a configuration for next boot on two nodes",
				Command:     "henix deploy --boot --target web --target db",
			},
			{
				Description: "Show the outcome of the last run",
				Command:     "henix status",
			},
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			fmt.Printf("henix %s\n", version.Full())
			return nil
		},
	}
}
