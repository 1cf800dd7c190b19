// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// henix deploys NixOS flake configurations to a fleet of machines over
// SSH. Each node receives a hash-addressed copy of the configuration
// directory, builds and activates it in place with nixos-rebuild, and
// optionally rolls back when the copy or build fails. Nodes deploy
// concurrently and fail independently.
//
// Usage:
//
//	henix deploy [--cfg-dir DIR] [--target NAME]... [--boot]
//	henix status [--journal PATH] [--json]
//	henix version
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/henix/lib/process"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (deploy --strict) return
		// an ExitError with the desired exit code. Don't print a
		// redundant "error:" line for those.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	defer stop()
	return root().Execute(ctx, os.Args[1:])
}
