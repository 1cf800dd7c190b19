// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nixos

import (
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/henix/lib/deploy"
	"github.com/bureau-foundation/henix/lib/remote"
)

// RebuildCommand returns the nixos-rebuild invocation that builds the
// flake in flakeDir for node and activates it according to mode.
func RebuildCommand(mode deploy.Mode, flakeDir, node string, showTrace bool) remote.Command {
	args := []string{string(mode), "--flake", flakeDir + "#" + node}
	if showTrace {
		args = append(args, "--show-trace")
	}
	return remote.Command{Name: "nixos-rebuild", Args: args}
}

// runChecked runs command with captured output and turns a non-zero
// exit into an error carrying the command's stderr.
func runChecked(ctx context.Context, session deploy.Session, name string, command remote.Command) (remote.Captured, error) {
	captured, err := session.RunCaptured(ctx, command)
	if err != nil {
		return captured, err
	}
	if !captured.Status.Success() {
		statusErr := &deploy.ExitStatusError{Command: name, Status: captured.Status}
		if stderr := strings.TrimSpace(string(captured.Stderr)); stderr != "" {
			return captured, fmt.Errorf("%w: %s", statusErr, stderr)
		}
		return captured, statusErr
	}
	return captured, nil
}
