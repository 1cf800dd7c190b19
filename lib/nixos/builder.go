// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nixos

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/henix/lib/deploy"
	"github.com/bureau-foundation/henix/lib/linemux"
)

// Builder runs nixos-rebuild on the node and streams its output into
// the node's log.
type Builder struct{}

// Build runs the build. A non-zero exit is returned as the status with
// a nil error; the error is reserved for failures to run the command.
func (Builder) Build(ctx context.Context, session deploy.Session, request deploy.BuildRequest, logger *slog.Logger) (linemux.ExitStatus, error) {
	command := RebuildCommand(request.Mode, request.ConfigDir, request.Node, request.ShowTrace)
	logger.Info("building", "command", command.String())
	return session.RunStreamed(ctx, command, linemux.LogSink(logger))
}
