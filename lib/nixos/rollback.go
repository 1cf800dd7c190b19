// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nixos

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/bureau-foundation/henix/lib/deploy"
	"github.com/bureau-foundation/henix/lib/linemux"
	"github.com/bureau-foundation/henix/lib/remote"
)

// Rollbacker restores a node after a failed copy or build.
type Rollbacker struct{}

// Rollback re-applies the previous configuration after a failed build
// and removes the failed staging directory.
func (Rollbacker) Rollback(ctx context.Context, session deploy.Session, request deploy.RollbackRequest, logger *slog.Logger) error {
	previous, err := ReadLink(ctx, session, request.Latest)
	if err != nil {
		return err
	}
	failedIsCurrent := path.Clean(previous) == path.Clean(request.StagingDir)

	if request.FailedStage == deploy.StageBuilding {
		switch {
		case previous == "":
			logger.Warn("no previous configuration to restore", "latest", request.Latest)
		case failedIsCurrent:
			logger.Warn("failed configuration is already the latest, not re-applying it", "latest", previous)
		default:
			if err := reapply(ctx, session, request, previous, logger); err != nil {
				return err
			}
		}
	}

	if failedIsCurrent {
		return nil
	}
	script := fmt.Sprintf("rm -rf %s %s",
		remote.Quote(request.StagingDir), remote.Quote(request.StagingDir+".partial"))
	if _, err := runChecked(ctx, session, "cleanup", remote.Shell(script)); err != nil {
		return fmt.Errorf("removing %s: %w", request.StagingDir, err)
	}
	logger.Info("removed failed configuration", "staging", request.StagingDir)
	return nil
}

func reapply(ctx context.Context, session deploy.Session, request deploy.RollbackRequest, previous string, logger *slog.Logger) error {
	command := RebuildCommand(request.Mode, previous, request.Node, request.ShowTrace)
	logger.Info("re-applying previous configuration", "configuration", previous)
	status, err := session.RunStreamed(ctx, command, linemux.LogSink(logger))
	if err != nil {
		return fmt.Errorf("re-applying %s: %w", previous, err)
	}
	if !status.Success() {
		return fmt.Errorf("re-applying %s: %w", previous,
			&deploy.ExitStatusError{Command: "nixos-rebuild", Status: status})
	}
	return nil
}
