// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"context"
	"log/slog"
	"time"
)

// Deployer runs the node state machine. It holds no per-run state and
// is safe for concurrent use by many node runs.
type Deployer struct {
	steps  Steps
	layout Layout
	logger *slog.Logger
}

// NewDeployer returns a Deployer that stages configurations under
// layout.Root on each node. An empty root means [DefaultRemoteRoot].
func NewDeployer(steps Steps, layout Layout, logger *slog.Logger) *Deployer {
	if layout.Root == "" {
		layout.Root = DefaultRemoteRoot
	}
	return &Deployer{steps: steps, layout: layout, logger: logger}
}

// DeployNode runs every step for one node and returns its terminal
// result. It never panics on step failure and never touches any other
// node.
func (d *Deployer) DeployNode(ctx context.Context, target Target, options Options) Result {
	logger := d.logger.With("node", target.Name)
	start := time.Now()

	result := d.deployNode(ctx, target, options, logger)
	result.Node = target.Name
	result.Duration = time.Since(start)
	return result
}

func (d *Deployer) deployNode(ctx context.Context, target Target, options Options, logger *slog.Logger) Result {
	// Rollback runs under the caller's context, not the node deadline:
	// a node that timed out mid-build still gets its rollback.
	rollbackCtx := ctx
	if options.NodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.NodeTimeout)
		defer cancel()
	}

	logger.Info("establishing SSH session", "address", target.Address, "port", target.Port)
	session, err := d.steps.Connector.Connect(ctx, target)
	if err != nil {
		return Result{
			Outcome: ConnectionFailed,
			Stage:   StageConnecting,
			Err:     &StageError{Node: target.Name, Stage: StageConnecting, Err: err},
		}
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Debug("closing SSH session", "error", err)
		}
	}()
	logger.Info("SSH session established")

	hash, err := d.steps.Hasher.Hash(ctx, options.ConfigDir)
	if err != nil {
		return Result{
			Outcome: FailedNoRollback,
			Stage:   StageHashing,
			Err:     &StageError{Node: target.Name, Stage: StageHashing, Err: err},
		}
	}
	logger = logger.With("hash", hash)
	stagingDir := d.layout.Staging(hash)

	failure := failedRun{
		deployer:   d,
		ctx:        rollbackCtx,
		session:    session,
		target:     target,
		options:    options,
		hash:       hash,
		stagingDir: stagingDir,
		logger:     logger,
	}

	logger.Info("copying configuration", "destination", stagingDir)
	err = d.steps.Copier.Copy(ctx, session, CopyRequest{
		Target:    target,
		LocalDir:  options.ConfigDir,
		RemoteDir: stagingDir,
	}, logger)
	if err != nil {
		return failure.handle(StageCopying, err)
	}
	logger.Info("copying finished")

	logger.Info("building configuration on node", "mode", options.Mode(), "show_trace", options.ShowTrace)
	status, err := d.steps.Builder.Build(ctx, session, BuildRequest{
		Node:      target.Name,
		ConfigDir: stagingDir,
		Mode:      options.Mode(),
		ShowTrace: options.ShowTrace,
	}, logger)
	if err == nil && !status.Success() {
		err = &ExitStatusError{Command: "build", Status: status}
	}
	if err != nil {
		return failure.handle(StageBuilding, err)
	}
	logger.Info("build finished")

	result := Result{Outcome: Succeeded, Stage: StageDone, Hash: hash}
	err = d.steps.Linker.Link(ctx, session, LinkRequest{StagingDir: stagingDir, Latest: d.layout.Latest()}, logger)
	if err != nil {
		result.LinkErr = &StageError{Node: target.Name, Stage: StageLinking, Err: err}
		logger.Warn("could not update latest link; deployment itself succeeded", "error", err)
	}
	return result
}

// failedRun holds what the rollback path needs after a Copying or
// Building failure.
type failedRun struct {
	deployer   *Deployer
	ctx        context.Context
	session    Session
	target     Target
	options    Options
	hash       string
	stagingDir string
	logger     *slog.Logger
}

// handle applies the node's rollback policy to a failure at stage.
func (f failedRun) handle(stage Stage, cause error) Result {
	stageErr := &StageError{Node: f.target.Name, Stage: stage, Err: cause}
	f.logger.Error("deployment step failed", "stage", string(stage), "error", cause)

	if !f.target.RollbackOnFailure {
		return Result{Outcome: FailedNoRollback, Stage: stage, Hash: f.hash, Err: stageErr}
	}

	result := Result{Outcome: FailedWithRollback, Stage: stage, Hash: f.hash, Err: stageErr}
	f.logger.Info("rolling back", "failed_stage", string(stage))
	err := f.deployer.steps.Rollbacker.Rollback(f.ctx, f.session, RollbackRequest{
		Node:        f.target.Name,
		FailedStage: stage,
		Hash:        f.hash,
		StagingDir:  f.stagingDir,
		Latest:      f.deployer.layout.Latest(),
		Mode:        f.options.Mode(),
		ShowTrace:   f.options.ShowTrace,
		Cause:       stageErr,
	}, f.logger)
	if err != nil {
		result.RollbackErr = &StageError{Node: f.target.Name, Stage: StageRollingBack, Err: err}
		f.logger.Error("rollback failed",
			"error", err,
			"original_error", cause,
		)
		return result
	}
	f.logger.Info("rollback finished")
	return result
}
