// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// NodeRunner deploys a single node. *Deployer implements it.
type NodeRunner interface {
	DeployNode(ctx context.Context, target Target, options Options) Result
}

// Orchestrator fans a deployment out across nodes.
type Orchestrator struct {
	runner NodeRunner
	logger *slog.Logger
}

// NewOrchestrator returns an Orchestrator that deploys each node with
// runner.
func NewOrchestrator(runner NodeRunner, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{runner: runner, logger: logger}
}

// Run validates options.Targets against nodes, then deploys every
// selected node concurrently and waits for all of them. The only error
// is a *ValidationError, returned before any node is contacted. Node
// failures are logged and reported in the returned results (sorted by
// node name); they never stop other nodes.
func (o *Orchestrator) Run(ctx context.Context, nodes map[string]Target, options Options) ([]Result, error) {
	selected, err := SelectTargets(nodes, options.Targets)
	if err != nil {
		return nil, err
	}
	o.logger.Info("deploying", "nodes", len(selected), "mode", options.Mode())

	var semaphore chan struct{}
	if options.Parallelism > 0 {
		semaphore = make(chan struct{}, options.Parallelism)
	}

	results := make([]Result, len(selected))
	var waitGroup sync.WaitGroup
	for index, target := range selected {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			if semaphore != nil {
				select {
				case semaphore <- struct{}{}:
					defer func() { <-semaphore }()
				case <-ctx.Done():
					results[index] = Result{
						Node:    target.Name,
						Outcome: ConnectionFailed,
						Stage:   StageConnecting,
						Err:     &StageError{Node: target.Name, Stage: StageConnecting, Err: ctx.Err()},
					}
					o.logResult(results[index])
					return
				}
			}
			results[index] = o.runner.DeployNode(ctx, target, options)
			o.logResult(results[index])
		}()
	}
	waitGroup.Wait()

	return results, nil
}

func (o *Orchestrator) logResult(result Result) {
	logger := o.logger.With(
		"node", result.Node,
		"outcome", result.Outcome.String(),
		"duration", result.Duration.Round(time.Millisecond).String(),
	)
	switch {
	case result.Outcome == Succeeded:
		logger.Info("node deployed", "hash", result.Hash)
	case result.RollbackErr != nil:
		logger.Error("node deployment failed and rollback failed",
			"stage", string(result.Stage),
			"error", result.Err,
			"rollback_error", result.RollbackErr,
		)
	default:
		logger.Error("node deployment failed", "stage", string(result.Stage), "error", result.Err)
	}
}

// SelectTargets returns the nodes a run will deploy, sorted by name:
// every node when names is nil, otherwise the named ones. Unknown
// names, and nodes whose map key disagrees with their Name or that have
// no address, produce a *ValidationError.
func SelectTargets(nodes map[string]Target, names []string) ([]Target, error) {
	known := make([]string, 0, len(nodes))
	var problems []string
	for key, target := range nodes {
		known = append(known, key)
		switch {
		case key == "":
			problems = append(problems, "node map contains an empty node name")
		case target.Name != key:
			problems = append(problems, fmt.Sprintf("node %q is registered under key %q", target.Name, key))
		case target.Address == "":
			problems = append(problems, fmt.Sprintf("node %q has no address", key))
		}
	}
	slices.Sort(known)
	slices.Sort(problems)

	var unknown []string
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := nodes[name]; !ok {
			if !slices.Contains(unknown, name) {
				unknown = append(unknown, name)
			}
			continue
		}
		wanted[name] = true
	}

	if len(unknown) > 0 || len(problems) > 0 {
		return nil, &ValidationError{Unknown: unknown, Known: known, Problems: problems}
	}

	selected := make([]Target, 0, len(nodes))
	for _, name := range known {
		if names == nil || wanted[name] {
			selected = append(selected, nodes[name])
		}
	}
	return selected, nil
}
