// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/henix/cmd/henix/cli"
	"github.com/bureau-foundation/henix/lib/config"
	"github.com/bureau-foundation/henix/lib/deploy"
	"github.com/bureau-foundation/henix/lib/dirhash"
	"github.com/bureau-foundation/henix/lib/journal"
	"github.com/bureau-foundation/henix/lib/nix"
	"github.com/bureau-foundation/henix/lib/nixos"
	"github.com/bureau-foundation/henix/lib/remote"
	"github.com/bureau-foundation/henix/lib/transfer"
)

type deployParams struct {
	cli.LogParams

	ConfigDir string   `flag:"cfg-dir,c" desc:"configuration flake directory (default $HENIX_CFG_DIR, then the working directory)"`
	Targets   []string `flag:"target,t" desc:"deploy only this node (repeatable)"`
	Boot      bool     `flag:"boot" desc:"activate on next boot instead of now"`
	ShowTrace bool     `flag:"show-trace" desc:"pass --show-trace to nix evaluation and builds"`
	NodesFile string   `flag:"nodes-file" desc:"read the node map from a YAML or JSONC file instead of evaluating the flake"`

	Hash        string `flag:"hash" desc:"configuration hash: blake3 or nix" default:"blake3"`
	Copy        string `flag:"copy" desc:"copy method: rsync or archive" default:"rsync"`
	Compression string `flag:"compression" desc:"archive compression: zstd or lz4" default:"zstd"`

	Parallel   int           `flag:"parallel" desc:"maximum nodes deployed at once (0 for no limit)"`
	Timeout    time.Duration `flag:"timeout" desc:"per-node deadline from connect through link (0 for none)"`
	RemoteRoot string        `flag:"remote-root" desc:"directory on nodes holding staged configurations" default:"/etc/henix"`

	Identities            []string `flag:"identity,i" desc:"SSH private key file (repeatable; default ~/.ssh/id_*)"`
	KnownHosts            string   `flag:"known-hosts" desc:"known_hosts file (default ~/.ssh/known_hosts)"`
	InsecureIgnoreHostKey bool     `flag:"insecure-ignore-host-key" desc:"accept any host key"`

	Journal string `flag:"journal" desc:"where to record the run (default $XDG_STATE_HOME/henix/last-run.cbor)"`
	Strict  bool   `flag:"strict" desc:"exit 2 if any node fails"`
}

func deployCommand() *cli.Command {
	var params deployParams

	return &cli.Command{
		Name:    "deploy",
		Summary: "Copy, build, and activate the configuration on every node",
		Description: `Deploy the configuration flake to its nodes.

The node map comes from the flake's "deploy" output (or --nodes-file).
For each selected node, henix connects over SSH, hashes the local
configuration, copies it to <remote-root>/<hash>, runs nixos-rebuild
there, and links <remote-root>/latest to it. A node whose copy or build
fails is rolled back when its rollbackOnFailure setting is true.

The command exits 0 once every node has finished, whatever the
outcomes; use --strict to exit 2 when any node failed.`,
		Usage: "henix deploy [flags]",
		Examples: []cli.Example{
			{
				Description: "Deploy every node",
				Command:     "henix deploy --cfg-dir ./fleet",
			},
			{
				Description: "Deploy one node with verbose Nix errors",
				Command:     "henix deploy --target web --show-trace",
			},
			{
				Description: "Copy over the SSH session without rsync",
				Command:     "henix deploy --copy archive --compression lz4",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s (use --target to select nodes)", args[0])
			}
			return runDeploy(ctx, &params, os.Stdout, logger)
		},
	}
}

func runDeploy(ctx context.Context, params *deployParams, stdout *os.File, logger *slog.Logger) error {
	configDir, err := config.ResolveConfigDir(params.ConfigDir)
	if err != nil {
		return cli.Validation("%w", err)
	}
	hasher, err := params.hasher()
	if err != nil {
		return err
	}

	deployConfig, err := params.resolver(configDir).Resolve(ctx)
	if err != nil {
		return cli.Validation("%w", err)
	}
	nodes := deployConfig.Targets()
	options := params.options(configDir)
	if _, err := deploy.SelectTargets(nodes, options.Targets); err != nil {
		return cli.Validation("%w", err)
	}

	dialerConfig, err := params.dialerConfig()
	if err != nil {
		return err
	}
	dialer, err := remote.NewDialer(dialerConfig, logger)
	if err != nil {
		return cli.Validation("%w", err)
	}
	defer dialer.Close()

	copier, err := params.copier()
	if err != nil {
		return err
	}
	steps := deploy.Steps{
		Connector:  deploy.DialerConnector(dialer),
		Hasher:     hasher,
		Copier:     copier,
		Builder:    nixos.Builder{},
		Linker:     nixos.Linker{},
		Rollbacker: nixos.Rollbacker{},
	}

	run := journal.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		ConfigDir: configDir,
		Mode:      string(options.Mode()),
		Targets:   options.Targets,
	}
	logger = logger.With("run_id", run.ID)

	layout := deploy.Layout{Root: params.RemoteRoot}
	orchestrator := deploy.NewOrchestrator(deploy.NewDeployer(steps, layout, logger), logger)
	results, err := orchestrator.Run(ctx, nodes, options)
	if err != nil {
		var validation *deploy.ValidationError
		if errors.As(err, &validation) {
			return cli.Validation("%w", err)
		}
		return err
	}
	run.FinishedAt = time.Now().UTC()
	run.Nodes = journal.NodesFromResults(results)

	recordRun(params.Journal, run, logger)

	if err := renderSummary(stdout, outputProfile(stdout), run); err != nil {
		return cli.Internal("writing summary: %w", err)
	}
	if params.Strict && deploy.AnyFailed(results) {
		return &cli.ExitError{Code: 2}
	}
	return nil
}

// recordRun writes the journal. Failing to record a finished run is
// logged, not fatal: the nodes are already deployed.
func recordRun(path string, run journal.Run, logger *slog.Logger) {
	if path == "" {
		defaultPath, err := journal.DefaultPath()
		if err != nil {
			logger.Warn("not recording run", "error", err)
			return
		}
		path = defaultPath
	}
	if err := journal.Write(path, run); err != nil {
		logger.Warn("recording run failed", "path", path, "error", err)
		return
	}
	logger.Debug("recorded run", "path", path)
}

func (p *deployParams) options(configDir string) deploy.Options {
	return deploy.Options{
		BootOnly:    p.Boot,
		ShowTrace:   p.ShowTrace,
		Targets:     p.Targets,
		ConfigDir:   configDir,
		Parallelism: p.Parallel,
		NodeTimeout: p.Timeout,
	}
}

func (p *deployParams) resolver(configDir string) config.Resolver {
	if p.NodesFile != "" {
		return config.FileResolver{Path: p.NodesFile}
	}
	return config.NixResolver{ConfigDir: configDir, ShowTrace: p.ShowTrace}
}

func (p *deployParams) hasher() (deploy.Hasher, error) {
	switch p.Hash {
	case "blake3":
		return dirhash.Hasher{}, nil
	case "nix":
		return nix.Hasher{}, nil
	default:
		return nil, cli.Validation("invalid --hash %q (want blake3 or nix)", p.Hash)
	}
}

func (p *deployParams) copier() (deploy.Copier, error) {
	switch p.Copy {
	case "rsync":
		return transfer.Rsync{
			SSHOptions: transfer.OpenSSHOptions(p.Identities, p.KnownHosts, p.InsecureIgnoreHostKey),
		}, nil
	case "archive":
		compression, err := transfer.ParseCompression(p.Compression)
		if err != nil {
			return nil, cli.Validation("invalid --compression: %w", err)
		}
		return transfer.Archive{Compression: compression}, nil
	default:
		return nil, cli.Validation("invalid --copy %q (want rsync or archive)", p.Copy)
	}
}

// dialerConfig fills remote.Config from flags, falling back to the
// user's OpenSSH files and $SSH_AUTH_SOCK.
func (p *deployParams) dialerConfig() (remote.Config, error) {
	dialerConfig := remote.Config{
		AgentSocket:           os.Getenv("SSH_AUTH_SOCK"),
		IdentityFiles:         p.Identities,
		KnownHostsFile:        p.KnownHosts,
		InsecureIgnoreHostKey: p.InsecureIgnoreHostKey,
	}
	if len(dialerConfig.IdentityFiles) > 0 && (dialerConfig.KnownHostsFile != "" || dialerConfig.InsecureIgnoreHostKey) {
		return dialerConfig, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return remote.Config{}, cli.Validation("locating SSH files: %w (pass --identity and --known-hosts)", err)
	}
	if len(dialerConfig.IdentityFiles) == 0 {
		dialerConfig.IdentityFiles = remote.DefaultIdentityFiles(home)
	}
	if dialerConfig.KnownHostsFile == "" && !dialerConfig.InsecureIgnoreHostKey {
		dialerConfig.KnownHostsFile = filepath.Join(home, ".ssh", "known_hosts")
	}
	return dialerConfig, nil
}
