// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/henix/lib/deploy"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "nodes.yaml", `
nodes:
  web:
    location: web.example.org
    sshPort: 2222
    rollbackOnFailure: true
  db:
    location: 10.0.0.5
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}

	want := map[string]deploy.Target{
		"web": {Name: "web", Address: "web.example.org", Port: 2222, RollbackOnFailure: true},
		"db":  {Name: "db", Address: "10.0.0.5"},
	}
	targets := cfg.Targets()
	if len(targets) != len(want) {
		t.Fatalf("got %d targets, want %d", len(targets), len(want))
	}
	for name, target := range want {
		if targets[name] != target {
			t.Errorf("target %s = %+v, want %+v", name, targets[name], target)
		}
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "nodes.jsonc", `{
  // Production fleet.
  "nodes": {
    "web": {"location": "web.example.org", "rollbackOnFailure": true},
    /* staging box */
    "stage": {"location": "stage.example.org", "sshPort": 22,},
  },
}`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if len(cfg.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(cfg.Nodes))
	}
	if !cfg.Nodes["web"].RollbackOnFailure {
		t.Error("expected rollbackOnFailure=true for web")
	}
	if cfg.Nodes["stage"].SSHPort != 22 {
		t.Errorf("expected sshPort=22 for stage, got %d", cfg.Nodes["stage"].SSHPort)
	}
}

func TestLoadFile_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "empty location",
			file:    "nodes.yaml",
			content: "nodes:\n  web:\n    location: \"\"\n",
			wantErr: "nodes.web.location is required",
		},
		{
			name:    "no nodes",
			file:    "nodes.yaml",
			content: "nodes: {}\n",
			wantErr: "no nodes defined",
		},
		{
			name:    "unknown yaml key",
			file:    "nodes.yml",
			content: "nodes:\n  web:\n    location: web\n    sshport: 22\n",
			wantErr: "sshport",
		},
		{
			name:    "unknown json key",
			file:    "nodes.json",
			content: `{"nodes": {"web": {"location": "web", "host": "x"}}}`,
			wantErr: "host",
		},
		{
			name:    "port out of range",
			file:    "nodes.json",
			content: `{"nodes": {"web": {"location": "web", "sshPort": 70000}}}`,
			wantErr: "parsing JSON",
		},
		{
			name:    "unsupported extension",
			file:    "nodes.toml",
			content: "[nodes]\n",
			wantErr: "unsupported nodes file extension",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadFile(writeFile(t, test.file, test.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, test.wantErr)
			}
		})
	}
}

func TestLoadFile_ExpandsLocations(t *testing.T) {
	t.Setenv("HENIX_TEST_WEB_HOST", "198.51.100.7")

	path := writeFile(t, "nodes.yaml", `
nodes:
  web:
    location: ${HENIX_TEST_WEB_HOST}
  db:
    location: ${HENIX_TEST_UNSET_HOST:-db.internal}
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if got := cfg.Nodes["web"].Location; got != "198.51.100.7" {
		t.Errorf("web location = %q, want 198.51.100.7", got)
	}
	if got := cfg.Nodes["db"].Location; got != "db.internal" {
		t.Errorf("db location = %q, want db.internal", got)
	}
}

func TestFileResolver_WrapsErrors(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nodes.yaml")
	_, err := FileResolver{Path: missing}.Resolve(context.Background())

	var resolveErr *ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("error = %v, want *ResolveError", err)
	}
	if resolveErr.Source != missing {
		t.Errorf("Source = %q, want %q", resolveErr.Source, missing)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want it to wrap os.ErrNotExist", err)
	}
}

func TestResolveConfigDir(t *testing.T) {
	flagDir := t.TempDir()
	envDir := t.TempDir()
	t.Setenv(EnvConfigDir, envDir)

	got, err := ResolveConfigDir(flagDir)
	if err != nil {
		t.Fatalf("ResolveConfigDir(flag) failed: %v", err)
	}
	if got != flagDir {
		t.Errorf("flag: got %q, want %q", got, flagDir)
	}

	got, err = ResolveConfigDir("")
	if err != nil {
		t.Fatalf("ResolveConfigDir(env) failed: %v", err)
	}
	if got != envDir {
		t.Errorf("env: got %q, want %q", got, envDir)
	}

	t.Setenv(EnvConfigDir, "")
	workingDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	got, err = ResolveConfigDir("")
	if err != nil {
		t.Fatalf("ResolveConfigDir(cwd) failed: %v", err)
	}
	if got != workingDir {
		t.Errorf("cwd: got %q, want %q", got, workingDir)
	}
}

func TestResolveConfigDir_RejectsFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "flake.nix", "{ }")
	if _, err := ResolveConfigDir(path); err == nil {
		t.Error("expected error for a regular file")
	}
	if _, err := ResolveConfigDir(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist for a missing directory, got %v", err)
	}
}

func TestNixResolver(t *testing.T) {
	t.Parallel()

	// Without a flake the evaluation fails either way; with no nix
	// binary at all the failure comes from binary resolution.
	dir := t.TempDir()
	_, err := NixResolver{ConfigDir: dir}.Resolve(context.Background())
	var resolveErr *ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("error = %v, want *ResolveError", err)
	}
	if resolveErr.Source != dir+"#deploy" {
		t.Errorf("Source = %q, want %q", resolveErr.Source, dir+"#deploy")
	}
}
