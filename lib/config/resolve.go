// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/henix/lib/nix"
)

// Resolver produces the node map for a deployment.
type Resolver interface {
	Resolve(ctx context.Context) (*DeployConfig, error)
}

// NixResolver evaluates the "deploy" output of the configuration flake.
type NixResolver struct {
	// ConfigDir is the flake directory.
	ConfigDir string

	// ShowTrace passes --show-trace to nix eval.
	ShowTrace bool
}

// Resolve runs "nix eval --json <ConfigDir>#deploy".
func (r NixResolver) Resolve(ctx context.Context) (*DeployConfig, error) {
	source := r.ConfigDir + "#" + DeployAttribute
	var extra []string
	if r.ShowTrace {
		extra = append(extra, "--show-trace")
	}

	var config DeployConfig
	if err := nix.Eval(ctx, r.ConfigDir, DeployAttribute, &config, extra...); err != nil {
		return nil, &ResolveError{Source: source, Err: err}
	}
	if err := config.Validate(); err != nil {
		return nil, &ResolveError{Source: source, Err: err}
	}
	return &config, nil
}

// FileResolver reads the node map from a YAML (.yaml, .yml) or JSONC
// (.json, .jsonc) file. Unknown keys are rejected.
type FileResolver struct {
	Path string
}

// Resolve reads, parses, expands, and validates the file.
func (r FileResolver) Resolve(context.Context) (*DeployConfig, error) {
	config, err := LoadFile(r.Path)
	if err != nil {
		return nil, &ResolveError{Source: r.Path, Err: err}
	}
	return config, nil
}

// LoadFile loads and validates a nodes file. The format is chosen by
// extension.
func LoadFile(path string) (*DeployConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config DeployConfig
	switch extension := strings.ToLower(filepath.Ext(path)); extension {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&config); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&config); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported nodes file extension %q (want .yaml, .yml, .json, or .jsonc)", extension)
	}

	config.expandVariables()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
