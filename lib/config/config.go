// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/bureau-foundation/henix/lib/deploy"
)

// EnvConfigDir names the environment variable that selects the
// configuration directory when --cfg-dir is not given.
const EnvConfigDir = "HENIX_CFG_DIR"

// DeployAttribute is the flake output holding the node map.
const DeployAttribute = "deploy"

// DeployConfig is the node map as written in the flake or nodes file.
type DeployConfig struct {
	Nodes map[string]NodeConfig `yaml:"nodes" json:"nodes"`
}

// NodeConfig describes how to reach and treat one node.
type NodeConfig struct {
	// Location is the host name or address to connect to.
	Location string `yaml:"location" json:"location"`

	// SSHPort overrides the SSH port. Zero means 22.
	SSHPort uint16 `yaml:"sshPort,omitempty" json:"sshPort,omitempty"`

	// RollbackOnFailure enables rollback after a failed copy or build.
	RollbackOnFailure bool `yaml:"rollbackOnFailure,omitempty" json:"rollbackOnFailure,omitempty"`
}

// ResolveError reports a node map that could not be obtained or did not
// validate. Source is the flake reference or file path.
type ResolveError struct {
	Source string
	Err    error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolving deployment configuration from %s: %v", e.Source, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// ResolveConfigDir returns the absolute configuration directory: flag
// if set, else $HENIX_CFG_DIR, else the working directory.
func ResolveConfigDir(flag string) (string, error) {
	directory := flag
	if directory == "" {
		directory = os.Getenv(EnvConfigDir)
	}
	if directory == "" {
		directory = "."
	}
	absolute, err := filepath.Abs(directory)
	if err != nil {
		return "", fmt.Errorf("resolving configuration directory %q: %w", directory, err)
	}
	info, err := os.Stat(absolute)
	if err != nil {
		return "", fmt.Errorf("configuration directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("configuration directory %s is not a directory", absolute)
	}
	return absolute, nil
}

// Validate checks that every node has a name and a location.
func (c *DeployConfig) Validate() error {
	if len(c.Nodes) == 0 {
		return errors.New("no nodes defined")
	}

	var errs []error
	for _, name := range c.names() {
		node := c.Nodes[name]
		if name == "" {
			errs = append(errs, errors.New("node with empty name"))
			continue
		}
		if node.Location == "" {
			errs = append(errs, fmt.Errorf("nodes.%s.location is required", name))
		}
	}
	return errors.Join(errs...)
}

// Targets converts the node map into deployment targets keyed by node
// name.
func (c *DeployConfig) Targets() map[string]deploy.Target {
	targets := make(map[string]deploy.Target, len(c.Nodes))
	for name, node := range c.Nodes {
		targets[name] = deploy.Target{
			Name:              name,
			Address:           node.Location,
			Port:              node.SSHPort,
			RollbackOnFailure: node.RollbackOnFailure,
		}
	}
	return targets
}

func (c *DeployConfig) names() []string {
	names := make([]string, 0, len(c.Nodes))
	for name := range c.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// expandVariables expands ${VAR} and ${VAR:-default} in node locations.
func (c *DeployConfig) expandVariables() {
	for name, node := range c.Nodes {
		node.Location = expandVars(node.Location)
		c.Nodes[name] = node
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns from the
// environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
