// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves the deployment node map: which nodes exist,
// where to reach them, and whether to roll them back on failure.
//
// The node map normally comes from the configuration flake itself, via
// "nix eval --json <dir>#deploy" ([NixResolver]). A standalone YAML or
// JSONC file with the same schema can be used instead ([FileResolver]),
// which needs no Nix evaluation on the deploying machine:
//
//	nodes:
//	  web:
//	    location: web.example.org
//	    sshPort: 2222
//	    rollbackOnFailure: true
//
// The configuration directory itself is chosen by [ResolveConfigDir]:
// the --cfg-dir flag, then the HENIX_CFG_DIR environment variable, then
// the working directory. No other environment variables are consulted,
// except ${VAR} expansion inside node locations of a nodes file.
//
// Every failure is returned as a *[ResolveError] naming its source.
package config
