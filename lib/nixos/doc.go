// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nixos runs the NixOS side of a deployment on a node: building
// and activating a staged flake with nixos-rebuild, pointing the
// "latest" link at the configuration that last built successfully, and
// rolling back after a failed copy or build.
//
// Every operation runs through the node's deploy.Session; nothing here
// touches the local machine. Remote paths are shell-quoted with
// remote.Quote.
//
// Rollback restores the state the node had before the run:
//
//   - After a failed build, if "latest" names a different staging
//     directory, that configuration is rebuilt with the same mode, so a
//     half-applied switch is replaced by the last known-good one.
//   - The failed staging directory (and any ".partial" leftover from an
//     archive transfer) is removed, unless "latest" points at it.
//
// A node with no "latest" link has never been deployed by henix; only
// the cleanup runs.
package nixos
