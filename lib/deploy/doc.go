// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package deploy drives configuration deployments to a fleet of nodes.
//
// A [Deployer] runs the per-node state machine:
//
//	Connecting → Hashing → Copying → Building → Linking → Done
//
// with a RollingBack branch after a Copying or Building failure. Each
// run ends in exactly one [Outcome]: Succeeded, FailedWithRollback,
// FailedNoRollback, or ConnectionFailed. Connection failures never
// trigger rollback because nothing has happened on the node yet.
//
// The configuration is staged on the node under a directory named by
// its content hash ([Layout]), so distinct configurations never
// collide. After a successful build the "latest" link is pointed at the
// staging directory; failure to update that link is a warning only.
//
// Rollback is gated by the node's RollbackOnFailure flag, evaluated at
// the moment of failure, for both Copying and Building failures. A
// rollback error is recorded next to the original error, never in
// place of it.
//
// An [Orchestrator] validates the target filter against the node map
// before touching any node, then runs one node deployment per selected
// node concurrently. Nodes share nothing mutable; one node's failure
// never cancels or blocks another.
//
// Every remote or local side effect goes through a narrow interface
// ([Connector], [Hasher], [Copier], [Builder], [Linker], [Rollbacker])
// gathered in [Steps]. Implementations live in lib/remote,
// lib/dirhash, lib/nix, lib/transfer, and lib/nixos.
package deploy
