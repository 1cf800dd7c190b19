// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transfer copies a local configuration directory into a
// hash-addressed staging directory on a node. Both copiers satisfy
// deploy.Copier and leave the destination holding exactly the files of
// the source, minus any ".git" directory.
//
// [Rsync] runs the local rsync binary over its own ssh transport and
// streams rsync's output into the node's log. It is the default: rsync
// only sends what changed when a staging directory already exists.
//
// [Archive] needs nothing on the deploying machine beyond the SSH
// session henix already holds. It writes a tar stream of the tree,
// compresses it with zstd or LZ4, and pipes it into the remote
// command's stdin. The remote side extracts into "<staging>.partial"
// and renames over the staging directory only after tar succeeds, so
// an interrupted transfer never leaves a half-written staging
// directory behind and files deleted locally disappear remotely.
package transfer
