// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dirhash computes a content hash of a configuration directory
// without shelling out to Nix. The hash names the hash-addressed
// staging directory a deployment copies into on each node, so two runs
// over an unchanged tree land in the same place.
//
// The digest is a BLAKE3 keyed hash over a framed walk of the tree in
// lexical order. Each entry contributes its slash-separated relative
// path, its type (directory, regular file, executable file, symlink),
// and its content: file bytes for regular files, the link target for
// symlinks. Directories named ".git" are skipped at any depth, matching
// the transfer exclusion, so commits and index churn never change the
// hash of an otherwise identical tree.
package dirhash
