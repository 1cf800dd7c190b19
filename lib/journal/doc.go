// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal records the outcome of the most recent deployment run
// so "henix status" can report it after the terminal output is gone.
//
// The journal is a single CBOR file holding one [Run]. [Write] replaces
// it atomically (write to a temporary file, fsync, rename, fsync the
// directory), so a reader never sees a partially written journal and
// a crash mid-write leaves the previous run intact.
package journal
