// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for henix packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls.
//
// [CaptureLogger] returns a *slog.Logger whose records are kept in
// memory, so tests can assert on warnings that are deliberately
// non-fatal (a failed "latest" link, a missing output pipe).
// [DiscardLogger] is the silent counterpart.
//
// [WriteTree] materializes a small directory tree from a map of
// relative paths to contents, for hashing and transfer tests.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no henix-internal dependencies.
package testutil
