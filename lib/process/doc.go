// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the henix binary's entrypoint helper for the
// one legitimate raw-output path that exists before the structured
// logger: reporting a fatal error from main() to stderr and exiting.
package process
