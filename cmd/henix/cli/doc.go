// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the henix CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a parameter struct whose tagged
// fields become flags (see [BindFlags]), and a Run function. Commands are
// assembled into a tree in cmd/henix and dispatched via
// [Command.Execute], which handles flag parsing, subcommand routing,
// logger construction, and structured help output with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3). This is implemented in
// suggest.go.
//
// Every Run function receives a *slog.Logger built by
// [NewCommandLogger]. Parameter structs that embed [LogParams] get
// --log-level and --log-format flags that control it.
//
// Errors returned from Run are either plain errors (printed as
// "error: ..." with exit code 1), categorized [ToolError] values, or an
// [ExitError] carrying an exit code after the command has already
// written its own output.
package cli
