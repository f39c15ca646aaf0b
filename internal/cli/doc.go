// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the rigrun-refs command-line interface.
//
// # Commands
//
//   - tokenize: split input into text and @path segments
//   - resolve: classify @path references against the workspace
//   - match: walk a slash command line down the command tree
//   - commands: list the command tree
//   - repl: interactive prompt with completion and history
//   - events: recorded slash command telemetry
//   - config: show, get, set and locate configuration
//   - version: build information
//
// Every command accepts --json and writes a single JSONResponse. Errors map
// to exit codes through GetExitCode.
package cli
