// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system.
//
// Commands form a tree: each Command has a primary name, optional alt
// names and optional SubCommands. Match walks a command line such as
// "/memory list extra args" down the tree and reports the canonical path
// (["memory", "show"]), the subcommand ("show") and the unconsumed
// arguments ("extra args").
//
// # Key Types
//
//   - Command: one node of the command tree
//   - MatchResult: outcome of Match
//   - Registry: ordered table with the built-in commands
//   - Parser: Match plus quote-aware argument splitting
//   - Completer: tab completion for commands, arguments and @path references
//
// # Matching Rules
//
// At every level an exact primary name match beats any alt name match, even
// when the alt name belongs to an earlier entry. Alt names never appear in
// the canonical path.
//
// # Usage
//
//	registry := commands.NewRegistry()
//	m := registry.Match("/stats model")
//	// m.CanonicalPath == []string{"stats", "model"}
//	// m.Subcommand == "model"
//
//	completer := commands.NewCompleter(registry)
//	completions := completer.Complete("/mem", 4)
//	// completions[0].Value == "memory"
package commands
