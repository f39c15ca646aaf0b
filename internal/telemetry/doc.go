// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records slash command executions.
//
// Every executed command produces a SlashCommandEvent. Events are always
// written to the structured log and, when a Store is attached, persisted to
// a local SQLite database for later inspection with "rigrun-refs events".
//
// # Key Types
//
//   - ExecutionResult: what happened when a command ran
//   - SlashCommandEvent: the telemetry record derived from a result
//   - Store: SQLite event storage
//   - Recorder: logs and stores events
//
// # Usage
//
//	store, err := telemetry.OpenStore(path)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	rec := telemetry.NewRecorder(logger, store, true)
//	rec.LogSlashCommand(ctx, telemetry.ExecutionResult{
//		Status:      telemetry.StatusSuccess,
//		CommandName: "memory",
//		Subcommand:  "show",
//	}, "")
//
// # Privacy
//
// Telemetry is local-only and does not transmit any data. Command
// arguments are never recorded.
package telemetry
