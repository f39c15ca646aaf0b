// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// EXECUTION RESULT
// =============================================================================

// ExecutionStatus is the outcome of running a command.
type ExecutionStatus string

const (
	StatusSuccess  ExecutionStatus = "success"
	StatusError    ExecutionStatus = "error"
	StatusNotFound ExecutionStatus = "not_found"
)

// ExecutionResult describes one command execution.
type ExecutionResult struct {
	Status      ExecutionStatus `json:"status"`
	CommandName string          `json:"command_name"`
	Subcommand  string          `json:"subcommand,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// =============================================================================
// SLASH COMMAND EVENT
// =============================================================================

// EventStatus is the status reported in telemetry. Anything other than a
// success is an error.
type EventStatus string

const (
	EventSuccess EventStatus = "success"
	EventError   EventStatus = "error"
)

// SlashCommandEvent is the telemetry record of a command execution.
type SlashCommandEvent struct {
	ID          string      `json:"id"`
	Command     string      `json:"command"`
	Subcommand  string      `json:"subcommand,omitempty"`
	Status      EventStatus `json:"status"`
	ExtensionID string      `json:"extension_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// MakeSlashCommandEvent builds the event for result. extensionID names the
// extension that provided the command, empty for built-ins.
func MakeSlashCommandEvent(result ExecutionResult, extensionID string) SlashCommandEvent {
	status := EventError
	if result.Status == StatusSuccess {
		status = EventSuccess
	}

	return SlashCommandEvent{
		ID:          uuid.NewString(),
		Command:     result.CommandName,
		Subcommand:  result.Subcommand,
		Status:      status,
		ExtensionID: extensionID,
		Timestamp:   time.Now().UTC(),
	}
}
