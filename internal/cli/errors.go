// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for all rigrun-refs CLI commands.
//
// STANDARDIZED PATTERN:
//   - ALWAYS return errors (never just print and return nil)
//   - Let Run decide how to display errors and which exit code to use
//   - Use structured error types for better error handling

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/jeranaias/rigrun-refs/internal/commands"
	"github.com/jeranaias/rigrun-refs/internal/config"
	"github.com/jeranaias/rigrun-refs/internal/workspace"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "resolve", "events")
	Action  string // Action being performed (e.g., "open store")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "command", "config key")
	ID       string // Identifier that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// configError marks failures loading or validating configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{
		Command: command,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{
		Field:   argName,
		Reason:  "required argument missing",
		Example: usage,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the appropriate exit code for an error.
//   - ExitUsageError (2): ValidationError, cobra usage errors
//   - ExitConfigError (3): config load and validation errors
//   - ExitNotFoundError (7): NotFoundError, unknown slash commands, missing files
//   - ExitGeneralError (1): all other errors
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var argErr *commands.ValidationError
	if errors.As(err, &validationErr) || errors.As(err, &argErr) {
		return ExitUsageError
	}

	var cfgErr *configError
	var cfgValidation config.ValidateErrors
	if errors.As(err, &cfgErr) || errors.As(err, &cfgValidation) {
		return ExitConfigError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) || errors.Is(err, commands.ErrUnknownCommand) || errors.Is(err, fs.ErrNotExist) {
		return ExitNotFoundError
	}

	if errors.Is(err, workspace.ErrNotDirectory) {
		return ExitUsageError
	}

	// cobra reports argument and flag problems as plain errors
	msg := err.Error()
	for _, prefix := range []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"invalid argument",
		"flag needs an argument",
		"accepts ",
		"requires at least",
		"requires at most",
	} {
		if strings.HasPrefix(msg, prefix) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w in a consistent format. In JSON mode it
// writes a structured error object.
func DisplayError(w io.Writer, err error, jsonMode bool, command string) {
	if err == nil {
		return
	}

	if jsonMode {
		displayErrorJSON(w, err, command)
		return
	}

	fmt.Fprintf(w, "Error: %s\n", err.Error())
}

func displayErrorJSON(w io.Writer, err error, command string) {
	resp := NewJSONErrorResponse(command, err)

	details := map[string]interface{}{}
	var (
		cmdErr      *CommandError
		validation  *ValidationError
		notFound    *NotFoundError
		cfgValidate config.ValidateErrors
	)
	switch {
	case errors.As(err, &cmdErr):
		details["error_type"] = "command_error"
		details["action"] = cmdErr.Action
		details["reason"] = cmdErr.Reason
	case errors.As(err, &validation):
		details["error_type"] = "validation_error"
		details["field"] = validation.Field
		details["value"] = validation.Value
	case errors.As(err, &notFound):
		details["error_type"] = "not_found_error"
		details["resource"] = notFound.Resource
		details["id"] = notFound.ID
	case errors.As(err, &cfgValidate):
		details["error_type"] = "config_error"
		fields := make([]string, len(cfgValidate))
		for i, v := range cfgValidate {
			fields[i] = v.Field
		}
		details["fields"] = fields
	default:
		details["error_type"] = "generic_error"
	}
	details["exit_code"] = GetExitCode(err)
	resp.Data = details

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}
