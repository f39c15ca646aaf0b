// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"strings"
	"unicode"
)

// ErrUnknownCommand is returned when a command line matches nothing.
var ErrUnknownCommand = errors.New("unknown command")

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing user input.
type ParseResult struct {
	// IsCommand is true if the input starts with the registry prefix
	IsCommand bool

	// Match is the command tree walk
	Match MatchResult

	// Args are the unconsumed arguments, split with quote handling
	Args []string

	// RawInput is the trimmed input string
	RawInput string
}

// Err returns ErrUnknownCommand for command lines that matched nothing.
func (r ParseResult) Err() error {
	if r.IsCommand && !r.Match.Matched() {
		return ErrUnknownCommand
	}
	return nil
}

// =============================================================================
// PARSER
// =============================================================================

// Parser handles parsing of slash commands and their arguments.
type Parser struct {
	registry *Registry
}

// NewParser creates a new parser with the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses user input and returns the parse result.
// Returns IsCommand=false if the input doesn't start with the prefix.
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)

	result := ParseResult{RawInput: input}
	if !IsCommand(input, p.registry.Prefix()) {
		return result
	}

	result.IsCommand = true
	result.Match = p.registry.Match(input)
	result.Args = ParseArgs(result.Match.Args)
	return result
}

// ParseArgs parses a raw argument string into individual arguments.
// Handles quoted strings with spaces.
func ParseArgs(input string) []string {
	return splitCommandLine(input)
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// splitCommandLine splits a command line into tokens, respecting quotes.
// Supports both single and double quotes for arguments with spaces.
func splitCommandLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingleQuote, inDoubleQuote, quoted bool

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		char := runes[i]

		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote
			quoted = true

		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			quoted = true

		case char == '\\' && i+1 < len(runes) && (inDoubleQuote || inSingleQuote):
			// Escape sequence inside quotes
			next := runes[i+1]
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(char)
			}

		case unicode.IsSpace(char) && !inSingleQuote && !inDoubleQuote:
			if current.Len() > 0 || quoted {
				tokens = append(tokens, current.String())
				current.Reset()
				quoted = false
			}

		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 || quoted {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// IsCommand returns true if the input appears to be a command.
func IsCommand(input, prefix string) bool {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return strings.HasPrefix(strings.TrimSpace(input), prefix)
}

// ExtractCommandName extracts the first word after the prefix.
// e.g., "/memory add x" -> "memory"
func ExtractCommandName(input, prefix string) string {
	input = strings.TrimSpace(input)
	if !IsCommand(input, prefix) {
		return ""
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	rest := input[len(prefix):]
	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end == -1 {
		return rest
	}
	return rest[:end]
}

// ValidateArgs checks the arguments of a matched leaf command against its
// argument definitions.
func ValidateArgs(m MatchResult, args []string) error {
	if m.Command == nil {
		return nil
	}
	name := strings.Join(m.CanonicalPath, " ")

	for i, argDef := range m.Command.Args {
		if argDef.Required && i >= len(args) {
			return &ValidationError{
				Command:  name,
				Arg:      argDef.Name,
				Message:  "required argument missing",
				Expected: argDef.Description,
			}
		}

		if i < len(args) && argDef.Type == ArgTypeEnum && len(argDef.Values) > 0 {
			valid := false
			for _, v := range argDef.Values {
				if strings.EqualFold(args[i], v) {
					valid = true
					break
				}
			}
			if !valid {
				return &ValidationError{
					Command:  name,
					Arg:      argDef.Name,
					Message:  "invalid value",
					Got:      args[i],
					Expected: strings.Join(argDef.Values, ", "),
				}
			}
		}
	}

	return nil
}

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError represents an argument validation error.
type ValidationError struct {
	Command  string
	Arg      string
	Message  string
	Got      string
	Expected string
}

func (e *ValidationError) Error() string {
	msg := e.Command + ": " + e.Message
	if e.Arg != "" {
		msg += " for argument '" + e.Arg + "'"
	}
	if e.Got != "" {
		msg += " (got: " + e.Got + ")"
	}
	if e.Expected != "" {
		msg += " - expected: " + e.Expected
	}
	return msg
}
