// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode/utf8"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command is one node of the command tree.
type Command struct {
	// Name is the primary name without the sigil (e.g., "memory")
	Name string

	// AltNames are alternative names (e.g., "list" for "show")
	AltNames []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/memory add <text>")
	Usage string

	// Category for grouping in help display
	Category string

	// Hidden commands don't appear in help or completion
	Hidden bool

	// Args describes the arguments a leaf command accepts
	Args []ArgDef

	// SubCommands are the children, in priority order
	SubCommands []Command
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString ArgType = iota // Free-form string
	ArgTypeFile                  // File path
	ArgTypeEnum                  // One of predefined values
	ArgTypeConfig                // Config key
	ArgTypeModel                 // Model name
)

// HasSubCommands reports whether the command has children.
func (c *Command) HasSubCommands() bool {
	return len(c.SubCommands) > 0
}

// Matches reports whether token is the command's name or one of its alt names.
func (c *Command) Matches(token string) bool {
	if c.Name == token {
		return true
	}
	for _, alt := range c.AltNames {
		if alt == token {
			return true
		}
	}
	return false
}

// =============================================================================
// MATCHING
// =============================================================================

// MatchResult is the outcome of walking a command line against a table.
type MatchResult struct {
	// Command is the deepest matched node, nil when nothing matched. It
	// points into the table passed to Match.
	Command *Command

	// Args is the unconsumed remainder, tokens joined by single spaces
	Args string

	// CanonicalPath holds primary names of matched nodes, never alt names
	CanonicalPath []string

	// Subcommand is CanonicalPath[1:] joined by spaces; empty for top level
	Subcommand string
}

// Matched reports whether any command matched.
func (m MatchResult) Matched() bool {
	return m.Command != nil
}

// HasSubcommand reports whether the match went below the top level.
func (m MatchResult) HasSubcommand() bool {
	return len(m.CanonicalPath) > 1
}

// Name returns the top-level command name, or "".
func (m MatchResult) Name() string {
	if len(m.CanonicalPath) == 0 {
		return ""
	}
	return m.CanonicalPath[0]
}

// Match walks query against table. The first rune of the trimmed query is
// taken as the sigil and dropped; the rest is split on whitespace. At each
// level primary names are tried before alt names, first in table order
// wins. Walking stops at the first token that matches nothing or when a
// leaf is reached; the remaining tokens become Args.
func Match(query string, table []Command) MatchResult {
	trimmed := strings.TrimSpace(query)
	_, size := utf8.DecodeRuneInString(trimmed)
	tokens := strings.Fields(trimmed[size:])

	result := MatchResult{CanonicalPath: []string{}}
	level := table

	consumed := 0
	for consumed < len(tokens) && len(level) > 0 {
		cmd := findCommand(level, tokens[consumed])
		if cmd == nil {
			break
		}
		result.Command = cmd
		result.CanonicalPath = append(result.CanonicalPath, cmd.Name)
		level = cmd.SubCommands
		consumed++
	}

	result.Args = strings.Join(tokens[consumed:], " ")
	if len(result.CanonicalPath) > 1 {
		result.Subcommand = strings.Join(result.CanonicalPath[1:], " ")
	}
	return result
}

// findCommand looks token up at one level: primary names first, then alt
// names.
func findCommand(level []Command, token string) *Command {
	for i := range level {
		if level[i].Name == token {
			return &level[i]
		}
	}
	for i := range level {
		for _, alt := range level[i].AltNames {
			if alt == token {
				return &level[i]
			}
		}
	}
	return nil
}
