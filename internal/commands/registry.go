// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"sync"
)

// DefaultPrefix is the sigil that starts a command line.
const DefaultPrefix = "/"

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds the command table in registration order.
type Registry struct {
	mu       sync.RWMutex
	commands []Command
	prefix   string
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	r.registerBuiltins()
	return r
}

// NewEmptyRegistry creates a registry with no commands.
func NewEmptyRegistry() *Registry {
	return &Registry{prefix: DefaultPrefix}
}

// Prefix returns the command sigil.
func (r *Registry) Prefix() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefix
}

// SetPrefix changes the command sigil. Empty values are ignored.
func (r *Registry) SetPrefix(prefix string) {
	if prefix == "" {
		return
	}
	r.mu.Lock()
	r.prefix = prefix
	r.mu.Unlock()
}

// Register adds a top-level command. A command with the same primary name
// is replaced in place.
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.commands {
		if r.commands[i].Name == cmd.Name {
			r.commands[i] = cmd
			return
		}
	}
	r.commands = append(r.commands, cmd)
}

// Table returns a copy of the top-level command list.
func (r *Registry) Table() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table := make([]Command, len(r.commands))
	copy(table, r.commands)
	return table
}

// Match matches query against the current table.
func (r *Registry) Match(query string) MatchResult {
	return Match(query, r.Table())
}

// Get retrieves a top-level command by name or alt name. Primary names win.
func (r *Registry) Get(name string) *Command {
	return findCommand(r.Table(), strings.TrimPrefix(name, r.Prefix()))
}

// Lookup walks path from the top level, matching each element the way
// Match does. It returns nil if any element is unknown.
func (r *Registry) Lookup(path ...string) *Command {
	level := r.Table()
	var cmd *Command
	for _, name := range path {
		cmd = findCommand(level, name)
		if cmd == nil {
			return nil
		}
		level = cmd.SubCommands
	}
	return cmd
}

// All returns pointers to the top-level commands, in order.
func (r *Registry) All() []*Command {
	table := r.Table()
	cmds := make([]*Command, len(table))
	for i := range table {
		cmds[i] = &table[i]
	}
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// Walk calls fn for every command in depth-first order with its canonical
// path. Hidden commands and their children are skipped unless includeHidden.
func (r *Registry) Walk(includeHidden bool, fn func(path []string, cmd *Command)) {
	var walk func(prefix []string, level []Command)
	walk = func(prefix []string, level []Command) {
		for i := range level {
			cmd := &level[i]
			if cmd.Hidden && !includeHidden {
				continue
			}
			path := append(append([]string(nil), prefix...), cmd.Name)
			fn(path, cmd)
			walk(path, cmd.SubCommands)
		}
	}
	walk(nil, r.Table())
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Navigation commands
	r.Register(Command{
		Name:        "help",
		AltNames:    []string{"?"},
		Description: "Show help and available commands",
		Usage:       "/help [command]",
		Category:    "Navigation",
	})

	r.Register(Command{
		Name:        "clear",
		Description: "Clear the screen",
		Category:    "Navigation",
	})

	r.Register(Command{
		Name:        "quit",
		AltNames:    []string{"exit"},
		Description: "Exit the session",
		Category:    "Navigation",
	})

	// Conversation commands
	r.Register(Command{
		Name:        "chat",
		Description: "Manage conversation checkpoints",
		Category:    "Conversation",
		SubCommands: []Command{
			{Name: "list", Description: "List saved checkpoints"},
			{
				Name:        "save",
				Description: "Save the conversation as a checkpoint",
				Usage:       "/chat save <tag>",
				Args:        []ArgDef{{Name: "tag", Required: true, Description: "Checkpoint tag"}},
			},
			{
				Name:        "resume",
				AltNames:    []string{"load"},
				Description: "Resume a saved checkpoint",
				Usage:       "/chat resume <tag>",
				Args:        []ArgDef{{Name: "tag", Required: true, Description: "Checkpoint tag"}},
			},
			{
				Name:        "delete",
				Description: "Delete a saved checkpoint",
				Usage:       "/chat delete <tag>",
				Args:        []ArgDef{{Name: "tag", Required: true, Description: "Checkpoint tag"}},
			},
		},
	})

	r.Register(Command{
		Name:        "memory",
		Description: "Manage memory",
		Category:    "Context",
		SubCommands: []Command{
			{
				Name:        "add",
				Description: "Add text to memory",
				Usage:       "/memory add <text>",
				Args:        []ArgDef{{Name: "text", Required: true, Description: "Text to remember"}},
			},
			{Name: "show", AltNames: []string{"list"}, Description: "Show current memory"},
			{Name: "refresh", Description: "Reload memory from disk"},
		},
	})

	r.Register(Command{
		Name:        "directory",
		AltNames:    []string{"dir"},
		Description: "Manage workspace directories",
		Category:    "Context",
		SubCommands: []Command{
			{
				Name:        "add",
				Description: "Add a directory to the workspace",
				Usage:       "/directory add <path>",
				Args:        []ArgDef{{Name: "path", Required: true, Type: ArgTypeFile, Description: "Directory to add"}},
			},
			{Name: "show", Description: "Show workspace directories"},
		},
	})

	// Tool commands
	r.Register(Command{
		Name:        "tools",
		Description: "List available tools",
		Category:    "Tools",
		SubCommands: []Command{
			{Name: "list", AltNames: []string{"ls"}, Description: "List tools"},
			{Name: "desc", Description: "List tools with descriptions"},
		},
	})

	r.Register(Command{
		Name:        "stats",
		AltNames:    []string{"usage"},
		Description: "Show session statistics",
		Category:    "Tools",
		SubCommands: []Command{
			{Name: "session", Description: "Show session statistics"},
			{Name: "model", Description: "Show model usage"},
			{Name: "tools", Description: "Show tool usage"},
		},
	})

	// Settings commands
	r.Register(Command{
		Name:        "config",
		Description: "Show or change configuration",
		Category:    "Settings",
		SubCommands: []Command{
			{Name: "show", Description: "Show all settings"},
			{
				Name:        "get",
				Description: "Show one setting",
				Usage:       "/config get <key>",
				Args:        []ArgDef{{Name: "key", Required: true, Type: ArgTypeConfig, Description: "Setting key"}},
			},
			{
				Name:        "set",
				Description: "Change one setting for this session",
				Usage:       "/config set <key> <value>",
				Args: []ArgDef{
					{Name: "key", Required: true, Type: ArgTypeConfig, Description: "Setting key"},
					{Name: "value", Required: true, Description: "New value"},
				},
			},
		},
	})

	r.Register(Command{
		Name:        "model",
		Description: "Show or switch the model",
		Usage:       "/model [name]",
		Category:    "Settings",
		Args:        []ArgDef{{Name: "name", Type: ArgTypeModel, Description: "Model name"}},
	})
}
