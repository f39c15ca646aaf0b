// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/jeranaias/rigrun-refs/internal/mention"
)

// maxFileCompletions caps directory listings.
const maxFileCompletions = 20

// Completion is a single completion candidate.
type Completion struct {
	// Value replaces the input from byte offset From to the cursor
	Value string

	// Display text shown in menus
	Display string

	// Description shown alongside
	Description string

	// Score for ranking (higher = better match)
	Score int

	From int
}

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for commands, arguments and @path
// references.
type Completer struct {
	registry *Registry

	// Root is the directory file completion lists when FilesFn is nil
	Root string

	// Callbacks for dynamic completion
	ModelsFn func() []string             // Returns available models
	ConfigFn func() []string             // Returns config keys
	FilesFn  func(prefix string) []string // Returns matching paths
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{
		registry: registry,
		Root:     ".",
	}
}

// Complete returns completions for the given input at the cursor position.
func (c *Completer) Complete(input string, cursorPos int) []Completion {
	if cursorPos >= 0 && cursorPos < len(input) {
		input = input[:cursorPos]
	}

	// An @path reference touching the cursor wins over command completion
	if span, ok := mention.ReferenceAt(input, len(input)); ok && span.End == len(input) {
		return c.completeMentions(span)
	}

	if !IsCommand(input, c.registry.Prefix()) {
		return nil
	}
	return c.completeCommandLine(input)
}

// CompleteLine returns full replacement lines for line, best first.
func (c *Completer) CompleteLine(line string) []string {
	completions := c.Complete(line, len(line))

	seen := make(map[string]bool, len(completions))
	lines := make([]string, 0, len(completions))
	for _, comp := range completions {
		candidate := line[:comp.From] + comp.Value
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		lines = append(lines, candidate)
	}
	return lines
}

// completeCommandLine walks the already typed tokens the way Match does and
// completes the next name or argument.
func (c *Completer) completeCommandLine(input string) []Completion {
	prefix := c.registry.Prefix()
	start := len(input) - len(strings.TrimLeftFunc(input, unicode.IsSpace))
	body := input[start+len(prefix):]

	tokens := strings.Fields(body)
	partial := ""
	if last, _ := utf8.DecodeLastRuneInString(body); body != "" && !unicode.IsSpace(last) && len(tokens) > 0 {
		partial = tokens[len(tokens)-1]
		tokens = tokens[:len(tokens)-1]
	}
	from := len(input) - len(partial)

	level := c.registry.Table()
	var cmd *Command
	consumed := 0
	for consumed < len(tokens) && len(level) > 0 {
		next := findCommand(level, tokens[consumed])
		if next == nil {
			break
		}
		cmd = next
		level = next.SubCommands
		consumed++
	}

	rest := tokens[consumed:]
	if len(rest) == 0 && len(level) > 0 {
		return c.completeNames(level, partial, from, cmd == nil)
	}
	if cmd == nil {
		return nil
	}
	return c.completeArg(cmd, len(rest), partial, from)
}

// =============================================================================
// COMMAND COMPLETION
// =============================================================================

// completeNames returns completions for the commands of one level.
func (c *Completer) completeNames(level []Command, partial string, from int, root bool) []Completion {
	var completions []Completion

	display := func(name string) string {
		if root {
			return c.registry.Prefix() + name
		}
		return name
	}

	lower := strings.ToLower(partial)
	for i := range level {
		cmd := &level[i]
		if cmd.Hidden {
			continue
		}

		if strings.HasPrefix(strings.ToLower(cmd.Name), lower) {
			completions = append(completions, Completion{
				Value:       cmd.Name,
				Display:     display(cmd.Name),
				Description: cmd.Description,
				Score:       calculateScore(cmd.Name, partial),
				From:        from,
			})
		}

		for _, alt := range cmd.AltNames {
			if strings.HasPrefix(strings.ToLower(alt), lower) {
				completions = append(completions, Completion{
					Value:       alt,
					Display:     display(alt) + " -> " + display(cmd.Name),
					Description: cmd.Description,
					Score:       calculateScore(alt, partial) - 10, // Slightly lower score for alt names
					From:        from,
				})
			}
		}
	}

	sortCompletions(completions)
	return completions
}

// =============================================================================
// ARGUMENT COMPLETION
// =============================================================================

// completeArg returns completions for a command argument.
func (c *Completer) completeArg(cmd *Command, argIndex int, partial string, from int) []Completion {
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}

	arg := cmd.Args[argIndex]

	switch arg.Type {
	case ArgTypeFile:
		completions := c.completeFiles(partial, from)
		for i := range completions {
			if strings.ContainsFunc(completions[i].Value, unicode.IsSpace) {
				completions[i].Value = strconv.Quote(completions[i].Value)
			}
		}
		return completions
	case ArgTypeEnum:
		return completeFromList(arg.Values, partial, from)
	case ArgTypeConfig:
		if c.ConfigFn == nil {
			return nil
		}
		return completeFromList(c.ConfigFn(), partial, from)
	case ArgTypeModel:
		if c.ModelsFn == nil {
			return nil
		}
		return completeFromList(c.ModelsFn(), partial, from)
	default:
		return nil
	}
}

// completeFiles returns completions for file paths.
func (c *Completer) completeFiles(partial string, from int) []Completion {
	if c.FilesFn != nil {
		return completeFromList(c.FilesFn(partial), partial, from)
	}
	return c.defaultFileCompletion(partial, from)
}

// defaultFileCompletion lists the directory named by partial, relative to
// Root.
func (c *Completer) defaultFileCompletion(partial string, from int) []Completion {
	var completions []Completion

	dir, prefix := filepath.Split(partial)
	entries, err := os.ReadDir(filepath.Join(c.Root, dir))
	if err != nil {
		return nil
	}

	lower := strings.ToLower(prefix)

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(strings.ToLower(name), lower) {
			continue
		}

		// Skip hidden files unless partial starts with .
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}

		path := dir + name
		if entry.IsDir() {
			path += string(os.PathSeparator)
		}

		score := calculateScore(name, prefix)
		// Boost directories
		if entry.IsDir() {
			score += 5
		}

		desc := ""
		if info, err := entry.Info(); err == nil {
			if entry.IsDir() {
				desc = "directory"
			} else {
				desc = humanize.IBytes(uint64(info.Size()))
			}
		}

		completions = append(completions, Completion{
			Value:       path,
			Display:     name,
			Description: desc,
			Score:       score,
			From:        from,
		})
	}

	sortCompletions(completions)

	if len(completions) > maxFileCompletions {
		completions = completions[:maxFileCompletions]
	}

	return completions
}

// completeFromList returns completions from a list of strings.
func completeFromList(values []string, partial string, from int) []Completion {
	var completions []Completion

	lower := strings.ToLower(partial)

	for _, value := range values {
		if strings.HasPrefix(strings.ToLower(value), lower) {
			completions = append(completions, Completion{
				Value:   value,
				Display: value,
				Score:   calculateScore(value, partial),
				From:    from,
			})
		}
	}

	sortCompletions(completions)
	return completions
}

// =============================================================================
// MENTION COMPLETION
// =============================================================================

// completeMentions completes the @path reference in span. Candidates are
// escaped so they tokenize back to the same path.
func (c *Completer) completeMentions(span mention.Span) []Completion {
	partial := strings.TrimPrefix(mention.Unescape(span.Raw), "@")

	files := c.completeFiles(partial, span.Start)
	for i := range files {
		files[i].Value = "@" + mention.EscapePath(files[i].Value)
		files[i].Display = "@" + files[i].Display
		files[i].From = span.Start
	}
	return files
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// calculateScore calculates a match score for completion ranking.
// Higher score = better match.
func calculateScore(value, partial string) int {
	value = strings.ToLower(value)
	partial = strings.ToLower(partial)

	score := 100

	// Exact match
	if value == partial {
		return score + 100
	}

	// Prefix match bonus
	if strings.HasPrefix(value, partial) {
		score += 50
		// Bonus for shorter completions
		score += 20 - len(value)
	}

	// Length penalty
	score -= len(value) / 2

	return score
}

// sortCompletions sorts completions by score (descending), then alphabetically.
func sortCompletions(completions []Completion) {
	sort.SliceStable(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Value < completions[j].Value
	})
}
