// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-refs/internal/commands"
	"github.com/jeranaias/rigrun-refs/internal/util"
)

// commandEntry is one row of the command listing.
type commandEntry struct {
	Path        []string `json:"path"`
	Aliases     []string `json:"aliases"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Usage       string   `json:"usage,omitempty"`
	Hidden      bool     `json:"hidden,omitempty"`
}

// nameColumnWidth is the width of the command column in plain output.
const nameColumnWidth = 24

func (a *app) commandsCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List the slash command tree",
		Long: `Commands lists every slash command and subcommand with its alternative names.

On a terminal the listing is rendered as markdown; piped output is plain text.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := commandEntries(a.registry, all)

			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), "commands", entries)
			}

			w := cmd.OutOrStdout()
			if a.color && a.cfg.UI.Markdown {
				out, err := renderMarkdown(commandsMarkdown(entries, a.registry.Prefix()), terminalWidth(w))
				if err == nil {
					fmt.Fprint(w, out)
					return nil
				}
				a.logger.Debug("markdown render failed, using plain output")
			}
			a.printCommandTree(w, entries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include hidden commands")
	return cmd
}

// commandEntries flattens the registry in depth-first order. Subcommands
// inherit the category of their top-level command.
func commandEntries(reg *commands.Registry, includeHidden bool) []commandEntry {
	var entries []commandEntry
	category := ""
	reg.Walk(includeHidden, func(path []string, cmd *commands.Command) {
		if len(path) == 1 {
			category = cmd.Category
			if category == "" {
				category = "General"
			}
		}
		aliases := cmd.AltNames
		if aliases == nil {
			aliases = []string{}
		}
		entries = append(entries, commandEntry{
			Path:        path,
			Aliases:     aliases,
			Category:    category,
			Description: cmd.Description,
			Usage:       cmd.Usage,
			Hidden:      cmd.Hidden,
		})
	})
	return entries
}

// commandsMarkdown renders entries as one table per category.
func commandsMarkdown(entries []commandEntry, prefix string) string {
	var sb strings.Builder
	sb.WriteString("# Commands\n")

	current := ""
	for _, e := range entries {
		if e.Category != current {
			current = e.Category
			fmt.Fprintf(&sb, "\n## %s\n\n", current)
			sb.WriteString("| Command | Alternatives | Description |\n")
			sb.WriteString("|---|---|---|\n")
		}

		var alts []string
		for _, alt := range e.Aliases {
			alts = append(alts, "`"+alt+"`")
		}
		fmt.Fprintf(&sb, "| `%s%s` | %s | %s |\n",
			prefix, strings.Join(e.Path, " "),
			strings.Join(alts, ", "),
			strings.ReplaceAll(e.Description, "|", `\|`))
	}
	return sb.String()
}

// renderMarkdown renders md for a terminal of the given width.
func renderMarkdown(md string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}

func (a *app) printCommandTree(w io.Writer, entries []commandEntry) {
	prefix := a.registry.Prefix()
	current := ""
	for _, e := range entries {
		if e.Category != current {
			if current != "" {
				fmt.Fprintln(w)
			}
			current = e.Category
			fmt.Fprintln(w, a.theme.Header.Render(current))
		}

		depth := len(e.Path) - 1
		name := e.Path[depth]
		if depth == 0 {
			name = prefix + name
		}
		if len(e.Aliases) > 0 {
			name += " (" + strings.Join(e.Aliases, ", ") + ")"
		}

		indent := strings.Repeat("  ", depth+1)
		col := util.PadWidth(util.TruncateWidth(indent+name, nameColumnWidth), nameColumnWidth)
		fmt.Fprintf(w, "%s %s\n", a.theme.Command.Render(col), a.theme.Muted.Render(e.Description))
	}
}
