// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-refs/internal/commands"
	"github.com/jeranaias/rigrun-refs/internal/telemetry"
)

// matchReport is the printable form of one matched command line.
type matchReport struct {
	Input         string   `json:"input"`
	Matched       bool     `json:"matched"`
	Command       string   `json:"command,omitempty"`
	CanonicalPath []string `json:"canonical_path"`
	Subcommand    string   `json:"subcommand,omitempty"`
	Args          string   `json:"args"`
	ParsedArgs    []string `json:"parsed_args"`
	Description   string   `json:"description,omitempty"`
	Usage         string   `json:"usage,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func (a *app) matchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "match [line...]",
		Short: "Match a slash command line against the command table",
		Long: `Match walks a /command sub args line down the built-in command tree.

Primary names win over alternative names at every level and the first entry
in table order wins. Whatever is left after the deepest match becomes the
argument text. Quote arguments so the shell passes the line through intact.`,
		Example: `  rigrun-refs match '/memory list'
  rigrun-refs match '/chat resume "my session"' --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := inputText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			report, err := a.matchLine(cmd.Context(), line)
			if err != nil && !report.Matched {
				return err
			}

			if err != nil {
				if !a.jsonOutput {
					a.printMatch(cmd.OutOrStdout(), report)
				}
				return err
			}
			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), "match", report)
			}
			a.printMatch(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

// parsedLine is a command line checked against the registry.
type parsedLine struct {
	parse  commands.ParseResult
	report matchReport
}

// parseLine parses line against the registry. It returns a usage error for
// lines without the prefix and a not-found error for unknown commands. A
// matched line whose arguments fail validation is returned together with
// the validation error.
func (a *app) parseLine(line string) (parsedLine, error) {
	line = strings.TrimSpace(line)
	out := parsedLine{report: matchReport{Input: line, CanonicalPath: []string{}, ParsedArgs: []string{}}}

	prefix := a.registry.Prefix()
	if !commands.IsCommand(line, prefix) {
		return out, &ValidationError{
			Field:   "command line",
			Value:   line,
			Reason:  "must start with " + prefix,
			Example: prefix + "help",
		}
	}

	out.parse = commands.NewParser(a.registry).Parse(line)
	if err := out.parse.Err(); err != nil {
		return out, ErrNotFound("command", prefix+commands.ExtractCommandName(line, prefix))
	}

	m := out.parse.Match
	r := &out.report
	r.Matched = true
	r.Command = strings.Join(m.CanonicalPath, " ")
	r.CanonicalPath = m.CanonicalPath
	r.Subcommand = m.Subcommand
	r.Args = m.Args
	if out.parse.Args != nil {
		r.ParsedArgs = out.parse.Args
	}
	r.Description = m.Command.Description
	r.Usage = m.Command.Usage

	if err := commands.ValidateArgs(m, out.parse.Args); err != nil {
		r.Error = err.Error()
		return out, err
	}
	return out, nil
}

// executionResult maps a parse (and optional run) error to a telemetry result.
func (a *app) executionResult(p parsedLine, err error) telemetry.ExecutionResult {
	if !p.report.Matched {
		result := telemetry.ExecutionResult{
			Status:      telemetry.StatusNotFound,
			CommandName: commands.ExtractCommandName(p.report.Input, a.registry.Prefix()),
		}
		if err != nil {
			result.Error = err.Error()
		}
		return result
	}

	result := telemetry.ExecutionResult{
		Status:      telemetry.StatusSuccess,
		CommandName: p.parse.Match.Name(),
		Subcommand:  p.parse.Match.Subcommand,
	}
	if err != nil {
		result.Status = telemetry.StatusError
		result.Error = err.Error()
	}
	return result
}

// matchLine parses line and records the outcome.
func (a *app) matchLine(ctx context.Context, line string) (matchReport, error) {
	p, err := a.parseLine(line)
	var usage *ValidationError
	if errors.As(err, &usage) {
		// not a command line, nothing to record
		return p.report, err
	}
	a.recordCommand(ctx, a.executionResult(p, err))
	return p.report, err
}

func (a *app) printMatch(w io.Writer, r matchReport) {
	prefix := a.registry.Prefix()
	fmt.Fprintf(w, "%s %s\n", a.theme.Label.Render("command:"), a.theme.Command.Render(prefix+r.Command))
	if r.Subcommand != "" {
		fmt.Fprintf(w, "%s %s\n", a.theme.Label.Render("subcommand:"), r.Subcommand)
	}
	if r.Args != "" {
		fmt.Fprintf(w, "%s %s\n", a.theme.Label.Render("args:"), r.Args)
		for i, arg := range r.ParsedArgs {
			fmt.Fprintf(w, "  %s %q\n", a.theme.Muted.Render(fmt.Sprintf("[%d]", i)), arg)
		}
	}
	if r.Description != "" {
		fmt.Fprintf(w, "%s %s\n", a.theme.Label.Render("description:"), r.Description)
	}
	if r.Usage != "" {
		fmt.Fprintf(w, "%s %s\n", a.theme.Label.Render("usage:"), r.Usage)
	}
}
