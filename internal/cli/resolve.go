// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/rigrun-refs/internal/mention"
	"github.com/jeranaias/rigrun-refs/internal/resolver"
)

// resolvedInput is one input line with its classification.
type resolvedInput struct {
	Input   string            `json:"input"`
	Outcome *resolver.Outcome `json:"outcome"`
}

func (a *app) resolveCommand() *cobra.Command {
	var noGitIgnore, noAppIgnore bool

	cmd := &cobra.Command{
		Use:   "resolve [text...]",
		Short: "Resolve @path references against the workspace",
		Long: `Resolve tokenizes input and classifies every @path reference as resolved,
ignored (by .gitignore or the application ignore file) or failed.

With arguments the joined text is one input. Without arguments each non-blank
stdin line is resolved independently and concurrently.`,
		Example: `  rigrun-refs resolve -w ~/project 'check @src/main.go and @build/out.bin'
  rigrun-refs resolve --no-git-ignore '@vendor/lib.go'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := inputLines(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return ErrMissingArgument("text", "rigrun-refs resolve '@path/to/file'")
			}

			ws, err := a.workspace()
			if err != nil {
				return err
			}
			filtering := ws.FilteringOptions()
			if noGitIgnore {
				filtering.RespectGitIgnore = false
			}
			if noAppIgnore {
				filtering.RespectAppIgnore = false
			}
			ws.SetFilteringOptions(filtering)

			batches := make([][]mention.Segment, len(lines))
			for i, line := range lines {
				batches[i] = mention.Tokenize(line).Segments
			}

			r := resolver.New(ws, resolver.WithLogger(a.logger))
			outcomes, err := r.ResolveAll(cmd.Context(), batches)
			if err != nil {
				return NewCommandError("resolve", "classify", "workspace oracle failed", err)
			}

			results := make([]resolvedInput, len(lines))
			for i := range lines {
				results[i] = resolvedInput{Input: lines[i], Outcome: outcomes[i]}
				a.logger.Info("resolved input",
					zap.Int("resolved", len(outcomes[i].Resolved)),
					zap.Int("ignored", len(outcomes[i].Ignored)),
					zap.Int("failed", len(outcomes[i].Failed)),
				)
			}

			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), "resolve", results)
			}
			for i, res := range results {
				if len(results) > 1 {
					if i > 0 {
						fmt.Fprintln(cmd.OutOrStdout())
					}
					fmt.Fprintln(cmd.OutOrStdout(), a.highlight(res.Input))
				}
				a.printOutcome(cmd.OutOrStdout(), res.Outcome)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noGitIgnore, "no-git-ignore", false, "Do not apply .gitignore rules")
	cmd.Flags().BoolVar(&noAppIgnore, "no-app-ignore", false, "Do not apply the application ignore file")
	return cmd
}

// highlight styles every @path span of input.
func (a *app) highlight(input string) string {
	return mention.HighlightReferences(input, func(ref string) string {
		return a.theme.Mention.Render(ref)
	})
}

func (a *app) printOutcome(w io.Writer, o *resolver.Outcome) {
	ind := a.theme.Indicator

	if o.Total() == 0 {
		fmt.Fprintln(w, a.theme.Muted.Render("no references"))
		return
	}

	for _, r := range o.Resolved {
		fmt.Fprintf(w, "%s %s %s\n",
			a.theme.Resolved.Render(ind.Success),
			r.DisplayPath,
			a.theme.Muted.Render(r.AbsolutePath))
	}
	for _, ig := range o.Ignored {
		fmt.Fprintf(w, "%s %s %s\n",
			a.theme.Ignored.Render(ind.Warning),
			ig.Path,
			a.theme.Muted.Render("(ignored: "+ig.Reason.String()+")"))
	}
	for _, f := range o.Failed {
		fmt.Fprintf(w, "%s %s\n", a.theme.Failed.Render(ind.Error), f)
	}
}
