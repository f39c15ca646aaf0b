// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-refs/internal/mention"
	"github.com/jeranaias/rigrun-refs/internal/util"
)

func (a *app) tokenizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize [text...]",
		Short: "Split input into text and @path segments",
		Long: `Tokenize splits input into plain text and @path reference segments.

Input comes from the arguments, joined with spaces, or from stdin when no
arguments are given. Nothing is resolved against the filesystem.`,
		Example: `  rigrun-refs tokenize 'Look at @src/main.go. Then @docs/My\ Notes.md'
  echo '@a.txt, @b.txt' | rigrun-refs tokenize --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := inputText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			parsed := mention.Tokenize(input)
			a.logger.Debug("tokenized")

			if a.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), "tokenize", parsed)
			}
			a.printSegments(cmd.OutOrStdout(), parsed)
			return nil
		},
	}
}

func (a *app) printSegments(w io.Writer, parsed mention.ParsedReference) {
	for _, seg := range parsed.Segments {
		kind := util.PadWidth(seg.Kind.String(), 7)
		if seg.IsPath() {
			fmt.Fprintf(w, "%s %s\n", a.theme.Label.Render(kind), a.theme.Mention.Render(seg.Content))
			continue
		}
		fmt.Fprintf(w, "%s %s\n", a.theme.Label.Render(kind), a.theme.Text.Render(strconv.Quote(seg.Content)))
	}

	summary := mention.Summarize(parsed)
	if s := summary.Format(); s != "" {
		fmt.Fprintf(w, "%s\n", a.theme.Muted.Render(s))
	}
}
