// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-refs/internal/telemetry"
	"github.com/jeranaias/rigrun-refs/internal/util"
)

// eventsReport is the JSON shape of the events command.
type eventsReport struct {
	Path   string                        `json:"path"`
	Events []telemetry.SlashCommandEvent `json:"events"`
	Counts []telemetry.CommandCount      `json:"counts,omitempty"`
}

func (a *app) eventsCommand() *cobra.Command {
	var (
		limit   int
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recorded slash command events",
		Long: `Events lists slash command executions recorded in the local telemetry store,
newest first. Events are only recorded while telemetry.enabled is true.`,
		Example: `  rigrun-refs events --limit 5
  rigrun-refs events --summary --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return &ValidationError{Field: "limit", Value: strconv.Itoa(limit), Reason: "must be positive", Example: "--limit 20"}
			}

			path, err := a.cfg.TelemetryPath()
			if err != nil {
				return err
			}

			report := eventsReport{Path: path, Events: []telemetry.SlashCommandEvent{}}
			if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
				// nothing recorded yet
				return a.printEvents(cmd.OutOrStdout(), report, summary)
			}

			store, err := a.openStore()
			if err != nil {
				return NewCommandError("events", "open store", path, err)
			}
			a.store = store

			report.Events, err = store.Recent(cmd.Context(), limit)
			if err != nil {
				return NewCommandError("events", "query", "recent events", err)
			}
			if summary {
				report.Counts, err = store.CountByCommand(cmd.Context())
				if err != nil {
					return NewCommandError("events", "query", "command counts", err)
				}
			}
			return a.printEvents(cmd.OutOrStdout(), report, summary)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events to show")
	cmd.Flags().BoolVar(&summary, "summary", false, "Also show per-command totals")
	return cmd
}

func (a *app) printEvents(w io.Writer, report eventsReport, summary bool) error {
	if a.jsonOutput {
		return writeJSON(w, "events", report)
	}

	if len(report.Events) == 0 {
		fmt.Fprintln(w, a.theme.Muted.Render("no events recorded"))
		if !a.cfg.Telemetry.Enabled {
			fmt.Fprintln(w, a.theme.Muted.Render("enable with: rigrun-refs config set telemetry.enabled true"))
		}
		return nil
	}

	ind := a.theme.Indicator
	for _, ev := range report.Events {
		status := a.theme.Resolved.Render(util.PadWidth(ind.Success, 4))
		if ev.Status != telemetry.EventSuccess {
			status = a.theme.Failed.Render(util.PadWidth(ind.Error, 4))
		}
		name := ev.Command
		if ev.Subcommand != "" {
			name += " " + ev.Subcommand
		}
		fmt.Fprintf(w, "%s %s %s\n",
			status,
			util.PadWidth(name, nameColumnWidth),
			a.theme.Muted.Render(humanize.Time(ev.Timestamp)))
	}

	if summary && len(report.Counts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, a.theme.Header.Render("Totals"))
		for _, c := range report.Counts {
			fmt.Fprintf(w, "  %s %s runs, %s errors\n",
				util.PadWidth(c.Command, nameColumnWidth),
				humanize.Comma(int64(c.Total)),
				humanize.Comma(int64(c.Errors)))
		}
	}
	return nil
}
