// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/rigrun-refs/internal/commands"
	"github.com/jeranaias/rigrun-refs/internal/config"
	"github.com/jeranaias/rigrun-refs/internal/mention"
	"github.com/jeranaias/rigrun-refs/internal/resolver"
	"github.com/jeranaias/rigrun-refs/internal/workspace"
)

// errNotAvailable is returned for commands that belong to the chat host.
var errNotAvailable = errors.New("not available in rigrun-refs")

// =============================================================================
// INPUT
// =============================================================================

// lineReader is the part of liner.State the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// scanReader reads lines from a non-terminal stdin.
type scanReader struct {
	scanner *bufio.Scanner
}

func newScanReader(r io.Reader) *scanReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxInputLine)
	return &scanReader{scanner: s}
}

func (s *scanReader) Prompt(string) (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scanReader) AppendHistory(string) {}
func (s *scanReader) Close() error         { return nil }

// linerReader adds history persistence to liner.
type linerReader struct {
	*liner.State
	historyFile string
}

func newLinerReader(historyFile string, completer liner.Completer) *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completer)

	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return &linerReader{State: line, historyFile: historyFile}
}

// Close saves history with owner-only permissions and restores the terminal.
func (l *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(l.historyFile), 0o700); err == nil {
		if f, err := os.OpenFile(l.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = l.State.WriteHistory(f)
			f.Close()
		}
	}
	return l.State.Close()
}

// =============================================================================
// SESSION
// =============================================================================

// slashHandler runs one matched command. args are the quote-split arguments.
type slashHandler func(s *replSession, ctx context.Context, args []string) error

// sessionStats counts what happened during one REPL session.
type sessionStats struct {
	Commands   int
	Errors     int
	Inputs     int
	References int
	Resolved   int
	Ignored    int
	Failed     int
}

type replSession struct {
	app       *app
	out       io.Writer
	ws        *workspace.Workspace
	resolver  *resolver.Resolver
	completer *commands.Completer
	handlers  map[string]slashHandler
	stats     sessionStats
	started   time.Time
	done      bool
}

func (a *app) replCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive prompt for slash commands and @path references",
		Long: `Repl reads lines interactively. Lines starting with the command prefix are
matched against the command table and run; any other line is tokenized,
highlighted and its @path references resolved against the workspace.

Tab completes command names, subcommands, arguments and @paths. History is
kept in ~/.rigrun-refs/repl_history. Exit with /quit or Ctrl+D.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if a.cfg.Workspace.WatchIgnoreFiles {
				if err := s.ws.Watch(cmd.Context()); err != nil {
					a.logger.Warn("ignore file watching unavailable", zap.Error(err))
				}
			}

			var reader lineReader
			if isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout()) {
				reader = newLinerReader(a.historyPath(), s.completer.CompleteLine)
			} else {
				reader = newScanReader(cmd.InOrStdin())
			}
			defer reader.Close()

			return s.run(cmd.Context(), reader)
		},
	}
}

func (a *app) newSession(out io.Writer) (*replSession, error) {
	ws, err := a.workspace()
	if err != nil {
		return nil, err
	}

	completer := commands.NewCompleter(a.registry)
	if dirs := ws.Directories(); len(dirs) > 0 {
		completer.Root = dirs[0]
	}
	completer.ConfigFn = config.GetAllKeys

	s := &replSession{
		app:       a,
		out:       out,
		ws:        ws,
		resolver:  resolver.New(ws, resolver.WithLogger(a.logger)),
		completer: completer,
		started:   time.Now(),
	}
	s.handlers = map[string]slashHandler{
		"help":           (*replSession).help,
		"clear":          (*replSession).clear,
		"quit":           (*replSession).quit,
		"directory add":  (*replSession).directoryAdd,
		"directory show": (*replSession).directoryShow,
		"stats":          (*replSession).statsSession,
		"stats session":  (*replSession).statsSession,
		"stats tools":    (*replSession).statsCommands,
		"config show":    (*replSession).configShow,
		"config get":     (*replSession).configGet,
		"config set":     (*replSession).configSet,
	}
	return s, nil
}

// run is the read-eval loop. It returns nil on EOF, Ctrl+C or /quit.
func (s *replSession) run(ctx context.Context, reader lineReader) error {
	theme := s.app.theme
	prompt := theme.Prompt.Render("refs> ")

	for !s.done {
		if err := ctx.Err(); err != nil {
			break
		}

		input, err := reader.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				break
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		reader.AppendHistory(input)

		if commands.IsCommand(input, s.app.registry.Prefix()) {
			s.slash(ctx, input)
			continue
		}
		if err := s.references(input); err != nil {
			return err
		}
	}

	s.printSummary()
	return nil
}

// slash parses, runs and records one command line.
func (s *replSession) slash(ctx context.Context, input string) {
	a := s.app
	s.stats.Commands++

	p, err := a.parseLine(input)
	if err == nil {
		key := strings.Join(p.parse.Match.CanonicalPath, " ")
		handler, ok := s.handlers[key]
		if !ok {
			err = fmt.Errorf("%s%s: %w", a.registry.Prefix(), key, errNotAvailable)
		} else {
			err = handler(s, ctx, p.parse.Args)
		}
	}

	a.recordCommand(ctx, a.executionResult(p, err))
	if err == nil {
		return
	}

	s.stats.Errors++
	fmt.Fprintf(s.out, "%s %v\n", a.theme.Failed.Render(a.theme.Indicator.Error), err)
	if !p.report.Matched {
		s.suggest(input)
	}
}

// suggest prints the top-level names closest to an unknown command.
func (s *replSession) suggest(input string) {
	prefix := s.app.registry.Prefix()
	name := commands.ExtractCommandName(input, prefix)
	if name == "" {
		return
	}

	_, size := utf8.DecodeRuneInString(name)
	line := prefix + name[:size]

	var names []string
	for _, c := range s.completer.Complete(line, len(line)) {
		names = append(names, prefix+c.Value)
		if len(names) == 3 {
			break
		}
	}
	if len(names) > 0 {
		fmt.Fprintf(s.out, "%s\n", s.app.theme.Muted.Render("did you mean: "+strings.Join(names, ", ")))
	}
}

// references tokenizes and resolves a free-text line. Oracle faults end the
// session.
func (s *replSession) references(input string) error {
	a := s.app
	s.stats.Inputs++

	parsed := mention.Tokenize(input)
	summary := mention.Summarize(parsed)
	if summary.TotalCount == 0 {
		fmt.Fprintln(s.out, a.theme.Muted.Render("no references"))
		return nil
	}

	outcome, err := s.resolver.Resolve(parsed.Segments)
	if err != nil {
		return NewCommandError("repl", "resolve", "workspace oracle failed", err)
	}

	s.stats.References += outcome.Total()
	s.stats.Resolved += len(outcome.Resolved)
	s.stats.Ignored += len(outcome.Ignored)
	s.stats.Failed += len(outcome.Failed)

	fmt.Fprintln(s.out, a.highlight(input))
	a.printOutcome(s.out, outcome)
	return nil
}

func (s *replSession) printSummary() {
	st := s.stats
	fmt.Fprintln(s.out, s.app.theme.Muted.Render(fmt.Sprintf(
		"%d commands (%d errors), %d references in %s",
		st.Commands, st.Errors, st.References, time.Since(s.started).Round(time.Second))))
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *replSession) help(_ context.Context, args []string) error {
	a := s.app
	if len(args) == 0 {
		a.printCommandTree(s.out, commandEntries(a.registry, false))
		return nil
	}

	m := a.registry.Match(a.registry.Prefix() + strings.Join(args, " "))
	if !m.Matched() || m.Args != "" {
		return ErrNotFound("command", a.registry.Prefix()+strings.Join(args, " "))
	}
	cmd := m.Command
	fmt.Fprintf(s.out, "%s %s\n", a.theme.Command.Render(a.registry.Prefix()+strings.Join(m.CanonicalPath, " ")), cmd.Description)
	if len(cmd.AltNames) > 0 {
		fmt.Fprintf(s.out, "  %s %s\n", a.theme.Label.Render("alternatives:"), a.theme.Alias.Render(strings.Join(cmd.AltNames, ", ")))
	}
	if cmd.Usage != "" {
		fmt.Fprintf(s.out, "  %s %s\n", a.theme.Label.Render("usage:"), cmd.Usage)
	}
	for _, sub := range cmd.SubCommands {
		if sub.Hidden {
			continue
		}
		fmt.Fprintf(s.out, "  %s %s\n", a.theme.Command.Render(sub.Name), a.theme.Muted.Render(sub.Description))
	}
	return nil
}

func (s *replSession) clear(context.Context, []string) error {
	if s.app.color {
		fmt.Fprint(s.out, "\033[H\033[2J")
	}
	return nil
}

func (s *replSession) quit(context.Context, []string) error {
	s.done = true
	return nil
}

func (s *replSession) directoryAdd(_ context.Context, args []string) error {
	if len(args) == 0 {
		return ErrMissingArgument("path", "/directory add <path>")
	}
	for _, dir := range args {
		if err := s.ws.AddDirectory(dir); err != nil {
			return err
		}
		s.app.logger.Info("workspace directory added", zap.String("dir", dir))
	}
	return s.directoryShow(context.Background(), nil)
}

func (s *replSession) directoryShow(context.Context, []string) error {
	for i, dir := range s.ws.Directories() {
		label := "   "
		if i == 0 {
			label = "*  "
		}
		fmt.Fprintf(s.out, "%s%s\n", s.app.theme.Muted.Render(label), dir)
	}
	return nil
}

func (s *replSession) statsSession(context.Context, []string) error {
	st := s.stats
	rows := []struct {
		label string
		value int
	}{
		{"commands", st.Commands},
		{"errors", st.Errors},
		{"inputs", st.Inputs},
		{"references", st.References},
		{"resolved", st.Resolved},
		{"ignored", st.Ignored},
		{"failed", st.Failed},
	}
	for _, r := range rows {
		fmt.Fprintf(s.out, "%s %s\n", s.app.theme.Label.Render(fmt.Sprintf("%-11s", r.label)), humanize.Comma(int64(r.value)))
	}
	fmt.Fprintf(s.out, "%s %s\n", s.app.theme.Label.Render(fmt.Sprintf("%-11s", "started")), humanize.Time(s.started))
	return nil
}

// statsCommands shows per-command totals from the telemetry store.
func (s *replSession) statsCommands(ctx context.Context, _ []string) error {
	a := s.app
	a.telemetryRecorder()
	if a.store == nil {
		fmt.Fprintln(s.out, a.theme.Muted.Render("telemetry is disabled"))
		return nil
	}
	counts, err := a.store.CountByCommand(ctx)
	if err != nil {
		return err
	}
	for _, c := range counts {
		fmt.Fprintf(s.out, "%s %s runs, %s errors\n",
			a.theme.Command.Render(fmt.Sprintf("%-12s", c.Command)),
			humanize.Comma(int64(c.Total)), humanize.Comma(int64(c.Errors)))
	}
	return nil
}

func (s *replSession) configShow(context.Context, []string) error {
	out, err := s.app.cfg.TOML()
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, out)
	return nil
}

func (s *replSession) configGet(_ context.Context, args []string) error {
	if len(args) == 0 {
		return ErrMissingArgument("key", "/config get <key>")
	}
	value, err := s.app.cfg.Get(args[0])
	if err != nil {
		return ErrNotFound("config key", args[0])
	}
	fmt.Fprintln(s.out, value)
	return nil
}

// configSet changes the session configuration only. Filtering and prefix
// changes take effect immediately.
func (s *replSession) configSet(_ context.Context, args []string) error {
	if len(args) < 2 {
		return ErrMissingArgument("value", "/config set <key> <value>")
	}
	a := s.app

	next := a.cfg.Clone()
	if err := next.Set(args[0], strings.Join(args[1:], " ")); err != nil {
		return &ValidationError{Field: args[0], Reason: err.Error()}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	a.cfg = next

	s.ws.SetFilteringOptions(workspace.FilterOptions{
		RespectGitIgnore: next.FileFiltering.RespectGitIgnore,
		RespectAppIgnore: next.FileFiltering.RespectAppIgnore,
	})
	a.registry.SetPrefix(next.Commands.Prefix)

	fmt.Fprintf(s.out, "%s %s\n", a.theme.Resolved.Render(a.theme.Indicator.Success), args[0])
	return nil
}
