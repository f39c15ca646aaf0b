// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/rigrun-refs/internal/commands"
	"github.com/jeranaias/rigrun-refs/internal/config"
	"github.com/jeranaias/rigrun-refs/internal/logging"
	"github.com/jeranaias/rigrun-refs/internal/telemetry"
	"github.com/jeranaias/rigrun-refs/internal/ui/styles"
	"github.com/jeranaias/rigrun-refs/internal/workspace"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// app holds global flags and the lazily built collaborators shared by
// every subcommand.
type app struct {
	// Global flags
	configPath string
	workspaces []string
	jsonOutput bool
	noColor    bool
	verbose    int
	quiet      bool

	cfg       *config.Config
	logger    *zap.Logger
	logCloser io.Closer
	theme     *styles.Theme
	color     bool
	registry  *commands.Registry

	ws       *workspace.Workspace
	store    *telemetry.Store
	recorder *telemetry.Recorder
}

// NewRootCommand builds the rigrun-refs command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	return a.rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "rigrun-refs",
		Short: "Parse @path references and /slash commands",
		Long: `rigrun-refs interprets the two mini-languages embedded in chat input:
@path file references (tokenized, then resolved against the workspace with
.gitignore and .rigrunignore rules) and /command sub args slash commands
(matched against an aliased command tree).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "version", "path", "help", "completion":
				return nil
			}
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to config file (default ~/.rigrun-refs/config.toml)")
	pf.StringArrayVarP(&a.workspaces, "workspace", "w", nil, "Workspace directory (repeatable, first is the base)")
	pf.BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	pf.CountVarP(&a.verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "Suppress all logging")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ValidationError{Field: "flag", Reason: err.Error(), Example: cmd.UseLine()}
	})

	root.AddCommand(
		a.tokenizeCommand(),
		a.resolveCommand(),
		a.matchCommand(),
		a.commandsCommand(),
		a.replCommand(),
		a.eventsCommand(),
		a.configCommand(),
		a.versionCommand(),
	)
	return root
}

// setup loads configuration and builds the logger, theme and registry.
func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		if _, statErr := os.Stat(a.configPath); errors.Is(statErr, os.ErrNotExist) && cmd.Name() == "set" {
			// config set creates the file
			cfg = config.Default()
			cfg.ApplyEnvOverrides()
			cfg.SetDefaults()
			err = cfg.Validate()
		} else {
			cfg, err = config.LoadFromPath(a.configPath)
		}
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return &configError{err: err}
	}
	if len(a.workspaces) > 0 {
		cfg.Workspace.Directories = append([]string{}, a.workspaces...)
	}
	a.cfg = cfg

	if err := a.setupLogger(cmd.ErrOrStderr()); err != nil {
		return &configError{err: err}
	}

	a.color = colorMode(cfg.UI.Color, a.noColor, a.jsonOutput, cmd.OutOrStdout())
	configureColorProfile(a.color, cmd.OutOrStdout())
	a.theme = styles.NewTheme(a.color)

	a.registry = commands.NewRegistry()
	a.registry.SetPrefix(cfg.Commands.Prefix)

	a.logger.Debug("configured",
		zap.Strings("workspace", cfg.Workspace.Directories),
		zap.String("prefix", cfg.Commands.Prefix),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)
	return nil
}

func (a *app) setupLogger(stderr io.Writer) error {
	var level zapcore.Level
	if a.verbose > 0 || a.quiet {
		level = logging.LevelFromVerbosity(a.verbose, a.quiet)
	} else {
		l, err := logging.ParseLevel(a.cfg.Logging.Level)
		if err != nil {
			return err
		}
		level = l
	}
	format := logging.Format(a.cfg.Logging.Format)

	if a.cfg.Logging.File != "" {
		logger, closer, err := logging.NewFile(a.cfg.Logging.File, level, format)
		if err != nil {
			return err
		}
		a.logger, a.logCloser = logger, closer
		return nil
	}

	logger, err := logging.New(logging.Options{Level: level, Format: format, Output: stderr})
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// workspace opens the workspace on first use. With no configured
// directories the current directory is the only root.
func (a *app) workspace() (*workspace.Workspace, error) {
	if a.ws != nil {
		return a.ws, nil
	}

	dirs := a.cfg.Workspace.Directories
	if len(dirs) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		dirs = []string{wd}
	}

	ws, err := workspace.New(workspace.Config{
		Directories:   dirs,
		AppIgnoreFile: a.cfg.Workspace.AppIgnoreFile,
		Filtering: workspace.FilterOptions{
			RespectGitIgnore: a.cfg.FileFiltering.RespectGitIgnore,
			RespectAppIgnore: a.cfg.FileFiltering.RespectAppIgnore,
		},
		Logger: a.logger,
	})
	if err != nil {
		return nil, NewCommandError("workspace", "open", "invalid workspace directory", err)
	}
	a.ws = ws
	return ws, nil
}

// telemetryRecorder returns the recorder, opening the event store when
// telemetry is enabled. A store that cannot be opened is logged and the
// recorder only logs.
func (a *app) telemetryRecorder() *telemetry.Recorder {
	if a.recorder != nil {
		return a.recorder
	}

	if a.cfg.Telemetry.Enabled {
		store, err := a.openStore()
		if err != nil {
			a.logger.Warn("telemetry store unavailable", zap.Error(err))
		} else {
			a.store = store
		}
	}
	a.recorder = telemetry.NewRecorder(a.logger, a.store, a.cfg.Telemetry.Enabled)
	return a.recorder
}

func (a *app) openStore() (*telemetry.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	path, err := a.cfg.TelemetryPath()
	if err != nil {
		return nil, err
	}
	return telemetry.OpenStore(path)
}

// recordCommand logs one slash command execution.
func (a *app) recordCommand(ctx context.Context, result telemetry.ExecutionResult) {
	if _, err := a.telemetryRecorder().LogSlashCommand(ctx, result, ""); err != nil {
		a.logger.Debug("telemetry write failed", zap.Error(err))
	}
}

// historyPath is the REPL history file.
func (a *app) historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "repl_history")
}

// close releases everything setup and the lazy accessors opened.
func (a *app) close() {
	if a.ws != nil {
		_ = a.ws.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// Run executes the CLI with explicit streams and returns the exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	a.close()
	if err == nil {
		return ExitSuccess
	}

	name := root.Name()
	if cmd != nil {
		name = cmd.Name()
	}
	if a.jsonOutput {
		DisplayError(stdout, err, true, name)
	} else {
		DisplayError(stderr, err, false, name)
	}
	return GetExitCode(err)
}

// Execute runs the CLI against the process streams.
func Execute() int {
	return Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}
