// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-refs/internal/config"
)

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
		Long: `Config reads and writes ~/.rigrun-refs/config.toml (or the file named by --config).

Keys use dot notation matching the file sections, e.g. file_filtering.respect_git_ignore.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if a.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), "config show", a.cfg)
				}
				out, err := a.cfg.TOML()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			},
		},
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print one configuration value",
			Args:  cobra.ExactArgs(1),
			ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
				return config.GetAllKeys(), cobra.ShellCompDirectiveNoFileComp
			},
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := a.cfg.Get(args[0])
				if err != nil {
					return ErrNotFound("config key", args[0])
				}
				if a.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), "config get", map[string]interface{}{"key": args[0], "value": value})
				}
				if dirs, ok := value.([]string); ok {
					value = strings.Join(dirs, ",")
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Change one configuration value and save it",
			Long: `Set changes one value in the config file. Environment overrides are not
written back. List values take a comma-separated string.`,
			Example: `  rigrun-refs config set file_filtering.respect_app_ignore false
  rigrun-refs config set workspace.directories ~/src/a,~/src/b`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := a.configFilePath()
				if err != nil {
					return &configError{err: err}
				}
				if err := setConfigValue(path, args[0], args[1]); err != nil {
					return err
				}
				if a.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), "config set", map[string]string{"key": args[0], "value": args[1], "path": path})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", a.theme.Resolved.Render(a.theme.Indicator.Success), args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := a.configFilePath()
				if err != nil {
					return &configError{err: err}
				}
				if a.jsonOutput {
					_, statErr := os.Stat(path)
					return writeJSON(cmd.OutOrStdout(), "config path", map[string]interface{}{"path": path, "exists": statErr == nil})
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}

// configFilePath is the --config file, or the default file: an existing
// config.json when there is no config.toml, else config.toml.
func (a *app) configFilePath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := config.ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// setConfigValue loads the file at path without environment overrides,
// applies key=value, validates and saves it in the same format.
func setConfigValue(path, key, value string) error {
	cfg := config.Default()
	isJSON := strings.HasSuffix(strings.ToLower(path), ".json")

	if _, err := os.Stat(path); err == nil {
		load := config.LoadTOML
		if isJSON {
			load = config.LoadJSON
		}
		if err := load(cfg, path); err != nil {
			return &configError{err: fmt.Errorf("load %s: %w", path, err)}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return &configError{err: err}
	}

	if err := cfg.Set(key, value); err != nil {
		if strings.HasPrefix(err.Error(), "unknown field") {
			return ErrNotFound("config key", key)
		}
		return &ValidationError{Field: key, Value: value, Reason: err.Error()}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if isJSON {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}
