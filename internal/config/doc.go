// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for rigrun-refs.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - WorkspaceConfig: Workspace roots and the application ignore file name
//   - FileFilteringConfig: Which ignore rule sets apply to @path references
//   - ValidateErrors: Every validation failure found in one pass
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RIGRUN_REFS_*)
//   - ~/.rigrun-refs/config.toml
//   - ~/.rigrun-refs/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	respectGit := cfg.FileFiltering.RespectGitIgnore
//	level, _ := cfg.Get("logging.level")
package config
