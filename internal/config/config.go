// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/rigrun-refs/internal/logging"
	"github.com/jeranaias/rigrun-refs/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigrun-refs configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Workspace roots and ignore file name
	Workspace WorkspaceConfig `toml:"workspace" json:"workspace"`

	// Which ignore rule sets apply to @path references
	FileFiltering FileFilteringConfig `toml:"file_filtering" json:"file_filtering"`

	// Slash command settings
	Commands CommandsConfig `toml:"commands" json:"commands"`

	// Local slash command telemetry
	Telemetry TelemetryConfig `toml:"telemetry" json:"telemetry"`

	Logging LoggingConfig `toml:"logging" json:"logging"`

	UI UIConfig `toml:"ui" json:"ui"`
}

// WorkspaceConfig lists the workspace roots.
type WorkspaceConfig struct {
	// Directories are the roots in priority order; empty means the current directory
	Directories []string `toml:"directories" json:"directories"`
	// AppIgnoreFile is the per-root application ignore file name
	AppIgnoreFile string `toml:"app_ignore_file" json:"app_ignore_file"`
	// WatchIgnoreFiles reloads ignore rules when ignore files change (long-running sessions)
	WatchIgnoreFiles bool `toml:"watch_ignore_files" json:"watch_ignore_files"`
}

// FileFilteringConfig toggles the ignore rule sets.
type FileFilteringConfig struct {
	RespectGitIgnore bool `toml:"respect_git_ignore" json:"respect_git_ignore"`
	RespectAppIgnore bool `toml:"respect_app_ignore" json:"respect_app_ignore"`
}

// CommandsConfig contains slash command settings.
type CommandsConfig struct {
	// Prefix is the single character that starts a command line
	Prefix string `toml:"prefix" json:"prefix"`
}

// TelemetryConfig contains event storage settings.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
	// DatabasePath is the SQLite event store; empty means <config dir>/telemetry.db
	DatabasePath string `toml:"database_path" json:"database_path"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error, off
	Level string `toml:"level" json:"level"`
	// Format is console or json
	Format string `toml:"format" json:"format"`
	// File, when set, receives logs instead of stderr
	File string `toml:"file" json:"file"`
}

// UIConfig contains terminal output settings.
type UIConfig struct {
	// Color is "auto", "always" or "never"
	Color string `toml:"color" json:"color"`
	// Markdown renders help output through glamour
	Markdown bool `toml:"markdown" json:"markdown"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Workspace: WorkspaceConfig{
			Directories:      []string{},
			AppIgnoreFile:    ".rigrunignore",
			WatchIgnoreFiles: true,
		},

		FileFiltering: FileFilteringConfig{
			RespectGitIgnore: true,
			RespectAppIgnore: true,
		},

		Commands: CommandsConfig{
			Prefix: "/",
		},

		Telemetry: TelemetryConfig{
			Enabled:      false,
			DatabasePath: "",
		},

		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
			File:   "",
		},

		UI: UIConfig{
			Color:    "auto",
			Markdown: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the configuration directory path. RIGRUN_REFS_HOME
// overrides the default of ~/.rigrun-refs.
func ConfigDir() (string, error) {
	if dir := os.Getenv("RIGRUN_REFS_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigrun-refs"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// TelemetryPath returns the event database path, resolving the default.
func (c *Config) TelemetryPath() (string, error) {
	if c.Telemetry.DatabasePath != "" {
		return c.Telemetry.DatabasePath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "telemetry.db"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	tomlPath, err := ConfigPathTOML()
	if err == nil && fileExists(tomlPath) {
		return LoadFromPath(tomlPath)
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil && fileExists(jsonPath) {
		return LoadFromPath(jsonPath)
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Files ending in .json are JSON; anything else is TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies env overrides, fills blanks and validates.
func (c *Config) finish() error {
	c.ApplyEnvOverrides()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# rigrun-refs configuration file\n")
	buf.WriteString("# Generated by rigrun-refs - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600, 0o755); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0o600, 0o755); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// Workspace
	// ==========================================================================

	for i, dir := range c.Workspace.Directories {
		if strings.TrimSpace(dir) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("workspace.directories[%d]", i),
				Message: "directory cannot be empty",
			})
		}
	}

	if name := c.Workspace.AppIgnoreFile; name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		errs = append(errs, ValidationError{
			Field:   "workspace.app_ignore_file",
			Message: fmt.Sprintf("invalid file name '%s', must be a plain file name", name),
		})
	}

	// ==========================================================================
	// Commands
	// ==========================================================================

	prefix := c.Commands.Prefix
	if utf8.RuneCountInString(prefix) != 1 {
		errs = append(errs, ValidationError{
			Field:   "commands.prefix",
			Message: fmt.Sprintf("invalid prefix '%s', must be exactly one character", prefix),
		})
	} else if r, _ := utf8.DecodeRuneInString(prefix); unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsDigit(r) || r == '@' {
		errs = append(errs, ValidationError{
			Field:   "commands.prefix",
			Message: fmt.Sprintf("invalid prefix '%s', must be a symbol other than @", prefix),
		})
	}

	// ==========================================================================
	// Logging
	// ==========================================================================

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error, off", c.Logging.Level),
		})
	}

	validFormats := map[string]bool{string(logging.FormatConsole): true, string(logging.FormatJSON): true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: console, json", c.Logging.Format),
		})
	}

	// ==========================================================================
	// UI
	// ==========================================================================

	validColors := map[string]bool{"auto": true, "always": true, "never": true}
	if !validColors[strings.ToLower(c.UI.Color)] {
		errs = append(errs, ValidationError{
			Field:   "ui.color",
			Message: fmt.Sprintf("invalid color mode '%s', must be one of: auto, always, never", c.UI.Color),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty string settings with their defaults. Booleans
// are left alone since false is a valid choice.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Workspace.Directories == nil {
		c.Workspace.Directories = []string{}
	}
	if c.Workspace.AppIgnoreFile == "" {
		c.Workspace.AppIgnoreFile = defaults.Workspace.AppIgnoreFile
	}
	if c.Commands.Prefix == "" {
		c.Commands.Prefix = defaults.Commands.Prefix
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if c.UI.Color == "" {
		c.UI.Color = defaults.UI.Color
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - RIGRUN_REFS_WORKSPACE: overrides workspace.directories (path list)
//   - RIGRUN_REFS_RESPECT_GITIGNORE: overrides file_filtering.respect_git_ignore
//   - RIGRUN_REFS_RESPECT_APPIGNORE: overrides file_filtering.respect_app_ignore
//   - RIGRUN_REFS_LOG_LEVEL: overrides logging.level
//   - RIGRUN_REFS_TELEMETRY: overrides telemetry.enabled
//   - NO_COLOR: sets ui.color to never
func (c *Config) ApplyEnvOverrides() {
	if ws := os.Getenv("RIGRUN_REFS_WORKSPACE"); ws != "" {
		var dirs []string
		for _, dir := range filepath.SplitList(ws) {
			if dir = strings.TrimSpace(dir); dir != "" {
				dirs = append(dirs, dir)
			}
		}
		c.Workspace.Directories = dirs
	}

	if v := os.Getenv("RIGRUN_REFS_RESPECT_GITIGNORE"); v != "" {
		c.FileFiltering.RespectGitIgnore = parseBool(v)
	}

	if v := os.Getenv("RIGRUN_REFS_RESPECT_APPIGNORE"); v != "" {
		c.FileFiltering.RespectAppIgnore = parseBool(v)
	}

	if level := os.Getenv("RIGRUN_REFS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	if v := os.Getenv("RIGRUN_REFS_TELEMETRY"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.UI.Color = "never"
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "logging.level").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "logging.level").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup resolves a dotted key to a leaf field.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section, not a value", key)
			}
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strings.ToLower(strVal))
			if err != nil {
				switch strings.ToLower(strVal) {
				case "yes", "on":
					boolVal = true
				case "no", "off":
					boolVal = false
				default:
					return fmt.Errorf("invalid boolean value: %q", strVal)
				}
			}
			field.SetBool(boolVal)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				items := []string{}
				for _, item := range strings.Split(strVal, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	if value == nil {
		return errors.New("cannot assign nil")
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"workspace.directories",
		"workspace.app_ignore_file",
		"workspace.watch_ignore_files",
		"file_filtering.respect_git_ignore",
		"file_filtering.respect_app_ignore",
		"commands.prefix",
		"telemetry.enabled",
		"telemetry.database_path",
		"logging.level",
		"logging.format",
		"logging.file",
		"ui.color",
		"ui.markdown",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Workspace.Directories != nil {
		clone.Workspace.Directories = append([]string{}, c.Workspace.Directories...)
	}
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// TOML returns the configuration encoded as TOML.
func (c *Config) TOML() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})

	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
