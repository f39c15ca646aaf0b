// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// DefaultAppIgnoreFile is the application ignore file looked up at each root.
const DefaultAppIgnoreFile = ".rigrunignore"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoDirectories is returned when a workspace is created without roots.
	ErrNoDirectories = errors.New("workspace has no directories")

	// ErrNotDirectory is returned when a configured root is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrWatching is returned when Watch is called on a watched workspace.
	ErrWatching = errors.New("workspace is already being watched")
)

// OracleError is an I/O fault raised while answering a workspace query.
// It is distinct from a path simply being outside the workspace or ignored.
type OracleError struct {
	Op   string
	Path string
	Err  error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("workspace %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// =============================================================================
// FILTER OPTIONS
// =============================================================================

// FilterOptions selects which ignore rule sets apply.
type FilterOptions struct {
	RespectGitIgnore bool `json:"respect_git_ignore"`
	RespectAppIgnore bool `json:"respect_app_ignore"`
}

// DefaultFilterOptions respects both rule sets.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{RespectGitIgnore: true, RespectAppIgnore: true}
}

// =============================================================================
// WORKSPACE
// =============================================================================

// Config configures a Workspace.
type Config struct {
	// Directories are the workspace roots, in priority order
	Directories []string

	// AppIgnoreFile is the file name read at each root; empty means .rigrunignore
	AppIgnoreFile string

	// Filtering is reported by FilteringOptions
	Filtering FilterOptions

	Logger *zap.Logger
}

// Workspace is a set of root directories plus cached ignore rules.
type Workspace struct {
	mu        sync.RWMutex
	roots     []string
	filtering FilterOptions

	appIgnoreFile string
	logger        *zap.Logger

	// Parsed ignore files keyed by absolute path; nil means no rules
	cacheMu sync.RWMutex
	cache   map[string]*ruleSet

	watchMu sync.Mutex
	watch   *watcher
}

// New creates a workspace over the configured directories.
func New(cfg Config) (*Workspace, error) {
	if len(cfg.Directories) == 0 {
		return nil, ErrNoDirectories
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	appIgnore := cfg.AppIgnoreFile
	if appIgnore == "" {
		appIgnore = DefaultAppIgnoreFile
	}

	w := &Workspace{
		filtering:     cfg.Filtering,
		appIgnoreFile: appIgnore,
		logger:        logger.Named("workspace"),
		cache:         make(map[string]*ruleSet),
	}

	for _, dir := range cfg.Directories {
		root, err := normalizeRoot(dir)
		if err != nil {
			return nil, err
		}
		if !w.hasRoot(root) {
			w.roots = append(w.roots, root)
		}
	}

	w.logger.Debug("workspace created",
		zap.Strings("roots", w.roots),
		zap.Bool("respect_git_ignore", w.filtering.RespectGitIgnore),
		zap.Bool("respect_app_ignore", w.filtering.RespectAppIgnore))

	return w, nil
}

// Directories returns the workspace roots in priority order.
func (w *Workspace) Directories() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]string, len(w.roots))
	copy(out, w.roots)
	return out
}

// FilteringOptions returns the configured ignore toggles.
func (w *Workspace) FilteringOptions() FilterOptions {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.filtering
}

// SetFilteringOptions replaces the configured ignore toggles.
func (w *Workspace) SetFilteringOptions(opts FilterOptions) {
	w.mu.Lock()
	w.filtering = opts
	w.mu.Unlock()
}

// AppIgnoreFile returns the application ignore file name.
func (w *Workspace) AppIgnoreFile() string {
	return w.appIgnoreFile
}

// AddDirectory appends a root. Adding an existing root is a no-op.
func (w *Workspace) AddDirectory(dir string) error {
	root, err := normalizeRoot(dir)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.hasRoot(root) {
		w.mu.Unlock()
		return nil
	}
	w.roots = append(w.roots, root)
	w.mu.Unlock()

	w.logger.Debug("directory added", zap.String("root", root))
	w.watchDir(root)
	return nil
}

// hasRoot must be called with mu held (or before w is shared).
func (w *Workspace) hasRoot(root string) bool {
	for _, r := range w.roots {
		if r == root {
			return true
		}
	}
	return false
}

// IsWithinWorkspace reports whether path lies inside any root. Relative
// paths are taken against the first root. Symlinks in the existing part of
// the path are followed, so a link pointing outside the workspace is outside.
func (w *Workspace) IsWithinWorkspace(path string) bool {
	_, root := w.locate(path)
	return root != ""
}

// locate returns the canonical absolute form of path and the most specific
// root containing it, or "" when no root does.
func (w *Workspace) locate(path string) (string, string) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(w.roots) == 0 {
		return "", ""
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(w.roots[0], abs)
	}
	abs = norm.NFC.String(resolveExisting(abs))

	best := ""
	for _, root := range w.roots {
		if isWithin(root, abs) && len(root) > len(best) {
			best = root
		}
	}
	return abs, best
}

// Close stops the watcher, if any.
func (w *Workspace) Close() error {
	w.watchMu.Lock()
	wt := w.watch
	w.watch = nil
	w.watchMu.Unlock()

	if wt == nil {
		return nil
	}
	return wt.stop()
}

// Watch starts invalidating cached ignore rules when ignore files change.
// The watcher stops when ctx is cancelled or Close is called.
func (w *Workspace) Watch(ctx context.Context) error {
	w.watchMu.Lock()
	defer w.watchMu.Unlock()

	if w.watch != nil {
		return ErrWatching
	}

	wt, err := newWatcher(ctx, w)
	if err != nil {
		return err
	}
	w.watch = wt

	for _, root := range w.Directories() {
		wt.add(root)
	}
	for _, dir := range w.cachedDirs() {
		wt.add(dir)
	}

	go wt.processEvents()
	return nil
}

// watchDir adds dir to the running watcher, if any.
func (w *Workspace) watchDir(dir string) {
	w.watchMu.Lock()
	wt := w.watch
	w.watchMu.Unlock()

	if wt != nil {
		wt.add(dir)
	}
}
