// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolver

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/rigrun-refs/internal/mention"
	"github.com/jeranaias/rigrun-refs/internal/workspace"
)

// =============================================================================
// ORACLE
// =============================================================================

// Oracle answers workspace questions for the resolver.
type Oracle interface {
	// IsWithinWorkspace reports whether path lies inside any workspace root
	IsWithinWorkspace(path string) bool

	// ShouldIgnore evaluates only the rule sets enabled in opts. An error is
	// an infrastructure fault, not a classification.
	ShouldIgnore(path string, opts workspace.FilterOptions) (bool, error)

	// Directories returns the workspace roots in priority order
	Directories() []string

	// FilteringOptions returns the configured ignore toggles
	FilteringOptions() workspace.FilterOptions
}

var _ Oracle = (*workspace.Workspace)(nil)

// =============================================================================
// OUTCOME TYPES
// =============================================================================

// IgnoreReason names the rule set that excluded a path.
type IgnoreReason int

const (
	IgnoreGit  IgnoreReason = iota // version control ignore rules only
	IgnoreApp                      // application ignore file only
	IgnoreBoth                     // both rule sets
)

// String returns the string representation of the reason.
func (r IgnoreReason) String() string {
	switch r {
	case IgnoreGit:
		return "git"
	case IgnoreApp:
		return "app"
	case IgnoreBoth:
		return "both"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the reason by name.
func (r IgnoreReason) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// reasonFor combines the two ignore checks. ok is false when neither matched.
func reasonFor(git, app bool) (reason IgnoreReason, ok bool) {
	switch {
	case git && app:
		return IgnoreBoth, true
	case git:
		return IgnoreGit, true
	case app:
		return IgnoreApp, true
	default:
		return 0, false
	}
}

// ResolvedPath is a reference that maps to a location in the workspace.
type ResolvedPath struct {
	OriginalToken string `json:"original_token"` // "@src/main.go"
	ResolvedSpec  string `json:"resolved_spec"`
	DisplayPath   string `json:"display_path"`
	AbsolutePath  string `json:"absolute_path"`
}

// IgnoredPath is a reference excluded by ignore rules.
type IgnoredPath struct {
	Path   string       `json:"path"` // without the '@'
	Reason IgnoreReason `json:"reason"`
}

// Outcome partitions a batch of references.
type Outcome struct {
	Resolved []ResolvedPath `json:"resolved"`
	Ignored  []IgnoredPath  `json:"ignored"`
	Failed   []string       `json:"failed"`
}

func newOutcome() *Outcome {
	return &Outcome{
		Resolved: []ResolvedPath{},
		Ignored:  []IgnoredPath{},
		Failed:   []string{},
	}
}

// Total returns the number of classified references.
func (o *Outcome) Total() int {
	return len(o.Resolved) + len(o.Ignored) + len(o.Failed)
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver classifies references against an Oracle.
type Resolver struct {
	oracle Oracle
	logger *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for classification traces.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Resolver over oracle.
func New(oracle Oracle, opts ...Option) *Resolver {
	r := &Resolver{
		oracle: oracle,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("resolver")
	return r
}

// Resolve classifies segments with a throwaway Resolver.
func Resolve(oracle Oracle, segments []mention.Segment) (*Outcome, error) {
	return New(oracle).Resolve(segments)
}

// Resolve classifies each @path segment in order. Text segments and bare
// "@" sentinels are skipped. An error from the oracle aborts the batch and
// is returned wrapped.
func (r *Resolver) Resolve(segments []mention.Segment) (*Outcome, error) {
	out := newOutcome()
	filtering := r.oracle.FilteringOptions()

	for _, seg := range segments {
		if seg.Kind != mention.SegmentAtPath || seg.IsBareAt() {
			continue
		}

		original := seg.Content
		candidate := strings.TrimPrefix(original, "@")
		if candidate == "" {
			out.Failed = append(out.Failed, original)
			r.logger.Debug("empty reference", zap.String("token", original))
			continue
		}

		if !r.oracle.IsWithinWorkspace(candidate) {
			out.Failed = append(out.Failed, candidate)
			r.logger.Debug("outside workspace", zap.String("path", candidate))
			continue
		}

		reason, ignored, err := r.ignoreReason(candidate, filtering)
		if err != nil {
			return nil, err
		}
		if ignored {
			out.Ignored = append(out.Ignored, IgnoredPath{Path: candidate, Reason: reason})
			r.logger.Debug("ignored", zap.String("path", candidate), zap.Stringer("reason", reason))
			continue
		}

		resolved, ok := r.locate(original, candidate)
		if !ok {
			out.Failed = append(out.Failed, candidate)
			r.logger.Debug("no directory could resolve", zap.String("path", candidate))
			continue
		}
		out.Resolved = append(out.Resolved, resolved)
		r.logger.Debug("resolved",
			zap.String("path", candidate),
			zap.String("absolute", resolved.AbsolutePath))
	}

	return out, nil
}

// ignoreReason asks the oracle about each rule set separately, only for the
// sets the configuration enables.
func (r *Resolver) ignoreReason(candidate string, filtering workspace.FilterOptions) (IgnoreReason, bool, error) {
	var git, app bool

	if filtering.RespectGitIgnore {
		ignored, err := r.oracle.ShouldIgnore(candidate, workspace.FilterOptions{RespectGitIgnore: true})
		if err != nil {
			return 0, false, fmt.Errorf("git ignore check for %s: %w", candidate, err)
		}
		git = ignored
	}

	if filtering.RespectAppIgnore {
		ignored, err := r.oracle.ShouldIgnore(candidate, workspace.FilterOptions{RespectAppIgnore: true})
		if err != nil {
			return 0, false, fmt.Errorf("app ignore check for %s: %w", candidate, err)
		}
		app = ignored
	}

	reason, ok := reasonFor(git, app)
	return reason, ok, nil
}

// locate tries each workspace directory in order; the first that yields
// both an absolute and a display path wins.
func (r *Resolver) locate(original, candidate string) (ResolvedPath, bool) {
	for _, dir := range r.oracle.Directories() {
		abs := candidate
		if !filepath.IsAbs(candidate) {
			abs = filepath.Join(dir, candidate)
		}

		rel := candidate
		if filepath.IsAbs(candidate) {
			var err error
			rel, err = filepath.Rel(dir, abs)
			if err != nil {
				continue
			}
		}

		return ResolvedPath{
			OriginalToken: original,
			ResolvedSpec:  rel,
			DisplayPath:   rel,
			AbsolutePath:  abs,
		}, true
	}
	return ResolvedPath{}, false
}
