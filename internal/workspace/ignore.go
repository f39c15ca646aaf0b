// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
)

const (
	gitDir        = ".git"
	gitIgnoreFile = ".gitignore"
)

// =============================================================================
// IGNORE EVALUATION
// =============================================================================

// ShouldIgnore reports whether path is excluded by the rule sets enabled in
// opts. Paths outside the workspace, and the roots themselves, are never
// ignored. A returned error is an I/O fault reading an ignore file.
func (w *Workspace) ShouldIgnore(path string, opts FilterOptions) (bool, error) {
	if !opts.RespectGitIgnore && !opts.RespectAppIgnore {
		return false, nil
	}

	abs, root := w.locate(path)
	if root == "" {
		return false, nil
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." {
		return false, nil
	}

	isDir := false
	if info, err := os.Stat(abs); err == nil {
		isDir = info.IsDir()
	}

	if opts.RespectGitIgnore {
		ignored, err := w.gitIgnored(root, rel, isDir)
		if err != nil {
			return false, err
		}
		if ignored {
			w.logger.Debug("git ignored", zap.String("path", rel))
			return true, nil
		}
	}

	if opts.RespectAppIgnore {
		appFile := ruleFile{path: filepath.Join(root, w.appIgnoreFile), base: root}
		ignored, err := w.excluded(root, rel, isDir, func(string) []ruleFile {
			return []ruleFile{appFile}
		})
		if err != nil {
			return false, err
		}
		if ignored {
			w.logger.Debug("app ignored", zap.String("path", rel), zap.String("file", w.appIgnoreFile))
			return true, nil
		}
	}

	return false, nil
}

// ruleFile is an ignore file and the directory its patterns are relative to.
type ruleFile struct {
	path string
	base string
}

// gitIgnored applies git rules when root is a git work tree: the .git
// directory, .git/info/exclude, and every .gitignore from root down to the
// directory containing rel.
func (w *Workspace) gitIgnored(root, rel string, isDir bool) (bool, error) {
	if _, err := os.Stat(filepath.Join(root, gitDir)); err != nil {
		return false, nil
	}

	slashed := filepath.ToSlash(rel)
	if slashed == gitDir || strings.HasPrefix(slashed, gitDir+"/") {
		return true, nil
	}

	return w.excluded(root, rel, isDir, func(p string) []ruleFile {
		return gitRuleFiles(root, p)
	})
}

// gitRuleFiles lists the git rule files for rel, lowest precedence first:
// info/exclude, then .gitignore files from root down to rel's directory.
func gitRuleFiles(root, rel string) []ruleFile {
	files := []ruleFile{
		{path: filepath.Join(root, gitDir, "info", "exclude"), base: root},
		{path: filepath.Join(root, gitIgnoreFile), base: root},
	}

	dir := root
	parts := strings.Split(rel, string(filepath.Separator))
	for _, part := range parts[:len(parts)-1] {
		dir = filepath.Join(dir, part)
		files = append(files, ruleFile{path: filepath.Join(dir, gitIgnoreFile), base: dir})
	}
	return files
}

// excluded reports whether rel is ignored by the rule files filesFor
// returns. A path below an excluded directory stays excluded whatever
// deeper rules say, so each parent directory is checked first.
func (w *Workspace) excluded(root, rel string, isDir bool, filesFor func(rel string) []ruleFile) (bool, error) {
	parts := strings.Split(rel, string(filepath.Separator))
	for i := 1; i < len(parts); i++ {
		parent := filepath.Join(parts[:i]...)
		ignored, err := w.lastMatch(root, parent, true, filesFor(parent))
		if err != nil || ignored {
			return ignored, err
		}
	}
	return w.lastMatch(root, rel, isDir, filesFor(rel))
}

// lastMatch applies files in order. The last file with a matching pattern
// decides, so a deeper "!pattern" re-includes what a shallower file ignored.
func (w *Workspace) lastMatch(root, rel string, isDir bool, files []ruleFile) (bool, error) {
	abs := filepath.Join(root, rel)

	ignored := false
	for _, f := range files {
		rules, err := w.rules(f.path)
		if err != nil {
			return false, err
		}
		sub, err := filepath.Rel(f.base, abs)
		if err != nil {
			continue
		}
		if matched, ign := rules.verdict(sub, isDir); matched {
			ignored = ign
		}
	}
	return ignored, nil
}

// ruleSet is one parsed ignore file. negated holds the "!" patterns without
// their prefix so a re-include can be told apart from no match at all.
type ruleSet struct {
	all     *ignore.GitIgnore
	negated *ignore.GitIgnore
}

func compileRules(lines []string) *ruleSet {
	var negated []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "!") && len(line) > 1 {
			negated = append(negated, line[1:])
		}
	}

	rs := &ruleSet{all: ignore.CompileIgnoreLines(lines...)}
	if len(negated) > 0 {
		rs.negated = ignore.CompileIgnoreLines(negated...)
	}
	return rs
}

// verdict reports whether any pattern in the file matches rel and, if so,
// whether the last matching pattern ignores it. MatchesPath is true exactly
// when the last matching pattern is not negated.
func (rs *ruleSet) verdict(rel string, isDir bool) (matched, ignored bool) {
	if rs == nil {
		return false, false
	}

	candidates := []string{rel}
	if isDir {
		// Patterns with a trailing slash only match directories
		candidates = append(candidates, rel+"/")
	}

	for _, c := range candidates {
		if rs.all.MatchesPath(c) {
			return true, true
		}
	}
	if rs.negated != nil {
		for _, c := range candidates {
			if rs.negated.MatchesPath(c) {
				return true, false
			}
		}
	}
	return false, false
}

// =============================================================================
// RULE CACHE
// =============================================================================

// rules returns the parsed ignore file at path. A missing file yields nil
// rules and is cached like any other.
func (w *Workspace) rules(path string) (*ruleSet, error) {
	w.cacheMu.RLock()
	cached, ok := w.cache[path]
	w.cacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	var parsed *ruleSet
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		parsed = compileRules(strings.Split(string(data), "\n"))
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		// no rules
	default:
		return nil, &OracleError{Op: "read ignore file", Path: path, Err: err}
	}

	w.cacheMu.Lock()
	w.cache[path] = parsed
	w.cacheMu.Unlock()

	w.logger.Debug("ignore file loaded", zap.String("path", path), zap.Bool("present", parsed != nil))
	w.watchDir(filepath.Dir(path))

	return parsed, nil
}

// Invalidate drops the cached parse of the ignore file at path. Unknown
// paths are ignored.
func (w *Workspace) Invalidate(path string) {
	path = filepath.Clean(path)

	w.cacheMu.Lock()
	_, ok := w.cache[path]
	delete(w.cache, path)
	w.cacheMu.Unlock()

	if ok {
		w.logger.Debug("ignore file invalidated", zap.String("path", path))
	}
}

// InvalidateAll drops every cached ignore file.
func (w *Workspace) InvalidateAll() {
	w.cacheMu.Lock()
	w.cache = make(map[string]*ruleSet)
	w.cacheMu.Unlock()
}

// invalidateTree drops the cached ignore file at path and every cached file
// below it. Used for directories that appear, vanish or move.
func (w *Workspace) invalidateTree(path string) {
	prefix := path + string(filepath.Separator)

	dropped := 0
	w.cacheMu.Lock()
	for p := range w.cache {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(w.cache, p)
			dropped++
		}
	}
	w.cacheMu.Unlock()

	if dropped > 0 {
		w.logger.Debug("ignore files invalidated", zap.String("path", path), zap.Int("count", dropped))
	}
}

// cachedDirs lists the directories of every ignore file looked up so far.
func (w *Workspace) cachedDirs() []string {
	w.cacheMu.RLock()
	defer w.cacheMu.RUnlock()

	seen := make(map[string]bool, len(w.cache))
	var dirs []string
	for path := range w.cache {
		dir := filepath.Dir(path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
