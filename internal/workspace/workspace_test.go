// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// writeFile creates path (and its parents) under dir with content.
func writeFile(t *testing.T, dir, path, content string) string {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(path))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func newTestWorkspace(t *testing.T, dirs ...string) *Workspace {
	t.Helper()
	ws, err := New(Config{
		Directories: dirs,
		Filtering:   DefaultFilterOptions(),
		Logger:      zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

// gitRepo returns a temp dir that looks like a git work tree.
func gitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "info"), 0o755))
	return dir
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNoDirectories)

	file := writeFile(t, t.TempDir(), "plain.txt", "x")
	_, err = New(Config{Directories: []string{file}})
	require.ErrorIs(t, err, ErrNotDirectory)

	_, err = New(Config{Directories: []string{filepath.Join(t.TempDir(), "missing")}})
	require.Error(t, err)
}

func TestNew_NormalizesAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	ws := newTestWorkspace(t, dir, dir+string(filepath.Separator)+".")

	dirs := ws.Directories()
	require.Len(t, dirs, 1)
	require.True(t, filepath.IsAbs(dirs[0]))
	require.Equal(t, DefaultAppIgnoreFile, ws.AppIgnoreFile())
}

func TestDirectories_ReturnsCopy(t *testing.T) {
	ws := newTestWorkspace(t, t.TempDir())
	dirs := ws.Directories()
	dirs[0] = "changed"
	require.NotEqual(t, "changed", ws.Directories()[0])
}

func TestAddDirectory(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	ws := newTestWorkspace(t, first)

	require.False(t, ws.IsWithinWorkspace(filepath.Join(second, "a.txt")))
	require.NoError(t, ws.AddDirectory(second))
	require.NoError(t, ws.AddDirectory(second))
	require.Len(t, ws.Directories(), 2)
	require.True(t, ws.IsWithinWorkspace(filepath.Join(second, "a.txt")))
}

// =============================================================================
// MEMBERSHIP
// =============================================================================

func TestIsWithinWorkspace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main")
	ws := newTestWorkspace(t, root)
	base := ws.Directories()[0]

	tests := []struct {
		path string
		want bool
	}{
		{"src/main.go", true},
		{"src/missing/deeper.go", true},
		{".", true},
		{"", true},
		{"outside/../../etc/passwd", false},
		{"../sibling", false},
		{filepath.Join(base, "src"), true},
		{filepath.Dir(base), false},
	}

	for _, tc := range tests {
		if got := ws.IsWithinWorkspace(tc.path); got != tc.want {
			t.Errorf("IsWithinWorkspace(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIsWithinWorkspace_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}

	root, outside := t.TempDir(), t.TempDir()
	writeFile(t, outside, "secret.txt", "x")
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	ws := newTestWorkspace(t, root)
	require.False(t, ws.IsWithinWorkspace("link/secret.txt"))
	require.False(t, ws.IsWithinWorkspace("link/not-there-yet.txt"))
}

// =============================================================================
// IGNORE RULES
// =============================================================================

func TestShouldIgnore_GitRules(t *testing.T) {
	root := gitRepo(t)
	writeFile(t, root, ".gitignore", "*.log\nbuild/\n")
	writeFile(t, root, "pkg/.gitignore", "generated.go\n")
	writeFile(t, root, ".git/info/exclude", "scratch.txt\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0o755))

	ws := newTestWorkspace(t, root)
	gitOnly := FilterOptions{RespectGitIgnore: true}

	tests := []struct {
		path string
		want bool
	}{
		{"debug.log", true},
		{"nested/dir/trace.log", true},
		{"build", true},
		{"build/out.bin", true},
		{"pkg/generated.go", true},
		{"generated.go", false},
		{"pkg/sub/generated.go", true},
		{"scratch.txt", true},
		{".git", true},
		{".git/config", true},
		{"src/main.go", false},
		{".", false},
	}

	for _, tc := range tests {
		got, err := ws.ShouldIgnore(tc.path, gitOnly)
		require.NoError(t, err)
		if got != tc.want {
			t.Errorf("ShouldIgnore(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestShouldIgnore_GitLastMatchWins(t *testing.T) {
	root := gitRepo(t)
	writeFile(t, root, ".git/info/exclude", "*.tmp\n")
	writeFile(t, root, ".gitignore", "*.log\n!important.log\nbuild/\n!local.tmp\n")
	writeFile(t, root, "sub/.gitignore", "!keep.log\n")
	writeFile(t, root, "sub/deep/.gitignore", "keep.log\n")
	writeFile(t, root, "build/.gitignore", "!out.bin\n")
	writeFile(t, root, "build/out.bin", "x")

	ws := newTestWorkspace(t, root)
	gitOnly := FilterOptions{RespectGitIgnore: true}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"nested negation re-includes", "sub/keep.log", false},
		{"nested negation is scoped to its directory", "keep.log", true},
		{"other files still ignored below negation", "sub/other.log", true},
		{"deeper file ignores again", "sub/deep/keep.log", true},
		{"negation later in the same file", "important.log", false},
		{"gitignore overrides info/exclude", "local.tmp", false},
		{"info/exclude alone", "scratch.tmp", true},
		{"excluded directory cannot be re-included", "build/out.bin", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ws.ShouldIgnore(tc.path, gitOnly)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestShouldIgnore_AppNegation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".rigrunignore", "*.env\n!example.env\nsecrets/\n")
	writeFile(t, root, "secrets/public.txt", "x")

	ws := newTestWorkspace(t, root)
	appOnly := FilterOptions{RespectAppIgnore: true}

	for path, want := range map[string]bool{
		"prod.env":           true,
		"example.env":        false,
		"secrets/public.txt": true,
	} {
		got, err := ws.ShouldIgnore(path, appOnly)
		require.NoError(t, err)
		require.Equal(t, want, got, path)
	}
}

func TestShouldIgnore_GitRulesNeedWorkTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.log\n")

	ws := newTestWorkspace(t, root)
	got, err := ws.ShouldIgnore("debug.log", FilterOptions{RespectGitIgnore: true})
	require.NoError(t, err)
	require.False(t, got)
}

func TestShouldIgnore_AppRules(t *testing.T) {
	root := gitRepo(t)
	writeFile(t, root, ".gitignore", "*.log\n")
	writeFile(t, root, ".rigrunignore", "secrets/\n*.env\n")

	ws := newTestWorkspace(t, root)

	tests := []struct {
		name string
		path string
		opts FilterOptions
		want bool
	}{
		{"app rule", "prod.env", FilterOptions{RespectAppIgnore: true}, true},
		{"app dir rule", "secrets/key.pem", FilterOptions{RespectAppIgnore: true}, true},
		{"git rule with app only", "debug.log", FilterOptions{RespectAppIgnore: true}, false},
		{"app rule with git only", "prod.env", FilterOptions{RespectGitIgnore: true}, false},
		{"both off", "prod.env", FilterOptions{}, false},
		{"both on", "debug.log", DefaultFilterOptions(), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ws.ShouldIgnore(tc.path, tc.opts)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestShouldIgnore_CustomAppIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".aiignore", "private/\n")

	ws, err := New(Config{Directories: []string{root}, AppIgnoreFile: ".aiignore"})
	require.NoError(t, err)

	got, err := ws.ShouldIgnore("private/notes.md", FilterOptions{RespectAppIgnore: true})
	require.NoError(t, err)
	require.True(t, got)
}

func TestShouldIgnore_OutsideWorkspace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".rigrunignore", "*\n")

	ws := newTestWorkspace(t, root)
	got, err := ws.ShouldIgnore("../elsewhere.txt", DefaultFilterOptions())
	require.NoError(t, err)
	require.False(t, got)
}

func TestShouldIgnore_ReadFault(t *testing.T) {
	root := t.TempDir()
	// A directory where the ignore file should be cannot be read
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".rigrunignore"), 0o755))

	ws := newTestWorkspace(t, root)
	_, err := ws.ShouldIgnore("a.txt", FilterOptions{RespectAppIgnore: true})
	require.Error(t, err)

	var oracleErr *OracleError
	require.True(t, errors.As(err, &oracleErr))
	require.Contains(t, oracleErr.Path, ".rigrunignore")
}

func TestShouldIgnore_CachesUntilInvalidated(t *testing.T) {
	root := t.TempDir()
	ignoreFile := writeFile(t, root, ".rigrunignore", "a.txt\n")
	ws := newTestWorkspace(t, root)
	opts := FilterOptions{RespectAppIgnore: true}

	got, err := ws.ShouldIgnore("a.txt", opts)
	require.NoError(t, err)
	require.True(t, got)

	require.NoError(t, os.WriteFile(ignoreFile, []byte("b.txt\n"), 0o644))

	got, err = ws.ShouldIgnore("b.txt", opts)
	require.NoError(t, err)
	require.False(t, got, "stale cache expected before invalidation")

	ws.Invalidate(filepath.Join(ws.Directories()[0], ".rigrunignore"))

	got, err = ws.ShouldIgnore("b.txt", opts)
	require.NoError(t, err)
	require.True(t, got)
}

// =============================================================================
// WATCHER
// =============================================================================

func TestWatch_InvalidatesOnChange(t *testing.T) {
	root := t.TempDir()
	ignoreFile := writeFile(t, root, ".rigrunignore", "a.txt\n")
	ws := newTestWorkspace(t, root)
	opts := FilterOptions{RespectAppIgnore: true}

	got, err := ws.ShouldIgnore("a.txt", opts)
	require.NoError(t, err)
	require.True(t, got)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ws.Watch(ctx))
	require.ErrorIs(t, ws.Watch(ctx), ErrWatching)

	require.NoError(t, os.WriteFile(ignoreFile, []byte("b.txt\n"), 0o644))

	require.Eventually(t, func() bool {
		ignored, err := ws.ShouldIgnore("b.txt", opts)
		return err == nil && ignored
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close())
}

func TestWatch_PicksUpNewIgnoreFile(t *testing.T) {
	root := t.TempDir()
	ws := newTestWorkspace(t, root)
	opts := FilterOptions{RespectAppIgnore: true}

	require.NoError(t, ws.Watch(context.Background()))

	got, err := ws.ShouldIgnore("tmp.bin", opts)
	require.NoError(t, err)
	require.False(t, got)

	writeFile(t, root, ".rigrunignore", "*.bin\n")

	require.Eventually(t, func() bool {
		ignored, err := ws.ShouldIgnore("tmp.bin", opts)
		return err == nil && ignored
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatch_PicksUpExcludeInNewDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	ws := newTestWorkspace(t, root)
	opts := FilterOptions{RespectGitIgnore: true}

	// .git/info does not exist yet; its missing exclude file is cached
	got, err := ws.ShouldIgnore("notes.tmp", opts)
	require.NoError(t, err)
	require.False(t, got)

	require.NoError(t, ws.Watch(context.Background()))

	writeFile(t, root, ".git/info/exclude", "*.tmp\n")

	require.Eventually(t, func() bool {
		ignored, err := ws.ShouldIgnore("notes.tmp", opts)
		return err == nil && ignored
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNearestDir(t *testing.T) {
	root := t.TempDir()
	require.Equal(t, root, nearestDir(filepath.Join(root, "a", "b")))
	require.Equal(t, root, nearestDir(root))
}
