// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workspace answers questions about the directories a session is
// allowed to touch.
//
// A Workspace holds an ordered list of root directories. The first root is
// the base that relative paths are resolved against. It reports whether a
// path lies inside any root, and whether a path is excluded by git ignore
// rules or by the application ignore file (.rigrunignore by default).
//
// Ignore files are parsed lazily and cached. Call Watch to have the cache
// invalidated automatically when an ignore file changes on disk:
//
//	ws, err := workspace.New(workspace.Config{
//		Directories: []string{"."},
//		Filtering:   workspace.DefaultFilterOptions(),
//	})
//	if err != nil {
//		return err
//	}
//	if err := ws.Watch(ctx); err != nil {
//		return err
//	}
//	defer ws.Close()
//
//	ignored, err := ws.ShouldIgnore("build/out.bin", ws.FilteringOptions())
//
// All methods are safe for concurrent use.
package workspace
