// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// =============================================================================
// IGNORE FILE WATCHER
// =============================================================================

// watcher invalidates cached ignore files when they change on disk.
type watcher struct {
	ws      *Workspace
	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	watched map[string]bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func newWatcher(parent context.Context, ws *Workspace) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &OracleError{Op: "watch", Path: "", Err: err}
	}

	ctx, cancel := context.WithCancel(parent)

	return &watcher{
		ws:      ws,
		fsw:     fsw,
		watched: make(map[string]bool),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}, nil
}

// add watches dir once. A directory that does not exist yet is covered by
// its nearest existing ancestor, whose Create event invalidates the cache.
// Directories that cannot be watched are skipped.
func (wt *watcher) add(dir string) {
	dir = nearestDir(dir)

	wt.mu.Lock()
	defer wt.mu.Unlock()

	if wt.watched[dir] {
		return
	}
	if err := wt.fsw.Add(dir); err != nil {
		wt.ws.logger.Debug("cannot watch directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	wt.watched[dir] = true
}

// processEvents runs until the context is cancelled or the watcher closes.
func (wt *watcher) processEvents() {
	defer close(wt.done)
	defer func() {
		if r := recover(); r != nil {
			wt.ws.logger.Error("watcher panic", zap.Any("panic", r))
		}
	}()

	for {
		select {
		case <-wt.ctx.Done():
			return

		case event, ok := <-wt.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			wt.ws.invalidateTree(filepath.Clean(event.Name))

		case err, ok := <-wt.fsw.Errors:
			if !ok {
				return
			}
			wt.ws.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// nearestDir returns dir, or its closest ancestor that exists.
func nearestDir(dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

func (wt *watcher) stop() error {
	wt.cancel()
	err := wt.fsw.Close()
	<-wt.done
	return err
}
