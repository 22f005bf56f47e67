// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/etr/wonk/internal/errors"
	"github.com/etr/wonk/internal/metrics"
	"github.com/etr/wonk/internal/walker"
)

// EventKind classifies a filtered filesystem event for the incremental
// pipeline.
type EventKind int

const (
	EventModify EventKind = iota
	EventCreate
	EventDelete
	EventRename
)

// PendingEvent is one deduplicated, debounced filesystem change, ready to
// hand to the incremental indexing pipeline.
type PendingEvent struct {
	AbsPath string
	Kind    EventKind
}

// Watcher recursively watches repoRoot for filesystem events and hands a
// debounced, per-path-deduplicated batch to onBatch once the debounce
// window quiesces with no further activity. Only directories the walker's
// ignore rules admit are watched; individual file events are filtered by
// the worktree-boundary rule alone, so an ignored or hidden file inside a
// watched directory still produces an event.
type Watcher struct {
	repoRoot string
	walkOpts walker.Options
	fsw      *fsnotify.Watcher
	debounce *Debouncer
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]EventKind

	flushMu sync.Mutex // serializes flush, so onBatch calls never overlap

	onBatch func([]PendingEvent)
	done    chan struct{}
}

// NewWatcher creates and starts a Watcher over repoRoot. onBatch runs on
// the debouncer's timer goroutine (or on the caller's during Close), never
// concurrently with itself.
func NewWatcher(repoRoot string, walkOpts walker.Options, debounceWindow time.Duration, logger *slog.Logger, onBatch func([]PendingEvent)) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.IoError, "create filesystem watcher", err)
	}

	w := &Watcher{
		repoRoot: repoRoot,
		walkOpts: walkOpts,
		fsw:      fsw,
		logger:   logger,
		pending:  make(map[string]EventKind),
		onBatch:  onBatch,
		done:     make(chan struct{}),
	}
	w.debounce = NewDebouncer(debounceWindow, w.flush)

	if err := w.addTree(repoRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

// addTree registers one fsnotify watch per eligible directory, since
// fsnotify (like inotify) only watches a single directory level at a time.
func (w *Watcher) addTree(root string) error {
	opts := w.walkOpts
	opts.Root = root
	return walker.WalkDirs(opts, func(dir string) error {
		if err := w.fsw.Add(dir); err != nil {
			w.logger.Warn("daemon.watch.add_failed", "dir", dir, "err", err)
		}
		return nil
	})
}

// loop is the watcher goroutine: it blocks on fsnotify's event channel,
// filters each event, and records it in the pending map before resetting
// the debounce window. This is the one blocking suspension point in the
// daemon beyond the debounce timer itself.
func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("daemon.watch.error", "err", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if walker.IsWorktreeExcluded(w.repoRoot, ev.Name) {
		return
	}
	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		if ev.Op&(fsnotify.Create) != 0 {
			// A new directory appeared; watch it (and anything nested
			// under it created in the same burst) so subsequent events
			// inside it aren't missed.
			_ = w.addTree(ev.Name)
		}
		return
	}

	metrics.Get().DaemonEvents.Inc()

	var kind EventKind
	switch {
	case ev.Op&fsnotify.Remove != 0:
		kind = EventDelete
	case ev.Op&fsnotify.Rename != 0:
		kind = EventRename
	case ev.Op&fsnotify.Create != 0:
		kind = EventCreate
	default:
		kind = EventModify
	}

	w.mu.Lock()
	w.pending[ev.Name] = kind
	w.mu.Unlock()

	w.debounce.Trigger()
}

// flush drains the pending map and hands the batch to onBatch. Runs on the
// debouncer's own goroutine.
func (w *Watcher) flush() {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := make([]PendingEvent, 0, len(w.pending))
	for path, kind := range w.pending {
		batch = append(batch, PendingEvent{AbsPath: path, Kind: kind})
	}
	w.pending = make(map[string]EventKind)
	w.mu.Unlock()

	metrics.Get().DebounceBatches.Inc()
	w.onBatch(batch)
}

// Close stops the watcher goroutine and releases the underlying fsnotify
// handle. Any debounced batch still pending is flushed first so a
// shutdown doesn't silently drop recent edits.
func (w *Watcher) Close() error {
	w.debounce.Cancel()
	w.flush()
	close(w.done)
	return w.fsw.Close()
}
