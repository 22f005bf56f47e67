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

// Package daemon runs the background process that keeps one repo's index
// bundle current: a single-instance lock on daemon.pid, a recursive
// fsnotify watch debounced into batches, and incremental re-indexing of
// each batch through pkg/index.Builder.
package daemon

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/etr/wonk/internal/errors"
	"github.com/etr/wonk/internal/metrics"
	"github.com/etr/wonk/internal/model"
	"github.com/etr/wonk/internal/walker"
	"github.com/etr/wonk/pkg/index"
	"github.com/etr/wonk/pkg/store"
)

// currentPID is a small seam so call sites read naturally as "this
// process's PID" rather than a bare os.Getpid().
func currentPID() int { return os.Getpid() }

// Options configures a Daemon run.
type Options struct {
	RepoRoot       string
	BundleDir      string
	WalkOpts       walker.Options
	Workers        int
	DebounceWindow time.Duration
	HeartbeatEvery time.Duration
	ShutdownGrace  time.Duration
}

// withDefaults fills in zero-valued timing fields the way the teacher's
// cmd/cie/start.go hardcodes its own indexing intervals.
func (o Options) withDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 500 * time.Millisecond
	}
	if o.HeartbeatEvery <= 0 {
		o.HeartbeatEvery = 30 * time.Second
	}
	if o.ShutdownGrace <= 0 {
		o.ShutdownGrace = 5 * time.Second
	}
	return o
}

// Daemon ties together the lock, the watcher, the debounced batch flush,
// and the daemon_status table the CLI reads for `wonk daemon status`.
type Daemon struct {
	opts    Options
	store   *store.Store
	builder *index.Builder
	logger  *slog.Logger
	lock    *Lock

	mu      sync.Mutex
	queued  int
	started time.Time

	watcher *Watcher
	stop    chan struct{}
	stopped chan struct{}
}

// New constructs a Daemon bound to an already-open Store. The Store must
// have been opened read-write (readOnly=false).
func New(opts Options, s *store.Store, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	return &Daemon{
		opts:    opts,
		store:   s,
		builder: index.NewBuilder(s, opts.Workers, logger),
		logger:  logger,
		lock:    NewLock(store.PidFilePath(opts.BundleDir)),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run acquires the single-instance lock, starts watching, and blocks until
// ctx is canceled or Stop is called. Returns errors.DaemonAlreadyRunning if
// a live daemon already holds the lock.
func (d *Daemon) Run(ctx context.Context) error {
	ok, err := d.lock.TryAcquire()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.DaemonAlreadyRunning, "daemon already running for this repo", "", "run: wonk daemon status")
	}
	defer d.lock.Release()

	d.started = time.Now()
	if err := d.store.SetDaemonStatus(model.DaemonStatus{
		PID:          currentPID(),
		State:        "running",
		UptimeStart:  d.started.Unix(),
		LastActivity: d.started.Unix(),
	}); err != nil {
		d.logger.Warn("daemon.status.write_failed", "err", err)
	}

	watcher, err := NewWatcher(d.opts.RepoRoot, d.opts.WalkOpts, d.opts.DebounceWindow, d.logger, d.onBatch)
	if err != nil {
		_ = d.store.ClearDaemonStatus()
		return err
	}
	d.watcher = watcher

	heartbeat := time.NewTicker(d.opts.HeartbeatEvery)
	defer heartbeat.Stop()

	d.logger.Info("daemon.start", "repo", d.opts.RepoRoot, "pid", currentPID())

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return nil
		case <-d.stop:
			d.shutdown()
			return nil
		case <-heartbeat.C:
			d.heartbeat()
		}
	}
}

// Stop requests a graceful shutdown and blocks until it completes.
func (d *Daemon) Stop() {
	close(d.stop)
	<-d.stopped
}

func (d *Daemon) shutdown() {
	defer close(d.stopped)

	d.logger.Info("daemon.shutdown.start")
	if err := d.store.SetDaemonStatus(model.DaemonStatus{
		PID:         currentPID(),
		State:       "shutting-down",
		UptimeStart: d.started.Unix(),
	}); err != nil {
		d.logger.Warn("daemon.status.write_failed", "err", err)
	}

	if d.watcher != nil {
		// Close flushes any still-pending batch before returning, so edits
		// made in the final debounce window aren't lost on shutdown.
		if err := d.watcher.Close(); err != nil {
			d.logger.Warn("daemon.watcher.close_failed", "err", err)
		}
	}

	if err := d.store.ClearDaemonStatus(); err != nil {
		d.logger.Warn("daemon.status.clear_failed", "err", err)
	}
	d.logger.Info("daemon.shutdown.complete")
}

// onBatch is the Watcher's debounced callback: it partitions the batch into
// deletions and upserts and drives pkg/index.Builder accordingly.
func (d *Daemon) onBatch(events []PendingEvent) {
	d.mu.Lock()
	d.queued += len(events)
	metrics.Get().QueuedFiles.Set(float64(d.queued))
	d.mu.Unlock()

	var toDelete, toUpdate []string
	for _, ev := range events {
		repoPath := index.NormalizePath(d.opts.RepoRoot, ev.AbsPath)
		switch ev.Kind {
		case EventDelete, EventRename:
			// fsnotify fires Rename against the old path only; the new
			// path (if any) arrives as its own Create event in the same
			// or a later batch, so a rename is handled as a delete here.
			toDelete = append(toDelete, repoPath)
		default:
			toUpdate = append(toUpdate, ev.AbsPath)
		}
	}

	ctx := context.Background()
	if len(toDelete) > 0 {
		if err := d.builder.DeleteFiles(toDelete); err != nil {
			d.logger.Warn("daemon.batch.delete_failed", "err", err, "count", len(toDelete))
		}
	}
	if len(toUpdate) > 0 {
		if _, err := d.builder.UpdateFiles(ctx, d.opts.RepoRoot, toUpdate); err != nil {
			d.logger.Warn("daemon.batch.update_failed", "err", err, "count", len(toUpdate))
		}
	}

	d.mu.Lock()
	d.queued -= len(events)
	if d.queued < 0 {
		d.queued = 0
	}
	metrics.Get().QueuedFiles.Set(float64(d.queued))
	d.mu.Unlock()

	d.touchActivity()
}

func (d *Daemon) touchActivity() {
	status, found, err := d.store.GetDaemonStatus()
	if err != nil || !found {
		return
	}
	status.LastActivity = time.Now().Unix()
	status.QueuedFiles = d.queuedCount()
	if err := d.store.SetDaemonStatus(status); err != nil {
		d.logger.Warn("daemon.status.write_failed", "err", err)
	}
}

func (d *Daemon) heartbeat() {
	metrics.Get().DaemonHeartbeats.Inc()
	status, found, err := d.store.GetDaemonStatus()
	if err != nil {
		d.logger.Warn("daemon.heartbeat.read_failed", "err", err)
		return
	}
	if !found {
		status = model.DaemonStatus{PID: currentPID(), State: "running", UptimeStart: d.started.Unix()}
	}
	status.LastActivity = time.Now().Unix()
	status.QueuedFiles = d.queuedCount()
	if err := d.store.SetDaemonStatus(status); err != nil {
		d.logger.Warn("daemon.heartbeat.write_failed", "err", err)
	}
}

func (d *Daemon) queuedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queued
}
