// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes wonk's optional Prometheus counters and gauges
// for the indexing pipeline and the daemon. Serve publishes them over HTTP
// on a given address; no wonk command calls Serve or defines a flag for it.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge wonk exports. Zero value is unusable;
// use Get() to obtain the process-wide singleton.
type Metrics struct {
	once sync.Once

	FilesIndexed     prometheus.Counter
	FilesSkipped     prometheus.Counter
	ParseErrors      prometheus.Counter
	BatchCommits     prometheus.Counter
	DaemonEvents     prometheus.Counter
	DebounceBatches  prometheus.Counter
	DaemonHeartbeats prometheus.Counter
	QueuedFiles      prometheus.Gauge
	IndexDuration    prometheus.Histogram
}

var m Metrics

// Get returns the process-wide Metrics singleton, registering it with the
// default Prometheus registry on first use.
func Get() *Metrics {
	m.once.Do(func() {
		m.FilesIndexed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wonk_index_files_indexed_total", Help: "Files successfully parsed and written to the index.",
		})
		m.FilesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wonk_index_files_skipped_total", Help: "Files skipped because their content hash was unchanged.",
		})
		m.ParseErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wonk_index_parse_errors_total", Help: "Files that failed to parse or write during indexing.",
		})
		m.BatchCommits = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wonk_index_batch_commits_total", Help: "Write transactions committed by the indexing pipeline.",
		})
		m.DaemonEvents = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wonk_daemon_fs_events_total", Help: "Filesystem events observed by the daemon watcher.",
		})
		m.DebounceBatches = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wonk_daemon_debounce_batches_total", Help: "Debounced event batches flushed to the incremental pipeline.",
		})
		m.DaemonHeartbeats = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wonk_daemon_heartbeats_total", Help: "Heartbeat status-table updates written by the daemon.",
		})
		m.QueuedFiles = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wonk_daemon_queued_files", Help: "Files currently queued for incremental re-index.",
		})
		m.IndexDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "wonk_index_duration_seconds", Help: "Wall-clock duration of a bulk or incremental index run.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			m.FilesIndexed, m.FilesSkipped, m.ParseErrors, m.BatchCommits,
			m.DaemonEvents, m.DebounceBatches, m.DaemonHeartbeats,
			m.QueuedFiles, m.IndexDuration,
		)
	})
	return &m
}

// Serve starts a best-effort HTTP server exposing /metrics on addr. It runs
// in its own goroutine and logs (via the provided errFn) on failure other
// than a clean shutdown. An empty addr makes it a no-op.
func Serve(addr string, errFn func(error)) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if errFn != nil {
				errFn(err)
			}
		}
	}()
}
