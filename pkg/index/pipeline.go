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

// Package index builds and maintains the persistent symbol index: a
// worker-pool parsing stage feeding a single writer goroutine, so every
// SQLite write still goes through the store's one writable connection
// while parsing fans out across CPUs.
package index

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/etr/wonk/internal/metrics"
	"github.com/etr/wonk/internal/model"
	"github.com/etr/wonk/internal/walker"
	"github.com/etr/wonk/pkg/lang"
	"github.com/etr/wonk/pkg/store"
)

// Result summarizes one build or update run.
type Result struct {
	FilesScanned   int
	FilesIndexed   int
	FilesSkipped   int // unchanged content hash
	FilesUnsupported int // no grammar for extension
	ParseErrors    int
	Languages      map[string]int
	Duration       time.Duration
}

// Builder drives the bulk-index and incremental-update pipelines.
type Builder struct {
	store   *store.Store
	logger  *slog.Logger
	workers int
}

// NewBuilder creates a Builder. workers <= 0 defaults to runtime.NumCPU().
func NewBuilder(s *store.Store, workers int, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Builder{store: s, logger: logger, workers: workers}
}

type parsedFile struct {
	path   string
	hash   uint64
	record model.FileRecord
	result model.ParseResult
	err    error
	skip   bool // content hash unchanged since the last index; nothing to write
}

// BuildAll performs a full rebuild: every file under repoRoot matching
// opts is parsed from scratch and written, replacing any prior symbol set
// for that path. Callers drop and recreate the schema first when a
// wholesale rebuild (rather than an incremental refresh) is intended.
func (b *Builder) BuildAll(ctx context.Context, repoRoot string, opts walker.Options) (*Result, error) {
	start := time.Now()
	opts.Root = repoRoot

	var paths []string
	var repoPaths []string
	err := walker.Walk(opts, func(e walker.Entry) error {
		if e.TooLarge {
			return nil
		}
		paths = append(paths, e.FullPath)
		repoPaths = append(repoPaths, NormalizePath(repoRoot, e.FullPath))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	resolver := lang.NewResolver(repoPaths)

	b.logger.Info("index.build.start", "repo", repoRoot, "files", len(paths), "workers", b.workers)
	result := b.run(ctx, repoRoot, paths, nil, resolver)
	result.Duration = time.Since(start)

	b.logger.Info("index.build.complete",
		"files_scanned", result.FilesScanned,
		"files_indexed", result.FilesIndexed,
		"files_unsupported", result.FilesUnsupported,
		"parse_errors", result.ParseErrors,
		"duration_ms", result.Duration.Milliseconds(),
	)
	metrics.Get().IndexDuration.Observe(result.Duration.Seconds())
	return result, nil
}

// UpdateFiles re-indexes a specific set of changed files, given as
// absolute paths (a relative path is read from the process's working
// directory, not from repoRoot), gated by content hash so
// files whose bytes haven't actually changed are skipped. Used for both
// the `update` command and the daemon's debounced batch flush.
func (b *Builder) UpdateFiles(ctx context.Context, repoRoot string, absPaths []string) (*Result, error) {
	start := time.Now()

	known, err := b.store.AllPaths()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(known)+len(absPaths))
	all := make([]string, 0, len(known)+len(absPaths))
	for _, p := range known {
		if !seen[p] {
			seen[p] = true
			all = append(all, p)
		}
	}
	for _, absPath := range absPaths {
		p := NormalizePath(repoRoot, absPath)
		if !seen[p] {
			seen[p] = true
			all = append(all, p)
		}
	}
	resolver := lang.NewResolver(all)

	result := b.run(ctx, repoRoot, absPaths, b.store.FileHash, resolver)
	result.Duration = time.Since(start)
	metrics.Get().IndexDuration.Observe(result.Duration.Seconds())
	return result, nil
}

// DeleteFiles removes the index rows for files that no longer exist
// on disk (daemon fsnotify Remove/Rename events).
func (b *Builder) DeleteFiles(repoPaths []string) error {
	for _, p := range repoPaths {
		if err := b.store.DeleteFile(p); err != nil {
			return err
		}
	}
	return nil
}

// run fans parsing out across b.workers goroutines and serializes all
// writes through a single goroutine, since the store holds one writable
// SQLite connection (SetMaxOpenConns(1)).
func (b *Builder) run(ctx context.Context, repoRoot string, absPaths []string, hashLookup func(string) (uint64, bool, error), resolver *lang.Resolver) *Result {
	result := &Result{Languages: map[string]int{}}
	if len(absPaths) == 0 {
		return result
	}

	jobs := make(chan string, len(absPaths))
	parsed := make(chan parsedFile, b.workers*2)

	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for absPath := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				parsed <- b.parseOne(repoRoot, absPath, hashLookup, resolver)
			}
		}()
	}

	for _, p := range absPaths {
		jobs <- p
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(parsed)
	}()

	mx := metrics.Get()
	for pf := range parsed {
		result.FilesScanned++
		switch {
		case pf.skip:
			result.FilesSkipped++
			mx.FilesSkipped.Inc()
			continue
		case pf.err != nil:
			result.ParseErrors++
			mx.ParseErrors.Inc()
			b.logger.Warn("index.parse.error", "path", pf.path, "err", pf.err)
			continue
		}
		if pf.record.Language == "" {
			result.FilesUnsupported++
		}
		if err := b.store.WriteFile(pf.path, pf.record, pf.result); err != nil {
			result.ParseErrors++
			mx.ParseErrors.Inc()
			b.logger.Warn("index.write.error", "path", pf.path, "err", err)
			continue
		}
		mx.BatchCommits.Inc()
		result.FilesIndexed++
		mx.FilesIndexed.Inc()
		if pf.record.Language != "" {
			result.Languages[pf.record.Language]++
		}
	}
	return result
}

func (b *Builder) parseOne(repoRoot, absPath string, hashLookup func(string) (uint64, bool, error), resolver *lang.Resolver) parsedFile {
	repoPath := NormalizePath(repoRoot, absPath)

	content, err := os.ReadFile(absPath)
	if err != nil {
		return parsedFile{path: repoPath, err: err}
	}
	hash := ContentHash(content)

	if hashLookup != nil {
		if prev, found, err := hashLookup(repoPath); err == nil && found && prev == hash {
			return parsedFile{path: repoPath, skip: true}
		}
	}

	g, ok := lang.Detect(repoPath)
	if !ok {
		// Unsupported file type: still record a bare file row so `ls` and
		// file-count reporting are accurate, with no symbols.
		return parsedFile{
			path: repoPath,
			hash: hash,
			record: model.FileRecord{
				Path:        repoPath,
				Hash:        hash,
				LastIndexed: store.NowUnix(),
			},
		}
	}

	pr, err := lang.Extract(content, g, repoPath)
	if err != nil {
		return parsedFile{path: repoPath, err: err}
	}
	for i := range pr.Symbols {
		pr.Symbols[i].File = repoPath
	}
	for i := range pr.References {
		pr.References[i].File = repoPath
	}
	if resolver != nil {
		pr.Imports = resolveImports(resolver, g.Name, repoPath, pr.Imports)
	}

	return parsedFile{
		path: repoPath,
		hash: hash,
		record: model.FileRecord{
			Path:         repoPath,
			Language:     g.Name,
			Hash:         hash,
			LastIndexed:  store.NowUnix(),
			LineCount:    pr.LineCount,
			SymbolsCount: len(pr.Symbols),
			Imports:      pr.Imports,
		},
		result: *pr,
	}
}

// resolveImports converts each raw import target emitted by the grammar's
// resolver function into the repo-relative file path(s) it names, using
// resolver's language-specific rules (spec §4.6). A target that resolves to
// nothing is kept as-is: the blob still carries it for the text-scanner
// fallback, but since it never matches a real path it is naturally excluded
// from structural `deps`/`rdeps` results (pkg/query.Router checks existence
// via Store.PathExists before treating an entry as a dependency edge).
func resolveImports(resolver *lang.Resolver, language, fromFile string, raw []string) []string {
	if len(raw) == 0 {
		return raw
	}
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, target := range raw {
		resolved := resolver.Resolve(language, fromFile, target)
		if len(resolved) == 0 {
			add(target)
			continue
		}
		for _, r := range resolved {
			add(r)
		}
	}
	return out
}
