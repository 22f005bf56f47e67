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

// Package engine is wonk's command entry point: it resolves the repo root,
// opens (or auto-builds) the index, routes the command through pkg/query,
// ranks and budgets the results, and writes them out. cmd/wonk is a thin
// flag-parsing shell around this package, the way kraklabs-cie/cmd/cie's
// runQuery loads config, resolves the data dir, opens the backend, and
// dispatches to a single query call before formatting the result.
package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/etr/wonk/internal/bootstrap"
	"github.com/etr/wonk/internal/config"
	werrors "github.com/etr/wonk/internal/errors"
	"github.com/etr/wonk/internal/output"
	"github.com/etr/wonk/internal/walker"
	"github.com/etr/wonk/pkg/daemon"
	"github.com/etr/wonk/pkg/index"
	"github.com/etr/wonk/pkg/query"
	"github.com/etr/wonk/pkg/rank"
	"github.com/etr/wonk/pkg/scanner"
	"github.com/etr/wonk/pkg/store"
)

// Options configures one Dispatch call. Not every field applies to every
// Command; each command documents which it reads.
type Options struct {
	// Cwd is the directory to discover the repo root from. Defaults to the
	// process's working directory.
	Cwd string

	// Pattern is the search/sym/ref/sig/ls/deps/rdeps argument.
	Pattern string
	// PathPrefix restricts ref/ls to a repo-relative subpath.
	PathPrefix string
	// Exact requires an exact name match for sym/sig instead of substring.
	Exact bool
	// Regex interprets Pattern as a regular expression for search.
	Regex bool
	// CaseInsensitive applies to search.
	CaseInsensitive bool

	// Smart enables the ranker (classification, dedup, tiering). When
	// false, results are emitted in router order with no budget applied.
	// Commands other than `search` read this flag directly.
	Smart bool
	// SmartMode governs `search` specifically, per spec §4.7's "automatic
	// engagement" rule: "auto" (the default — engage the ranker only if
	// Pattern matches at least one symbol name in the index, else
	// pass-through), "on" (--smart forces ranking), "off" (--raw forces
	// pass-through). Empty behaves as "auto". Ignored by every command
	// other than search, which reads Smart directly instead.
	SmartMode string
	// Budget, in approximate tokens (ceil(bytes/4) per row); 0 disables
	// truncation.
	Budget int

	// JSON selects structured output mode instead of grep mode.
	JSON bool
	// Quiet suppresses side-channel hints/progress.
	Quiet bool
	// NoColor forces color off regardless of environment/TTY detection.
	NoColor bool

	// NoAutoInit disables the synchronous auto-build when no index exists.
	NoAutoInit bool
	// Workers bounds the indexing worker pool; <=0 defaults to NumCPU.
	Workers int

	Logger *slog.Logger
}

// Result is what Dispatch returns for callers that want the raw answer
// rather than (or in addition to) the already-written output; cmd/wonk
// uses only the ExitCode in normal operation.
type Result struct {
	ExitCode int
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) mode() output.Mode {
	if o.JSON {
		return output.ModeStructured
	}
	return output.ModeGrep
}

// repoRoot resolves o.Cwd (or the process cwd) to the nearest .wonk/.git
// ancestor.
func (o Options) repoRoot() (string, error) {
	dir := o.Cwd
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", werrors.Wrap(werrors.IoError, "resolve working directory", err)
		}
		dir = wd
	}
	root, err := walker.RepoRoot(dir)
	if err != nil {
		return "", werrors.Wrap(werrors.IoError, "discover repo root", err)
	}
	if root == "" {
		return "", werrors.New(werrors.NoIndex, "no repo root found (no .wonk or .git ancestor)", "",
			"run wonk from inside a git repository, or `wonk init` one")
	}
	return root, nil
}

// openRouter resolves the repo root, opens the index (auto-building it
// synchronously on NoIndex unless NoAutoInit is set), and returns a router
// ready to answer commands. The returned closer must be called once the
// caller is done; it is a no-op if no store was opened.
func openRouter(ctx context.Context, o Options, w *output.Writer) (*query.Router, string, func(), error) {
	repoRoot, err := o.repoRoot()
	if err != nil {
		return nil, "", func() {}, err
	}

	s, bundleDir, err := bootstrap.Open(repoRoot, true)
	if err != nil {
		if kind, ok := werrors.KindOf(err); ok && kind == werrors.NoIndex {
			if o.NoAutoInit {
				return nil, repoRoot, func() {}, err
			}
			_ = w.WriteProgress("no index found; building one now...")
			if _, _, buildErr := bootstrap.Build(ctx, bootstrap.RepoConfig{RepoRoot: repoRoot, Local: false}, o.Workers, o.logger()); buildErr != nil {
				return nil, repoRoot, func() {}, buildErr
			}
			s, bundleDir, err = bootstrap.Open(repoRoot, true)
			if err != nil {
				return nil, repoRoot, func() {}, err
			}
		} else {
			return nil, repoRoot, func() {}, err
		}
	}

	// Auto-spawn: every query command with an index checks the daemon's
	// PID file and spawns a watcher if none is alive, concurrently with
	// answering rather than blocking on it, per spec §4.9.
	go autoSpawnDaemon(repoRoot, bundleDir, o.logger())

	cfg, err := config.Load(repoRoot)
	if err != nil {
		if s != nil {
			s.Close()
		}
		return nil, repoRoot, func() {}, err
	}

	walkOpts := walker.Options{
		Root:                repoRoot,
		RespectGitignore:    true,
		RespectCustomIgnore: true,
		ExtraPatterns:       cfg.Ignore.Patterns,
		MaxFileSize:         int64(cfg.Index.MaxFileSizeKB) * 1024,
	}

	router := query.New(s, repoRoot, walkOpts)
	closer := func() {
		if s != nil {
			s.Close()
		}
	}
	return router, repoRoot, closer, nil
}

// autoSpawnDaemon spawns a background watcher for bundleDir if none is
// already alive. Errors are logged, not surfaced: a failed auto-spawn
// should never fail the query it rode in on.
func autoSpawnDaemon(repoRoot, bundleDir string, logger *slog.Logger) {
	pidPath := store.PidFilePath(bundleDir)
	if daemon.IsRunning(pidPath) {
		return
	}
	logPath := filepath.Join(bundleDir, "daemon.log")
	if err := daemon.Spawn(repoRoot, pidPath, logPath, nil); err != nil {
		logger.Warn("daemon.autospawn.failed", "err", err)
	}
}

// Dispatch resolves the repo root, opens or auto-builds the index, routes
// cmdName through pkg/query, ranks and budgets the answer when o.Smart is
// set, and writes the result to primary/side. It is the single entry point
// every cmd/wonk subcommand calls into.
func Dispatch(ctx context.Context, cmdName string, o Options, primary, side *os.File) Result {
	w := output.New(primary, side, o.mode(), o.Quiet)

	router, repoRoot, closer, err := openRouter(ctx, o, w)
	if err != nil {
		return writeFailure(w, err)
	}
	defer closer()
	_ = repoRoot

	var rows []query.Result
	var fellBack bool

	switch cmdName {
	case "search":
		rows, err = router.Search(searchOptions(o))
		if err == nil {
			o.Smart = resolveSearchSmart(o, router)
		}
	case "sym":
		rows, fellBack, err = router.Sym(store.SymbolQuery{Name: o.Pattern, Exact: o.Exact})
	case "sig":
		rows, fellBack, err = router.Sig(o.Pattern)
	case "ref":
		rows, fellBack, err = router.Ref(o.Pattern, o.PathPrefix)
	case "ls":
		rows, err = router.Ls(o.PathPrefix)
	case "deps":
		rows, fellBack, err = router.Deps(o.Pattern)
	case "rdeps":
		rows, fellBack, err = router.Rdeps(o.Pattern)
	default:
		return writeFailure(w, werrors.New(werrors.UsageError, "unknown command: "+cmdName, "", "one of: search, sym, sig, ref, ls, deps, rdeps"))
	}
	if err != nil {
		return writeFailure(w, err)
	}
	if fellBack && !o.Quiet {
		_ = w.WriteProgress("no index entry matched; falling back to text scan")
	}

	if cmdName == "deps" || cmdName == "rdeps" {
		for _, r := range rows {
			if err := w.WriteDep(r); err != nil {
				return writeFailure(w, err)
			}
		}
		return Result{ExitCode: werrors.ExitSuccess}
	}

	return writeRanked(w, router, rows, o)
}

// resolveSearchSmart implements spec §4.7's automatic engagement rule for
// `search`: --smart and --raw force the mode; absent either flag, the
// ranker engages only when the pattern looks like it names a symbol in the
// index. PrefixMatch (the FTS5 fast path) is deliberately used here rather
// than the full substring scan SymbolsByName does for `sym`: this is only a
// cheap signal for whether to engage ranking, so under-matching a non-
// prefix substring just means smart mode doesn't engage, not a wrong answer.
func resolveSearchSmart(o Options, router *query.Router) bool {
	switch o.SmartMode {
	case "on":
		return true
	case "off":
		return false
	}
	if router.Store == nil || o.Pattern == "" {
		return false
	}
	syms, err := router.Store.PrefixMatch(o.Pattern)
	return err == nil && len(syms) > 0
}

func searchOptions(o Options) scanner.Options {
	return scanner.Options{
		Pattern:         o.Pattern,
		Regex:           o.Regex,
		CaseInsensitive: o.CaseInsensitive,
		Paths:           pathsOf(o.PathPrefix),
	}
}

func pathsOf(prefix string) []string {
	if prefix == "" {
		return nil
	}
	return []string{filepath.ToSlash(prefix)}
}

// writeRanked classifies/orders/dedupes/budgets rows (when o.Smart is set)
// and writes the resulting stream, with tier headers between categories in
// grep mode.
func writeRanked(w *output.Writer, router *query.Router, rows []query.Result, o Options) Result {
	byIdx := make(map[int]query.Result, len(rows))
	items := make([]rank.Item, len(rows))
	for i, r := range rows {
		items[i] = rank.Item{File: r.File, Line: r.Line, Col: r.Col, Content: resultContent(r), Name: r.Name}
		byIdx[i] = r
	}

	if !o.Smart {
		for i, it := range items {
			row := rank.Row{Item: it}
			if err := w.WriteRow(row, byIdx[i]); err != nil {
				return writeFailure(w, err)
			}
		}
		return Result{ExitCode: werrors.ExitSuccess}
	}

	result, err := rank.Rank(items, &rank.Classifier{Store: router.Store}, o.Budget)
	if err != nil {
		return writeFailure(w, err)
	}

	byKey := make(map[string]query.Result, len(rows))
	for _, r := range rows {
		byKey[resultKey(r.File, r.Line, r.Col, r.Name)] = r
	}

	var lastCat rank.Category = -1
	for _, row := range result.Rows {
		if row.Category != lastCat {
			if err := w.WriteHeader(row.Category); err != nil {
				return writeFailure(w, err)
			}
			lastCat = row.Category
		}
		orig := byKey[resultKey(row.File, row.Line, row.Col, row.Name)]
		if err := w.WriteRow(row, orig); err != nil {
			return writeFailure(w, err)
		}
	}
	if err := w.WriteTruncation(result.TruncatedCount, result.BudgetTokens, result.UsedTokens); err != nil {
		return writeFailure(w, err)
	}
	return Result{ExitCode: werrors.ExitSuccess}
}

func resultKey(file string, line, col int, name string) string {
	return file + "\x00" + itoa(line) + "\x00" + itoa(col) + "\x00" + name
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// resultContent picks the text the ranker classifies and the grep-mode
// writer prints: symbol rows show their signature (falling back to name),
// everything else shows its context/content line.
func resultContent(r query.Result) string {
	if r.Kind == "symbol" {
		if r.Signature != "" {
			return r.Signature
		}
		return r.Name
	}
	return r.Content
}

func writeFailure(w *output.Writer, err error) Result {
	_ = w.WriteError(err)
	if we, ok := err.(*werrors.WonkError); ok {
		if we.Fix != "" {
			_ = w.WriteHint(we.Fix)
		}
		return Result{ExitCode: we.ExitCode()}
	}
	return Result{ExitCode: werrors.ExitRuntime}
}

// Init runs `wonk init`: a from-scratch build, reporting progress on the
// side channel and a summary on completion.
func Init(ctx context.Context, o Options, local bool) Result {
	w := output.New(os.Stdout, os.Stderr, o.mode(), o.Quiet)
	repoRoot, err := o.repoRoot()
	if err != nil {
		return writeFailure(w, err)
	}
	_ = w.WriteProgress("building index for " + repoRoot + "...")

	info, result, err := bootstrap.Build(ctx, bootstrap.RepoConfig{RepoRoot: repoRoot, Local: local}, o.Workers, o.logger())
	if err != nil {
		return writeFailure(w, err)
	}
	_ = w.WriteProgress("indexed " + itoa(result.FilesIndexed) + " files across " + itoa(len(info.Languages)) + " languages")
	return Result{ExitCode: werrors.ExitSuccess}
}

// Update runs `wonk update`: a content-hash-gated re-index over every
// currently-tracked file under the repo root, skipping files whose hash
// hasn't changed since the last build.
func Update(ctx context.Context, o Options) Result {
	w := output.New(os.Stdout, os.Stderr, o.mode(), o.Quiet)
	repoRoot, err := o.repoRoot()
	if err != nil {
		return writeFailure(w, err)
	}

	s, _, err := bootstrap.Open(repoRoot, false)
	if err != nil {
		return writeFailure(w, err)
	}
	defer s.Close()

	cfg, err := config.Load(repoRoot)
	if err != nil {
		return writeFailure(w, err)
	}

	var paths []string
	walkOpts := walker.Options{
		Root:                repoRoot,
		RespectGitignore:    true,
		RespectCustomIgnore: true,
		ExtraPatterns:       cfg.Ignore.Patterns,
		MaxFileSize:         int64(cfg.Index.MaxFileSizeKB) * 1024,
	}
	if err := walker.Walk(walkOpts, func(e walker.Entry) error {
		if !e.TooLarge {
			paths = append(paths, e.FullPath)
		}
		return nil
	}); err != nil {
		return writeFailure(w, err)
	}

	_ = w.WriteProgress("checking " + itoa(len(paths)) + " files for changes...")

	builder := index.NewBuilder(s, o.Workers, o.logger())
	result, err := builder.UpdateFiles(ctx, repoRoot, paths)
	if err != nil {
		return writeFailure(w, err)
	}
	_ = w.WriteProgress("reindexed " + itoa(result.FilesIndexed) + " files, " + itoa(result.FilesSkipped) + " unchanged")
	return Result{ExitCode: werrors.ExitSuccess}
}
