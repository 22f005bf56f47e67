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

// Package query is wonk's command router: it dispatches each command to a
// primary backend (the structural index) and, only when the primary
// returns nothing or the index doesn't exist, falls back to the text
// scanner with per-language heuristics. The dispatch table is fixed; it
// does not grow per caller.
package query

import (
	"sort"
	"strings"

	"github.com/etr/wonk/internal/model"
	"github.com/etr/wonk/internal/walker"
	"github.com/etr/wonk/pkg/scanner"
	"github.com/etr/wonk/pkg/store"
)

// Result is one answer row, shaped to cover every command this router
// answers; callers read only the fields relevant to the command they ran.
type Result struct {
	Kind    string // "search" | "symbol" | "reference" | "dep"
	File    string
	Line    int
	Col     int
	Content string // search/reference context line

	Name       string
	SymbolKind model.Kind
	Signature  string
	Language   string
	Scope      string

	From string // deps/rdeps: importer
	To   string // deps/rdeps: imported
}

// Router answers queries for one repo, backed by its index when present and
// falling back to the filesystem scanner otherwise. Import resolution
// happens once, at index time (pkg/index.resolveImports), not here: by the
// time a Router answers deps/rdeps, imports_blob already holds resolved
// repo-relative paths (or the original raw specifier, for entries that
// never resolved).
type Router struct {
	Store    *store.Store // nil if no index is open; every method degrades to scanner-only
	RepoRoot string
	Walk     walker.Options
}

// New builds a Router. store may be nil (no index found and auto-init
// disabled): every command still answers via the scanner fallback.
func New(s *store.Store, repoRoot string, walk walker.Options) *Router {
	walk.Root = repoRoot
	return &Router{Store: s, RepoRoot: repoRoot, Walk: walk}
}

// Search answers `search <pattern>`: the scanner is always primary, there is
// no structural fallback.
func (r *Router) Search(opts scanner.Options) ([]Result, error) {
	opts.Walk = r.Walk
	var out []Result
	err := scanner.Scan(r.RepoRoot, opts, func(m scanner.Match) error {
		out = append(out, Result{Kind: "search", File: m.File, Line: m.Line, Col: m.Col, Content: m.Content})
		return nil
	})
	return out, err
}

// Sym answers `sym <name>`: the symbol table is primary; per-language
// definition heuristics over the scanner are the fallback.
func (r *Router) Sym(q store.SymbolQuery) ([]Result, bool, error) {
	if r.Store != nil {
		syms, err := r.Store.SymbolsByName(q)
		if err != nil {
			return nil, false, err
		}
		if len(syms) > 0 {
			return symbolResults(syms), false, nil
		}
	}
	results, err := r.scanHeuristic(scanner.DefinitionPattern(q.Name))
	return results, true, err
}

// Ref answers `ref <name>`: the reference table is primary; a plain-name
// scanner search is the fallback.
func (r *Router) Ref(name, pathPrefix string) ([]Result, bool, error) {
	if r.Store != nil {
		refs, err := r.Store.ReferencesByName(name, pathPrefix)
		if err != nil {
			return nil, false, err
		}
		if len(refs) > 0 {
			return referenceResults(refs), false, nil
		}
	}
	opts := scanner.Options{Pattern: name}
	if pathPrefix != "" {
		opts.Paths = []string{pathPrefix}
	}
	opts.Walk = r.Walk
	var out []Result
	err := scanner.Scan(r.RepoRoot, opts, func(m scanner.Match) error {
		out = append(out, Result{Kind: "search", File: m.File, Line: m.Line, Col: m.Col, Content: m.Content})
		return nil
	})
	return out, true, err
}

// Sig answers `sig <name>`: same backend as Sym, projected to the
// signature column.
func (r *Router) Sig(name string) ([]Result, bool, error) {
	return r.Sym(store.SymbolQuery{Name: name, Exact: true})
}

// Ls answers `ls <path>`: symbols filtered by file-path prefix. There is no
// scanner fallback; an unindexed path simply returns empty (the caller may
// choose to parse that one file on demand).
func (r *Router) Ls(pathPrefix string) ([]Result, error) {
	if r.Store == nil {
		return nil, nil
	}
	syms, err := r.Store.SymbolsByFilePrefix(pathPrefix)
	if err != nil {
		return nil, err
	}
	return symbolResults(syms), nil
}

// Deps answers `deps <file>`: the file's recorded, resolved import targets.
// Unresolved entries (raw module names/specifiers the indexer couldn't map
// to a repo file) are excluded from the structural result per spec §4.6;
// they stay in the blob only for the scanner fallback below. Falls back to
// scanning the file's own text for import/require/use lines when the file
// isn't indexed.
func (r *Router) Deps(file string) ([]Result, bool, error) {
	if r.Store != nil {
		imports, found, err := r.Store.FileImports(file)
		if err != nil {
			return nil, false, err
		}
		if found {
			out := make([]Result, 0, len(imports))
			for _, imp := range imports {
				exists, err := r.Store.PathExists(imp)
				if err != nil {
					return nil, false, err
				}
				if !exists {
					continue
				}
				out = append(out, Result{Kind: "dep", From: file, To: imp})
			}
			return out, false, nil
		}
	}
	var out []Result
	err := scanner.Scan(r.RepoRoot, scanner.Options{Pattern: scanner.ImportPattern(""), Regex: true, Paths: []string{file}, Walk: r.Walk}, func(m scanner.Match) error {
		out = append(out, Result{Kind: "search", File: m.File, Line: m.Line, Col: m.Col, Content: m.Content})
		return nil
	})
	return out, true, err
}

// Rdeps answers `rdeps <file>`: every file whose recorded imports resolve to
// file, found by a reverse scan of the whole import-edge map. Import targets
// are repo-relative paths once resolved (pkg/index.resolveImports), so an
// edge only counts when it is an exact match against file — unresolved raw
// specifiers left in the blob for grep fallback never coincide with a real
// path and are naturally excluded.
func (r *Router) Rdeps(file string) ([]Result, bool, error) {
	if r.Store != nil {
		all, err := r.Store.AllFileImports()
		if err != nil {
			return nil, false, err
		}
		var out []Result
		for importer, imports := range all {
			for _, imp := range imports {
				if imp == file {
					out = append(out, Result{Kind: "dep", From: importer, To: file})
					break
				}
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
		if len(out) > 0 {
			return out, false, nil
		}
	}
	base := file
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		base = file[i+1:]
	}
	results, err := r.scanHeuristic(scanner.ImportPattern(strings.TrimSuffix(base, extOf(base))))
	return results, true, err
}

func extOf(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}

func (r *Router) scanHeuristic(pattern string) ([]Result, error) {
	var out []Result
	err := scanner.Scan(r.RepoRoot, scanner.Options{Pattern: pattern, Regex: true, Walk: r.Walk}, func(m scanner.Match) error {
		out = append(out, Result{Kind: "search", File: m.File, Line: m.Line, Col: m.Col, Content: m.Content})
		return nil
	})
	return out, err
}

func symbolResults(syms []model.Symbol) []Result {
	out := make([]Result, len(syms))
	for i, s := range syms {
		out[i] = Result{
			Kind: "symbol", File: s.File, Line: s.StartLine, Col: s.StartCol,
			Name: s.Name, SymbolKind: s.Kind, Signature: s.Signature,
			Language: s.Language, Scope: s.Scope,
		}
	}
	return out
}

func referenceResults(refs []model.Reference) []Result {
	out := make([]Result, len(refs))
	for i, ref := range refs {
		out[i] = Result{Kind: "reference", File: ref.File, Line: ref.Line, Col: ref.Col, Content: ref.Context, Name: ref.Name}
	}
	return out
}
