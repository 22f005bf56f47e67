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

package lang

import (
	"path"
	"strings"
)

// Resolver maps raw import targets (as captured by a Grammar's ImportQuery
// and normalized by its Resolver function) onto repo-relative file paths,
// so the store can answer `deps`/`rdeps` with file paths rather than
// opaque module strings. It is built once from the set of files actually
// present in an index, mirroring how the Go toolchain's own import
// resolution only ever has to consider packages that exist on disk.
type Resolver struct {
	// byBaseName maps a file's extension-stripped base name (and, for
	// directory-style modules, the directory name) to its candidate repo
	// paths. Used for suffix/basename matching when an import string
	// isn't already repo-relative.
	byBaseName map[string][]string
	knownPaths map[string]bool
}

// NewResolver indexes every known file path for later lookups.
func NewResolver(paths []string) *Resolver {
	r := &Resolver{byBaseName: map[string][]string{}, knownPaths: map[string]bool{}}
	for _, p := range paths {
		r.knownPaths[p] = true
		base := strings.TrimSuffix(path.Base(p), path.Ext(p))
		r.byBaseName[base] = append(r.byBaseName[base], p)

		dir := path.Dir(p)
		dirBase := path.Base(dir)
		if dirBase != "." && dirBase != "/" {
			r.byBaseName[dirBase] = append(r.byBaseName[dirBase], p)
		}
	}
	return r
}

// Resolve converts one raw import target from fromFile's Imports list into
// zero or more repo-relative file paths. language picks the resolution
// strategy: relative-path for JS/TS, dotted-module for Python, suffix/
// basename best-effort for everything else.
func (r *Resolver) Resolve(language, fromFile, target string) []string {
	if target == "" {
		return nil
	}
	switch language {
	case "typescript", "tsx", "javascript":
		return r.resolveRelative(fromFile, target)
	case "python":
		return r.resolvePython(fromFile, target)
	default:
		return r.resolveBestEffort(target)
	}
}

// resolveRelative handles "./foo", "../bar/baz" module specifiers by
// joining them against the importing file's directory and probing common
// extensions and index-file fallbacks. Bare specifiers ("react", "lodash")
// resolve to nothing: they name a package, not a file in this repo.
func (r *Resolver) resolveRelative(fromFile, target string) []string {
	if !strings.HasPrefix(target, ".") {
		return nil
	}
	dir := path.Dir(fromFile)
	joined := path.Clean(path.Join(dir, target))

	candidates := []string{
		joined,
		joined + ".ts", joined + ".tsx", joined + ".js", joined + ".jsx", joined + ".mjs", joined + ".cjs",
		path.Join(joined, "index.ts"), path.Join(joined, "index.tsx"),
		path.Join(joined, "index.js"), path.Join(joined, "index.jsx"),
	}
	var out []string
	for _, c := range candidates {
		if r.knownPaths[c] {
			out = append(out, c)
		}
	}
	return out
}

// resolvePython handles dotted module paths ("pkg.sub.mod") and relative
// imports ("." / ".."), both expressed relative to fromFile's package
// directory.
func (r *Resolver) resolvePython(fromFile, target string) []string {
	dir := path.Dir(fromFile)

	leadingDots := 0
	for leadingDots < len(target) && target[leadingDots] == '.' {
		leadingDots++
	}
	rest := target[leadingDots:]
	for i := 1; i < leadingDots; i++ {
		dir = path.Dir(dir)
	}

	rest = strings.ReplaceAll(rest, ".", "/")
	joined := path.Clean(path.Join(dir, rest))

	candidates := []string{joined + ".py", path.Join(joined, "__init__.py")}
	var out []string
	for _, c := range candidates {
		if r.knownPaths[c] {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		return out
	}
	// Not found relative to the importing file's directory; fall back to
	// basename matching against every known module with this name
	// (handles absolute imports rooted at a source directory this
	// resolver wasn't told about explicitly).
	return r.resolveBestEffort(path.Base(rest))
}

// resolveBestEffort matches Go/Rust/Java/C/C++/Ruby/PHP import targets by
// the trailing path component against known files' base names: a
// suffix-then-basename fallback for import paths that don't exactly match
// a local package directory.
func (r *Resolver) resolveBestEffort(target string) []string {
	target = strings.Trim(target, "/")
	target = strings.TrimSuffix(target, ".h")
	target = strings.TrimSuffix(target, ".hpp")
	last := target
	if i := strings.LastIndexAny(target, "./\\:"); i >= 0 {
		last = target[i+1:]
	}
	if last == "" {
		return nil
	}
	return r.byBaseName[last]
}
