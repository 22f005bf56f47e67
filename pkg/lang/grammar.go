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

// Package lang maps file extensions to Tree-sitter grammars and runs each
// grammar's symbol/reference/import pattern queries against a parsed file.
// Per-language behavior varies only in the pattern set it runs; the
// extraction engine itself (extract.go) is a single closed procedure
// driven by a table (language -> {symbol_patterns, reference_patterns,
// import_patterns, resolver_rules}), not per-language polymorphism.
package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Grammar bundles a Tree-sitter language with the three pattern sets that
// drive extraction (symbols, references, imports), plus the container
// node types used to resolve a symbol's enclosing scope and the resolver
// rule used for its import targets.
type Grammar struct {
	Name string

	language func() *sitter.Language

	// SymbolQuery captures definition nodes. Each match must include a
	// @name capture (the declared identifier) and a @definition.<kind>
	// capture (the whole declaration), where <kind> is one of the
	// model.Kind values.
	SymbolQuery string

	// ReferenceQuery captures non-defining name occurrences. Each match
	// must include a @reference capture holding the identifier node.
	ReferenceQuery string

	// ImportQuery captures import/require/use statements. Each match must
	// include a @import capture holding the string/path node (or the
	// whole statement, if the target must be derived from multiple
	// children).
	ImportQuery string

	// ContainerTypes are node types that introduce a named scope (class
	// bodies, impl blocks, ...). Used to compute Symbol.Scope by walking
	// ancestors of a definition node.
	ContainerTypes map[string]bool

	// ScopeOf overrides ancestor-walk scope resolution for grammars where
	// scope isn't lexical nesting (e.g. Go methods, whose scope is their
	// receiver type). Returns "" to fall back to ContainerTypes.
	ScopeOf func(defNode *sitter.Node, content []byte) string

	// Resolver converts a raw import-statement capture into zero or more
	// raw import target strings (module path or relative path), before
	// repo-relative resolution (resolve.go).
	Resolver func(content []byte, node *sitter.Node) []string
}

// Language returns the grammar's Tree-sitter Language, resolved lazily so
// that a process using only a handful of languages doesn't pay the
// embed/init cost of every grammar package.
func (g *Grammar) Language() *sitter.Language { return g.language() }

// Extension -> grammar name. One extension always maps to exactly one
// grammar; .tsx uses the TSX variant of the TypeScript grammar (same
// pattern set) and .jsx the JavaScript grammar, both of which parse the
// embedded markup natively.
var extensions = map[string]string{
	".ts":    "typescript",
	".mts":   "typescript",
	".cts":   "typescript",
	".tsx":   "tsx",
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".jsx":   "javascript",
	".py":    "python",
	".pyi":   "python",
	".rs":    "rust",
	".go":    "go",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".hh":    "cpp",
	".rb":    "ruby",
	".php":   "php",
}

var grammars map[string]*Grammar

func init() {
	grammars = map[string]*Grammar{
		"go":         goGrammar(),
		"typescript": typescriptGrammar("typescript"),
		"tsx":        typescriptGrammar("tsx"),
		"javascript": javascriptGrammar(),
		"python":     pythonGrammar(),
		"rust":       rustGrammar(),
		"java":       javaGrammar(),
		"c":          cGrammar(),
		"cpp":        cppGrammar(),
		"ruby":       rubyGrammar(),
		"php":        phpGrammar(),
	}
}

// Detect maps a repo-relative or absolute path's extension to a Grammar.
// The extensions table may be extended at runtime via RegisterExtensions
// (config key index.additional_extensions).
func Detect(path string) (*Grammar, bool) {
	ext := extOf(path)
	name, ok := extensions[ext]
	if !ok {
		return nil, false
	}
	g, ok := grammars[name]
	return g, ok
}

// RegisterExtensions layers additional extension -> language-name mappings
// from configuration onto the built-in table. Unknown language names are
// ignored.
func RegisterExtensions(extraExts map[string]string) {
	for ext, name := range extraExts {
		if _, ok := grammars[name]; ok {
			extensions[ext] = name
		}
	}
}

func extOf(path string) string {
	i := len(path) - 1
	for i >= 0 && path[i] != '.' && path[i] != '/' {
		i--
	}
	if i < 0 || path[i] != '.' {
		return ""
	}
	return path[i:]
}
