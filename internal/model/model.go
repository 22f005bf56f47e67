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

// Package model holds the data types shared by wonk's persistence layer,
// parser, indexing pipeline, query router, and ranker.
package model

// Kind enumerates the kinds of declarations a Symbol can represent.
type Kind string

const (
	KindFunction       Kind = "function"
	KindMethod         Kind = "method"
	KindClass          Kind = "class"
	KindStruct         Kind = "struct"
	KindInterface      Kind = "interface"
	KindEnum           Kind = "enum"
	KindTrait          Kind = "trait"
	KindTypeAlias      Kind = "type-alias"
	KindConstant       Kind = "constant"
	KindVariable       Kind = "variable"
	KindModule         Kind = "module"
	KindExportedAlias  Kind = "exported-alias"
)

// Symbol is a named declaration extracted from source.
type Symbol struct {
	ID        int64
	Name      string
	Kind      Kind
	File      string // repo-relative
	StartLine int    // 1-indexed, inclusive
	StartCol  int
	EndLine   int
	Scope     string // nearest enclosing symbol name, empty if none
	Signature string
	Language  string
}

// Reference is a non-defining name occurrence.
type Reference struct {
	ID      int64
	Name    string
	File    string
	Line    int
	Col     int
	Context string // the full source line
}

// FileRecord is per-path metadata.
type FileRecord struct {
	Path         string // repo-relative, primary key
	Language     string
	Hash         uint64 // fast non-cryptographic 64-bit content hash
	LastIndexed  int64  // unix seconds
	LineCount    int
	SymbolsCount int
	Imports      []string // ordered, resolved-or-raw import targets
}

// ImportEdge is a directed importer -> imported edge, derived from FileRecord.Imports.
type ImportEdge struct {
	Importer string
	Imported string
}

// DaemonStatus is the small key/value record the daemon writes and the CLI reads.
type DaemonStatus struct {
	PID          int
	State        string // "running" | "shutting-down"
	UptimeStart  int64  // unix seconds
	LastActivity int64  // unix seconds
	QueuedFiles  int
	LastError    string
}

// ParseResult is what a language extractor produces for one file.
type ParseResult struct {
	Symbols    []Symbol
	References []Reference
	Imports    []string
	Language   string
	LineCount  int
}
