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

package scanner

import (
	"path/filepath"
	"regexp"
	"strings"
)

// definitionKeywords are the leading tokens a definition heuristic probes
// for, independent of language: "fn foo", "def foo", "class foo", and so on.
var definitionKeywords = []string{
	"fn", "func", "def", "function", "class", "struct", "interface", "type", "trait", "enum",
}

// DefinitionPattern builds a regex matching any of the non-exhaustive
// per-language definition heuristics against name, for use as the sym/sig
// fallback when the symbol table has no match.
func DefinitionPattern(name string) string {
	return `\b(` + strings.Join(definitionKeywords, "|") + `)\s+` + regexp.QuoteMeta(name) + `\b`
}

// ImportPattern builds a regex matching the import/require/use heuristics
// against name, for use as the deps/rdeps fallback.
func ImportPattern(name string) string {
	esc := regexp.QuoteMeta(name)
	return `(import.*` + esc + `|require.*` + esc + `|use\s+` + esc + `\b)`
}

// genericImportRe matches an import/require/use statement independent of
// which name it names, for the ranker's Import-tier classification (as
// opposed to ImportPattern, which tests for one specific name).
var genericImportRe = regexp.MustCompile(`^\s*(import\b|require\s*\(|require\s|use\s)`)

// IsImportLine reports whether content looks like an import/require/use
// statement, independent of which symbol it names.
func IsImportLine(content string) bool {
	return genericImportRe.MatchString(content)
}

// commentPrefixes are line-leading tokens that mark a comment line when no
// tree-sitter node kind is available for the classification.
var commentPrefixes = []string{"//", "#", "/*", "*"}

// IsCommentLine reports whether content looks like a comment by its
// line-leading token, ignoring indentation.
func IsCommentLine(content string) bool {
	trimmed := strings.TrimLeft(content, " \t")
	for _, p := range commentPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// testPathDirs identify a path as test code by directory component.
var testPathDirs = []string{"test/", "tests/", "__tests__/"}

// testFileSuffixes identify a path as test code by file name.
var testFileSuffixes = []string{"_test.go", "_test.py", "_test.rs", ".test.", ".spec."}

// IsTestPath reports whether a repo-relative path matches a test-location
// or test-filename heuristic.
func IsTestPath(path string) bool {
	for _, d := range testPathDirs {
		if strings.Contains(path, d) {
			return true
		}
	}
	base := filepath.Base(path)
	for _, suf := range testFileSuffixes {
		if strings.Contains(base, suf) {
			return true
		}
	}
	return false
}
