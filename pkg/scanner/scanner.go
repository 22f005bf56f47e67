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

// Package scanner is the line-oriented pattern scanner used both as the
// primary backend for search and as the fallback behind every structural
// query the index can't answer. It shares the walker's ignore discipline so
// fallback and structural results stay consistent about which files count.
package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/etr/wonk/internal/walker"
)

// Options configures one scan.
type Options struct {
	Pattern         string // required
	Regex           bool   // interpret Pattern as a regular expression
	CaseInsensitive bool
	Paths           []string // restrict to these repo-relative subpaths
	Walk            walker.Options
}

// Match is one matching line.
type Match struct {
	File    string // repo-relative
	Line    int    // 1-indexed
	Col     int    // 1-indexed, byte offset of the match start
	Content string
}

// Scan streams matches from repoRoot to fn, in directory-walk order, file by
// file, top to bottom. Returning an error from fn stops the scan early.
func Scan(repoRoot string, opts Options, fn func(Match) error) error {
	re, err := compile(opts.Pattern, opts.Regex, opts.CaseInsensitive)
	if err != nil {
		return fmt.Errorf("compile pattern: %w", err)
	}

	walkOpts := opts.Walk
	walkOpts.Root = repoRoot

	restricts := make([]string, len(opts.Paths))
	for i, p := range opts.Paths {
		restricts[i] = filepath.ToSlash(filepath.Clean(p))
	}

	return walker.Walk(walkOpts, func(e walker.Entry) error {
		if e.TooLarge {
			return nil
		}
		if len(restricts) > 0 && !underAny(e.Path, restricts) {
			return nil
		}
		return scanFile(e.FullPath, e.Path, re, fn)
	})
}

func underAny(path string, restricts []string) bool {
	for _, r := range restricts {
		if path == r || strings.HasPrefix(path, r+"/") {
			return true
		}
	}
	return false
}

func scanFile(fullPath, repoPath string, re *regexp.Regexp, fn func(Match) error) error {
	f, err := os.Open(fullPath)
	if err != nil {
		return nil // unreadable file: skip, not fatal to the scan
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if !utf8Safe(text) {
			continue
		}
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if err := fn(Match{File: repoPath, Line: line, Col: loc[0] + 1, Content: text}); err != nil {
			return err
		}
	}
	return nil
}

// utf8Safe rejects lines with NUL bytes, the usual binary-file signal, so a
// scan over a repo with binary assets doesn't emit garbage matches.
func utf8Safe(s string) bool {
	return !strings.ContainsRune(s, 0)
}

func compile(pattern string, isRegex, caseInsensitive bool) (*regexp.Regexp, error) {
	src := pattern
	if !isRegex {
		src = regexp.QuoteMeta(pattern)
	}
	if caseInsensitive {
		src = "(?i)" + src
	}
	return regexp.Compile(src)
}
