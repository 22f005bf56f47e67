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

// Package output implements wonk's two output modes: grep mode, whose
// primary stream matches `^<path>:<line>:<content>$` for pipeline
// composability, and structured mode, whose primary stream is one JSON
// record per line. In both modes, headers/hints/progress/warnings go to a
// separate side channel that grep-style consumers never have to parse.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/etr/wonk/pkg/query"
	"github.com/etr/wonk/pkg/rank"
)

// Mode selects the primary stream's record format.
type Mode int

const (
	// ModeGrep emits `file:line:  content` lines, the default.
	ModeGrep Mode = iota
	// ModeStructured emits one self-contained JSON object per line.
	ModeStructured
)

// Writer routes result rows, headers, hints, and errors to the primary and
// side streams according to the active Mode.
type Writer struct {
	Primary io.Writer
	Side    io.Writer
	Mode    Mode
	// Quiet suppresses side-channel hints/progress in grep mode. Structured
	// mode is always silent on the side channel regardless of Quiet.
	Quiet bool
}

// New builds a Writer over the given primary/side streams.
func New(primary, side io.Writer, mode Mode, quiet bool) *Writer {
	return &Writer{Primary: primary, Side: side, Mode: mode, Quiet: quiet}
}

// WriteRow emits one ranked result row: `file:line:  content` in grep mode,
// or a kind-shaped JSON record in structured mode.
func (w *Writer) WriteRow(row rank.Row, res query.Result) error {
	if w.Mode == ModeStructured {
		return w.encode(recordFor(row, res))
	}
	content := row.Content
	if row.Annotation != "" {
		content = content + " " + row.Annotation
	}
	_, err := fmt.Fprintf(w.Primary, "%s:%d:  %s\n", row.File, row.Line, content)
	return err
}

// WriteDep emits one deps/rdeps edge. These never pass through the ranker
// (there's no line to sort by), so they bypass WriteRow entirely:
// `<from> -> <to>` in grep mode, a {from,to} record in structured mode.
func (w *Writer) WriteDep(res query.Result) error {
	if w.Mode == ModeStructured {
		return w.encode(depRecord{From: res.From, To: res.To})
	}
	_, err := fmt.Fprintf(w.Primary, "%s -> %s\n", res.From, res.To)
	return err
}

// WriteHeader emits a tier-boundary marker line. Grep mode sends it to the
// side channel so `file:line:content` consumers never see it; structured
// mode suppresses headers entirely.
func (w *Writer) WriteHeader(cat rank.Category) error {
	if w.Mode == ModeStructured || w.Quiet {
		return nil
	}
	_, err := fmt.Fprintln(w.Side, cat.Header())
	return err
}

// WriteTruncation reports a token-budget cutoff: a side-channel sentence in
// grep mode, a trailing metadata record in structured mode.
func (w *Writer) WriteTruncation(truncatedCount, budgetTokens, usedTokens int) error {
	if truncatedCount <= 0 {
		return nil
	}
	if w.Mode == ModeStructured {
		return w.encode(truncationRecord{
			TruncatedCount: truncatedCount,
			BudgetTokens:   budgetTokens,
			UsedTokens:     usedTokens,
		})
	}
	if w.Quiet {
		return nil
	}
	_, err := fmt.Fprintf(w.Side, "%d more results truncated (budget: %d tokens)\n", truncatedCount, budgetTokens)
	return err
}

// WriteError reports a failure. Structured mode always emits it as a
// primary-stream record (errors can't be silently dropped by a downstream
// consumer reading only the primary stream); grep/human mode sends
// `error: <message>` to the side channel regardless of Quiet, since errors
// are never merely informational.
func (w *Writer) WriteError(err error) error {
	if w.Mode == ModeStructured {
		return w.encode(errorRecord{Error: err.Error()})
	}
	_, werr := fmt.Fprintf(w.Side, "error: %s\n", err.Error())
	return werr
}

// WriteHint emits an actionable suggestion following an error. Suppressed
// in structured mode and when Quiet is set.
func (w *Writer) WriteHint(hint string) error {
	if w.Mode == ModeStructured || w.Quiet {
		return nil
	}
	_, err := fmt.Fprintf(w.Side, "hint: %s\n", hint)
	return err
}

// WriteProgress emits a transient status line (e.g. "indexing 412 files...").
// Suppressed in structured mode and when Quiet is set.
func (w *Writer) WriteProgress(msg string) error {
	if w.Mode == ModeStructured || w.Quiet {
		return nil
	}
	_, err := fmt.Fprintln(w.Side, msg)
	return err
}

// WriteWarning emits a non-fatal side-channel warning (parse errors, oversize
// files skipped, ...). Suppressed in structured mode and when Quiet is set.
func (w *Writer) WriteWarning(msg string) error {
	if w.Mode == ModeStructured || w.Quiet {
		return nil
	}
	_, err := fmt.Fprintf(w.Side, "warning: %s\n", msg)
	return err
}

func (w *Writer) encode(v any) error {
	enc := json.NewEncoder(w.Primary)
	return enc.Encode(v)
}

type errorRecord struct {
	Error string `json:"error"`
}

type truncationRecord struct {
	TruncatedCount int `json:"truncated_count"`
	BudgetTokens   int `json:"budget_tokens"`
	UsedTokens     int `json:"used_tokens"`
}

// searchRecord covers search/reference rows.
type searchRecord struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Content string `json:"content,omitempty"`
	Context string `json:"context,omitempty"`
	Name    string `json:"name,omitempty"`
}

// symbolRecord covers symbol/definition rows.
type symbolRecord struct {
	File       string `json:"file"`
	Line       int    `json:"line"`
	Col        int    `json:"col"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Signature  string `json:"signature,omitempty"`
	Language   string `json:"language,omitempty"`
	Scope      string `json:"scope,omitempty"`
	Annotation string `json:"annotation,omitempty"`
}

// depRecord covers deps/rdeps rows.
type depRecord struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// recordFor projects a query.Result, annotated by the ranker, into the
// structured record shape for its kind.
func recordFor(row rank.Row, res query.Result) any {
	switch res.Kind {
	case "symbol":
		return symbolRecord{
			File: res.File, Line: res.Line, Col: res.Col,
			Kind: string(res.SymbolKind), Name: res.Name, Signature: res.Signature,
			Language: res.Language, Scope: res.Scope, Annotation: row.Annotation,
		}
	case "dep":
		return depRecord{From: res.From, To: res.To}
	case "reference":
		return searchRecord{File: res.File, Line: res.Line, Col: res.Col, Context: res.Content, Name: res.Name}
	default: // "search"
		return searchRecord{File: res.File, Line: res.Line, Col: res.Col, Content: res.Content}
	}
}
