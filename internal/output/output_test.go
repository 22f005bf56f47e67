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

package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etr/wonk/internal/model"
	"github.com/etr/wonk/pkg/query"
	"github.com/etr/wonk/pkg/rank"
)

func TestWriteRowGrepModeMatchesLineContract(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeGrep, false)

	row := rank.Row{Item: rank.Item{File: "src/pay.rs", Line: 12, Content: "fn processPayment(...)"}}
	res := query.Result{Kind: "symbol", File: "src/pay.rs", Line: 12}

	require.NoError(t, w.WriteRow(row, res))
	assert.Equal(t, "src/pay.rs:12:  fn processPayment(...)\n", primary.String())
	assert.Empty(t, side.String())
}

func TestWriteRowGrepModeIncludesAnnotation(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeGrep, false)

	row := rank.Row{
		Item:       rank.Item{File: "a.go", Line: 5, Content: "func Foo()"},
		Annotation: "(+2 other locations)",
	}
	require.NoError(t, w.WriteRow(row, query.Result{Kind: "symbol"}))
	assert.Equal(t, "a.go:5:  func Foo() (+2 other locations)\n", primary.String())
}

func TestWriteRowStructuredModeSymbol(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeStructured, false)

	row := rank.Row{Item: rank.Item{File: "a.go", Line: 5, Col: 1, Name: "Foo"}}
	res := query.Result{
		Kind: "symbol", File: "a.go", Line: 5, Col: 1,
		Name: "Foo", SymbolKind: model.KindFunction, Signature: "func Foo()", Language: "go",
	}
	require.NoError(t, w.WriteRow(row, res))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(primary.Bytes(), &decoded))
	assert.Equal(t, "a.go", decoded["file"])
	assert.Equal(t, "function", decoded["kind"])
	assert.Equal(t, "Foo", decoded["name"])
	assert.Empty(t, side.String())
}

func TestWriteRowStructuredModeSearch(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeStructured, false)

	row := rank.Row{Item: rank.Item{File: "a.go", Line: 3, Content: "foo()"}}
	res := query.Result{Kind: "search", File: "a.go", Line: 3, Content: "foo()"}
	require.NoError(t, w.WriteRow(row, res))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(primary.Bytes(), &decoded))
	assert.Equal(t, "foo()", decoded["content"])
}

func TestWriteHeaderSuppressedInStructuredMode(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeStructured, false)
	require.NoError(t, w.WriteHeader(rank.CategoryDefinition))
	assert.Empty(t, side.String())
}

func TestWriteHeaderGrepModeGoesToSideChannel(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeGrep, false)
	require.NoError(t, w.WriteHeader(rank.CategoryDefinition))
	assert.Equal(t, "-- definitions --\n", side.String())
	assert.Empty(t, primary.String())
}

func TestWriteHeaderSuppressedWhenQuiet(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeGrep, true)
	require.NoError(t, w.WriteHeader(rank.CategoryDefinition))
	assert.Empty(t, side.String())
}

func TestWriteTruncationGrepMode(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeGrep, false)
	require.NoError(t, w.WriteTruncation(480, 100, 98))
	assert.Equal(t, "480 more results truncated (budget: 100 tokens)\n", side.String())
}

func TestWriteTruncationStructuredMode(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeStructured, false)
	require.NoError(t, w.WriteTruncation(480, 100, 98))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(primary.Bytes(), &decoded))
	assert.Equal(t, float64(480), decoded["truncated_count"])
	assert.Equal(t, float64(100), decoded["budget_tokens"])
}

func TestWriteTruncationNoOpWhenNothingTruncated(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeGrep, false)
	require.NoError(t, w.WriteTruncation(0, 100, 10))
	assert.Empty(t, side.String())
}

func TestWriteErrorStructuredModeGoesToPrimary(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeStructured, false)
	require.NoError(t, w.WriteError(errors.New("no index at this repo root")))

	assert.Empty(t, side.String())
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(primary.Bytes(), &decoded))
	assert.Equal(t, "no index at this repo root", decoded["error"])
}

func TestWriteErrorGrepModeGoesToSideChannelEvenWhenQuiet(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeGrep, true)
	require.NoError(t, w.WriteError(errors.New("boom")))
	assert.Equal(t, "error: boom\n", side.String())
	assert.Empty(t, primary.String())
}

func TestWriteHintSuppressedWhenQuietOrStructured(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeGrep, true)
	require.NoError(t, w.WriteHint("run init to build the index"))
	assert.Empty(t, side.String())

	side.Reset()
	w2 := New(&primary, &side, ModeStructured, false)
	require.NoError(t, w2.WriteHint("run init to build the index"))
	assert.Empty(t, side.String())
}

func TestWriteHintGrepMode(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeGrep, false)
	require.NoError(t, w.WriteHint("run init to build the index"))
	assert.Equal(t, "hint: run init to build the index\n", side.String())
}

func TestWriteDepGrepMode(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeGrep, false)
	require.NoError(t, w.WriteDep(query.Result{Kind: "dep", From: "a.go", To: "b.go"}))
	assert.Equal(t, "a.go -> b.go\n", primary.String())
}

func TestWriteDepStructuredMode(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeStructured, false)
	require.NoError(t, w.WriteDep(query.Result{Kind: "dep", From: "a.go", To: "b.go"}))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(primary.Bytes(), &decoded))
	assert.Equal(t, "a.go", decoded["from"])
	assert.Equal(t, "b.go", decoded["to"])
}

func TestMultipleStructuredRecordsAreNewlineDelimited(t *testing.T) {
	var primary, side bytes.Buffer
	w := New(&primary, &side, ModeStructured, false)
	require.NoError(t, w.WriteDep(query.Result{Kind: "dep", From: "a.go", To: "b.go"}))
	require.NoError(t, w.WriteDep(query.Result{Kind: "dep", From: "a.go", To: "c.go"}))

	lines := strings.Split(strings.TrimRight(primary.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
}
