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

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etr/wonk/internal/model"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir, false)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteFileIsAtomicAndReplacesPriorRows(t *testing.T) {
	s := openTest(t)

	file := model.FileRecord{Path: "a.go", Language: "go", Hash: 1, LastIndexed: 100, LineCount: 10}
	result := model.ParseResult{
		Symbols: []model.Symbol{
			{Name: "Foo", Kind: model.KindFunction, File: "a.go", StartLine: 1, EndLine: 3, Language: "go", Signature: "func Foo()"},
		},
		References: []model.Reference{{Name: "Bar", File: "a.go", Line: 2, Context: "Bar()"}},
		Imports:    []string{"fmt"},
	}
	require.NoError(t, s.WriteFile("a.go", file, result))

	syms, err := s.SymbolsByFilePrefix("a.go")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "Foo", syms[0].Name)

	imports, found, err := s.FileImports("a.go")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"fmt"}, imports)

	// Re-indexing the file must wholesale replace the prior symbol set.
	result2 := model.ParseResult{
		Symbols: []model.Symbol{
			{Name: "Baz", Kind: model.KindFunction, File: "a.go", StartLine: 1, EndLine: 2, Language: "go"},
		},
	}
	require.NoError(t, s.WriteFile("a.go", file, result2))

	syms, err = s.SymbolsByFilePrefix("a.go")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "Baz", syms[0].Name)
}

func TestDeleteFileRemovesAllRows(t *testing.T) {
	s := openTest(t)
	file := model.FileRecord{Path: "a.go", Language: "go", Hash: 1, LastIndexed: 1}
	result := model.ParseResult{Symbols: []model.Symbol{{Name: "Foo", Kind: model.KindFunction, File: "a.go", StartLine: 1}}}
	require.NoError(t, s.WriteFile("a.go", file, result))

	require.NoError(t, s.DeleteFile("a.go"))

	syms, err := s.SymbolsByFilePrefix("a.go")
	require.NoError(t, err)
	assert.Empty(t, syms)

	_, found, err := s.FileImports("a.go")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileHashGating(t *testing.T) {
	s := openTest(t)
	_, found, err := s.FileHash("missing.go")
	require.NoError(t, err)
	assert.False(t, found)

	file := model.FileRecord{Path: "a.go", Hash: 42, LastIndexed: 1}
	require.NoError(t, s.WriteFile("a.go", file, model.ParseResult{}))

	h, found, err := s.FileHash("a.go")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(42), h)
}

func TestSymbolsByNameSubstringAndExact(t *testing.T) {
	s := openTest(t)
	result := model.ParseResult{Symbols: []model.Symbol{
		{Name: "processPayment", Kind: model.KindFunction, File: "src/pay.go", StartLine: 12, Language: "go", Signature: "func processPayment()"},
		{Name: "processOrder", Kind: model.KindFunction, File: "src/order.go", StartLine: 4, Language: "go"},
	}}
	require.NoError(t, s.WriteFile("src/pay.go", model.FileRecord{Path: "src/pay.go"}, model.ParseResult{Symbols: result.Symbols[:1]}))
	require.NoError(t, s.WriteFile("src/order.go", model.FileRecord{Path: "src/order.go"}, model.ParseResult{Symbols: result.Symbols[1:]}))

	exact, err := s.SymbolsByName(SymbolQuery{Name: "processPayment", Exact: true})
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "src/pay.go", exact[0].File)

	sub, err := s.SymbolsByName(SymbolQuery{Name: "process"})
	require.NoError(t, err)
	assert.Len(t, sub, 2)

	// "Payment" is a true substring of processPayment, not a prefix; FTS5's
	// default tokenizer only matches the prefix case, so this exercises the
	// LIKE-based substring path specifically.
	mid, err := s.SymbolsByName(SymbolQuery{Name: "Payment"})
	require.NoError(t, err)
	require.Len(t, mid, 1)
	assert.Equal(t, "processPayment", mid[0].Name)
}

func TestPrefixMatchMatchesLeadingEdgeOnly(t *testing.T) {
	s := openTest(t)
	require.NoError(t, s.WriteFile("src/pay.go", model.FileRecord{Path: "src/pay.go"}, model.ParseResult{
		Symbols: []model.Symbol{{Name: "processPayment", Kind: model.KindFunction, File: "src/pay.go", StartLine: 12, Language: "go"}},
	}))

	prefix, err := s.PrefixMatch("process")
	require.NoError(t, err)
	require.Len(t, prefix, 1)

	mid, err := s.PrefixMatch("Payment")
	require.NoError(t, err)
	assert.Empty(t, mid)
}

func TestRepoHashIsStableSixteenHex(t *testing.T) {
	h1 := RepoHash("/tmp/some/repo")
	h2 := RepoHash("/tmp/some/repo")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 16)
}

func TestBundleDirLocalVsGlobal(t *testing.T) {
	local, err := BundleDir("/repo", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/repo", ".wonk"), local)

	global, err := BundleDir("/repo", false)
	require.NoError(t, err)
	assert.Contains(t, global, filepath.Join("wonk", "index"))
}

func TestDaemonStatusRoundTrip(t *testing.T) {
	s := openTest(t)
	_, found, err := s.GetDaemonStatus()
	require.NoError(t, err)
	assert.False(t, found)

	status := model.DaemonStatus{PID: 123, State: "running", UptimeStart: 1000, QueuedFiles: 2}
	require.NoError(t, s.SetDaemonStatus(status))

	got, found, err := s.GetDaemonStatus()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 123, got.PID)
	assert.Equal(t, "running", got.State)
	assert.Equal(t, 2, got.QueuedFiles)

	require.NoError(t, s.ClearDaemonStatus())
	_, found, err = s.GetDaemonStatus()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMetaSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := Meta{RepoPath: "/repo", Created: "2026-01-01T00:00:00Z", Languages: []string{"go", "python"}}
	require.NoError(t, WriteMeta(dir, m))

	got, err := ReadMeta(dir)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}
