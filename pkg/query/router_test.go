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

package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/etr/wonk/internal/model"
	"github.com/etr/wonk/internal/walker"
	"github.com/etr/wonk/pkg/scanner"
	"github.com/etr/wonk/pkg/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir(), false)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeRepoFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestSymUsesIndexPrimaryWhenPresent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.WriteFile("pay.go", model.FileRecord{Path: "pay.go", Language: "go"}, model.ParseResult{
		Symbols: []model.Symbol{{Name: "ProcessPayment", Kind: model.KindFunction, File: "pay.go", StartLine: 5, Language: "go", Signature: "func ProcessPayment()"}},
	}))

	root := t.TempDir()
	r := New(s, root, walker.Options{})

	results, fellBack, err := r.Sym(store.SymbolQuery{Name: "ProcessPayment", Exact: true})
	require.NoError(t, err)
	require.False(t, fellBack)
	require.Len(t, results, 1)
	require.Equal(t, "pay.go", results[0].File)
	require.Equal(t, 5, results[0].Line)
}

func TestSymFallsBackToScannerWhenIndexEmpty(t *testing.T) {
	s := openTestStore(t)
	root := t.TempDir()
	writeRepoFile(t, root, "pay.go", "func ProcessPayment() {}\n")

	r := New(s, root, walker.Options{})
	results, fellBack, err := r.Sym(store.SymbolQuery{Name: "ProcessPayment", Exact: true})
	require.NoError(t, err)
	require.True(t, fellBack)
	require.Len(t, results, 1)
	require.Equal(t, "pay.go", results[0].File)
}

func TestDepsExcludesUnresolvedImports(t *testing.T) {
	s := openTestStore(t)
	// b.go is a real indexed file, so its entry survives the PathExists
	// check; "some/missing/pkg" never resolved to anything indexed (the
	// raw specifier is still the value stored in imports_blob for the
	// scanner fallback), so Deps must exclude it from the structural
	// result rather than treat the raw string as a file path.
	require.NoError(t, s.WriteFile("b.go", model.FileRecord{Path: "b.go", Language: "go"}, model.ParseResult{}))
	require.NoError(t, s.WriteFile("a.go", model.FileRecord{Path: "a.go", Language: "go"}, model.ParseResult{
		Imports: []string{"b.go", "some/missing/pkg"},
	}))

	root := t.TempDir()
	r := New(s, root, walker.Options{})
	results, fellBack, err := r.Deps("a.go")
	require.NoError(t, err)
	require.False(t, fellBack)
	require.Len(t, results, 1)
	require.Equal(t, "a.go", results[0].From)
	require.Equal(t, "b.go", results[0].To)
}

func TestRdepsReverseScansImportMap(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.WriteFile("a.go", model.FileRecord{Path: "a.go", Language: "go"}, model.ParseResult{Imports: []string{"b.go"}}))
	require.NoError(t, s.WriteFile("c.go", model.FileRecord{Path: "c.go", Language: "go"}, model.ParseResult{Imports: []string{"other.go"}}))

	root := t.TempDir()
	r := New(s, root, walker.Options{})
	results, fellBack, err := r.Rdeps("b.go")
	require.NoError(t, err)
	require.False(t, fellBack)
	require.Len(t, results, 1)
	require.Equal(t, "a.go", results[0].From)
}

func TestSearchHasNoStructuralFallback(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "a.go", "needle here\n")

	r := New(nil, root, walker.Options{})
	results, err := r.Search(scanner.Options{Pattern: "needle"})
	require.NoError(t, err)
	require.Len(t, results, 1)
}
