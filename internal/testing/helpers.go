// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package testing provides shared helpers for seeding and asserting against
// a wonk index store in tests, so individual package tests don't each
// reimplement "open a temp SQLite bundle and insert a symbol".
package testing

import (
	"testing"

	"github.com/etr/wonk/internal/model"
	"github.com/etr/wonk/pkg/store"
)

// SetupTestStore creates a fresh, temp-dir-backed index bundle for testing.
// The store is closed automatically when the test finishes.
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    s := testing.SetupTestStore(t)
//	    testing.InsertTestSymbol(t, s, "processPayment", model.KindFunction, "src/pay.go", 12)
//	    // Run your tests...
//	}
func SetupTestStore(t *testing.T) *store.Store {
	t.Helper()

	dir := t.TempDir()
	s, err := store.Open(dir, false)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// InsertTestSymbol writes a single symbol into file at line, as part of a
// one-symbol file record. Use InsertTestFile directly when a test needs
// more than one symbol per file.
func InsertTestSymbol(t *testing.T, s *store.Store, name string, kind model.Kind, file string, line int) {
	t.Helper()

	sym := model.Symbol{
		Name:      name,
		Kind:      kind,
		File:      file,
		StartLine: line,
		StartCol:  1,
		EndLine:   line,
		Signature: name + "(...)",
		Language:  "go",
	}
	InsertTestFile(t, s, file, "go", model.ParseResult{
		Symbols:   []model.Symbol{sym},
		Language:  "go",
		LineCount: line,
	})
}

// InsertTestReference writes a single reference into file at line, as
// part of a reference-only file record.
func InsertTestReference(t *testing.T, s *store.Store, name, file string, line int) {
	t.Helper()

	ref := model.Reference{
		Name:    name,
		File:    file,
		Line:    line,
		Col:     1,
		Context: name,
	}
	InsertTestFile(t, s, file, "go", model.ParseResult{
		References: []model.Reference{ref},
		Language:   "go",
		LineCount:  line,
	})
}

// InsertTestFile writes a complete parse result for path in one
// transaction, the same call the indexing pipeline makes per file.
func InsertTestFile(t *testing.T, s *store.Store, path, language string, result model.ParseResult) {
	t.Helper()

	record := model.FileRecord{
		Path:         path,
		Language:     language,
		Hash:         0,
		LastIndexed:  store.NowUnix(),
		LineCount:    result.LineCount,
		SymbolsCount: len(result.Symbols),
		Imports:      result.Imports,
	}
	if err := s.WriteFile(path, record, result); err != nil {
		t.Fatalf("failed to insert test file %q: %v", path, err)
	}
}

// QuerySymbolNames returns the names of every symbol currently stored, for
// quick membership assertions without threading a full SymbolQuery through
// every test.
func QuerySymbolNames(t *testing.T, s *store.Store) []string {
	t.Helper()

	rows, err := s.DB().Query(`SELECT name FROM symbols ORDER BY file, line`)
	if err != nil {
		t.Fatalf("failed to query symbols: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan symbol name: %v", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("failed reading symbol rows: %v", err)
	}
	return names
}
