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

// Package rank is the smart ranker: it classifies raw result lines into a
// fixed set of categories, orders them into tiers, collapses repeated
// definitions and re-exports into a single annotated row, and optionally
// truncates the stream to a token budget.
package rank

import (
	"math"
	"sort"

	"github.com/etr/wonk/pkg/scanner"
	"github.com/etr/wonk/pkg/store"
)

// Category is one of the six buckets a result line can fall into.
type Category int

const (
	CategoryDefinition Category = iota
	CategoryCallSite
	CategoryImport
	CategoryOther
	CategoryComment
	CategoryTest
)

// tierOrder is the fixed display order: Definition, CallSite, Import, Other,
// Comment, Test. It intentionally differs from the classification check
// order below, which puts Comment and Test ahead of Other.
var tierOrder = []Category{CategoryDefinition, CategoryCallSite, CategoryImport, CategoryOther, CategoryComment, CategoryTest}

// Header is the side-channel marker line emitted between tiers.
func (c Category) Header() string {
	switch c {
	case CategoryDefinition:
		return "-- definitions --"
	case CategoryCallSite:
		return "-- usages --"
	case CategoryImport:
		return "-- imports --"
	case CategoryComment:
		return "-- comments --"
	case CategoryTest:
		return "-- tests --"
	default:
		return "-- other --"
	}
}

// Item is one raw result line to classify and rank. Name, when known (a
// symbol or reference name rather than free-text search), drives
// definition/re-export deduplication; leave it empty for plain text search
// hits, which are never deduplicated.
type Item struct {
	File    string
	Line    int
	Col     int
	Content string
	Name    string
}

// Row is a classified, possibly annotated, result line.
type Row struct {
	Item
	Category   Category
	Annotation string // e.g. "(+3 other locations)"
}

// Classifier assigns a Category to each Item. Store may be nil, in which
// case every item falls through to the text-only heuristics.
type Classifier struct {
	Store *store.Store
}

// Classify checks, in order, definition match, reference match, import
// heuristic, comment heuristic, test-path heuristic, else Other.
func (c *Classifier) Classify(it Item) (Category, error) {
	if c.Store != nil {
		if sym, ok, err := c.Store.SymbolAt(it.File, it.Line); err != nil {
			return 0, err
		} else if ok {
			_ = sym
			return CategoryDefinition, nil
		}
		if ref, ok, err := c.Store.ReferenceAt(it.File, it.Line); err != nil {
			return 0, err
		} else if ok {
			_ = ref
			return CategoryCallSite, nil
		}
	}
	if scanner.IsImportLine(it.Content) {
		return CategoryImport, nil
	}
	if scanner.IsCommentLine(it.Content) {
		return CategoryComment, nil
	}
	if scanner.IsTestPath(it.File) {
		return CategoryTest, nil
	}
	return CategoryOther, nil
}

// Result is the ranker's full output: the ordered, deduplicated rows plus
// token-budget bookkeeping.
type Result struct {
	Rows           []Row
	TruncatedCount int
	BudgetTokens   int
	UsedTokens     int
}

// Rank classifies every item, orders them into the fixed tier sequence
// (sorted by file then line within a tier), collapses repeated definitions
// and import re-exports of the same name, and, when budgetTokens > 0,
// truncates the stream once the cumulative approximate token count
// (ceil(bytes/4) per row) exceeds it.
func Rank(items []Item, classifier *Classifier, budgetTokens int) (Result, error) {
	byTier := make(map[Category][]Row, len(tierOrder))
	for _, it := range items {
		cat, err := classifier.Classify(it)
		if err != nil {
			return Result{}, err
		}
		byTier[cat] = append(byTier[cat], Row{Item: it, Category: cat})
	}
	for _, cat := range tierOrder {
		sortRows(byTier[cat])
	}

	var definitionNames map[string]bool
	byTier[CategoryDefinition], definitionNames = dedupDefinitions(byTier[CategoryDefinition])
	byTier[CategoryImport] = dedupReexports(byTier[CategoryImport], definitionNames)

	var ordered []Row
	for _, cat := range tierOrder {
		ordered = append(ordered, byTier[cat]...)
	}

	if budgetTokens <= 0 {
		return Result{Rows: ordered}, nil
	}
	return applyBudget(ordered, budgetTokens), nil
}

func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].File != rows[j].File {
			return rows[i].File < rows[j].File
		}
		return rows[i].Line < rows[j].Line
	})
}

// dedupDefinitions collapses same-name definitions across files into the
// first (canonical, since rows are already file/line sorted) occurrence,
// annotated with a count of the collapsed rows. Returns the set of names
// that had a surviving definition, so dedupReexports can skip them.
func dedupDefinitions(rows []Row) ([]Row, map[string]bool) {
	named := make(map[string]bool)
	if len(rows) == 0 {
		return rows, named
	}
	firstIdx := make(map[string]int)
	counts := make(map[string]int)
	keep := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Name == "" {
			keep = append(keep, r)
			continue
		}
		named[r.Name] = true
		if _, seen := firstIdx[r.Name]; seen {
			counts[r.Name]++
			continue
		}
		firstIdx[r.Name] = len(keep)
		keep = append(keep, r)
	}
	for name, n := range counts {
		keep[firstIdx[name]].Annotation = otherLocations(n)
	}
	return keep, named
}

// dedupReexports applies the same first-occurrence collapse within the
// Import tier, but only for names with no surviving Definition row.
func dedupReexports(rows []Row, definitionNames map[string]bool) []Row {
	firstIdx := make(map[string]int)
	counts := make(map[string]int)
	keep := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Name == "" || definitionNames[r.Name] {
			keep = append(keep, r)
			continue
		}
		if _, seen := firstIdx[r.Name]; seen {
			counts[r.Name]++
			continue
		}
		firstIdx[r.Name] = len(keep)
		keep = append(keep, r)
	}
	for name, n := range counts {
		keep[firstIdx[name]].Annotation = otherLocations(n)
	}
	return keep
}

func otherLocations(n int) string {
	if n <= 0 {
		return ""
	}
	if n == 1 {
		return "(+1 other location)"
	}
	return "(+" + itoa(n) + " other locations)"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// applyBudget emits rows in order until the cumulative approximate token
// count would exceed budgetTokens, then stops and records what was dropped.
func applyBudget(rows []Row, budgetTokens int) Result {
	var used int
	for i, r := range rows {
		cost := tokenCost(r)
		if used+cost > budgetTokens {
			return Result{
				Rows:           rows[:i],
				TruncatedCount: len(rows) - i,
				BudgetTokens:   budgetTokens,
				UsedTokens:     used,
			}
		}
		used += cost
	}
	return Result{Rows: rows, BudgetTokens: budgetTokens, UsedTokens: used}
}

// tokenCost approximates a row's token footprint as ceil(bytes/4) over its
// content plus annotation text.
func tokenCost(r Row) int {
	bytes := len(r.Content) + len(r.Annotation)
	return int(math.Ceil(float64(bytes) / 4))
}
