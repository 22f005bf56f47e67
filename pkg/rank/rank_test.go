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

package rank

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyFallsThroughToTextHeuristics(t *testing.T) {
	c := &Classifier{}

	cat, err := c.Classify(Item{File: "a.go", Line: 1, Content: `import "fmt"`})
	require.NoError(t, err)
	require.Equal(t, CategoryImport, cat)

	cat, err = c.Classify(Item{File: "a.go", Line: 1, Content: "// a comment"})
	require.NoError(t, err)
	require.Equal(t, CategoryComment, cat)

	cat, err = c.Classify(Item{File: "pkg/foo_test.go", Line: 1, Content: "require.True(t, ok)"})
	require.NoError(t, err)
	require.Equal(t, CategoryTest, cat)

	cat, err = c.Classify(Item{File: "a.go", Line: 1, Content: "x := 1"})
	require.NoError(t, err)
	require.Equal(t, CategoryOther, cat)
}

func TestRankOrdersByFixedTierSequence(t *testing.T) {
	items := []Item{
		{File: "z.go", Line: 1, Content: "x := 1"},            // Other
		{File: "a.go", Line: 1, Content: `import "fmt"`},       // Import
		{File: "a_test.go", Line: 1, Content: "some test code"}, // Test
		{File: "a.go", Line: 2, Content: "// comment"},         // Comment
	}
	result, err := Rank(items, &Classifier{}, 0)
	require.NoError(t, err)
	require.Len(t, result.Rows, 4)

	var cats []Category
	for _, r := range result.Rows {
		cats = append(cats, r.Category)
	}
	require.Equal(t, []Category{CategoryImport, CategoryOther, CategoryComment, CategoryTest}, cats)
}

func TestRankDeduplicatesRepeatedNames(t *testing.T) {
	items := []Item{
		{File: "a.go", Line: 1, Content: "x := 1", Name: ""},
	}
	// Definitions aren't reachable without a store; exercise the pure
	// dedup helper directly instead.
	rows := []Row{
		{Item: Item{File: "a.go", Line: 1, Name: "Foo"}, Category: CategoryDefinition},
		{Item: Item{File: "b.go", Line: 5, Name: "Foo"}, Category: CategoryDefinition},
		{Item: Item{File: "c.go", Line: 9, Name: "Bar"}, Category: CategoryDefinition},
	}
	kept, named := dedupDefinitions(rows)
	require.Len(t, kept, 2)
	require.True(t, named["Foo"])
	require.Equal(t, "(+1 other location)", kept[0].Annotation)
	require.Empty(t, kept[1].Annotation)
	_ = items
}

func TestRankAppliesTokenBudget(t *testing.T) {
	var items []Item
	for i := 0; i < 5; i++ {
		items = append(items, Item{File: "a.go", Line: i + 1, Content: "0123456789012345"}) // 16 bytes -> 4 tokens
	}
	result, err := Rank(items, &Classifier{}, 10)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	require.Equal(t, 3, result.TruncatedCount)
	require.Equal(t, 10, result.BudgetTokens)
	require.Equal(t, 8, result.UsedTokens)
}
