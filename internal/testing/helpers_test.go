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

package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etr/wonk/internal/model"
)

func TestSetupTestStoreStartsEmpty(t *testing.T) {
	s := SetupTestStore(t)
	require.NotNil(t, s)

	names := QuerySymbolNames(t, s)
	assert.Empty(t, names, "should start with no symbols")
}

func TestInsertTestSymbol(t *testing.T) {
	s := SetupTestStore(t)

	InsertTestSymbol(t, s, "HandleAuth", model.KindFunction, "auth.go", 10)

	names := QuerySymbolNames(t, s)
	require.Len(t, names, 1)
	assert.Equal(t, "HandleAuth", names[0])
}

func TestInsertTestFileWithMultipleSymbols(t *testing.T) {
	s := SetupTestStore(t)

	InsertTestFile(t, s, "user.go", "go", model.ParseResult{
		Symbols: []model.Symbol{
			{Name: "UserService", Kind: model.KindStruct, File: "user.go", StartLine: 10, EndLine: 50},
			{Name: "NewUserService", Kind: model.KindFunction, File: "user.go", StartLine: 52, EndLine: 60, Scope: "UserService"},
		},
		Language:  "go",
		LineCount: 60,
	})

	names := QuerySymbolNames(t, s)
	assert.ElementsMatch(t, []string{"UserService", "NewUserService"}, names)
}

func TestInsertTestReference(t *testing.T) {
	s := SetupTestStore(t)

	InsertTestReference(t, s, "helper", "main.go", 12)

	ref, ok, err := s.ReferenceAt("main.go", 12)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "helper", ref.Name)
}

func TestMultipleInserts(t *testing.T) {
	s := SetupTestStore(t)

	InsertTestSymbol(t, s, "Main", model.KindFunction, "main.go", 5)
	InsertTestSymbol(t, s, "Helper", model.KindFunction, "util.go", 15)
	InsertTestSymbol(t, s, "Process", model.KindFunction, "processor.go", 25)

	names := QuerySymbolNames(t, s)
	assert.Len(t, names, 3)
}

func TestStoreIsolationBetweenTests(t *testing.T) {
	s1 := SetupTestStore(t)
	InsertTestSymbol(t, s1, "Test1", model.KindFunction, "file1.go", 1)

	s2 := SetupTestStore(t)
	names := QuerySymbolNames(t, s2)
	assert.Empty(t, names, "second store should be isolated from the first")

	names1 := QuerySymbolNames(t, s1)
	assert.Len(t, names1, 1)
}
