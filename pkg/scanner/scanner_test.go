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
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanLiteralMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/pay.go", "package pay\n\nfunc processPayment() {}\n")
	writeFile(t, root, "src/other.go", "package other\n")

	var matches []Match
	err := Scan(root, Options{Pattern: "processPayment"}, func(m Match) error {
		matches = append(matches, m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "src/pay.go", matches[0].File)
	require.Equal(t, 3, matches[0].Line)
}

func TestScanCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "func ProcessPayment() {}\n")

	var matches []Match
	err := Scan(root, Options{Pattern: "processpayment", CaseInsensitive: true}, func(m Match) error {
		matches = append(matches, m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestScanRegexMode(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "func handleA() {}\nfunc handleB() {}\nfunc other() {}\n")

	var matches []Match
	err := Scan(root, Options{Pattern: `handle[AB]`, Regex: true}, func(m Match) error {
		matches = append(matches, m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestScanRestrictPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.go", "needle\n")
	writeFile(t, root, "other/b.go", "needle\n")

	var matches []Match
	err := Scan(root, Options{Pattern: "needle", Paths: []string{"src"}}, func(m Match) error {
		matches = append(matches, m)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "src/a.go", matches[0].File)
}

func TestDefinitionPatternMatchesCommonForms(t *testing.T) {
	re, err := regexp.Compile(DefinitionPattern("processPayment"))
	require.NoError(t, err)
	require.True(t, re.MatchString("fn processPayment(amount: u64) {"))
	require.True(t, re.MatchString("def processPayment(amount):"))
	require.True(t, re.MatchString("class processPayment:"))
	require.False(t, re.MatchString("processPaymentFailed()"))
}

func TestIsCommentLine(t *testing.T) {
	require.True(t, IsCommentLine("  // a comment"))
	require.True(t, IsCommentLine("# a comment"))
	require.False(t, IsCommentLine("x := 1 // not leading"))
}

func TestIsTestPath(t *testing.T) {
	require.True(t, IsTestPath("pkg/store/store_test.go"))
	require.True(t, IsTestPath("tests/fixtures/sample.py"))
	require.False(t, IsTestPath("pkg/store/store.go"))
}
