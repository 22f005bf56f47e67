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

package ui

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// withEnv sets key to value for the duration of the test, restoring
// whatever was there before (including "unset") on cleanup.
func withEnv(t *testing.T, key, value string) {
	t.Helper()
	prev, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func clearColorEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"NO_COLOR", "CLICOLOR", "CLICOLOR_FORCE"} {
		prev, had := os.LookupEnv(k)
		_ = os.Unsetenv(k)
		if had {
			t.Cleanup(func() { _ = os.Setenv(k, prev) })
		}
	}
}

func TestShouldUseColorNoColorWinsOverForce(t *testing.T) {
	clearColorEnv(t)
	withEnv(t, "NO_COLOR", "1")
	withEnv(t, "CLICOLOR_FORCE", "1")

	assert.False(t, ShouldUseColor(os.Stdout.Fd()))
}

func TestShouldUseColorForceEnablesOffTerminal(t *testing.T) {
	clearColorEnv(t)
	withEnv(t, "CLICOLOR_FORCE", "1")

	// A bytes.Buffer has no fd; use an fd guaranteed not to be a TTY under
	// test (stdin redirected from /dev/null in CI, or a closed fd number).
	assert.True(t, ShouldUseColor(^uintptr(0)))
}

func TestShouldUseColorClicolorZeroDisables(t *testing.T) {
	clearColorEnv(t)
	withEnv(t, "CLICOLOR", "0")

	assert.False(t, ShouldUseColor(^uintptr(0)))
}

func TestShouldUseColorNoEnvFallsBackToTTYDetection(t *testing.T) {
	clearColorEnv(t)
	assert.False(t, ShouldUseColor(^uintptr(0)))
}

func TestInitForceOffAlwaysWins(t *testing.T) {
	clearColorEnv(t)
	withEnv(t, "CLICOLOR_FORCE", "1")

	original := color.NoColor
	defer func() { color.NoColor = original }()

	Init(os.Stderr.Fd(), true)
	assert.True(t, color.NoColor)
}

func TestLabelAndDimTextPlainWhenColorDisabled(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = original }()

	assert.Equal(t, "Project ID:", Label("Project ID:"))
	assert.Equal(t, "/path/to/data", DimText("/path/to/data"))
}

func TestColorVariablesInitialized(t *testing.T) {
	assert.NotNil(t, Red)
	assert.NotNil(t, Yellow)
	assert.NotNil(t, Green)
	assert.NotNil(t, Cyan)
	assert.NotNil(t, Bold)
	assert.NotNil(t, Dim)
}

func TestMessageFunctionsWriteToGivenWriter(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = original }()

	var buf bytes.Buffer
	Success(&buf, "indexed 42 files")
	assert.Equal(t, "✓ indexed 42 files\n", buf.String())

	buf.Reset()
	Warning(&buf, "skipped 3 files")
	assert.Equal(t, "⚠ skipped 3 files\n", buf.String())

	buf.Reset()
	Errorln(&buf, "no index found")
	assert.Equal(t, "✗ no index found\n", buf.String())

	buf.Reset()
	Header(&buf, "Wonk Index Status")
	assert.Equal(t, "Wonk Index Status\n", buf.String())
}
