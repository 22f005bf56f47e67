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

// Package ui provides wonk's color-output gating. The primary stream is
// grep-composable text or JSON; color only ever decorates the side
// channel's headers, hints, and warnings, never the primary stream's
// file:line:content lines.
package ui

import (
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Colors used by the side channel. Disabled globally by Init.
var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// ShouldUseColor resolves wonk's color precedence: NO_COLOR (any value)
// always disables color and is checked first, overriding both CLICOLOR and
// CLICOLOR_FORCE; CLICOLOR_FORCE enables color even off a terminal;
// CLICOLOR=0 disables; absent all three, color follows TTY detection on
// the given file descriptor.
func ShouldUseColor(fd uintptr) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" && os.Getenv("CLICOLOR_FORCE") != "0" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	return term.IsTerminal(int(fd))
}

// Init configures global color output for the side channel, resolving the
// environment precedence against sideFd (normally os.Stderr.Fd()) unless
// forceOff is set (the --no-color flag always wins outright).
func Init(sideFd uintptr, forceOff bool) {
	color.NoColor = forceOff || !ShouldUseColor(sideFd)
}

// Success prints a green success message with a checkmark prefix to the
// side channel.
func Success(w io.Writer, msg string) {
	fprint(w, Green, "✓ "+msg)
}

// Warning prints a yellow warning message with a warning symbol prefix.
func Warning(w io.Writer, msg string) {
	fprint(w, Yellow, "⚠ "+msg)
}

// Errorln prints a red error message with an X prefix.
func Errorln(w io.Writer, msg string) {
	fprint(w, Red, "✗ "+msg)
}

// Header prints a bold header line.
func Header(w io.Writer, text string) {
	fprint(w, Bold, text)
}

// Label returns a bold-formatted label string for inline use.
func Label(text string) string { return Bold.Sprint(text) }

// DimText returns a dim-formatted string for less important text (paths,
// secondary counts).
func DimText(text string) string { return Dim.Sprint(text) }

func fprint(w io.Writer, c *color.Color, line string) {
	_, _ = w.Write([]byte(c.Sprint(line) + "\n"))
}
