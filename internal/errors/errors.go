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

// Package errors provides wonk's domain error taxonomy.
//
// Every error the query router or indexing pipeline can raise is a *WonkError
// carrying a Kind the router can pattern-match on (NoIndex triggers an
// inline auto-build, QueryFailed propagates verbatim, ...), plus a human Message, an
// optional Cause, and an optional actionable Fix rendered on the side
// channel as "hint: ...".
//
// # Usage
//
//	err := errors.New(errors.NoIndex, "no index at this repo root", "", "run: wonk init")
//	if errors.Is(err, errors.NoIndex) {
//	    // auto-build inline
//	}
//
// # Exit codes
//
// Exit codes: 0 success, 1 runtime error, 2 usage error. Only
// Kind = UsageError maps to exit code 2; every other Kind maps to 1.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes, per the command surface contract.
const (
	ExitSuccess = 0
	ExitRuntime = 1
	ExitUsage   = 2
)

// Kind identifies a domain error category the router and CLI can match on.
type Kind string

const (
	// NoIndex: the index bundle does not exist at the discovered repo root.
	NoIndex Kind = "NoIndex"
	// QueryFailed: a database error (lock timeout, schema mismatch, ...).
	QueryFailed Kind = "QueryFailed"
	// ParseError: Tree-sitter could not parse a file; captures are partial.
	ParseError Kind = "ParseError"
	// IoError: a file could not be read (permission denied, vanished, ...).
	IoError Kind = "IoError"
	// FileTooLarge: a file exceeds index.max_file_size_kb.
	FileTooLarge Kind = "FileTooLarge"
	// UnsupportedLanguage: the file extension has no registered grammar.
	UnsupportedLanguage Kind = "UnsupportedLanguage"
	// DaemonAlreadyRunning: a live PID file was found on daemon spawn.
	DaemonAlreadyRunning Kind = "DaemonAlreadyRunning"
	// StalePid: the PID file names a process that is no longer alive.
	StalePid Kind = "StalePid"
	// UsageError: bad CLI arguments.
	UsageError Kind = "UsageError"
)

// WonkError is a structured, user-facing error.
type WonkError struct {
	Kind    Kind
	Message string
	Cause   string
	Fix     string
	Err     error
}

// New creates a WonkError of the given kind.
func New(kind Kind, message, cause, fix string) *WonkError {
	return &WonkError{Kind: kind, Message: message, Cause: cause, Fix: fix}
}

// Wrap creates a WonkError of the given kind around an underlying error.
func Wrap(kind Kind, message string, err error) *WonkError {
	return &WonkError{Kind: kind, Message: message, Err: err}
}

// Error implements the error interface.
func (e *WonkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *WonkError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code for this error.
func (e *WonkError) ExitCode() int {
	if e.Kind == UsageError {
		return ExitUsage
	}
	return ExitRuntime
}

// KindOf extracts the Kind from err if it is (or wraps) a *WonkError.
func KindOf(err error) (Kind, bool) {
	var we *WonkError
	if As(err, &we) {
		return we.Kind, true
	}
	return "", false
}

// As is a narrow local copy of errors.As for the single *WonkError case, so
// this package, itself named errors, needs no import of the standard
// library's errors package.
func As(err error, target **WonkError) bool {
	for err != nil {
		if we, ok := err.(*WonkError); ok {
			*target = we
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Is reports whether err is a *WonkError of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders "error: <message>" with an optional "cause:"/"hint:" line.
func (e *WonkError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("hint: "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}
	return out.String()
}

// RecordJSON is the structured-mode error record shape, {"error": "..."}
// with room for the kind and a hint for machine consumers.
type RecordJSON struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

// ToJSON converts the error to its structured-mode record.
func (e *WonkError) ToJSON() RecordJSON {
	return RecordJSON{Error: e.Message, Kind: string(e.Kind), Hint: e.Fix}
}

// Fatal prints err (colored or JSON per jsonOutput) and exits with the
// correct code. Structured-output mode always emits errors as records in
// the primary stream, never on the side channel.
func Fatal(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	var we *WonkError
	if As(err, &we) {
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			_ = enc.Encode(we.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, we.Format(false))
		}
		os.Exit(we.ExitCode())
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(ExitRuntime)
}
