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
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/etr/wonk/internal/errors"
	"github.com/etr/wonk/internal/model"
)

// SymbolQuery selects how SymbolsByName matches Name against stored symbols.
type SymbolQuery struct {
	Name  string
	Exact bool // name = ? instead of substring
	Kind  string
}

// SymbolsByName answers `sym <name>`. Non-exact matches are true substring
// matches (spec: `sym Payment` must find `processPayment`), which FTS5's
// default tokenizer cannot express — it keeps identifier text as a single
// token and only ever matches a *prefix* of it, so `LIKE '%name%'` is the
// actual substring mechanism here, not a fallback. symbols_fts stays wired
// for PrefixMatch, the fast path used when a caller knows it only needs a
// leading-edge match and can tolerate under-matching a true substring.
func (s *Store) SymbolsByName(q SymbolQuery) ([]model.Symbol, error) {
	var rows *sql.Rows
	var err error

	switch {
	case q.Exact && q.Kind != "":
		rows, err = s.db.Query(
			`SELECT id, name, kind, file, line, col, end_line, COALESCE(scope,''), COALESCE(signature,''), language
			 FROM symbols WHERE name = ? AND kind = ? ORDER BY file, line`, q.Name, q.Kind)
	case q.Exact:
		rows, err = s.db.Query(
			`SELECT id, name, kind, file, line, col, end_line, COALESCE(scope,''), COALESCE(signature,''), language
			 FROM symbols WHERE name = ? ORDER BY file, line`, q.Name)
	case q.Kind != "":
		rows, err = s.db.Query(
			`SELECT id, name, kind, file, line, col, end_line, COALESCE(scope,''), COALESCE(signature,''), language
			 FROM symbols WHERE name LIKE ? AND kind = ? ORDER BY file, line`, "%"+q.Name+"%", q.Kind)
	default:
		rows, err = s.db.Query(
			`SELECT id, name, kind, file, line, col, end_line, COALESCE(scope,''), COALESCE(signature,''), language
			 FROM symbols WHERE name LIKE ? ORDER BY file, line`, "%"+q.Name+"%")
	}
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "query symbols", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// PrefixMatch answers a leading-edge symbol-name lookup using the
// symbols_fts virtual table, falling back to LIKE 'name%' on a MATCH error
// (FTS5 rejects some pathological queries, e.g. bare punctuation). Unlike
// SymbolsByName this never under-matches a prefix query, since FTS5's
// default tokenizer keeps identifier text as one token and `"name"*`
// matches exactly the set of names starting with it.
func (s *Store) PrefixMatch(name string) ([]model.Symbol, error) {
	rows, err := s.db.Query(
		`SELECT s.id, s.name, s.kind, s.file, s.line, s.col, s.end_line, COALESCE(s.scope,''), COALESCE(s.signature,''), s.language
		 FROM symbols s JOIN symbols_fts f ON f.rowid = s.id
		 WHERE symbols_fts MATCH ? ORDER BY s.file, s.line`, ftsPrefixQuery(name))
	if err != nil {
		rows, err = s.db.Query(
			`SELECT id, name, kind, file, line, col, end_line, COALESCE(scope,''), COALESCE(signature,''), language
			 FROM symbols WHERE name LIKE ? ORDER BY file, line`, name+"%")
		if err != nil {
			return nil, errors.Wrap(errors.QueryFailed, "query symbols by prefix", err)
		}
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// ftsPrefixQuery builds an FTS5 MATCH expression matching names starting
// with q, used by PrefixMatch.
func ftsPrefixQuery(q string) string {
	return `"` + strings.ReplaceAll(q, `"`, `""`) + `"*`
}

// ReferencesByName answers `ref <name>`, optionally restricted to a path
// prefix.
func (s *Store) ReferencesByName(name, pathPrefix string) ([]model.Reference, error) {
	var rows *sql.Rows
	var err error
	if pathPrefix != "" {
		rows, err = s.db.Query(
			`SELECT id, name, file, line, col, COALESCE(context,'') FROM "references"
			 WHERE name = ? AND file LIKE ? ORDER BY file, line`, name, pathPrefix+"%")
	} else {
		rows, err = s.db.Query(
			`SELECT id, name, file, line, col, COALESCE(context,'') FROM "references"
			 WHERE name = ? ORDER BY file, line`, name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "query references", err)
	}
	defer rows.Close()

	var out []model.Reference
	for rows.Next() {
		var r model.Reference
		if err := rows.Scan(&r.ID, &r.Name, &r.File, &r.Line, &r.Col, &r.Context); err != nil {
			return nil, errors.Wrap(errors.QueryFailed, "scan reference", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SymbolsByFilePrefix answers `ls <path>`.
func (s *Store) SymbolsByFilePrefix(prefix string) ([]model.Symbol, error) {
	rows, err := s.db.Query(
		`SELECT id, name, kind, file, line, col, end_line, COALESCE(scope,''), COALESCE(signature,''), language
		 FROM symbols WHERE file = ? OR file LIKE ? ORDER BY file, line`, prefix, prefix+"/%")
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "query symbols by file", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SymbolAt reports whether (file, line) is a symbol definition (ranker
// classification tier 1).
func (s *Store) SymbolAt(file string, line int) (model.Symbol, bool, error) {
	row := s.db.QueryRow(
		`SELECT id, name, kind, file, line, col, end_line, COALESCE(scope,''), COALESCE(signature,''), language
		 FROM symbols WHERE file = ? AND line = ? LIMIT 1`, file, line)
	var sym model.Symbol
	var kind string
	err := row.Scan(&sym.ID, &sym.Name, &kind, &sym.File, &sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.Scope, &sym.Signature, &sym.Language)
	if err == sql.ErrNoRows {
		return model.Symbol{}, false, nil
	}
	if err != nil {
		return model.Symbol{}, false, errors.Wrap(errors.QueryFailed, "lookup symbol at line", err)
	}
	sym.Kind = model.Kind(kind)
	return sym, true, nil
}

// ReferenceAt reports whether (file, line) is a reference occurrence
// (ranker classification tier 2).
func (s *Store) ReferenceAt(file string, line int) (model.Reference, bool, error) {
	row := s.db.QueryRow(
		`SELECT id, name, file, line, col, COALESCE(context,'') FROM "references"
		 WHERE file = ? AND line = ? LIMIT 1`, file, line)
	var r model.Reference
	err := row.Scan(&r.ID, &r.Name, &r.File, &r.Line, &r.Col, &r.Context)
	if err == sql.ErrNoRows {
		return model.Reference{}, false, nil
	}
	if err != nil {
		return model.Reference{}, false, errors.Wrap(errors.QueryFailed, "lookup reference at line", err)
	}
	return r, true, nil
}

// SymbolsWithName returns every symbol with this exact name, in file/line
// order. Nothing in this module calls it; pkg/rank dedups re-exports among
// the rows it is given.
func (s *Store) SymbolsWithName(name string) ([]model.Symbol, error) {
	rows, err := s.db.Query(
		`SELECT id, name, kind, file, line, col, end_line, COALESCE(scope,''), COALESCE(signature,''), language
		 FROM symbols WHERE name = ? ORDER BY file, line`, name)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "query symbols with name", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// FileImports returns the import targets recorded for path (repo-relative
// paths where resolution succeeded, the original specifier otherwise),
// used to answer `deps`.
func (s *Store) FileImports(path string) ([]string, bool, error) {
	var blob sql.NullString
	row := s.db.QueryRow(`SELECT imports_blob FROM files WHERE path = ?`, path)
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(errors.QueryFailed, "lookup file imports", err)
	}
	if !blob.Valid || blob.String == "" {
		return nil, true, nil
	}
	var imports []string
	if err := json.Unmarshal([]byte(blob.String), &imports); err != nil {
		return nil, true, errors.Wrap(errors.QueryFailed, "decode imports blob", err)
	}
	return imports, true, nil
}

// AllFileImports scans every file's imports_blob, used by `rdeps` to build
// the reverse dependency edge map.
func (s *Store) AllFileImports() (map[string][]string, error) {
	rows, err := s.db.Query(`SELECT path, imports_blob FROM files`)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "scan all file imports", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var path string
		var blob sql.NullString
		if err := rows.Scan(&path, &blob); err != nil {
			return nil, errors.Wrap(errors.QueryFailed, "scan file imports row", err)
		}
		if !blob.Valid || blob.String == "" {
			continue
		}
		var imports []string
		if err := json.Unmarshal([]byte(blob.String), &imports); err != nil {
			continue
		}
		out[path] = imports
	}
	return out, rows.Err()
}

// AllPaths returns every repo-relative path currently recorded, used to
// seed the import resolver with the full set of files an incremental
// update's changed files might import.
func (s *Store) AllPaths() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM files`)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "query all paths", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errors.Wrap(errors.QueryFailed, "scan path", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PathExists reports whether path has a row in files, used by the router to
// tell a resolved import target (a real, indexed file) from an unresolved
// raw one (a module name or unresolvable specifier) kept in imports_blob
// only for the text-scanner fallback.
func (s *Store) PathExists(path string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM files WHERE path = ? LIMIT 1`, path).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.QueryFailed, "check path exists", err)
	}
	return true, nil
}

// Languages returns the distinct set of languages recorded in files, used
// to populate the meta sidecar after a bulk build.
func (s *Store) Languages() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT language FROM files WHERE language IS NOT NULL AND language != '' ORDER BY language`)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "query languages", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return nil, err
		}
		out = append(out, lang)
	}
	return out, rows.Err()
}

func scanSymbols(rows *sql.Rows) ([]model.Symbol, error) {
	var out []model.Symbol
	for rows.Next() {
		var sym model.Symbol
		var kind string
		if err := rows.Scan(&sym.ID, &sym.Name, &kind, &sym.File, &sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.Scope, &sym.Signature, &sym.Language); err != nil {
			return nil, errors.Wrap(errors.QueryFailed, "scan symbol", err)
		}
		sym.Kind = model.Kind(kind)
		out = append(out, sym)
	}
	return out, rows.Err()
}

// SetDaemonStatus upserts the daemon_status table.
func (s *Store) SetDaemonStatus(status model.DaemonStatus) error {
	pairs := map[string]string{
		"pid":           itoa(status.PID),
		"state":         status.State,
		"uptime_start":  itoa64(status.UptimeStart),
		"last_activity": itoa64(status.LastActivity),
		"queued_files":  itoa(status.QueuedFiles),
		"last_error":    status.LastError,
	}
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.QueryFailed, "begin daemon status write", err)
	}
	defer tx.Rollback()
	now := NowUnix()
	for k, v := range pairs {
		if _, err := tx.Exec(
			`INSERT INTO daemon_status (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, now,
		); err != nil {
			return errors.Wrap(errors.QueryFailed, "upsert daemon status", err)
		}
	}
	return errors.Wrap(errors.QueryFailed, "commit daemon status write", tx.Commit())
}

// ClearDaemonStatus removes all rows, called on graceful shutdown.
func (s *Store) ClearDaemonStatus() error {
	_, err := s.db.Exec(`DELETE FROM daemon_status`)
	return errors.Wrap(errors.QueryFailed, "clear daemon status", err)
}

// GetDaemonStatus reads back the key/value table.
func (s *Store) GetDaemonStatus() (model.DaemonStatus, bool, error) {
	rows, err := s.db.Query(`SELECT key, value, updated_at FROM daemon_status`)
	if err != nil {
		return model.DaemonStatus{}, false, errors.Wrap(errors.QueryFailed, "read daemon status", err)
	}
	defer rows.Close()

	values := map[string]string{}
	var updatedAt int64
	found := false
	for rows.Next() {
		var k, v string
		var u int64
		if err := rows.Scan(&k, &v, &u); err != nil {
			return model.DaemonStatus{}, false, err
		}
		values[k] = v
		updatedAt = u
		found = true
	}
	if !found {
		return model.DaemonStatus{}, false, rows.Err()
	}

	return model.DaemonStatus{
		PID:          atoi(values["pid"]),
		State:        values["state"],
		UptimeStart:  atoi64(values["uptime_start"]),
		LastActivity: maxInt64(atoi64(values["last_activity"]), updatedAt),
		QueuedFiles:  atoi(values["queued_files"]),
		LastError:    values["last_error"],
	}, true, rows.Err()
}

func itoa(n int) string     { return strconv.FormatInt(int64(n), 10) }
func itoa64(n int64) string { return strconv.FormatInt(n, 10) }
func atoi(s string) int     { return int(atoi64(s)) }
func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
