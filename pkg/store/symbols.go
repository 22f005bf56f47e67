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

	"github.com/etr/wonk/internal/errors"
	"github.com/etr/wonk/internal/model"
)

// WriteFile replaces all symbols, references, and the file record for
// path in a single transaction, so a reader never observes a file's old
// symbol set alongside its new references (or vice versa). It is used by
// both the bulk pipeline and the daemon's incremental updates.
func (s *Store) WriteFile(path string, file model.FileRecord, result model.ParseResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.QueryFailed, "begin file write", err)
	}
	defer tx.Rollback()

	if err := deleteFileRowsTx(tx, path); err != nil {
		return err
	}

	for _, sym := range result.Symbols {
		if _, err := tx.Exec(
			`INSERT INTO symbols (name, kind, file, line, col, end_line, scope, signature, language)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sym.Name, string(sym.Kind), path, sym.StartLine, sym.StartCol, sym.EndLine,
			nullableString(sym.Scope), sym.Signature, sym.Language,
		); err != nil {
			return errors.Wrap(errors.QueryFailed, "insert symbol", err)
		}
	}

	for _, ref := range result.References {
		if _, err := tx.Exec(
			`INSERT INTO "references" (name, file, line, col, context) VALUES (?, ?, ?, ?, ?)`,
			ref.Name, path, ref.Line, ref.Col, ref.Context,
		); err != nil {
			return errors.Wrap(errors.QueryFailed, "insert reference", err)
		}
	}

	importsBlob, err := json.Marshal(result.Imports)
	if err != nil {
		return errors.Wrap(errors.QueryFailed, "marshal imports", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO files (path, language, hash, last_indexed, line_count, symbols_count, imports_blob)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		path, file.Language, int64(file.Hash), file.LastIndexed, file.LineCount, len(result.Symbols), string(importsBlob),
	); err != nil {
		return errors.Wrap(errors.QueryFailed, "insert file record", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.QueryFailed, "commit file write", err)
	}
	return nil
}

// DeleteFile removes every row associated with path in a single
// transaction.
func (s *Store) DeleteFile(path string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.QueryFailed, "begin file delete", err)
	}
	defer tx.Rollback()

	if err := deleteFileRowsTx(tx, path); err != nil {
		return err
	}
	return errors.Wrap(errors.QueryFailed, "commit file delete", tx.Commit())
}

func deleteFileRowsTx(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(`DELETE FROM symbols WHERE file = ?`, path); err != nil {
		return errors.Wrap(errors.QueryFailed, "delete symbols", err)
	}
	if _, err := tx.Exec(`DELETE FROM "references" WHERE file = ?`, path); err != nil {
		return errors.Wrap(errors.QueryFailed, "delete references", err)
	}
	if _, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return errors.Wrap(errors.QueryFailed, "delete file record", err)
	}
	return nil
}

// FileHash returns the stored content hash for path, and whether a row
// exists at all. Callers use this to skip re-parsing files whose content
// hash hasn't changed since the last index.
func (s *Store) FileHash(path string) (hash uint64, found bool, err error) {
	var h int64
	row := s.db.QueryRow(`SELECT hash FROM files WHERE path = ?`, path)
	switch err := row.Scan(&h); err {
	case nil:
		return uint64(h), true, nil
	case sql.ErrNoRows:
		return 0, false, nil
	default:
		return 0, false, errors.Wrap(errors.QueryFailed, "lookup file hash", err)
	}
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
