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

import "github.com/etr/wonk/internal/errors"

// schemaDDL creates the full schema. Statements run inside one
// transaction so a half-created schema is never observed.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS symbols (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		name      TEXT NOT NULL,
		kind      TEXT NOT NULL,
		file      TEXT NOT NULL,
		line      INTEGER NOT NULL,
		col       INTEGER NOT NULL,
		end_line  INTEGER NOT NULL,
		scope     TEXT,
		signature TEXT,
		language  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind)`,

	`CREATE TABLE IF NOT EXISTS "references" (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		name    TEXT NOT NULL,
		file    TEXT NOT NULL,
		line    INTEGER NOT NULL,
		col     INTEGER NOT NULL,
		context TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_references_name ON "references"(name)`,
	`CREATE INDEX IF NOT EXISTS idx_references_file ON "references"(file)`,

	`CREATE TABLE IF NOT EXISTS files (
		path          TEXT PRIMARY KEY,
		language      TEXT,
		hash          INTEGER NOT NULL,
		last_indexed  INTEGER NOT NULL,
		line_count    INTEGER NOT NULL,
		symbols_count INTEGER NOT NULL,
		imports_blob  TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS daemon_status (
		key        TEXT PRIMARY KEY,
		value      TEXT,
		updated_at INTEGER NOT NULL
	)`,

	// symbols_fts is an external-content FTS5 index over symbol names,
	// kept in sync with `symbols` via triggers. Deletes use the FTS5
	// "delete" command row rather than a raw DELETE against the shadow
	// tables, per FTS5's external-content convention.
	`CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
		name, content='symbols', content_rowid='id'
	)`,
	`CREATE TRIGGER IF NOT EXISTS symbols_ai AFTER INSERT ON symbols BEGIN
		INSERT INTO symbols_fts(rowid, name) VALUES (new.id, new.name);
	END`,
	`CREATE TRIGGER IF NOT EXISTS symbols_ad AFTER DELETE ON symbols BEGIN
		INSERT INTO symbols_fts(symbols_fts, rowid, name) VALUES ('delete', old.id, old.name);
	END`,
	`CREATE TRIGGER IF NOT EXISTS symbols_au AFTER UPDATE ON symbols BEGIN
		INSERT INTO symbols_fts(symbols_fts, rowid, name) VALUES ('delete', old.id, old.name);
		INSERT INTO symbols_fts(rowid, name) VALUES (new.id, new.name);
	END`,
}

// ensureSchema creates the schema if it does not already exist, and sets
// the connection-wide pragmas this store depends on (WAL, busy-timeout,
// foreign keys). WAL and busy_timeout are set per-connection per SQLite's
// semantics; both are re-applied on every Open.
func (s *Store) ensureSchema() error {
	pragmas := []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA busy_timeout=5000`,
		`PRAGMA foreign_keys=ON`,
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return errors.Wrap(errors.QueryFailed, "apply pragma "+p, err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.QueryFailed, "begin schema transaction", err)
	}
	for _, stmt := range schemaDDL {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return errors.Wrap(errors.QueryFailed, "apply schema", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.QueryFailed, "commit schema transaction", err)
	}
	return nil
}

// DropSchema drops all tables, used by bootstrap.Build's from-scratch rebuild.
// The FTS virtual table and its triggers are dropped along with `symbols`
// since the triggers are table-scoped.
func (s *Store) DropSchema() error {
	stmts := []string{
		`DROP TRIGGER IF EXISTS symbols_ai`,
		`DROP TRIGGER IF EXISTS symbols_ad`,
		`DROP TRIGGER IF EXISTS symbols_au`,
		`DROP TABLE IF EXISTS symbols_fts`,
		`DROP TABLE IF EXISTS symbols`,
		`DROP TABLE IF EXISTS "references"`,
		`DROP TABLE IF EXISTS files`,
		`DROP TABLE IF EXISTS daemon_status`,
	}
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.QueryFailed, "begin drop-schema transaction", err)
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return errors.Wrap(errors.QueryFailed, "drop schema", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.QueryFailed, "commit drop-schema transaction", err)
	}
	return s.ensureSchema()
}
