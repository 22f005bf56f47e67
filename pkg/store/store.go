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

// Package store is wonk's persistence layer: a single SQLite database per
// index bundle, in WAL mode with a bounded busy-timeout and foreign keys
// enforced. Readers open read-only handles; the indexing pipeline and
// daemon own the sole writer connection.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/etr/wonk/internal/errors"
)

// dbFileName, metaFileName and pidFileName name the files inside one repo's
// index bundle directory.
const dbFileName = "index.db"
const metaFileName = "meta.json"
const pidFileName = "daemon.pid"

// Store wraps the SQLite handle for one index bundle.
type Store struct {
	db       *sql.DB
	dir      string
	readOnly bool
}

// Meta is the JSON sidecar alongside index.db.
type Meta struct {
	RepoPath  string   `json:"repo_path"`
	Created   string   `json:"created"`
	Languages []string `json:"languages"`
}

// BundleDir returns the on-disk directory for repoRoot's index bundle. In
// local mode that is <repoRoot>/.wonk; otherwise it is
// <dataHome>/wonk/index/<16-hex-hash-of-repoRoot>.
func BundleDir(repoRoot string, local bool) (string, error) {
	if local {
		return filepath.Join(repoRoot, ".wonk"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve data home: %w", err)
	}
	dataHome := filepath.Join(home, ".local", "share")
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		dataHome = xdg
	}
	return filepath.Join(dataHome, "wonk", "index", RepoHash(repoRoot)), nil
}

// RepoHash is the first 16 hex characters of the SHA-256 of repoRoot's
// canonical absolute path, used as the global index bundle's directory
// name.
func RepoHash(repoRoot string) string {
	abs, err := filepath.Abs(repoRoot)
	if err != nil {
		abs = repoRoot
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:])[:16]
}

// Exists reports whether an index bundle already exists at dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, dbFileName))
	return err == nil
}

// Open opens (creating if necessary) the index bundle at dir. If readOnly
// is true the connection is opened in read-only mode and schema creation is
// skipped (the caller must have already built the bundle).
func Open(dir string, readOnly bool) (*Store, error) {
	if !readOnly {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bundle dir: %w", err)
		}
	}

	dbPath := filepath.Join(dir, dbFileName)
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", dbPath)
	if readOnly {
		dsn += "&mode=ro"
	} else {
		dsn += "&_journal=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "open index database", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dir: dir, readOnly: readOnly}
	if !readOnly {
		if err := s.ensureSchema(); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// DB exposes the underlying handle for callers that need raw access
// (migrations, ad-hoc diagnostics).
func (s *Store) DB() *sql.DB { return s.db }

// Dir returns the bundle directory this Store was opened against.
func (s *Store) Dir() string { return s.dir }

// Close releases the SQLite handle.
func (s *Store) Close() error { return s.db.Close() }

// WriteMeta writes the meta.json sidecar. Called only at the end of a bulk
// build; readers may observe a previous version during a rebuild, which is
// an accepted race.
func WriteMeta(dir string, m Meta) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, metaFileName), data, 0o644)
}

// ReadMeta reads the meta.json sidecar.
func ReadMeta(dir string) (Meta, error) {
	var m Meta
	data, err := os.ReadFile(filepath.Join(dir, metaFileName))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(data, &m)
	return m, err
}

// PidFilePath returns the path of the daemon's PID file for this bundle.
func PidFilePath(dir string) string { return filepath.Join(dir, pidFileName) }

// NowUnix is a small seam so callers needn't import "time" everywhere.
func NowUnix() int64 { return time.Now().Unix() }
