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

// Package bootstrap owns an index bundle's lifecycle: building it from
// scratch, opening it for queries, listing known repos, and tearing one
// down. It is the bridge between the CLI/daemon entry points and the
// store/index/config/walker/lang packages.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/etr/wonk/internal/config"
	"github.com/etr/wonk/internal/errors"
	"github.com/etr/wonk/internal/walker"
	"github.com/etr/wonk/pkg/index"
	"github.com/etr/wonk/pkg/lang"
	"github.com/etr/wonk/pkg/store"
)

// RepoConfig selects which repo and bundle location an operation targets.
type RepoConfig struct {
	RepoRoot string
	Local    bool // true: <repoRoot>/.wonk ; false: global index store
}

// RepoInfo describes one known index bundle.
type RepoInfo struct {
	RepoRoot  string
	BundleDir string
	Created   string
	Languages []string
}

// Build performs a full, from-scratch index build for repoRoot: it drops
// any existing schema, re-walks the tree, re-parses every eligible file,
// and writes a fresh meta.json sidecar. Used by `wonk init` and by the
// auto-build a query command runs when no index exists.
func Build(ctx context.Context, cfg RepoConfig, workers int, logger *slog.Logger) (*RepoInfo, *index.Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repoRoot, err := filepath.Abs(cfg.RepoRoot)
	if err != nil {
		return nil, nil, errors.Wrap(errors.IoError, "resolve repo root", err)
	}

	userCfg, err := config.Load(repoRoot)
	if err != nil {
		return nil, nil, err
	}
	if len(userCfg.Index.AdditionalExtensions) > 0 {
		lang.RegisterExtensions(parseExtensionPairs(userCfg.Index.AdditionalExtensions))
	}

	bundleDir, err := store.BundleDir(repoRoot, cfg.Local)
	if err != nil {
		return nil, nil, errors.Wrap(errors.IoError, "resolve bundle dir", err)
	}

	s, err := store.Open(bundleDir, false)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()

	logger.Info("bootstrap.build.start", "repo_root", repoRoot, "bundle_dir", bundleDir)

	if err := s.DropSchema(); err != nil {
		return nil, nil, err
	}

	walkOpts := walker.Options{
		Root:                 repoRoot,
		RespectGitignore:     true,
		RespectCustomIgnore:  true,
		ExtraPatterns:        userCfg.Ignore.Patterns,
		MaxFileSize:          int64(userCfg.Index.MaxFileSizeKB) * 1024,
	}

	builder := index.NewBuilder(s, workers, logger)
	result, err := builder.BuildAll(ctx, repoRoot, walkOpts)
	if err != nil {
		return nil, nil, err
	}

	languages, err := s.Languages()
	if err != nil {
		return nil, nil, err
	}

	meta := store.Meta{
		RepoPath:  repoRoot,
		Created:   time.Now().UTC().Format(time.RFC3339),
		Languages: languages,
	}
	if err := store.WriteMeta(bundleDir, meta); err != nil {
		return nil, nil, errors.Wrap(errors.IoError, "write meta sidecar", err)
	}

	logger.Info("bootstrap.build.complete",
		"repo_root", repoRoot,
		"files_indexed", result.FilesIndexed,
		"languages", languages,
	)

	return &RepoInfo{RepoRoot: repoRoot, BundleDir: bundleDir, Created: meta.Created, Languages: languages}, result, nil
}

// Open resolves and opens an existing index bundle for repoRoot, trying
// local mode (<repoRoot>/.wonk) before the global index store. readOnly
// should be true for all query-side commands; only the builder and daemon
// open a writable handle.
func Open(repoRoot string, readOnly bool) (*store.Store, string, error) {
	repoRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, "", errors.Wrap(errors.IoError, "resolve repo root", err)
	}

	for _, local := range []bool{true, false} {
		dir, err := store.BundleDir(repoRoot, local)
		if err != nil {
			continue
		}
		if store.Exists(dir) {
			s, err := store.Open(dir, readOnly)
			if err != nil {
				return nil, "", err
			}
			return s, dir, nil
		}
	}

	return nil, "", errors.New(errors.NoIndex,
		fmt.Sprintf("no index found for %s", repoRoot), "",
		"run `wonk init` in this repository first")
}

// ListRepos enumerates every repo bundle in the global index store
// (`wonk repos list`). Local (.wonk/) bundles are outside its scope: they
// live inside their own repo and are discovered by being inside it.
func ListRepos() ([]RepoInfo, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(errors.IoError, "resolve home dir", err)
	}
	dataHome := filepath.Join(home, ".local", "share")
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		dataHome = xdg
	}
	root := filepath.Join(dataHome, "wonk", "index")

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.IoError, "read index store", err)
	}

	var repos []RepoInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		meta, err := store.ReadMeta(dir)
		if err != nil {
			continue
		}
		repos = append(repos, RepoInfo{
			RepoRoot:  meta.RepoPath,
			BundleDir: dir,
			Created:   meta.Created,
			Languages: meta.Languages,
		})
	}
	return repos, nil
}

// Clean removes an index bundle entirely (`wonk repos clean`).
func Clean(cfg RepoConfig) error {
	repoRoot, err := filepath.Abs(cfg.RepoRoot)
	if err != nil {
		return errors.Wrap(errors.IoError, "resolve repo root", err)
	}
	dir, err := store.BundleDir(repoRoot, cfg.Local)
	if err != nil {
		return errors.Wrap(errors.IoError, "resolve bundle dir", err)
	}
	if !store.Exists(dir) {
		return nil
	}
	return errors.Wrap(errors.IoError, "remove index bundle", os.RemoveAll(dir))
}

// parseExtensionPairs turns "ext=language" config strings into a map,
// ignoring malformed entries.
func parseExtensionPairs(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		for i := 0; i < len(p); i++ {
			if p[i] == '=' {
				ext := p[:i]
				name := p[i+1:]
				if ext != "" && name != "" {
					out[ext] = name
				}
				break
			}
		}
	}
	return out
}
