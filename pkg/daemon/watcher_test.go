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

package daemon

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etr/wonk/internal/walker"
)

func TestWatcherReportsFileWrite(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	var mu sync.Mutex
	var batches [][]PendingEvent

	w, err := NewWatcher(root, walker.Options{RespectGitignore: true}, 30*time.Millisecond, nil, func(evs []PendingEvent) {
		mu.Lock()
		batches = append(batches, evs)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(target, []byte("package main\n\nfunc main() {}\n"), 0o644))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(batches)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, batches)
	found := false
	for _, ev := range batches[0] {
		if ev.AbsPath == target {
			found = true
		}
	}
	assert.True(t, found, "expected a pending event for %s", target)
}

func TestWatcherIgnoresWorktreeBoundary(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "vendor-worktree")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(nested, ".git"), 0o755))

	assert.True(t, walker.IsWorktreeExcluded(root, filepath.Join(nested, "file.go")))
	assert.False(t, walker.IsWorktreeExcluded(root, filepath.Join(root, "file.go")))
}
