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
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockTryAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	l := NewLock(path)

	ok, err := l.TryAcquire()
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	pid, err := strconv.Atoi(string(data))
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	assert.True(t, IsRunning(path))

	require.NoError(t, l.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLockSecondAcquireFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	first := NewLock(path)
	ok, err := first.TryAcquire()
	require.NoError(t, err)
	require.True(t, ok)
	defer first.Release()

	second := NewLock(path)
	ok, err = second.TryAcquire()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLockStalePidIsReclaimed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	// A PID essentially guaranteed not to be a live process.
	require.NoError(t, os.WriteFile(path, []byte("999999999"), 0o644))

	l := NewLock(path)
	ok, err := l.TryAcquire()
	require.NoError(t, err)
	assert.True(t, ok)

	pid, found := ReadPid(path)
	assert.True(t, found)
	assert.Equal(t, os.Getpid(), pid)
}

func TestIsRunningFalseWhenNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	assert.False(t, IsRunning(path))

	_, found := ReadPid(path)
	assert.False(t, found)
}
