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
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"

	"github.com/etr/wonk/internal/errors"
)

// Lock enforces the single-daemon-per-bundle discipline via daemon.pid: an
// OS advisory lock (gofrs/flock) plus the PID written inside the file, so
// a stale lock left behind by a killed process can be told apart from one
// still held by a live daemon. The teacher's cmd/cie/queue.go does the
// same thing with a hand-rolled syscall.Flock; flock is the portable
// equivalent the rest of the retrieval pack reaches for.
type Lock struct {
	path string
	fl   *flock.Flock
}

// NewLock returns a Lock bound to the daemon.pid path of one index bundle.
func NewLock(path string) *Lock {
	return &Lock{path: path, fl: flock.New(path)}
}

// TryAcquire takes the lock and writes this process's PID into the file.
// ok is false, with no error, when another live process already holds it.
// A PID file naming a dead process is treated as stale and cleared first.
func (l *Lock) TryAcquire() (ok bool, err error) {
	stale, err := l.staleOwner()
	if err != nil {
		return false, err
	}
	if stale {
		_ = os.Remove(l.path)
	}

	locked, err := l.fl.TryLock()
	if err != nil {
		return false, errors.Wrap(errors.IoError, "acquire daemon lock", err)
	}
	if !locked {
		return false, nil
	}

	if err := os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		_ = l.fl.Unlock()
		return false, errors.Wrap(errors.IoError, "write pid file", err)
	}
	return true, nil
}

// Release unlocks and removes the PID file. Called on graceful shutdown.
func (l *Lock) Release() error {
	_ = os.Remove(l.path)
	return l.fl.Unlock()
}

func (l *Lock) staleOwner() (bool, error) {
	pid, found, err := readPid(l.path)
	if err != nil || !found {
		return false, err
	}
	return !processAlive(pid), nil
}

// readPid reads and parses the PID stored at path. found is false if the
// file doesn't exist or can't be parsed (an unparsable file is treated the
// same as a missing one: nothing to report as "still running").
func readPid(path string) (pid int, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(errors.IoError, "read pid file", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// processAlive reports whether pid refers to a live process, using the
// POSIX convention that signaling with 0 probes existence without actually
// delivering a signal.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// IsRunning reports whether the daemon.pid at path names a live process,
// used by the CLI to decide whether to auto-spawn or to report status.
func IsRunning(path string) bool {
	pid, found, err := readPid(path)
	if err != nil || !found {
		return false
	}
	return processAlive(pid)
}

// ReadPid exposes the PID recorded at path, for `wonk daemon stop`/`status`.
func ReadPid(path string) (int, bool) {
	pid, found, _ := readPid(path)
	return pid, found
}
