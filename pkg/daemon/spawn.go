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
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/etr/wonk/internal/errors"
)

// SpawnForegroundEnv is set in the child's environment so the re-exec'd
// process knows to run the daemon loop inline rather than spawning again,
// the same escape hatch BeadsLog's daemon_autostart.go uses with
// BD_DAEMON_FOREGROUND.
const SpawnForegroundEnv = "WONK_DAEMON_FOREGROUND"

// Spawn re-execs the current binary as a detached background process
// running `wonk daemon start` against repoRoot, redirecting stdio to
// logPath and breaking it off into its own session so it outlives the
// parent's terminal. It blocks briefly until the new daemon's PID file
// reports a live process, the same "start then poll the lock" shape as
// BeadsLog's tryAutoStartDaemon/waitForSocketReadiness.
func Spawn(repoRoot, pidPath, logPath string, ready func() bool) error {
	exe, err := os.Executable()
	if err != nil {
		return errors.Wrap(errors.IoError, "resolve executable path", err)
	}

	cmd := exec.Command(exe, "daemon", "start", "--repo", repoRoot)
	cmd.Env = append(os.Environ(), SpawnForegroundEnv+"=1")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(errors.IoError, "open daemon log", err)
	}
	defer logFile.Close()

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return errors.Wrap(errors.IoError, "open /dev/null", err)
	}
	defer devNull.Close()

	cmd.Stdin = devNull
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return errors.Wrap(errors.IoError, "start daemon process", err)
	}
	go func() { _ = cmd.Wait() }()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if IsRunning(pidPath) && (ready == nil || ready()) {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not report ready within 5s; check %s", logPath)
}
