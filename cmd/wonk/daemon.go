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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/etr/wonk/internal/bootstrap"
	"github.com/etr/wonk/internal/config"
	"github.com/etr/wonk/internal/ui"
	"github.com/etr/wonk/internal/walker"
	"github.com/etr/wonk/pkg/daemon"
	"github.com/etr/wonk/pkg/store"
)

func runDaemon(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: wonk daemon <start|stop|status> [options]")
		return 2
	}
	switch args[0] {
	case "start":
		return runDaemonStart(args[1:])
	case "stop":
		return runDaemonStop(args[1:])
	case "status":
		return runDaemonStatus(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "wonk daemon: unknown subcommand %q\n", args[0])
		return 2
	}
}

// runDaemonStart either re-execs itself detached (the default, interactive
// path) or runs the watch loop inline when WONK_DAEMON_FOREGROUND is set,
// which is how the re-exec'd child spawned by pkg/daemon.Spawn (and by a
// query command's auto-spawn) actually becomes the long-running daemon.
func runDaemonStart(args []string) int {
	fs := pflag.NewFlagSet("daemon start", pflag.ContinueOnError)
	repoFlag := fs.String("repo", "", "repo root to watch (default: discover from cwd)")
	local := fs.Bool("local", false, "use the <repo>/.wonk bundle instead of the global index store")
	workers := fs.Int("workers", runtime.NumCPU(), "incremental-update worker pool size")
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: wonk daemon start [options]"); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	repoRoot, err := resolveRepoRoot(*repoFlag)
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}

	if os.Getenv(daemon.SpawnForegroundEnv) == "" {
		return spawnDetachedDaemon(repoRoot, *local)
	}
	return runDaemonForeground(repoRoot, *local, *workers)
}

func spawnDetachedDaemon(repoRoot string, local bool) int {
	bundleDir, err := store.BundleDir(repoRoot, local)
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	if !store.Exists(bundleDir) {
		fmt.Fprintln(os.Stderr, "no index found; run `wonk init` first")
		return 1
	}
	pidPath := store.PidFilePath(bundleDir)
	if daemon.IsRunning(pidPath) {
		fmt.Println("daemon already running")
		return 0
	}
	logPath := filepath.Join(bundleDir, "daemon.log")
	if err := daemon.Spawn(repoRoot, pidPath, logPath, func() bool { return true }); err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	ui.Success(os.Stdout, "daemon started for "+repoRoot)
	return 0
}

// runDaemonForeground runs the watch loop inline, blocking until a
// termination signal arrives. This is what actually executes once
// pkg/daemon.Spawn's child process runs `wonk daemon start --repo ...`
// with WONK_DAEMON_FOREGROUND set.
func runDaemonForeground(repoRoot string, local bool, workers int) int {
	bundleDir, err := store.BundleDir(repoRoot, local)
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	s, err := store.Open(bundleDir, false)
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	defer s.Close()

	cfg, err := config.Load(repoRoot)
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}

	walkOpts := walker.Options{
		Root:                repoRoot,
		RespectGitignore:    true,
		RespectCustomIgnore: true,
		ExtraPatterns:       cfg.Ignore.Patterns,
		MaxFileSize:         int64(cfg.Index.MaxFileSizeKB) * 1024,
	}

	d := daemon.New(daemon.Options{
		RepoRoot:       repoRoot,
		BundleDir:      bundleDir,
		WalkOpts:       walkOpts,
		Workers:        workers,
		DebounceWindow: time.Duration(cfg.Daemon.DebounceMs) * time.Millisecond,
	}, s, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func runDaemonStop(args []string) int {
	fs := pflag.NewFlagSet("daemon stop", pflag.ContinueOnError)
	repoFlag := fs.String("repo", "", "repo root (default: discover from cwd)")
	local := fs.Bool("local", false, "use the <repo>/.wonk bundle instead of the global index store")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	repoRoot, err := resolveRepoRoot(*repoFlag)
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	bundleDir, err := store.BundleDir(repoRoot, *local)
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	pidPath := store.PidFilePath(bundleDir)
	pid, found := daemon.ReadPid(pidPath)
	if !found || !daemon.IsRunning(pidPath) {
		fmt.Println("no daemon running")
		return 0
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) && daemon.IsRunning(pidPath) {
		time.Sleep(50 * time.Millisecond)
	}
	if daemon.IsRunning(pidPath) {
		fmt.Fprintln(os.Stderr, "daemon did not stop within 10s")
		return 1
	}
	ui.Success(os.Stdout, "daemon stopped")
	return 0
}

func runDaemonStatus(args []string) int {
	fs := pflag.NewFlagSet("daemon status", pflag.ContinueOnError)
	repoFlag := fs.String("repo", "", "repo root (default: discover from cwd)")
	local := fs.Bool("local", false, "use the <repo>/.wonk bundle instead of the global index store")
	jsonOut := fs.Bool("json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	repoRoot, err := resolveRepoRoot(*repoFlag)
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	bundleDir, err := store.BundleDir(repoRoot, *local)
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	pidPath := store.PidFilePath(bundleDir)
	if !daemon.IsRunning(pidPath) {
		if *jsonOut {
			enc := json.NewEncoder(os.Stdout)
			return encodeOrFail(enc, map[string]any{"state": "stopped"})
		}
		fmt.Println("daemon: not running")
		return 0
	}

	if !store.Exists(bundleDir) {
		fmt.Println("daemon: running (pid file present, no index bundle)")
		return 0
	}
	s, err := store.Open(bundleDir, true)
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	defer s.Close()

	st, found, err := s.GetDaemonStatus()
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	if !found {
		fmt.Println("daemon: running (no status record yet)")
		return 0
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		return encodeOrFail(enc, st)
	}
	fmt.Printf("daemon: %s (pid %d)\n", st.State, st.PID)
	fmt.Printf("uptime since: %s\n", time.Unix(st.UptimeStart, 0).Format(time.RFC3339))
	fmt.Printf("last activity: %s\n", time.Unix(st.LastActivity, 0).Format(time.RFC3339))
	fmt.Printf("queued files: %d\n", st.QueuedFiles)
	if st.LastError != "" {
		fmt.Printf("last error: %s\n", st.LastError)
	}
	return 0
}

func encodeOrFail(enc *json.Encoder, v any) int {
	if err := enc.Encode(v); err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func resolveRepoRoot(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := walker.RepoRoot(wd)
	if err != nil {
		return "", err
	}
	if root == "" {
		return "", fmt.Errorf("no repo root found (no .wonk or .git ancestor)")
	}
	return root, nil
}

// runStatus implements the top-level `wonk status` command: a combined
// summary of the index bundle (if any) and the daemon watching it, the
// way `cmd/cie/status.go` reports backend + worker state in one call.
func runStatus(args []string) int {
	fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	repoRoot, err := resolveRepoRoot("")
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}

	s, bundleDir, err := bootstrap.Open(repoRoot, true)
	if err != nil {
		if *jsonOut {
			enc := json.NewEncoder(os.Stdout)
			return encodeOrFail(enc, map[string]any{"repo_root": repoRoot, "indexed": false})
		}
		fmt.Printf("repo: %s\nindex: not built (run `wonk init`)\n", repoRoot)
		return 0
	}
	defer s.Close()

	meta, _ := store.ReadMeta(bundleDir)
	running := daemon.IsRunning(store.PidFilePath(bundleDir))

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		return encodeOrFail(enc, map[string]any{
			"repo_root":    repoRoot,
			"bundle_dir":   bundleDir,
			"indexed":      true,
			"created":      meta.Created,
			"languages":    meta.Languages,
			"daemon_alive": running,
		})
	}

	fmt.Printf("repo: %s\n", repoRoot)
	fmt.Printf("index: %s\n", bundleDir)
	fmt.Printf("built: %s\n", meta.Created)
	fmt.Printf("languages: %v\n", meta.Languages)
	if running {
		fmt.Println("daemon: running")
	} else {
		fmt.Println("daemon: not running")
	}
	return 0
}
