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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/etr/wonk/internal/ui"
)

const hookMarker = "# wonk auto-update hook"

const postCommitHook = `#!/bin/sh
` + hookMarker + ` - refreshes the index after each commit
` + "wonk update --quiet >/dev/null 2>&1 &\n"

func runHook(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: wonk hook <install|remove> [options]")
		return 2
	}
	switch args[0] {
	case "install":
		return runHookInstall(args[1:])
	case "remove":
		return runHookRemove(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "wonk hook: unknown subcommand %q\n", args[0])
		return 2
	}
}

func runHookInstall(args []string) int {
	fs := pflag.NewFlagSet("hook install", pflag.ContinueOnError)
	force := fs.Bool("force", false, "overwrite an existing non-wonk hook")
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: wonk hook install [--force]"); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	hookPath, err := postCommitHookPath()
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}

	if existing, err := os.ReadFile(hookPath); err == nil {
		if !strings.Contains(string(existing), hookMarker) && !*force {
			ui.Errorln(os.Stderr, "hook already exists at "+hookPath+" (use --force to overwrite)")
			return 1
		}
		if strings.Contains(string(existing), hookMarker) {
			ui.Success(os.Stdout, "wonk hook already installed")
			return 0
		}
	}

	if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	if err := os.WriteFile(hookPath, []byte(postCommitHook), 0o755); err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	ui.Success(os.Stdout, "installed git post-commit hook: "+hookPath)
	return 0
}

func runHookRemove(args []string) int {
	fs := pflag.NewFlagSet("hook remove", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	hookPath, err := postCommitHookPath()
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}

	content, err := os.ReadFile(hookPath)
	if err != nil {
		if os.IsNotExist(err) {
			ui.Success(os.Stdout, "no hook installed")
			return 0
		}
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	if !strings.Contains(string(content), hookMarker) {
		ui.Errorln(os.Stderr, "hook at "+hookPath+" was not installed by wonk; remove it manually")
		return 1
	}
	if err := os.Remove(hookPath); err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	ui.Success(os.Stdout, "removed git post-commit hook")
	return 0
}

// postCommitHookPath walks up from the working directory to find .git and
// resolves its post-commit hook path, following the gitdir: pointer used by
// worktrees and submodules.
func postCommitHookPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		gitPath := filepath.Join(dir, ".git")
		if info, statErr := os.Stat(gitPath); statErr == nil {
			gitDir := gitPath
			if !info.IsDir() {
				gitDir, err = resolveWorktreeGitDir(dir, gitPath)
				if err != nil {
					return "", err
				}
			}
			return filepath.Join(gitDir, "hooks", "post-commit"), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a git repository (or any parent directory)")
		}
		dir = parent
	}
}

// resolveWorktreeGitDir reads a `.git` file (used by worktrees and
// submodules) and follows its "gitdir: <path>" pointer.
func resolveWorktreeGitDir(base, gitFile string) (string, error) {
	content, err := os.ReadFile(gitFile)
	if err != nil {
		return "", fmt.Errorf("cannot read .git file: %w", err)
	}
	line := strings.TrimSpace(string(content))
	const prefix = "gitdir:"
	if !strings.HasPrefix(line, prefix) {
		return "", fmt.Errorf("unrecognized .git file format")
	}
	target := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if filepath.IsAbs(target) {
		return target, nil
	}
	return filepath.Join(base, target), nil
}
