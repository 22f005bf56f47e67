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

// Package main implements the wonk CLI: a structure-aware code-search tool
// for coding agents.
//
// Usage:
//
//	wonk search <pattern>          Plain-text/regex search
//	wonk sym <name>                Find symbol definitions
//	wonk sig <name>                Show a symbol's signature
//	wonk ref <name>                Find references to a symbol
//	wonk ls <path>                 List symbols under a path
//	wonk deps <file>                Show a file's imports
//	wonk rdeps <file>               Show files that import a file
//	wonk init                      Build the index for this repo
//	wonk update                    Incrementally refresh the index
//	wonk status                    Show index and daemon status for this repo
//	wonk daemon start|stop|status  Manage the background watcher
//	wonk repos list|clean          Manage index bundles
//	wonk hook install|remove       Manage the git post-commit hook
package main

import (
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `wonk - structure-aware code search for coding agents

Usage:
  wonk <command> [options] [args]

Query commands:
  search <pattern>   Plain-text or regex search across the repo
  sym <name>          Find symbol definitions
  sig <name>          Show a symbol's full signature
  ref <name>          Find references to a symbol
  ls <path>           List symbols defined under a path
  deps <file>         Show a file's resolved imports
  rdeps <file>        Show files that import a file

Index commands:
  init                 Build the index for the current repo
  update                Incrementally refresh the index
  status                Show index and daemon status for the current repo

Daemon commands:
  daemon start          Start the background watcher (detached)
  daemon stop            Stop the background watcher
  daemon status          Show watcher status

Repo commands:
  repos list             List every indexed repo
  repos clean             Remove a repo's index bundle

Hook commands:
  hook install            Install a git post-commit auto-update hook
  hook remove              Remove the hook

Global options:
  --json           Structured (JSON-lines) output instead of grep-style text
  --quiet          Suppress side-channel progress/hints
  --no-color       Disable colored side-channel output
  --version        Show version and exit

Run 'wonk <command> --help' for command-specific options.
`)
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-version") {
		fmt.Printf("wonk version %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		os.Exit(0)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var code int
	switch cmd {
	case "search":
		code = runSearch(args)
	case "sym":
		code = runSym(args)
	case "sig":
		code = runSig(args)
	case "ref":
		code = runRef(args)
	case "ls":
		code = runLs(args)
	case "deps":
		code = runDeps(args)
	case "rdeps":
		code = runRdeps(args)
	case "init":
		code = runInit(args)
	case "update":
		code = runUpdate(args)
	case "status":
		code = runStatus(args)
	case "daemon":
		code = runDaemon(args)
	case "repos":
		code = runRepos(args)
	case "hook":
		code = runHook(args)
	case "help", "-h", "--help":
		usage()
		code = 0
	default:
		fmt.Fprintf(os.Stderr, "wonk: unknown command %q\n", cmd)
		usage()
		code = 2
	}
	os.Exit(code)
}
