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
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/etr/wonk/internal/bootstrap"
	"github.com/etr/wonk/internal/ui"
)

func runRepos(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: wonk repos <list|clean> [options]")
		return 2
	}
	switch args[0] {
	case "list":
		return runReposList(args[1:])
	case "clean":
		return runReposClean(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "wonk repos: unknown subcommand %q\n", args[0])
		return 2
	}
}

func runReposList(args []string) int {
	fs := pflag.NewFlagSet("repos list", pflag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	repos, err := bootstrap.ListRepos()
	if err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		for _, r := range repos {
			if err := enc.Encode(r); err != nil {
				ui.Errorln(os.Stderr, err.Error())
				return 1
			}
		}
		return 0
	}

	if len(repos) == 0 {
		fmt.Println("no indexed repos in the global store")
		return 0
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "REPO\tCREATED\tLANGUAGES")
	for _, r := range repos {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", r.RepoRoot, r.Created, len(r.Languages))
	}
	if err := tw.Flush(); err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func runReposClean(args []string) int {
	fs := pflag.NewFlagSet("repos clean", pflag.ContinueOnError)
	local := fs.Bool("local", false, "clean the <repo>/.wonk bundle instead of the global index store")
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: wonk repos clean [options] [repo-path]"); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	repoRoot := "."
	if fs.NArg() > 0 {
		repoRoot = fs.Arg(0)
	}
	if err := bootstrap.Clean(bootstrap.RepoConfig{RepoRoot: repoRoot, Local: *local}); err != nil {
		ui.Errorln(os.Stderr, err.Error())
		return 1
	}
	ui.Success(os.Stdout, "removed index bundle for "+repoRoot)
	return 0
}
