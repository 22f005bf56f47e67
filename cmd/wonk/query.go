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
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/etr/wonk/internal/engine"
	"github.com/etr/wonk/internal/ui"
)

// queryTimeout bounds every query command; the index lives on local disk so
// this is generous headroom, not a tuning knob.
const queryTimeout = 30 * time.Second

// commonFlags are shared by every query/index subcommand.
type commonFlags struct {
	json    bool
	quiet   bool
	noColor bool
	smart   bool
	budget  int
}

func addCommonFlags(fs *pflag.FlagSet, cf *commonFlags, smartDefault bool) {
	fs.BoolVar(&cf.json, "json", false, "structured (JSON-lines) output instead of grep-style text")
	fs.BoolVar(&cf.quiet, "quiet", false, "suppress side-channel progress/hints")
	fs.BoolVar(&cf.noColor, "no-color", false, "disable colored side-channel output")
	fs.BoolVar(&cf.smart, "smart", smartDefault, "rank, tier, and dedup results")
	fs.IntVar(&cf.budget, "budget", 0, "truncate results to this approximate token budget (0 disables)")
}

func (cf commonFlags) options() engine.Options {
	return engine.Options{
		Smart:   cf.smart,
		Budget:  cf.budget,
		JSON:    cf.json,
		Quiet:   cf.quiet,
		NoColor: cf.noColor,
	}
}

func runQueryCmd(name string, o engine.Options) int {
	ui.Init(os.Stderr.Fd(), o.NoColor)
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	res := engine.Dispatch(ctx, name, o, os.Stdout, os.Stderr)
	return res.ExitCode
}

func runSearch(args []string) int {
	fs := pflag.NewFlagSet("search", pflag.ContinueOnError)
	var cf commonFlags
	addCommonFlags(fs, &cf, false)
	raw := fs.Bool("raw", false, "force unranked, undeduplicated pass-through of the scanner's results")
	regex := fs.Bool("regex", false, "interpret pattern as a regular expression")
	ci := fs.Bool("ignore-case", false, "case-insensitive match")
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: wonk search [options] <pattern>"); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	o := cf.options()
	o.Pattern = fs.Arg(0)
	o.Regex = *regex
	o.CaseInsensitive = *ci
	switch {
	case *raw:
		o.SmartMode = "off"
	case fs.Changed("smart") && cf.smart:
		o.SmartMode = "on"
	case fs.Changed("smart"):
		o.SmartMode = "off"
	default:
		o.SmartMode = "auto"
	}
	return runQueryCmd("search", o)
}

func runSym(args []string) int {
	fs := pflag.NewFlagSet("sym", pflag.ContinueOnError)
	var cf commonFlags
	addCommonFlags(fs, &cf, true)
	exact := fs.Bool("exact", false, "require an exact name match")
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: wonk sym [options] <name>"); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	o := cf.options()
	o.Pattern = fs.Arg(0)
	o.Exact = *exact
	return runQueryCmd("sym", o)
}

func runSig(args []string) int {
	fs := pflag.NewFlagSet("sig", pflag.ContinueOnError)
	var cf commonFlags
	addCommonFlags(fs, &cf, false)
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: wonk sig <name>"); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	o := cf.options()
	o.Pattern = fs.Arg(0)
	o.Exact = true
	return runQueryCmd("sig", o)
}

func runRef(args []string) int {
	fs := pflag.NewFlagSet("ref", pflag.ContinueOnError)
	var cf commonFlags
	addCommonFlags(fs, &cf, true)
	path := fs.String("path", "", "restrict to references under this repo-relative path")
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: wonk ref [options] <name>"); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	o := cf.options()
	o.Pattern = fs.Arg(0)
	o.PathPrefix = *path
	return runQueryCmd("ref", o)
}

func runLs(args []string) int {
	fs := pflag.NewFlagSet("ls", pflag.ContinueOnError)
	var cf commonFlags
	addCommonFlags(fs, &cf, false)
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: wonk ls [options] <path>"); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	path := ""
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	o := cf.options()
	o.PathPrefix = path
	return runQueryCmd("ls", o)
}

func runDeps(args []string) int {
	fs := pflag.NewFlagSet("deps", pflag.ContinueOnError)
	var cf commonFlags
	addCommonFlags(fs, &cf, false)
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: wonk deps <file>"); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	o := cf.options()
	o.Pattern = fs.Arg(0)
	return runQueryCmd("deps", o)
}

func runRdeps(args []string) int {
	fs := pflag.NewFlagSet("rdeps", pflag.ContinueOnError)
	var cf commonFlags
	addCommonFlags(fs, &cf, false)
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: wonk rdeps <file>"); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	o := cf.options()
	o.Pattern = fs.Arg(0)
	return runQueryCmd("rdeps", o)
}
