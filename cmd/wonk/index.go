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
	"runtime"
	"time"

	"github.com/spf13/pflag"

	"github.com/etr/wonk/internal/engine"
	"github.com/etr/wonk/internal/ui"
)

// indexTimeout bounds a full build/update; large repos legitimately take
// minutes, so this is generous rather than tight.
const indexTimeout = 30 * time.Minute

func runInit(args []string) int {
	fs := pflag.NewFlagSet("init", pflag.ContinueOnError)
	var cf commonFlags
	addCommonFlags(fs, &cf, false)
	local := fs.Bool("local", false, "store the index at <repo>/.wonk instead of the global index store")
	workers := fs.Int("workers", runtime.NumCPU(), "parser worker pool size")
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: wonk init [options]"); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ui.Init(os.Stderr.Fd(), cf.noColor)
	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	o := cf.options()
	o.Workers = *workers
	res := engine.Init(ctx, o, *local)
	return res.ExitCode
}

func runUpdate(args []string) int {
	fs := pflag.NewFlagSet("update", pflag.ContinueOnError)
	var cf commonFlags
	addCommonFlags(fs, &cf, false)
	workers := fs.Int("workers", runtime.NumCPU(), "parser worker pool size")
	fs.Usage = func() { fmt.Fprintln(os.Stderr, "Usage: wonk update [options]"); fs.PrintDefaults() }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ui.Init(os.Stderr.Fd(), cf.noColor)
	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	o := cf.options()
	o.Workers = *workers
	res := engine.Update(ctx, o)
	return res.ExitCode
}
