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

// Package config loads wonk's layered configuration: built-in defaults,
// then the user config.toml, then the repo config.toml, last-wins.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Daemon holds daemon-related settings.
type Daemon struct {
	DebounceMs int `toml:"debounce_ms"`
}

// Index holds indexing-related settings.
type Index struct {
	MaxFileSizeKB       int      `toml:"max_file_size_kb"`
	AdditionalExtensions []string `toml:"additional_extensions"`
}

// Output holds output-formatting settings.
type Output struct {
	DefaultFormat string `toml:"default_format"` // "grep" | "json"
	Color         string `toml:"color"`          // "auto" | "always" | "never"
}

// Ignore holds extra ignore-pattern settings.
type Ignore struct {
	Patterns []string `toml:"patterns"`
}

// Config is wonk's fully resolved configuration.
type Config struct {
	Daemon Daemon `toml:"daemon"`
	Index  Index  `toml:"index"`
	Output Output `toml:"output"`
	Ignore Ignore `toml:"ignore"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Daemon: Daemon{DebounceMs: 500},
		Index:  Index{MaxFileSizeKB: 1024},
		Output: Output{DefaultFormat: "grep", Color: "auto"},
	}
}

// Load resolves the layered configuration for a repo root: defaults, then
// <config-home>/wonk/config.toml, then <repoRoot>/.wonk/config.toml, with
// later layers overriding only the fields they set.
func Load(repoRoot string) (*Config, error) {
	cfg := Default()

	if home, err := os.UserConfigDir(); err == nil {
		if err := mergeFile(cfg, filepath.Join(home, "wonk", "config.toml")); err != nil {
			return nil, err
		}
	}

	if repoRoot != "" {
		if err := mergeFile(cfg, filepath.Join(repoRoot, ".wonk", "config.toml")); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// mergeFile decodes path into cfg in place, layering non-zero fields over
// whatever cfg already holds. A missing file is not an error.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var layer Config
	if _, err := toml.Decode(string(data), &layer); err != nil {
		return err
	}

	if layer.Daemon.DebounceMs != 0 {
		cfg.Daemon.DebounceMs = layer.Daemon.DebounceMs
	}
	if layer.Index.MaxFileSizeKB != 0 {
		cfg.Index.MaxFileSizeKB = layer.Index.MaxFileSizeKB
	}
	if len(layer.Index.AdditionalExtensions) > 0 {
		cfg.Index.AdditionalExtensions = layer.Index.AdditionalExtensions
	}
	if layer.Output.DefaultFormat != "" {
		cfg.Output.DefaultFormat = layer.Output.DefaultFormat
	}
	if layer.Output.Color != "" {
		cfg.Output.Color = layer.Output.Color
	}
	if len(layer.Ignore.Patterns) > 0 {
		cfg.Ignore.Patterns = layer.Ignore.Patterns
	}

	return nil
}
