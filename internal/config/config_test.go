// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Daemon.DebounceMs != 500 {
		t.Errorf("DebounceMs = %d, want 500", cfg.Daemon.DebounceMs)
	}
	if cfg.Index.MaxFileSizeKB != 1024 {
		t.Errorf("MaxFileSizeKB = %d, want 1024", cfg.Index.MaxFileSizeKB)
	}
	if cfg.Output.DefaultFormat != "grep" {
		t.Errorf("DefaultFormat = %q, want grep", cfg.Output.DefaultFormat)
	}
	if cfg.Output.Color != "auto" {
		t.Errorf("Color = %q, want auto", cfg.Output.Color)
	}
}

func TestLoad_RepoLayerOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	wonkDir := filepath.Join(dir, ".wonk")
	if err := os.MkdirAll(wonkDir, 0o755); err != nil {
		t.Fatal(err)
	}
	toml := "[daemon]\ndebounce_ms = 750\n\n[output]\ndefault_format = \"json\"\n"
	if err := os.WriteFile(filepath.Join(wonkDir, "config.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Daemon.DebounceMs != 750 {
		t.Errorf("DebounceMs = %d, want 750", cfg.Daemon.DebounceMs)
	}
	if cfg.Output.DefaultFormat != "json" {
		t.Errorf("DefaultFormat = %q, want json", cfg.Output.DefaultFormat)
	}
	// unset fields retain defaults
	if cfg.Index.MaxFileSizeKB != 1024 {
		t.Errorf("MaxFileSizeKB = %d, want 1024 (unset, should retain default)", cfg.Index.MaxFileSizeKB)
	}
	if cfg.Output.Color != "auto" {
		t.Errorf("Color = %q, want auto (unset, should retain default)", cfg.Output.Color)
	}
}

func TestLoad_NoRepoConfigIsNotError(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Daemon.DebounceMs != 500 {
		t.Errorf("DebounceMs = %d, want 500", cfg.Daemon.DebounceMs)
	}
}

func TestLoad_EmptyRepoRoot(t *testing.T) {
	if _, err := Load(""); err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
}
