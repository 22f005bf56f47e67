// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package walker

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func collect(t *testing.T, opts Options) []string {
	t.Helper()
	var got []string
	err := Walk(opts, func(e Entry) error {
		got = append(got, e.Path)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	return got
}

func TestWalk_AlwaysExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), "x")
	writeFile(t, filepath.Join(root, "vendor", "lib.go"), "x")

	got := collect(t, Options{Root: root})
	if len(got) != 1 || got[0] != "main.go" {
		t.Errorf("Walk() = %v, want [main.go]", got)
	}
}

func TestWalk_Gitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\nbuild_artifacts/\n")
	writeFile(t, filepath.Join(root, "app.go"), "x")
	writeFile(t, filepath.Join(root, "debug.log"), "x")
	writeFile(t, filepath.Join(root, "build_artifacts", "out.bin"), "x")

	got := collect(t, Options{Root: root, RespectGitignore: true})
	if len(got) != 1 || got[0] != "app.go" {
		t.Fatalf("Walk() = %v, want [app.go]", got)
	}
	for _, p := range got {
		if p == "debug.log" || p == "build_artifacts/out.bin" {
			t.Errorf("ignored path %q was emitted", p)
		}
	}
}

func TestWalk_GitignoreNegation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\n!keep.log\n")
	writeFile(t, filepath.Join(root, "debug.log"), "x")
	writeFile(t, filepath.Join(root, "keep.log"), "x")

	got := collect(t, Options{Root: root, RespectGitignore: true})
	if len(got) != 1 || got[0] != "keep.log" {
		t.Errorf("Walk() = %v, want [keep.log]", got)
	}
}

func TestWalk_WonkignoreCustom(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".wonkignore"), "fixtures/\n")
	writeFile(t, filepath.Join(root, "fixtures", "a.go"), "x")
	writeFile(t, filepath.Join(root, "real.go"), "x")

	got := collect(t, Options{Root: root, RespectCustomIgnore: true})
	if len(got) != 1 || got[0] != "real.go" {
		t.Errorf("Walk() = %v, want [real.go]", got)
	}
}

func TestWalk_HiddenSkippedExceptGithub(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden", "x.go"), "x")
	writeFile(t, filepath.Join(root, ".github", "workflows", "ci.yml"), "x")
	writeFile(t, filepath.Join(root, "visible.go"), "x")

	got := collect(t, Options{Root: root})
	want := []string{".github/workflows/ci.yml", "visible.go"}
	if len(got) != len(want) {
		t.Fatalf("Walk() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Walk()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalk_WorktreeBoundary(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "x")
	writeFile(t, filepath.Join(root, "wt-feature", "feature.go"), "x")
	writeFile(t, filepath.Join(root, "wt-feature", ".git"), "gitdir: /somewhere/.git/worktrees/wt-feature\n")

	got := collect(t, Options{Root: root})
	if len(got) != 1 || got[0] != "main.go" {
		t.Errorf("Walk() = %v, want [main.go] (worktree subtree must be skipped)", got)
	}
}

func TestWalk_MaxFileSizeMarksTooLarge(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "big.go"), "0123456789")

	var entries []Entry
	err := Walk(Options{Root: root, MaxFileSize: 5}, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].TooLarge {
		t.Errorf("entries = %+v, want one entry marked TooLarge", entries)
	}
}

func TestWalk_RestrictPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "a.go"), "x")
	writeFile(t, filepath.Join(root, "other", "b.go"), "x")

	got := collect(t, Options{Root: root, RestrictPath: "sub"})
	if len(got) != 1 || got[0] != "sub/a.go" {
		t.Errorf("Walk() = %v, want [sub/a.go]", got)
	}
}

func TestRepoRoot_FindsGitMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := RepoRoot(nested)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Errorf("RepoRoot() = %q, want %q", got, root)
	}
}

func TestRepoRoot_NestedWorktreeWinsOverParent(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	wt := filepath.Join(root, "wt-feature")
	writeFile(t, filepath.Join(wt, ".git"), "gitdir: ../.git/worktrees/wt-feature\n")
	nested := filepath.Join(wt, "pkg")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := RepoRoot(nested)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(wt)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Errorf("RepoRoot() = %q, want nested worktree root %q", got, wt)
	}
}

func TestRepoRoot_NoneFound(t *testing.T) {
	root := t.TempDir()
	got, err := RepoRoot(root)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("RepoRoot() = %q, want empty", got)
	}
}
