// Copyright 2026 Google LLC. All Rights Reserved.
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

package submodule

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) plumbing.Hash {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("Add(%s): %v", name, err)
	}
	h, err := wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Unix(1700000000, 0)},
	})
	if err != nil {
		t.Fatalf("Commit(): %v", err)
	}
	return h
}

// setup returns an upstream repository with one commit and a clone of it.
func setup(t *testing.T) (upstream *git.Repository, upDir string, clone *git.Repository, cloneDir string) {
	t.Helper()
	upDir = filepath.Join(t.TempDir(), "upstream")
	upstream, err := git.PlainInit(upDir, false)
	if err != nil {
		t.Fatalf("PlainInit(): %v", err)
	}
	commitFile(t, upstream, upDir, "datastore.proto", "v1")

	cloneDir = filepath.Join(t.TempDir(), "googleapis")
	clone, err = git.PlainClone(cloneDir, false, &git.CloneOptions{URL: upDir})
	if err != nil {
		t.Fatalf("PlainClone(): %v", err)
	}
	return upstream, upDir, clone, cloneDir
}

func TestAdvance(t *testing.T) {
	ctx := context.Background()
	upstream, upDir, clone, cloneDir := setup(t)
	before, err := Revision(cloneDir)
	if err != nil {
		t.Fatalf("Revision(): %v", err)
	}
	want := commitFile(t, upstream, upDir, "datastore.proto", "v2")

	s := New(filepath.Dir(cloneDir), "googleapis")
	res, err := s.Advance(ctx, clone)
	if err != nil {
		t.Fatalf("Advance(): %v", err)
	}
	if !res.Changed || res.New != want || res.Previous.String() != before {
		t.Errorf("Advance() = %+v, want change %s -> %s", res, before, want)
	}
	b, err := os.ReadFile(filepath.Join(cloneDir, "datastore.proto"))
	if err != nil || string(b) != "v2" {
		t.Errorf("datastore.proto = %q, %v, want v2", b, err)
	}
	if got, _ := Revision(cloneDir); got != want.String() {
		t.Errorf("Revision() = %s, want %s", got, want)
	}

	res, err = s.Advance(ctx, clone)
	if err != nil {
		t.Fatalf("second Advance(): %v", err)
	}
	if res.Changed || res.New != want {
		t.Errorf("second Advance() = %+v, want unchanged at %s", res, want)
	}
}

func TestAdvanceBranch(t *testing.T) {
	ctx := context.Background()
	upstream, upDir, clone, _ := setup(t)
	tip := commitFile(t, upstream, upDir, "datastore.proto", "v2")

	wt, err := upstream.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("next"), Create: true}); err != nil {
		t.Fatalf("Checkout(next): %v", err)
	}
	next := commitFile(t, upstream, upDir, "datastore.proto", "v3")
	if next == tip {
		t.Fatal("branches share a head")
	}

	res, err := New("", "googleapis", WithBranch("next")).Advance(ctx, clone)
	if err != nil {
		t.Fatalf("Advance(): %v", err)
	}
	if res.New != next {
		t.Errorf("Advance() on branch next = %s, want %s", res.New, next)
	}
}

func TestAdvanceFailureLeavesTree(t *testing.T) {
	ctx := context.Background()
	upstream, upDir, clone, cloneDir := setup(t)
	commitFile(t, upstream, upDir, "datastore.proto", "v2")
	before, err := Revision(cloneDir)
	if err != nil {
		t.Fatal(err)
	}

	if err := clone.DeleteRemote(git.DefaultRemoteName); err != nil {
		t.Fatal(err)
	}
	if _, err := clone.CreateRemote(&config.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{filepath.Join(t.TempDir(), "missing")},
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := New("", "googleapis").Advance(ctx, clone); err == nil {
		t.Fatal("Advance() with missing remote succeeded")
	}
	if got, _ := Revision(cloneDir); got != before {
		t.Errorf("Revision() after failure = %s, want %s", got, before)
	}
	b, err := os.ReadFile(filepath.Join(cloneDir, "datastore.proto"))
	if err != nil || string(b) != "v1" {
		t.Errorf("datastore.proto after failure = %q, %v, want v1", b, err)
	}
}

func TestSyncErrors(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	if _, err := New(root, "proto/googleapis").Sync(ctx); err == nil {
		t.Error("Sync() outside a repository succeeded")
	}
	if _, err := git.PlainInit(root, false); err != nil {
		t.Fatal(err)
	}
	if _, err := New(root, "proto/googleapis").Sync(ctx); err == nil {
		t.Error("Sync() without a submodule succeeded")
	}
}

// gitCLI runs the git binary in dir, the way a developer sets up a checkout.
func gitCLI(t *testing.T, dir string, args ...string) {
	t.Helper()
	base := []string{
		"-c", "protocol.file.allow=always",
		"-c", "user.name=test",
		"-c", "user.email=test@example.com",
		"-c", "commit.gpgsign=false",
	}
	cmd := exec.Command("git", append(base, args...)...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

// setupSuperproject returns an upstream repository and a parent repository
// holding it as the submodule proto/googleapis, added with the git CLI.
func setupSuperproject(t *testing.T) (upstream *git.Repository, upDir, parentDir string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	upDir = filepath.Join(t.TempDir(), "upstream")
	upstream, err := git.PlainInit(upDir, false)
	if err != nil {
		t.Fatalf("PlainInit(): %v", err)
	}
	commitFile(t, upstream, upDir, "datastore.proto", "v1")

	parentDir = filepath.Join(t.TempDir(), "parent")
	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		t.Fatal(err)
	}
	gitCLI(t, parentDir, "init", "-q")
	gitCLI(t, parentDir, "submodule", "add", "-q", upDir, "proto/googleapis")
	gitCLI(t, parentDir, "commit", "-q", "-m", "add googleapis")
	return upstream, upDir, parentDir
}

func readProto(t *testing.T, dir string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, "proto", "googleapis", "datastore.proto"))
	if err != nil {
		t.Fatalf("reading datastore.proto: %v", err)
	}
	return string(b)
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	upstream, upDir, parentDir := setupSuperproject(t)
	before, err := Revision(filepath.Join(parentDir, "proto", "googleapis"))
	if err != nil {
		t.Fatalf("Revision(): %v", err)
	}
	want := commitFile(t, upstream, upDir, "datastore.proto", "v2")

	s := New(parentDir, "proto/googleapis")
	res, err := s.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync(): %v", err)
	}
	if !res.Changed || res.New != want || res.Previous.String() != before {
		t.Errorf("Sync() = %+v, want change %s -> %s", res, before, want)
	}
	if got := readProto(t, parentDir); got != "v2" {
		t.Errorf("datastore.proto = %q, want v2", got)
	}

	res, err = s.Sync(ctx)
	if err != nil {
		t.Fatalf("second Sync(): %v", err)
	}
	if res.Changed || res.Previous != want || res.New != want {
		t.Errorf("second Sync() = %+v, want unchanged at %s", res, want)
	}
}

func TestSyncGitmodulesBranch(t *testing.T) {
	ctx := context.Background()
	upstream, upDir, parentDir := setupSuperproject(t)
	wt, err := upstream.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("next"), Create: true}); err != nil {
		t.Fatalf("Checkout(next): %v", err)
	}
	next := commitFile(t, upstream, upDir, "datastore.proto", "v3")
	// Leave the upstream HEAD on master so only .gitmodules names next.
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.Master}); err != nil {
		t.Fatalf("Checkout(master): %v", err)
	}
	gitCLI(t, parentDir, "config", "-f", ".gitmodules", "submodule.proto/googleapis.branch", "next")

	res, err := New(parentDir, "proto/googleapis").Sync(ctx)
	if err != nil {
		t.Fatalf("Sync(): %v", err)
	}
	if !res.Changed || res.New != next {
		t.Errorf("Sync() = %+v, want branch next at %s", res, next)
	}
	if got := readProto(t, parentDir); got != "v3" {
		t.Errorf("datastore.proto = %q, want v3", got)
	}
}

func TestSyncInitialisesFreshClone(t *testing.T) {
	ctx := context.Background()
	upstream, upDir, parentDir := setupSuperproject(t)
	want := commitFile(t, upstream, upDir, "datastore.proto", "v2")

	// A plain clone leaves the submodule uninitialised and its directory empty.
	cloneDir := filepath.Join(t.TempDir(), "clone")
	gitCLI(t, filepath.Dir(cloneDir), "clone", "-q", parentDir, cloneDir)

	res, err := New(cloneDir, "proto/googleapis").Sync(ctx)
	if err != nil {
		t.Fatalf("Sync(): %v", err)
	}
	if !res.Changed || res.New != want || !res.Previous.IsZero() {
		t.Errorf("Sync() = %+v, want change from nothing to %s", res, want)
	}
	if got := readProto(t, cloneDir); got != "v2" {
		t.Errorf("datastore.proto = %q, want v2", got)
	}
}
