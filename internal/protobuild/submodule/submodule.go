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

// Package submodule advances a vendored git submodule to the head of its
// upstream repository.
package submodule

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"k8s.io/klog/v2"
)

// Result describes a sync.
type Result struct {
	Previous plumbing.Hash
	New      plumbing.Hash
	// Changed is false when the submodule was already at the upstream head
	// and nothing was checked out.
	Changed bool
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithAuth sets the credentials used to fetch from the upstream remote.
func WithAuth(auth transport.AuthMethod) Option {
	return func(s *Synchronizer) { s.auth = auth }
}

// WithBranch tracks branch instead of the branch named in .gitmodules or the
// remote's default branch.
func WithBranch(branch string) Option {
	return func(s *Synchronizer) { s.branch = branch }
}

// Synchronizer advances the submodule at path inside the repository at
// repoRoot.
type Synchronizer struct {
	repoRoot string
	path     string
	auth     transport.AuthMethod
	branch   string
}

// New returns a Synchronizer for the submodule at path, relative to repoRoot.
func New(repoRoot, path string, opts ...Option) *Synchronizer {
	s := &Synchronizer{repoRoot: repoRoot, path: filepath.ToSlash(filepath.Clean(path))}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Sync initialises the submodule if needed and advances it to the upstream
// head.
func (s *Synchronizer) Sync(ctx context.Context) (Result, error) {
	parent, err := git.PlainOpen(s.repoRoot)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %v", s.repoRoot, err)
	}
	wt, err := parent.Worktree()
	if err != nil {
		return Result{}, err
	}
	subs, err := wt.Submodules()
	if err != nil {
		return Result{}, fmt.Errorf("reading submodules of %s: %v", s.repoRoot, err)
	}
	var sub *git.Submodule
	for _, candidate := range subs {
		if candidate.Config().Path == s.path {
			sub = candidate
			break
		}
	}
	if sub == nil {
		return Result{}, fmt.Errorf("no submodule at %s in %s", s.path, s.repoRoot)
	}
	if err := sub.Init(); err != nil && !errors.Is(err, git.ErrSubmoduleAlreadyInitialized) {
		return Result{}, fmt.Errorf("initialising %s: %v", s.path, err)
	}
	repo, err := sub.Repository()
	if err != nil {
		return Result{}, fmt.Errorf("opening submodule %s: %v", s.path, err)
	}
	branch := s.branch
	if branch == "" {
		branch = sub.Config().Branch
	}
	return s.advance(ctx, repo, branch)
}

// Advance fetches the upstream remote of repo and checks out its head. The
// checkout is the only step that touches the working tree, and it runs after
// everything else has succeeded.
func (s *Synchronizer) Advance(ctx context.Context, repo *git.Repository) (Result, error) {
	return s.advance(ctx, repo, s.branch)
}

func (s *Synchronizer) advance(ctx context.Context, repo *git.Repository, branch string) (Result, error) {
	var res Result
	if head, err := repo.Head(); err == nil {
		res.Previous = head.Hash()
	} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return Result{}, err
	}

	remote, err := repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return Result{}, fmt.Errorf("submodule %s: %v", s.path, err)
	}
	klog.V(1).Infof("Fetching %s from %v", s.path, remote.Config().URLs)
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []config.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Auth:       s.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return Result{}, fmt.Errorf("fetching %s: %v", s.path, err)
	}

	target, err := s.resolve(ctx, repo, remote, branch)
	if err != nil {
		return Result{}, err
	}
	res.New = target
	if target == res.Previous {
		klog.Infof("Submodule %s already at %s", s.path, target)
		return res, nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return Result{}, err
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: target}); err != nil {
		return Result{}, fmt.Errorf("checking out %s in %s: %v", target, s.path, err)
	}
	res.Changed = true
	klog.Infof("Submodule %s advanced %s -> %s", s.path, res.Previous, target)
	return res, nil
}

// resolve returns the commit at the tip of branch, or of the remote's default
// branch when branch is empty.
func (s *Synchronizer) resolve(ctx context.Context, repo *git.Repository, remote *git.Remote, branch string) (plumbing.Hash, error) {
	if branch == "" {
		refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: s.auth})
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("listing %s remote: %v", s.path, err)
		}
		var head plumbing.Hash
		for _, r := range refs {
			if r.Name() != plumbing.HEAD {
				continue
			}
			if r.Type() == plumbing.SymbolicReference {
				branch = r.Target().Short()
				break
			}
			head = r.Hash()
		}
		if branch == "" {
			if head.IsZero() {
				return plumbing.ZeroHash, fmt.Errorf("remote of %s has no HEAD", s.path)
			}
			return head, nil
		}
	}
	ref, err := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, branch), true)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving branch %q of %s: %v", branch, s.path, err)
	}
	return ref.Hash(), nil
}

// Revision returns the commit checked out in the repository at dir, which may
// be a submodule working tree.
func Revision(dir string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", err
	}
	return head.Hash().String(), nil
}
