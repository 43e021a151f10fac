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

// Package output writes generated files into place. A run's files are staged
// in a sibling directory and swapped in with renames, so an output directory
// only ever holds the complete result of one successful run.
package output

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"k8s.io/klog/v2"
)

const (
	// ManifestName is the file listing a run's outputs, written into every
	// output directory.
	ManifestName = "PROTOBUILD_MANIFEST"
	// StaleName is the suffix of the marker written next to an output
	// directory whose last regeneration failed.
	StaleName = "PROTOBUILD_STALE"

	manifestHeader = "# Generated by protobuild. DO NOT EDIT."
)

// File is a generated file. Path is slash separated and relative to the
// output directory.
type File struct {
	Path    string
	Content []byte
}

// Validate checks that every path is relative, clean, stays inside the output
// directory and is used once.
func Validate(files []File) error {
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		p := f.Path
		switch {
		case p == "":
			return errors.New("empty output path")
		case path.IsAbs(p) || strings.Contains(p, `\`):
			return fmt.Errorf("output path %q is not relative", p)
		case path.Clean(p) != p:
			return fmt.Errorf("output path %q is not clean", p)
		case p == ".." || strings.HasPrefix(p, "../"):
			return fmt.Errorf("output path %q escapes the output directory", p)
		case p == ManifestName:
			return fmt.Errorf("output path %q is reserved", p)
		case seen[p]:
			return fmt.Errorf("output path %q generated twice", p)
		}
		seen[p] = true
	}
	return nil
}

func sorted(files []File) []File {
	out := append([]File(nil), files...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Manifest returns the manifest for files generated from revision: a header,
// the revision, then one "<sha256>  <path>" line per file in path order.
func Manifest(revision string, files []File) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nrevision %s\n", manifestHeader, revision)
	for _, f := range sorted(files) {
		sum := sha256.Sum256(f.Content)
		fmt.Fprintf(&b, "%s  %s\n", hex.EncodeToString(sum[:]), f.Path)
	}
	return []byte(b.String())
}

// Staged is a complete output directory waiting to replace out.
type Staged struct {
	out  string
	dir  string
	done bool
}

// Stage writes files and their manifest into a new directory next to out.
// out itself is not touched until Commit.
func Stage(out string, files []File, revision string) (*Staged, error) {
	if err := Validate(files); err != nil {
		return nil, err
	}
	out = filepath.Clean(out)
	parent := filepath.Dir(out)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp(parent, "."+filepath.Base(out)+".staging-")
	if err != nil {
		return nil, err
	}
	s := &Staged{out: out, dir: dir}
	if err := s.write(files, revision); err != nil {
		s.Discard()
		return nil, fmt.Errorf("staging %s: %v", out, err)
	}
	klog.V(1).Infof("Staged %d files for %s in %s", len(files), out, dir)
	return s, nil
}

func (s *Staged) write(files []File, revision string) error {
	if err := os.Chmod(s.dir, 0o755); err != nil {
		return err
	}
	for _, f := range sorted(files) {
		p := filepath.Join(s.dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, f.Content, 0o644); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(s.dir, ManifestName), Manifest(revision, files), 0o644)
}

// Out returns the directory the staged files will replace.
func (s *Staged) Out() string { return s.out }

// Commit replaces out with the staged directory. The previous contents are
// moved aside first and restored if the final rename fails.
func (s *Staged) Commit() error {
	if s.done {
		return errors.New("staged output already committed or discarded")
	}
	s.done = true

	var backup string
	switch _, err := os.Stat(s.out); {
	case err == nil:
		backup = s.dir + ".old"
		if err := os.Rename(s.out, backup); err != nil {
			os.RemoveAll(s.dir)
			return fmt.Errorf("moving aside %s: %v", s.out, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		os.RemoveAll(s.dir)
		return err
	}

	if err := os.Rename(s.dir, s.out); err != nil {
		if backup != "" {
			if rerr := os.Rename(backup, s.out); rerr != nil {
				klog.Errorf("Restoring %s from %s failed: %v", s.out, backup, rerr)
			}
		}
		os.RemoveAll(s.dir)
		return fmt.Errorf("replacing %s: %v", s.out, err)
	}
	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			klog.Warningf("Removing previous output %s: %v", backup, err)
		}
	}
	return nil
}

// Discard removes the staged directory. It is a no-op after Commit.
func (s *Staged) Discard() error {
	if s.done {
		return nil
	}
	s.done = true
	return os.RemoveAll(s.dir)
}

// StalePath returns the marker path for out. It sits beside out so that it
// survives the next swap of out and never appears in its manifest.
func StalePath(out string) string {
	return filepath.Clean(out) + "." + StaleName
}

// MarkStale records that regenerating out failed with cause at now. Nothing
// is written when out does not exist, since there are no bindings to flag.
func MarkStale(out string, cause error, now time.Time) error {
	if _, err := os.Stat(out); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	msg := fmt.Sprintf("%s is stale: regeneration failed at %s\n%v\n", filepath.Base(out), now.UTC().Format(time.RFC3339), cause)
	return os.WriteFile(StalePath(out), []byte(msg), 0o644)
}

// ClearStale removes the marker for out, if any.
func ClearStale(out string) error {
	if err := os.Remove(StalePath(out)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
