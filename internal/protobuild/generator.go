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

// Package protobuild regenerates protobuf bindings from a vendored schema.
//
// A run compiles the configured .proto files, runs every configured plugin
// over the result and replaces each output directory wholesale. Output is a
// deterministic function of the schema and the configuration. When a run
// fails, existing output is left as it was and a PROTOBUILD_STALE marker is
// written beside it.
package protobuild

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/clouddatastore/internal/protobuild/config"
	"github.com/google/clouddatastore/internal/protobuild/output"
	"github.com/google/clouddatastore/internal/protobuild/plugin"
	"github.com/google/clouddatastore/internal/protobuild/schema"
	"github.com/google/clouddatastore/internal/protobuild/submodule"
	"github.com/google/clouddatastore/util/clock"
	"k8s.io/klog/v2"
)

// UnknownRevision is recorded in manifests when the schema revision cannot be
// determined.
const UnknownRevision = "unknown"

// Option configures a Generator.
type Option func(*Generator)

// WithTimeSource sets the clock used to timestamp staleness markers.
func WithTimeSource(ts clock.TimeSource) Option {
	return func(g *Generator) { g.ts = ts }
}

// WithPlugin runs p for the configured plugin called name, instead of the
// plugin the configuration describes.
func WithPlugin(name string, p plugin.Plugin) Option {
	return func(g *Generator) { g.plugins[name] = p }
}

// WithRevision records rev in manifests instead of the submodule's commit.
func WithRevision(rev string) Option {
	return func(g *Generator) { g.revision = rev }
}

// Generator regenerates the outputs described by a configuration.
type Generator struct {
	cfg      *config.Config
	root     string
	ts       clock.TimeSource
	plugins  map[string]plugin.Plugin
	revision string
}

// New returns a Generator for cfg. Relative paths in cfg are resolved against
// root.
func New(cfg *config.Config, root string, opts ...Option) *Generator {
	g := &Generator{cfg: cfg, root: root, ts: clock.System, plugins: make(map[string]plugin.Plugin)}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Generator) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(g.root, p)
}

// Run regenerates every output directory. On failure no output directory is
// modified and each existing one is marked stale.
func (g *Generator) Run(ctx context.Context) error {
	err := g.run(ctx)
	for _, dir := range g.cfg.OutDirs() {
		out := g.path(dir)
		if err != nil {
			if serr := output.MarkStale(out, err, g.ts.Now()); serr != nil {
				klog.Errorf("Marking %s stale: %v", out, serr)
			}
			continue
		}
		if cerr := output.ClearStale(out); cerr != nil {
			klog.Warningf("Clearing stale marker of %s: %v", out, cerr)
		}
	}
	return err
}

func (g *Generator) run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	importPaths := make([]string, 0, len(g.cfg.ImportPaths))
	for _, p := range g.cfg.ImportPaths {
		importPaths = append(importPaths, g.path(p))
	}
	req, err := schema.Compile(ctx, importPaths, g.cfg.Files)
	if err != nil {
		return err
	}
	klog.Infof("Compiled %d files (%d to generate)", len(req.GetProtoFile()), len(req.GetFileToGenerate()))

	byOut := make(map[string][]output.File)
	for _, pc := range g.cfg.Plugins {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, ok := g.plugins[pc.Name]
		if !ok {
			if p, err = plugin.FromConfig(pc); err != nil {
				return err
			}
		}
		files, err := plugin.Run(ctx, p, req, pc.Parameter)
		if err != nil {
			return err
		}
		dir := filepath.Clean(g.cfg.OutFor(pc))
		for _, f := range files {
			byOut[dir] = append(byOut[dir], output.File{Path: f.Name, Content: f.Content})
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rev := g.schemaRevision()
	var staged []*output.Staged
	defer func() {
		for _, s := range staged {
			if err := s.Discard(); err != nil {
				klog.Warningf("Removing staged %s: %v", s.Out(), err)
			}
		}
	}()
	for _, dir := range g.cfg.OutDirs() {
		s, err := output.Stage(g.path(dir), byOut[dir], rev)
		if err != nil {
			return fmt.Errorf("%s: %v", dir, err)
		}
		staged = append(staged, s)
	}
	for _, s := range staged {
		if err := s.Commit(); err != nil {
			return err
		}
		klog.Infof("Wrote %s", s.Out())
	}
	return nil
}

func (g *Generator) schemaRevision() string {
	if g.revision != "" {
		return g.revision
	}
	if g.cfg.Submodule == "" {
		return UnknownRevision
	}
	rev, err := submodule.Revision(g.path(g.cfg.Submodule))
	if err != nil {
		klog.Warningf("Reading revision of %s: %v", g.cfg.Submodule, err)
		return UnknownRevision
	}
	return rev
}
