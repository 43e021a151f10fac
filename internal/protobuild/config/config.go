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

// Package config loads the protobuild.yaml file describing what bindings to
// generate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Plugin names the code generators run over the schema.
type Plugin struct {
	// Name identifies the plugin. "go" and "doc" are built in; any other
	// name requires Exec.
	Name string `yaml:"name"`
	// Exec is the protoc plugin binary to run, looked up in PATH.
	Exec string `yaml:"exec,omitempty"`
	// Parameter is passed to the plugin as the protoc parameter string.
	Parameter string `yaml:"parameter,omitempty"`
	// Out overrides Config.Out for this plugin.
	Out string `yaml:"out,omitempty"`
}

// Config is the contents of protobuild.yaml. Paths are relative to the
// directory holding the file.
type Config struct {
	// Submodule is the vendored schema repository, used by -sync and to
	// record the schema revision.
	Submodule   string   `yaml:"submodule,omitempty"`
	ImportPaths []string `yaml:"import_paths"`
	Files       []string `yaml:"files"`
	Out         string   `yaml:"out"`
	Plugins     []Plugin `yaml:"plugins"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration names something to generate and
// that every output directory stays within the project.
func (c *Config) Validate() error {
	if len(c.Files) == 0 {
		return errors.New("no files to generate")
	}
	if len(c.Plugins) == 0 {
		return errors.New("no plugins configured")
	}
	if err := checkRelative("out", c.Out); err != nil {
		return err
	}
	for _, f := range c.Files {
		if f == "" || path.IsAbs(f) || path.Clean(f) != f {
			return fmt.Errorf("file %q must be a clean relative proto path", f)
		}
	}
	seen := make(map[string]bool)
	for _, p := range c.Plugins {
		if p.Name == "" {
			return errors.New("plugin with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate plugin %q", p.Name)
		}
		seen[p.Name] = true
		if p.Exec == "" && p.Name != "go" && p.Name != "doc" {
			return fmt.Errorf("plugin %q is not built in and has no exec", p.Name)
		}
		if p.Out != "" {
			if err := checkRelative(fmt.Sprintf("plugin %q out", p.Name), p.Out); err != nil {
				return err
			}
		}
	}
	dirs := c.OutDirs()
	for i, a := range dirs {
		for _, b := range dirs[i+1:] {
			if within(a, b) || within(b, a) {
				return fmt.Errorf("output directories %q and %q overlap", a, b)
			}
		}
	}
	return nil
}

// within reports whether dir lies inside parent.
func within(dir, parent string) bool {
	return strings.HasPrefix(dir, parent+string(filepath.Separator))
}

func checkRelative(what, p string) error {
	if p == "" {
		return fmt.Errorf("%s must not be empty", what)
	}
	if filepath.IsAbs(p) {
		return fmt.Errorf("%s %q must be relative", what, p)
	}
	clean := filepath.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s %q must be below the project root", what, p)
	}
	return nil
}

// OutFor returns the output directory of the plugin.
func (c *Config) OutFor(p Plugin) string {
	if p.Out != "" {
		return p.Out
	}
	return c.Out
}

// OutDirs returns the distinct output directories in plugin order.
func (c *Config) OutDirs() []string {
	var dirs []string
	seen := make(map[string]bool)
	for _, p := range c.Plugins {
		d := filepath.Clean(c.OutFor(p))
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}
