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

//go:build protobuild

// The protobuild binary regenerates the Datastore protobuf bindings from the
// vendored googleapis schema, as described by protobuild.yaml. It rewrites
// tracked files, so it only builds with the protobuild tag:
//
// $ go run -tags protobuild ./cmd/protobuild --config=protobuild.yaml --sync
package main

import (
	"context"
	"flag"
	"path/filepath"

	"github.com/google/clouddatastore/internal/protobuild"
	"github.com/google/clouddatastore/internal/protobuild/config"
	"github.com/google/clouddatastore/internal/protobuild/submodule"
	"k8s.io/klog/v2"
)

var (
	configFile = flag.String("config", "protobuild.yaml", "Generator configuration; paths in it are relative to its directory")
	syncFirst  = flag.Bool("sync", false, "Advance the schema submodule to its upstream head before generating")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()
	ctx := context.Background()

	cfg, err := config.Load(*configFile)
	if err != nil {
		klog.Exitf("Failed to load config: %v", err)
	}
	root := filepath.Dir(*configFile)

	if *syncFirst {
		if cfg.Submodule == "" {
			klog.Exitf("--sync needs a submodule in %s", *configFile)
		}
		res, err := submodule.New(root, cfg.Submodule).Sync(ctx)
		if err != nil {
			klog.Exitf("Failed to sync %s: %v", cfg.Submodule, err)
		}
		klog.Infof("Schema at %s (changed: %v)", res.New, res.Changed)
	}

	if err := protobuild.New(cfg, root).Run(ctx); err != nil {
		klog.Exitf("Generation failed, previous output kept: %v", err)
	}
}
