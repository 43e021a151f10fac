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

// The protosync binary advances the vendored googleapis submodule to the head
// of its upstream repository.
//
// Example usage:
// $ go run ./cmd/protosync --repo_root=. --submodule=proto/googleapis
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/clouddatastore/internal/protobuild/submodule"
	"k8s.io/klog/v2"
)

var (
	repoRoot = flag.String("repo_root", ".", "Root of the repository containing the submodule")
	subPath  = flag.String("submodule", "proto/googleapis", "Path of the submodule, relative to --repo_root")
	branch   = flag.String("branch", "", "Upstream branch to track; defaults to the .gitmodules branch or the remote HEAD")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	var opts []submodule.Option
	if *branch != "" {
		opts = append(opts, submodule.WithBranch(*branch))
	}
	res, err := submodule.New(*repoRoot, *subPath, opts...).Sync(context.Background())
	if err != nil {
		klog.Exitf("Failed to sync %s: %v", *subPath, err)
	}
	if res.Changed {
		fmt.Printf("%s: %s -> %s\n", *subPath, res.Previous, res.New)
	} else {
		fmt.Printf("%s: up to date at %s\n", *subPath, res.New)
	}
}
