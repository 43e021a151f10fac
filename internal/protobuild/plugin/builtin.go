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

package plugin

import (
	"context"

	gendoc "github.com/pseudomuto/protoc-gen-doc"
	gengo "google.golang.org/protobuf/cmd/protoc-gen-go/internal_gengo"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/types/pluginpb"
)

// GoPlugin is protoc-gen-go, run in process.
type GoPlugin struct{}

// Name implements Plugin.
func (GoPlugin) Name() string { return "go" }

// Generate implements Plugin.
func (GoPlugin) Generate(_ context.Context, req *pluginpb.CodeGeneratorRequest) (*pluginpb.CodeGeneratorResponse, error) {
	gen, err := protogen.Options{}.New(req)
	if err != nil {
		return nil, err
	}
	for _, f := range gen.Files {
		if f.Generate {
			gengo.GenerateFile(gen, f)
		}
	}
	gen.SupportedFeatures = gengo.SupportedFeatures
	gen.SupportedEditionsMinimum = gengo.SupportedEditionsMinimum
	gen.SupportedEditionsMaximum = gengo.SupportedEditionsMaximum
	return gen.Response(), nil
}

// DocPlugin is protoc-gen-doc, run in process. Its parameter is
// "TEMPLATE,FILENAME", e.g. "markdown,api.md".
type DocPlugin struct{}

// Name implements Plugin.
func (DocPlugin) Name() string { return "doc" }

// Generate implements Plugin.
func (DocPlugin) Generate(_ context.Context, req *pluginpb.CodeGeneratorRequest) (*pluginpb.CodeGeneratorResponse, error) {
	resp, err := (&gendoc.Plugin{}).Generate(req)
	if err != nil {
		return nil, err
	}
	resp.SupportedFeatures = proto3Optional()
	return resp, nil
}

func proto3Optional() *uint64 {
	f := uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)
	return &f
}
