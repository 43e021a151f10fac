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

// Package plugin runs protoc code generator plugins, in process or as
// subprocesses, over a compiled schema.
package plugin

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/clouddatastore/internal/protobuild/config"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"
	"k8s.io/klog/v2"
)

// Plugin is a protoc code generator.
type Plugin interface {
	Name() string
	Generate(ctx context.Context, req *pluginpb.CodeGeneratorRequest) (*pluginpb.CodeGeneratorResponse, error)
}

// File is a generated file, named relative to the plugin's output directory.
type File struct {
	Name    string
	Content []byte
}

// FromConfig returns the plugin described by p.
func FromConfig(p config.Plugin) (Plugin, error) {
	switch {
	case p.Exec != "":
		return &ExecPlugin{PluginName: p.Name, Path: p.Exec}, nil
	case p.Name == "go":
		return GoPlugin{}, nil
	case p.Name == "doc":
		return DocPlugin{}, nil
	}
	return nil, fmt.Errorf("unknown plugin %q", p.Name)
}

// Run sends req with the given parameter to p and returns the generated
// files sorted by name. req is not modified. A response carrying an error,
// a file without a name, an insertion point, or a schema using proto3
// optional fields that p does not support is a failure.
func Run(ctx context.Context, p Plugin, req *pluginpb.CodeGeneratorRequest, parameter string) ([]File, error) {
	req = proto.Clone(req).(*pluginpb.CodeGeneratorRequest)
	if parameter != "" {
		req.Parameter = proto.String(parameter)
	} else {
		req.Parameter = nil
	}

	resp, err := p.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %v", p.Name(), err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("plugin %s: %s", p.Name(), resp.GetError())
	}
	features := resp.GetSupportedFeatures()
	if usesProto3Optional(req) && features&uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL) == 0 {
		return nil, fmt.Errorf("plugin %s does not support proto3 optional fields", p.Name())
	}

	files := make([]File, 0, len(resp.GetFile()))
	for _, f := range resp.GetFile() {
		if f.GetName() == "" {
			return nil, fmt.Errorf("plugin %s: file with no name", p.Name())
		}
		if f.GetInsertionPoint() != "" {
			return nil, fmt.Errorf("plugin %s: insertion points are not supported (%s)", p.Name(), f.GetName())
		}
		files = append(files, File{Name: f.GetName(), Content: []byte(f.GetContent())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	klog.V(1).Infof("Plugin %s generated %d files", p.Name(), len(files))
	return files, nil
}

func usesProto3Optional(req *pluginpb.CodeGeneratorRequest) bool {
	generate := make(map[string]bool)
	for _, f := range req.GetFileToGenerate() {
		generate[f] = true
	}
	for _, f := range req.GetProtoFile() {
		if generate[f.GetName()] && messagesUseProto3Optional(f.GetMessageType()) {
			return true
		}
	}
	return false
}

func messagesUseProto3Optional(msgs []*descriptorpb.DescriptorProto) bool {
	for _, m := range msgs {
		for _, f := range m.GetField() {
			if f.GetProto3Optional() {
				return true
			}
		}
		if messagesUseProto3Optional(m.GetNestedType()) {
			return true
		}
	}
	return false
}
