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

// Package schema parses and links .proto files into the request handed to
// code generator plugins.
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"github.com/bufbuild/protocompile/reporter"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"
	"k8s.io/klog/v2"
)

// Compile parses files, resolving imports against importPaths and the
// well-known types, and returns a CodeGeneratorRequest for them. The request
// holds every transitively imported file in dependency order, with files
// listed in FileToGenerate. Any parse or link error fails the whole
// compilation.
func Compile(ctx context.Context, importPaths, files []string) (*pluginpb.CodeGeneratorRequest, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to compile")
	}
	var errs []error
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			ImportPaths: importPaths,
		}),
		SourceInfoMode: protocompile.SourceInfoStandard,
		Reporter: reporter.NewReporter(
			func(err reporter.ErrorWithPos) error {
				errs = append(errs, err)
				return nil
			},
			func(err reporter.ErrorWithPos) {
				klog.Warningf("%v", err)
			},
		),
	}
	linked, err := compiler.Compile(ctx, files...)
	if len(errs) > 0 {
		err = errors.Join(errs...)
	}
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", strings.Join(files, ", "), err)
	}

	req := &pluginpb.CodeGeneratorRequest{FileToGenerate: append([]string(nil), files...)}
	seen := make(map[string]bool)
	for _, f := range linked {
		req.ProtoFile = appendFile(req.ProtoFile, f, seen)
	}
	klog.V(1).Infof("Compiled %d files, %d including imports", len(files), len(req.ProtoFile))
	return req, nil
}

// appendFile appends fd after its imports, each file once.
func appendFile(out []*descriptorpb.FileDescriptorProto, fd protoreflect.FileDescriptor, seen map[string]bool) []*descriptorpb.FileDescriptorProto {
	if seen[fd.Path()] {
		return out
	}
	seen[fd.Path()] = true
	imports := fd.Imports()
	for i := 0; i < imports.Len(); i++ {
		out = appendFile(out, imports.Get(i).FileDescriptor, seen)
	}
	// Compiled files keep the parsed descriptor; standard imports are
	// converted from the registry.
	if r, ok := fd.(linker.Result); ok {
		return append(out, r.FileDescriptorProto())
	}
	return append(out, protodesc.ToFileDescriptorProto(fd))
}
