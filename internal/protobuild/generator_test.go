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

package protobuild

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/clouddatastore/internal/protobuild/config"
	"github.com/google/clouddatastore/internal/protobuild/output"
	"github.com/google/clouddatastore/internal/protobuild/plugin"
	"github.com/google/clouddatastore/util/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"
)

var updateGolden = flag.Bool("update", false, "Rewrite the trees under testdata/golden from the current output")

var fakeNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func testdata(t *testing.T, dir string) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("testdata", dir))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// readTree returns the regular files under dir keyed by slash path.
func readTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	got := make(map[string]string)
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	return got
}

func keys(m map[string]string) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

func schemaConfig(t *testing.T, schema string, files ...string) *config.Config {
	return &config.Config{
		ImportPaths: []string{testdata(t, schema)},
		Files:       files,
		Out:         "gen",
		Plugins: []config.Plugin{
			{Name: "go", Parameter: "paths=source_relative"},
			{Name: "doc", Parameter: "markdown,api.md", Out: "docs"},
		},
	}
}

func TestRunIsDeterministic(t *testing.T) {
	ctx := context.Background()
	cfg := schemaConfig(t, "a", "example/v1/book.proto", "example/v1/library.proto")
	var trees [2]map[string]string
	for i := range trees {
		root := t.TempDir()
		if err := New(cfg, root, WithRevision("r1")).Run(ctx); err != nil {
			t.Fatalf("Run() #%d: %v", i, err)
		}
		trees[i] = readTree(t, root)
	}
	if diff := cmp.Diff(trees[0], trees[1]); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
	want := []string{
		"docs/" + output.ManifestName,
		"docs/api.md",
		"gen/" + output.ManifestName,
		"gen/example/v1/book.pb.go",
		"gen/example/v1/library.pb.go",
	}
	if diff := cmp.Diff(want, keys(trees[0]), cmpSorted); diff != "" {
		t.Errorf("generated files diff (-want +got):\n%s", diff)
	}
}

var cmpSorted = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func TestRunReplacesOutput(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	if err := New(schemaConfig(t, "a", "example/v1/book.proto", "example/v1/library.proto"), root).Run(ctx); err != nil {
		t.Fatalf("Run(a): %v", err)
	}
	if err := New(schemaConfig(t, "b", "example/v1/library.proto"), root).Run(ctx); err != nil {
		t.Fatalf("Run(b): %v", err)
	}
	got := readTree(t, filepath.Join(root, "gen"))
	want := []string{output.ManifestName, "example/v1/library.pb.go"}
	if diff := cmp.Diff(want, keys(got), cmpSorted); diff != "" {
		t.Errorf("files after second run diff (-want +got):\n%s", diff)
	}
	if strings.Contains(got["example/v1/library.pb.go"], "GetBookRequest") {
		t.Error("library.pb.go still holds the first schema")
	}
	if !strings.Contains(got[output.ManifestName], "revision "+UnknownRevision) {
		t.Errorf("manifest does not record the unknown revision:\n%s", got[output.ManifestName])
	}
}

func TestRunMalformedSchema(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	ts := clock.NewFake(fakeNow)
	if err := New(schemaConfig(t, "a", "example/v1/book.proto", "example/v1/library.proto"), root, WithTimeSource(ts)).Run(ctx); err != nil {
		t.Fatalf("Run(a): %v", err)
	}
	before := readTree(t, root)

	err := New(schemaConfig(t, "bad", "example/v1/library.proto"), root, WithTimeSource(ts)).Run(ctx)
	if err == nil {
		t.Fatal("Run(bad) succeeded")
	}
	after := readTree(t, root)
	for _, dir := range []string{"gen", "docs"} {
		marker := dir + "." + output.StaleName
		if !strings.Contains(after[marker], "2026-05-01T12:00:00Z") {
			t.Errorf("%s = %q, want a timestamped marker", marker, after[marker])
		}
		delete(after, marker)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("output changed by failed run (-before +after):\n%s", diff)
	}

	if err := New(schemaConfig(t, "a", "example/v1/book.proto", "example/v1/library.proto"), root).Run(ctx); err != nil {
		t.Fatalf("Run(a) again: %v", err)
	}
	if diff := cmp.Diff(before, readTree(t, root)); diff != "" {
		t.Errorf("successful rerun diff (-want +got):\n%s", diff)
	}
}

func TestRunFirstFailureWritesNothing(t *testing.T) {
	root := t.TempDir()
	if err := New(schemaConfig(t, "bad", "example/v1/library.proto"), root).Run(context.Background()); err == nil {
		t.Fatal("Run(bad) succeeded")
	}
	if got := readTree(t, root); len(got) != 0 {
		t.Errorf("failed first run wrote %v", keys(got))
	}
}

func stubConfig(t *testing.T) *config.Config {
	return &config.Config{
		ImportPaths: []string{testdata(t, "a")},
		Files:       []string{"example/v1/book.proto"},
		Out:         "gen",
		Plugins:     []config.Plugin{{Name: "stub", Exec: "protoc-gen-stub"}},
	}
}

func TestRunGolden(t *testing.T) {
	ctrl := gomock.NewController(t)
	stub := plugin.NewMockPlugin(ctrl)
	stub.EXPECT().Name().Return("stub").AnyTimes()
	stub.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *pluginpb.CodeGeneratorRequest) (*pluginpb.CodeGeneratorResponse, error) {
			if diff := cmp.Diff([]string{"example/v1/book.proto"}, req.GetFileToGenerate()); diff != "" {
				t.Errorf("FileToGenerate diff (-want +got):\n%s", diff)
			}
			return &pluginpb.CodeGeneratorResponse{File: []*pluginpb.CodeGeneratorResponse_File{
				{Name: proto.String("b.txt"), Content: proto.String("b\n")},
				{Name: proto.String("a/a.txt"), Content: proto.String("a\n")},
			}}, nil
		})

	root := t.TempDir()
	if err := New(stubConfig(t), root, WithPlugin("stub", stub), WithRevision("5f1c0ffee")).Run(context.Background()); err != nil {
		t.Fatalf("Run(): %v", err)
	}
	compareGolden(t, "stub", readTree(t, filepath.Join(root, "gen")))
}

// TestRunGoldenBuiltins pins what the go and doc plugins produce for
// testdata/a. Generated Go is reduced to its header and exported API and
// markdown to its headings, so a new generator version or a change in the
// bindings shows up as a readable diff.
func TestRunGoldenBuiltins(t *testing.T) {
	root := t.TempDir()
	cfg := schemaConfig(t, "a", "example/v1/book.proto", "example/v1/library.proto")
	if err := New(cfg, root, WithRevision("5f1c0ffee")).Run(context.Background()); err != nil {
		t.Fatalf("Run(): %v", err)
	}
	got := make(map[string]string)
	for name, content := range readTree(t, root) {
		switch {
		case strings.HasSuffix(name, ".go"):
			got[name] = goOutline(t, name, content)
		case strings.HasSuffix(name, ".md"):
			got[name] = markdownOutline(content)
		case path.Base(name) == output.ManifestName:
			got[name] = manifestOutline(content)
		default:
			t.Errorf("unexpected generated file %s", name)
		}
	}
	compareGolden(t, "builtin", got)
}

// compareGolden checks got against testdata/golden/<name>, where each file is
// stored with a .golden suffix. With -update the golden tree is rewritten.
func compareGolden(t *testing.T, name string, got map[string]string) {
	t.Helper()
	golden := filepath.Join(testdata(t, "golden"), name)
	if *updateGolden {
		if err := os.RemoveAll(golden); err != nil {
			t.Fatal(err)
		}
		for file, content := range got {
			p := filepath.Join(golden, filepath.FromSlash(file)+goldenSuffix)
			if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	want := make(map[string]string)
	for file, content := range readTree(t, golden) {
		want[strings.TrimSuffix(file, goldenSuffix)] = content
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output differs from testdata/golden/%s (-want +got):\n%s", name, diff)
	}
}

const goldenSuffix = ".golden"

// goOutline returns the header comment, the package clause and the exported
// declarations of a Go file, one per line.
func goOutline(t *testing.T, name, src string) string {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, name, src, 0)
	if err != nil {
		t.Fatalf("parsing %s: %v", name, err)
	}
	node := func(n ast.Node) string {
		var b strings.Builder
		if err := printer.Fprint(&b, fset, n); err != nil {
			t.Fatalf("printing %s: %v", name, err)
		}
		return b.String()
	}

	header, _, _ := strings.Cut(src, "\npackage ")
	var b strings.Builder
	fmt.Fprintf(&b, "%s\npackage %s\n\n", header, f.Name.Name)
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if !d.Name.IsExported() {
				continue
			}
			recv := ""
			if d.Recv != nil && len(d.Recv.List) == 1 {
				recv = "(" + node(d.Recv.List[0].Type) + ") "
			}
			fmt.Fprintf(&b, "func %s%s%s\n", recv, d.Name.Name, strings.TrimPrefix(node(d.Type), "func"))
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch sp := spec.(type) {
				case *ast.TypeSpec:
					if !sp.Name.IsExported() {
						continue
					}
					st, ok := sp.Type.(*ast.StructType)
					if !ok {
						fmt.Fprintf(&b, "type %s %s\n", sp.Name.Name, node(sp.Type))
						continue
					}
					fmt.Fprintf(&b, "type %s struct\n", sp.Name.Name)
					for _, field := range st.Fields.List {
						for _, n := range field.Names {
							if !n.IsExported() {
								continue
							}
							line := "\t" + n.Name + " " + node(field.Type)
							if field.Tag != nil {
								line += " " + field.Tag.Value
							}
							b.WriteString(line + "\n")
						}
					}
				case *ast.ValueSpec:
					for _, n := range sp.Names {
						if n.IsExported() && sp.Type != nil {
							fmt.Fprintf(&b, "%s %s %s\n", d.Tok, n.Name, node(sp.Type))
						}
					}
				}
			}
		}
	}
	return b.String()
}

// markdownOutline returns the headings of a markdown document.
func markdownOutline(doc string) string {
	var b strings.Builder
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(line, "#") {
			b.WriteString(strings.TrimRight(line, " \t") + "\n")
		}
	}
	return b.String()
}

// manifestOutline replaces the file digests of a manifest with a placeholder.
func manifestOutline(m string) string {
	lines := strings.Split(m, "\n")
	for i, line := range lines {
		if sum, p, ok := strings.Cut(line, "  "); ok && len(sum) == 64 {
			lines[i] = "<sha256>  " + p
		}
	}
	return strings.Join(lines, "\n")
}

func TestRunPluginFailure(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	ctrl := gomock.NewController(t)
	stub := plugin.NewMockPlugin(ctrl)
	stub.EXPECT().Name().Return("stub").AnyTimes()
	gomock.InOrder(
		stub.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(&pluginpb.CodeGeneratorResponse{
			File: []*pluginpb.CodeGeneratorResponse_File{{Name: proto.String("a.txt"), Content: proto.String("a")}},
		}, nil),
		stub.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(nil, errors.New("plugin crashed")),
	)

	if err := New(stubConfig(t), root, WithPlugin("stub", stub)).Run(ctx); err != nil {
		t.Fatalf("Run(): %v", err)
	}
	before := readTree(t, filepath.Join(root, "gen"))

	err := New(stubConfig(t), root, WithPlugin("stub", stub), WithTimeSource(clock.NewFake(fakeNow))).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "plugin crashed") {
		t.Fatalf("Run() = %v, want plugin failure", err)
	}
	if diff := cmp.Diff(before, readTree(t, filepath.Join(root, "gen"))); diff != "" {
		t.Errorf("output changed by failed run (-before +after):\n%s", diff)
	}
	marker, err := os.ReadFile(output.StalePath(filepath.Join(root, "gen")))
	if err != nil || !strings.Contains(string(marker), "plugin crashed") {
		t.Errorf("stale marker = %q, %v, want the plugin error", marker, err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := t.TempDir()
	if err := New(schemaConfig(t, "a", "example/v1/book.proto"), root).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() with cancelled context = %v, want context.Canceled", err)
	}
}
