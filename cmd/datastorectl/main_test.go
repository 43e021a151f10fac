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

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/google/clouddatastore/client"
	"github.com/google/clouddatastore/entity"
	"github.com/google/clouddatastore/testonly/fakedatastore"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/testing/protocmp"
)

func TestParseProperty(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	for _, test := range []struct {
		arg      string
		wantName string
		want     *datastorepb.Value
		wantErr  bool
	}{
		{arg: "title=Moby-Dick", wantName: "title", want: entity.StringValue("Moby-Dick")},
		{arg: "pages=635", wantName: "pages", want: entity.IntValue(635)},
		{arg: "rating=4.5", wantName: "rating", want: entity.DoubleValue(4.5)},
		{arg: "word=nan", wantName: "word", want: entity.StringValue("nan")},
		{arg: "read=true", wantName: "read", want: entity.BoolValue(true)},
		{arg: "at=2026-01-02T03:04:05.000000006Z", wantName: "at", want: entity.TimeValue(ts)},
		{arg: "empty=", wantName: "empty", want: entity.StringValue("")},
		{arg: "eq=a=b", wantName: "eq", want: entity.StringValue("a=b")},
		{arg: "isbn:string=0142437247", wantName: "isbn", want: entity.StringValue("0142437247")},
		{arg: "n:int=7", wantName: "n", want: entity.IntValue(7)},
		{arg: "d:double=7", wantName: "d", want: entity.DoubleValue(7)},
		{arg: "b:bool=1", wantName: "b", want: entity.BoolValue(true)},
		{arg: "t:time=2026-01-02T03:04:05.000000006Z", wantName: "t", want: entity.TimeValue(ts)},
		{arg: "gone:null=", wantName: "gone", want: entity.NullValue()},
		{arg: "n:int=x", wantErr: true},
		{arg: "t:time=yesterday", wantErr: true},
		{arg: "x:blob=00", wantErr: true},
		{arg: "noequals", wantErr: true},
		{arg: "=value", wantErr: true},
		{arg: ":int=1", wantErr: true},
	} {
		name, v, err := parseProperty(test.arg)
		if gotErr := err != nil; gotErr != test.wantErr {
			t.Errorf("parseProperty(%q) = %v, wantErr %v", test.arg, err, test.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if name != test.wantName {
			t.Errorf("parseProperty(%q) name = %q, want %q", test.arg, name, test.wantName)
		}
		if diff := cmp.Diff(test.want, v, protocmp.Transform()); diff != "" {
			t.Errorf("parseProperty(%q) value diff (-want +got):\n%s", test.arg, diff)
		}
	}
}

func parseOutput(t *testing.T, out string) []*datastorepb.Entity {
	t.Helper()
	var es []*datastorepb.Entity
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		e := &datastorepb.Entity{}
		if err := protojson.Unmarshal([]byte(line), e); err != nil {
			t.Fatalf("output line %q: %v", line, err)
		}
		es = append(es, e)
	}
	return es
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	srv := fakedatastore.New()
	addr, stop, err := srv.Start()
	if err != nil {
		t.Fatalf("Start(): %v", err)
	}
	defer stop()

	exec := func(verb string, args ...string) (string, error) {
		var out bytes.Buffer
		err := run(ctx, &ctlOpts{
			project:    "p",
			verb:       verb,
			args:       args,
			clientOpts: []client.Option{client.WithEmulator(addr)},
		}, &out)
		return out.String(), err
	}

	moby := entity.NewBuilder().
		WithKeyName("Book", "moby").
		AddString("title", "Moby-Dick", true).
		AddInt("pages", 635, true).
		Build()

	out, err := exec("put", "Book", "moby", "title=Moby-Dick", "pages=635")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if diff := cmp.Diff([]*datastorepb.Entity{moby}, parseOutput(t, out), protocmp.Transform()); diff != "" {
		t.Errorf("put output diff (-want +got):\n%s", diff)
	}
	if _, err := exec("put", "Book", "emma", "title=Emma"); err != nil {
		t.Fatalf("put: %v", err)
	}

	out, err = exec("get", "Book", "moby")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff([]*datastorepb.Entity{moby}, parseOutput(t, out), protocmp.Transform()); diff != "" {
		t.Errorf("get output diff (-want +got):\n%s", diff)
	}

	for _, verb := range []string{"list", "gql"} {
		args := []string{"Book"}
		if verb == "gql" {
			args = []string{"SELECT", "*", "FROM", "Book"}
		}
		out, err := exec(verb, args...)
		if err != nil {
			t.Fatalf("%s: %v", verb, err)
		}
		if got := len(parseOutput(t, out)); got != 2 {
			t.Errorf("%s printed %d entities, want 2", verb, got)
		}
	}

	if _, err := exec("delete", "Book", "moby"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := exec("get", "Book", "moby"); !errors.Is(err, errNotFound) {
		t.Errorf("get after delete = %v, want errNotFound", err)
	}
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	for _, test := range []struct {
		desc    string
		opts    *ctlOpts
		wantErr string
	}{
		{desc: "no project", opts: &ctlOpts{verb: "list", args: []string{"Book"}}, wantErr: "--project"},
		{desc: "unknown verb", opts: &ctlOpts{project: "p", verb: "drop"}, wantErr: "unknown command"},
		{desc: "no verb", opts: &ctlOpts{project: "p"}, wantErr: "unknown command"},
		{desc: "missing args", opts: &ctlOpts{project: "p", verb: "get", args: []string{"Book"}}, wantErr: "usage: get KIND NAME"},
		{desc: "extra args", opts: &ctlOpts{project: "p", verb: "list", args: []string{"Book", "x"}}, wantErr: "usage: list KIND"},
	} {
		err := run(ctx, test.opts, &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), test.wantErr) {
			t.Errorf("%s: run() = %v, want error containing %q", test.desc, err, test.wantErr)
		}
	}
}
