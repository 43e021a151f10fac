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

package client

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/google/clouddatastore/client/backoff"
	"github.com/google/clouddatastore/entity"
	"github.com/google/clouddatastore/testonly/fakedatastore"
	"github.com/google/clouddatastore/util/clock"
)

const testProject = "test-project"

// book is the Go type used throughout the client tests.
type book struct {
	ID     string
	Title  string
	Author string
	Tags   []string
}

func (b *book) Kind() string { return "Book" }

func (b *book) ToEntity() (*datastorepb.Entity, error) {
	return entity.NewBuilder().
		WithKeyName("Book", b.ID).
		AddString("title", b.Title, true).
		AddString("author", b.Author, true).
		AddStringArray("tags", b.Tags).
		Build(), nil
}

func (b *book) FromEntity(e *datastorepb.Entity) error {
	k, err := entity.ReqKey(e, "Book")
	if err != nil {
		return err
	}
	if b.ID, err = entity.Name(k); err != nil {
		return err
	}
	if b.Title, err = entity.ReqString(e, "title"); err != nil {
		return err
	}
	if b.Author, err = entity.ReqString(e, "author"); err != nil {
		return err
	}
	tags, _, err := entity.OptStringArray(e, "tags")
	b.Tags = tags
	return err
}

func bookKey(id string) *datastorepb.Key { return entity.NameKey("Book", id, nil) }

// testRetry retries without sleeping.
func testRetry() *backoff.Backoff {
	return &backoff.Backoff{
		Min:         time.Millisecond,
		Max:         time.Millisecond,
		Factor:      1,
		MaxAttempts: 3,
		TimeSource:  &clock.PredefinedFake{Base: time.Unix(0, 0)},
	}
}

// newTestClient starts a fake Datastore, configured by setup before it
// serves, and returns a client connected to it.
func newTestClient(t *testing.T, setup func(*fakedatastore.Server), opts ...Option) (*Client, *fakedatastore.Server) {
	t.Helper()
	s := fakedatastore.New()
	if setup != nil {
		setup(s)
	}
	addr, stop, err := s.Start()
	if err != nil {
		t.Fatalf("Start(): %v", err)
	}
	t.Cleanup(stop)

	c, err := New(context.Background(), testProject, append([]Option{WithEmulator(addr)}, opts...)...)
	if err != nil {
		t.Fatalf("New(): %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, s
}
