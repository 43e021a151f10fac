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

// Package client is a Cloud Datastore client built directly on the v1 gRPC
// API.
//
// Single entity writes are committed non-transactionally. Multi entity writes
// are committed atomically in a single-use read-write transaction. Every RPC
// carries the x-goog-request-params routing header for the client's project
// and database.
package client

import (
	"context"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/google/clouddatastore/client/backoff"
	"github.com/google/clouddatastore/entity"
	dserrors "github.com/google/clouddatastore/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"k8s.io/klog/v2"
)

// Client talks to a single Datastore database. It is safe for concurrent use.
type Client struct {
	projectID  string
	databaseID string
	namespace  string
	params     string
	ds         datastorepb.DatastoreClient
	conn       *grpc.ClientConn // Owned connection, nil when supplied by the caller.
	retry      *backoff.Backoff
}

// New creates a client for projectID. Without options it dials the production
// endpoint using Application Default Credentials, or the emulator named by
// DATASTORE_EMULATOR_HOST when that is set.
func New(ctx context.Context, projectID string, opts ...Option) (*Client, error) {
	if projectID == "" {
		return nil, dserrors.Errorf(dserrors.Config, "New", "project ID must not be empty")
	}
	s := &settings{timeout: DefaultTimeout}
	for _, o := range opts {
		o(s)
	}

	c := &Client{
		projectID:  projectID,
		databaseID: s.databaseID,
		namespace:  s.namespace,
		params:     requestParams(projectID, s.databaseID),
		retry:      s.retry,
	}
	cc := s.conn
	if cc == nil {
		conn, err := dial(ctx, s)
		if err != nil {
			return nil, err
		}
		c.conn = conn
		cc = conn
	}
	c.ds = datastorepb.NewDatastoreClient(cc)
	return c, nil
}

// NewFromConn creates a client for projectID that sends its RPCs over conn.
// The caller keeps ownership of conn.
func NewFromConn(ctx context.Context, conn grpc.ClientConnInterface, projectID string, opts ...Option) (*Client, error) {
	return New(ctx, projectID, append(opts, WithGRPCConn(conn))...)
}

// Close releases the connection if the client dialed it.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// ProjectID returns the project the client was created for.
func (c *Client) ProjectID() string { return c.projectID }

// DatabaseID returns the database the client was created for. Empty means the
// default database.
func (c *Client) DatabaseID() string { return c.databaseID }

// call runs f with the routing header attached, retrying Unavailable errors
// when idempotent and the client has a retry policy.
func (c *Client) call(ctx context.Context, op string, idempotent bool, f func(ctx context.Context) error) error {
	ctx = withRequestParams(ctx, c.params)
	if !idempotent || c.retry == nil {
		return dserrors.New(dserrors.RPC, op, f(ctx))
	}
	b := *c.retry
	b.Reset()
	err := b.Retry(ctx, func() error { return f(ctx) }, codes.Unavailable)
	return dserrors.New(dserrors.RPC, op, err)
}

func (c *Client) commit(ctx context.Context, op string, transactional bool, muts []*datastorepb.Mutation) (*datastorepb.CommitResponse, error) {
	req := &datastorepb.CommitRequest{
		ProjectId:  c.projectID,
		DatabaseId: c.databaseID,
		Mode:       datastorepb.CommitRequest_NON_TRANSACTIONAL,
		Mutations:  muts,
	}
	if transactional {
		req.Mode = datastorepb.CommitRequest_TRANSACTIONAL
		req.TransactionSelector = &datastorepb.CommitRequest_SingleUseTransaction{
			SingleUseTransaction: &datastorepb.TransactionOptions{
				Mode: &datastorepb.TransactionOptions_ReadWrite_{ReadWrite: &datastorepb.TransactionOptions_ReadWrite{}},
			},
		}
	}
	var resp *datastorepb.CommitResponse
	err := c.call(ctx, op, false, func(ctx context.Context) error {
		var err error
		resp, err = c.ds.Commit(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	klog.V(2).Infof("%s: committed %d mutations, %d index updates", op, len(muts), resp.GetIndexUpdates())
	return resp, nil
}

func upsert(e *datastorepb.Entity) *datastorepb.Mutation {
	return &datastorepb.Mutation{Operation: &datastorepb.Mutation_Upsert{Upsert: e}}
}

func deletion(k *datastorepb.Key) *datastorepb.Mutation {
	return &datastorepb.Mutation{Operation: &datastorepb.Mutation_Delete{Delete: k}}
}

// writeMulti commits muts in a single-use transaction, and does nothing for
// an empty list.
func (c *Client) writeMulti(ctx context.Context, op string, muts []*datastorepb.Mutation) (*datastorepb.CommitResponse, error) {
	if len(muts) == 0 {
		return &datastorepb.CommitResponse{}, nil
	}
	return c.commit(ctx, op, true, muts)
}

// Upsert writes e, inserting it or replacing an existing entity with the same
// key. The write is not transactional.
func (c *Client) Upsert(ctx context.Context, e *datastorepb.Entity) (*datastorepb.CommitResponse, error) {
	return c.commit(ctx, "Upsert", false, []*datastorepb.Mutation{upsert(e)})
}

// UpsertMulti writes all entities in one atomic commit. An empty list is a
// no-op that makes no RPC.
func (c *Client) UpsertMulti(ctx context.Context, es []*datastorepb.Entity) (*datastorepb.CommitResponse, error) {
	muts := make([]*datastorepb.Mutation, 0, len(es))
	for _, e := range es {
		muts = append(muts, upsert(e))
	}
	return c.writeMulti(ctx, "UpsertMulti", muts)
}

// Insert writes e, failing with AlreadyExists if an entity with its key
// exists.
func (c *Client) Insert(ctx context.Context, e *datastorepb.Entity) (*datastorepb.CommitResponse, error) {
	return c.commit(ctx, "Insert", false, []*datastorepb.Mutation{{Operation: &datastorepb.Mutation_Insert{Insert: e}}})
}

// Update replaces e, failing with NotFound if no entity with its key exists.
func (c *Client) Update(ctx context.Context, e *datastorepb.Entity) (*datastorepb.CommitResponse, error) {
	return c.commit(ctx, "Update", false, []*datastorepb.Mutation{{Operation: &datastorepb.Mutation_Update{Update: e}}})
}

// Put encodes v and upserts it.
func (c *Client) Put(ctx context.Context, v entity.Encoder) (*datastorepb.CommitResponse, error) {
	e, err := v.ToEntity()
	if err != nil {
		return nil, dserrors.New(dserrors.Conversion, "Put", entity.NewConversionError(err))
	}
	return c.Upsert(ctx, e)
}

// PutMulti encodes every value and upserts them in one atomic commit.
func PutMulti[T entity.Encoder](ctx context.Context, c *Client, vs []T) (*datastorepb.CommitResponse, error) {
	es := make([]*datastorepb.Entity, 0, len(vs))
	for _, v := range vs {
		e, err := v.ToEntity()
		if err != nil {
			return nil, dserrors.New(dserrors.Conversion, "PutMulti", entity.NewConversionError(err))
		}
		es = append(es, e)
	}
	return c.UpsertMulti(ctx, es)
}

// Delete removes the entity with key k. Deleting a missing entity succeeds.
func (c *Client) Delete(ctx context.Context, k *datastorepb.Key) (*datastorepb.CommitResponse, error) {
	return c.commit(ctx, "Delete", false, []*datastorepb.Mutation{deletion(k)})
}

// DeleteMulti removes all keys in one atomic commit. An empty list is a no-op
// that makes no RPC.
func (c *Client) DeleteMulti(ctx context.Context, keys []*datastorepb.Key) (*datastorepb.CommitResponse, error) {
	muts := make([]*datastorepb.Mutation, 0, len(keys))
	for _, k := range keys {
		muts = append(muts, deletion(k))
	}
	return c.writeMulti(ctx, "DeleteMulti", muts)
}

// AllocateIDs completes the given incomplete keys with server assigned IDs.
func (c *Client) AllocateIDs(ctx context.Context, keys []*datastorepb.Key) ([]*datastorepb.Key, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	req := &datastorepb.AllocateIdsRequest{ProjectId: c.projectID, DatabaseId: c.databaseID, Keys: keys}
	var resp *datastorepb.AllocateIdsResponse
	err := c.call(ctx, "AllocateIDs", false, func(ctx context.Context) error {
		var err error
		resp, err = c.ds.AllocateIds(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp.GetKeys(), nil
}
