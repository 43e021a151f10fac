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
	"bytes"
	"context"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/google/clouddatastore/entity"
	dserrors "github.com/google/clouddatastore/errors"
	"google.golang.org/protobuf/proto"
	"k8s.io/klog/v2"
)

// KindQuery returns a query matching every entity of kind.
func KindQuery(kind string) *datastorepb.Query {
	return &datastorepb.Query{Kind: []*datastorepb.KindExpression{{Name: kind}}}
}

// RunQuery sends req as is, after filling in the project, the database and,
// when req has no partition, the client's namespace. It returns a single
// batch of results.
func (c *Client) RunQuery(ctx context.Context, req *datastorepb.RunQueryRequest) (*datastorepb.RunQueryResponse, error) {
	return c.runQuery(ctx, "RunQuery", req)
}

func (c *Client) runQuery(ctx context.Context, op string, req *datastorepb.RunQueryRequest) (*datastorepb.RunQueryResponse, error) {
	req.ProjectId = c.projectID
	req.DatabaseId = c.databaseID
	if req.PartitionId == nil && c.namespace != "" {
		req.PartitionId = &datastorepb.PartitionId{ProjectId: c.projectID, DatabaseId: c.databaseID, NamespaceId: c.namespace}
	}
	var resp *datastorepb.RunQueryResponse
	err := c.call(ctx, op, true, func(ctx context.Context) error {
		var err error
		resp, err = c.ds.RunQuery(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// RunGQL runs a GQL query string. Literal values are allowed in the query.
func (c *Client) RunGQL(ctx context.Context, gql string) (*datastorepb.RunQueryResponse, error) {
	return c.runQuery(ctx, "RunGQL", &datastorepb.RunQueryRequest{
		QueryType: &datastorepb.RunQueryRequest_GqlQuery{
			GqlQuery: &datastorepb.GqlQuery{QueryString: gql, AllowLiterals: true},
		},
	})
}

// QueryAll runs q to completion, following end cursors from batch to batch,
// and returns every matching entity. q itself is not modified.
func (c *Client) QueryAll(ctx context.Context, q *datastorepb.Query) ([]*datastorepb.Entity, error) {
	return c.queryAll(ctx, "QueryAll", q, nil)
}

func (c *Client) queryAll(ctx context.Context, op string, q *datastorepb.Query, ro *datastorepb.ReadOptions) ([]*datastorepb.Entity, error) {
	q = proto.Clone(q).(*datastorepb.Query)
	var out []*datastorepb.Entity
	for page := 1; ; page++ {
		resp, err := c.runQuery(ctx, op, &datastorepb.RunQueryRequest{
			ReadOptions: ro,
			QueryType:   &datastorepb.RunQueryRequest_Query{Query: q},
		})
		if err != nil {
			return nil, err
		}
		batch := resp.GetBatch()
		for _, r := range batch.GetEntityResults() {
			out = append(out, r.GetEntity())
		}
		klog.V(2).Infof("%s: page %d returned %d entities, more=%v", op, page, len(batch.GetEntityResults()), batch.GetMoreResults())

		if batch.GetMoreResults() != datastorepb.QueryResultBatch_NOT_FINISHED {
			return out, nil
		}
		cursor := batch.GetEndCursor()
		if len(cursor) == 0 || bytes.Equal(cursor, q.GetStartCursor()) {
			return out, nil
		}
		q.StartCursor = cursor
		// The server may skip only part of the offset before ending a batch.
		if o := q.GetOffset(); o > 0 {
			q.Offset = max(0, o-batch.GetSkippedResults())
		}
		if l := q.GetLimit(); l != nil {
			remaining := l.GetValue() - int32(len(batch.GetEntityResults()))
			if remaining <= 0 {
				return out, nil
			}
			l.Value = remaining
		}
	}
}

// LoadAll loads every entity of kind and decodes each into a new T. An empty
// kind uses the Kind method of T when it implements entity.Kinded.
func LoadAll[T any, PT interface {
	*T
	entity.Decoder
}](ctx context.Context, c *Client, kind string) ([]PT, error) {
	if kind == "" {
		k, ok := any(PT(new(T))).(entity.Kinded)
		if !ok {
			return nil, dserrors.Errorf(dserrors.Config, "LoadAll", "no kind given and %T has no Kind method", PT(nil))
		}
		kind = k.Kind()
	}
	es, err := c.queryAll(ctx, "LoadAll", KindQuery(kind), nil)
	if err != nil {
		return nil, err
	}
	out := make([]PT, 0, len(es))
	for _, e := range es {
		v := PT(new(T))
		if err := v.FromEntity(e); err != nil {
			return nil, dserrors.New(dserrors.Conversion, "LoadAll", entity.NewConversionError(err))
		}
		out = append(out, v)
	}
	return out, nil
}
