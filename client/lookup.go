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
	"sync"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/google/clouddatastore/entity"
	dserrors "github.com/google/clouddatastore/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

const (
	// maxLookupKeys is the largest number of keys Datastore accepts in one
	// LookupRequest.
	maxLookupKeys = 1000
	// maxConcurrentLookups bounds the chunks of a LookupMulti in flight.
	maxConcurrentLookups = 8
)

// keyID identifies a key within a single lookup, across namespaces.
func keyID(k *datastorepb.Key) string {
	return k.GetPartitionId().GetNamespaceId() + "\x00" + entity.KeyString(k)
}

// LookupEntity fetches the entity with key k. It returns nil, nil when no
// such entity exists.
func (c *Client) LookupEntity(ctx context.Context, k *datastorepb.Key) (*datastorepb.Entity, error) {
	es, err := c.lookup(ctx, "Lookup", []*datastorepb.Key{k}, nil)
	if err != nil {
		return nil, err
	}
	return es[0], nil
}

// Lookup fetches the entity with key k into dst. It returns false, and leaves
// dst untouched, when no such entity exists.
func (c *Client) Lookup(ctx context.Context, k *datastorepb.Key, dst entity.Decoder) (bool, error) {
	e, err := c.LookupEntity(ctx, k)
	if err != nil || e == nil {
		return false, err
	}
	if err := dst.FromEntity(e); err != nil {
		return false, dserrors.New(dserrors.Conversion, "Lookup", entity.NewConversionError(err))
	}
	return true, nil
}

// LookupMulti fetches the entities for keys. The result is aligned with keys
// and holds nil for keys with no entity. Large key sets are split into
// concurrent requests, and keys deferred by the server are fetched again
// until every key is resolved.
func (c *Client) LookupMulti(ctx context.Context, keys []*datastorepb.Key) ([]*datastorepb.Entity, error) {
	return c.lookup(ctx, "LookupMulti", keys, nil)
}

func (c *Client) lookup(ctx context.Context, op string, keys []*datastorepb.Key, ro *datastorepb.ReadOptions) ([]*datastorepb.Entity, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var mu sync.Mutex
	found := make(map[string]*datastorepb.Entity, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for start := 0; start < len(keys); start += maxLookupKeys {
		end := min(start+maxLookupKeys, len(keys))
		chunk := keys[start:end]
		g.Go(func() error {
			es, err := c.lookupChunk(gctx, op, chunk, ro)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, e := range es {
				found[keyID(e.GetKey())] = e
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*datastorepb.Entity, len(keys))
	for i, k := range keys {
		out[i] = found[keyID(k)]
	}
	return out, nil
}

// lookupChunk looks up at most maxLookupKeys keys, following deferred keys.
func (c *Client) lookupChunk(ctx context.Context, op string, keys []*datastorepb.Key, ro *datastorepb.ReadOptions) ([]*datastorepb.Entity, error) {
	var found []*datastorepb.Entity
	for pending := keys; len(pending) > 0; {
		req := &datastorepb.LookupRequest{
			ProjectId:   c.projectID,
			DatabaseId:  c.databaseID,
			ReadOptions: ro,
			Keys:        pending,
		}
		var resp *datastorepb.LookupResponse
		err := c.call(ctx, op, true, func(ctx context.Context) error {
			var err error
			resp, err = c.ds.Lookup(ctx, req)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, r := range resp.GetFound() {
			found = append(found, r.GetEntity())
		}
		pending = resp.GetDeferred()
		if len(pending) > 0 {
			klog.V(1).Infof("%s: %d keys deferred, retrying", op, len(pending))
		}
	}
	return found, nil
}
