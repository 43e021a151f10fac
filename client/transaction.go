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
	"errors"
	"sync"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/google/clouddatastore/entity"
	dserrors "github.com/google/clouddatastore/errors"
	"google.golang.org/grpc/codes"
	"k8s.io/klog/v2"
)

// ErrTransactionDone is returned when a transaction is used after Commit or
// Rollback.
var ErrTransactionDone = errors.New("transaction already committed or rolled back")

// Transaction is a read-write transaction. Reads observe a consistent
// snapshot, and writes are buffered until Commit.
type Transaction struct {
	c  *Client
	id []byte

	mu   sync.Mutex
	muts []*datastorepb.Mutation
	done bool
}

// BeginTransaction starts a read-write transaction.
func (c *Client) BeginTransaction(ctx context.Context) (*Transaction, error) {
	return c.beginTransaction(ctx, nil)
}

func (c *Client) beginTransaction(ctx context.Context, previous []byte) (*Transaction, error) {
	req := &datastorepb.BeginTransactionRequest{
		ProjectId:  c.projectID,
		DatabaseId: c.databaseID,
		TransactionOptions: &datastorepb.TransactionOptions{
			Mode: &datastorepb.TransactionOptions_ReadWrite_{
				ReadWrite: &datastorepb.TransactionOptions_ReadWrite{PreviousTransaction: previous},
			},
		},
	}
	var resp *datastorepb.BeginTransactionResponse
	err := c.call(ctx, "BeginTransaction", true, func(ctx context.Context) error {
		var err error
		resp, err = c.ds.BeginTransaction(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Transaction{c: c, id: resp.GetTransaction()}, nil
}

// ID returns the server assigned transaction identifier.
func (t *Transaction) ID() []byte { return t.id }

func (t *Transaction) readOptions() *datastorepb.ReadOptions {
	return &datastorepb.ReadOptions{ConsistencyType: &datastorepb.ReadOptions_Transaction{Transaction: t.id}}
}

func (t *Transaction) checkOpen() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTransactionDone
	}
	return nil
}

// Lookup reads the entity with key k inside the transaction into dst. It
// returns false when no such entity exists.
func (t *Transaction) Lookup(ctx context.Context, k *datastorepb.Key, dst entity.Decoder) (bool, error) {
	es, err := t.LookupMulti(ctx, []*datastorepb.Key{k})
	if err != nil || es[0] == nil {
		return false, err
	}
	if err := dst.FromEntity(es[0]); err != nil {
		return false, dserrors.New(dserrors.Conversion, "Lookup", entity.NewConversionError(err))
	}
	return true, nil
}

// LookupMulti reads keys inside the transaction, with the same result layout
// as Client.LookupMulti.
func (t *Transaction) LookupMulti(ctx context.Context, keys []*datastorepb.Key) ([]*datastorepb.Entity, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	es, err := t.c.lookup(ctx, "Transaction.Lookup", keys, t.readOptions())
	if err != nil {
		return nil, err
	}
	if es == nil {
		es = make([]*datastorepb.Entity, len(keys))
	}
	return es, nil
}

// QueryAll runs q inside the transaction. q must be an ancestor query.
func (t *Transaction) QueryAll(ctx context.Context, q *datastorepb.Query) ([]*datastorepb.Entity, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	return t.c.queryAll(ctx, "Transaction.QueryAll", q, t.readOptions())
}

func (t *Transaction) add(m *datastorepb.Mutation) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTransactionDone
	}
	t.muts = append(t.muts, m)
	return nil
}

// Upsert buffers an upsert of e.
func (t *Transaction) Upsert(e *datastorepb.Entity) error { return t.add(upsert(e)) }

// Put encodes v and buffers an upsert of it.
func (t *Transaction) Put(v entity.Encoder) error {
	e, err := v.ToEntity()
	if err != nil {
		return dserrors.New(dserrors.Conversion, "Transaction.Put", entity.NewConversionError(err))
	}
	return t.Upsert(e)
}

// Delete buffers a deletion of k.
func (t *Transaction) Delete(k *datastorepb.Key) error { return t.add(deletion(k)) }

// finish marks the transaction done and returns the buffered mutations.
func (t *Transaction) finish() ([]*datastorepb.Mutation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil, ErrTransactionDone
	}
	t.done = true
	return t.muts, nil
}

// Commit applies the buffered mutations atomically. A transaction cannot be
// used after Commit, whether or not it succeeded.
func (t *Transaction) Commit(ctx context.Context) (*datastorepb.CommitResponse, error) {
	muts, err := t.finish()
	if err != nil {
		return nil, err
	}
	req := &datastorepb.CommitRequest{
		ProjectId:           t.c.projectID,
		DatabaseId:          t.c.databaseID,
		Mode:                datastorepb.CommitRequest_TRANSACTIONAL,
		TransactionSelector: &datastorepb.CommitRequest_Transaction{Transaction: t.id},
		Mutations:           muts,
	}
	var resp *datastorepb.CommitResponse
	err = t.c.call(ctx, "Transaction.Commit", false, func(ctx context.Context) error {
		var err error
		resp, err = t.c.ds.Commit(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Rollback abandons the transaction.
func (t *Transaction) Rollback(ctx context.Context) error {
	if _, err := t.finish(); err != nil {
		return err
	}
	req := &datastorepb.RollbackRequest{ProjectId: t.c.projectID, DatabaseId: t.c.databaseID, Transaction: t.id}
	return t.c.call(ctx, "Transaction.Rollback", true, func(ctx context.Context) error {
		_, err := t.c.ds.Rollback(ctx, req)
		return err
	})
}

// RunInTransaction runs f in a new transaction and commits it. If f returns
// an error the transaction is rolled back and that error is returned. When
// the commit is aborted by contention and the client has a retry policy, f is
// run again in a fresh transaction.
func (c *Client) RunInTransaction(ctx context.Context, f func(tx *Transaction) error) (*datastorepb.CommitResponse, error) {
	attempt := func(previous []byte) (*Transaction, *datastorepb.CommitResponse, error) {
		tx, err := c.beginTransaction(ctx, previous)
		if err != nil {
			return nil, nil, err
		}
		if err := f(tx); err != nil {
			if rerr := tx.Rollback(ctx); rerr != nil && !errors.Is(rerr, ErrTransactionDone) {
				klog.Warningf("RunInTransaction: rollback after error %v failed: %v", err, rerr)
			}
			return tx, nil, err
		}
		resp, err := tx.Commit(ctx)
		return tx, resp, err
	}

	if c.retry == nil {
		_, resp, err := attempt(nil)
		return resp, err
	}

	b := *c.retry
	b.Reset()
	var previous []byte
	var resp *datastorepb.CommitResponse
	err := b.Retry(ctx, func() error {
		tx, r, err := attempt(previous)
		if tx != nil {
			previous = tx.id
		}
		if err != nil && dserrors.Code(err) == codes.Aborted {
			klog.V(1).Infof("RunInTransaction: transaction %x aborted", previous)
		}
		resp = r
		return err
	}, codes.Aborted)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
