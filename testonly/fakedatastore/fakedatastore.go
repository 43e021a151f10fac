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

// Package fakedatastore is an in-memory Datastore gRPC server for tests.
//
// It supports lookups, kind queries with equality and ancestor filters, GQL
// of the form "SELECT * FROM Kind", read-write transactions, and ID
// allocation. Errors can be injected per method with FailNext.
package fakedatastore

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"regexp"
	"strings"
	"sync"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/google/btree"
	"github.com/google/clouddatastore/entity"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

var gqlSelectAll = regexp.MustCompile(`(?i)^\s*select\s+\*\s+from\s+(\w+)\s*$`)

// record is a stored entity, ordered in the store by id.
type record struct {
	id      string
	entity  *datastorepb.Entity
	version int64
}

func recordLess(a, b *record) bool { return a.id < b.id }

// Server is an in-memory implementation of datastorepb.DatastoreServer.
type Server struct {
	datastorepb.UnimplementedDatastoreServer

	// PageSize limits the entities returned in one RunQuery batch. Zero
	// means unlimited.
	PageSize int
	// MaxLookupResults limits the keys resolved by one Lookup; the rest are
	// returned as deferred. Zero means unlimited.
	MaxLookupResults int

	mu       sync.Mutex
	entities *btree.BTreeG[*record]
	version  int64
	nextID   int64
	nextTx   int
	txns     map[string]bool
	begins   []*datastorepb.BeginTransactionRequest
	failures map[string][]error
	calls    map[string]int
	params   []string
}

// New returns an empty server.
func New() *Server {
	return &Server{
		entities: btree.NewG(16, recordLess),
		nextID:   1,
		txns:     make(map[string]bool),
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
}

// Start serves s on a random local port. The returned function stops the
// server and must be called by the test.
func (s *Server) Start() (string, func(), error) {
	grpcServer := grpc.NewServer()
	datastorepb.RegisterDatastoreServer(grpcServer, s)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	go grpcServer.Serve(lis)

	stopFn := func() {
		grpcServer.Stop()
		lis.Close()
	}
	return lis.Addr().String(), stopFn, nil
}

// FailNext makes the next call to method fail with err. Repeated calls queue
// further failures.
func (s *Server) FailNext(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], err)
}

// Calls returns how many times method was called.
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// RequestParams returns the x-goog-request-params values received so far.
func (s *Server) RequestParams() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.params...)
}

// BeginRequests returns copies of the BeginTransaction requests received so
// far, including the ones failed by FailNext.
func (s *Server) BeginRequests() []*datastorepb.BeginTransactionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*datastorepb.BeginTransactionRequest, 0, len(s.begins))
	for _, r := range s.begins {
		out = append(out, proto.Clone(r).(*datastorepb.BeginTransactionRequest))
	}
	return out
}

// Entity returns a copy of the stored entity with key k, or nil.
func (s *Server) Entity(k *datastorepb.Key) *datastorepb.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.entities.Get(&record{id: storeKey(k)})
	if !ok {
		return nil
	}
	return proto.Clone(r.entity).(*datastorepb.Entity)
}

// Len returns the number of stored entities.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entities.Len()
}

// begin records a call and returns an injected failure, if any. s.mu must be
// held.
func (s *Server) begin(ctx context.Context, method string) error {
	s.calls[method]++
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		s.params = append(s.params, md.Get("x-goog-request-params")...)
	}
	if errs := s.failures[method]; len(errs) > 0 {
		s.failures[method] = errs[1:]
		return errs[0]
	}
	return nil
}

func storeKey(k *datastorepb.Key) string {
	return k.GetPartitionId().GetNamespaceId() + "\x00" + entity.KeyString(k)
}

func (s *Server) checkTransaction(id []byte) error {
	if !s.txns[string(id)] {
		return status.Errorf(codes.InvalidArgument, "unknown transaction %q", id)
	}
	return nil
}

// Lookup implements datastorepb.DatastoreServer.
func (s *Server) Lookup(ctx context.Context, req *datastorepb.LookupRequest) (*datastorepb.LookupResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, "Lookup"); err != nil {
		return nil, err
	}
	if tx := req.GetReadOptions().GetTransaction(); tx != nil {
		if err := s.checkTransaction(tx); err != nil {
			return nil, err
		}
	}
	resp := &datastorepb.LookupResponse{}
	for i, k := range req.GetKeys() {
		if s.MaxLookupResults > 0 && i >= s.MaxLookupResults {
			resp.Deferred = append(resp.Deferred, k)
			continue
		}
		if !entity.IsComplete(k) {
			return nil, status.Errorf(codes.InvalidArgument, "incomplete key %s", entity.KeyString(k))
		}
		if r, ok := s.entities.Get(&record{id: storeKey(k)}); ok {
			resp.Found = append(resp.Found, &datastorepb.EntityResult{
				Entity:  proto.Clone(r.entity).(*datastorepb.Entity),
				Version: r.version,
			})
			continue
		}
		resp.Missing = append(resp.Missing, &datastorepb.EntityResult{
			Entity:  &datastorepb.Entity{Key: k},
			Version: s.version,
		})
	}
	return resp, nil
}

// RunQuery implements datastorepb.DatastoreServer.
func (s *Server) RunQuery(ctx context.Context, req *datastorepb.RunQueryRequest) (*datastorepb.RunQueryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, "RunQuery"); err != nil {
		return nil, err
	}
	if tx := req.GetReadOptions().GetTransaction(); tx != nil {
		if err := s.checkTransaction(tx); err != nil {
			return nil, err
		}
	}

	q := req.GetQuery()
	if gql := req.GetGqlQuery(); gql != nil {
		m := gqlSelectAll.FindStringSubmatch(gql.GetQueryString())
		if m == nil {
			return nil, status.Errorf(codes.InvalidArgument, "unsupported GQL %q", gql.GetQueryString())
		}
		q = &datastorepb.Query{Kind: []*datastorepb.KindExpression{{Name: m[1]}}}
	}
	if len(q.GetKind()) > 1 {
		return nil, status.Error(codes.InvalidArgument, "at most one kind is supported")
	}

	matches, err := s.match(req.GetPartitionId().GetNamespaceId(), q)
	if err != nil {
		return nil, err
	}

	start := int(q.GetOffset())
	if c := q.GetStartCursor(); len(c) > 0 {
		if len(c) != 8 {
			return nil, status.Error(codes.InvalidArgument, "invalid cursor")
		}
		start = int(binary.BigEndian.Uint64(c)) + int(q.GetOffset())
	}
	start = min(start, len(matches))
	end := len(matches)
	limited := false
	if l := q.GetLimit(); l != nil && start+int(l.GetValue()) < end {
		end = start + int(l.GetValue())
		limited = true
	}
	more := datastorepb.QueryResultBatch_NO_MORE_RESULTS
	if limited {
		more = datastorepb.QueryResultBatch_MORE_RESULTS_AFTER_LIMIT
	}
	if s.PageSize > 0 && start+s.PageSize < end {
		end = start + s.PageSize
		more = datastorepb.QueryResultBatch_NOT_FINISHED
	}

	batch := &datastorepb.QueryResultBatch{
		SkippedResults:   q.GetOffset(),
		EntityResultType: datastorepb.EntityResult_FULL,
		MoreResults:      more,
		EndCursor:        binary.BigEndian.AppendUint64(nil, uint64(end)),
		SnapshotVersion:  s.version,
	}
	for _, r := range matches[start:end] {
		batch.EntityResults = append(batch.EntityResults, &datastorepb.EntityResult{
			Entity:  proto.Clone(r.entity).(*datastorepb.Entity),
			Version: r.version,
			Cursor:  batch.EndCursor,
		})
	}
	return &datastorepb.RunQueryResponse{Batch: batch, Query: q}, nil
}

// match returns the records in namespace satisfying q, ordered by key.
func (s *Server) match(namespace string, q *datastorepb.Query) ([]*record, error) {
	var kind string
	if len(q.GetKind()) == 1 {
		kind = q.GetKind()[0].GetName()
	}
	prefix := namespace + "\x00"
	var (
		out []*record
		err error
	)
	s.entities.AscendGreaterOrEqual(&record{id: prefix}, func(r *record) bool {
		if !strings.HasPrefix(r.id, prefix) {
			return false
		}
		if kind != "" {
			if got, _ := entity.Kind(r.entity.GetKey()); got != kind {
				return true
			}
		}
		var ok bool
		if ok, err = matchFilter(r.entity, q.GetFilter()); err != nil {
			return false
		}
		if ok {
			out = append(out, r)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matchFilter(e *datastorepb.Entity, f *datastorepb.Filter) (bool, error) {
	if f == nil {
		return true, nil
	}
	if cf := f.GetCompositeFilter(); cf != nil {
		if cf.GetOp() != datastorepb.CompositeFilter_AND {
			return false, status.Errorf(codes.InvalidArgument, "unsupported composite operator %v", cf.GetOp())
		}
		for _, sub := range cf.GetFilters() {
			ok, err := matchFilter(e, sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
	pf := f.GetPropertyFilter()
	switch pf.GetOp() {
	case datastorepb.PropertyFilter_EQUAL:
		v, ok := e.GetProperties()[pf.GetProperty().GetName()]
		return ok && proto.Equal(stripMeta(v), stripMeta(pf.GetValue())), nil
	case datastorepb.PropertyFilter_HAS_ANCESTOR:
		return hasAncestor(e.GetKey(), pf.GetValue().GetKeyValue()), nil
	}
	return false, status.Errorf(codes.InvalidArgument, "unsupported property operator %v", pf.GetOp())
}

func stripMeta(v *datastorepb.Value) *datastorepb.Value {
	v = proto.Clone(v).(*datastorepb.Value)
	v.ExcludeFromIndexes = false
	v.Meaning = 0
	return v
}

func hasAncestor(k, ancestor *datastorepb.Key) bool {
	path, anc := k.GetPath(), ancestor.GetPath()
	if len(anc) == 0 || len(anc) > len(path) {
		return false
	}
	for i, e := range anc {
		if !proto.Equal(path[i], e) {
			return false
		}
	}
	return true
}

// BeginTransaction implements datastorepb.DatastoreServer.
func (s *Server) BeginTransaction(ctx context.Context, req *datastorepb.BeginTransactionRequest) (*datastorepb.BeginTransactionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins = append(s.begins, proto.Clone(req).(*datastorepb.BeginTransactionRequest))
	if err := s.begin(ctx, "BeginTransaction"); err != nil {
		return nil, err
	}
	s.nextTx++
	id := []byte(fmt.Sprintf("tx-%d", s.nextTx))
	s.txns[string(id)] = true
	return &datastorepb.BeginTransactionResponse{Transaction: id}, nil
}

// Rollback implements datastorepb.DatastoreServer.
func (s *Server) Rollback(ctx context.Context, req *datastorepb.RollbackRequest) (*datastorepb.RollbackResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, "Rollback"); err != nil {
		return nil, err
	}
	if err := s.checkTransaction(req.GetTransaction()); err != nil {
		return nil, err
	}
	delete(s.txns, string(req.GetTransaction()))
	return &datastorepb.RollbackResponse{}, nil
}

// Commit implements datastorepb.DatastoreServer. Mutations are validated
// before any is applied, so a failed commit changes nothing.
func (s *Server) Commit(ctx context.Context, req *datastorepb.CommitRequest) (*datastorepb.CommitResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, "Commit"); err != nil {
		return nil, err
	}
	switch req.GetMode() {
	case datastorepb.CommitRequest_NON_TRANSACTIONAL:
		if req.GetTransactionSelector() != nil {
			return nil, status.Error(codes.InvalidArgument, "non-transactional commit with a transaction")
		}
	case datastorepb.CommitRequest_TRANSACTIONAL:
		switch {
		case req.GetTransaction() != nil:
			if err := s.checkTransaction(req.GetTransaction()); err != nil {
				return nil, err
			}
			delete(s.txns, string(req.GetTransaction()))
		case req.GetSingleUseTransaction() != nil:
		default:
			return nil, status.Error(codes.InvalidArgument, "transactional commit without a transaction")
		}
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unsupported mode %v", req.GetMode())
	}

	// Stage against a clone so that a failing mutation leaves the store as is.
	staged := s.entities.Clone()
	nextID := s.nextID
	version := s.version + 1
	resp := &datastorepb.CommitResponse{}
	for _, m := range req.GetMutations() {
		var (
			e       *datastorepb.Entity
			mustNew bool
			mustOld bool
		)
		switch op := m.GetOperation().(type) {
		case *datastorepb.Mutation_Insert:
			e, mustNew = op.Insert, true
		case *datastorepb.Mutation_Update:
			e, mustOld = op.Update, true
		case *datastorepb.Mutation_Upsert:
			e = op.Upsert
		case *datastorepb.Mutation_Delete:
			if !entity.IsComplete(op.Delete) {
				return nil, status.Errorf(codes.InvalidArgument, "delete of incomplete key %s", entity.KeyString(op.Delete))
			}
			staged.Delete(&record{id: storeKey(op.Delete)})
			resp.MutationResults = append(resp.MutationResults, &datastorepb.MutationResult{Version: version})
			continue
		default:
			return nil, status.Errorf(codes.InvalidArgument, "unsupported mutation %T", op)
		}

		e = proto.Clone(e).(*datastorepb.Entity)
		result := &datastorepb.MutationResult{Version: version}
		if e.GetKey() == nil || len(e.GetKey().GetPath()) == 0 {
			return nil, status.Error(codes.InvalidArgument, "entity has no key")
		}
		if !entity.IsComplete(e.GetKey()) {
			if mustOld {
				return nil, status.Error(codes.InvalidArgument, "update of incomplete key")
			}
			path := e.GetKey().GetPath()
			path[len(path)-1].IdType = &datastorepb.Key_PathElement_Id{Id: nextID}
			nextID++
			result.Key = proto.Clone(e.GetKey()).(*datastorepb.Key)
		}
		id := storeKey(e.GetKey())
		_, exists := staged.Get(&record{id: id})
		if mustNew && exists {
			return nil, status.Errorf(codes.AlreadyExists, "entity %s already exists", entity.KeyString(e.GetKey()))
		}
		if mustOld && !exists {
			return nil, status.Errorf(codes.NotFound, "entity %s not found", entity.KeyString(e.GetKey()))
		}
		staged.ReplaceOrInsert(&record{id: id, entity: e, version: version})
		resp.IndexUpdates += int32(len(e.GetProperties()))
		resp.MutationResults = append(resp.MutationResults, result)
	}

	s.entities = staged
	s.nextID = nextID
	s.version = version
	return resp, nil
}

// AllocateIds implements datastorepb.DatastoreServer.
func (s *Server) AllocateIds(ctx context.Context, req *datastorepb.AllocateIdsRequest) (*datastorepb.AllocateIdsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, "AllocateIds"); err != nil {
		return nil, err
	}
	resp := &datastorepb.AllocateIdsResponse{}
	for _, k := range req.GetKeys() {
		if len(k.GetPath()) == 0 || entity.IsComplete(k) {
			return nil, status.Errorf(codes.InvalidArgument, "key %s is not incomplete", entity.KeyString(k))
		}
		k = proto.Clone(k).(*datastorepb.Key)
		k.Path[len(k.Path)-1].IdType = &datastorepb.Key_PathElement_Id{Id: s.nextID}
		s.nextID++
		resp.Keys = append(resp.Keys, k)
	}
	return resp, nil
}

// ReserveIds implements datastorepb.DatastoreServer.
func (s *Server) ReserveIds(ctx context.Context, req *datastorepb.ReserveIdsRequest) (*datastorepb.ReserveIdsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, "ReserveIds"); err != nil {
		return nil, err
	}
	for _, k := range req.GetKeys() {
		if id, err := entity.ID(k); err == nil && id >= s.nextID {
			s.nextID = id + 1
		}
	}
	return &datastorepb.ReserveIdsResponse{}, nil
}
