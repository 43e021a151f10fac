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
	"time"

	"github.com/google/clouddatastore/client/backoff"
	"github.com/google/clouddatastore/monitoring"
	"golang.org/x/oauth2"
	"google.golang.org/grpc"
)

const (
	// DefaultEndpoint is the production Datastore gRPC endpoint.
	DefaultEndpoint = "datastore.googleapis.com:443"
	// Scope is the OAuth2 scope requested for Datastore access.
	Scope = "https://www.googleapis.com/auth/cloud-platform"
	// EmulatorHostEnv names the environment variable that, when set, points
	// the client at a local Datastore emulator.
	EmulatorHostEnv = "DATASTORE_EMULATOR_HOST"
	// DefaultTimeout bounds every RPC made by the client.
	DefaultTimeout = time.Minute
)

type settings struct {
	databaseID      string
	namespace       string
	endpoint        string
	emulator        string
	tokenSource     oauth2.TokenSource
	credentialsFile string
	timeout         time.Duration
	mf              monitoring.MetricFactory
	conn            grpc.ClientConnInterface
	dialOpts        []grpc.DialOption
	retry           *backoff.Backoff
}

// Option configures a Client.
type Option func(*settings)

// WithDatabase selects a named database. The empty string, which is the
// default, selects the project's default database.
func WithDatabase(id string) Option {
	return func(s *settings) { s.databaseID = id }
}

// WithNamespace sets the namespace used for queries that do not carry their
// own partition.
func WithNamespace(ns string) Option {
	return func(s *settings) { s.namespace = ns }
}

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(s *settings) { s.endpoint = endpoint }
}

// WithEmulator connects to an unauthenticated emulator at addr, as if
// DATASTORE_EMULATOR_HOST were set.
func WithEmulator(addr string) Option {
	return func(s *settings) { s.emulator = addr }
}

// WithTokenSource authenticates RPCs with ts instead of Application Default
// Credentials.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(s *settings) { s.tokenSource = ts }
}

// WithCredentialsFile authenticates RPCs with the service account key or
// external account file at path.
func WithCredentialsFile(path string) Option {
	return func(s *settings) { s.credentialsFile = path }
}

// WithTimeout sets the maximum duration of a single RPC. Zero disables the
// limit.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithMetricFactory records RPC statistics using mf.
func WithMetricFactory(mf monitoring.MetricFactory) Option {
	return func(s *settings) { s.mf = mf }
}

// WithGRPCConn uses an existing connection. The client does not close it, and
// dial related options are ignored.
func WithGRPCConn(conn grpc.ClientConnInterface) Option {
	return func(s *settings) { s.conn = conn }
}

// WithDialOptions appends extra gRPC dial options.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(s *settings) { s.dialOpts = append(s.dialOpts, opts...) }
}

// WithRetry retries idempotent reads failing with Unavailable, and
// transactions aborted by contention, using b. A nil b disables retries.
func WithRetry(b *backoff.Backoff) Option {
	return func(s *settings) { s.retry = b }
}
