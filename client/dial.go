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
	"net/url"
	"os"

	"github.com/google/clouddatastore/client/timeout"
	dserrors "github.com/google/clouddatastore/errors"
	"github.com/google/clouddatastore/monitoring"
	"github.com/google/clouddatastore/util/clock"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"google.golang.org/api/option"
	gtransport "google.golang.org/api/transport/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"k8s.io/klog/v2"
)

const requestParamsHeader = "x-goog-request-params"

// requestParams is the routing header value sent with every RPC.
func requestParams(projectID, databaseID string) string {
	p := "project_id=" + url.QueryEscape(projectID)
	if databaseID != "" {
		p += "&database_id=" + url.QueryEscape(databaseID)
	}
	return p
}

func withRequestParams(ctx context.Context, params string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, requestParamsHeader, params)
}

// dial opens the connection described by s: the emulator when configured,
// otherwise the production endpoint with TLS and OAuth2.
func dial(ctx context.Context, s *settings) (*grpc.ClientConn, error) {
	interceptor := grpc_middleware.ChainUnaryClient(
		timeout.UnaryClientInterceptor(s.timeout),
		monitoring.NewRPCStatsInterceptor(clock.System, "datastore", s.mf).Interceptor(),
	)
	dialOpts := append([]grpc.DialOption{grpc.WithUnaryInterceptor(interceptor)}, s.dialOpts...)

	emulator := s.emulator
	if emulator == "" {
		emulator = os.Getenv(EmulatorHostEnv)
	}
	if emulator != "" {
		klog.V(1).Infof("Using Datastore emulator at %s", emulator)
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		conn, err := grpc.NewClient(emulator, dialOpts...)
		return conn, dserrors.New(dserrors.Transport, "dial", err)
	}

	endpoint := s.endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	opts := []option.ClientOption{
		option.WithEndpoint(endpoint),
		option.WithScopes(Scope),
	}
	switch {
	case s.tokenSource != nil:
		opts = append(opts, option.WithTokenSource(s.tokenSource))
	case s.credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(s.credentialsFile))
	}
	for _, o := range dialOpts {
		opts = append(opts, option.WithGRPCDialOption(o))
	}
	klog.V(1).Infof("Dialing Datastore at %s", endpoint)
	conn, err := gtransport.Dial(ctx, opts...)
	return conn, dserrors.New(dserrors.Transport, "dial", err)
}
