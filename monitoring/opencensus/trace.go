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

// Package opencensus exports client RPC traces and views to Stackdriver.
package opencensus

import (
	"context"

	"contrib.go.opencensus.io/exporter/stackdriver"
	"go.opencensus.io/plugin/ocgrpc"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"
	"google.golang.org/grpc"
)

// StartSpan starts an OpenCensus span. It has the monitoring.StartSpanFunc
// signature.
func StartSpan(ctx context.Context, name string) (context.Context, func()) {
	ctx, span := trace.StartSpan(ctx, name)
	return ctx, span.End
}

// EnableRPCClientTracing registers a Stackdriver exporter for projectID and
// returns the dial option that makes a gRPC client emit traces and the
// default client views.
func EnableRPCClientTracing(projectID string, fraction float64) (grpc.DialOption, error) {
	sde, err := stackdriver.NewExporter(stackdriver.Options{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	view.RegisterExporter(sde)
	trace.RegisterExporter(sde)
	trace.ApplyConfig(trace.Config{DefaultSampler: trace.ProbabilitySampler(fraction)})

	if err := view.Register(ocgrpc.DefaultClientViews...); err != nil {
		return nil, err
	}
	return grpc.WithStatsHandler(&ocgrpc.ClientHandler{}), nil
}
