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

package monitoring

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/clouddatastore/util/clock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const traceSpanRoot = "/clouddatastore/rpc/"

// RPCStatsInterceptor records statistics about the outgoing RPCs passing
// through it.
type RPCStatsInterceptor struct {
	timeSource        clock.TimeSource
	ReqCount          Counter
	ReqInFlight       Gauge
	ReqSuccessCount   Counter
	ReqSuccessLatency Histogram
	ReqErrorCount     Counter
	ReqErrorLatency   Histogram
}

// NewRPCStatsInterceptor creates a new RPCStatsInterceptor whose metrics are
// named after prefix. A nil mf means InertMetricFactory.
func NewRPCStatsInterceptor(timeSource clock.TimeSource, prefix string, mf MetricFactory) *RPCStatsInterceptor {
	if mf == nil {
		mf = InertMetricFactory{}
	}
	buckets := RPCLatencyBuckets()
	return &RPCStatsInterceptor{
		timeSource:        timeSource,
		ReqCount:          mf.NewCounter(prefixedName(prefix, "rpc_requests"), "Number of requests", "method"),
		ReqInFlight:       mf.NewGauge(prefixedName(prefix, "rpc_in_flight"), "Number of requests awaiting a response", "method"),
		ReqSuccessCount:   mf.NewCounter(prefixedName(prefix, "rpc_success"), "Number of successful requests", "method"),
		ReqSuccessLatency: mf.NewHistogramWithBuckets(prefixedName(prefix, "rpc_success_latency"), "Latency of successful requests in seconds", buckets, "method"),
		ReqErrorCount:     mf.NewCounter(prefixedName(prefix, "rpc_errors"), "Number of errored requests", "method", "code"),
		ReqErrorLatency:   mf.NewHistogramWithBuckets(prefixedName(prefix, "rpc_error_latency"), "Latency of errored requests in seconds", buckets, "method"),
	}
}

func prefixedName(prefix, name string) string {
	return fmt.Sprintf("%s_%s", prefix, name)
}

// Interceptor returns a UnaryClientInterceptor recording request counts,
// errors by code and latencies per method. Methods are labelled by their
// short name, e.g. "Lookup".
func (r *RPCStatsInterceptor) Interceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		name := path.Base(method)

		ctx, spanEnd := StartSpan(ctx, traceSpanRoot+name)
		defer spanEnd()

		r.ReqCount.Inc(name)
		r.ReqInFlight.Inc(name)
		defer r.ReqInFlight.Dec(name)
		start := r.timeSource.Now()

		err := invoker(ctx, method, req, reply, cc, opts...)

		latency := r.since(start)
		if err != nil {
			r.ReqErrorCount.Inc(name, status.Code(err).String())
			r.ReqErrorLatency.Observe(latency, name)
			return err
		}
		r.ReqSuccessCount.Inc(name)
		r.ReqSuccessLatency.Observe(latency, name)
		return nil
	}
}

func (r *RPCStatsInterceptor) since(start time.Time) float64 {
	return clock.SecondsSince(r.timeSource, start)
}
