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

package timeout

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
)

func deadlineOf(t *testing.T, ctx context.Context, max time.Duration) (time.Duration, bool) {
	t.Helper()
	var got time.Time
	var ok bool
	i := UnaryClientInterceptor(max)
	err := i(ctx, "/m", nil, nil, nil, func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		got, ok = ctx.Deadline()
		return nil
	})
	if err != nil {
		t.Fatalf("interceptor returned %v", err)
	}
	return time.Until(got), ok
}

func TestUnaryClientInterceptor(t *testing.T) {
	if d, ok := deadlineOf(t, context.Background(), time.Minute); !ok || d > time.Minute || d < 50*time.Second {
		t.Errorf("no caller deadline: got %v, %v, want ~1m", d, ok)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if d, ok := deadlineOf(t, ctx, time.Minute); !ok || d > time.Second {
		t.Errorf("shorter caller deadline: got %v, %v, want <= 1s", d, ok)
	}

	if _, ok := deadlineOf(t, context.Background(), 0); ok {
		t.Error("zero timeout set a deadline")
	}
}
