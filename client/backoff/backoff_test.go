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

package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/clouddatastore/util/clock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestBackoff(t *testing.T) {
	b := Backoff{
		Min:    time.Duration(1),
		Max:    time.Duration(100),
		Factor: 2,
	}
	for _, test := range []struct {
		b     Backoff
		times int
		want  time.Duration
	}{
		{b, 1, time.Duration(1)},
		{b, 2, time.Duration(2)},
		{b, 3, time.Duration(4)},
		{b, 4, time.Duration(8)},
		{b, 8, time.Duration(100)},
	} {
		test.b.Reset()
		var got time.Duration
		for i := 0; i < test.times; i++ {
			got = test.b.Duration()
		}
		if got != test.want {
			t.Errorf("Duration() %v times: %v, want %v", test.times, got, test.want)
		}
	}
}

func TestJitterBounds(t *testing.T) {
	b := Backoff{Min: time.Second, Max: 100 * time.Second, Factor: 2, Jitter: true}
	for i, want := range []time.Duration{1, 2, 4, 8} {
		got := b.Duration()
		lo, hi := want*time.Second, 2*want*time.Second
		if got < lo || got >= hi {
			t.Errorf("Duration() #%d = %v, want in [%v, %v)", i+1, got, lo, hi)
		}
	}
}

// instantSleeps returns a TimeSource whose timers fire immediately.
func instantSleeps() clock.TimeSource {
	return &clock.PredefinedFake{Base: time.Unix(0, 0)}
}

func TestRetry(t *testing.T) {
	unavailable := status.Error(codes.Unavailable, "try later")
	invalid := status.Error(codes.InvalidArgument, "bad")

	tests := []struct {
		desc      string
		errs      []error
		retry     []codes.Code
		max       int
		wantCalls int
		wantErr   error
	}{
		{desc: "success", errs: []error{nil}, wantCalls: 1},
		{desc: "retry then success", errs: []error{unavailable, unavailable, nil}, retry: []codes.Code{codes.Unavailable}, wantCalls: 3},
		{desc: "non retriable", errs: []error{invalid, nil}, retry: []codes.Code{codes.Unavailable}, wantCalls: 1, wantErr: invalid},
		{desc: "any error retried", errs: []error{invalid, nil}, wantCalls: 2},
		{desc: "max attempts", errs: []error{unavailable, unavailable, unavailable, nil}, retry: []codes.Code{codes.Unavailable}, max: 3, wantCalls: 3, wantErr: unavailable},
	}
	for _, test := range tests {
		b := &Backoff{Min: time.Millisecond, Max: time.Second, Factor: 2, MaxAttempts: test.max, TimeSource: instantSleeps()}
		calls := 0
		err := b.Retry(context.Background(), func() error {
			err := test.errs[calls]
			calls++
			return err
		}, test.retry...)
		if err != test.wantErr {
			t.Errorf("%v: Retry() = %v, want %v", test.desc, err, test.wantErr)
		}
		if calls != test.wantCalls {
			t.Errorf("%v: f called %d times, want %d", test.desc, calls, test.wantCalls)
		}
	}
}

func TestRetryContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := Default()
	called := false
	if err := b.Retry(ctx, func() error { called = true; return nil }); err != context.Canceled {
		t.Errorf("Retry() = %v, want %v", err, context.Canceled)
	}
	if called {
		t.Error("f was called with a done context")
	}

	ctx, cancel = context.WithCancel(context.Background())
	wantErr := errors.New("boom")
	b = &Backoff{Min: time.Hour, Max: time.Hour, Factor: 1, TimeSource: clock.NewFake(time.Unix(0, 0))}
	err := b.Retry(ctx, func() error {
		cancel()
		return wantErr
	})
	if err != wantErr {
		t.Errorf("Retry() after cancel = %v, want %v", err, wantErr)
	}
}
