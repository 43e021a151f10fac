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

// Package backoff allows retrying a Datastore RPC with exponential backoff.
package backoff

import (
	"context"
	"math/rand"
	"time"

	dserrors "github.com/google/clouddatastore/errors"
	"github.com/google/clouddatastore/util/clock"
	"google.golang.org/grpc/codes"
	"k8s.io/klog/v2"
)

// Backoff specifies the parameters of the backoff algorithm. Works correctly
// if 0 < Min <= Max <= 2^62 (nanosec), and Factor >= 1.
type Backoff struct {
	Min    time.Duration // Duration of the first pause.
	Max    time.Duration // Max duration of a pause.
	Factor float64       // The factor of duration increase between iterations.
	Jitter bool          // Add random noise to pauses.
	// MaxAttempts bounds the number of calls made by Retry. Zero means
	// unbounded, in which case only the context ends the retries.
	MaxAttempts int
	// TimeSource is used for pauses. Defaults to clock.System.
	TimeSource clock.TimeSource

	delta time.Duration // Current pause duration relative to Min, no jitter.
}

// Default returns the backoff used by the Datastore client: 100ms doubling
// up to 30s, with jitter, for at most 5 attempts.
func Default() *Backoff {
	return &Backoff{
		Min:         100 * time.Millisecond,
		Max:         30 * time.Second,
		Factor:      2,
		Jitter:      true,
		MaxAttempts: 5,
	}
}

// Duration returns the time to wait on current retry iteration.
// Every time Duration is called, the returned value will exponentially
// increase by Factor until Backoff.Max. If Jitter is enabled, will wait an
// additional random value between 0 and Factor^x * Min, capped by Backoff.Max.
func (b *Backoff) Duration() time.Duration {
	pause := b.Min + b.delta

	newPause := time.Duration(float64(pause) * b.Factor)
	if newPause > b.Max || newPause < b.Min { // Multiplication could overflow.
		newPause = b.Max
	}
	b.delta = newPause - b.Min

	if b.Jitter {
		pause += time.Duration(rand.Int63n(int64(pause)))
	}
	return pause
}

// Reset sets the internal state back to first iteration.
func (b *Backoff) Reset() {
	b.delta = 0
}

// Retry calls f until it succeeds, returns an error whose gRPC code is not
// in retry, MaxAttempts is reached, or ctx is done. An empty retry list
// retries every error. When the server attaches a RetryInfo detail to the
// error, its delay is used if it is longer than the computed pause.
// Once retries end the most recent error is returned.
func (b *Backoff) Retry(ctx context.Context, f func() error, retry ...codes.Code) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	ts := b.TimeSource
	if ts == nil {
		ts = clock.System
	}

	for attempt := 1; ; attempt++ {
		err := f()
		if err == nil {
			return nil
		}
		if !retriable(err, retry) {
			return err
		}
		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			return err
		}
		pause := b.Duration()
		if d, ok := dserrors.RetryDelay(err); ok && d > pause {
			pause = d
		}
		klog.V(1).Infof("attempt %d failed, retrying in %v: %v", attempt, pause, err)
		if clock.SleepSource(ctx, pause, ts) != nil {
			return err
		}
	}
}

func retriable(err error, retry []codes.Code) bool {
	if len(retry) == 0 {
		return true
	}
	code := dserrors.Code(err)
	for _, c := range retry {
		if c == code {
			return true
		}
	}
	return false
}
