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

package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func newFactory() MetricFactory {
	return MetricFactory{Prefix: "test_", Registerer: prometheus.NewRegistry()}
}

func TestCounter(t *testing.T) {
	mf := newFactory()
	c := mf.NewCounter("requests", "help", "method")
	c.Inc("Lookup")
	c.Add(2, "Lookup")
	c.Inc("Commit")
	if got := c.Value("Lookup"); got != 3 {
		t.Errorf("Value(Lookup) = %v, want 3", got)
	}
	if got := c.Value("Commit"); got != 1 {
		t.Errorf("Value(Commit) = %v, want 1", got)
	}
	c.Inc()
	if got := c.Value(); got != 0 {
		t.Errorf("Value() with missing labels = %v, want 0", got)
	}
}

func TestUnlabelledGauge(t *testing.T) {
	g := newFactory().NewGauge("in_flight", "help")
	g.Inc()
	g.Inc()
	g.Dec()
	if got := g.Value(); got != 1 {
		t.Errorf("Value() = %v, want 1", got)
	}
	g.Set(7)
	if got := g.Value(); got != 7 {
		t.Errorf("Value() after Set = %v, want 7", got)
	}
}

func TestHistogram(t *testing.T) {
	h := newFactory().NewHistogramWithBuckets("latency", "help", []float64{0.1, 1, 10}, "method")
	h.Observe(0.5, "RunQuery")
	h.Observe(2, "RunQuery")
	cnt, sum := h.Info("RunQuery")
	if cnt != 2 || sum != 2.5 {
		t.Errorf("Info() = (%d, %v), want (2, 2.5)", cnt, sum)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	mf := newFactory()
	mf.NewCounter("dup", "help")
	defer func() {
		if recover() == nil {
			t.Error("registering the same metric twice did not panic")
		}
	}()
	mf.NewCounter("dup", "help")
}
