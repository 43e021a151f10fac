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

package clock

import "time"

// Timer represents an event that fires with time passage.
type Timer interface {
	// Chan returns a channel which is used to deliver the event.
	Chan() <-chan time.Time
	// Stop prevents the Timer from firing. Returns false if the event has
	// already fired, or the Timer has been stopped.
	Stop() bool
}

type systemTimer struct {
	*time.Timer
}

func (t systemTimer) Chan() <-chan time.Time { return t.C }

// fakeTimer is owned by the FakeTimeSource that created it; the source fires
// it when its time is set past when.
type fakeTimer struct {
	ts   *FakeTimeSource
	id   int
	when time.Time
	ch   chan time.Time
}

func (t *fakeTimer) Chan() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool { return t.ts.unsubscribe(t.id) }

func (t *fakeTimer) tryFire(now time.Time) bool {
	if now.Before(t.when) {
		return false
	}
	select {
	case t.ch <- now:
	default:
	}
	return true
}

type firedTimer struct {
	ch chan time.Time
}

func (t *firedTimer) Chan() <-chan time.Time { return t.ch }

func (t *firedTimer) Stop() bool { return false }
