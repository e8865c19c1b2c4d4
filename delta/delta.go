// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package delta computes non-negative differences between successive
// observations of monotonically increasing counters.
//
// A Tracker keeps the previously observed value per dimension key. The
// first observation of a key only establishes the baseline and is reported
// as such, so callers can suppress metrics that would otherwise misrepresent
// true rates on the first collection pass.
package delta // import "go.opentelemetry.io/host-metrics/delta"

import (
	"sync"
	"time"
)

// Result holds the outcome of a successful observation.
type Result struct {
	// Delta is the increase of the counter since the previous observation.
	// A counter that went backwards (reset or wrap) yields 0.
	Delta uint64

	// Elapsed is the wall-clock time since the previous observation.
	Elapsed time.Duration
}

// observation is the stored previous value of a dimension key.
type observation struct {
	value uint64
	at    time.Time
}

// Tracker stores the last observed counter value per dimension key.
//
// Entries are created lazily on first observation and are kept for the
// lifetime of the Tracker. Keys that stop being observed simply go stale,
// they are never deleted.
type Tracker[K comparable] struct {
	mu   sync.Mutex
	prev map[K]observation
}

// NewTracker returns an empty Tracker.
func NewTracker[K comparable]() *Tracker[K] {
	return &Tracker[K]{
		prev: make(map[K]observation),
	}
}

// Observe records value for key as observed at now and returns the delta
// against the previously stored value.
//
// The boolean return is false if no metric must be derived from this
// observation: either key had no baseline yet (the value is stored and the
// next observation will report a delta), or now does not lie after the
// stored observation time, in which case the stored value is left untouched.
func (t *Tracker[K]) Observe(key K, value uint64, now time.Time) (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.prev[key]
	if !ok {
		t.prev[key] = observation{value: value, at: now}
		return Result{}, false
	}

	// A previous value may only be replaced by a strictly later observation.
	if !now.After(p.at) {
		return Result{}, false
	}

	var d uint64
	if value >= p.value {
		d = value - p.value
	}
	t.prev[key] = observation{value: value, at: now}

	return Result{Delta: d, Elapsed: now.Sub(p.at)}, true
}
