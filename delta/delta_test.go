// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	base := time.Now()

	tests := map[string]struct {
		samples []uint64
		expOK   []bool
		expD    []uint64
	}{
		"first observation establishes the baseline": {
			samples: []uint64{100},
			expOK:   []bool{false},
			expD:    []uint64{0},
		},
		"steadily increasing counter": {
			samples: []uint64{100, 110, 145},
			expOK:   []bool{false, true, true},
			expD:    []uint64{0, 10, 35},
		},
		"unchanged counter": {
			samples: []uint64{100, 100},
			expOK:   []bool{false, true},
			expD:    []uint64{0, 0},
		},
		"decreasing counter clamps to zero": {
			samples: []uint64{100, 40, 50},
			expOK:   []bool{false, true, true},
			expD:    []uint64{0, 0, 10},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			tr := NewTracker[string]()
			for i, v := range tc.samples {
				res, ok := tr.Observe("key", v, base.Add(time.Duration(i)*time.Second))
				require.Equal(t, tc.expOK[i], ok, "sample %d", i)
				require.Equal(t, tc.expD[i], res.Delta, "sample %d", i)
			}
		})
	}
}

func TestObserveElapsed(t *testing.T) {
	tr := NewTracker[string]()
	base := time.Now()

	_, ok := tr.Observe("key", 10, base)
	require.False(t, ok)

	res, ok := tr.Observe("key", 25, base.Add(1500*time.Millisecond))
	require.True(t, ok)
	require.Equal(t, uint64(15), res.Delta)
	require.Equal(t, 1500*time.Millisecond, res.Elapsed)
}

func TestObserveStaleTimestamp(t *testing.T) {
	tr := NewTracker[string]()
	base := time.Now()

	_, ok := tr.Observe("key", 10, base)
	require.False(t, ok)

	// Re-observing at the stored timestamp must not replace the baseline.
	_, ok = tr.Observe("key", 999, base)
	require.False(t, ok)

	// The delta is still computed against the original baseline.
	res, ok := tr.Observe("key", 30, base.Add(time.Second))
	require.True(t, ok)
	require.Equal(t, uint64(20), res.Delta)
}

func TestObserveIndependentKeys(t *testing.T) {
	tr := NewTracker[string]()
	base := time.Now()

	_, ok := tr.Observe("a", 100, base)
	require.False(t, ok)

	// A new key starts with its own baseline, unaffected by other keys.
	_, ok = tr.Observe("b", 500, base.Add(time.Second))
	require.False(t, ok)

	resA, ok := tr.Observe("a", 130, base.Add(2*time.Second))
	require.True(t, ok)
	require.Equal(t, uint64(30), resA.Delta)
	require.Equal(t, 2*time.Second, resA.Elapsed)

	resB, ok := tr.Observe("b", 510, base.Add(2*time.Second))
	require.True(t, ok)
	require.Equal(t, uint64(10), resB.Delta)
	require.Equal(t, time.Second, resB.Elapsed)
}

func TestIndependentTrackers(t *testing.T) {
	base := time.Now()

	tr1 := NewTracker[string]()
	tr2 := NewTracker[string]()

	_, ok := tr1.Observe("key", 100, base)
	require.False(t, ok)

	// A second tracker instance must not see the baseline of the first.
	_, ok = tr2.Observe("key", 200, base.Add(time.Second))
	require.False(t, ok)

	res, ok := tr1.Observe("key", 150, base.Add(2*time.Second))
	require.True(t, ok)
	require.Equal(t, uint64(50), res.Delta)
}
