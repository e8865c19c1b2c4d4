// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package throttle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSharesInFlightCall(t *testing.T) {
	c, err := New(time.Minute)
	require.NoError(t, err)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func() (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const readers = 4
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Get(context.Background(), c, "net", load)
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}

	// Give all readers time to attach to the in-flight call.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
}

func TestGetFreshnessWindow(t *testing.T) {
	c, err := New(50 * time.Millisecond)
	require.NoError(t, err)

	calls := 0
	load := func() (int, error) {
		calls++
		return calls, nil
	}

	v, err := Get(context.Background(), c, "cpu", load)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	// Within the window the cached result is served.
	v, err = Get(context.Background(), c, "cpu", load)
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.Equal(t, 1, calls)

	// Once the entry went stale a new underlying call is issued.
	time.Sleep(80 * time.Millisecond)
	v, err = Get(context.Background(), c, "cpu", load)
	require.NoError(t, err)
	require.Equal(t, 2, v)
	require.Equal(t, 2, calls)
}

func TestGetCachesFailures(t *testing.T) {
	c, err := New(time.Minute)
	require.NoError(t, err)

	errLoad := errors.New("load failed")
	calls := 0
	load := func() (int, error) {
		calls++
		return 0, errLoad
	}

	_, err = Get(context.Background(), c, "mem", load)
	require.ErrorIs(t, err, errLoad)

	_, err = Get(context.Background(), c, "mem", load)
	require.ErrorIs(t, err, errLoad)
	require.Equal(t, 1, calls)
}

func TestLoadEntryReusesStoredResult(t *testing.T) {
	c, err := New(time.Minute)
	require.NoError(t, err)

	calls := 0
	load := func() (any, error) {
		calls++
		return calls, nil
	}

	v, err := c.Get(context.Background(), "cpu", load)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	// A caller that missed the cache before the store above but enters
	// the flight after it must reuse the entry, not load again.
	v, err = c.loadEntry("cpu", load)
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.Equal(t, 1, calls)
}

func TestInvalidate(t *testing.T) {
	c, err := New(time.Minute)
	require.NoError(t, err)

	calls := 0
	load := func() (int, error) {
		calls++
		return calls, nil
	}

	v, err := Get(context.Background(), c, "cpu", load)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	c.Invalidate()

	v, err = Get(context.Background(), c, "cpu", load)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestGetAbandonedCallCompletes(t *testing.T) {
	c, err := New(time.Minute)
	require.NoError(t, err)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func() (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err = Get(ctx, c, "net", load)
	require.ErrorIs(t, err, context.Canceled)

	// The abandoned call is still in flight. A new caller attaches to it
	// and receives its eventual result instead of issuing another call.
	var extraLoads atomic.Int32
	unexpected := func() (int, error) {
		extraLoads.Add(1)
		return -1, nil
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		close(release)
	}()

	v, err := Get(context.Background(), c, "net", unexpected)
	require.NoError(t, err)
	require.Equal(t, 7, v)

	// The completed call populated the cache for subsequent readers.
	v, err = Get(context.Background(), c, "net", unexpected)
	require.NoError(t, err)
	require.Equal(t, 7, v)

	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, int32(0), extraLoads.Load())
}
