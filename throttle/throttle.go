// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package throttle memoizes the results of expensive sample calls within a
// freshness window.
//
// Concurrent requests for the same source share a single underlying call,
// and the eventual result, success or failure, is cached until the window
// elapses. This keeps near-simultaneous readers of one collection pass on
// one consistent sample without re-issuing system calls per instrument.
package throttle // import "go.opentelemetry.io/host-metrics/throttle"

import (
	"context"
	"fmt"
	"time"

	lru "github.com/elastic/go-freelru"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"
)

// cacheCapacity bounds the number of distinct source keys. The engine uses
// a handful of fixed keys, so this never evicts in practice.
const cacheCapacity = 16

// result is a resolved sample call. Failures are cached like successes so
// a failing source is not hammered within the freshness window.
type result struct {
	value any
	err   error
}

// hashString is the key hash for the result cache.
// xxh3 turned out to be the fastest hash function for strings in the
// FreeLRU benchmarks.
func hashString(s string) uint32 {
	return uint32(xxh3.HashString(s))
}

// Cache throttles expensive sample calls per source key.
type Cache struct {
	entries *lru.SyncedLRU[string, result]
	flight  singleflight.Group
}

// New returns a Cache whose entries expire after the given freshness window.
func New(freshness time.Duration) (*Cache, error) {
	entries, err := lru.NewSynced[string, result](cacheCapacity, hashString)
	if err != nil {
		return nil, fmt.Errorf("unable to create sample cache: %v", err)
	}
	entries.SetLifetime(freshness)

	return &Cache{entries: entries}, nil
}

// Get returns the cached result for key, or invokes load to produce it.
//
// If no fresh entry exists, exactly one load runs per key at a time and all
// callers arriving during that time receive its result. A caller whose ctx
// is canceled stops waiting, but the load is left to complete in the
// background so its result still lands in the cache for the next pass.
func (c *Cache) Get(ctx context.Context, key string, load func() (any, error)) (any, error) {
	if r, ok := c.entries.Get(key); ok {
		return r.value, r.err
	}

	ch := c.flight.DoChan(key, func() (any, error) {
		return c.loadEntry(key, load)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// loadEntry invokes load and stores its outcome under key. A load that
// completed between the caller's cache miss and the flight starting has
// already stored an entry, which is returned without another call.
func (c *Cache) loadEntry(key string, load func() (any, error)) (any, error) {
	if r, ok := c.entries.Get(key); ok {
		return r.value, r.err
	}

	value, err := load()
	c.entries.Add(key, result{value: value, err: err})
	return value, err
}

// Invalidate drops all cached entries. Loads that are still in flight are
// unaffected and complete into the cache.
func (c *Cache) Invalidate() {
	c.entries.Purge()
}

// Get is the typed view on Cache.Get for a load returning V.
func Get[V any](ctx context.Context, c *Cache, key string, load func() (V, error)) (V, error) {
	var zero V

	v, err := c.Get(ctx, key, func() (any, error) {
		return load()
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(V)
	if !ok {
		return zero, fmt.Errorf("cached entry for %s holds %T", key, v)
	}
	return value, nil
}
