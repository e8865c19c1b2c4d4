// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package sampler reads the raw OS and process counters that the metric
// engines derive their values from.
//
// It is the sole owner of system-call invocation: no caching and no derived
// computation happens here. A failed read propagates to the caller and is
// never replaced with zero values, as those would corrupt the delta
// baselines kept by the callers.
package sampler // import "go.opentelemetry.io/host-metrics/sampler"

import (
	"context"
	"time"
)

// CoreTicks holds the cumulative scheduling ticks of one logical core,
// split by CPU state.
type CoreTicks struct {
	// Core is the logical core number.
	Core int

	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	Interrupt uint64
}

// CPUSample is a snapshot of the per-core cumulative CPU tick counters.
type CPUSample struct {
	At time.Time

	// TicksPerSecond is the platform tick rate the counters are measured in.
	TicksPerSecond int64

	Cores []CoreTicks
}

// MemorySample is a snapshot of system memory in bytes.
type MemorySample struct {
	At time.Time

	TotalBytes uint64
	FreeBytes  uint64
}

// InterfaceCounters holds the cumulative traffic counters of one network
// interface, as counted by the kernel since boot.
type InterfaceCounters struct {
	Device string

	RxBytes   uint64
	TxBytes   uint64
	RxDropped uint64
	TxDropped uint64
	RxErrors  uint64
	TxErrors  uint64
}

// NetworkSample is a snapshot of the per-interface traffic counters.
// Taking it enumerates all interfaces and is the most expensive sample of
// the engine, so callers are expected to share it within a collection pass.
type NetworkSample struct {
	At time.Time

	Interfaces []InterfaceCounters
}

// ProcessSample is a snapshot of the resource usage of the process itself.
type ProcessSample struct {
	At time.Time

	// UserMicros and SystemMicros are the cumulative CPU times of the
	// process in microseconds.
	UserMicros   uint64
	SystemMicros uint64

	// RSSBytes is the current resident set size.
	RSSBytes uint64
}

// Sampler provides the raw counter snapshots for the metric engines.
type Sampler interface {
	CPU(ctx context.Context) (CPUSample, error)
	Memory(ctx context.Context) (MemorySample, error)
	Network(ctx context.Context) (NetworkSample, error)
	Process(ctx context.Context) (ProcessSample, error)
}
