// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package hostmetrics // import "go.opentelemetry.io/host-metrics"

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"go.opentelemetry.io/host-metrics/sampler"
)

// Memory state names reported in metric attributes.
const (
	stateUsed = "used"
	stateFree = "free"
)

// memoryUsage returns the used and free bytes of a memory sample. Used
// memory is derived from the total, so the two always add up to it.
func memoryUsage(s sampler.MemorySample) (used, free uint64) {
	return s.TotalBytes - s.FreeBytes, s.FreeBytes
}

// memoryUtilization returns the used and free shares of total memory. The
// free share is derived from the used one, so the two always sum to
// exactly 1.
func memoryUtilization(s sampler.MemorySample) (used, free float64) {
	used = float64(s.TotalBytes-s.FreeBytes) / float64(s.TotalBytes)
	return used, 1 - used
}

func memoryAttributes(state string) metric.MeasurementOption {
	return metric.WithAttributes(attrMemoryState.String(state))
}

// registerMemory creates the system memory instruments and their
// callbacks. Memory has no baseline pass, both instruments report from
// the first pass on.
func (h *HostMetrics) registerMemory(meter metric.Meter) error {
	memUsage, err := meter.Int64ObservableGauge("system.memory.usage",
		metric.WithDescription("System memory in bytes, used and free."),
		metric.WithUnit("By"))
	if err != nil {
		return err
	}
	err = h.observe(meter, memUsage, func(ctx context.Context, o metric.Observer) error {
		s, err := h.sampleMemory(ctx)
		if err != nil {
			return err
		}
		used, free := memoryUsage(s)
		o.ObserveInt64(memUsage, int64(used), memoryAttributes(stateUsed))
		o.ObserveInt64(memUsage, int64(free), memoryAttributes(stateFree))
		return nil
	})
	if err != nil {
		return err
	}

	memUtil, err := meter.Float64ObservableGauge("system.memory.utilization",
		metric.WithDescription("System memory utilization, 0-1."),
		metric.WithUnit("1"))
	if err != nil {
		return err
	}
	return h.observe(meter, memUtil, func(ctx context.Context, o metric.Observer) error {
		s, err := h.sampleMemory(ctx)
		if err != nil {
			return err
		}
		used, free := memoryUtilization(s)
		o.ObserveFloat64(memUtil, used, memoryAttributes(stateUsed))
		o.ObserveFloat64(memUtil, free, memoryAttributes(stateFree))
		return nil
	})
}
