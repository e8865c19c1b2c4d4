// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package hostmetrics // import "go.opentelemetry.io/host-metrics"

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"go.opentelemetry.io/host-metrics/sampler"
	"go.opentelemetry.io/host-metrics/throttle"
)

// scopeName is the instrumentation scope the instruments are created in.
const scopeName = "go.opentelemetry.io/host-metrics"

// Source keys of the throttled sample cache. The process CPU and memory
// instruments share one key, they read from the same sample.
const (
	sourceCPU     = "cpu"
	sourceMemory  = "memory"
	sourceNetwork = "network"
	sourceProcess = "process"
)

// Attribute keys of the emitted observations.
var (
	attrCPUState         = attribute.Key("system.cpu.state")
	attrCPULogicalNumber = attribute.Key("system.cpu.logical_number")
	attrMemoryState      = attribute.Key("system.memory.state")
	attrNetworkDevice    = attribute.Key("system.device")
	attrNetworkDirection = attribute.Key("direction")
	attrProcessCPUState  = attribute.Key("process.cpu.state")
)

// HostMetrics reports host and process resource metrics through
// observable instruments registered on a meter.
//
// Each metric has its own callback, so a failing source degrades only the
// instruments reading from it. All callbacks read through one throttled
// sample cache and therefore observe temporally consistent counters
// within a collection pass, no matter in which order the SDK invokes
// them.
type HostMetrics struct {
	cfg *config

	smp   sampler.Sampler
	owned *sampler.SystemSampler
	cache *throttle.Cache

	cpu  *cpuMetrics
	proc *processMetrics

	regs []metric.Registration
}

// New returns an unstarted HostMetrics instance.
func New(opts ...Option) *HostMetrics {
	cfg := defaultConfig()
	for _, opt := range opts {
		cfg = opt.applyOption(cfg)
	}
	return &HostMetrics{
		cfg:  cfg,
		cpu:  newCPUMetrics(),
		proc: newProcessMetrics(),
	}
}

// Start creates the observable instruments and registers their callbacks.
// Collection happens whenever the reader of the configured provider
// collects.
func (h *HostMetrics) Start() error {
	if h.regs != nil {
		return errors.New("host metrics already started")
	}

	h.smp = h.cfg.sampler
	if h.smp == nil {
		sys, err := sampler.New()
		if err != nil {
			return fmt.Errorf("failed to create system sampler: %w", err)
		}
		h.owned = sys
		h.smp = sys
	}

	cache, err := throttle.New(h.cfg.freshness)
	if err != nil {
		return h.startFailed(fmt.Errorf("failed to create sample cache: %w", err))
	}
	h.cache = cache

	meter := h.cfg.provider.Meter(scopeName,
		metric.WithInstrumentationVersion(Version()))

	for _, register := range []func(metric.Meter) error{
		h.registerCPU,
		h.registerMemory,
		h.registerNetwork,
		h.registerProcess,
	} {
		if err := register(meter); err != nil {
			return h.startFailed(fmt.Errorf("failed to register instruments: %w", err))
		}
	}
	return nil
}

// startFailed rolls back a partial Start.
func (h *HostMetrics) startFailed(err error) error {
	_ = h.unregister()
	h.cache = nil
	if h.owned != nil {
		_ = h.owned.Close()
		h.owned = nil
	}
	h.smp = nil
	return err
}

// Stop unregisters the callbacks, drops cached samples and releases the
// sampler if Start created it.
func (h *HostMetrics) Stop() error {
	err := h.unregister()
	if h.cache != nil {
		h.cache.Invalidate()
		h.cache = nil
	}
	if h.owned != nil {
		err = errors.Join(err, h.owned.Close())
		h.owned = nil
	}
	h.smp = nil
	return err
}

func (h *HostMetrics) unregister() error {
	var errs []error
	for _, reg := range h.regs {
		if err := reg.Unregister(); err != nil {
			errs = append(errs, err)
		}
	}
	h.regs = nil
	return errors.Join(errs...)
}

// observe registers f as the callback of inst and retains the
// registration for Stop.
func (h *HostMetrics) observe(meter metric.Meter, inst metric.Observable,
	f metric.Callback) error {
	reg, err := meter.RegisterCallback(f, inst)
	if err != nil {
		return err
	}
	h.regs = append(h.regs, reg)
	return nil
}

// The sample helpers route every read through the throttled cache:
// callbacks reading the same source within one pass share a single
// sampler call. The sampler runs detached from the caller's context, a
// canceled callback leaves the read completing into the cache for the
// other callbacks of the pass.

func (h *HostMetrics) sampleCPU(ctx context.Context) (sampler.CPUSample, error) {
	return throttle.Get(ctx, h.cache, sourceCPU,
		func() (sampler.CPUSample, error) {
			return h.smp.CPU(context.WithoutCancel(ctx))
		})
}

func (h *HostMetrics) sampleMemory(ctx context.Context) (sampler.MemorySample, error) {
	s, err := throttle.Get(ctx, h.cache, sourceMemory,
		func() (sampler.MemorySample, error) {
			return h.smp.Memory(context.WithoutCancel(ctx))
		})
	if err != nil {
		return sampler.MemorySample{}, err
	}
	if s.TotalBytes == 0 || s.FreeBytes > s.TotalBytes {
		return sampler.MemorySample{}, fmt.Errorf(
			"implausible memory sample: total %d, free %d", s.TotalBytes, s.FreeBytes)
	}
	return s, nil
}

func (h *HostMetrics) sampleNetwork(ctx context.Context) (sampler.NetworkSample, error) {
	return throttle.Get(ctx, h.cache, sourceNetwork,
		func() (sampler.NetworkSample, error) {
			return h.smp.Network(context.WithoutCancel(ctx))
		})
}

func (h *HostMetrics) sampleProcess(ctx context.Context) (sampler.ProcessSample, error) {
	return throttle.Get(ctx, h.cache, sourceProcess,
		func() (sampler.ProcessSample, error) {
			return h.smp.Process(context.WithoutCancel(ctx))
		})
}
