// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package hostmetrics // import "go.opentelemetry.io/host-metrics"

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"go.opentelemetry.io/host-metrics/delta"
	"go.opentelemetry.io/host-metrics/sampler"
)

// processStat is one derived per-state value of the own process.
type processStat struct {
	state string
	value float64
}

type stateMicros struct {
	state  string
	micros uint64
}

// processStates decomposes the cumulative CPU micros of a sample.
func processStates(s sampler.ProcessSample) [2]stateMicros {
	return [2]stateMicros{
		{stateUser, s.UserMicros},
		{stateSystem, s.SystemMicros},
	}
}

// processMetrics derives the process CPU metrics from rusage samples.
// Like the system CPU engine it keeps one baseline per instrument.
type processMetrics struct {
	time *delta.Tracker[string]
	util *delta.Tracker[string]
}

func newProcessMetrics() *processMetrics {
	return &processMetrics{
		time: delta.NewTracker[string](),
		util: delta.NewTracker[string](),
	}
}

// cpuTime returns the cumulative process CPU seconds per state once a
// baseline exists.
func (m *processMetrics) cpuTime(s sampler.ProcessSample) []processStat {
	var out []processStat
	for _, st := range processStates(s) {
		if _, ok := m.time.Observe(st.state, st.micros, s.At); !ok {
			continue
		}
		out = append(out, processStat{st.state, float64(st.micros) / 1e6})
	}
	return out
}

// cpuUtilization returns the share of wall-clock time the process spent
// in each CPU state since the previous pass. Multi-threaded processes can
// accumulate more CPU than wall-clock time, the share is clamped to 1.
func (m *processMetrics) cpuUtilization(s sampler.ProcessSample) []processStat {
	var out []processStat
	for _, st := range processStates(s) {
		r, ok := m.util.Observe(st.state, st.micros, s.At)
		if !ok {
			continue
		}
		share := float64(r.Delta) / 1e6 / r.Elapsed.Seconds()
		if share > 1 {
			share = 1
		}
		out = append(out, processStat{st.state, share})
	}
	return out
}

// registerProcess creates the own-process instruments and their
// callbacks.
func (h *HostMetrics) registerProcess(meter metric.Meter) error {
	procTime, err := meter.Float64ObservableCounter("process.cpu.time",
		metric.WithDescription("Process CPU time in seconds."),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}
	err = h.observe(meter, procTime, func(ctx context.Context, o metric.Observer) error {
		s, err := h.sampleProcess(ctx)
		if err != nil {
			return err
		}
		for _, st := range h.proc.cpuTime(s) {
			o.ObserveFloat64(procTime, st.value,
				metric.WithAttributes(attrProcessCPUState.String(st.state)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	procUtil, err := meter.Float64ObservableGauge("process.cpu.utilization",
		metric.WithDescription("Process CPU utilization against wall-clock time, 0-1."),
		metric.WithUnit("1"))
	if err != nil {
		return err
	}
	err = h.observe(meter, procUtil, func(ctx context.Context, o metric.Observer) error {
		s, err := h.sampleProcess(ctx)
		if err != nil {
			return err
		}
		for _, st := range h.proc.cpuUtilization(s) {
			o.ObserveFloat64(procUtil, st.value,
				metric.WithAttributes(attrProcessCPUState.String(st.state)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	procMemory, err := meter.Int64ObservableGauge("process.memory.usage",
		metric.WithDescription("Process resident memory in bytes."),
		metric.WithUnit("By"))
	if err != nil {
		return err
	}
	return h.observe(meter, procMemory, func(ctx context.Context, o metric.Observer) error {
		s, err := h.sampleProcess(ctx)
		if err != nil {
			return err
		}
		o.ObserveInt64(procMemory, int64(s.RSSBytes))
		return nil
	})
}
