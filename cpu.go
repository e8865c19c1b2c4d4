// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package hostmetrics // import "go.opentelemetry.io/host-metrics"

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/metric"

	"go.opentelemetry.io/host-metrics/delta"
	"go.opentelemetry.io/host-metrics/sampler"
)

// CPU state names reported in metric attributes.
const (
	stateUser      = "user"
	stateSystem    = "system"
	stateIdle      = "idle"
	stateInterrupt = "interrupt"
	stateNice      = "nice"
)

// cpuKey identifies one tracked per-core, per-state tick counter.
type cpuKey struct {
	core  int
	state string
}

// cpuStat is one derived per-core, per-state value.
type cpuStat struct {
	core  int
	state string
	value float64
}

type stateTicks struct {
	state string
	ticks uint64
}

// coreStates decomposes the tick counters of a core in a fixed order.
func coreStates(core sampler.CoreTicks) [5]stateTicks {
	return [5]stateTicks{
		{stateUser, core.User},
		{stateSystem, core.System},
		{stateIdle, core.Idle},
		{stateInterrupt, core.Interrupt},
		{stateNice, core.Nice},
	}
}

// cpuMetrics derives the system CPU metrics from tick samples. The two
// instruments keep independent baselines: both observe the same sample
// within one pass, and the tracker rejects repeated timestamps.
type cpuMetrics struct {
	time *delta.Tracker[cpuKey]
	util *delta.Tracker[cpuKey]
}

func newCPUMetrics() *cpuMetrics {
	return &cpuMetrics{
		time: delta.NewTracker[cpuKey](),
		util: delta.NewTracker[cpuKey](),
	}
}

// cpuTime returns the cumulative CPU seconds per core and state. Counters
// seen for the first time only establish their baseline and report
// nothing.
func (m *cpuMetrics) cpuTime(s sampler.CPUSample) []cpuStat {
	hz := float64(s.TicksPerSecond)

	var out []cpuStat
	for _, core := range s.Cores {
		for _, st := range coreStates(core) {
			if _, ok := m.time.Observe(cpuKey{core.Core, st.state}, st.ticks, s.At); !ok {
				continue
			}
			out = append(out, cpuStat{core.Core, st.state,
				float64(st.ticks) / hz})
		}
	}
	return out
}

// cpuUtilization returns the share each state had in a core's tick delta
// since the previous pass. The shares of one core sum to 1, or are all
// zero if no tick passed. Cores still establishing a baseline report
// nothing.
func (m *cpuMetrics) cpuUtilization(s sampler.CPUSample) []cpuStat {
	var out []cpuStat
	for _, core := range s.Cores {
		states := coreStates(core)

		var deltas [len(states)]uint64
		var total uint64
		baseline := false
		for i, st := range states {
			r, ok := m.util.Observe(cpuKey{core.Core, st.state}, st.ticks, s.At)
			if !ok {
				baseline = true
				continue
			}
			deltas[i] = r.Delta
			total += r.Delta
		}
		if baseline {
			continue
		}
		for i, st := range states {
			var share float64
			if total > 0 {
				share = float64(deltas[i]) / float64(total)
			}
			out = append(out, cpuStat{core.Core, st.state, share})
		}
	}
	return out
}

func cpuAttributes(st cpuStat) metric.MeasurementOption {
	return metric.WithAttributes(
		attrCPUState.String(st.state),
		attrCPULogicalNumber.String(strconv.Itoa(st.core)))
}

// registerCPU creates the system CPU instruments and their callbacks.
func (h *HostMetrics) registerCPU(meter metric.Meter) error {
	cpuTime, err := meter.Float64ObservableCounter("system.cpu.time",
		metric.WithDescription("CPU time in seconds, per logical core and state."),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}
	err = h.observe(meter, cpuTime, func(ctx context.Context, o metric.Observer) error {
		s, err := h.sampleCPU(ctx)
		if err != nil {
			return err
		}
		for _, st := range h.cpu.cpuTime(s) {
			o.ObserveFloat64(cpuTime, st.value, cpuAttributes(st))
		}
		return nil
	})
	if err != nil {
		return err
	}

	cpuUtil, err := meter.Float64ObservableGauge("system.cpu.utilization",
		metric.WithDescription("CPU utilization per logical core and state, 0-1."),
		metric.WithUnit("1"))
	if err != nil {
		return err
	}
	return h.observe(meter, cpuUtil, func(ctx context.Context, o metric.Observer) error {
		s, err := h.sampleCPU(ctx)
		if err != nil {
			return err
		}
		for _, st := range h.cpu.cpuUtilization(s) {
			o.ObserveFloat64(cpuUtil, st.value, cpuAttributes(st))
		}
		return nil
	})
}
