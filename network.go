// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package hostmetrics // import "go.opentelemetry.io/host-metrics"

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"go.opentelemetry.io/host-metrics/sampler"
)

// Traffic direction names reported in metric attributes.
const (
	directionReceive  = "receive"
	directionTransmit = "transmit"
)

// netStat is one cumulative per-device, per-direction counter value.
// The kernel counters are totals since boot already, so the network
// metrics pass them through without delta tracking.
type netStat struct {
	device    string
	direction string
	value     uint64
}

// perDirection splits one counter pair of every interface into receive
// and transmit entries.
func perDirection(s sampler.NetworkSample,
	rx, tx func(sampler.InterfaceCounters) uint64) []netStat {
	out := make([]netStat, 0, 2*len(s.Interfaces))
	for _, ifc := range s.Interfaces {
		out = append(out,
			netStat{ifc.Device, directionReceive, rx(ifc)},
			netStat{ifc.Device, directionTransmit, tx(ifc)})
	}
	return out
}

func networkIO(s sampler.NetworkSample) []netStat {
	return perDirection(s,
		func(c sampler.InterfaceCounters) uint64 { return c.RxBytes },
		func(c sampler.InterfaceCounters) uint64 { return c.TxBytes })
}

func networkDropped(s sampler.NetworkSample) []netStat {
	return perDirection(s,
		func(c sampler.InterfaceCounters) uint64 { return c.RxDropped },
		func(c sampler.InterfaceCounters) uint64 { return c.TxDropped })
}

func networkErrors(s sampler.NetworkSample) []netStat {
	return perDirection(s,
		func(c sampler.InterfaceCounters) uint64 { return c.RxErrors },
		func(c sampler.InterfaceCounters) uint64 { return c.TxErrors })
}

func networkAttributes(st netStat) metric.MeasurementOption {
	return metric.WithAttributes(
		attrNetworkDevice.String(st.device),
		attrNetworkDirection.String(st.direction))
}

// registerNetwork creates the network counter instruments and their
// callbacks. All three read the same interface enumeration, the sample
// cache collapses them into a single kernel read per pass.
func (h *HostMetrics) registerNetwork(meter metric.Meter) error {
	instruments := []struct {
		name        string
		description string
		unit        string
		derive      func(sampler.NetworkSample) []netStat
	}{
		{"system.network.io",
			"Network bytes transmitted and received, per device.",
			"By", networkIO},
		{"system.network.dropped",
			"Network packets dropped, per device and direction.",
			"{packet}", networkDropped},
		{"system.network.errors",
			"Network errors, per device and direction.",
			"{error}", networkErrors},
	}

	for _, ins := range instruments {
		counter, err := meter.Int64ObservableCounter(ins.name,
			metric.WithDescription(ins.description),
			metric.WithUnit(ins.unit))
		if err != nil {
			return err
		}
		derive := ins.derive
		err = h.observe(meter, counter, func(ctx context.Context, o metric.Observer) error {
			s, err := h.sampleNetwork(ctx)
			if err != nil {
				return err
			}
			for _, st := range derive(s) {
				o.ObserveInt64(counter, int64(st.value), networkAttributes(st))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
