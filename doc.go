// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package hostmetrics reports host and process resource metrics through the
OpenTelemetry metrics API.

The package registers one observable callback per metric with a meter and
derives, on every collection pass of the SDK:

  - system.cpu.time and system.cpu.utilization per logical core and CPU state
  - system.memory.usage and system.memory.utilization for used and free memory
  - system.network.io, system.network.dropped and system.network.errors per
    device and direction
  - process.cpu.time, process.cpu.utilization and process.memory.usage of the
    calling process

Raw counters are read at most once per pass through a throttled sample
cache, so instruments sharing a source observe consistent values no matter
in which order the SDK invokes their callbacks. Instruments that derive
from counter deltas report nothing on the very first pass: it only
establishes the baselines, so startup never reports misleading zero rates.

Basic usage:

	hm := hostmetrics.New(hostmetrics.WithMeterProvider(provider))
	if err := hm.Start(); err != nil {
		// ...
	}
	defer hm.Stop()
*/
package hostmetrics // import "go.opentelemetry.io/host-metrics"
