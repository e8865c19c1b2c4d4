// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package hostmetrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/host-metrics/sampler"
)

func testNetworkSample() sampler.NetworkSample {
	return sampler.NetworkSample{
		Interfaces: []sampler.InterfaceCounters{
			{
				Device:  "eth0",
				RxBytes: 1000, TxBytes: 2000,
				RxDropped: 3, TxDropped: 4,
				RxErrors: 5, TxErrors: 6,
			},
			{
				Device:  "lo",
				RxBytes: 70, TxBytes: 70,
			},
		},
	}
}

func netValue(t *testing.T, stats []netStat, device, direction string) uint64 {
	t.Helper()
	for _, st := range stats {
		if st.device == device && st.direction == direction {
			return st.value
		}
	}
	t.Fatalf("no value for device %s, direction %s", device, direction)
	return 0
}

func TestNetworkIO(t *testing.T) {
	stats := networkIO(testNetworkSample())
	require.Len(t, stats, 4)
	require.Equal(t, uint64(1000), netValue(t, stats, "eth0", directionReceive))
	require.Equal(t, uint64(2000), netValue(t, stats, "eth0", directionTransmit))
	require.Equal(t, uint64(70), netValue(t, stats, "lo", directionReceive))
	require.Equal(t, uint64(70), netValue(t, stats, "lo", directionTransmit))
}

func TestNetworkDropped(t *testing.T) {
	stats := networkDropped(testNetworkSample())
	require.Len(t, stats, 4)
	require.Equal(t, uint64(3), netValue(t, stats, "eth0", directionReceive))
	require.Equal(t, uint64(4), netValue(t, stats, "eth0", directionTransmit))
}

func TestNetworkErrors(t *testing.T) {
	stats := networkErrors(testNetworkSample())
	require.Len(t, stats, 4)
	require.Equal(t, uint64(5), netValue(t, stats, "eth0", directionReceive))
	require.Equal(t, uint64(6), netValue(t, stats, "eth0", directionTransmit))
}

func TestNetworkNoInterfaces(t *testing.T) {
	require.Empty(t, networkIO(sampler.NetworkSample{}))
}
