// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package sampler // import "go.opentelemetry.io/host-metrics/sampler"

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
	log "github.com/sirupsen/logrus"
	"github.com/tklauser/go-sysconf"
	"golang.org/x/sys/unix"
)

// defaultTickRate is the fallback if the platform tick rate cannot be
// determined. It is the USER_HZ value of most Linux systems.
const defaultTickRate = 100

// SystemSampler reads the live counters of the host it runs on.
type SystemSampler struct {
	stat *procStat
	hz   int64
	self *process.Process
}

var _ Sampler = (*SystemSampler)(nil)

// New returns a SystemSampler reading from the running kernel.
func New() (*SystemSampler, error) {
	stat, err := openProcStat("/proc/stat")
	if err != nil {
		return nil, err
	}

	// From 'man 5 proc': the cpu values are measured in units of USER_HZ,
	// use sysconf(_SC_CLK_TCK) to obtain the right value.
	hz, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil {
		log.Warnf("Failed to get value of UserHZ / SC_CLK_TCK (using %d as default)",
			defaultTickRate)
		hz = defaultTickRate
	}

	self, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		_ = stat.close()
		return nil, fmt.Errorf("failed to open handle for own process: %v", err)
	}

	return &SystemSampler{stat: stat, hz: hz, self: self}, nil
}

// Close releases the sampler's file handles.
func (s *SystemSampler) Close() error {
	return s.stat.close()
}

// CPU returns the per-core cumulative tick counters.
func (s *SystemSampler) CPU(_ context.Context) (CPUSample, error) {
	cores, err := s.stat.read()
	if err != nil {
		return CPUSample{}, err
	}

	return CPUSample{
		At:             time.Now(),
		TicksPerSecond: s.hz,
		Cores:          cores,
	}, nil
}

// Memory returns the current total and free system memory.
func (s *SystemSampler) Memory(ctx context.Context) (MemorySample, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemorySample{}, fmt.Errorf("failed to read virtual memory: %v", err)
	}

	return MemorySample{
		At:         time.Now(),
		TotalBytes: vm.Total,
		FreeBytes:  vm.Free,
	}, nil
}

// Network returns the cumulative traffic counters of all interfaces.
func (s *SystemSampler) Network(ctx context.Context) (NetworkSample, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return NetworkSample{}, fmt.Errorf("failed to enumerate interface counters: %v", err)
	}

	ifaces := make([]InterfaceCounters, 0, len(counters))
	for _, c := range counters {
		ifaces = append(ifaces, InterfaceCounters{
			Device:    c.Name,
			RxBytes:   c.BytesRecv,
			TxBytes:   c.BytesSent,
			RxDropped: c.Dropin,
			TxDropped: c.Dropout,
			RxErrors:  c.Errin,
			TxErrors:  c.Errout,
		})
	}

	return NetworkSample{At: time.Now(), Interfaces: ifaces}, nil
}

// Process returns the CPU and memory usage of the process itself.
func (s *SystemSampler) Process(ctx context.Context) (ProcessSample, error) {
	var rusage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &rusage); err != nil {
		return ProcessSample{}, fmt.Errorf("failed to fetch rusage: %v", err)
	}

	memInfo, err := s.self.MemoryInfoWithContext(ctx)
	if err != nil {
		return ProcessSample{}, fmt.Errorf("failed to read process memory info: %v", err)
	}

	return ProcessSample{
		At:           time.Now(),
		UserMicros:   timevalMicros(rusage.Utime),
		SystemMicros: timevalMicros(rusage.Stime),
		RSSBytes:     memInfo.RSS,
	}, nil
}

// timevalMicros converts a rusage time value to microseconds.
func timevalMicros(tv unix.Timeval) uint64 {
	return uint64(tv.Sec)*1e6 + uint64(tv.Usec)
}
