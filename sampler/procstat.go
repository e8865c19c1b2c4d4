// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package sampler // import "go.opentelemetry.io/host-metrics/sampler"

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// maxLineSize caps a single scanned line. Detecting the end of the cpuN
// block tokenizes the following intr line, which carries one counter per
// possible interrupt and exceeds the seed buffer on many-core machines.
const maxLineSize = 1 << 20

// procStat reads the per-core CPU tick counters from a /proc/stat shaped
// file. The format is described in
// https://man7.org/linux/man-pages/man5/proc.5.html.
type procStat struct {
	mu   sync.Mutex
	file *os.File

	// buf seeds the scanner in read() so the short cpuN lines parse
	// without allocating. Longer lines make the scanner grow, up to
	// maxLineSize.
	buf [8192]byte
}

// openProcStat opens path for repeated reads.
func openProcStat(path string) (*procStat, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", path, err)
	}
	return &procStat{file: file}, nil
}

func (p *procStat) close() error {
	return p.file.Close()
}

// read parses and returns the per-core counters, one entry per cpuN line.
func (p *procStat) read() ([]CoreTicks, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// rewind instead of open/close at every collection pass
	if _, err := p.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(p.file)
	scanner.Buffer(p.buf[:], maxLineSize)

	var cores []CoreTicks
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu") {
			if len(cores) > 0 {
				// The cpuN block is contiguous at the top of the file.
				break
			}
			continue
		}

		fields := strings.Fields(line)
		if fields[0] == "cpu" {
			// Aggregate line, the engines want the per-core decomposition.
			continue
		}

		core, err := strconv.Atoi(strings.TrimPrefix(fields[0], "cpu"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse core number in '%s'", line)
		}

		// cpuN user nice system idle iowait irq ...
		if len(fields) < 7 {
			return nil, fmt.Errorf("failed to find at least 7 fields in '%s'", line)
		}

		ct := CoreTicks{Core: core}
		if ct.User, err = parseTicks(fields[1], "user"); err != nil {
			return nil, err
		}
		if ct.Nice, err = parseTicks(fields[2], "nice"); err != nil {
			return nil, err
		}
		if ct.System, err = parseTicks(fields[3], "system"); err != nil {
			return nil, err
		}
		if ct.Idle, err = parseTicks(fields[4], "idle"); err != nil {
			return nil, err
		}
		if ct.Interrupt, err = parseTicks(fields[6], "irq"); err != nil {
			return nil, err
		}
		cores = append(cores, ct)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", p.file.Name(), err)
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("failed to find per-core cpu lines in %s", p.file.Name())
	}
	return cores, nil
}

// parseTicks parses one numeric column of a cpuN line.
func parseTicks(field, state string) (uint64, error) {
	v, err := strconv.ParseUint(field, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse CPU %s value", state)
	}
	return v, nil
}
