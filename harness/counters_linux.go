//go:build linux

package harness

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// CounterMonitor reads hardware counters through perf_event_open. Counts
// cover the calling thread and every thread the process creates after
// NewCounterMonitor, kernel time excluded.
type CounterMonitor struct {
	fds []int
}

func cacheConfig(cache, op, result int) uint64 {
	return uint64(cache) | uint64(op)<<8 | uint64(result)<<16
}

// NewCounterMonitor opens one disabled counter per event. It fails when
// the kernel refuses perf events, e.g. under perf_event_paranoid or in
// containers.
func NewCounterMonitor() (*CounterMonitor, error) {
	configs := []struct {
		typ    uint32
		config uint64
	}{
		{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES},
		{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS},
		{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_MISSES},
		{unix.PERF_TYPE_HW_CACHE, cacheConfig(unix.PERF_COUNT_HW_CACHE_L1D,
			unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
		{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_MISSES},
	}

	m := &CounterMonitor{}
	for i, c := range configs {
		attr := unix.PerfEventAttr{
			Type:   c.typ,
			Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
			Config: c.config,
			Bits:   unix.PerfBitDisabled | unix.PerfBitInherit | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
		}
		fd, err := unix.PerfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to open perf event %s: %w", counterEvents[i].name, err)
		}
		m.fds = append(m.fds, fd)
	}
	return m, nil
}

// Start resets and enables every counter
func (m *CounterMonitor) Start() error {
	for _, fd := range m.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0); err != nil {
			return err
		}
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
			return err
		}
	}
	return nil
}

// Stop disables the counters and returns their totals since Start
func (m *CounterMonitor) Stop() (Counters, error) {
	var c Counters
	buf := make([]byte, 8)
	for i, fd := range m.fds {
		if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0); err != nil {
			return c, err
		}
		n, err := unix.Read(fd, buf)
		if err != nil {
			return c, fmt.Errorf("failed to read perf event %s: %w", counterEvents[i].name, err)
		}
		if n != len(buf) {
			return c, fmt.Errorf("short read of perf event %s: %d bytes", counterEvents[i].name, n)
		}
		*counterEvents[i].field(&c) = binary.NativeEndian.Uint64(buf)
	}
	return c, nil
}

// Close releases the counters
func (m *CounterMonitor) Close() error {
	var first error
	for _, fd := range m.fds {
		if err := unix.Close(fd); err != nil && first == nil {
			first = err
		}
	}
	m.fds = nil
	return first
}
