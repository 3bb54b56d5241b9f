//go:build !linux

package harness

// CounterMonitor is unavailable outside Linux
type CounterMonitor struct{}

// NewCounterMonitor always fails with ErrCountersUnavailable
func NewCounterMonitor() (*CounterMonitor, error) {
	return nil, ErrCountersUnavailable
}

func (m *CounterMonitor) Start() error { return ErrCountersUnavailable }

func (m *CounterMonitor) Stop() (Counters, error) { return Counters{}, ErrCountersUnavailable }

func (m *CounterMonitor) Close() error { return nil }
