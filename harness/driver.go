package harness

import (
	"fmt"
	"time"

	guda "github.com/LynnColeArt/guda-primitives"
)

const gib = 1024.0 * 1024.0 * 1024.0

// Measurement is the outcome of timing one workload. Bytes and Ops are
// per launch; Total covers the timed iterations only.
type Measurement struct {
	Name         string        `json:"name"`
	Status       string        `json:"status"` // "pass", "fail", "unverified"
	Iterations   int           `json:"iterations"`
	Total        time.Duration `json:"total"`
	PerIteration time.Duration `json:"per_iteration"`
	Bytes        int64         `json:"bytes,omitempty"`
	Ops          int64         `json:"ops,omitempty"`
	Error        string        `json:"error,omitempty"`
	Counters     *Counters     `json:"counters,omitempty"` // per iteration
	Timestamp    time.Time     `json:"timestamp"`
}

// BandwidthGBs is the effective bandwidth in GiB per second
func (m Measurement) BandwidthGBs() float64 {
	if m.PerIteration <= 0 {
		return 0
	}
	return float64(m.Bytes) / gib / m.PerIteration.Seconds()
}

// GOpsPerSec is the operation rate in 2^30 operations per second
func (m Measurement) GOpsPerSec() float64 {
	if m.PerIteration <= 0 {
		return 0
	}
	return float64(m.Ops) / gib / m.PerIteration.Seconds()
}

// String formats the measurement the way the benchmark reports print it
func (m Measurement) String() string {
	s := fmt.Sprintf("%s\n-- Elapsed time : %v\n-- Effective bandwidth : %.3f GB/s",
		m.Name, m.PerIteration, m.BandwidthGBs())
	if m.Ops > 0 {
		s += fmt.Sprintf("\n-- Multiplications per second : %.3f Gops", m.GOpsPerSec())
	}
	if m.Counters != nil {
		s += "\n" + m.Counters.String()
	}
	switch m.Status {
	case "pass":
		s += "\n--- Checking the result succeed!!"
	case "fail":
		s += "\n--- [[[ERROR]]] " + m.Error
	}
	return s
}

// Workload is one primitive invocation to be timed. Run issues a single
// launch on buffers prepared by the caller. Reset, when set, clears the
// output before the first launch so that a variant cannot pass on a
// previous variant's result. Verify, when set, reads the output back and
// checks it.
type Workload struct {
	Name   string
	Bytes  int64
	Ops    int64
	Run    func() error
	Reset  func()
	Verify func() error
}

// Driver times repeated launches of a workload. With Counters set it also
// samples hardware counters over the timed iterations where the platform
// allows it.
type Driver struct {
	Iterations int
	Warmup     int
	Counters   bool
}

// NewDriver returns the benchmarks' 20 timed iterations after one warmup
func NewDriver() Driver {
	return Driver{Iterations: 20, Warmup: 1}
}

// Run executes w.Warmup untimed and w.Iterations timed launches, then
// verifies the last result once. A failed launch is returned as an error;
// a failed verification is recorded in the Measurement.
func (d Driver) Run(w Workload) (Measurement, error) {
	m := Measurement{Name: w.Name, Bytes: w.Bytes, Ops: w.Ops, Iterations: d.Iterations}
	if w.Run == nil {
		return m, guda.NewInvalidArgError("Driver.Run", "workload has no run function")
	}
	if d.Iterations <= 0 {
		return m, guda.NewInvalidArgError("Driver.Run", fmt.Sprintf("invalid iteration count %d", d.Iterations))
	}

	if w.Reset != nil {
		w.Reset()
	}
	for i := 0; i < d.Warmup; i++ {
		if err := w.Run(); err != nil {
			return m, fmt.Errorf("%s warmup: %w", w.Name, err)
		}
	}

	var monitor *CounterMonitor
	if d.Counters {
		if cm, err := NewCounterMonitor(); err == nil {
			defer cm.Close()
			if cm.Start() == nil {
				monitor = cm
			}
		}
	}

	start := time.Now()
	for i := 0; i < d.Iterations; i++ {
		if err := w.Run(); err != nil {
			return m, fmt.Errorf("%s iteration %d: %w", w.Name, i, err)
		}
	}
	m.Total = time.Since(start)
	if monitor != nil {
		if c, err := monitor.Stop(); err == nil {
			per := c.PerIteration(d.Iterations)
			m.Counters = &per
		}
	}
	m.PerIteration = m.Total / time.Duration(d.Iterations)
	m.Timestamp = time.Now()

	switch {
	case w.Verify == nil:
		m.Status = "unverified"
	default:
		if err := w.Verify(); err != nil {
			m.Status = "fail"
			m.Error = err.Error()
		} else {
			m.Status = "pass"
		}
	}
	return m, nil
}
