package harness

import (
	"errors"
	"fmt"
)

// ErrCountersUnavailable is returned by NewCounterMonitor on platforms
// without perf events
var ErrCountersUnavailable = errors.New("hardware counters unavailable on this platform")

// Counters holds hardware counter totals over the timed iterations of a
// workload
type Counters struct {
	Cycles         uint64 `json:"cycles"`
	Instructions   uint64 `json:"instructions"`
	CacheMisses    uint64 `json:"cache_misses"`
	L1DCacheMisses uint64 `json:"l1d_cache_misses"`
	BranchMisses   uint64 `json:"branch_misses"`
}

// IPC is instructions per cycle
func (c Counters) IPC() float64 {
	if c.Cycles == 0 {
		return 0
	}
	return float64(c.Instructions) / float64(c.Cycles)
}

// PerIteration divides every total by n
func (c Counters) PerIteration(n int) Counters {
	if n <= 0 {
		return c
	}
	d := uint64(n)
	return Counters{
		Cycles:         c.Cycles / d,
		Instructions:   c.Instructions / d,
		CacheMisses:    c.CacheMisses / d,
		L1DCacheMisses: c.L1DCacheMisses / d,
		BranchMisses:   c.BranchMisses / d,
	}
}

func (c Counters) String() string {
	return fmt.Sprintf("-- IPC : %.2f\n-- Cache misses : %d\n-- L1D misses : %d",
		c.IPC(), c.CacheMisses, c.L1DCacheMisses)
}

// counterEvent names one hardware event and its slot in Counters
type counterEvent struct {
	name  string
	field func(*Counters) *uint64
}

var counterEvents = []counterEvent{
	{"cycles", func(c *Counters) *uint64 { return &c.Cycles }},
	{"instructions", func(c *Counters) *uint64 { return &c.Instructions }},
	{"cache-misses", func(c *Counters) *uint64 { return &c.CacheMisses }},
	{"L1-dcache-load-misses", func(c *Counters) *uint64 { return &c.L1DCacheMisses }},
	{"branch-misses", func(c *Counters) *uint64 { return &c.BranchMisses }},
}
