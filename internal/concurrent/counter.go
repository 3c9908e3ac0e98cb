package concurrent

import (
	"sync/atomic"
)

// Counter is a synchronous counter for tracking the progress of concurrent tasks.
type Counter struct {
	total uint64
	count uint64
	step  uint64
}

// NewCounter creates a new counter expecting total events.
// Every returns true for one event in each tenth of the total.
func NewCounter(total int) *Counter {
	step := uint64(total / 10)
	if step == 0 {
		step = 1
	}
	return &Counter{
		total: uint64(total),
		step:  step,
	}
}

// Track increments the counter by one and returns the new count
// and whether a progress milestone was reached.
func (c *Counter) Track() (int, bool) {
	n := atomic.AddUint64(&c.count, 1)
	return int(n), n%c.step == 0 || n == c.total
}

// Get returns the current count.
func (c *Counter) Get() int {
	return int(atomic.LoadUint64(&c.count))
}

// Total returns the expected count.
func (c *Counter) Total() int {
	return int(c.total)
}
