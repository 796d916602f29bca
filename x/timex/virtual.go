package timex

import (
	"sync"
	"time"
)

// VirtualClock is a Delayer that advances a counter instead of sleeping.
// It records every requested delay in order.
type VirtualClock struct {
	mu     sync.Mutex
	now    time.Duration
	delays []uint32
}

func (c *VirtualClock) DelayMs(ms uint32) {
	c.mu.Lock()
	c.now += Ms(ms)
	c.delays = append(c.delays, ms)
	c.mu.Unlock()
}

// Elapsed is the total virtual time spent in DelayMs.
func (c *VirtualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Delays returns a copy of the recorded delay requests.
func (c *VirtualClock) Delays() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint32(nil), c.delays...)
}
