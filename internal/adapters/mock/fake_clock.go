package mock

import (
	"sync"
	"time"
)

// FakeClock is a controllable clock for tests and demos
// This implements the ports.Clock interface
type FakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewFakeClock creates a clock that starts at start
// step: how far the clock advances after every Now call (0 keeps it frozen)
func NewFakeClock(start time.Time, step time.Duration) *FakeClock {
	return &FakeClock{
		now:  start,
		step: step,
	}
}

// Now returns the current fake instant, then advances by step
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Set moves the clock to t
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
