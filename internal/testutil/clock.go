package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant a DeterministicClock reports.
var Epoch = time.Date(2024, time.March, 2, 15, 0, 0, 0, time.UTC)

// DeterministicClock is a stepping wall clock for tests.
//
// Each call to Now advances by one second from Epoch, so Created and Updated
// timestamps are distinct and reproducible across runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	step time.Duration
	n    int64
}

// NewDeterministicClock creates a clock whose first Now returns Epoch.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{step: time.Second}
}

// Now returns the next instant and advances the clock.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Ticks returns how many times Now has been called.
func (c *DeterministicClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock so the next Now returns Epoch again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
