package testfixtures

import (
	"sync"
	"time"
)

// Clock is a settable time source. When a tick is configured every call to
// Now advances the clock afterwards, so consecutive writes get distinct
// timestamps.
type Clock struct {
	mu      sync.Mutex
	current time.Time
	tick    time.Duration
}

// NewClock returns a clock stopped at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// NewTickingClock returns a clock that moves forward by tick after each read.
func NewTickingClock(start time.Time, tick time.Duration) *Clock {
	c := NewClock(start)
	c.tick = tick
	return c
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.tick)
	return now
}

// Peek returns the next value Now would produce without consuming a tick.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc adapts the clock for constructor injection.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}
