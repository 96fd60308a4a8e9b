package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually advanced time source shared between services under test.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock set to start, or to ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for constructors that take a func() time.Time.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Advance moves the clock forward and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// AdvanceToWeekday moves the clock forward to the next given weekday at the
// same time of day. A clock already on that weekday does not move.
func (c *Clock) AdvanceToWeekday(day time.Weekday) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	delta := (int(day) - int(c.current.Weekday()) + 7) % 7
	c.current = c.current.AddDate(0, 0, delta)
	return c.current
}
