// Package clock abstracts the wall clock so time-dependent code can be tested.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type clock struct{}

// New returns a Clock backed by time.Now.
func New() Clock {
	return clock{}
}

func (clock) Now() time.Time {
	return time.Now()
}

// ManagedClock is a clock that only moves when told to. Intended for tests.
type ManagedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManaged returns a ManagedClock starting at startTime.
func NewManaged(startTime time.Time) *ManagedClock {
	return &ManagedClock{now: startTime}
}

// Now returns the managed time.
func (c *ManagedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// WarpForward moves time forward by offset and returns the new time.
func (c *ManagedClock) WarpForward(offset time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if offset > 0 {
		c.now = c.now.Add(offset)
	}
	return c.now
}
