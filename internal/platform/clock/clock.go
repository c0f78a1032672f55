package clock

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so that date-window logic can be tested.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// New returns a Clock backed by the system time.
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

// ManagedClock is a hand-driven clock for tests.
type ManagedClock struct {
	mu     sync.Mutex
	start  time.Time
	offset time.Duration
}

// NewManaged returns a ManagedClock frozen at start.
func NewManaged(start time.Time) *ManagedClock {
	return &ManagedClock{start: start}
}

// Now returns the current managed time.
func (c *ManagedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(c.offset)
}

// WarpForward moves the clock forward and returns the new time.
func (c *ManagedClock) WarpForward(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += d
	return c.start.Add(c.offset)
}
