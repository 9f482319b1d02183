package timeutil

import (
	"sync"
	"time"
)

// MockClock is a Time implementation holding a fixed instant which tests can
// move forward explicitly.
type MockClock struct {
	mu  sync.RWMutex
	now time.Time
}

var _ Time = &MockClock{}

// NewMockClockAt creates a MockClock frozen at the given instant.
func NewMockClockAt(now time.Time) *MockClock {
	return &MockClock{now: now}
}

func (c *MockClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
