package timeutil

import "time"

// Time abstracts the current time so request timing can be tested.
type Time interface {
	// Now returns the current time.
	Now() time.Time
}

// RealTime reads the system clock.
type RealTime struct{}

func (c *RealTime) Now() time.Time {
	return time.Now()
}
