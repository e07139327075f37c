// Package clock abstracts wall-clock access so download timestamps are
// controllable in tests.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System implements Clock using time.Now.
type System struct{}

// NewSystem creates a System clock.
func NewSystem() *System {
	return &System{}
}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}
