// Package system provides the host wall clock.
package system

import "time"

// Clock implements day.Clock using the host's local time. The publication
// calendar is derived from the local date, so no UTC conversion is applied.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current local time.
func (Clock) Now() time.Time {
	return time.Now()
}
