// Package clock abstracts wall time so retention decisions are testable.
package clock

import "time"

// Clock yields the current time in UTC.
type Clock interface {
	Now() time.Time
}

// System is the production clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}
