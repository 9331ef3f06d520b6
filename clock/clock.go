// Package clock provides the device clock. The host's wall clock cannot be
// set without privileges, so a settable clock is modeled as an offset applied
// on top of the host clock, the way an external RTC would shadow it.
package clock

import "time"

// Clock is the device clock used by the scheduler and every data source.
type Clock interface {
	// Now returns the current device time.
	Now() time.Time

	// Set adjusts the device clock to the given time. It reports whether the
	// device supports clock setting at all.
	Set(t time.Time) bool
}

// Adjustable is a settable Clock backed by the host clock plus an offset.
type Adjustable struct {
	offset time.Duration
}

func NewAdjustable() *Adjustable {
	return &Adjustable{}
}

func (c *Adjustable) Now() time.Time {
	return time.Now().Add(c.offset)
}

func (c *Adjustable) Set(t time.Time) bool {
	c.offset = time.Until(t)
	return true
}

// Fixed is a Clock pinned to a single instant, for tests.
type Fixed struct {
	T time.Time
}

func (c Fixed) Now() time.Time     { return c.T }
func (c Fixed) Set(time.Time) bool { return false }
