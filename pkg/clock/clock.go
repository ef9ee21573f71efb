// Package clock abstracts "now" so time-windowed logic can be tested.
package clock

import "time"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// AnchorClock always reports the same instant. Batch commands use it so every
// row in one run is computed against one "now".
type AnchorClock struct {
	anchor time.Time
}

// NewAnchorClock anchors at t, or at the current UTC time when t is zero.
func NewAnchorClock(t time.Time) AnchorClock {
	if t.IsZero() {
		return AnchorClock{anchor: time.Now().UTC()}
	}
	return AnchorClock{anchor: t.UTC()}
}

func (c AnchorClock) Now() time.Time { return c.anchor }

// FakeClock is a settable clock for tests.
type FakeClock struct {
	NowFn func() time.Time
}

func (f *FakeClock) Now() time.Time {
	if f.NowFn != nil {
		return f.NowFn()
	}
	return time.Now().UTC()
}
