package timeslotdomain

import (
	"errors"
	"time"
)

const (
	MsgBooked          = "Your booking has been successful"
	MsgUnavailable     = "Unfortunately this slot has become unavailable"
	MsgAlreadyBooked   = "You have already booked a timeslot for this entry"
	MsgNoRelease       = "There is not an active Release"
	MsgNotEligible     = "This entry can not book a timeslot"
	MsgNotAvailableYet = "Booking is not open for this entry yet"
	MsgSlotNotFound    = "Timeslot not found"
)

var (
	ErrSlotUnavailable = errors.New(MsgUnavailable)
	ErrNoActiveRelease = errors.New(MsgNoRelease)
	ErrNotEligible     = errors.New(MsgNotEligible)
	ErrNotAvailableYet = errors.New(MsgNotAvailableYet)
	ErrSlotNotFound    = errors.New(MsgSlotNotFound)
	ErrReleaseNotFound = errors.New("release not found")
	ErrPhaseNotEnded   = errors.New("availability can only be assigned after the phase has ended")
)

// Throttle spaces out booking availability: after every Users submissions
// the date advances by Step. A disabled throttle opens everything at once.
type Throttle struct {
	Enabled bool
	Users   int
	Step    time.Duration
}

// AvailabilitySchedule returns n available-on dates starting at start.
func AvailabilitySchedule(n int, start time.Time, t Throttle) []time.Time {
	dates := make([]time.Time, n)
	current := start
	for i := range n {
		if i > 0 && t.Enabled && t.Users > 0 && i%t.Users == 0 {
			current = current.Add(t.Step)
		}
		dates[i] = current
	}
	return dates
}

// CanBookAt reports whether a submission whose availability opens at
// availableOn may book at now. A missing date only blocks when throttling.
func CanBookAt(availableOn *time.Time, now time.Time, throttled bool) bool {
	if availableOn == nil {
		return !throttled
	}
	return !availableOn.After(now)
}
