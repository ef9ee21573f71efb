package timeslotdb

import (
	"time"

	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
	"github.com/uptrace/bun"
)

// Release groups the timeslots offered to one phase (and round).
type Release struct {
	bun.BaseModel `bun:"table:releases,alias:rl"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Name         string    `bun:"name,notnull"`
	PhaseID      int64     `bun:"phase_id,notnull"`
	PhaseRoundID *int64    `bun:"phase_round_id"`
	IsCurrent    bool      `bun:"is_current,notnull,default:false"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// TimeSlot is a webcast slot. Once booked it is never released.
type TimeSlot struct {
	bun.BaseModel `bun:"table:time_slots,alias:ts"`

	ID           int64      `bun:"id,pk,autoincrement"`
	StartDate    time.Time  `bun:"start_date,notnull"`
	EndDate      time.Time  `bun:"end_date,notnull"`
	Notes        string     `bun:"notes,notnull,default:''"`
	ReleaseID    int64      `bun:"release_id,notnull"`
	SubmissionID *int64     `bun:"submission_id"`
	IsBooked     bool       `bun:"is_booked,notnull,default:false"`
	BookingDate  *time.Time `bun:"booking_date"`
	WebcastURL   string     `bun:"webcast_url,notnull,default:''"`
}

// ShortID is the slot's public id.
func (t TimeSlot) ShortID() string {
	return timeslotdomain.ShortID(t.ID)
}

// BookingAvailability is when a green-lit submission may start booking.
type BookingAvailability struct {
	bun.BaseModel `bun:"table:booking_availabilities,alias:ba"`

	ID           int64     `bun:"id,pk,autoincrement"`
	SubmissionID int64     `bun:"submission_id,notnull,unique"`
	ReleaseID    int64     `bun:"release_id,notnull"`
	AvailableOn  time.Time `bun:"available_on,notnull"`
}

// SlotLock holds a slot for one submission until ExpiresAt.
type SlotLock struct {
	bun.BaseModel `bun:"table:slot_locks,alias:sl"`

	SlotID       int64     `bun:"slot_id,pk"`
	SubmissionID int64     `bun:"submission_id,notnull"`
	ExpiresAt    time.Time `bun:"expires_at,notnull"`
}

// BookedFilter narrows ListBooked. Zero fields do not filter.
type BookedFilter struct {
	OwnerID       *int64
	SubmissionIDs []int64
	EndsAfter     *time.Time
}
