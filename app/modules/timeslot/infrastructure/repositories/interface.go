package timeslotdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Repository defines the contract for release, timeslot and availability
// persistence.
type Repository interface {
	CreateRelease(ctx context.Context, db bun.IDB, r *Release) error
	GetRelease(ctx context.Context, db bun.IDB, releaseID int64) (*Release, error)
	GetCurrentRelease(ctx context.Context, db bun.IDB) (*Release, error)
	// SetCurrentRelease marks the release current and every other one not.
	SetCurrentRelease(ctx context.Context, db bun.IDB, releaseID int64) error

	CreateSlot(ctx context.Context, db bun.IDB, s *TimeSlot) error
	GetSlot(ctx context.Context, db bun.IDB, slotID int64) (*TimeSlot, error)
	// ListAvailableSlots returns unbooked slots of the release starting at or
	// after from, earliest first.
	ListAvailableSlots(ctx context.Context, db bun.IDB, releaseID int64, from time.Time) ([]TimeSlot, error)
	// BookSlot books a free slot. It reports false when the slot was taken
	// and ErrSubmissionBooked when the submission won another slot meanwhile.
	BookSlot(ctx context.Context, db bun.IDB, slotID, submissionID int64, at time.Time) (bool, error)
	GetBookedSlotForSubmission(ctx context.Context, db bun.IDB, submissionID int64) (*TimeSlot, error)
	ListBooked(ctx context.Context, db bun.IDB, filter BookedFilter) ([]TimeSlot, error)
	ListBookedSubmissionIDs(ctx context.Context, db bun.IDB, releaseID int64) (map[int64]bool, error)

	GetAvailability(ctx context.Context, db bun.IDB, submissionID int64) (*BookingAvailability, error)
	ListAvailabilitySubmissionIDs(ctx context.Context, db bun.IDB) (map[int64]bool, error)
	CreateAvailabilities(ctx context.Context, db bun.IDB, rows []BookingAvailability) error
}
