package timeslotservice

import (
	"context"
	"time"

	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	judgingdb "github.com/mozilla/mozilla-ignite/app/modules/judging/infrastructure/repositories"
	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
	"github.com/uptrace/bun"
)

// ChallengeReader is what booking reads about phases and submissions.
type ChallengeReader interface {
	GetSubmission(ctx context.Context, db bun.IDB, submissionID int64) (*challengedb.Submission, error)
	GetPhase(ctx context.Context, db bun.IDB, phaseID int64) (*challengedb.Phase, error)
	GetRound(ctx context.Context, db bun.IDB, roundID int64) (*challengedb.PhaseRound, error)
	ListGreenLitSubmissions(ctx context.Context, db bun.IDB, phaseID int64, roundID *int64) ([]challengedb.Submission, error)
}

// AssignmentReader lists the submissions a judge was given.
type AssignmentReader interface {
	ListAssignmentsForJudge(ctx context.Context, db bun.IDB, profileID int64) ([]judgingdb.JudgeAssignment, error)
}

// SlotLocker holds a slot for one submission for ttl. Acquire reports true
// when the lock is free or already held by submissionID.
type SlotLocker interface {
	Acquire(ctx context.Context, slotID, submissionID int64, ttl time.Duration) (bool, error)
}

// AvailabilityScheduler announces availability dates once they arrive.
type AvailabilityScheduler interface {
	ScheduleAvailable(ctx context.Context, payload timeslotdomain.BookingAvailablePayload) error
}

// Service is the timeslot module's application surface.
type Service interface {
	Book(ctx context.Context, profileID, submissionID int64, shortID string) (BookingOutcome, error)
	AvailableSlots(ctx context.Context, now time.Time) ([]SlotView, error)
	SetCurrentRelease(ctx context.Context, releaseID int64) error
	AssignAvailability(ctx context.Context, releaseID int64, start time.Time, commit bool) (AvailabilityPlan, error)
	NotifyPending(ctx context.Context) (int, error)

	BookedForProfile(ctx context.Context, profileID int64, upcomingOnly bool, now time.Time) ([]WebcastView, error)
	BookedForJudge(ctx context.Context, profileID int64, upcomingOnly bool, now time.Time) ([]WebcastView, error)
	Upcoming(ctx context.Context, now time.Time) ([]WebcastView, error)
}

// BookingOutcome is the result of a booking request. AlreadyBooked marks the
// graceful retry of a submission that owns a slot.
type BookingOutcome struct {
	Message       string    `json:"message"`
	ShortID       string    `json:"short_id,omitempty"`
	StartDate     time.Time `json:"start_date,omitzero"`
	AlreadyBooked bool      `json:"already_booked"`
}

type SlotView struct {
	ShortID   string    `json:"short_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Notes     string    `json:"notes,omitempty"`
}

type WebcastView struct {
	ShortID      string    `json:"short_id"`
	SubmissionID int64     `json:"submission_id"`
	Title        string    `json:"title"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	WebcastURL   string    `json:"webcast_url,omitempty"`
}

// AvailabilityEntry is when one submission may start booking.
type AvailabilityEntry struct {
	SubmissionID int64
	AvailableOn  time.Time
}

// AvailabilityPlan is the outcome of AssignAvailability.
type AvailabilityPlan struct {
	ReleaseID int64
	Entries   []AvailabilityEntry
	Committed bool
}
