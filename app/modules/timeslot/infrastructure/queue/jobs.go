package timeslotqueue

import (
	"time"

	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
)

// ReminderJob asks every unbooked submission of the current release to book.
type ReminderJob struct{}

func (ReminderJob) Kind() string { return "timeslot_reminder" }

// AvailabilityJob fires when a batch of submissions may start booking.
type AvailabilityJob struct {
	ReleaseID     int64     `json:"release_id"`
	SubmissionIDs []int64   `json:"submission_ids"`
	AvailableOn   time.Time `json:"available_on"`
}

func (AvailabilityJob) Kind() string { return "timeslot_available" }

func (j AvailabilityJob) Payload() timeslotdomain.BookingAvailablePayload {
	return timeslotdomain.BookingAvailablePayload{
		ReleaseID:     j.ReleaseID,
		SubmissionIDs: j.SubmissionIDs,
		AvailableOn:   j.AvailableOn,
	}
}
