package timeslotdomain

import "time"

const (
	SlotBookedTopic       = "timeslot.booked"
	BookingReminderTopic  = "timeslot.reminder"
	BookingAvailableTopic = "timeslot.available"
)

// SlotBookedPayload is published once a submission owns a slot.
type SlotBookedPayload struct {
	SlotID       int64     `json:"slot_id"`
	ShortID      string    `json:"short_id"`
	SubmissionID int64     `json:"submission_id"`
	ProfileID    int64     `json:"profile_id"`
	StartDate    time.Time `json:"start_date"`
	BookedAt     time.Time `json:"booked_at"`
}

// BookingReminderPayload asks the owner of a green-lit submission to book.
type BookingReminderPayload struct {
	ReleaseID    int64  `json:"release_id"`
	Release      string `json:"release"`
	SubmissionID int64  `json:"submission_id"`
	ProfileID    int64  `json:"profile_id"`
	Title        string `json:"title"`
}

// BookingAvailablePayload announces that submissions may now book.
type BookingAvailablePayload struct {
	ReleaseID     int64     `json:"release_id"`
	SubmissionIDs []int64   `json:"submission_ids"`
	AvailableOn   time.Time `json:"available_on"`
}
