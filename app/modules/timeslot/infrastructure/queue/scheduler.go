package timeslotqueue

import (
	"context"

	timeslotservice "github.com/mozilla/mozilla-ignite/app/modules/timeslot/application"
	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
	"github.com/mozilla/mozilla-ignite/pkg/queue"
)

// Scheduler turns availability notices into jobs due on their date.
type Scheduler struct {
	queue queue.Scheduler
}

var _ timeslotservice.AvailabilityScheduler = (*Scheduler)(nil)

func NewScheduler(q queue.Scheduler) *Scheduler {
	return &Scheduler{queue: q}
}

func (s *Scheduler) ScheduleAvailable(ctx context.Context, payload timeslotdomain.BookingAvailablePayload) error {
	return s.queue.Schedule(ctx, AvailabilityJob{
		ReleaseID:     payload.ReleaseID,
		SubmissionIDs: payload.SubmissionIDs,
		AvailableOn:   payload.AvailableOn,
	}, payload.AvailableOn)
}
