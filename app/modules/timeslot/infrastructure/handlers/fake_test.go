package timeslothandlers

import (
	"context"
	"time"

	timeslotservice "github.com/mozilla/mozilla-ignite/app/modules/timeslot/application"
)

type FakeService struct {
	BookFunc             func(ctx context.Context, profileID, submissionID int64, shortID string) (timeslotservice.BookingOutcome, error)
	AvailableSlotsFunc   func(ctx context.Context, now time.Time) ([]timeslotservice.SlotView, error)
	BookedForProfileFunc func(ctx context.Context, profileID int64, upcomingOnly bool, now time.Time) ([]timeslotservice.WebcastView, error)
	BookedForJudgeFunc   func(ctx context.Context, profileID int64, upcomingOnly bool, now time.Time) ([]timeslotservice.WebcastView, error)
	UpcomingFunc         func(ctx context.Context, now time.Time) ([]timeslotservice.WebcastView, error)
}

var _ timeslotservice.Service = (*FakeService)(nil)

func (f *FakeService) Book(ctx context.Context, profileID, submissionID int64, shortID string) (timeslotservice.BookingOutcome, error) {
	if f.BookFunc != nil {
		return f.BookFunc(ctx, profileID, submissionID, shortID)
	}
	return timeslotservice.BookingOutcome{}, nil
}

func (f *FakeService) AvailableSlots(ctx context.Context, now time.Time) ([]timeslotservice.SlotView, error) {
	if f.AvailableSlotsFunc != nil {
		return f.AvailableSlotsFunc(ctx, now)
	}
	return nil, nil
}

func (f *FakeService) SetCurrentRelease(ctx context.Context, releaseID int64) error { return nil }

func (f *FakeService) AssignAvailability(ctx context.Context, releaseID int64, start time.Time, commit bool) (timeslotservice.AvailabilityPlan, error) {
	return timeslotservice.AvailabilityPlan{ReleaseID: releaseID, Committed: commit}, nil
}

func (f *FakeService) NotifyPending(ctx context.Context) (int, error) { return 0, nil }

func (f *FakeService) BookedForProfile(ctx context.Context, profileID int64, upcomingOnly bool, now time.Time) ([]timeslotservice.WebcastView, error) {
	if f.BookedForProfileFunc != nil {
		return f.BookedForProfileFunc(ctx, profileID, upcomingOnly, now)
	}
	return nil, nil
}

func (f *FakeService) BookedForJudge(ctx context.Context, profileID int64, upcomingOnly bool, now time.Time) ([]timeslotservice.WebcastView, error) {
	if f.BookedForJudgeFunc != nil {
		return f.BookedForJudgeFunc(ctx, profileID, upcomingOnly, now)
	}
	return nil, nil
}

func (f *FakeService) Upcoming(ctx context.Context, now time.Time) ([]timeslotservice.WebcastView, error) {
	if f.UpcomingFunc != nil {
		return f.UpcomingFunc(ctx, now)
	}
	return nil, nil
}
