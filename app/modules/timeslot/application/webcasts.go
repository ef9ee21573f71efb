package timeslotservice

import (
	"context"
	"errors"
	"time"

	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	timeslotdb "github.com/mozilla/mozilla-ignite/app/modules/timeslot/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/pkg/results"
	"github.com/uptrace/bun"
)

func (s *TimeslotService) webcasts(ctx context.Context, db bun.IDB, filter timeslotdb.BookedFilter) ([]WebcastView, error) {
	slots, err := s.repo.ListBooked(ctx, db, filter)
	if err != nil {
		return nil, err
	}
	views := make([]WebcastView, 0, len(slots))
	for _, slot := range slots {
		view := WebcastView{
			ShortID:    slot.ShortID(),
			StartDate:  slot.StartDate,
			EndDate:    slot.EndDate,
			WebcastURL: slot.WebcastURL,
		}
		if slot.SubmissionID != nil {
			view.SubmissionID = *slot.SubmissionID
			sub, err := s.challenges.GetSubmission(ctx, db, *slot.SubmissionID)
			if err != nil && !errors.Is(err, challengedb.ErrNotFound) {
				return nil, err
			}
			if sub != nil {
				view.Title = sub.Title
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func endsAfter(upcomingOnly bool, now time.Time) *time.Time {
	if !upcomingOnly {
		return nil
	}
	return &now
}

// BookedForProfile lists the webcasts booked by the profile's submissions.
func (s *TimeslotService) BookedForProfile(ctx context.Context, profileID int64, upcomingOnly bool, now time.Time) ([]WebcastView, error) {
	return execute(s, ctx, "BookedForProfile", profileID, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]WebcastView, error], error) {
		views, err := s.webcasts(ctx, db, timeslotdb.BookedFilter{OwnerID: &profileID, EndsAfter: endsAfter(upcomingOnly, now)})
		if err != nil {
			return infraError[[]WebcastView]("failed to list webcasts: %w", err)
		}
		return success(views)
	})
}

// BookedForJudge lists the webcasts of submissions assigned to the judge.
func (s *TimeslotService) BookedForJudge(ctx context.Context, profileID int64, upcomingOnly bool, now time.Time) ([]WebcastView, error) {
	return execute(s, ctx, "BookedForJudge", profileID, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]WebcastView, error], error) {
		assignments, err := s.assignments.ListAssignmentsForJudge(ctx, db, profileID)
		if err != nil {
			return infraError[[]WebcastView]("failed to list assignments: %w", err)
		}
		ids := make([]int64, 0, len(assignments))
		for _, a := range assignments {
			ids = append(ids, a.SubmissionID)
		}
		views, err := s.webcasts(ctx, db, timeslotdb.BookedFilter{SubmissionIDs: ids, EndsAfter: endsAfter(upcomingOnly, now)})
		if err != nil {
			return infraError[[]WebcastView]("failed to list webcasts: %w", err)
		}
		return success(views)
	})
}

// Upcoming lists every booked webcast that has not ended.
func (s *TimeslotService) Upcoming(ctx context.Context, now time.Time) ([]WebcastView, error) {
	return execute(s, ctx, "Upcoming", 0, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]WebcastView, error], error) {
		views, err := s.webcasts(ctx, db, timeslotdb.BookedFilter{EndsAfter: &now})
		if err != nil {
			return infraError[[]WebcastView]("failed to list webcasts: %w", err)
		}
		return success(views)
	})
}
