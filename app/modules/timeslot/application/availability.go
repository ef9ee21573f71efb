package timeslotservice

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
	timeslotdb "github.com/mozilla/mozilla-ignite/app/modules/timeslot/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/pkg/eventbus"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"github.com/mozilla/mozilla-ignite/pkg/results"
	"github.com/uptrace/bun"
)

func (s *TimeslotService) shuffle(ids []int64) {
	swap := func(i, j int) { ids[i], ids[j] = ids[j], ids[i] }
	if s.rng != nil {
		s.rng.Shuffle(len(ids), swap)
		return
	}
	rand.Shuffle(len(ids), swap)
}

// releaseEnd is when the phase (or round) a release serves closes.
func (s *TimeslotService) releaseEnd(ctx context.Context, db bun.IDB, release *timeslotdb.Release) (time.Time, error) {
	if release.PhaseRoundID != nil {
		round, err := s.challenges.GetRound(ctx, db, *release.PhaseRoundID)
		if err != nil {
			return time.Time{}, err
		}
		return round.EndDate, nil
	}
	phase, err := s.challenges.GetPhase(ctx, db, release.PhaseID)
	if err != nil {
		return time.Time{}, err
	}
	return phase.EndDate, nil
}

// AssignAvailability gives every green-lit submission of the release's phase
// without an availability a date from which it may book. Submissions are
// taken in random order; with throttling on, the date advances after every
// batch of throttling_users. Nothing is written unless commit is set.
func (s *TimeslotService) AssignAvailability(ctx context.Context, releaseID int64, start time.Time, commit bool) (AvailabilityPlan, error) {
	now := s.clock.Now()
	plan, err := execute(s, ctx, "AssignAvailability", releaseID, func(ctx context.Context, db bun.IDB) (results.OperationResult[AvailabilityPlan, error], error) {
		release, err := s.repo.GetRelease(ctx, db, releaseID)
		if err != nil {
			if errors.Is(err, timeslotdb.ErrNotFound) {
				return failure[AvailabilityPlan](timeslotdomain.ErrReleaseNotFound)
			}
			return infraError[AvailabilityPlan]("failed to get release: %w", err)
		}

		end, err := s.releaseEnd(ctx, db, release)
		if err != nil {
			return infraError[AvailabilityPlan]("failed to get release phase: %w", err)
		}
		if end.After(now) {
			return failure[AvailabilityPlan](fmt.Errorf("%w: try again after %s", timeslotdomain.ErrPhaseNotEnded, end.Format(time.RFC3339)))
		}

		winners, err := s.challenges.ListGreenLitSubmissions(ctx, db, release.PhaseID, release.PhaseRoundID)
		if err != nil {
			return infraError[AvailabilityPlan]("failed to list green-lit submissions: %w", err)
		}
		assigned, err := s.repo.ListAvailabilitySubmissionIDs(ctx, db)
		if err != nil {
			return infraError[AvailabilityPlan]("failed to list availabilities: %w", err)
		}

		var ids []int64
		for _, w := range winners {
			if !assigned[w.ID] {
				ids = append(ids, w.ID)
			}
		}
		s.shuffle(ids)

		dates := timeslotdomain.AvailabilitySchedule(len(ids), start, s.throttle())
		plan := AvailabilityPlan{ReleaseID: release.ID, Committed: commit}
		rows := make([]timeslotdb.BookingAvailability, 0, len(ids))
		for i, id := range ids {
			plan.Entries = append(plan.Entries, AvailabilityEntry{SubmissionID: id, AvailableOn: dates[i]})
			rows = append(rows, timeslotdb.BookingAvailability{SubmissionID: id, ReleaseID: release.ID, AvailableOn: dates[i]})
		}

		if commit {
			if err := s.repo.CreateAvailabilities(ctx, db, rows); err != nil {
				return infraError[AvailabilityPlan]("failed to save availabilities: %w", err)
			}
		}
		return success(plan)
	})
	if err != nil {
		return AvailabilityPlan{}, err
	}

	s.obs.Logger.InfoContext(ctx, "Booking availability assigned",
		attr.Int64("release_id", releaseID),
		attr.Int("submissions", len(plan.Entries)),
		attr.Time("start", start),
		attr.Bool("commit", commit),
	)
	if commit {
		s.scheduleNotices(ctx, plan)
	}
	return plan, nil
}

func (s *TimeslotService) scheduleNotices(ctx context.Context, plan AvailabilityPlan) {
	if s.scheduler == nil || len(plan.Entries) == 0 {
		return
	}
	var batches []timeslotdomain.BookingAvailablePayload
	for _, e := range plan.Entries {
		n := len(batches)
		if n > 0 && batches[n-1].AvailableOn.Equal(e.AvailableOn) {
			batches[n-1].SubmissionIDs = append(batches[n-1].SubmissionIDs, e.SubmissionID)
			continue
		}
		batches = append(batches, timeslotdomain.BookingAvailablePayload{
			ReleaseID:     plan.ReleaseID,
			SubmissionIDs: []int64{e.SubmissionID},
			AvailableOn:   e.AvailableOn,
		})
	}
	for _, b := range batches {
		if err := s.scheduler.ScheduleAvailable(ctx, b); err != nil {
			s.obs.Logger.WarnContext(ctx, "Failed to schedule availability notice",
				attr.Time("available_on", b.AvailableOn),
				attr.Error(err),
			)
		}
	}
}

// NotifyPending publishes a booking reminder for every green-lit submission
// of the current release that has not booked. It returns how many were sent.
func (s *TimeslotService) NotifyPending(ctx context.Context) (int, error) {
	reminders, err := execute(s, ctx, "NotifyPending", 0, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]timeslotdomain.BookingReminderPayload, error], error) {
		release, err := s.currentRelease(ctx, db)
		if err != nil {
			if errors.Is(err, timeslotdomain.ErrNoActiveRelease) {
				return failure[[]timeslotdomain.BookingReminderPayload](err)
			}
			return infraError[[]timeslotdomain.BookingReminderPayload]("failed to get current release: %w", err)
		}
		winners, err := s.challenges.ListGreenLitSubmissions(ctx, db, release.PhaseID, release.PhaseRoundID)
		if err != nil {
			return infraError[[]timeslotdomain.BookingReminderPayload]("failed to list green-lit submissions: %w", err)
		}
		booked, err := s.repo.ListBookedSubmissionIDs(ctx, db, release.ID)
		if err != nil {
			return infraError[[]timeslotdomain.BookingReminderPayload]("failed to list bookings: %w", err)
		}

		var out []timeslotdomain.BookingReminderPayload
		for _, w := range winners {
			if booked[w.ID] {
				continue
			}
			out = append(out, reminderFor(release, w))
		}
		return success(out)
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, r := range reminders {
		if err := eventbus.PublishEvent(ctx, s.eventBus, timeslotdomain.BookingReminderTopic, r); err != nil {
			s.obs.Logger.WarnContext(ctx, "Failed to publish booking reminder",
				attr.Int64("submission_id", r.SubmissionID),
				attr.Error(err),
			)
			continue
		}
		sent++
	}
	s.obs.Logger.InfoContext(ctx, "Booking reminders sent", attr.Int("sent", sent), attr.Int("pending", len(reminders)))
	return sent, nil
}

func reminderFor(release *timeslotdb.Release, sub challengedb.Submission) timeslotdomain.BookingReminderPayload {
	return timeslotdomain.BookingReminderPayload{
		ReleaseID:    release.ID,
		Release:      release.Name,
		SubmissionID: sub.ID,
		ProfileID:    sub.CreatedBy,
		Title:        sub.Title,
	}
}
