package timeslotservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	challengedomain "github.com/mozilla/mozilla-ignite/app/modules/challenge/domain"
	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
	timeslotdb "github.com/mozilla/mozilla-ignite/app/modules/timeslot/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/dbtx"
	"github.com/mozilla/mozilla-ignite/pkg/eventbus"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"github.com/mozilla/mozilla-ignite/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// TimeslotService implements the Service interface.
type TimeslotService struct {
	repo        timeslotdb.Repository
	challenges  ChallengeReader
	assignments AssignmentReader
	locker      SlotLocker
	scheduler   AvailabilityScheduler
	eventBus    eventbus.EventBus
	obs         observability.Instrumentation
	clock       clock.Clock
	booking     config.BookingConfig
	rng         *rand.Rand
	db          *bun.DB
}

var _ Service = (*TimeslotService)(nil)

// Deps are the collaborators of a TimeslotService. Scheduler, EventBus and
// Rand may be nil.
type Deps struct {
	Repo        timeslotdb.Repository
	Challenges  ChallengeReader
	Assignments AssignmentReader
	Locker      SlotLocker
	Scheduler   AvailabilityScheduler
	EventBus    eventbus.EventBus
	Clock       clock.Clock
	Rand        *rand.Rand
}

func NewTimeslotService(
	deps Deps,
	booking config.BookingConfig,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *TimeslotService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &TimeslotService{
		repo:        deps.Repo,
		challenges:  deps.Challenges,
		assignments: deps.Assignments,
		locker:      deps.Locker,
		scheduler:   deps.Scheduler,
		eventBus:    deps.EventBus,
		obs:         observability.NewInstrumentation("TimeslotService", logger, metrics, tracer),
		clock:       clk,
		booking:     booking,
		rng:         deps.Rand,
		db:          db,
	}
}

func execute[S any](
	s *TimeslotService,
	ctx context.Context,
	op string,
	id int64,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error),
) (S, error) {
	var zero S
	result, err := observability.WithTelemetry(s.obs, ctx, op, strconv.FormatInt(id, 10), func(ctx context.Context) (results.OperationResult[S, error], error) {
		return dbtx.RunInTx(ctx, s.db, fn)
	})
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	return *result.Success, nil
}

func success[S any](v S) (results.OperationResult[S, error], error) {
	return results.SuccessResult[S, error](v), nil
}

func failure[S any](err error) (results.OperationResult[S, error], error) {
	return results.FailureResult[S, error](err), nil
}

func infraError[S any](format string, err error) (results.OperationResult[S, error], error) {
	return results.OperationResult[S, error]{}, fmt.Errorf(format, err)
}

func (s *TimeslotService) throttle() timeslotdomain.Throttle {
	return timeslotdomain.Throttle{
		Enabled: s.booking.ThrottlingEnabled,
		Users:   s.booking.ThrottlingUsers,
		Step:    s.booking.ThrottlingTimedelta,
	}
}

func (s *TimeslotService) currentRelease(ctx context.Context, db bun.IDB) (*timeslotdb.Release, error) {
	release, err := s.repo.GetCurrentRelease(ctx, db)
	if errors.Is(err, timeslotdb.ErrNotFound) {
		return nil, timeslotdomain.ErrNoActiveRelease
	}
	return release, err
}

// Book gives the slot to the submission. Only the submission's owner may
// book, once, a slot of the current release once its availability opened.
func (s *TimeslotService) Book(ctx context.Context, profileID, submissionID int64, shortID string) (BookingOutcome, error) {
	now := s.clock.Now()
	var booked *timeslotdb.TimeSlot

	outcome, err := execute(s, ctx, "Book", submissionID, func(ctx context.Context, db bun.IDB) (results.OperationResult[BookingOutcome, error], error) {
		submission, err := s.challenges.GetSubmission(ctx, db, submissionID)
		if err != nil {
			if errors.Is(err, challengedb.ErrNotFound) {
				return failure[BookingOutcome](timeslotdomain.ErrNotEligible)
			}
			return infraError[BookingOutcome]("failed to get submission: %w", err)
		}
		sub := submission.Domain()
		if !challengedomain.OwnedBy(sub, profileID) || !challengedomain.IsGreenLit(sub) {
			return failure[BookingOutcome](timeslotdomain.ErrNotEligible)
		}

		if existing, err := s.repo.GetBookedSlotForSubmission(ctx, db, submissionID); err == nil {
			return success(alreadyBookedOutcome(existing))
		} else if !errors.Is(err, timeslotdb.ErrNotFound) {
			return infraError[BookingOutcome]("failed to check booking: %w", err)
		}

		release, err := s.currentRelease(ctx, db)
		if err != nil {
			if errors.Is(err, timeslotdomain.ErrNoActiveRelease) {
				return failure[BookingOutcome](err)
			}
			return infraError[BookingOutcome]("failed to get current release: %w", err)
		}
		if !challengedomain.MatchesPhase(sub, release.PhaseID, release.PhaseRoundID) {
			return failure[BookingOutcome](timeslotdomain.ErrNotEligible)
		}

		var availableOn *time.Time
		if a, err := s.repo.GetAvailability(ctx, db, submissionID); err == nil {
			availableOn = &a.AvailableOn
		} else if !errors.Is(err, timeslotdb.ErrNotFound) {
			return infraError[BookingOutcome]("failed to get availability: %w", err)
		}
		if !timeslotdomain.CanBookAt(availableOn, now, s.booking.ThrottlingEnabled) {
			return failure[BookingOutcome](timeslotdomain.ErrNotAvailableYet)
		}

		slotID, ok := timeslotdomain.ParseShortID(shortID)
		if !ok {
			return failure[BookingOutcome](timeslotdomain.ErrSlotNotFound)
		}
		slot, err := s.repo.GetSlot(ctx, db, slotID)
		if err != nil {
			if errors.Is(err, timeslotdb.ErrNotFound) {
				return failure[BookingOutcome](timeslotdomain.ErrSlotNotFound)
			}
			return infraError[BookingOutcome]("failed to get timeslot: %w", err)
		}
		if slot.ReleaseID != release.ID {
			return failure[BookingOutcome](timeslotdomain.ErrSlotNotFound)
		}
		if slot.IsBooked {
			return failure[BookingOutcome](timeslotdomain.ErrSlotUnavailable)
		}

		locked, err := s.locker.Acquire(ctx, slot.ID, submissionID, s.booking.Expiration)
		if err != nil {
			return infraError[BookingOutcome]("failed to lock timeslot: %w", err)
		}
		if !locked {
			return failure[BookingOutcome](timeslotdomain.ErrSlotUnavailable)
		}

		ok, err = s.repo.BookSlot(ctx, db, slot.ID, submissionID, now)
		if errors.Is(err, timeslotdb.ErrSubmissionBooked) {
			return s.alreadyBooked(ctx, db, submissionID)
		}
		if err != nil {
			return infraError[BookingOutcome]("failed to book timeslot: %w", err)
		}
		if !ok {
			return failure[BookingOutcome](timeslotdomain.ErrSlotUnavailable)
		}
		booked = slot
		return success(BookingOutcome{
			Message:   timeslotdomain.MsgBooked,
			ShortID:   slot.ShortID(),
			StartDate: slot.StartDate,
		})
	})
	if err != nil {
		return BookingOutcome{}, err
	}

	if booked != nil {
		payload := timeslotdomain.SlotBookedPayload{
			SlotID:       booked.ID,
			ShortID:      booked.ShortID(),
			SubmissionID: submissionID,
			ProfileID:    profileID,
			StartDate:    booked.StartDate,
			BookedAt:     now,
		}
		if err := eventbus.PublishEvent(ctx, s.eventBus, timeslotdomain.SlotBookedTopic, payload); err != nil {
			s.obs.Logger.WarnContext(ctx, "Failed to publish booking event",
				attr.Int64("slot_id", booked.ID),
				attr.Error(err),
			)
		}
	}
	return outcome, nil
}

func alreadyBookedOutcome(slot *timeslotdb.TimeSlot) BookingOutcome {
	return BookingOutcome{
		Message:       timeslotdomain.MsgAlreadyBooked,
		ShortID:       slot.ShortID(),
		StartDate:     slot.StartDate,
		AlreadyBooked: true,
	}
}

// alreadyBooked answers a request that lost to a concurrent booking of
// another slot by the same submission.
func (s *TimeslotService) alreadyBooked(ctx context.Context, db bun.IDB, submissionID int64) (results.OperationResult[BookingOutcome, error], error) {
	existing, err := s.repo.GetBookedSlotForSubmission(ctx, db, submissionID)
	if errors.Is(err, timeslotdb.ErrNotFound) {
		return failure[BookingOutcome](timeslotdomain.ErrSlotUnavailable)
	}
	if err != nil {
		return infraError[BookingOutcome]("failed to check booking: %w", err)
	}
	return success(alreadyBookedOutcome(existing))
}

// AvailableSlots lists the current release's free slots starting from now.
func (s *TimeslotService) AvailableSlots(ctx context.Context, now time.Time) ([]SlotView, error) {
	return execute(s, ctx, "AvailableSlots", 0, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]SlotView, error], error) {
		release, err := s.currentRelease(ctx, db)
		if err != nil {
			if errors.Is(err, timeslotdomain.ErrNoActiveRelease) {
				return failure[[]SlotView](err)
			}
			return infraError[[]SlotView]("failed to get current release: %w", err)
		}
		slots, err := s.repo.ListAvailableSlots(ctx, db, release.ID, now)
		if err != nil {
			return infraError[[]SlotView]("failed to list timeslots: %w", err)
		}
		views := make([]SlotView, 0, len(slots))
		for _, slot := range slots {
			views = append(views, SlotView{
				ShortID:   slot.ShortID(),
				StartDate: slot.StartDate,
				EndDate:   slot.EndDate,
				Notes:     slot.Notes,
			})
		}
		return success(views)
	})
}

// SetCurrentRelease makes releaseID the only current release.
func (s *TimeslotService) SetCurrentRelease(ctx context.Context, releaseID int64) error {
	_, err := execute(s, ctx, "SetCurrentRelease", releaseID, func(ctx context.Context, db bun.IDB) (results.OperationResult[int64, error], error) {
		if err := s.repo.SetCurrentRelease(ctx, db, releaseID); err != nil {
			if errors.Is(err, timeslotdb.ErrNotFound) {
				return failure[int64](timeslotdomain.ErrReleaseNotFound)
			}
			return infraError[int64]("failed to set current release: %w", err)
		}
		return success(releaseID)
	})
	return err
}
