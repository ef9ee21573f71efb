package timeslotservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sort"
	"testing"
	"time"

	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	judgingdb "github.com/mozilla/mozilla-ignite/app/modules/judging/infrastructure/repositories"
	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
	timeslotdb "github.com/mozilla/mozilla-ignite/app/modules/timeslot/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	phaseID     = int64(10)
	releaseID   = int64(50)
	oldRelease  = int64(49)
	ownerID     = int64(6)
	otherOwner  = int64(8)
	judgeID     = int64(5)
	winner      = int64(1)
	otherWinner = int64(2)
	loser       = int64(3)
	slotA       = int64(100)
	slotB       = int64(101)
	oldSlot     = int64(102)
)

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	challenges *challengedb.FakeRepository
	judging    *judgingdb.FakeRepository
	slots      *timeslotdb.FakeRepository
	locker     *fakeLocker
	scheduler  *fakeScheduler
	bus        *recordingBus
	booking    config.BookingConfig
}

func newFixture() *fixture {
	challenges := challengedb.NewFakeRepository()
	challenges.Phases[phaseID] = &challengedb.Phase{ID: phaseID, Name: "Ideation", StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(0, 0, -1)}
	challenges.Submissions[winner] = &challengedb.Submission{ID: winner, PhaseID: phaseID, CreatedBy: ownerID, Title: "Winner", IsWinner: true}
	challenges.Submissions[otherWinner] = &challengedb.Submission{ID: otherWinner, PhaseID: phaseID, CreatedBy: otherOwner, Title: "Other winner", IsWinner: true}
	challenges.Submissions[loser] = &challengedb.Submission{ID: loser, PhaseID: phaseID, CreatedBy: ownerID, Title: "Loser"}

	slots := timeslotdb.NewFakeRepository(challenges)
	slots.Releases[releaseID] = &timeslotdb.Release{ID: releaseID, Name: "Spring", PhaseID: phaseID, IsCurrent: true}
	slots.Releases[oldRelease] = &timeslotdb.Release{ID: oldRelease, Name: "Winter", PhaseID: phaseID}
	slots.Slots[slotA] = &timeslotdb.TimeSlot{ID: slotA, ReleaseID: releaseID, StartDate: now.Add(24 * time.Hour), EndDate: now.Add(25 * time.Hour)}
	slots.Slots[slotB] = &timeslotdb.TimeSlot{ID: slotB, ReleaseID: releaseID, StartDate: now.Add(48 * time.Hour), EndDate: now.Add(49 * time.Hour)}
	slots.Slots[oldSlot] = &timeslotdb.TimeSlot{ID: oldSlot, ReleaseID: oldRelease, StartDate: now.Add(24 * time.Hour), EndDate: now.Add(25 * time.Hour)}

	return &fixture{
		challenges: challenges,
		judging:    judgingdb.NewFakeRepository(challenges),
		slots:      slots,
		locker:     newFakeLocker(),
		scheduler:  &fakeScheduler{},
		bus:        newRecordingBus(),
		booking: config.BookingConfig{
			Expiration:          5 * time.Minute,
			ThrottlingUsers:     2,
			ThrottlingTimedelta: 24 * time.Hour,
		},
	}
}

func (f *fixture) service() *TimeslotService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTimeslotService(Deps{
		Repo:        f.slots,
		Challenges:  f.challenges,
		Assignments: f.judging,
		Locker:      f.locker,
		Scheduler:   f.scheduler,
		EventBus:    f.bus,
		Clock:       clock.NewAnchorClock(now),
		Rand:        rand.New(rand.NewPCG(3, 4)),
	}, f.booking, logger, nil, noop.NewTracerProvider().Tracer("test"), nil)
}

func TestTimeslotService_Book(t *testing.T) {
	ctx := context.Background()

	t.Run("books a free slot", func(t *testing.T) {
		f := newFixture()
		out, err := f.service().Book(ctx, ownerID, winner, timeslotdomain.ShortID(slotA))
		require.NoError(t, err)
		assert.Equal(t, timeslotdomain.MsgBooked, out.Message)
		assert.False(t, out.AlreadyBooked)

		slot := f.slots.Slots[slotA]
		assert.True(t, slot.IsBooked)
		require.NotNil(t, slot.SubmissionID)
		assert.Equal(t, winner, *slot.SubmissionID)

		msgs := f.bus.messages(timeslotdomain.SlotBookedTopic)
		require.Len(t, msgs, 1)
		payload, err := eventbus.Decode[timeslotdomain.SlotBookedPayload](msgs[0])
		require.NoError(t, err)
		assert.Equal(t, slotA, payload.SlotID)
		assert.Equal(t, ownerID, payload.ProfileID)
	})

	t.Run("second submission is rejected and the first retries gracefully", func(t *testing.T) {
		f := newFixture()
		svc := f.service()
		_, err := svc.Book(ctx, ownerID, winner, timeslotdomain.ShortID(slotA))
		require.NoError(t, err)

		_, err = svc.Book(ctx, otherOwner, otherWinner, timeslotdomain.ShortID(slotA))
		assert.ErrorIs(t, err, timeslotdomain.ErrSlotUnavailable)

		again, err := svc.Book(ctx, ownerID, winner, timeslotdomain.ShortID(slotB))
		require.NoError(t, err)
		assert.True(t, again.AlreadyBooked)
		assert.Equal(t, timeslotdomain.MsgAlreadyBooked, again.Message)
		assert.Equal(t, timeslotdomain.ShortID(slotA), again.ShortID)
		assert.False(t, f.slots.Slots[slotB].IsBooked)
		assert.Len(t, f.bus.messages(timeslotdomain.SlotBookedTopic), 1)
	})

	tests := []struct {
		name      string
		profileID int64
		subID     int64
		shortID   string
		setup     func(f *fixture)
		wantErr   error
	}{
		{"not the owner", otherOwner, winner, timeslotdomain.ShortID(slotA), nil, timeslotdomain.ErrNotEligible},
		{"not green-lit", ownerID, loser, timeslotdomain.ShortID(slotA), nil, timeslotdomain.ErrNotEligible},
		{"unknown submission", ownerID, 404, timeslotdomain.ShortID(slotA), nil, timeslotdomain.ErrNotEligible},
		{"no current release", ownerID, winner, timeslotdomain.ShortID(slotA), func(f *fixture) {
			f.slots.Releases[releaseID].IsCurrent = false
		}, timeslotdomain.ErrNoActiveRelease},
		{"release serves another phase", ownerID, winner, timeslotdomain.ShortID(slotA), func(f *fixture) {
			f.slots.Releases[releaseID].PhaseID = 11
		}, timeslotdomain.ErrNotEligible},
		{"availability in the future", ownerID, winner, timeslotdomain.ShortID(slotA), func(f *fixture) {
			f.slots.Availabilities[1] = &timeslotdb.BookingAvailability{ID: 1, SubmissionID: winner, ReleaseID: releaseID, AvailableOn: now.Add(time.Hour)}
		}, timeslotdomain.ErrNotAvailableYet},
		{"throttled without availability", ownerID, winner, timeslotdomain.ShortID(slotA), func(f *fixture) {
			f.booking.ThrottlingEnabled = true
		}, timeslotdomain.ErrNotAvailableYet},
		{"malformed short id", ownerID, winner, "x1", nil, timeslotdomain.ErrSlotNotFound},
		{"unknown slot", ownerID, winner, timeslotdomain.ShortID(999), nil, timeslotdomain.ErrSlotNotFound},
		{"slot of an old release", ownerID, winner, timeslotdomain.ShortID(oldSlot), nil, timeslotdomain.ErrSlotNotFound},
		{"locked by another submission", ownerID, winner, timeslotdomain.ShortID(slotA), func(f *fixture) {
			f.locker.Held[slotA] = otherWinner
		}, timeslotdomain.ErrSlotUnavailable},
		{"lost the booking race", ownerID, winner, timeslotdomain.ShortID(slotA), func(f *fixture) {
			f.slots.BookSlotFn = func(ctx context.Context, db bun.IDB, slotID, submissionID int64, at time.Time) (bool, error) {
				return false, nil
			}
		}, timeslotdomain.ErrSlotUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.service().Book(ctx, tt.profileID, tt.subID, tt.shortID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.bus.messages(timeslotdomain.SlotBookedTopic))
		})
	}

	t.Run("own lock passes through", func(t *testing.T) {
		f := newFixture()
		f.locker.Held[slotA] = winner
		out, err := f.service().Book(ctx, ownerID, winner, timeslotdomain.ShortID(slotA))
		require.NoError(t, err)
		assert.Equal(t, timeslotdomain.MsgBooked, out.Message)
	})

	t.Run("open availability allows booking while throttled", func(t *testing.T) {
		f := newFixture()
		f.booking.ThrottlingEnabled = true
		f.slots.Availabilities[1] = &timeslotdb.BookingAvailability{ID: 1, SubmissionID: winner, ReleaseID: releaseID, AvailableOn: now}
		_, err := f.service().Book(ctx, ownerID, winner, timeslotdomain.ShortID(slotA))
		require.NoError(t, err)
	})

	t.Run("concurrent booking of another slot answers already booked", func(t *testing.T) {
		f := newFixture()
		f.slots.BookSlotFn = func(ctx context.Context, db bun.IDB, slotID, submissionID int64, at time.Time) (bool, error) {
			// the same submission committed slot B first
			f.slots.Slots[slotB].IsBooked = true
			f.slots.Slots[slotB].SubmissionID = &submissionID
			return false, timeslotdb.ErrSubmissionBooked
		}
		out, err := f.service().Book(ctx, ownerID, winner, timeslotdomain.ShortID(slotA))
		require.NoError(t, err)
		assert.True(t, out.AlreadyBooked)
		assert.Equal(t, timeslotdomain.MsgAlreadyBooked, out.Message)
		assert.Equal(t, timeslotdomain.ShortID(slotB), out.ShortID)
		assert.False(t, f.slots.Slots[slotA].IsBooked)
		assert.Empty(t, f.bus.messages(timeslotdomain.SlotBookedTopic))
	})

	t.Run("locker failure", func(t *testing.T) {
		f := newFixture()
		f.locker.AcquireFn = func(ctx context.Context, slotID, submissionID int64, ttl time.Duration) (bool, error) {
			assert.Equal(t, 5*time.Minute, ttl)
			return false, errors.New("nats down")
		}
		_, err := f.service().Book(ctx, ownerID, winner, timeslotdomain.ShortID(slotA))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to lock timeslot")
		assert.False(t, f.slots.Slots[slotA].IsBooked)
	})
}

func TestTimeslotService_AvailableSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.service()

	slots, err := svc.AvailableSlots(ctx, now)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, timeslotdomain.ShortID(slotA), slots[0].ShortID)
	assert.Equal(t, timeslotdomain.ShortID(slotB), slots[1].ShortID)

	_, err = svc.Book(ctx, ownerID, winner, timeslotdomain.ShortID(slotB))
	require.NoError(t, err)
	slots, err = svc.AvailableSlots(ctx, now)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, timeslotdomain.ShortID(slotA), slots[0].ShortID)

	later, err := svc.AvailableSlots(ctx, now.Add(30*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, later)

	f.slots.Releases[releaseID].IsCurrent = false
	_, err = svc.AvailableSlots(ctx, now)
	assert.ErrorIs(t, err, timeslotdomain.ErrNoActiveRelease)
}

func TestTimeslotService_SetCurrentRelease(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.service()

	require.NoError(t, svc.SetCurrentRelease(ctx, oldRelease))
	assert.True(t, f.slots.Releases[oldRelease].IsCurrent)
	assert.False(t, f.slots.Releases[releaseID].IsCurrent)

	assert.ErrorIs(t, svc.SetCurrentRelease(ctx, 404), timeslotdomain.ErrReleaseNotFound)
	assert.True(t, f.slots.Releases[oldRelease].IsCurrent)
}

func TestTimeslotService_AssignAvailability(t *testing.T) {
	ctx := context.Background()
	start := now.Add(time.Hour)

	withMoreWinners := func(f *fixture) {
		f.challenges.Submissions[4] = &challengedb.Submission{ID: 4, PhaseID: phaseID, CreatedBy: 9, Title: "Fourth", IsWinner: true}
		f.challenges.Submissions[5] = &challengedb.Submission{ID: 5, PhaseID: phaseID, CreatedBy: 9, Title: "Fifth", IsWinner: true}
	}

	t.Run("throttles after every batch", func(t *testing.T) {
		f := newFixture()
		f.booking.ThrottlingEnabled = true
		withMoreWinners(f)

		plan, err := f.service().AssignAvailability(ctx, releaseID, start, true)
		require.NoError(t, err)
		require.Len(t, plan.Entries, 4)
		assert.True(t, plan.Committed)

		var ids []int64
		for i, e := range plan.Entries {
			ids = append(ids, e.SubmissionID)
			assert.Equal(t, start.Add(time.Duration(i/2)*24*time.Hour), e.AvailableOn)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		assert.Equal(t, []int64{winner, otherWinner, 4, 5}, ids)
		assert.Len(t, f.slots.Availabilities, 4)

		require.Len(t, f.scheduler.Scheduled, 2)
		assert.Len(t, f.scheduler.Scheduled[0].SubmissionIDs, 2)
		assert.Equal(t, start.Add(24*time.Hour), f.scheduler.Scheduled[1].AvailableOn)
	})

	t.Run("dry run writes and schedules nothing", func(t *testing.T) {
		f := newFixture()
		plan, err := f.service().AssignAvailability(ctx, releaseID, start, false)
		require.NoError(t, err)
		assert.Len(t, plan.Entries, 2)
		assert.False(t, plan.Committed)
		assert.Empty(t, f.slots.Availabilities)
		assert.Empty(t, f.scheduler.Scheduled)
	})

	t.Run("already scheduled submissions are skipped", func(t *testing.T) {
		f := newFixture()
		f.slots.Availabilities[1] = &timeslotdb.BookingAvailability{ID: 1, SubmissionID: winner, ReleaseID: releaseID, AvailableOn: now}
		plan, err := f.service().AssignAvailability(ctx, releaseID, start, true)
		require.NoError(t, err)
		require.Len(t, plan.Entries, 1)
		assert.Equal(t, otherWinner, plan.Entries[0].SubmissionID)
	})

	t.Run("phase still running", func(t *testing.T) {
		f := newFixture()
		f.challenges.Phases[phaseID].EndDate = now.Add(time.Hour)
		_, err := f.service().AssignAvailability(ctx, releaseID, start, true)
		assert.ErrorIs(t, err, timeslotdomain.ErrPhaseNotEnded)
		assert.Empty(t, f.slots.Availabilities)
	})

	t.Run("unknown release", func(t *testing.T) {
		f := newFixture()
		_, err := f.service().AssignAvailability(ctx, 404, start, true)
		assert.ErrorIs(t, err, timeslotdomain.ErrReleaseNotFound)
	})
}

func TestTimeslotService_NotifyPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.service()

	_, err := svc.Book(ctx, ownerID, winner, timeslotdomain.ShortID(slotA))
	require.NoError(t, err)

	sent, err := svc.NotifyPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := f.bus.messages(timeslotdomain.BookingReminderTopic)
	require.Len(t, msgs, 1)
	payload, err := eventbus.Decode[timeslotdomain.BookingReminderPayload](msgs[0])
	require.NoError(t, err)
	assert.Equal(t, otherWinner, payload.SubmissionID)
	assert.Equal(t, otherOwner, payload.ProfileID)
	assert.Equal(t, "Spring", payload.Release)

	f.slots.Releases[releaseID].IsCurrent = false
	_, err = svc.NotifyPending(ctx)
	assert.ErrorIs(t, err, timeslotdomain.ErrNoActiveRelease)
}

func TestTimeslotService_Webcasts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.service()
	_, err := svc.Book(ctx, ownerID, winner, timeslotdomain.ShortID(slotA))
	require.NoError(t, err)
	_, err = f.judging.CreateAssignments(ctx, nil, []judgingdb.JudgeAssignment{{SubmissionID: winner, ProfileID: judgeID}})
	require.NoError(t, err)

	mine, err := svc.BookedForProfile(ctx, ownerID, false, now)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Winner", mine[0].Title)
	assert.Equal(t, winner, mine[0].SubmissionID)

	others, err := svc.BookedForProfile(ctx, otherOwner, false, now)
	require.NoError(t, err)
	assert.Empty(t, others)

	ended, err := svc.BookedForProfile(ctx, ownerID, true, now.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, ended)

	judged, err := svc.BookedForJudge(ctx, judgeID, false, now)
	require.NoError(t, err)
	require.Len(t, judged, 1)

	unassigned, err := svc.BookedForJudge(ctx, 77, false, now)
	require.NoError(t, err)
	assert.Empty(t, unassigned)

	upcoming, err := svc.Upcoming(ctx, now)
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)
	past, err := svc.Upcoming(ctx, now.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, past)
}
