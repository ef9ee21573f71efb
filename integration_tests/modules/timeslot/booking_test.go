package timeslotintegrationtests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	judgingdb "github.com/mozilla/mozilla-ignite/app/modules/judging/infrastructure/repositories"
	timeslotservice "github.com/mozilla/mozilla-ignite/app/modules/timeslot/application"
	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
	timeslotlocks "github.com/mozilla/mozilla-ignite/app/modules/timeslot/infrastructure/locks"
	timeslotdb "github.com/mozilla/mozilla-ignite/app/modules/timeslot/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/integration_tests/testutils"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

type bookingFixture struct {
	service *timeslotservice.TimeslotService
	slot    *timeslotdb.TimeSlot
	subs    []*challengedb.Submission
}

func newBookingFixture(t *testing.T, locker timeslotservice.SlotLocker, winners int, now time.Time) bookingFixture {
	t.Helper()
	ctx := testEnv.Ctx
	require.NoError(t, testEnv.Reset(ctx))

	gen := testutils.NewDataGenerator(testEnv.DB, 42)
	_, phase := gen.Challenge(t, ctx, now)

	subs := make([]*challengedb.Submission, 0, winners)
	for range winners {
		owner := gen.Profile(t, ctx, false)
		subs = append(subs, gen.Submission(t, ctx, phase.ID, owner.ID, true))
	}

	repo := timeslotdb.NewRepository(testEnv.DB)
	release := &timeslotdb.Release{Name: "Spring", PhaseID: phase.ID, IsCurrent: true}
	require.NoError(t, repo.CreateRelease(ctx, testEnv.DB, release))
	slot := &timeslotdb.TimeSlot{ReleaseID: release.ID, StartDate: now.Add(24 * time.Hour), EndDate: now.Add(25 * time.Hour)}
	require.NoError(t, repo.CreateSlot(ctx, testEnv.DB, slot))

	booking := testEnv.Config.Booking
	booking.ThrottlingEnabled = false

	svc := timeslotservice.NewTimeslotService(timeslotservice.Deps{
		Repo:        repo,
		Challenges:  challengedb.NewRepository(testEnv.DB),
		Assignments: judgingdb.NewRepository(testEnv.DB),
		Locker:      locker,
		Clock:       &clock.FakeClock{NowFn: func() time.Time { return now }},
	}, booking, testEnv.Logger, observability.NoopMetrics{}, noop.NewTracerProvider().Tracer("test"), testEnv.DB)

	return bookingFixture{service: svc, slot: slot, subs: subs}
}

func TestBook_ConcurrentRequestsHaveOneWinner(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	locker := timeslotlocks.NewPostgresLocker(testEnv.DB, &clock.FakeClock{NowFn: func() time.Time { return now }})
	f := newBookingFixture(t, locker, 8, now)
	shortID := timeslotdomain.ShortID(f.slot.ID)

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		booked      []int64
		unavailable int
		other       []error
	)
	for _, sub := range f.subs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.service.Book(testEnv.Ctx, sub.CreatedBy, sub.ID, shortID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				assert.Equal(t, timeslotdomain.MsgBooked, outcome.Message)
				booked = append(booked, sub.ID)
			case errors.Is(err, timeslotdomain.ErrSlotUnavailable):
				unavailable++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	require.Len(t, booked, 1)
	assert.Equal(t, len(f.subs)-1, unavailable)

	slot, err := timeslotdb.NewRepository(testEnv.DB).GetSlot(testEnv.Ctx, nil, f.slot.ID)
	require.NoError(t, err)
	assert.True(t, slot.IsBooked)
	require.NotNil(t, slot.SubmissionID)
	assert.Equal(t, booked[0], *slot.SubmissionID)
}

func TestBook_RetryReturnsExistingBooking(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	locker := timeslotlocks.NewPostgresLocker(testEnv.DB, &clock.FakeClock{NowFn: func() time.Time { return now }})
	f := newBookingFixture(t, locker, 1, now)
	sub := f.subs[0]
	shortID := timeslotdomain.ShortID(f.slot.ID)

	_, err := f.service.Book(testEnv.Ctx, sub.CreatedBy, sub.ID, shortID)
	require.NoError(t, err)

	again, err := f.service.Book(testEnv.Ctx, sub.CreatedBy, sub.ID, shortID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyBooked)
	assert.Equal(t, shortID, again.ShortID)
}

func TestPostgresLocker_ExpiredLockIsTakenOver(t *testing.T) {
	ctx := testEnv.Ctx
	now := time.Now().UTC().Truncate(time.Second)
	f := newBookingFixture(t, nil, 0, now)

	current := now
	locker := timeslotlocks.NewPostgresLocker(testEnv.DB, &clock.FakeClock{NowFn: func() time.Time { return current }})

	ok, err := locker.Acquire(ctx, f.slot.ID, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = locker.Acquire(ctx, f.slot.ID, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held lock must not move")

	ok, err = locker.Acquire(ctx, f.slot.ID, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "holder re-acquires")

	current = now.Add(2 * time.Minute)
	ok, err = locker.Acquire(ctx, f.slot.ID, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock is taken over")
}

func TestKVLocker_HoldsSlotForOneSubmission(t *testing.T) {
	ctx := testEnv.Ctx
	locker, err := timeslotlocks.NewKVLocker(ctx, testEnv.JetStream, testEnv.Config.NATS.KVBucket, time.Minute)
	require.NoError(t, err)

	slotID := time.Now().UnixNano()

	ok, err := locker.Acquire(ctx, slotID, 1, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = locker.Acquire(ctx, slotID, 2, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = locker.Acquire(ctx, slotID, 1, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBook_SameSubmissionOnManySlotsBooksOnce(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	locker := timeslotlocks.NewPostgresLocker(testEnv.DB, &clock.FakeClock{NowFn: func() time.Time { return now }})
	f := newBookingFixture(t, locker, 1, now)
	sub := f.subs[0]

	repo := timeslotdb.NewRepository(testEnv.DB)
	shortIDs := []string{timeslotdomain.ShortID(f.slot.ID)}
	for i := range 4 {
		extra := &timeslotdb.TimeSlot{
			ReleaseID: f.slot.ReleaseID,
			StartDate: now.Add(time.Duration(48+i) * time.Hour),
			EndDate:   now.Add(time.Duration(49+i) * time.Hour),
		}
		require.NoError(t, repo.CreateSlot(testEnv.Ctx, nil, extra))
		shortIDs = append(shortIDs, timeslotdomain.ShortID(extra.ID))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []timeslotservice.BookingOutcome
		errs     []error
	)
	for _, shortID := range shortIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.service.Book(testEnv.Ctx, sub.CreatedBy, sub.ID, shortID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			outcomes = append(outcomes, outcome)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, outcomes, len(shortIDs))
	var booked []timeslotservice.BookingOutcome
	for _, o := range outcomes {
		if !o.AlreadyBooked {
			booked = append(booked, o)
		}
	}
	require.Len(t, booked, 1)
	for _, o := range outcomes {
		assert.Equal(t, booked[0].ShortID, o.ShortID)
	}

	slot, err := repo.GetBookedSlotForSubmission(testEnv.Ctx, nil, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, booked[0].ShortID, slot.ShortID())
}

func TestBookSlot_SecondSlotForSubmissionIsRejected(t *testing.T) {
	ctx := testEnv.Ctx
	now := time.Now().UTC().Truncate(time.Second)
	f := newBookingFixture(t, nil, 1, now)
	sub := f.subs[0]

	repo := timeslotdb.NewRepository(testEnv.DB)
	other := &timeslotdb.TimeSlot{ReleaseID: f.slot.ReleaseID, StartDate: now.Add(48 * time.Hour), EndDate: now.Add(49 * time.Hour)}
	require.NoError(t, repo.CreateSlot(ctx, nil, other))

	ok, err := repo.BookSlot(ctx, nil, f.slot.ID, sub.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	err = testEnv.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		ok, err := repo.BookSlot(ctx, tx, other.ID, sub.ID, now)
		assert.ErrorIs(t, err, timeslotdb.ErrSubmissionBooked)
		assert.False(t, ok)

		// the savepoint keeps the outer transaction usable
		booked, err := repo.GetBookedSlotForSubmission(ctx, tx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, f.slot.ID, booked.ID)
		return nil
	})
	require.NoError(t, err)
}
