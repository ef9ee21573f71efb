package timeslotqueue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
	"github.com/mozilla/mozilla-ignite/pkg/eventbus"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type notifierFunc func(ctx context.Context) (int, error)

func (f notifierFunc) NotifyPending(ctx context.Context) (int, error) { return f(ctx) }

type fakeQueue struct {
	args []river.JobArgs
	at   []time.Time
	err  error
}

func (q *fakeQueue) Schedule(_ context.Context, args river.JobArgs, at time.Time) error {
	q.args = append(q.args, args)
	q.at = append(q.at, at)
	return q.err
}

type capturingBus struct {
	topics []string
	msgs   []*message.Message
}

func (b *capturingBus) Publish(topic string, msgs ...*message.Message) error {
	b.topics = append(b.topics, topic)
	b.msgs = append(b.msgs, msgs...)
	return nil
}

func (b *capturingBus) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	return nil, nil
}

func (b *capturingBus) Close() error { return nil }

func TestReminderWorker_Work(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "sent"},
		{name: "no current release is skipped", err: timeslotdomain.ErrNoActiveRelease},
		{name: "failure is retried", err: errors.New("db down"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			w := NewReminderWorker(notifierFunc(func(context.Context) (int, error) {
				calls++
				return 3, tt.err
			}), discard)

			err := w.Work(context.Background(), &river.Job[ReminderJob]{JobRow: &rivertype.JobRow{ID: 1}})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, 1, calls)
		})
	}
}

func TestAvailabilityWorker_Work(t *testing.T) {
	bus := &capturingBus{}
	on := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	w := NewAvailabilityWorker(bus, discard)

	job := &river.Job[AvailabilityJob]{JobRow: &rivertype.JobRow{ID: 2}, Args: AvailabilityJob{ReleaseID: 50, SubmissionIDs: []int64{1, 2}, AvailableOn: on}}
	require.NoError(t, w.Work(context.Background(), job))

	require.Equal(t, []string{timeslotdomain.BookingAvailableTopic}, bus.topics)
	got, err := eventbus.Decode[timeslotdomain.BookingAvailablePayload](bus.msgs[0])
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.ReleaseID)
	assert.Equal(t, []int64{1, 2}, got.SubmissionIDs)
	assert.True(t, on.Equal(got.AvailableOn))
}

func TestScheduler_ScheduleAvailable(t *testing.T) {
	q := &fakeQueue{}
	on := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	err := NewScheduler(q).ScheduleAvailable(context.Background(), timeslotdomain.BookingAvailablePayload{ReleaseID: 50, SubmissionIDs: []int64{3}, AvailableOn: on})
	require.NoError(t, err)

	require.Len(t, q.args, 1)
	assert.Equal(t, "timeslot_available", q.args[0].Kind())
	assert.Equal(t, on, q.at[0])

	q.err = errors.New("insert failed")
	assert.Error(t, NewScheduler(q).ScheduleAvailable(context.Background(), timeslotdomain.BookingAvailablePayload{}))
}

func TestRegister(t *testing.T) {
	notifier := notifierFunc(func(context.Context) (int, error) { return 0, nil })

	periodic := Register(river.NewWorkers(), notifier, nil, time.Hour, discard)
	assert.Len(t, periodic, 1)

	assert.Empty(t, Register(river.NewWorkers(), notifier, nil, 0, discard))
}
