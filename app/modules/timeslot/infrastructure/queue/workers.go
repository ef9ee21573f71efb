package timeslotqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	timeslotservice "github.com/mozilla/mozilla-ignite/app/modules/timeslot/application"
	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
	"github.com/mozilla/mozilla-ignite/pkg/eventbus"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"github.com/riverqueue/river"
)

// Notifier is the part of the timeslot service the reminder worker drives.
type Notifier interface {
	NotifyPending(ctx context.Context) (int, error)
}

var _ Notifier = (timeslotservice.Service)(nil)

type ReminderWorker struct {
	river.WorkerDefaults[ReminderJob]
	notifier Notifier
	logger   *slog.Logger
}

func NewReminderWorker(notifier Notifier, logger *slog.Logger) *ReminderWorker {
	return &ReminderWorker{notifier: notifier, logger: logger}
}

func (w *ReminderWorker) Work(ctx context.Context, job *river.Job[ReminderJob]) error {
	sent, err := w.notifier.NotifyPending(ctx)
	if errors.Is(err, timeslotdomain.ErrNoActiveRelease) {
		w.logger.InfoContext(ctx, "No current release, skipping booking reminders", attr.Int64("job_id", job.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to send booking reminders: %w", err)
	}
	w.logger.InfoContext(ctx, "Booking reminders sent", attr.Int("sent", sent), attr.Int64("job_id", job.ID))
	return nil
}

type AvailabilityWorker struct {
	river.WorkerDefaults[AvailabilityJob]
	eventBus eventbus.EventBus
	logger   *slog.Logger
}

func NewAvailabilityWorker(eventBus eventbus.EventBus, logger *slog.Logger) *AvailabilityWorker {
	return &AvailabilityWorker{eventBus: eventBus, logger: logger}
}

func (w *AvailabilityWorker) Work(ctx context.Context, job *river.Job[AvailabilityJob]) error {
	if err := eventbus.PublishEvent(ctx, w.eventBus, timeslotdomain.BookingAvailableTopic, job.Args.Payload()); err != nil {
		return fmt.Errorf("failed to publish availability: %w", err)
	}
	w.logger.InfoContext(ctx, "Booking availability announced",
		attr.Int64("release_id", job.Args.ReleaseID),
		attr.Int("submissions", len(job.Args.SubmissionIDs)),
	)
	return nil
}

func (w *AvailabilityWorker) Timeout(*river.Job[AvailabilityJob]) time.Duration {
	return 30 * time.Second
}

// Register adds both workers to the registry and returns the periodic
// reminder job. A zero interval disables reminders.
func Register(workers *river.Workers, notifier Notifier, eventBus eventbus.EventBus, interval time.Duration, logger *slog.Logger) []*river.PeriodicJob {
	river.AddWorker(workers, NewReminderWorker(notifier, logger))
	river.AddWorker(workers, NewAvailabilityWorker(eventBus, logger))

	if interval <= 0 {
		return nil
	}
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return ReminderJob{}, nil
			},
			nil,
		),
	}
}
