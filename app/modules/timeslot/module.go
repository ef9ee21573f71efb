package timeslot

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	timeslotservice "github.com/mozilla/mozilla-ignite/app/modules/timeslot/application"
	timeslothandlers "github.com/mozilla/mozilla-ignite/app/modules/timeslot/infrastructure/handlers"
	timeslotlocks "github.com/mozilla/mozilla-ignite/app/modules/timeslot/infrastructure/locks"
	timeslotqueue "github.com/mozilla/mozilla-ignite/app/modules/timeslot/infrastructure/queue"
	timeslotdb "github.com/mozilla/mozilla-ignite/app/modules/timeslot/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/eventbus"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/mozilla/mozilla-ignite/pkg/queue"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/uptrace/bun"
)

// Module represents the timeslot module.
type Module struct {
	TimeslotService timeslotservice.Service
	Repository      timeslotdb.Repository
	cancelFunc      context.CancelFunc
	observability   observability.Observability
}

// Dependencies are the collaborators owned by other modules or the process.
// JetStream and Queue are optional: without JetStream slot locks live in
// Postgres, without Queue availability is never announced.
type Dependencies struct {
	EventBus    eventbus.EventBus
	Challenges  timeslotservice.ChallengeReader
	Assignments timeslotservice.AssignmentReader
	JetStream   jetstream.JetStream
	Queue       *queue.Service
	Clock       clock.Clock
	Rand        *rand.Rand
}

// NewTimeslotModule creates the timeslot module and registers its workers on deps.Queue.
func NewTimeslotModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	deps Dependencies,
	httpRouter chi.Router,
	auth func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "timeslot.NewTimeslotModule initializing")

	clk := deps.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	var locker timeslotservice.SlotLocker
	if deps.JetStream != nil && cfg.NATS.KVBucket != "" {
		kv, err := timeslotlocks.NewKVLocker(ctx, deps.JetStream, cfg.NATS.KVBucket, cfg.Booking.Expiration)
		if err != nil {
			return nil, fmt.Errorf("failed to create slot lock bucket: %w", err)
		}
		locker = kv
	} else {
		locker = timeslotlocks.NewPostgresLocker(db, clk)
	}

	var scheduler timeslotservice.AvailabilityScheduler
	if deps.Queue != nil {
		scheduler = timeslotqueue.NewScheduler(deps.Queue)
	}

	repo := timeslotdb.NewRepository(db)
	service := timeslotservice.NewTimeslotService(timeslotservice.Deps{
		Repo:        repo,
		Challenges:  deps.Challenges,
		Assignments: deps.Assignments,
		Locker:      locker,
		Scheduler:   scheduler,
		EventBus:    deps.EventBus,
		Clock:       clk,
		Rand:        deps.Rand,
	}, cfg.Booking, logger, obs.OperationMetrics(), obs.Tracer, db)

	if deps.Queue != nil {
		periodic := timeslotqueue.Register(deps.Queue.Workers(), service, deps.EventBus, cfg.Booking.ReminderInterval, logger)
		deps.Queue.AddPeriodicJobs(periodic...)
	}

	if httpRouter != nil {
		handlers := timeslothandlers.NewTimeslotHandlers(service, clk, logger, obs.Tracer)
		httpRouter.Route("/api/timeslots", func(r chi.Router) {
			if auth != nil {
				r.Use(auth)
			}
			handlers.Routes(r)
		})
		httpRouter.Route("/api/webcasts", func(r chi.Router) {
			r.Get("/", handlers.HandleUpcoming)
			r.Group(func(r chi.Router) {
				if auth != nil {
					r.Use(auth)
				}
				handlers.WebcastRoutes(r)
			})
		})
	}

	return &Module{
		TimeslotService: service,
		Repository:      repo,
		observability:   obs,
	}, nil
}

// Run blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting timeslot module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Timeslot module goroutine stopped")
}

// Close shuts down the timeslot module.
func (m *Module) Close() error {
	m.observability.Logger.Info("Stopping timeslot module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
