// Package queue runs background jobs on River backed by the application Postgres database.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// QueueName is the dedicated queue every ignite job runs on.
const QueueName = "ignite"

var ErrNotStarted = errors.New("queue service not started")

// Scheduler inserts jobs for later execution.
type Scheduler interface {
	Schedule(ctx context.Context, args river.JobArgs, at time.Time) error
}

var _ Scheduler = (*Service)(nil)

// Service owns the pgx pool and the River client. Workers and periodic jobs
// must be registered before Start.
type Service struct {
	pool     *pgxpool.Pool
	workers  *river.Workers
	periodic []*river.PeriodicJob
	logger   *slog.Logger
	metrics  observability.OperationMetrics

	mu      sync.Mutex
	client  *river.Client[pgx.Tx]
	running bool
}

func NewService(ctx context.Context, dsn string, logger *slog.Logger, metrics observability.OperationMetrics) (*Service, error) {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	logger = logger.With(attr.String("component", "river_queue"))

	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	logger.InfoContext(ctx, "Queue service initialized")

	return &Service{
		pool:    pool,
		workers: river.NewWorkers(),
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Workers is the registry modules add their workers to.
func (s *Service) Workers() *river.Workers {
	return s.workers
}

// Pool exposes the pgx pool, mainly for rivermigrate.
func (s *Service) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Service) AddPeriodicJobs(jobs ...*river.PeriodicJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periodic = append(s.periodic, jobs...)
}

// Start builds the working client and begins fetching jobs.
func (s *Service) Start(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "start_service", "river")

	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := river.NewClient(riverpgxv5.New(s.pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			QueueName:          {MaxWorkers: 25},
		},
		Workers:      s.workers,
		PeriodicJobs: s.periodic,
		Logger:       s.logger,
	})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to create River client: %w", err)
	}
	if err := client.Start(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.client = client
	s.running = true

	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.metrics.RecordOperationDuration(ctx, "start_service", "river", time.Since(start))
	s.logger.InfoContext(ctx, "Queue service started", attr.Int("periodic_jobs", len(s.periodic)))
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer s.pool.Close()
	if !s.running {
		return nil
	}
	s.running = false
	if err := s.client.Stop(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.logger.InfoContext(ctx, "Queue service stopped")
	return nil
}

// Schedule inserts args to run at the given time. Without Start an
// insert-only client is created, so command line tools can enqueue work for
// the server to pick up.
func (s *Service) Schedule(ctx context.Context, args river.JobArgs, at time.Time) error {
	client, err := s.insertClient()
	if err != nil {
		return err
	}

	s.metrics.RecordOperationAttempt(ctx, "schedule_job", "river")
	res, err := client.Insert(ctx, args, &river.InsertOpts{
		Queue:       QueueName,
		ScheduledAt: at,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "schedule_job", "river")
		return fmt.Errorf("failed to schedule %s job: %w", args.Kind(), err)
	}
	s.metrics.RecordOperationSuccess(ctx, "schedule_job", "river")

	s.logger.InfoContext(ctx, "Job scheduled",
		attr.String("kind", args.Kind()),
		attr.Time("scheduled_at", at),
		attr.Int64("job_id", res.Job.ID),
		attr.Bool("duplicate", res.UniqueSkippedAsDuplicate),
	)
	return nil
}

func (s *Service) insertClient() (*river.Client[pgx.Tx], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	client, err := river.NewClient(riverpgxv5.New(s.pool), &river.Config{Logger: s.logger})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}
	s.client = client
	return client, nil
}

func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("queue database unreachable: %w", err)
	}
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return ErrNotStarted
	}
	return nil
}
