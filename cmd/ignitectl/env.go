package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/mozilla/mozilla-ignite/app/modules/award"
	"github.com/mozilla/mozilla-ignite/app/modules/blog"
	"github.com/mozilla/mozilla-ignite/app/modules/challenge"
	"github.com/mozilla/mozilla-ignite/app/modules/judging"
	"github.com/mozilla/mozilla-ignite/app/modules/timeslot"
	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/dbtx"
	"github.com/mozilla/mozilla-ignite/pkg/eventbus"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/mozilla/mozilla-ignite/pkg/queue"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
)

// env is the subset of the server a command needs. Modules are built
// without HTTP routes.
type env struct {
	cfg     *config.Config
	obs     observability.Observability
	db      *bun.DB
	bus     eventbus.EventBus
	queue   *queue.Service
	clock   clock.Clock
	closers []func()
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openEnv(c *cli.Context) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(os.Stderr, cfg.Observability.LogLevel, "text", cfg.Observability.Environment)
	e := &env{
		cfg:   cfg,
		obs:   observability.NewObservability(logger, nil, nil),
		clock: clock.RealClock{},
	}

	if e.db, err = dbtx.Open(c.Context, cfg.Postgres.DSN); err != nil {
		return nil, err
	}
	e.closers = append(e.closers, func() { _ = e.db.Close() })

	if cfg.NATS.URL != "" {
		conn, err := eventbus.Connect(cfg.NATS.URL, cfg.NATS.NkeySeed, logger)
		if err != nil {
			e.close()
			return nil, err
		}
		e.bus = eventbus.NewNATSBus(conn, logger)
		e.closers = append(e.closers, conn.Close)
	}
	return e, nil
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func (e *env) challenge(ctx context.Context) (*challenge.Module, error) {
	return challenge.NewChallengeModule(ctx, e.cfg, e.obs, e.clock, nil, e.db)
}

func (e *env) award(ctx context.Context) (*award.Module, error) {
	ch, err := e.challenge(ctx)
	if err != nil {
		return nil, err
	}
	return award.NewAwardModule(ctx, e.obs, e.bus, ch.Repository, nil, nil, e.db)
}

func (e *env) judging(ctx context.Context) (*judging.Module, error) {
	ch, err := e.challenge(ctx)
	if err != nil {
		return nil, err
	}
	return judging.NewJudgingModule(ctx, e.obs, ch.Repository, newRand(), nil, nil, e.db)
}

// timeslot also opens the job queue so availability notices get scheduled
// for the server to deliver.
func (e *env) timeslot(ctx context.Context) (*timeslot.Module, error) {
	ch, err := e.challenge(ctx)
	if err != nil {
		return nil, err
	}
	jm, err := judging.NewJudgingModule(ctx, e.obs, ch.Repository, nil, nil, nil, e.db)
	if err != nil {
		return nil, err
	}
	if e.queue == nil {
		if e.queue, err = queue.NewService(ctx, e.cfg.Postgres.DSN, e.obs.Logger, nil); err != nil {
			return nil, err
		}
		q := e.queue
		e.closers = append(e.closers, func() { _ = q.Stop(context.Background()) })
	}
	return timeslot.NewTimeslotModule(ctx, e.cfg, e.obs, timeslot.Dependencies{
		EventBus:    e.bus,
		Challenges:  ch.Repository,
		Assignments: jm.Repository,
		Queue:       e.queue,
		Clock:       e.clock,
		Rand:        newRand(),
	}, nil, nil, e.db)
}

func (e *env) blog(ctx context.Context) (*blog.Module, error) {
	return blog.NewBlogModule(ctx, e.cfg, e.obs, e.clock, nil, nil, e.db)
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
}

// withEnv runs fn with an opened env and closes it afterwards.
func withEnv(fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := openEnv(c)
		if err != nil {
			return err
		}
		defer e.close()
		return fn(c, e)
	}
}
