// Package app assembles the ignite server: storage, messaging, modules and HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mozilla/mozilla-ignite/app/httpapi"
	"github.com/mozilla/mozilla-ignite/app/modules/award"
	"github.com/mozilla/mozilla-ignite/app/modules/blog"
	"github.com/mozilla/mozilla-ignite/app/modules/challenge"
	"github.com/mozilla/mozilla-ignite/app/modules/judging"
	"github.com/mozilla/mozilla-ignite/app/modules/timeslot"
	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/dbtx"
	"github.com/mozilla/mozilla-ignite/pkg/eventbus"
	"github.com/mozilla/mozilla-ignite/pkg/jwt"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"github.com/mozilla/mozilla-ignite/pkg/queue"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// Modules holds every domain module of the server.
type Modules struct {
	Challenge *challenge.Module
	Award     *award.Module
	Judging   *judging.Module
	Timeslot  *timeslot.Module
	Blog      *blog.Module
}

type App struct {
	Config        *config.Config
	Observability observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Queue         *queue.Service
	Router        chi.Router
	Modules       Modules

	natsConn *nc.Conn
	modules  []module
	wg       sync.WaitGroup
}

type module interface {
	Run(ctx context.Context, wg *sync.WaitGroup)
	Close() error
}

// New opens the database, the event bus and the job queue and builds every
// module on one router. Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, obs observability.Observability) (*App, error) {
	a := &App{Config: cfg, Observability: obs}
	logger := obs.Logger

	db, err := dbtx.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	a.DB = db

	var js jetstream.JetStream
	if cfg.NATS.URL != "" {
		conn, err := eventbus.Connect(cfg.NATS.URL, cfg.NATS.NkeySeed, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.natsConn = conn
		a.EventBus = eventbus.NewNATSBus(conn, logger)
		if js, err = jetstream.New(conn); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
	} else {
		a.EventBus = eventbus.NewChannelBus(logger)
	}

	if a.Queue, err = queue.NewService(ctx, cfg.Postgres.DSN, logger, obs.OperationMetrics()); err != nil {
		a.Close()
		return nil, err
	}

	a.Router = NewRouter(cfg, obs, a.health)
	auth := newAuth(cfg)
	clk := clock.RealClock{}
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

	if err := a.buildModules(ctx, js, auth, clk, rng); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func newAuth(cfg *config.Config) func(http.Handler) http.Handler {
	return httpapi.AuthMiddleware(jwt.NewService(cfg.JWT.Secret, cfg.JWT.DefaultTTL))
}

func (a *App) buildModules(ctx context.Context, js jetstream.JetStream, auth func(http.Handler) http.Handler, clk clock.Clock, rng *rand.Rand) error {
	obs, cfg := a.Observability, a.Config

	challengeModule, err := challenge.NewChallengeModule(ctx, cfg, obs, clk, a.Router, a.DB)
	if err != nil {
		return fmt.Errorf("failed to create challenge module: %w", err)
	}
	awardModule, err := award.NewAwardModule(ctx, obs, a.EventBus, challengeModule.Repository, a.Router, auth, a.DB)
	if err != nil {
		return fmt.Errorf("failed to create award module: %w", err)
	}
	judgingModule, err := judging.NewJudgingModule(ctx, obs, challengeModule.Repository, rng, a.Router, auth, a.DB)
	if err != nil {
		return fmt.Errorf("failed to create judging module: %w", err)
	}
	timeslotModule, err := timeslot.NewTimeslotModule(ctx, cfg, obs, timeslot.Dependencies{
		EventBus:    a.EventBus,
		Challenges:  challengeModule.Repository,
		Assignments: judgingModule.Repository,
		JetStream:   js,
		Queue:       a.Queue,
		Clock:       clk,
		Rand:        rng,
	}, a.Router, auth, a.DB)
	if err != nil {
		return fmt.Errorf("failed to create timeslot module: %w", err)
	}
	blogModule, err := blog.NewBlogModule(ctx, cfg, obs, clk, a.Queue, a.Router, a.DB)
	if err != nil {
		return fmt.Errorf("failed to create blog module: %w", err)
	}

	a.Modules = Modules{
		Challenge: challengeModule,
		Award:     awardModule,
		Judging:   judgingModule,
		Timeslot:  timeslotModule,
		Blog:      blogModule,
	}
	a.modules = []module{challengeModule, awardModule, judgingModule, timeslotModule, blogModule}
	return nil
}

// Run serves HTTP and metrics and processes jobs until ctx is cancelled,
// then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	logger := a.Observability.Logger

	if err := a.Queue.Start(ctx); err != nil {
		return err
	}

	for _, m := range a.modules {
		a.wg.Add(1)
		go m.Run(ctx, &a.wg)
	}

	api := &http.Server{Addr: a.Config.HTTP.Address, Handler: a.Router, ReadHeaderTimeout: 10 * time.Second}
	servers := []*http.Server{api}
	if addr := a.Config.Observability.MetricsAddress; addr != "" && a.Observability.Metrics != nil {
		servers = append(servers, &http.Server{Addr: addr, Handler: a.Observability.Metrics.Handler(), ReadHeaderTimeout: 10 * time.Second})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.InfoContext(gctx, "HTTP server listening", attr.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s failed: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		errs = append(errs, a.Queue.Stop(shutdownCtx))
		return errors.Join(errs...)
	})

	err := g.Wait()
	a.wg.Wait()
	logger.Info("Server stopped")
	return err
}

func (a *App) health(ctx context.Context) error {
	if err := a.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if a.Queue != nil {
		return a.Queue.HealthCheck(ctx)
	}
	return nil
}

// Close releases the connections opened by New.
func (a *App) Close() {
	for _, m := range a.modules {
		_ = m.Close()
	}
	if a.Queue != nil {
		_ = a.Queue.Stop(context.Background())
	}
	if a.EventBus != nil {
		_ = a.EventBus.Close()
	}
	if a.natsConn != nil {
		a.natsConn.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
