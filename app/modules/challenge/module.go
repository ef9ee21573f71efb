package challenge

import (
	"context"
	"sync"

	"github.com/go-chi/chi/v5"
	challengeservice "github.com/mozilla/mozilla-ignite/app/modules/challenge/application"
	challengehandlers "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/handlers"
	challengedb "github.com/mozilla/mozilla-ignite/app/modules/challenge/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/uptrace/bun"
)

const phaseCacheSize = 128

// Module represents the challenge module.
type Module struct {
	ChallengeService challengeservice.Service
	Repository       challengedb.Repository
	cancelFunc       context.CancelFunc
	observability    observability.Observability
}

// NewChallengeModule creates and initializes the challenge module. The
// repository is exported so other modules can read phases, submissions and
// profiles without going through HTTP.
func NewChallengeModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	clk clock.Clock,
	httpRouter chi.Router,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "challenge.NewChallengeModule initializing")

	repo := challengedb.NewRepository(db)
	cache := challengeservice.NewLRUPhaseCache(phaseCacheSize, cfg.Challenge.PhaseCacheTTL)
	service := challengeservice.NewChallengeService(repo, logger, obs.OperationMetrics(), obs.Tracer, clk, cache)

	if httpRouter != nil {
		handlers := challengehandlers.NewChallengeHandlers(service, logger, obs.Tracer)
		httpRouter.Route("/api/challenges", handlers.Routes)
	}

	return &Module{
		ChallengeService: service,
		Repository:       repo,
		observability:    obs,
	}, nil
}

// Run blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting challenge module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Challenge module goroutine stopped")
}

// Close shuts down the challenge module.
func (m *Module) Close() error {
	m.observability.Logger.Info("Stopping challenge module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
