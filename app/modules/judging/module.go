package judging

import (
	"context"
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	judgingservice "github.com/mozilla/mozilla-ignite/app/modules/judging/application"
	judginghandlers "github.com/mozilla/mozilla-ignite/app/modules/judging/infrastructure/handlers"
	judgingdb "github.com/mozilla/mozilla-ignite/app/modules/judging/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/uptrace/bun"
)

// Module represents the judging module.
type Module struct {
	JudgingService judgingservice.Service
	Repository     judgingdb.Repository
	cancelFunc     context.CancelFunc
	observability  observability.Observability
}

// NewJudgingModule creates the judging module. A nil rng uses the global source.
func NewJudgingModule(
	ctx context.Context,
	obs observability.Observability,
	challenges judgingservice.ChallengeReader,
	rng *rand.Rand,
	httpRouter chi.Router,
	auth func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "judging.NewJudgingModule initializing")

	repo := judgingdb.NewRepository(db)
	service := judgingservice.NewJudgingService(repo, challenges, logger, obs.OperationMetrics(), obs.Tracer, db, rng)

	if httpRouter != nil {
		handlers := judginghandlers.NewJudgingHandlers(service, logger, obs.Tracer)
		httpRouter.Route("/api/judging", func(r chi.Router) {
			if auth != nil {
				r.Use(auth)
			}
			handlers.Routes(r)
		})
	}

	return &Module{
		JudgingService: service,
		Repository:     repo,
		observability:  obs,
	}, nil
}

// Run blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting judging module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Judging module goroutine stopped")
}

// Close shuts down the judging module.
func (m *Module) Close() error {
	m.observability.Logger.Info("Stopping judging module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
