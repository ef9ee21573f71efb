package award

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	awardservice "github.com/mozilla/mozilla-ignite/app/modules/award/application"
	awardhandlers "github.com/mozilla/mozilla-ignite/app/modules/award/infrastructure/handlers"
	awarddb "github.com/mozilla/mozilla-ignite/app/modules/award/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/pkg/eventbus"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/uptrace/bun"
)

// Module represents the award module.
type Module struct {
	AwardService  awardservice.Service
	cancelFunc    context.CancelFunc
	observability observability.Observability
}

// NewAwardModule creates and initializes the award module. auth guards every
// award route.
func NewAwardModule(
	ctx context.Context,
	obs observability.Observability,
	eventBus eventbus.EventBus,
	challenges awardservice.ChallengeReader,
	httpRouter chi.Router,
	auth func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "award.NewAwardModule initializing")

	repo := awarddb.NewRepository(db)
	service := awardservice.NewAwardService(repo, challenges, eventBus, logger, obs.OperationMetrics(), obs.Tracer, db)

	if httpRouter != nil {
		handlers := awardhandlers.NewAwardHandlers(service, logger, obs.Tracer)
		httpRouter.Route("/api/awards", func(r chi.Router) {
			if auth != nil {
				r.Use(auth)
			}
			handlers.Routes(r)
		})
	}

	return &Module{
		AwardService:  service,
		observability: obs,
	}, nil
}

// Run blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting award module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Award module goroutine stopped")
}

// Close shuts down the award module.
func (m *Module) Close() error {
	m.observability.Logger.Info("Stopping award module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
