package blog

import (
	"context"
	"sync"

	"github.com/go-chi/chi/v5"
	blogservice "github.com/mozilla/mozilla-ignite/app/modules/blog/application"
	bloghandlers "github.com/mozilla/mozilla-ignite/app/modules/blog/infrastructure/handlers"
	blogqueue "github.com/mozilla/mozilla-ignite/app/modules/blog/infrastructure/queue"
	blogdb "github.com/mozilla/mozilla-ignite/app/modules/blog/infrastructure/repositories"
	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/mozilla/mozilla-ignite/pkg/queue"
	"github.com/uptrace/bun"
)

// Module represents the blog module.
type Module struct {
	BlogService   blogservice.Service
	cancelFunc    context.CancelFunc
	observability observability.Observability
}

// NewBlogModule creates the blog module. With a queue the import runs on
// cfg.Blog.ImportInterval.
func NewBlogModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	clk clock.Clock,
	q *queue.Service,
	httpRouter chi.Router,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "blog.NewBlogModule initializing")

	repo := blogdb.NewRepository(db)
	service := blogservice.NewBlogService(repo, nil, cfg.Blog, clk, logger, obs.OperationMetrics(), obs.Tracer, db)

	if q != nil {
		q.AddPeriodicJobs(blogqueue.Register(q.Workers(), service, cfg.Blog.ImportInterval, logger)...)
	}

	if httpRouter != nil {
		handlers := bloghandlers.NewBlogHandlers(service, logger, obs.Tracer)
		httpRouter.Route("/api/blog", handlers.Routes)
	}

	return &Module{
		BlogService:   service,
		observability: obs,
	}, nil
}

// Run blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting blog module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Blog module goroutine stopped")
}

// Close shuts down the blog module.
func (m *Module) Close() error {
	m.observability.Logger.Info("Stopping blog module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
