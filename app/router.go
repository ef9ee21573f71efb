package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mozilla/mozilla-ignite/app/httpapi"
	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"golang.org/x/time/rate"
)

const healthTimeout = 2 * time.Second

// NewRouter builds the API router with the shared middleware stack and a
// /healthz endpoint backed by check.
func NewRouter(cfg *config.Config, obs observability.Observability, check func(ctx context.Context) error) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(httpapi.CorrelationMiddleware)
	r.Use(httpapi.CORSMiddleware(cfg.HTTP.AllowedOrigins))
	if obs.Metrics != nil {
		r.Use(obs.Metrics.HTTPMiddleware)
	}
	if cfg.HTTP.RateLimit > 0 {
		limiter := httpapi.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
		var rejections httpapi.Rejections
		if obs.Metrics != nil {
			rejections = obs.Metrics
		}
		r.Use(httpapi.RateLimitMiddleware(limiter, rejections))
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), healthTimeout)
		defer cancel()
		if check != nil {
			if err := check(ctx); err != nil {
				obs.Logger.WarnContext(ctx, "Health check failed", attr.Error(err))
				httpapi.WriteError(w, http.StatusServiceUnavailable, "unhealthy")
				return
			}
		}
		httpapi.WriteMessage(w, http.StatusOK, "ok")
	})
	return r
}
