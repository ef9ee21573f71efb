package bloghandlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mozilla/mozilla-ignite/app/httpapi"
	blogservice "github.com/mozilla/mozilla-ignite/app/modules/blog/application"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

const maxLimit = 50

type BlogHandlers struct {
	service blogservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewBlogHandlers(service blogservice.Service, logger *slog.Logger, tracer trace.Tracer) *BlogHandlers {
	return &BlogHandlers{service: service, logger: logger, tracer: tracer}
}

func (h *BlogHandlers) Routes(r chi.Router) {
	r.Get("/{page}", h.HandleLatest)
}

// HandleLatest lists the newest entries of a page. ?limit caps the count.
func (h *BlogHandlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "BlogHandlers.HandleLatest")
	defer span.End()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			httpapi.WriteError(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = n
	}

	entries, err := h.service.Latest(ctx, chi.URLParam(r, "page"), limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "Blog listing failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("page", chi.URLParam(r, "page")),
			attr.Error(err),
		)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, entries)
}
