package timeslothandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mozilla/mozilla-ignite/app/httpapi"
	timeslotservice "github.com/mozilla/mozilla-ignite/app/modules/timeslot/application"
	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

type TimeslotHandlers struct {
	service timeslotservice.Service
	clock   clock.Clock
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewTimeslotHandlers(service timeslotservice.Service, clk clock.Clock, logger *slog.Logger, tracer trace.Tracer) *TimeslotHandlers {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &TimeslotHandlers{service: service, clock: clk, logger: logger, tracer: tracer}
}

// Routes mounts the booking endpoints. Callers put authentication in front.
func (h *TimeslotHandlers) Routes(r chi.Router) {
	r.Get("/", h.HandleAvailable)
	r.Post("/{shortID}/book", h.HandleBook)
}

// WebcastRoutes mounts the signed-in webcast listings.
func (h *TimeslotHandlers) WebcastRoutes(r chi.Router) {
	r.Get("/mine", h.HandleMine)
	r.With(httpapi.RequireJudge).Get("/judging", h.HandleJudging)
}

type bookRequest struct {
	SubmissionID int64 `json:"submission_id"`
}

func (h *TimeslotHandlers) HandleAvailable(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TimeslotHandlers.HandleAvailable")
	defer span.End()

	slots, err := h.service.AvailableSlots(ctx, h.clock.Now())
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, slots)
}

func (h *TimeslotHandlers) HandleBook(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TimeslotHandlers.HandleBook")
	defer span.End()

	var req bookRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil || req.SubmissionID <= 0 {
		httpapi.WriteError(w, http.StatusBadRequest, "submission_id is required")
		return
	}
	claims, _ := httpapi.ClaimsFrom(ctx)

	outcome, err := h.service.Book(ctx, claims.ProfileID, req.SubmissionID, chi.URLParam(r, "shortID"))
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, outcome)
}

// HandleUpcoming lists every booked webcast that has not ended.
func (h *TimeslotHandlers) HandleUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TimeslotHandlers.HandleUpcoming")
	defer span.End()

	views, err := h.service.Upcoming(ctx, h.clock.Now())
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, views)
}

func (h *TimeslotHandlers) HandleMine(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TimeslotHandlers.HandleMine")
	defer span.End()

	claims, _ := httpapi.ClaimsFrom(ctx)
	views, err := h.service.BookedForProfile(ctx, claims.ProfileID, upcomingOnly(r), h.clock.Now())
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, views)
}

func (h *TimeslotHandlers) HandleJudging(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TimeslotHandlers.HandleJudging")
	defer span.End()

	claims, _ := httpapi.ClaimsFrom(ctx)
	views, err := h.service.BookedForJudge(ctx, claims.ProfileID, upcomingOnly(r), h.clock.Now())
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, views)
}

func upcomingOnly(r *http.Request) bool {
	return r.URL.Query().Get("upcoming") == "true"
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, timeslotdomain.ErrSlotUnavailable):
		return http.StatusConflict
	case errors.Is(err, timeslotdomain.ErrNotAvailableYet):
		return http.StatusForbidden
	case errors.Is(err, timeslotdomain.ErrNotEligible),
		errors.Is(err, timeslotdomain.ErrNoActiveRelease),
		errors.Is(err, timeslotdomain.ErrSlotNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (h *TimeslotHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Timeslot request failed",
			attr.ExtractCorrelationID(r.Context()),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		httpapi.WriteError(w, status, "internal error")
		return
	}
	httpapi.WriteError(w, status, err.Error())
}
