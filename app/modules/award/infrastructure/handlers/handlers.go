package awardhandlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mozilla/mozilla-ignite/app/httpapi"
	awardservice "github.com/mozilla/mozilla-ignite/app/modules/award/application"
	awarddomain "github.com/mozilla/mozilla-ignite/app/modules/award/domain"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// AwardHandlers serves the award endpoints.
type AwardHandlers struct {
	service awardservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewAwardHandlers(service awardservice.Service, logger *slog.Logger, tracer trace.Tracer) *AwardHandlers {
	return &AwardHandlers{service: service, logger: logger, tracer: tracer}
}

// Routes mounts the handlers. Callers put authentication in front.
func (h *AwardHandlers) Routes(r chi.Router) {
	r.With(httpapi.RequireJudge).Post("/submissions/{submissionID}", h.HandleAwardSubmission)
	r.Group(func(r chi.Router) {
		r.Use(httpapi.RequireStaff)
		r.Get("/{awardID}/summary", h.HandleSummary)
		r.Get("/{awardID}/export.xlsx", h.HandleExport)
		r.Get("/{awardID}/usage.png", h.HandleUsageChart)
	})
}

type awardRequest struct {
	Amount int64 `json:"amount"`
}

func (h *AwardHandlers) HandleAwardSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AwardHandlers.HandleAwardSubmission")
	defer span.End()

	submissionID, ok := httpapi.IDParam(r, "submissionID")
	if !ok {
		httpapi.WriteError(w, http.StatusNotFound, awarddomain.MsgSubmissionNotWinner)
		return
	}
	var req awardRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, awarddomain.MsgInvalidAmount)
		return
	}
	claims, _ := httpapi.ClaimsFrom(ctx)

	outcome, err := h.service.AwardSubmission(ctx, claims.ProfileID, submissionID, req.Amount)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, outcome)
}

func (h *AwardHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AwardHandlers.HandleSummary")
	defer span.End()

	awardID, ok := httpapi.IDParam(r, "awardID")
	if !ok {
		httpapi.WriteError(w, http.StatusNotFound, awarddomain.ErrAwardNotFound.Error())
		return
	}
	summary, err := h.service.Summary(ctx, awardID)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, summary)
}

func (h *AwardHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AwardHandlers.HandleExport")
	defer span.End()

	awardID, ok := httpapi.IDParam(r, "awardID")
	if !ok {
		httpapi.WriteError(w, http.StatusNotFound, awarddomain.ErrAwardNotFound.Error())
		return
	}
	data, err := h.service.ExportAward(ctx, awardID)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="award-%d.xlsx"`, awardID))
	_, _ = w.Write(data)
}

func (h *AwardHandlers) HandleUsageChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AwardHandlers.HandleUsageChart")
	defer span.End()

	awardID, ok := httpapi.IDParam(r, "awardID")
	if !ok {
		httpapi.WriteError(w, http.StatusNotFound, awarddomain.ErrAwardNotFound.Error())
		return
	}
	data, err := h.service.UsageChart(ctx, awardID)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// statusFor maps award failures to HTTP statuses. Anything unknown is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, awarddomain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, awarddomain.ErrNotJudge),
		errors.Is(err, awarddomain.ErrInsufficientFunds),
		errors.Is(err, awarddomain.ErrAwardFrozen):
		return http.StatusForbidden
	case errors.Is(err, awarddomain.ErrNotGreenLit),
		errors.Is(err, awarddomain.ErrAllowanceNotFound),
		errors.Is(err, awarddomain.ErrAwardNotFound),
		errors.Is(err, awardservice.ErrNothingToChart):
		return http.StatusNotFound
	case errors.Is(err, awarddomain.ErrAlreadyDistributed),
		errors.Is(err, awarddomain.ErrAwardExists),
		errors.Is(err, awarddomain.ErrInvalidTransition),
		errors.Is(err, awarddomain.ErrNoJudges):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *AwardHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Award request failed",
			attr.ExtractCorrelationID(r.Context()),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		httpapi.WriteError(w, status, "internal error")
		return
	}
	httpapi.WriteError(w, status, err.Error())
}
