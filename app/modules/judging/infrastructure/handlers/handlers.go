package judginghandlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mozilla/mozilla-ignite/app/httpapi"
	judgingservice "github.com/mozilla/mozilla-ignite/app/modules/judging/application"
	judgingdomain "github.com/mozilla/mozilla-ignite/app/modules/judging/domain"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

type JudgingHandlers struct {
	service judgingservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewJudgingHandlers(service judgingservice.Service, logger *slog.Logger, tracer trace.Tracer) *JudgingHandlers {
	return &JudgingHandlers{service: service, logger: logger, tracer: tracer}
}

// Routes mounts the handlers behind the caller's authentication.
func (h *JudgingHandlers) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httpapi.RequireJudge)
		r.Get("/assignments", h.HandleAssignments)
		r.Post("/submissions/{submissionID}", h.HandleSubmitJudgement)
	})
	r.With(httpapi.RequireStaff).Get("/phases/{phaseID}/export.xlsx", h.HandleExport)
}

type judgementRequest struct {
	Notes   string                 `json:"notes"`
	Answers []judgingdomain.Answer `json:"answers"`
}

func (h *JudgingHandlers) HandleAssignments(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "JudgingHandlers.HandleAssignments")
	defer span.End()

	claims, _ := httpapi.ClaimsFrom(ctx)
	views, err := h.service.AssignmentsForJudge(ctx, claims.ProfileID)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, views)
}

func (h *JudgingHandlers) HandleSubmitJudgement(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "JudgingHandlers.HandleSubmitJudgement")
	defer span.End()

	submissionID, ok := httpapi.IDParam(r, "submissionID")
	if !ok {
		httpapi.WriteError(w, http.StatusNotFound, judgingdomain.ErrSubmissionMissing.Error())
		return
	}
	var req judgementRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid judgement")
		return
	}
	claims, _ := httpapi.ClaimsFrom(ctx)

	result, err := h.service.SubmitJudgement(ctx, claims.ProfileID, submissionID, req.Notes, req.Answers)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, result)
}

func (h *JudgingHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "JudgingHandlers.HandleExport")
	defer span.End()

	phaseID, ok := httpapi.IDParam(r, "phaseID")
	if !ok {
		httpapi.WriteError(w, http.StatusNotFound, "phase not found")
		return
	}
	data, err := h.service.ExportJudgements(ctx, phaseID)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="judgements-phase-%d.xlsx"`, phaseID))
	_, _ = w.Write(data)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, judgingdomain.ErrUnknownCriterion),
		errors.Is(err, judgingdomain.ErrRatingOutOfRange),
		errors.Is(err, judgingdomain.ErrDuplicateAnswer):
		return http.StatusBadRequest
	case errors.Is(err, judgingdomain.ErrNotJudge),
		errors.Is(err, judgingdomain.ErrNotAssigned):
		return http.StatusForbidden
	case errors.Is(err, judgingdomain.ErrSubmissionMissing):
		return http.StatusNotFound
	case errors.Is(err, judgingdomain.ErrNotEnoughJudges):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *JudgingHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Judging request failed",
			attr.ExtractCorrelationID(r.Context()),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		httpapi.WriteError(w, status, "internal error")
		return
	}
	httpapi.WriteError(w, status, err.Error())
}
