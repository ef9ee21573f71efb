package challengehandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	challengeservice "github.com/mozilla/mozilla-ignite/app/modules/challenge/application"
	"github.com/mozilla/mozilla-ignite/app/httpapi"
	"github.com/mozilla/mozilla-ignite/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// ChallengeHandlers serves the challenge read endpoints.
type ChallengeHandlers struct {
	service challengeservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewChallengeHandlers(service challengeservice.Service, logger *slog.Logger, tracer trace.Tracer) *ChallengeHandlers {
	return &ChallengeHandlers{service: service, logger: logger, tracer: tracer}
}

// Routes mounts the handlers under /api/challenges.
func (h *ChallengeHandlers) Routes(r chi.Router) {
	r.Get("/{slug}/phase", h.HandleCurrentPhase)
	r.Get("/{slug}/phases/{name}", h.HandlePhaseByName)
}

func (h *ChallengeHandlers) HandleCurrentPhase(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandleCurrentPhase")
	defer span.End()

	status, err := h.service.CurrentPhase(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		h.writeLookupError(w, r.WithContext(ctx), err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, status)
}

type phaseResponse struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Start  string          `json:"start_date"`
	End    string          `json:"end_date"`
	Rounds []roundResponse `json:"rounds"`
}

type roundResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

func (h *ChallengeHandlers) HandlePhaseByName(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ChallengeHandlers.HandlePhaseByName")
	defer span.End()

	phase, err := h.service.PhaseByName(ctx, chi.URLParam(r, "slug"), chi.URLParam(r, "name"))
	if err != nil {
		h.writeLookupError(w, r.WithContext(ctx), err)
		return
	}

	resp := phaseResponse{
		ID:     phase.ID,
		Name:   phase.Name,
		Start:  phase.StartDate.UTC().Format(timeLayout),
		End:    phase.EndDate.UTC().Format(timeLayout),
		Rounds: []roundResponse{},
	}
	for _, rd := range phase.Rounds {
		resp.Rounds = append(resp.Rounds, roundResponse{
			ID:    rd.ID,
			Name:  rd.Name,
			Start: rd.StartDate.UTC().Format(timeLayout),
			End:   rd.EndDate.UTC().Format(timeLayout),
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func (h *ChallengeHandlers) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, challengeservice.ErrChallengeNotFound), errors.Is(err, challengeservice.ErrPhaseNotFound):
		httpapi.WriteError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Challenge lookup failed", attr.ExtractCorrelationID(r.Context()), attr.Error(err))
		httpapi.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
