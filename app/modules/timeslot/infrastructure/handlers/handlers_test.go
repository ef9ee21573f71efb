package timeslothandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mozilla/mozilla-ignite/app/httpapi"
	timeslotservice "github.com/mozilla/mozilla-ignite/app/modules/timeslot/application"
	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
	"github.com/mozilla/mozilla-ignite/pkg/clock"
	"github.com/mozilla/mozilla-ignite/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newRouter(svc *FakeService, claims *jwt.ProfileClaims) http.Handler {
	h := NewTimeslotHandlers(svc, clock.NewAnchorClock(now), slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
	withClaims := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if claims != nil {
				req = req.WithContext(httpapi.WithClaims(req.Context(), claims))
			}
			next.ServeHTTP(w, req)
		})
	}
	r := chi.NewRouter()
	r.Route("/api/timeslots", func(r chi.Router) {
		r.Use(withClaims)
		h.Routes(r)
	})
	r.Route("/api/webcasts", func(r chi.Router) {
		r.Get("/", h.HandleUpcoming)
		r.Group(func(r chi.Router) {
			r.Use(withClaims)
			h.WebcastRoutes(r)
		})
	})
	return r
}

func TestTimeslotHandlers_HandleBook(t *testing.T) {
	owner := &jwt.ProfileClaims{ProfileID: 6}

	tests := []struct {
		name        string
		body        string
		outcome     timeslotservice.BookingOutcome
		serviceErr  error
		wantStatus  int
		wantMessage string
	}{
		{name: "booked", body: `{"submission_id": 1}`, outcome: timeslotservice.BookingOutcome{Message: timeslotdomain.MsgBooked, ShortID: "t1c"}, wantStatus: http.StatusOK, wantMessage: timeslotdomain.MsgBooked},
		{name: "already booked", body: `{"submission_id": 1}`, outcome: timeslotservice.BookingOutcome{Message: timeslotdomain.MsgAlreadyBooked, AlreadyBooked: true}, wantStatus: http.StatusOK, wantMessage: timeslotdomain.MsgAlreadyBooked},
		{name: "missing submission", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "unavailable", body: `{"submission_id": 1}`, serviceErr: timeslotdomain.ErrSlotUnavailable, wantStatus: http.StatusConflict, wantMessage: timeslotdomain.MsgUnavailable},
		{name: "not open yet", body: `{"submission_id": 1}`, serviceErr: timeslotdomain.ErrNotAvailableYet, wantStatus: http.StatusForbidden, wantMessage: timeslotdomain.MsgNotAvailableYet},
		{name: "not eligible", body: `{"submission_id": 1}`, serviceErr: timeslotdomain.ErrNotEligible, wantStatus: http.StatusNotFound},
		{name: "infrastructure", body: `{"submission_id": 1}`, serviceErr: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantMessage: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeService{
				BookFunc: func(ctx context.Context, profileID, submissionID int64, shortID string) (timeslotservice.BookingOutcome, error) {
					assert.Equal(t, int64(6), profileID)
					assert.Equal(t, int64(1), submissionID)
					assert.Equal(t, "t1c", shortID)
					return tt.outcome, tt.serviceErr
				},
			}
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/timeslots/t1c/book", strings.NewReader(tt.body))
			newRouter(svc, owner).ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantMessage == "" {
				return
			}
			var body map[string]any
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantMessage, body["message"])
		})
	}
}

func TestTimeslotHandlers_HandleAvailable(t *testing.T) {
	svc := &FakeService{
		AvailableSlotsFunc: func(ctx context.Context, at time.Time) ([]timeslotservice.SlotView, error) {
			assert.Equal(t, now, at)
			return []timeslotservice.SlotView{{ShortID: "t1c", StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour)}}, nil
		},
	}
	rr := httptest.NewRecorder()
	newRouter(svc, &jwt.ProfileClaims{ProfileID: 6}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/timeslots/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var slots []timeslotservice.SlotView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&slots))
	require.Len(t, slots, 1)
	assert.Equal(t, "t1c", slots[0].ShortID)

	svc.AvailableSlotsFunc = func(ctx context.Context, at time.Time) ([]timeslotservice.SlotView, error) {
		return nil, timeslotdomain.ErrNoActiveRelease
	}
	rr = httptest.NewRecorder()
	newRouter(svc, &jwt.ProfileClaims{ProfileID: 6}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/timeslots/", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTimeslotHandlers_Webcasts(t *testing.T) {
	var gotUpcoming bool
	svc := &FakeService{
		UpcomingFunc: func(ctx context.Context, at time.Time) ([]timeslotservice.WebcastView, error) {
			return []timeslotservice.WebcastView{{ShortID: "t1", Title: "Winner"}}, nil
		},
		BookedForProfileFunc: func(ctx context.Context, profileID int64, upcomingOnly bool, at time.Time) ([]timeslotservice.WebcastView, error) {
			assert.Equal(t, int64(6), profileID)
			gotUpcoming = upcomingOnly
			return []timeslotservice.WebcastView{}, nil
		},
		BookedForJudgeFunc: func(ctx context.Context, profileID int64, upcomingOnly bool, at time.Time) ([]timeslotservice.WebcastView, error) {
			return []timeslotservice.WebcastView{{ShortID: "t2"}}, nil
		},
	}

	rr := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/webcasts/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Winner")

	rr = httptest.NewRecorder()
	newRouter(svc, &jwt.ProfileClaims{ProfileID: 6}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/webcasts/mine?upcoming=true", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, gotUpcoming)

	rr = httptest.NewRecorder()
	newRouter(svc, &jwt.ProfileClaims{ProfileID: 6}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/webcasts/judging", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	newRouter(svc, &jwt.ProfileClaims{ProfileID: 5, IsJudge: true}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/webcasts/judging", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "t2")
}
