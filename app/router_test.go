package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mozilla/mozilla-ignite/config"
	"github.com/mozilla/mozilla-ignite/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouter_Health(t *testing.T) {
	obs := observability.NewObservability(slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetrics("test"), nil)

	tests := []struct {
		name       string
		check      func(context.Context) error
		wantStatus int
	}{
		{name: "healthy", check: func(context.Context) error { return nil }, wantStatus: http.StatusOK},
		{name: "no check", wantStatus: http.StatusOK},
		{name: "database down", check: func(context.Context) error { return errors.New("refused") }, wantStatus: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(config.Defaults(), obs, tt.check)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))
		})
	}
}

func TestNewRouter_RateLimited(t *testing.T) {
	cfg := config.Defaults()
	cfg.HTTP.RateLimit = 1
	cfg.HTTP.RateBurst = 1
	obs := observability.NewObservability(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil)
	r := NewRouter(cfg, obs, nil)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
