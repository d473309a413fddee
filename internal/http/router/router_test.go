package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/habit-tracker/internal/http/response"
	"github.com/magabrotheeeer/habit-tracker/internal/http/router"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/metrics"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantCode   int
		wantStatus string
	}{
		{name: "storage ready", wantCode: http.StatusOK, wantStatus: response.StatusOK},
		{name: "storage down", pingErr: errors.New("connection refused"), wantCode: http.StatusServiceUnavailable, wantStatus: response.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := slog.New(slog.NewTextHandler(io.Discard, nil))
			h := router.New(log, metrics.New(), pingerFunc(func(context.Context) error { return tt.pingErr }))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp response.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	m.Observe("mark_completion", metrics.ResultOK)
	h := router.New(log, m, pingerFunc(func(context.Context) error { return nil }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "habit_tracker_operations_total")
}

func TestRouter_UnknownRoute(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := router.New(log, metrics.New(), pingerFunc(func(context.Context) error { return nil }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/habits", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
