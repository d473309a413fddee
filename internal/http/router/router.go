// Package router собирает служебный HTTP-роутер: проверку готовности и метрики.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/habit-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/metrics"
)

// New возвращает роутер с маршрутами /health и /metrics.
func New(log *slog.Logger, m *metrics.Metrics, pinger health.Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)

	r.Method(http.MethodGet, "/health", health.New(log, pinger))
	r.Method(http.MethodGet, "/metrics", m.Handler())
	return r
}
