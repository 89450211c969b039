package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter builds and returns the Chi router with all routes configured.
// The root and health endpoints are unauthenticated; all station routes
// require bearer auth. Rate limiting is applied globally: 60 requests
// per minute per IP.
func NewRouter(handlers *Handlers, token string, db, redisClient Pinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/", Root)
	r.Get("/api/v1/health", HealthHandlerFunc(handlers.stations, db, redisClient, log))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(token))
		r.Put("/api/v1/stations/{userID}", handlers.RegisterStation)
		r.Get("/api/v1/stations/{userID}", handlers.GetStation)
		r.Patch("/api/v1/stations/{userID}/settings", handlers.UpdateSettings)
		r.Get("/api/v1/stations/{userID}/atmosphere", handlers.Atmosphere)
		r.Get("/api/v1/apod", handlers.APOD)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
