package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Get("/health", h.Health)

		// Per-farm sync routes: token + membership resolution per request
		r.Route("/farms/{farmID}/sync", func(r chi.Router) {
			r.Use(ScopeMiddleware(h.secret, h.store))
			r.Post("/push", h.SyncPush)
			r.Get("/pull", h.SyncPull)
		})
	})

	return r
}
