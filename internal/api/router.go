package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/commands", s.handleListCommands)

		r.Route("/zones", func(r chi.Router) {
			r.Get("/", s.handleListZones)

			r.Route("/{zone}", func(r chi.Router) {
				r.Get("/state", s.handleGetZoneState)
				r.Get("/history", s.handleGetZoneHistory)
				r.Post("/commands", s.handleZoneCommand)
			})
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}
