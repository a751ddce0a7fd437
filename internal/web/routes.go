package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/photo-culler/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	reviewHandler := handlers.NewReviewHandler(s.store)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/groups", reviewHandler.List)
		r.Post("/groups/{id}/keep", reviewHandler.Decide)
		r.Get("/photos/thumb", reviewHandler.Thumb)
	})
}
