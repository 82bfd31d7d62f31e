package chi

import (
	"github.com/go-chi/chi/v5"
)

// Routes registers every endpoint on the router. Middleware is applied
// by the caller before this runs.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommend", s.Recommend)
		r.Get("/filters", s.Filters)
	})
	r.Get("/healthz", s.Health)
	r.Get("/metrics", s.Metrics)
	r.Handle("/*", staticHandler())
}
