package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-search/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	searchHandler := handlers.NewSearchHandler(s.deps.Store, s.deps.Extractor, s.deps.Matcher, s.log.WithName("search"))

	var reloader handlers.Reloader
	if s.config.Web.AdminReload {
		reloader = s.deps.Store
	}
	galleryHandler := handlers.NewGalleryHandler(s.deps.Store, reloader, s.log.WithName("gallery"))
	configHandler := handlers.NewConfigHandler(s.config)

	// Identification endpoint kept at the root for existing clients
	s.router.Post("/search", searchHandler.Search)

	s.router.Get("/api/v1/health", handlers.Health(s.deps.Store))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", searchHandler.Search)
		r.Get("/config", configHandler.Get)
		r.Get("/gallery", galleryHandler.List)
		if s.config.Web.AdminReload {
			r.Post("/gallery/reload", galleryHandler.Reload)
		}
	})
}
