package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes bundles the handlers behind the public HTTP surface.
type Routes struct {
	System   *SystemHandler
	Auth     *AuthHandler
	Files    *FileHandler
	Analysis *AnalysisHandler
	// RequireAuth wraps the routes that need a bearer token.
	RequireAuth func(http.Handler) http.Handler
}

// Register mounts every endpoint on r.
func (rt Routes) Register(r chi.Router) {
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/", rt.System.Root)
	r.Get("/health", rt.System.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", rt.Auth.Register)
		r.Post("/login", rt.Auth.Login)
		r.Get("/task-status/{"+TaskIDParam+"}", rt.Analysis.TaskStatus)

		r.Group(func(r chi.Router) {
			r.Use(rt.RequireAuth)
			r.Post("/upload", rt.Files.Upload)
			r.Post("/analyze", rt.Analysis.Analyze)
			r.Get("/files", rt.Files.List)
		})
	})
}
