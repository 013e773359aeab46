package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/renal-ai-api/internal/api"
	apiMiddleware "github.com/phrazzld/renal-ai-api/internal/api/middleware"
	"github.com/phrazzld/renal-ai-api/internal/api/shared"
	"github.com/phrazzld/renal-ai-api/internal/platform/metrics"
)

// setupRouter creates the router with the middleware stack and every route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// The desktop frontend is served from a different origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{shared.TraceIDHeader},
		MaxAge:         300,
	}))
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(apiMiddleware.Metrics(app.metrics))

	api.Routes{
		System:      api.NewSystemHandler(app.config.Storage.DataDir),
		Auth:        api.NewAuthHandler(app.userService, app.logger),
		Files:       api.NewFileHandler(app.uploadService, app.config.Storage.MaxUploadBytes(), app.logger),
		Analysis:    api.NewAnalysisHandler(app.analysisService, app.logger),
		RequireAuth: apiMiddleware.NewAuthMiddleware(app.authenticator).Authenticate,
	}.Register(r)

	r.Method(http.MethodGet, "/metrics", metrics.Handler(app.registry))

	return r
}
