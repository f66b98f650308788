// Package api assembles the HTTP surface of the recommendation service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/karthikc911/cinevibe-sub001/internal/api/handlers"
	"github.com/karthikc911/cinevibe-sub001/internal/api/middleware"
)

// maxRequestBody caps request bodies; synthesis filter payloads are tiny.
const maxRequestBody = 1 << 20

// RouterParams carries the handlers the router mounts.
type RouterParams struct {
	Health      *handlers.HealthHandler
	Synthesis   *handlers.SynthesisHandler
	Queue       *handlers.QueueHandler
	Preferences *handlers.PreferencesHandler
	Ratings     *handlers.RatingsHandler
	Items       *handlers.ItemsHandler

	// APIKey protects /v1; empty disables auth.
	APIKey string
	Logger *slog.Logger
}

// NewRouter builds the chi router with the middleware chain and all routes.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(p.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.MaxBody(maxRequestBody))

	r.Get("/health", p.Health.Check)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.APIKey))

		r.Post("/recommendations/synthesize", p.Synthesis.Synthesize)

		r.Get("/queue/next", p.Queue.Next)
		r.Get("/queue/status", p.Queue.Status)
		r.Post("/queue/rated", p.Queue.MarkRated)

		r.Post("/preferences", p.Preferences.Store)
		r.Get("/preferences/search", p.Preferences.Search)
		r.Post("/preferences/analyze", p.Preferences.Analyze)

		r.Post("/ratings", p.Ratings.Create)
		r.Get("/ratings", p.Ratings.List)

		r.Get("/items/{id}", p.Items.Get)
	})

	return r
}
