// Package router sets up all HTTP routes and middleware chains for the
// Inkpress API. Routes live under /api, grouped by resource, with the
// auth gate applied per route.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"inkpress/internal/cache"
	"inkpress/internal/handlers"
	"inkpress/internal/metrics"
	"inkpress/internal/middleware"
)

// Deps are the collaborators the router wires together. Metrics, Cache
// and AuthLimiter are optional.
type Deps struct {
	Authenticator *middleware.Authenticator
	Auth          *handlers.Auth
	Categories    *handlers.Categories
	Posts         *handlers.Posts
	Uploads       *handlers.Uploads

	Metrics        *metrics.Metrics
	Cache          *cache.ResponseCache
	AuthLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	required := d.Authenticator.Required

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if d.AuthLimiter != nil {
				r.Use(d.AuthLimiter.Middleware)
			}
			r.Post("/register", d.Auth.Register)
			r.Post("/login", d.Auth.Login)
			r.With(d.Authenticator.Optional).Get("/me", d.Auth.Me)
		})

		r.Route("/categories", func(r chi.Router) {
			r.With(d.Cache.Middleware(cache.GroupCategories)).Get("/", d.Categories.List)
			r.With(required, d.Cache.Invalidates(cache.GroupCategories)).Post("/", d.Categories.Create)
		})

		r.Route("/posts", func(r chi.Router) {
			r.With(d.Cache.Middleware(cache.GroupPosts)).Get("/", d.Posts.List)
			// {id} also accepts a slug on GET.
			r.Get("/{id}", d.Posts.Get)

			r.Group(func(r chi.Router) {
				r.Use(required)
				r.Use(d.Cache.Invalidates(cache.GroupPosts))
				r.Post("/", d.Posts.Create)
				r.Put("/{id}", d.Posts.Update)
				r.Delete("/{id}", d.Posts.Delete)
				r.Post("/{id}/comments", d.Posts.Comment)
			})
		})

		r.With(required).Post("/uploads", d.Uploads.Upload)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
