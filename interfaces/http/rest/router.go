package rest

import (
	"net/http"

	"myblog-backend/interfaces/http/rest/handlers"
	"myblog-backend/interfaces/http/rest/middleware"
	"myblog-backend/pkg/auth"
	"myblog-backend/pkg/errors"
	"myblog-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig holds the HTTP surface settings
type RouterConfig struct {
	Version        string
	EnableCORS     bool
	AllowedOrigins []string
	// ExposeMetrics mounts /metrics on the API router
	ExposeMetrics bool
}

// Router creates and configures the HTTP router
type Router struct {
	cfg           RouterConfig
	posts         *handlers.PostHandler
	media         *handlers.MediaHandler
	health        *handlers.HealthHandler
	authenticator *middleware.Authenticator
	limiter       *auth.IPRateLimiter
	errors        *errors.ErrorHandler
	metrics       *observability.Collector
	logger        *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg RouterConfig,
	posts *handlers.PostHandler,
	media *handlers.MediaHandler,
	health *handlers.HealthHandler,
	authenticator *middleware.Authenticator,
	limiter *auth.IPRateLimiter,
	errHandler *errors.ErrorHandler,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:           cfg,
		posts:         posts,
		media:         media,
		health:        health,
		authenticator: authenticator,
		limiter:       limiter,
		errors:        errHandler,
		metrics:       metrics,
		logger:        logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Metrics(rt.metrics))
	router.Use(rt.versionHeader)

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health check
	router.Get("/health", rt.health.Health)
	router.Get("/ready", rt.health.Ready)
	if rt.cfg.ExposeMetrics {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	router.Group(func(r chi.Router) {
		r.Use(rt.authenticator.Identify)

		// Public reads. Drafts and archived posts are visible to authenticated callers only.
		r.Get("/posts", rt.posts.ListPosts)
		r.Get("/posts/{postId}", rt.posts.GetPost)
		r.Get("/tags/{tag}/posts", rt.posts.ListPostsByTag)

		r.Route("/admin", func(r chi.Router) {
			r.Use(rt.authenticator.RequireAuth)
			r.Use(middleware.RateLimit(rt.limiter, rt.errors))

			r.Route("/posts", func(r chi.Router) {
				r.Post("/", rt.posts.CreatePost)
				r.Put("/{postId}", rt.posts.UpdatePost)
				r.Delete("/{postId}", rt.posts.DeletePost)
			})
			r.Post("/presigned-url", rt.media.RequestUploadURL)
		})
	})

	return router
}

// versionHeader adds the API version to all responses
func (rt *Router) versionHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rt.cfg.Version != "" {
			w.Header().Set("X-API-Version", rt.cfg.Version)
		}
		next.ServeHTTP(w, r)
	})
}
