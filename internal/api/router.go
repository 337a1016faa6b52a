package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hward/taskboard/internal/api/handlers"
	"github.com/hward/taskboard/internal/api/middleware"
	"github.com/hward/taskboard/internal/auth"
	"github.com/hward/taskboard/internal/permissions"
	"github.com/hward/taskboard/internal/tasks"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	Revoker        auth.Revoker
	TokenExpiry    time.Duration
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// CSRF protection for the cookie-auth path. Bearer-token requests
	// bypass it inside the middleware.
	csrfStore := middleware.NewCSRFStore()
	r.Use(middleware.CSRF(csrfStore))

	// Initialize services
	permService := permissions.NewService(cfg.DB, cfg.Logger)
	taskService := tasks.NewService(cfg.DB, permService, cfg.Logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.Revoker, cfg.TokenExpiry)
	taskHandler := handlers.NewTaskHandler(taskService, permService)
	permHandler := handlers.NewPermissionHandler(permService)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/session", authHandler.Session)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService, cfg.Revoker))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.Put("/me", authHandler.UpdateMe)

			// Task endpoints
			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Get("/all", taskHandler.ListAll)
				r.Get("/grid", taskHandler.Grid)
				r.Get("/stats", taskHandler.Stats)
				r.Get("/stats/all", taskHandler.StatsAll)
				r.Post("/bulk-delete", taskHandler.BulkDelete)
				r.Get("/{id}", taskHandler.Get)
				r.Put("/{id}", taskHandler.Update)
				r.Put("/{id}/status", taskHandler.UpdateStatus)
				r.Delete("/{id}", taskHandler.Delete)
			})

			// Permission endpoints
			r.Route("/permissions", func(r chi.Router) {
				r.Post("/grid", permHandler.Grid)
				r.Post("/save", permHandler.Save)
				r.Get("/users", permHandler.AvailableUsers)
			})

			r.Get("/users/search", permHandler.SearchUsers)
		})
	})

	return &Router{r}
}
