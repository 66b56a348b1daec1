// Package api provides the HTTP API for datamatch.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/datamatch/datamatch/internal/api/handler"
	"github.com/datamatch/datamatch/internal/api/middleware"
	"github.com/datamatch/datamatch/internal/auth"
	"github.com/datamatch/datamatch/internal/featureflags"
	"github.com/datamatch/datamatch/internal/match"
	"github.com/datamatch/datamatch/internal/profile"
	"github.com/datamatch/datamatch/internal/resilience"
	"github.com/datamatch/datamatch/internal/suggestion"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	// RequireTLS rejects plain HTTP forwarded by the load balancer.
	RequireTLS bool

	// Per-minute limits. Zero uses the middleware defaults.
	AuthRateLimit     int
	SearchRateLimit   int
	StandardRateLimit int

	AuthService        *auth.Service
	ProfileService     *profile.Service
	MatchService       *match.Service
	SuggestionService  *suggestion.Service
	FeatureFlagService *featureflags.Service

	// Database and Registry feed the readiness and status endpoints.
	Database handler.Pinger
	Registry *resilience.Registry
}

func limit(n int, fallback middleware.RateLimitConfig) middleware.RateLimitConfig {
	if n <= 0 {
		return fallback
	}
	return middleware.PerMinute(n)
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	r.Use(middleware.Tracing()) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type
	r.Use(middleware.RequireJSON)                // Reject non-JSON bodies

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Database:  cfg.Database,
		Registry:  cfg.Registry,
		Flags:     cfg.FeatureFlagService,
	})
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Logger)
	profileHandler := handler.NewProfileHandler(cfg.ProfileService, cfg.AuthService, cfg.Logger)
	matchHandler := handler.NewMatchHandler(cfg.MatchService, cfg.SuggestionService, cfg.Logger)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.AuthService)

	authRateLimit := middleware.RateLimitByIP(limit(cfg.AuthRateLimit, middleware.AuthRateLimit))
	searchRateLimit := middleware.RateLimitByUser(limit(cfg.SearchRateLimit, middleware.SearchRateLimit))
	standardRateLimit := middleware.RateLimitByUser(limit(cfg.StandardRateLimit, middleware.StandardRateLimit))

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)

		// Registration and token issuance (public) - strict per-IP limits
		r.With(authRateLimit).Post("/profiles", profileHandler.CreateProfile)
		r.With(authRateLimit).Post("/auth/token", authHandler.IssueToken)

		// Me endpoints (authenticated)
		r.Route("/me", func(r chi.Router) {
			r.Use(authMiddleware)

			r.Group(func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/profile", profileHandler.GetProfile)
				r.Put("/profile", profileHandler.UpdateProfile)
				r.Post("/location", profileHandler.UpdateLocation)
				r.Get("/availability", profileHandler.ListAvailability)
				r.Post("/availability", profileHandler.AddAvailability)
				r.Delete("/availability/{index}", profileHandler.DeleteAvailability)
				r.Post("/niche-interests", profileHandler.AddNicheInterests)
				r.Get("/search-history", profileHandler.GetSearchHistory)
				r.Delete("/search-history", profileHandler.ClearSearchHistory)
				r.Put("/settings/search-history", profileHandler.UpdateSearchHistorySettings)
			})

			// These score the whole pool
			r.Group(func(r chi.Router) {
				r.Use(searchRateLimit)
				r.Get("/suggestions", matchHandler.Suggestions)
				r.Get("/nearby", matchHandler.Nearby)
			})
		})

		r.Route("/matches", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(searchRateLimit)
			r.Post("/search", matchHandler.Search)
			r.Get("/{candidateId}/compatibility", matchHandler.Compatibility)
		})

		// Admin endpoints (authenticated)
		r.Route("/admin/feature-flags", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)
			r.Get("/", featureFlagsHandler.ListFeatureFlags)
			r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
			r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			r.Get("/{key}", featureFlagsHandler.GetFeatureFlag)
			r.Put("/{key}", featureFlagsHandler.SetFeatureFlag)
			r.Delete("/{key}", featureFlagsHandler.ResetFeatureFlag)
		})
	})

	return r
}
