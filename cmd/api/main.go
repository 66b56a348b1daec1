// Package main provides the entrypoint for the datamatch API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/datamatch/datamatch/internal/api"
	"github.com/datamatch/datamatch/internal/api/middleware"
	"github.com/datamatch/datamatch/internal/auth"
	"github.com/datamatch/datamatch/internal/config"
	"github.com/datamatch/datamatch/internal/database"
	"github.com/datamatch/datamatch/internal/events"
	"github.com/datamatch/datamatch/internal/featureflags"
	"github.com/datamatch/datamatch/internal/match"
	"github.com/datamatch/datamatch/internal/profile"
	"github.com/datamatch/datamatch/internal/resilience"
	"github.com/datamatch/datamatch/internal/suggestion"
	"github.com/datamatch/datamatch/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "datamatch-api"

func main() {
	cfg, err := config.Load(os.Getenv("DATAMATCH_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "datamatch-api: %v\n", err)
		os.Exit(1)
	}

	log := cfg.Log.NewLogger(os.Stdout, serviceName, Version)
	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting datamatch API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1) //nolint:gocritic // deferred stop is best-effort
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Initialize OpenTelemetry
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		MetricInterval: cfg.Telemetry.MetricInterval,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()
	if cfg.Telemetry.Enabled {
		log.Info().Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing http metrics: %w", err)
	}
	matchMetrics, err := match.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing match metrics: %w", err)
	}

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("database connected")

	engineCfg, err := cfg.Match.EngineConfig()
	if err != nil {
		return err
	}

	registry := resilience.NewRegistry()
	profileRepo := profile.NewPostgresRepository(pool)

	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewPostgresRepository(pool),
		Logger:     log,
		CacheTTL:   cfg.Flags.CacheTTL,
	})

	// Search history writes never publish change events, so the recorder
	// needs no notifier and can exist before the suggestion cache does.
	searchHistory := profile.NewService(profile.ServiceConfig{Repo: profileRepo, Logger: log})

	matchService := match.NewService(match.ServiceConfig{
		Engine:   match.NewEngine(engineCfg),
		Profiles: profileRepo,
		Toggles:  flags,
		Metrics:  matchMetrics,
		Logger:   log,
		History:  searchHistory,
	})

	suggestionService := suggestion.NewService(suggestion.ServiceConfig{
		Matcher: matchService,
		Repo:    suggestion.NewPostgresRepository(pool),
		Toggle:  flags,
		TTL:     cfg.Suggestion.CacheTTL,
		Logger:  log,
	})

	// Profile changes drop the member's cached suggestions here and, when a
	// broker is configured, reach the worker for a full recompute.
	notifier := events.Fanout{suggestionService}
	if cfg.PubSub.Enabled() {
		execCfg := resilience.DefaultExecutorConfig("events")
		execCfg.Registry = registry
		publisher, sender, err := events.NewPubSubPublisher(ctx, events.PubSubConfig{
			ProjectID: cfg.PubSub.ProjectID,
			Topic:     cfg.PubSub.Topic,
			Executor:  resilience.NewExecutor(execCfg),
			Logger:    log,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := sender.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close pubsub publisher")
			}
		}()
		notifier = append(notifier, publisher)
		log.Info().Str("topic", cfg.PubSub.Topic).Msg("publishing profile changes")
	} else {
		notifier = append(notifier, events.LogNotifier{Logger: log})
		log.Warn().Msg("pubsub not configured - profile changes stay local")
	}

	profileService := profile.NewService(profile.ServiceConfig{
		Repo:     profileRepo,
		Notifier: notifier,
		Logger:   log,
	})

	if cfg.Auth.SigningKey == config.DevSigningKey && !cfg.IsDevelopment() {
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	authService := auth.NewService(auth.ServiceConfig{
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey: cfg.Auth.SigningKey,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			TTL:        cfg.Auth.AccessTokenTTL,
		}),
		Profiles: profileRepo,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		Metrics:            httpMetrics,
		RequireTLS:         cfg.Server.RequireTLS,
		AuthRateLimit:      cfg.RateLimit.AuthPerMinute,
		SearchRateLimit:    cfg.RateLimit.SearchPerMinute,
		StandardRateLimit:  cfg.RateLimit.StandardPerMinute,
		AuthService:        authService,
		ProfileService:     profileService,
		MatchService:       matchService,
		SuggestionService:  suggestionService,
		FeatureFlagService: flags,
		Database:           pool,
		Registry:           registry,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
