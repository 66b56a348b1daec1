// Package main provides the entrypoint for the datamatch background worker.
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

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/datamatch/datamatch/internal/api/handler"
	"github.com/datamatch/datamatch/internal/api/middleware"
	"github.com/datamatch/datamatch/internal/api/response"
	"github.com/datamatch/datamatch/internal/config"
	"github.com/datamatch/datamatch/internal/database"
	"github.com/datamatch/datamatch/internal/featureflags"
	"github.com/datamatch/datamatch/internal/match"
	"github.com/datamatch/datamatch/internal/profile"
	"github.com/datamatch/datamatch/internal/resilience"
	"github.com/datamatch/datamatch/internal/suggestion"
	"github.com/datamatch/datamatch/internal/telemetry"
	"github.com/datamatch/datamatch/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "datamatch-worker"

func main() {
	cfg, err := config.Load(os.Getenv("DATAMATCH_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "datamatch-worker: %v\n", err)
		os.Exit(1)
	}

	log := cfg.Log.NewLogger(os.Stdout, serviceName, Version)
	log.Info().Str("build_time", BuildTime).Msg("starting datamatch worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("worker stopped with error")
		os.Exit(1) //nolint:gocritic // deferred stop is best-effort
	}
	log.Info().Msg("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
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

	matchMetrics, err := match.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing match metrics: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

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
	matchService := match.NewService(match.ServiceConfig{
		Engine:   match.NewEngine(engineCfg),
		Profiles: profileRepo,
		Toggles:  flags,
		Metrics:  matchMetrics,
		Logger:   log,
	})
	suggestions := suggestion.NewService(suggestion.ServiceConfig{
		Matcher: matchService,
		Repo:    suggestion.NewPostgresRepository(pool),
		Toggle:  flags,
		TTL:     cfg.Suggestion.CacheTTL,
		Logger:  log,
	})

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Concurrency: cfg.Worker.Concurrency,
			Timeout:     cfg.Worker.Timeout,
			Schedule:    cfg.Worker.Schedule,
		},
		Profiles:  profileRepo,
		Refresher: suggestions,
		Logger:    log,
	})
	dispatcher := worker.NewDispatcher(job, registry, log)

	scheduler, err := worker.NewScheduler(log)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Worker.Port),
		Handler:      healthRouter(log, job, pool, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return scheduler.Start(gctx, job)
	})

	if cfg.PubSub.Enabled() {
		sub, err := worker.NewPubSubHandler(gctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.Subscription,
			Dispatcher:       dispatcher,
			Logger:           log,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := sub.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close pubsub client")
			}
		}()
		g.Go(func() error {
			return sub.Start(gctx)
		})
	} else {
		log.Warn().Msg("pubsub not configured - only scheduled refreshes will run")
	}

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving health: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down worker")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// healthRouter serves liveness, readiness and refresh job counters for the
// platform's probes.
func healthRouter(log zerolog.Logger, job *worker.RefreshJob, db handler.Pinger, registry *resilience.Registry) http.Handler {
	ops := handler.NewOpsHandler(handler.OpsConfig{
		Version:   Version,
		BuildTime: BuildTime,
		Database:  db,
		Registry:  registry,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/health", ops.HealthCheck)
	r.Get("/ready", ops.ReadinessCheck)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, job.MetricsSnapshot())
	})
	return r
}
