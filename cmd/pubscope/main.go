// Package main is the entry point for the pubscope resolution service: it
// wires the Fetch Strategy Manager, Event Bus, Pipeline Supervisor, and
// worker pool against a durable SQLite/Turso store, and exposes the
// Submission Gate and SSE Streamer over HTTP. Everything else at the web
// boundary (the UI, CSV bulk ingest, admin/CRUD screens, billing) is an
// external collaborator out of scope for this service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jmylchreest/pubscope/internal/config"
	"github.com/jmylchreest/pubscope/internal/database"
	"github.com/jmylchreest/pubscope/internal/eventbus"
	"github.com/jmylchreest/pubscope/internal/fetch"
	"github.com/jmylchreest/pubscope/internal/httpapi"
	"github.com/jmylchreest/pubscope/internal/llmagent"
	"github.com/jmylchreest/pubscope/internal/logging"
	"github.com/jmylchreest/pubscope/internal/pipeline"
	"github.com/jmylchreest/pubscope/internal/repository"
	"github.com/jmylchreest/pubscope/internal/version"
	"github.com/jmylchreest/pubscope/internal/waf"
	"github.com/jmylchreest/pubscope/internal/worker"
)

func main() {
	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting pubscope",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	if schemaVersion, err := database.GetLatestSchemaVersion(db); err != nil {
		logger.Warn("failed to get schema version", "error", err)
	} else if schemaVersion != "" {
		migrationCount, _ := database.GetMigrationCount(db)
		logger.Info("database schema ready", "schema_version", schemaVersion, "migrations_applied", migrationCount)
	}

	repos := repository.NewRepositories(db)

	// Clean up stale running jobs from a previous crashed run.
	if staleCount, err := repos.Job.MarkStaleRunningFailed(context.Background(), time.Hour); err != nil {
		logger.Warn("failed to clean up stale running jobs", "error", err)
	} else if staleCount > 0 {
		logger.Info("cleaned up stale running jobs", "count", staleCount)
	}

	bus := eventbus.New(logger)

	fetchStrategies := buildFetchStrategies(cfg, logger)
	fetcher := fetch.NewManager(fetchStrategies, repos.Publisher, logger)

	fingerprinter := waf.New(cfg.WAFFingerprintURL, cfg.FetchTimeout)

	var llm *llmagent.Agent
	if cfg.LLMAPIKey != "" {
		llm = llmagent.New(context.Background(), cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
		logger.Info("llm agent configured", "model", cfg.LLMModel)
	} else {
		logger.Warn("no LLM API key configured; ToS discovery/evaluation steps will degrade to {error} and metadata profile will return an empty summary")
	}

	supervisor := pipeline.New(repos, bus, fetcher, fingerprinter, llm, cfg.PublisherFreshnessTTL, cfg.ArticleFreshnessTTL, logger)

	jobWorker := worker.New(repos.Job, supervisor, worker.Config{
		PollInterval:        cfg.WorkerPollInterval,
		MaxPollInterval:     cfg.WorkerMaxPollInterval,
		Concurrency:         cfg.WorkerConcurrency,
		ShutdownGracePeriod: cfg.WorkerShutdownGracePeriod,
		JobTimeout:          cfg.JobTimeout,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	jobWorker.Start(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.RequestSize(1 * 1024 * 1024))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	api := httpapi.New(repos.Job, repos.Publisher, bus, logger, cfg.SubmitRateLimitPerMinute)
	api.Routes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the SSE stream is long-lived; managed by client disconnect instead
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan

		logger.Info("shutting down server")
		cancel()
		jobWorker.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildFetchStrategies constructs the Fetch Strategy Manager's strategy list
// in the order configured by FETCH_STRATEGIES (default [direct, proxy]).
func buildFetchStrategies(cfg *config.Config, logger *slog.Logger) []fetch.Strategy {
	var strategies []fetch.Strategy
	for _, name := range cfg.FetchStrategies {
		switch name {
		case fetch.StrategyDirect:
			strategies = append(strategies, fetch.NewDirectStrategy(logger, cfg.FetchTimeout))
		case fetch.StrategyProxy:
			strategies = append(strategies, fetch.NewProxyStrategy(cfg.ProxyAPIURL, cfg.ProxyAPIAuthUser, cfg.ProxyAPIKey, cfg.FetchTimeout))
		default:
			logger.Warn("unknown fetch strategy configured, skipping", "strategy", name)
		}
	}
	return strategies
}
