// Package main is the entrypoint for the issue tracking API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexpeters0n/sentry/internal/api"
	"github.com/alexpeters0n/sentry/internal/api/handler"
	mw "github.com/alexpeters0n/sentry/internal/api/middleware"
	"github.com/alexpeters0n/sentry/internal/api/response"
	"github.com/alexpeters0n/sentry/internal/cache"
	"github.com/alexpeters0n/sentry/internal/config"
	"github.com/alexpeters0n/sentry/internal/eventstore"
	"github.com/alexpeters0n/sentry/internal/issues"
	"github.com/alexpeters0n/sentry/internal/store"
	"github.com/alexpeters0n/sentry/internal/tagstore"
	"github.com/alexpeters0n/sentry/internal/teams"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create event and tag store clients
	eventClient := eventstore.NewHTTPClient(cfg.EventStore.BaseURL, cfg.EventStore.Timeout)
	if err := eventClient.Ready(ctx); err != nil {
		slog.Warn("event store not ready", "error", err)
	}
	tagClient := tagstore.NewHTTPClient(cfg.TagStore.BaseURL, cfg.TagStore.Timeout)
	slog.Info("event store client initialized", "base_url", cfg.EventStore.BaseURL)

	// 6. Create store and services
	pgStore := store.NewPostgresStore(pool)

	issueService := issues.NewService(pgStore, redisCache, eventClient, tagClient, nil,
		slog.Default(), cfg.Redis.GroupCacheTTL)
	teamService := teams.NewService(pgStore, &teams.LogNotifier{Logger: slog.Default()}, slog.Default())

	// 7. Build router with dependencies
	auth := mw.NewAuth(pgStore)
	rateLimit := mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMin)

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		HealthHandler: healthHandler(pgStore, redisCache),

		ListTeamsHandler:  handler.NewListTeamsHandler(pgStore, teamService),
		CreateTeamHandler: handler.NewCreateTeamHandler(pgStore, teamService),

		ShortIDLookupHandler: handler.NewShortIDLookupHandler(pgStore, issueService),
		EventIDLookupHandler: handler.NewEventIDLookupHandler(pgStore, issueService),
		GetIssueHandler:      handler.NewGetIssueHandler(issueService, pgStore),
		SharedGroupHandler:   handler.NewSharedGroupHandler(issueService),
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
