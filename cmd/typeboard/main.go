// Typeboard - MBTI lookup pages and a synthetic threat dashboard over HTTP.
// Copyright (c) 2026 The Typeboard Authors
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/typeboard/typeboard/internal/api"
	"github.com/typeboard/typeboard/internal/bus"
	"github.com/typeboard/typeboard/internal/cache"
	"github.com/typeboard/typeboard/internal/catalog"
	"github.com/typeboard/typeboard/internal/config"
	"github.com/typeboard/typeboard/internal/domain"
	"github.com/typeboard/typeboard/internal/incident"
	"github.com/typeboard/typeboard/internal/locale"
	"github.com/typeboard/typeboard/internal/query"
	"github.com/typeboard/typeboard/internal/repository"
	"github.com/typeboard/typeboard/internal/session"
	"github.com/typeboard/typeboard/internal/throttle"
	"github.com/typeboard/typeboard/internal/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg.Logging))

	slog.Info("starting typeboard",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"profile", cfg.Profile,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"seed", cfg.Dashboard.Seed,
	)

	if !cfg.Tracing.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
	} else {
		slog.Info("tracing enabled", "service", cfg.Tracing.ServiceName)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Catalog: embedded tables plus persisted overrides
	base, err := catalog.Default()
	if err != nil {
		slog.Error("failed to load embedded catalog", "error", err)
		os.Exit(1)
	}
	registry := catalog.NewRegistry(base)
	if err := registry.Reload(ctx, repo); err != nil {
		// serve the embedded tables; overrides arrive with the next reload
		slog.Warn("failed to load catalog overrides", "error", err)
	}

	compiler, err := query.NewCompiler()
	if err != nil {
		slog.Error("failed to initialize query compiler", "error", err)
		os.Exit(1)
	}

	// Warm the dataset so the first dashboard request does not pay for generation
	incidents := incident.NewStore()
	if ds, err := incidents.Get(ctx, cfg.Dashboard.Seed); err != nil {
		slog.Warn("failed to pre-generate incidents", "error", err)
	} else {
		slog.Info("incident dataset ready", "seed", ds.Seed(), "records", ds.Len())
	}

	reloader := worker.NewWorker(busImpl, repo, registry, nodeID())
	if err := reloader.Start(); err != nil {
		slog.Error("failed to start catalog worker", "error", err)
		os.Exit(1)
	}

	srv := api.NewServer(cfg.Server, api.Deps{
		Repo:      repo,
		Cache:     cacheImpl,
		Bus:       busImpl,
		Registry:  registry,
		Incidents: incidents,
		Seed:      cfg.Dashboard.Seed,
		Compiler:  compiler,
		Sessions:  session.NewStore(cacheImpl, cfg.Session.TTL),
		Exports:   throttle.NewLimiter(cacheImpl, "export", cfg.Dashboard.ExportLimit, cfg.Dashboard.ExportWindow),
		Locales:   locale.Default(),
		Origin:    reloader.Origin(),
		Version:   Version,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("typeboard is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"origin", reloader.Origin(),
	)

	printBanner(cfg, Version)

	<-ctx.Done()
	slog.Info("shutting down...")

	if err := reloader.Stop(); err != nil {
		slog.Error("failed to stop catalog worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("typeboard shutdown complete")
}

func newLogger(cfg domain.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// nodeID names this process on the event bus.
func nodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "typeboard"
	}
	return host + "-" + uuid.NewString()[:8]
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  TYPEBOARD")
	fmt.Println("  MBTI lookups and a threat dashboard")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Profile:  %s\n", cfg.Profile)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    GET  /pages                      - List lookup pages")
	fmt.Println("    GET  /pages/{page}               - Render the session's selection")
	fmt.Println("    PUT  /pages/{page}/selection     - Change the selection")
	fmt.Println("    GET  /rankings/base-stats        - Base stat leaderboard")
	fmt.Println("    GET  /dashboard                  - Threat dashboard")
	fmt.Println("    PUT  /dashboard/filters          - Set dashboard filters")
	fmt.Println("    POST /dashboard/query            - Apply a CEL filter")
	fmt.Println("    GET  /dashboard/export.csv       - Download the filtered view")
	fmt.Println("    PUT  /catalog/{table}/{category} - Store a catalog override")
	fmt.Println("    POST /catalog/reload             - Hot-reload the catalog")
	fmt.Println("    GET  /health                     - Health check")
	fmt.Println()
}
