// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

// Package main is the Aisleplan recommendation server.
//
// The server wires the recommendation engine, catalog layer, and booking
// dispatcher together under a supervisor tree and exposes them over HTTP:
//
//	POST /api/v1/recommendations          ranked service recommendations
//	GET  /api/v1/recommendations/packages composed package suggestions
//	GET  /api/v1/recommendations/insights budget and market insights
//	POST /api/v1/bookings/service/{id}    dispatch a service booking request
//	POST /api/v1/bookings/package         dispatch a package booking request
//	GET  /api/v1/catalog/services         paged catalog listing
//	GET  /healthz                         liveness and catalog freshness
//	GET  /metrics                         Prometheus metrics
//
// Configuration is read from a YAML file (CONFIG_PATH, or config.yaml in
// the working directory) with environment variable overrides such as
// HTTP_PORT, CATALOG_URL, and LOG_LEVEL; see internal/config.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aisleplan/aisleplan/internal/api"
	"github.com/aisleplan/aisleplan/internal/booking"
	"github.com/aisleplan/aisleplan/internal/cache"
	"github.com/aisleplan/aisleplan/internal/catalog"
	"github.com/aisleplan/aisleplan/internal/config"
	"github.com/aisleplan/aisleplan/internal/logging"
	"github.com/aisleplan/aisleplan/internal/recommend"
	"github.com/aisleplan/aisleplan/internal/recommend/composer"
	"github.com/aisleplan/aisleplan/internal/recommend/insights"
	"github.com/aisleplan/aisleplan/internal/recommend/scoring"
	"github.com/aisleplan/aisleplan/internal/supervisor"
	"github.com/aisleplan/aisleplan/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Aisleplan with supervisor tree")
	logging.Info().
		Str("catalog_url", cfg.Catalog.URL).
		Str("snapshot_path", cfg.Catalog.SnapshotPath).
		Str("addr", cfg.Server.Addr()).
		Msg("Configuration loaded")

	// === RECOMMENDATION ENGINE ===

	engine, err := recommend.NewEngine(
		&cfg.Engine,
		scoring.New(&cfg.Engine),
		composer.New(&cfg.Engine),
		insights.New(&cfg.Engine),
		logging.Logger(),
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}
	logging.Info().
		Int("rank_limit", cfg.Engine.RankLimit).
		Dur("cache_ttl", cfg.Engine.CacheTTL).
		Msg("Recommendation engine initialized")

	// === CATALOG LAYER ===

	// Circuit breaker wraps the HTTP client so a failing catalog API
	// sheds load instead of stacking timeouts.
	fetcher := catalog.NewBreakerClient(catalog.NewClient(&cfg.Catalog))

	var store catalog.Persister
	if cfg.Catalog.SnapshotPath != "" {
		snapStore, err := catalog.OpenSnapshotStore(cfg.Catalog.SnapshotPath)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Catalog.SnapshotPath).
				Msg("Failed to open catalog snapshot store")
		}
		defer func() {
			if err := snapStore.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing catalog snapshot store")
			}
		}()
		store = snapStore
		logging.Info().Str("path", cfg.Catalog.SnapshotPath).Msg("Catalog snapshot store opened")
	} else {
		logging.Warn().Msg("Catalog snapshot persistence disabled (no snapshot path)")
	}

	manager := catalog.NewManager(fetcher, store, cfg.Catalog.TTL, logging.Logger())
	refresher := catalog.NewRefresher(manager, cfg.Catalog.RefreshInterval)

	// === BOOKING DISPATCH ===

	dispatcher := booking.NewDispatcher(&cfg.Booking, logging.Logger())
	defer func() {
		if err := dispatcher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing booking dispatcher")
		}
	}()
	auditor := booking.NewAuditor(dispatcher, logging.Logger())

	// === HTTP SERVER ===

	// Rendered GET payloads share the engine's cache TTL; keys carry the
	// catalog version so a refresh invalidates them naturally.
	responseCache := cache.New(cfg.Engine.CacheTTL)

	handler := api.NewHandler(engine, manager, dispatcher, responseCache)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, &cfg.Server),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	// === SUPERVISOR TREE ===

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	// Messaging layer: background refresh and booking audit
	tree.AddMessagingService(refresher)
	logging.Info().Dur("interval", cfg.Catalog.RefreshInterval).Msg("Catalog refresher added to supervisor tree")
	tree.AddMessagingService(auditor)
	logging.Info().Msg("Booking auditor added to supervisor tree")

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
