// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aisleplan/aisleplan/internal/config"
	"github.com/aisleplan/aisleplan/internal/middleware"
)

// NewRouter builds the full route tree with the production middleware
// stack: request IDs, structured request logging, panic recovery, CORS,
// per-client rate limiting, and Prometheus instrumentation.
func NewRouter(handler *Handler, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogging())
	// CORS must be global to handle OPTIONS preflight.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		if !cfg.RateLimitDisabled {
			r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		}

		r.Route("/recommendations", func(r chi.Router) {
			r.Use(middleware.PrometheusMetrics("/api/v1/recommendations"))
			r.Post("/", handler.Recommendations)
			r.Get("/packages", handler.Packages)
			r.Get("/insights", handler.Insights)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(middleware.PrometheusMetrics("/api/v1/bookings"))
			r.Post("/service/{serviceID}", handler.BookService)
			r.Post("/package", handler.BookPackage)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Use(middleware.PrometheusMetrics("/api/v1/catalog"))
			r.Get("/services", handler.CatalogServices)
		})
	})

	// Health and metrics bypass rate limiting so monitoring stays reliable
	// under load.
	r.Get("/healthz", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
