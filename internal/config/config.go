// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

// Package config defines the application configuration and its layered
// loading: built-in defaults, an optional YAML file, then environment
// variables, each layer overriding the previous one.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/aisleplan/aisleplan/internal/logging"
	"github.com/aisleplan/aisleplan/internal/recommend"
)

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig     `koanf:"server"`
	Catalog CatalogConfig    `koanf:"catalog"`
	Engine  recommend.Config `koanf:"engine"`
	Booking BookingConfig    `koanf:"booking"`
	Logging logging.Config   `koanf:"logging"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed CORS origins. Empty means same-origin only.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// CatalogConfig holds the vendor catalog collaborator settings.
type CatalogConfig struct {
	// URL is the base URL of the marketplace catalog service.
	URL string `koanf:"url"`

	// APIKey authenticates catalog requests. Optional.
	APIKey string `koanf:"api_key"`

	// RefreshInterval is how often the background refresher re-fetches.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// Timeout bounds a single catalog fetch.
	Timeout time.Duration `koanf:"timeout"`

	// TTL is how long a fetched snapshot is considered fresh. A stale
	// snapshot is still served when the upstream is unavailable.
	TTL time.Duration `koanf:"ttl"`

	// RetryAttempts and RetryDelay control fetch retries before the
	// circuit breaker sees a failure.
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`

	// RateLimit is the maximum upstream fetches per second.
	RateLimit float64 `koanf:"rate_limit"`

	// SnapshotPath is the Badger directory for persisted snapshots, used to
	// serve a catalog immediately after restart. Empty disables persistence.
	SnapshotPath string `koanf:"snapshot_path"`
}

// BookingConfig holds the booking dispatcher settings.
type BookingConfig struct {
	// BufferSize is the in-process pub/sub channel depth.
	BufferSize int `koanf:"buffer_size"`

	// PublishTimeout bounds a single event publish.
	PublishTimeout time.Duration `koanf:"publish_timeout"`
}

// defaultConfig returns the built-in defaults, applied before the config
// file and environment layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8460,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Catalog: CatalogConfig{
			URL:             "",
			RefreshInterval: 10 * time.Minute,
			Timeout:         15 * time.Second,
			TTL:             30 * time.Minute,
			RetryAttempts:   3,
			RetryDelay:      2 * time.Second,
			RateLimit:       5,
			SnapshotPath:    "/data/catalog",
		},
		Engine: *recommend.DefaultConfig(),
		Booking: BookingConfig{
			BufferSize:     256,
			PublishTimeout: 5 * time.Second,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for values that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs <= 0 {
			return fmt.Errorf("server.rate_limit_reqs must be positive")
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("server.rate_limit_window must be positive")
		}
	}

	if c.Catalog.URL != "" {
		u, err := url.Parse(c.Catalog.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("catalog.url %q is not a valid http(s) URL", c.Catalog.URL)
		}
	}
	if c.Catalog.RefreshInterval <= 0 {
		return fmt.Errorf("catalog.refresh_interval must be positive")
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("catalog.timeout must be positive")
	}
	if c.Catalog.TTL <= 0 {
		return fmt.Errorf("catalog.ttl must be positive")
	}
	if c.Catalog.RetryAttempts < 0 {
		return fmt.Errorf("catalog.retry_attempts must not be negative")
	}
	if c.Catalog.RateLimit <= 0 {
		return fmt.Errorf("catalog.rate_limit must be positive")
	}

	if c.Booking.BufferSize <= 0 {
		return fmt.Errorf("booking.buffer_size must be positive")
	}
	if c.Booking.PublishTimeout <= 0 {
		return fmt.Errorf("booking.publish_timeout must be positive")
	}

	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// Addr returns the server's host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
