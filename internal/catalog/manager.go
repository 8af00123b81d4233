// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/aisleplan/aisleplan/internal/metrics"
	"github.com/aisleplan/aisleplan/internal/recommend"
)

// ErrCatalogUnavailable is returned by Services when no fetch has ever
// succeeded and no persisted snapshot exists.
var ErrCatalogUnavailable = errors.New("catalog unavailable and no snapshot to serve")

// Persister abstracts snapshot persistence so the Manager can run without a
// disk store and tests can substitute fakes. SnapshotStore implements it.
type Persister interface {
	Save(snap *Snapshot) error
	Load() (*Snapshot, error)
}

// Ensure SnapshotStore implements Persister
var _ Persister = (*SnapshotStore)(nil)

// Manager owns the current catalog snapshot. It refreshes through a Fetcher,
// serves the cached snapshot while it is fresh, falls back to stale data when
// the upstream is unavailable, and persists each good snapshot.
//
// The catalog version is content-addressed: a hash of the normalized
// services. Two fetches returning identical catalogs share a version, so the
// engine's memoized results stay valid across refreshes that change nothing.
type Manager struct {
	fetcher Fetcher
	store   Persister // nil disables persistence
	ttl     time.Duration
	logger  zerolog.Logger
	clock   func() time.Time

	mu        sync.RWMutex
	services  []recommend.Service
	version   string
	fetchedAt time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock replaces the manager's time source. Used by tests to control
// snapshot freshness.
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager creates a catalog manager. store may be nil to disable
// persistence. If a persisted snapshot exists it is loaded immediately so
// the manager can serve before the first upstream fetch.
func NewManager(fetcher Fetcher, store Persister, ttl time.Duration, logger zerolog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		fetcher: fetcher,
		store:   store,
		ttl:     ttl,
		logger:  logger.With().Str("component", "catalog").Logger(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if store != nil {
		snap, err := store.Load()
		switch {
		case err == nil:
			m.services = snap.Services
			m.version = snap.Version
			m.fetchedAt = snap.FetchedAt
			m.logger.Info().
				Str("version", snap.Version).
				Int("services", len(snap.Services)).
				Time("fetched_at", snap.FetchedAt).
				Msg("Loaded persisted catalog snapshot")
			metrics.CatalogServices.Set(float64(len(snap.Services)))
		case errors.Is(err, ErrNoSnapshot):
			// First run, nothing to restore.
		default:
			m.logger.Warn().Err(err).Msg("Failed to load catalog snapshot")
		}
	}

	return m
}

// Services returns the current catalog and its version, refreshing first if
// the cached snapshot has expired. When a refresh fails but a previous
// snapshot exists, the stale snapshot is served instead of the error.
func (m *Manager) Services(ctx context.Context) ([]recommend.Service, string, error) {
	m.mu.RLock()
	fresh := m.services != nil && m.clock().Sub(m.fetchedAt) < m.ttl
	m.mu.RUnlock()

	if !fresh {
		if err := m.Refresh(ctx); err != nil {
			m.mu.RLock()
			stale := m.services != nil
			m.mu.RUnlock()

			if !stale {
				return nil, "", fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
			}

			metrics.CatalogStaleServes.Inc()
			m.logger.Warn().Err(err).Msg("Catalog refresh failed, serving stale snapshot")
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	services := make([]recommend.Service, len(m.services))
	copy(services, m.services)
	return services, m.version, nil
}

// Refresh fetches the catalog now and replaces the cached snapshot on
// success. The failed outcome is recorded in metrics, distinguishing an
// open circuit breaker from plain upstream errors.
func (m *Manager) Refresh(ctx context.Context) error {
	start := time.Now()
	services, err := m.fetcher.FetchServices(ctx)
	elapsed := time.Since(start)

	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "breaker_open"
		}
		metrics.RecordCatalogFetch(outcome, elapsed)
		return fmt.Errorf("catalog fetch: %w", err)
	}
	metrics.RecordCatalogFetch("success", elapsed)

	version := versionOf(services)
	now := m.clock()

	m.mu.Lock()
	changed := version != m.version
	m.services = services
	m.version = version
	m.fetchedAt = now
	m.mu.Unlock()

	metrics.CatalogServices.Set(float64(len(services)))
	metrics.CatalogLastRefresh.Set(float64(now.Unix()))

	m.logger.Info().
		Str("version", version).
		Int("services", len(services)).
		Bool("changed", changed).
		Dur("elapsed", elapsed).
		Msg("Catalog refreshed")

	if m.store != nil {
		snap := &Snapshot{Services: services, Version: version, FetchedAt: now}
		if err := m.store.Save(snap); err != nil {
			// Persistence is best effort; the in-memory snapshot is current.
			m.logger.Warn().Err(err).Msg("Failed to persist catalog snapshot")
		}
	}

	return nil
}

// Version returns the current catalog version, or empty before any
// snapshot exists.
func (m *Manager) Version() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Size returns the number of services in the current snapshot.
func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.services)
}

// versionOf derives a content-addressed version for a normalized catalog.
func versionOf(services []recommend.Service) string {
	data, err := json.Marshal(services)
	if err != nil {
		// Service marshaling cannot fail; fall back to a size marker.
		return fmt.Sprintf("size-%d", len(services))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}
