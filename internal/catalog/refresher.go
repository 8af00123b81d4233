// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package catalog

import (
	"context"
	"time"

	"github.com/aisleplan/aisleplan/internal/logging"
)

// Refresher re-fetches the catalog on a fixed interval so request-path
// refreshes stay rare. It implements suture.Service and is run under the
// messaging supervisor subtree.
type Refresher struct {
	manager  *Manager
	interval time.Duration
}

// NewRefresher creates a background refresher for manager.
func NewRefresher(manager *Manager, interval time.Duration) *Refresher {
	return &Refresher{
		manager:  manager,
		interval: interval,
	}
}

// Serve implements suture.Service interface.
// Refreshes once immediately, then on each tick until the context is
// canceled. Individual refresh failures are logged, not fatal: the manager
// keeps serving its last snapshot and the next tick retries.
func (r *Refresher) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", r.interval).
		Msg("Starting catalog refresher")

	if err := r.manager.Refresh(ctx); err != nil {
		logging.Warn().Err(err).Msg("Initial catalog refresh failed")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.manager.Refresh(ctx); err != nil {
				logging.Warn().Err(err).Msg("Scheduled catalog refresh failed")
			}
		case <-ctx.Done():
			logging.Info().Msg("Catalog refresher stopped")
			return ctx.Err()
		}
	}
}

// String names the service in supervisor logs.
func (r *Refresher) String() string {
	return "catalog-refresher"
}
