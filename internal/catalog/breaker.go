// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package catalog

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/aisleplan/aisleplan/internal/logging"
	"github.com/aisleplan/aisleplan/internal/metrics"
	"github.com/aisleplan/aisleplan/internal/recommend"
)

// Ensure BreakerClient implements Fetcher
var _ Fetcher = (*BreakerClient)(nil)

// BreakerClient wraps a Fetcher with a circuit breaker so a degraded
// catalog upstream cannot cascade into the recommendation request path.
//
// DETERMINISM NOTE: the breaker uses real time (via sony/gobreaker) for its
// interval and timeout calculations. The timing governs recovery, not data
// integrity; unit tests should exercise the wrapped fetcher directly.
type BreakerClient struct {
	fetcher Fetcher
	cb      *gobreaker.CircuitBreaker[[]recommend.Service]
}

// NewBreakerClient wraps fetcher with a circuit breaker.
// Breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewBreakerClient(fetcher Fetcher) *BreakerClient {
	metrics.CatalogBreakerState.Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]recommend.Service](gobreaker.Settings{
		Name:        "catalog-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		// Opens when failure rate >= 60% with minimum 10 requests
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening catalog circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("[CIRCUIT BREAKER] State transition")

			metrics.CatalogBreakerState.Set(stateToFloat(to))
		},
	})

	return &BreakerClient{
		fetcher: fetcher,
		cb:      cb,
	}
}

// FetchServices fetches the catalog with circuit breaker protection.
// Returns gobreaker.ErrOpenState when the circuit is open.
func (b *BreakerClient) FetchServices(ctx context.Context) ([]recommend.Service, error) {
	return b.cb.Execute(func() ([]recommend.Service, error) {
		return b.fetcher.FetchServices(ctx)
	})
}

// stateToFloat converts circuit breaker state to a numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to a string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
