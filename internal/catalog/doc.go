// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

/*
Package catalog fetches and maintains the vendor service catalog consumed by
the recommendation engine.

The package is layered:

  - Client performs the raw HTTP fetch against the marketplace catalog API,
    with request pacing, exponential backoff on rate limiting, and
    normalization of loosely-typed upstream records.
  - BreakerClient wraps any Fetcher with a circuit breaker so a degraded
    upstream cannot cascade into the request path.
  - SnapshotStore persists the last good catalog to disk so a restart can
    serve recommendations before the first successful fetch.
  - Manager ties these together: it caches the current snapshot for a
    configurable TTL, serves stale data when the upstream is unavailable,
    and derives a content-addressed catalog version used as part of the
    engine's memoization key.
  - Refresher is a supervised background service re-fetching the catalog on
    an interval.
*/
package catalog
