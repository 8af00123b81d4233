// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package recommend

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Engine runs the full decision-support pipeline: normalize criteria, score
// the catalog, rank and filter, compose packages, derive budget analysis and
// insights.
//
// The pipeline is a deterministic, side-effect-free function of
// (catalog, criteria, now). Because it is pure, results are memoized by
// (catalog version, criteria hash) with a bounded TTL; callers invoking the
// engine on every keystroke are expected to debounce, not the engine.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	scorer   Scorer
	composer Composer
	analyzer Analyzer

	// clock supplies "now" for seasonal scoring; injectable for
	// deterministic tests.
	clock func() time.Time

	cache   map[string]cacheEntry
	cacheMu sync.RWMutex

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
}

// cacheEntry holds a memoized recommendation set.
type cacheEntry struct {
	set       *RecommendationSet
	expiresAt time.Time
}

// Request carries one pipeline invocation. The catalog is read-only input
// owned by the caller; CatalogVersion participates in the memoization key so
// a refreshed catalog never serves stale results.
type Request struct {
	Catalog        []Service
	CatalogVersion string
	Criteria       RawCriteria
	SortKey        SortKey
	Limit          int
	RequestID      string
}

// Metrics is a snapshot of engine counters.
type Metrics struct {
	Requests    int64 `json:"requests"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Seasonal scoring and trend
// insights read "now" exclusively through this clock.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// NewEngine creates an engine from a validated config and its pipeline
// stages.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, scorer Scorer, composer Composer, analyzer Analyzer, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if composer == nil {
		return nil, fmt.Errorf("composer is required")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}

	e := &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		scorer:   scorer,
		composer: composer,
		analyzer: analyzer,
		clock:    time.Now,
		cache:    make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine's constant table.
func (e *Engine) Config() *Config { return e.config }

// Recommend runs the pipeline. It degrades rather than fails: an empty
// catalog produces an empty set; malformed services are depressed by
// scoring, never rejected here. No stage can block, time out or be
// cancelled, so there is no context parameter and no error return.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(req Request) *RecommendationSet {
	start := e.clock()
	e.requestCount.Add(1)

	if !req.SortKey.Valid() {
		req.SortKey = SortByScore
	}

	crit := e.config.Normalize(req.Criteria)

	key := e.cacheKey(req, crit)
	if set := e.cached(key); set != nil {
		e.cacheHits.Add(1)
		out := *set
		out.Metadata.RequestID = req.RequestID
		out.Metadata.CacheHit = true
		out.Metadata.LatencyMS = e.clock().Sub(start).Milliseconds()
		e.logger.Debug().Str("request_id", req.RequestID).Msg("recommendation cache hit")
		return &out
	}
	e.cacheMisses.Add(1)

	set := e.run(req, crit, start)
	e.store(key, set)

	e.logger.Debug().
		Str("request_id", req.RequestID).
		Int("catalog", len(req.Catalog)).
		Int("ranked", len(set.Ranked)).
		Int("packages", len(set.Packages)).
		Int64("latency_ms", set.Metadata.LatencyMS).
		Msg("recommendation complete")
	return set
}

// run executes the five pipeline stages top to bottom.
func (e *Engine) run(req Request, crit Criteria, start time.Time) *RecommendationSet {
	now := e.clock()

	scored := make([]ScoredRecommendation, 0, len(req.Catalog))
	for _, svc := range req.Catalog {
		if svc.ID == "" {
			// Contract violation by the caller; the API boundary validates
			// IDs, so the pipeline just skips rather than failing.
			e.logger.Warn().Str("vendor_id", svc.VendorID).Msg("service without id skipped")
			continue
		}
		scored = append(scored, e.scorer.Score(svc, crit, now))
	}

	ranked := e.config.Rank(scored, crit, req.SortKey)
	if req.Limit > 0 && req.Limit < len(ranked) {
		ranked = ranked[:req.Limit]
	}

	packages := e.composer.Compose(ranked, crit)
	budget := e.analyzer.AnalyzeBudget(ranked, crit.Budget)
	insights := e.analyzer.DeriveInsights(ranked, packages, crit, now)

	return &RecommendationSet{
		Criteria: crit,
		Ranked:   ranked,
		Packages: packages,
		Budget:   budget,
		Insights: insights,
		Metadata: SetMetadata{
			RequestID:      req.RequestID,
			CatalogVersion: req.CatalogVersion,
			CatalogSize:    len(req.Catalog),
			GeneratedAt:    now,
			LatencyMS:      e.clock().Sub(start).Milliseconds(),
			SortKey:        req.SortKey,
		},
	}
}

// Metrics returns a snapshot of the engine counters.
func (e *Engine) Metrics() Metrics {
	return Metrics{
		Requests:    e.requestCount.Load(),
		CacheHits:   e.cacheHits.Load(),
		CacheMisses: e.cacheMisses.Load(),
	}
}

// InvalidateCache drops all memoized results, e.g. after a config reload.
func (e *Engine) InvalidateCache() {
	e.cacheMu.Lock()
	e.cache = make(map[string]cacheEntry)
	e.cacheMu.Unlock()
}

// cacheKey hashes the inputs that determine pipeline output. RequestID is
// excluded: it only annotates metadata.
func (e *Engine) cacheKey(req Request, crit Criteria) string {
	payload, err := json.Marshal(struct {
		Version string   `json:"version"`
		Sort    SortKey  `json:"sort"`
		Limit   int      `json:"limit"`
		Crit    Criteria `json:"criteria"`
	}{req.CatalogVersion, req.SortKey, req.Limit, crit})
	if err != nil {
		// Criteria is plain data; marshal cannot realistically fail. Fall
		// back to an uncacheable key.
		return ""
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%x", sum)
}

func (e *Engine) cached(key string) *RecommendationSet {
	if key == "" || e.config.CacheTTL <= 0 {
		return nil
	}
	e.cacheMu.RLock()
	entry, ok := e.cache[key]
	e.cacheMu.RUnlock()
	if !ok || e.clock().After(entry.expiresAt) {
		return nil
	}
	return entry.set
}

func (e *Engine) store(key string, set *RecommendationSet) {
	if key == "" || e.config.CacheTTL <= 0 {
		return
	}
	now := e.clock()
	e.cacheMu.Lock()
	if len(e.cache) >= e.config.CacheMaxEntries {
		e.sweepLocked(now)
	}
	e.cache[key] = cacheEntry{set: set, expiresAt: now.Add(e.config.CacheTTL)}
	e.cacheMu.Unlock()
}

// sweepLocked drops expired entries; if the map is still full afterwards it
// is reset outright. Keys vary with every keystroke of the criteria form, so
// the map cannot be allowed to grow with request history.
func (e *Engine) sweepLocked(now time.Time) {
	for k, entry := range e.cache {
		if now.After(entry.expiresAt) {
			delete(e.cache, k)
		}
	}
	if len(e.cache) >= e.config.CacheMaxEntries {
		e.cache = make(map[string]cacheEntry)
	}
}
