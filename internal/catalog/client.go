// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/aisleplan/aisleplan/internal/config"
	"github.com/aisleplan/aisleplan/internal/recommend"
)

// Fetcher retrieves the current vendor service catalog. Both Client and
// BreakerClient implement this interface; Manager consumes it so tests can
// substitute fakes.
type Fetcher interface {
	FetchServices(ctx context.Context) ([]recommend.Service, error)
}

// Ensure Client implements Fetcher
var _ Fetcher = (*Client)(nil)

// serviceRecord is the loosely-typed wire shape of an upstream catalog
// record. Optional numeric fields are pointers so absent values can be
// distinguished from explicit zeros during normalization.
type serviceRecord struct {
	ID          string   `json:"id"`
	VendorID    string   `json:"vendor_id"`
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Rating      *float64 `json:"rating"`
	ReviewCount *int     `json:"review_count"`
	BasePrice   *float64 `json:"base_price"`
	PriceTier   string   `json:"price_tier"`
	Location    string   `json:"location"`
	Available   *bool    `json:"available"`
	Features    []string `json:"features"`
}

// Client fetches vendor service records from the marketplace catalog API.
//
// Features:
//   - Per-request timeout from CatalogConfig.Timeout
//   - Request pacing via a token-bucket rate limiter
//   - Automatic retry with exponential backoff on HTTP 429 and 5xx
//   - Normalization of loosely-typed records into recommend.Service
//
// Thread Safety: safe for concurrent use. Each request creates its own
// HTTP request; the rate limiter serializes upstream pressure.
type Client struct {
	baseURL        string
	apiKey         string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a catalog API client from the provided configuration.
func NewClient(cfg *config.CatalogConfig) *Client {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	return &Client{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     cfg.RetryAttempts,
		retryBaseDelay: cfg.RetryDelay,
	}
}

// FetchServices retrieves and normalizes the full catalog. Records without
// an ID are dropped; unknown categories map to CategoryOther.
func (c *Client) FetchServices(ctx context.Context) ([]recommend.Service, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("catalog rate limiter: %w", err)
	}

	reqURL := c.baseURL + "/services"

	resp, err := c.doRequestWithRetry(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("catalog request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var records []serviceRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	return normalizeRecords(records), nil
}

// doRequestWithRetry performs a GET with automatic retry on HTTP 429 and
// 5xx responses. Backoff doubles each attempt; a Retry-After header
// (RFC 6585) overrides the computed delay. The context cancels backoff
// waits.
func (c *Client) doRequestWithRetry(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create catalog request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("catalog request failed: %w", err)
		}

		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		// Will retry; the retryable response body carries nothing useful.
		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("catalog unavailable after %d retries (HTTP %d)", c.maxRetries, resp.StatusCode)
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// retryableStatus reports whether a response status warrants a retry.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// readBodyForError reads up to 1KB of a response body for error messages.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, 1024))
	if err != nil {
		return []byte("(unreadable body)")
	}
	return body
}

// normalizeRecords converts upstream records to the engine's explicit
// schema. Records without an ID are dropped; missing rating and review
// counts default to zero; a missing availability flag defaults to
// available, matching marketplace listing semantics.
func normalizeRecords(records []serviceRecord) []recommend.Service {
	services := make([]recommend.Service, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}

		svc := recommend.Service{
			ID:       rec.ID,
			VendorID: rec.VendorID,
			Category: recommend.ParseCategory(rec.Category),
			Name:     rec.Name,
			Location: rec.Location,
			Features: rec.Features,

			PriceTier: parsePriceTier(rec.PriceTier),
			Available: true,
		}
		if rec.Rating != nil {
			svc.Rating = *rec.Rating
		}
		if rec.ReviewCount != nil {
			svc.ReviewCount = *rec.ReviewCount
		}
		if rec.BasePrice != nil {
			svc.BasePrice = *rec.BasePrice
		}
		if rec.Available != nil {
			svc.Available = *rec.Available
		}

		services = append(services, svc)
	}
	return services
}

// parsePriceTier validates an upstream price tier string. Unknown values
// return the empty tier so cost estimation falls back to the default.
func parsePriceTier(s string) recommend.PriceTier {
	switch recommend.PriceTier(s) {
	case recommend.PriceTierBudget, recommend.PriceTierModerate,
		recommend.PriceTierPremium, recommend.PriceTierLuxury:
		return recommend.PriceTier(s)
	default:
		return ""
	}
}
