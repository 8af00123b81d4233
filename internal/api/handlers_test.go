// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/aisleplan/aisleplan/internal/cache"
	"github.com/aisleplan/aisleplan/internal/recommend"
	"github.com/aisleplan/aisleplan/internal/recommend/composer"
	"github.com/aisleplan/aisleplan/internal/recommend/insights"
	"github.com/aisleplan/aisleplan/internal/recommend/scoring"
)

// stubCatalog implements CatalogSource.
type stubCatalog struct {
	services []recommend.Service
	version  string
	err      error
	calls    int
}

func (c *stubCatalog) Services(ctx context.Context) ([]recommend.Service, string, error) {
	c.calls++
	if c.err != nil {
		return nil, "", c.err
	}
	return c.services, c.version, nil
}

func (c *stubCatalog) Version() string { return c.version }

// stubBooker implements Booker and records dispatches.
type stubBooker struct {
	err        error
	kind       string
	coupleID   string
	tier       recommend.PackageTier
	serviceIDs []string
}

func (b *stubBooker) DispatchService(ctx context.Context, requestID, coupleID, serviceID string) error {
	if b.err != nil {
		return b.err
	}
	b.kind = "service"
	b.coupleID = coupleID
	b.serviceIDs = []string{serviceID}
	return nil
}

func (b *stubBooker) DispatchPackage(ctx context.Context, requestID, coupleID string, tier recommend.PackageTier, serviceIDs []string) error {
	if b.err != nil {
		return b.err
	}
	b.kind = "package"
	b.coupleID = coupleID
	b.tier = tier
	b.serviceIDs = serviceIDs
	return nil
}

func testServices() []recommend.Service {
	return []recommend.Service{
		{ID: "photo-1", VendorID: "v-1", Category: recommend.CategoryPhotography, Name: "Lens & Light", Rating: 4.9, ReviewCount: 150, BasePrice: 5000, Location: "Austin", Available: true},
		{ID: "venue-1", VendorID: "v-2", Category: recommend.CategoryVenue, Name: "Grand Hall", Rating: 4.7, ReviewCount: 320, BasePrice: 14000, Location: "Austin", Available: true},
		{ID: "cater-1", VendorID: "v-3", Category: recommend.CategoryCatering, Name: "Smoke & Oak", Rating: 4.5, ReviewCount: 210, BasePrice: 9000, Location: "Austin", Available: true},
		{ID: "music-1", VendorID: "v-4", Category: recommend.CategoryMusic, Name: "Night Owls", Rating: 4.4, ReviewCount: 95, BasePrice: 2200, Location: "Austin", Available: true},
	}
}

func newTestHandler(t *testing.T, catalog CatalogSource, booker Booker) *Handler {
	t.Helper()
	cfg := recommend.DefaultConfig()
	fixed := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)

	engine, err := recommend.NewEngine(cfg,
		scoring.New(cfg), composer.New(cfg), insights.New(cfg),
		zerolog.Nop(), recommend.WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return NewHandler(engine, catalog, booker, cache.New(time.Minute))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return resp
}

func TestRecommendationsHappyPath(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{services: testServices(), version: "cat-v1"}, &stubBooker{})

	body := `{"budget": 50000, "location": "Austin", "priority_categories": ["photography"], "guest_count": 120, "wedding_date": "2026-09-12"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Recommendations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if !resp.Success {
		t.Fatalf("success = false: %+v", resp.Error)
	}

	data, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("remarshal data: %v", err)
	}
	var set recommend.RecommendationSet
	if err := json.Unmarshal(data, &set); err != nil {
		t.Fatalf("decode recommendation set: %v", err)
	}
	if len(set.Ranked) == 0 {
		t.Error("expected ranked recommendations")
	}
	if set.Metadata.CatalogVersion != "cat-v1" {
		t.Errorf("catalog version = %q, want cat-v1", set.Metadata.CatalogVersion)
	}
}

func TestRecommendationsRejectsMalformedJSON(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{services: testServices()}, &stubBooker{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Recommendations(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Success || resp.Error == nil || resp.Error.Code != ErrCodeBadRequest {
		t.Errorf("unexpected envelope: %+v", resp)
	}
}

func TestRecommendationsValidation(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{services: testServices()}, &stubBooker{})

	tests := []struct {
		name string
		body string
	}{
		{"bad sort key", `{"sort": "alphabetical"}`},
		{"negative budget", `{"budget": -100}`},
		{"unknown priority category", `{"priority_categories": ["skydiving"]}`},
		{"limit too large", `{"limit": 500}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Recommendations(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			resp := decodeEnvelope(t, rec)
			if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
				t.Errorf("error = %+v, want %s", resp.Error, ErrCodeValidationFailed)
			}
		})
	}
}

func TestRecommendationsBadWeddingDate(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{services: testServices()}, &stubBooker{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations",
		strings.NewReader(`{"wedding_date": "next summer"}`))
	rec := httptest.NewRecorder()

	h.Recommendations(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRecommendationsCatalogUnavailable(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{err: errors.New("upstream down")}, &stubBooker{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Recommendations(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeCatalogUnavailable {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeCatalogUnavailable)
	}
}

func TestPackagesFromQueryParams(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{services: testServices(), version: "cat-v1"}, &stubBooker{})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/recommendations/packages?budget=50000&location=Austin&priorities=photography,venue&guest_count=120", nil)
	rec := httptest.NewRecorder()

	h.Packages(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	payload, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is %T, want object", resp.Data)
	}
	if _, ok := payload["packages"]; !ok {
		t.Error("payload missing packages")
	}
	if _, ok := payload["metadata"]; !ok {
		t.Error("payload missing metadata")
	}
}

func TestPackagesServesRepeatQueryFromCache(t *testing.T) {
	catalog := &stubCatalog{services: testServices(), version: "cat-v1"}
	h := newTestHandler(t, catalog, &stubBooker{})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/packages?budget=40000", nil)
		rec := httptest.NewRecorder()
		h.Packages(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, body %s", i, rec.Code, rec.Body.String())
		}
		resp := decodeEnvelope(t, rec)
		payload, ok := resp.Data.(map[string]interface{})
		if !ok {
			t.Fatalf("request %d: data is %T, want object", i, resp.Data)
		}
		if _, ok := payload["packages"]; !ok {
			t.Errorf("request %d: payload missing packages", i)
		}
	}

	// Version() answers the cache probe; the second request never reaches
	// the catalog or the engine.
	if catalog.calls != 1 {
		t.Errorf("catalog calls = %d, want 1", catalog.calls)
	}
}

func TestPackagesRejectsBadNumericParam(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{services: testServices()}, &stubBooker{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/packages?budget=plenty", nil)
	rec := httptest.NewRecorder()

	h.Packages(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestInsightsReturnsBudgetAndInsights(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{services: testServices(), version: "cat-v1"}, &stubBooker{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/insights?budget=50000", nil)
	rec := httptest.NewRecorder()

	h.Insights(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	payload, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is %T, want object", resp.Data)
	}
	if _, ok := payload["budget_analysis"]; !ok {
		t.Error("payload missing budget_analysis")
	}
	if _, ok := payload["insights"]; !ok {
		t.Error("payload missing insights")
	}
}

func TestCatalogServicesPaging(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{services: testServices(), version: "cat-v1"}, &stubBooker{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/services?limit=2&offset=1", nil)
	rec := httptest.NewRecorder()

	h.CatalogServices(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if resp.Meta == nil || resp.Meta.Pagination == nil {
		t.Fatal("expected pagination metadata")
	}
	p := resp.Meta.Pagination
	if p.Total != 4 || p.Count != 2 || p.Offset != 1 || !p.HasMore {
		t.Errorf("pagination = %+v", p)
	}
}

func TestCatalogServicesOffsetBeyondEnd(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{services: testServices()}, &stubBooker{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/services?offset=100", nil)
	rec := httptest.NewRecorder()

	h.CatalogServices(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if resp.Meta.Pagination.Count != 0 || resp.Meta.Pagination.HasMore {
		t.Errorf("pagination = %+v, want empty page", resp.Meta.Pagination)
	}
}

func TestHealthDegradedWithoutCatalog(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{err: errors.New("upstream down")}, &stubBooker{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	payload := resp.Data.(map[string]interface{})
	if payload["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", payload["status"])
	}
}

func TestBookPackageDispatchesOrderedMembers(t *testing.T) {
	booker := &stubBooker{}
	h := newTestHandler(t, &stubCatalog{services: testServices()}, booker)

	body, _ := json.Marshal(BookPackageRequest{
		CoupleID:   "couple-9",
		Tier:       "standard",
		ServiceIDs: []string{"venue-1", "photo-1", "cater-1"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/package", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.BookPackage(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if booker.kind != "package" || booker.tier != recommend.TierStandard {
		t.Errorf("dispatched kind=%q tier=%q", booker.kind, booker.tier)
	}
	want := []string{"venue-1", "photo-1", "cater-1"}
	for i, id := range want {
		if booker.serviceIDs[i] != id {
			t.Errorf("member %d = %q, want %q", i, booker.serviceIDs[i], id)
		}
	}
}

func TestBookPackageValidation(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{services: testServices()}, &stubBooker{})

	tests := []struct {
		name string
		body string
	}{
		{"missing couple", `{"service_ids": ["venue-1"]}`},
		{"empty members", `{"couple_id": "c", "service_ids": []}`},
		{"bad tier", `{"couple_id": "c", "tier": "platinum", "service_ids": ["venue-1"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/package", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.BookPackage(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestBookPackageDispatchFailure(t *testing.T) {
	h := newTestHandler(t, &stubCatalog{services: testServices()}, &stubBooker{err: errors.New("pubsub closed")})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/package",
		strings.NewReader(`{"couple_id": "c", "service_ids": ["venue-1"]}`))
	rec := httptest.NewRecorder()

	h.BookPackage(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeBookingFailed {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeBookingFailed)
	}
}
