// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/aisleplan/aisleplan/internal/cache"
	"github.com/aisleplan/aisleplan/internal/logging"
	"github.com/aisleplan/aisleplan/internal/metrics"
	"github.com/aisleplan/aisleplan/internal/recommend"
	"github.com/aisleplan/aisleplan/internal/validation"
)

// CatalogSource supplies the current normalized catalog and its version.
// Implemented by catalog.Manager.
type CatalogSource interface {
	Services(ctx context.Context) ([]recommend.Service, string, error)
	Version() string
}

// Booker dispatches booking requests to the external booking workflow.
// Implemented by booking.Dispatcher.
type Booker interface {
	DispatchService(ctx context.Context, requestID, coupleID, serviceID string) error
	DispatchPackage(ctx context.Context, requestID, coupleID string, tier recommend.PackageTier, serviceIDs []string) error
}

// Handler holds the dependencies of all HTTP endpoints.
type Handler struct {
	engine  *recommend.Engine
	catalog CatalogSource
	booker  Booker

	// responseCache holds rendered GET payloads, keyed by query string and
	// catalog version. Nil disables response caching.
	responseCache *cache.Cache
}

// NewHandler creates an API handler.
func NewHandler(engine *recommend.Engine, catalog CatalogSource, booker Booker, responseCache *cache.Cache) *Handler {
	return &Handler{
		engine:        engine,
		catalog:       catalog,
		booker:        booker,
		responseCache: responseCache,
	}
}

// cachedResponse looks up a rendered payload for the given endpoint and raw
// query under the current catalog version.
func (h *Handler) cachedResponse(name, rawQuery string) (string, interface{}, bool) {
	if h.responseCache == nil {
		return "", nil, false
	}
	key := cache.GenerateKey(name, map[string]string{
		"query":   rawQuery,
		"version": h.catalog.Version(),
	})
	data, found := h.responseCache.Get(key)
	return key, data, found
}

// Recommendations handles POST /api/v1/recommendations.
// Body: raw criteria plus optional sort key and limit. Returns the full
// recommendation set: ranked services, packages, budget analysis, insights.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RecommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Request body must be valid JSON")
		return
	}

	set, ok := h.recommend(rw, r, &req)
	if !ok {
		return
	}
	rw.Success(set)
}

// Packages handles GET /api/v1/recommendations/packages.
// Criteria arrive as query parameters; only package suggestions are
// returned.
func (h *Handler) Packages(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	cacheKey, cached, found := h.cachedResponse("recommendations:packages", r.URL.RawQuery)
	if found {
		rw.Success(cached)
		return
	}

	req, err := recommendationsRequestFromQuery(r.URL.Query().Get)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	set, ok := h.recommend(rw, r, req)
	if !ok {
		return
	}
	payload := map[string]interface{}{
		"packages": set.Packages,
		"metadata": set.Metadata,
	}
	if h.responseCache != nil {
		h.responseCache.Set(cacheKey, payload)
	}
	rw.Success(payload)
}

// Insights handles GET /api/v1/recommendations/insights.
// Returns the budget analysis and derived insights without the ranked list.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	cacheKey, cached, found := h.cachedResponse("recommendations:insights", r.URL.RawQuery)
	if found {
		rw.Success(cached)
		return
	}

	req, err := recommendationsRequestFromQuery(r.URL.Query().Get)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	set, ok := h.recommend(rw, r, req)
	if !ok {
		return
	}
	payload := map[string]interface{}{
		"budget_analysis": set.Budget,
		"insights":        set.Insights,
		"metadata":        set.Metadata,
	}
	if h.responseCache != nil {
		h.responseCache.Set(cacheKey, payload)
	}
	rw.Success(payload)
}

// recommend validates the request, loads the catalog, and runs the engine.
// On failure it writes the error response and reports ok=false.
func (h *Handler) recommend(rw *ResponseWriter, r *http.Request, req *RecommendationsRequest) (*recommend.RecommendationSet, bool) {
	if verr := validation.ValidateStruct(req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return nil, false
	}
	if req.WeddingDate != "" {
		if _, err := parseWeddingDate(req.WeddingDate); err != nil {
			rw.BadRequest(err.Error())
			return nil, false
		}
	}

	services, version, err := h.catalog.Services(r.Context())
	if err != nil {
		rw.CatalogError(err)
		return nil, false
	}

	set := h.engine.Recommend(recommend.Request{
		Catalog:        services,
		CatalogVersion: version,
		Criteria:       req.ToRawCriteria(),
		SortKey:        recommend.SortKey(req.Sort),
		Limit:          req.Limit,
		RequestID:      logging.RequestIDFromContext(r.Context()),
	})
	metrics.RecordPipelineRun(string(set.Metadata.SortKey), set.Metadata.CatalogSize,
		time.Duration(set.Metadata.LatencyMS)*time.Millisecond)
	return set, true
}

// BookService handles POST /api/v1/bookings/service/{serviceID}.
// Verifies the service exists in the current catalog, then hands the
// booking to the dispatcher.
func (h *Handler) BookService(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	serviceID := chi.URLParam(r, "serviceID")
	if serviceID == "" {
		rw.BadRequest("Service ID is required")
		return
	}

	var req BookServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Request body must be valid JSON")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	services, _, err := h.catalog.Services(r.Context())
	if err != nil {
		rw.CatalogError(err)
		return
	}
	if !containsService(services, serviceID) {
		rw.NotFound("Unknown service: " + serviceID)
		return
	}

	requestID := logging.RequestIDFromContext(r.Context())
	if err := h.booker.DispatchService(r.Context(), requestID, req.CoupleID, serviceID); err != nil {
		rw.BookingError(err)
		return
	}

	rw.Accepted(map[string]interface{}{
		"request_id": requestID,
		"service_id": serviceID,
	})
}

// BookPackage handles POST /api/v1/bookings/package.
// The body carries the package's member service IDs in reservation order.
func (h *Handler) BookPackage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req BookPackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Request body must be valid JSON")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	requestID := logging.RequestIDFromContext(r.Context())
	err := h.booker.DispatchPackage(r.Context(), requestID, req.CoupleID,
		recommend.PackageTier(req.Tier), req.ServiceIDs)
	if err != nil {
		rw.BookingError(err)
		return
	}

	rw.Accepted(map[string]interface{}{
		"request_id":  requestID,
		"service_ids": req.ServiceIDs,
	})
}

// CatalogServices handles GET /api/v1/catalog/services with paging.
func (h *Handler) CatalogServices(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, err := parseIntParam(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	offset, err := parseIntParam(r.URL.Query().Get("offset"), "offset")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if limit == 0 {
		limit = 100
	}

	req := CatalogServicesRequest{Limit: limit, Offset: offset}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	services, version, err := h.catalog.Services(r.Context())
	if err != nil {
		rw.CatalogError(err)
		return
	}

	total := len(services)
	page := services[min(offset, total):min(offset+limit, total)]

	rw.SuccessWithMeta(map[string]interface{}{
		"services":        page,
		"catalog_version": version,
	}, &APIMeta{
		Pagination: &PaginationMeta{
			Total:   total,
			Count:   len(page),
			Offset:  offset,
			Limit:   limit,
			HasMore: offset+limit < total,
		},
	})
}

// Health handles GET /healthz.
// Reports degraded rather than failing when the catalog cannot be served;
// the engine itself has no failure modes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	services, version, err := h.catalog.Services(r.Context())
	status := "ok"
	if err != nil {
		status = "degraded"
	}

	rw.Success(map[string]interface{}{
		"status":          status,
		"catalog_version": version,
		"catalog_size":    len(services),
	})
}

func containsService(services []recommend.Service, id string) bool {
	for i := range services {
		if services[i].ID == id {
			return true
		}
	}
	return false
}
