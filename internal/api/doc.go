// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

/*
Package api provides the HTTP surface of the recommendation service.

All endpoints share a standardized response envelope (see response.go) and
request validation through go-playground/validator tags (see requests.go).
Routing uses Chi with the production middleware stack: request IDs,
structured request logging, CORS, per-client rate limiting, and Prometheus
instrumentation.

Endpoints:

	POST /api/v1/recommendations          full recommendation set
	GET  /api/v1/recommendations/packages package suggestions only
	GET  /api/v1/recommendations/insights budget analysis and insights only
	POST /api/v1/bookings/service/{serviceID}
	POST /api/v1/bookings/package
	GET  /api/v1/catalog/services         current normalized catalog (paged)
	GET  /healthz
	GET  /metrics
*/
package api
