// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aisleplan/aisleplan/internal/metrics"
)

// PrometheusMetrics instruments each request: in-flight gauge, per-endpoint
// request counter with status code, and a latency histogram.
//
// The endpoint label uses the route pattern passed by the router, not the raw
// URL path, to keep metric cardinality bounded.
func PrometheusMetrics(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIActiveRequests.Inc()
			defer metrics.APIActiveRequests.Dec()

			start := time.Now()
			ww := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			metrics.APIRequestsTotal.WithLabelValues(
				r.Method, endpoint, strconv.Itoa(ww.statusCode)).Inc()
			metrics.APIRequestDuration.WithLabelValues(
				r.Method, endpoint).Observe(time.Since(start).Seconds())
		})
	}
}
