// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPipelineRun(t *testing.T) {
	before := testutil.ToFloat64(PipelineRuns.WithLabelValues("score"))
	RecordPipelineRun("score", 120, 3*time.Millisecond)
	after := testutil.ToFloat64(PipelineRuns.WithLabelValues("score"))

	if after != before+1 {
		t.Errorf("PipelineRuns = %v, want %v", after, before+1)
	}
}

func TestRecordCatalogFetchOutcomes(t *testing.T) {
	before := testutil.ToFloat64(CatalogFetches.WithLabelValues("breaker_open"))
	RecordCatalogFetch("breaker_open", 0)
	after := testutil.ToFloat64(CatalogFetches.WithLabelValues("breaker_open"))

	if after != before+1 {
		t.Errorf("CatalogFetches = %v, want %v", after, before+1)
	}
}

func TestRecordBookingDispatch(t *testing.T) {
	okBefore := testutil.ToFloat64(BookingsDispatched.WithLabelValues("service"))
	errBefore := testutil.ToFloat64(BookingDispatchErrors)

	RecordBookingDispatch("service", nil)
	RecordBookingDispatch("service", errors.New("publish failed"))

	if got := testutil.ToFloat64(BookingsDispatched.WithLabelValues("service")); got != okBefore+1 {
		t.Errorf("BookingsDispatched = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(BookingDispatchErrors); got != errBefore+1 {
		t.Errorf("BookingDispatchErrors = %v, want %v", got, errBefore+1)
	}
}
