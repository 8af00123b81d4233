// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

// HTTP request structs with go-playground/validator tags. Validation here is
// syntactic only: the criteria normalizer corrects out-of-range values, so
// tags reject shapes the pipeline cannot interpret, not unusual inputs.

package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aisleplan/aisleplan/internal/recommend"
)

// dateOnly and RFC3339 are both accepted for wedding dates; couples usually
// know the day, not the hour.
const dateOnlyFormat = "2006-01-02"

// RecommendationsRequest carries the couple's raw criteria, either as a POST
// body or decoded from query parameters on the GET sub-resources.
type RecommendationsRequest struct {
	Budget             float64  `json:"budget" validate:"omitempty,gte=0"`
	Location           string   `json:"location" validate:"omitempty,max=120"`
	PriorityCategories []string `json:"priority_categories" validate:"omitempty,max=10,dive,category"`
	GuestCount         int      `json:"guest_count" validate:"omitempty,gte=0,lte=5000"`
	WeddingDate        string   `json:"wedding_date" validate:"omitempty"`
	PriceMin           float64  `json:"price_min" validate:"omitempty,gte=0"`
	PriceMax           float64  `json:"price_max" validate:"omitempty,gte=0"`
	Sort               string   `json:"sort" validate:"omitempty,oneof=score price rating"`
	Limit              int      `json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// ToRawCriteria converts the request into the engine's input form.
// The wedding date must already have passed parseWeddingDate.
func (req *RecommendationsRequest) ToRawCriteria() recommend.RawCriteria {
	raw := recommend.RawCriteria{
		Budget:     req.Budget,
		Location:   req.Location,
		GuestCount: req.GuestCount,
		PriceMin:   req.PriceMin,
		PriceMax:   req.PriceMax,
	}
	for _, name := range req.PriorityCategories {
		raw.PriorityCategories = append(raw.PriorityCategories, recommend.ParseCategory(name))
	}
	if req.WeddingDate != "" {
		// Validated upstream; a parse failure here leaves the zero time and
		// the normalizer treats the date as unknown.
		raw.WeddingDate, _ = parseWeddingDate(req.WeddingDate)
	}
	return raw
}

// parseWeddingDate accepts a date-only value or full RFC3339 timestamp.
func parseWeddingDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateOnlyFormat, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("wedding_date must be YYYY-MM-DD or RFC3339: %w", err)
	}
	return t, nil
}

// recommendationsRequestFromQuery decodes the GET form of the criteria.
// Unparseable numeric parameters are reported rather than silently zeroed.
func recommendationsRequestFromQuery(get func(string) string) (*RecommendationsRequest, error) {
	req := &RecommendationsRequest{
		Location:    get("location"),
		WeddingDate: get("wedding_date"),
		Sort:        get("sort"),
	}

	var err error
	if req.Budget, err = parseFloatParam(get("budget"), "budget"); err != nil {
		return nil, err
	}
	if req.PriceMin, err = parseFloatParam(get("price_min"), "price_min"); err != nil {
		return nil, err
	}
	if req.PriceMax, err = parseFloatParam(get("price_max"), "price_max"); err != nil {
		return nil, err
	}
	if req.GuestCount, err = parseIntParam(get("guest_count"), "guest_count"); err != nil {
		return nil, err
	}
	if req.Limit, err = parseIntParam(get("limit"), "limit"); err != nil {
		return nil, err
	}

	if priorities := get("priorities"); priorities != "" {
		for _, name := range strings.Split(priorities, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.PriorityCategories = append(req.PriorityCategories, name)
			}
		}
	}

	return req, nil
}

func parseFloatParam(value, name string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return f, nil
}

func parseIntParam(value, name string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// BookServiceRequest is the body of POST /bookings/service/{serviceID}.
type BookServiceRequest struct {
	CoupleID string `json:"couple_id" validate:"required,min=1,max=64"`
}

// BookPackageRequest is the body of POST /bookings/package. ServiceIDs is
// the package's member services in the order they should be reserved.
type BookPackageRequest struct {
	CoupleID   string   `json:"couple_id" validate:"required,min=1,max=64"`
	Tier       string   `json:"tier" validate:"omitempty,oneof=essential standard premium luxury"`
	ServiceIDs []string `json:"service_ids" validate:"required,min=1,max=8,dive,required"`
}

// CatalogServicesRequest are the paging parameters of GET /catalog/services.
type CatalogServicesRequest struct {
	Limit  int `validate:"min=1,max=500"`
	Offset int `validate:"min=0"`
}
