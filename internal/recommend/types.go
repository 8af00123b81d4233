// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package recommend

import (
	"time"
)

// Note: This package has no dependencies on other internal packages to keep
// the engine a pure computation over its inputs. The Scorer, Composer and
// Analyzer interfaces allow the scoring, composer and insights subpackages
// to be wired in from cmd/server without creating circular imports.

// Category identifies a wedding service category.
type Category string

const (
	CategoryPhotography Category = "photography"
	CategoryVenue       Category = "venue"
	CategoryCatering    Category = "catering"
	CategoryMusic       Category = "music"
	CategoryFlorals     Category = "florals"
	CategoryVideography Category = "videography"
	CategoryBeauty      Category = "beauty"
	CategoryTransport   Category = "transport"
	CategoryStationery  Category = "stationery"
	CategoryOther       Category = "other"
)

// Categories lists every known category in canonical order.
var Categories = []Category{
	CategoryPhotography,
	CategoryVenue,
	CategoryCatering,
	CategoryMusic,
	CategoryFlorals,
	CategoryVideography,
	CategoryBeauty,
	CategoryTransport,
	CategoryStationery,
	CategoryOther,
}

// ParseCategory maps a free-form category tag to a known Category.
// Unknown tags map to CategoryOther rather than failing.
func ParseCategory(s string) Category {
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryOther
}

// PriceTier is the coarse price band of a service when no base price is known.
type PriceTier string

const (
	PriceTierBudget   PriceTier = "$"
	PriceTierModerate PriceTier = "$$"
	PriceTierPremium  PriceTier = "$$$"
	PriceTierLuxury   PriceTier = "$$$$"
)

// Service is a single bookable offering from one vendor in one category.
// The catalog is owned by the caller and treated as read-only by the engine.
type Service struct {
	// ID is the unique service identifier. Required.
	ID string `json:"id"`

	// VendorID identifies the vendor offering this service.
	VendorID string `json:"vendor_id"`

	// Category is the service category tag.
	Category Category `json:"category"`

	// Name is the display name of the service.
	Name string `json:"name"`

	// Rating is the average review rating in [0, 5].
	Rating float64 `json:"rating"`

	// ReviewCount is the number of reviews (>= 0).
	ReviewCount int `json:"review_count"`

	// BasePrice is the listed price in currency units. Zero means unknown;
	// PriceTier is used as a fallback.
	BasePrice float64 `json:"base_price,omitempty"`

	// PriceTier is the coarse price band ($..$$$$) when BasePrice is absent.
	PriceTier PriceTier `json:"price_tier,omitempty"`

	// Location is free-text vendor location.
	Location string `json:"location"`

	// Available reports whether the service currently accepts bookings.
	Available bool `json:"available"`

	// Features lists offered features; the set size is used as a proxy for
	// service breadth.
	Features []string `json:"features,omitempty"`
}

// RawCriteria is the couple's constraints as received from form state or URL
// parameters, before normalization. Any field may be absent or out of range.
type RawCriteria struct {
	Budget             float64    `json:"budget"`
	Location           string     `json:"location"`
	PriorityCategories []Category `json:"priority_categories"`
	GuestCount         int        `json:"guest_count"`
	WeddingDate        time.Time  `json:"wedding_date"`

	// PriceMin and PriceMax declare an optional per-service price window.
	// Zero values mean no window.
	PriceMin float64 `json:"price_min"`
	PriceMax float64 `json:"price_max"`
}

// Criteria is the normalized form of RawCriteria. Budget is always > 0.
type Criteria struct {
	Budget      float64    `json:"budget"`
	Location    string     `json:"location"`
	Priorities  []Category `json:"priority_categories"`
	GuestCount  int        `json:"guest_count"`
	WeddingDate time.Time  `json:"wedding_date"`
	PriceMin    float64    `json:"price_min"`
	PriceMax    float64    `json:"price_max"`

	prioritySet map[Category]struct{}
}

// IsPriority reports whether the category is one of the couple's priorities.
func (c *Criteria) IsPriority(cat Category) bool {
	if c.prioritySet == nil {
		return false
	}
	_, ok := c.prioritySet[cat]
	return ok
}

// HasLocation reports whether the couple stated a location preference.
func (c *Criteria) HasLocation() bool { return c.Location != "" }

// PriorityTier is the score-derived bucket used for coarse filtering.
type PriorityTier string

const (
	PriorityHigh   PriorityTier = "high"
	PriorityMedium PriorityTier = "medium"
	PriorityLow    PriorityTier = "low"
)

// RiskLevel classifies booking risk derived from rating and review volume.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ScoredRecommendation is one service scored against the couple's criteria.
// Instances are created fresh on every pipeline run and never mutated.
type ScoredRecommendation struct {
	ServiceID string   `json:"service_id"`
	VendorID  string   `json:"vendor_id"`
	Category  Category `json:"category"`
	Name      string   `json:"name"`

	// Score is the 0-100 integer fitness value.
	Score int `json:"score"`

	// Reasons is an ordered, capped list of human-readable justifications,
	// highest-weight factors first.
	Reasons []string `json:"reasons"`

	PriorityTier PriorityTier `json:"priority_tier"`

	// EstimatedCost is the projected spend in currency units including the
	// add-on markup.
	EstimatedCost float64 `json:"estimated_cost"`

	// ValueRating is a 0-10 integer blend of quality and price fit.
	ValueRating int `json:"value_rating"`

	RiskLevel RiskLevel `json:"risk_level"`

	// Rating mirrors the underlying service's live rating field; the rating
	// sort key resolves against it rather than the derived score.
	Rating float64 `json:"rating"`

	// LocationMatch reports whether the service matched the couple's stated
	// location preference (exact or partial).
	LocationMatch bool `json:"location_match"`
}

// SortKey selects the ranking order of the recommendation list.
type SortKey string

const (
	// SortByScore orders by score descending with category diversity among
	// near-equal scores.
	SortByScore SortKey = "score"

	// SortByPrice orders by estimated cost ascending.
	SortByPrice SortKey = "price"

	// SortByRating orders by the live service rating descending.
	SortByRating SortKey = "rating"
)

// Valid reports whether the sort key is one of the supported keys.
func (k SortKey) Valid() bool {
	switch k {
	case SortByScore, SortByPrice, SortByRating:
		return true
	}
	return false
}

// PackageTier identifies one of the four fixed bundle tiers.
type PackageTier string

const (
	TierEssential PackageTier = "essential"
	TierStandard  PackageTier = "standard"
	TierPremium   PackageTier = "premium"
	TierLuxury    PackageTier = "luxury"
)

// Package is a curated, discounted bundle with at most one service per
// category.
type Package struct {
	Tier PackageTier `json:"tier"`

	// MemberServiceIDs is ordered by rank and category-deduplicated.
	MemberServiceIDs []string `json:"member_service_ids"`

	ListTotal       float64 `json:"list_total"`
	DiscountedTotal float64 `json:"discounted_total"`

	// DiscountPercent is the tier discount as a fraction in [0, 1).
	DiscountPercent float64 `json:"discount_percent"`

	// SuitabilityScore is a 0-100 aggregate fit score for the bundle.
	SuitabilityScore int `json:"suitability_score"`
}

// BudgetAnalysis summarizes projected spend for the top of the ranked list.
// It has no persistent identity and is recomputed on every run.
type BudgetAnalysis struct {
	TotalEstimated float64 `json:"total_estimated"`

	// PercentUsed is TotalEstimated / budget * 100, unbounded above.
	PercentUsed float64 `json:"percent_used"`

	CategoryBreakdown   map[Category]float64 `json:"category_breakdown"`
	RiskAreas           []string             `json:"risk_areas"`
	SavingOpportunities []string             `json:"saving_opportunities"`
}

// InsightType classifies a derived insight.
type InsightType string

const (
	InsightBudget      InsightType = "budget"
	InsightRisk        InsightType = "risk"
	InsightOpportunity InsightType = "opportunity"
	InsightTrend       InsightType = "trend"
)

// Impact grades how strongly an insight should be surfaced.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Weight returns a sortable rank for the impact, higher first.
func (i Impact) Weight() int {
	switch i {
	case ImpactHigh:
		return 2
	case ImpactMedium:
		return 1
	default:
		return 0
	}
}

// Insight is a rule-triggered observation about the ranked result set.
type Insight struct {
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Impact      Impact      `json:"impact"`
	Actionable  bool        `json:"actionable"`
}

// SetMetadata describes one pipeline run.
type SetMetadata struct {
	RequestID      string    `json:"request_id,omitempty"`
	CatalogVersion string    `json:"catalog_version,omitempty"`
	CatalogSize    int       `json:"catalog_size"`
	GeneratedAt    time.Time `json:"generated_at"`
	LatencyMS      int64     `json:"latency_ms"`
	CacheHit       bool      `json:"cache_hit"`
	SortKey        SortKey   `json:"sort_key"`
}

// RecommendationSet is the full output of one pipeline run: the ranked list,
// composed packages and derived insights. All fields are owned by the run
// that produced them; the next run supersedes them wholesale.
type RecommendationSet struct {
	Criteria Criteria               `json:"criteria"`
	Ranked   []ScoredRecommendation `json:"ranked"`
	Packages []Package              `json:"packages"`
	Budget   BudgetAnalysis         `json:"budget_analysis"`
	Insights []Insight              `json:"insights"`
	Metadata SetMetadata            `json:"metadata"`
}

// Scorer scores a single service against normalized criteria. Implementations
// must be pure: no I/O, no shared mutable state, "now" passed explicitly so
// seasonal scoring stays deterministic for testing.
type Scorer interface {
	Score(svc Service, c Criteria, now time.Time) ScoredRecommendation
}

// Composer assembles discounted multi-service packages from the ranked list.
type Composer interface {
	Compose(ranked []ScoredRecommendation, c Criteria) []Package
}

// Analyzer derives budget statistics and rule-based insights from the ranked
// and composed results.
type Analyzer interface {
	AnalyzeBudget(ranked []ScoredRecommendation, budget float64) BudgetAnalysis
	DeriveInsights(ranked []ScoredRecommendation, packages []Package, c Criteria, now time.Time) []Insight
}
