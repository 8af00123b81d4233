// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package recommend

import (
	"fmt"
	"math"
	"time"
)

// Config contains every tuning constant of the recommendation pipeline as a
// named, overridable value. Historically these constants drifted across
// near-duplicate scoring variants; they are consolidated here so every
// surface consumes one table.
type Config struct {
	// Weights defines the maximum contribution of each scoring factor.
	Weights FactorWeights `json:"weights" koanf:"weights"`

	// DefaultBudget is substituted when the couple's budget is absent or
	// non-positive.
	DefaultBudget float64 `json:"default_budget" koanf:"default_budget"`

	// CostMarkup approximates add-on fees on top of list prices.
	CostMarkup float64 `json:"cost_markup" koanf:"cost_markup"`

	// TierCosts maps price tiers to assumed base costs when no base price is
	// listed.
	TierCosts map[PriceTier]float64 `json:"tier_costs" koanf:"tier_costs"`

	// DefaultCost is assumed when neither base price nor a recognizable
	// price tier is present.
	DefaultCost float64 `json:"default_cost" koanf:"default_cost"`

	// BookingVolumeMultiplier converts review counts to estimated booking
	// volume. The x4 value is an undocumented tuning constant inherited from
	// production; it is preserved here rather than re-derived.
	BookingVolumeMultiplier float64 `json:"booking_volume_multiplier" koanf:"booking_volume_multiplier"`

	// PriceFitSteps is the descending step table mapping budget-share
	// percentages to a fraction of the price-fit weight. Deliberately wide
	// so the filter stays inclusive. The boundaries are inherited tuning
	// constants, preserved rather than re-derived.
	PriceFitSteps []PriceFitStep `json:"price_fit_steps" koanf:"price_fit_steps"`

	// ReasonCap truncates the per-service reasons list.
	ReasonCap int `json:"reason_cap" koanf:"reason_cap"`

	// HighTierThreshold and MediumTierThreshold derive the priority tier
	// from the score. Intentionally permissive: the design goal is a broad
	// recommendation set, not a narrow top-N.
	HighTierThreshold   int `json:"high_tier_threshold" koanf:"high_tier_threshold"`
	MediumTierThreshold int `json:"medium_tier_threshold" koanf:"medium_tier_threshold"`

	// RatingFloor drops services below this live rating during ranking.
	RatingFloor float64 `json:"rating_floor" koanf:"rating_floor"`

	// PriceWindowLow and PriceWindowHigh widen the couple's declared price
	// window before filtering on estimated cost.
	PriceWindowLow  float64 `json:"price_window_low" koanf:"price_window_low"`
	PriceWindowHigh float64 `json:"price_window_high" koanf:"price_window_high"`

	// RankLimit caps the ranked output to keep downstream consumers bounded.
	RankLimit int `json:"rank_limit" koanf:"rank_limit"`

	// ScoreTieTolerance is the band within which score ties are broken by
	// category order and value rating to inject diversity at the top.
	ScoreTieTolerance int `json:"score_tie_tolerance" koanf:"score_tie_tolerance"`

	// PeakMonths is the fixed set of peak wedding-season calendar months.
	PeakMonths []time.Month `json:"peak_months" koanf:"peak_months"`

	// Tiers configures the four package tiers in emission order.
	Tiers []TierSpec `json:"tiers" koanf:"tiers"`

	// BudgetTopN is the size of the ranked slice the budget analyzer sums.
	BudgetTopN int `json:"budget_top_n" koanf:"budget_top_n"`

	// InsightCap truncates the derived insights list.
	InsightCap int `json:"insight_cap" koanf:"insight_cap"`

	// CacheTTL bounds memoized pipeline results. Zero disables memoization.
	CacheTTL time.Duration `json:"cache_ttl" koanf:"cache_ttl"`

	// CacheMaxEntries bounds the memoization map. When a write would exceed
	// it, expired entries are swept first; if none have expired the map is
	// reset. Keystroke-varying criteria would otherwise grow it indefinitely.
	CacheMaxEntries int `json:"cache_max_entries" koanf:"cache_max_entries"`
}

// FactorWeights is the scoring weight table. Each weight is the maximum
// number of points its factor can contribute. The legacy variants carried
// slightly drifting totals (popularity oscillated between 10 and 16); the
// final score is clamped to [0, 100] regardless.
type FactorWeights struct {
	Quality          float64 `json:"quality" koanf:"quality"`
	Popularity       float64 `json:"popularity" koanf:"popularity"`
	PriceFit         float64 `json:"price_fit" koanf:"price_fit"`
	Personalization  float64 `json:"personalization" koanf:"personalization"`
	CategoryPriority float64 `json:"category_priority" koanf:"category_priority"`
	Trend            float64 `json:"trend" koanf:"trend"`
}

// Total returns the sum of all factor weights.
func (w FactorWeights) Total() float64 {
	return w.Quality + w.Popularity + w.PriceFit + w.Personalization + w.CategoryPriority + w.Trend
}

// PriceFitStep maps a budget-share upper bound to a fraction of the
// price-fit weight. Steps are evaluated in order; the first step whose
// MaxPercent is >= the service's budget share wins.
type PriceFitStep struct {
	// MaxPercent is the inclusive upper bound on estimatedCost/budget*100.
	MaxPercent float64 `json:"max_percent" koanf:"max_percent"`

	// Fraction of the price-fit weight awarded, in [0, 1].
	Fraction float64 `json:"fraction" koanf:"fraction"`
}

// TierSpec configures one package tier.
type TierSpec struct {
	Tier PackageTier `json:"tier" koanf:"tier"`

	// Categories restricts membership to these categories. Empty means any
	// category (premium/luxury tiers select on quality instead).
	Categories []Category `json:"categories" koanf:"categories"`

	// MinMembers is the minimum member count; below it the tier is omitted.
	MinMembers int `json:"min_members" koanf:"min_members"`

	// MaxMembers caps the member count. Zero means one per known category.
	MaxMembers int `json:"max_members" koanf:"max_members"`

	// Discount is the tier discount fraction applied to the list total.
	Discount float64 `json:"discount" koanf:"discount"`

	// MinValueRating restricts membership to services at or above this
	// value rating. Zero disables the restriction.
	MinValueRating int `json:"min_value_rating" koanf:"min_value_rating"`

	// RequireHighPriority restricts membership to high priority-tier
	// services.
	RequireHighPriority bool `json:"require_high_priority" koanf:"require_high_priority"`
}

// DefaultConfig returns the production constant table.
func DefaultConfig() *Config {
	return &Config{
		Weights: FactorWeights{
			Quality:          25,
			Popularity:       16,
			PriceFit:         30,
			Personalization:  15,
			CategoryPriority: 10,
			Trend:            10,
		},
		DefaultBudget: 50000,
		CostMarkup:    1.15,
		TierCosts: map[PriceTier]float64{
			PriceTierBudget:   1200,
			PriceTierModerate: 3000,
			PriceTierPremium:  7000,
			PriceTierLuxury:   15000,
		},
		DefaultCost:             2000,
		BookingVolumeMultiplier: 4,
		PriceFitSteps: []PriceFitStep{
			{MaxPercent: 30, Fraction: 1.0},
			{MaxPercent: 50, Fraction: 0.9},
			{MaxPercent: 70, Fraction: 0.75},
			{MaxPercent: 90, Fraction: 0.6},
			{MaxPercent: 110, Fraction: 0.45},
			{MaxPercent: 130, Fraction: 0.3},
			{MaxPercent: 160, Fraction: 0.2},
		},
		ReasonCap:           6,
		HighTierThreshold:   65,
		MediumTierThreshold: 40,
		RatingFloor:         3.0,
		PriceWindowLow:      0.5,
		PriceWindowHigh:     1.5,
		RankLimit:           50,
		ScoreTieTolerance:   2,
		PeakMonths: []time.Month{
			time.May, time.June, time.July, time.August, time.September, time.October,
		},
		Tiers: []TierSpec{
			{
				Tier:       TierEssential,
				Categories: []Category{CategoryPhotography, CategoryVenue, CategoryCatering},
				MinMembers: 3,
				Discount:   0.15,
			},
			{
				Tier: TierStandard,
				Categories: []Category{
					CategoryPhotography, CategoryVenue, CategoryCatering,
					CategoryMusic, CategoryFlorals,
				},
				MinMembers: 4,
				Discount:   0.12,
			},
			{
				Tier:                TierPremium,
				MinMembers:          5,
				MaxMembers:          8,
				Discount:            0.10,
				MinValueRating:      7,
				RequireHighPriority: true,
			},
			{
				Tier:                TierLuxury,
				MinMembers:          6,
				MaxMembers:          8,
				Discount:            0.08,
				MinValueRating:      8,
				RequireHighPriority: true,
			},
		},
		BudgetTopN:      10,
		InsightCap:      8,
		CacheTTL:        5 * time.Minute,
		CacheMaxEntries: 1024,
	}
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if c.DefaultBudget <= 0 {
		return fmt.Errorf("default_budget must be positive, got %v", c.DefaultBudget)
	}
	if c.CostMarkup < 1 {
		return fmt.Errorf("cost_markup must be >= 1, got %v", c.CostMarkup)
	}
	if c.DefaultCost <= 0 {
		return fmt.Errorf("default_cost must be positive, got %v", c.DefaultCost)
	}
	if c.BookingVolumeMultiplier <= 0 {
		return fmt.Errorf("booking_volume_multiplier must be positive, got %v", c.BookingVolumeMultiplier)
	}
	if w := c.Weights; w.Quality < 0 || w.Popularity < 0 || w.PriceFit < 0 ||
		w.Personalization < 0 || w.CategoryPriority < 0 || w.Trend < 0 {
		return fmt.Errorf("factor weights must be non-negative")
	}
	if total := c.Weights.Total(); total <= 0 || total > 120 {
		return fmt.Errorf("factor weights total %v out of range (0, 120]", total)
	}
	if len(c.PriceFitSteps) == 0 {
		return fmt.Errorf("price_fit_steps must not be empty")
	}
	prev := -1.0
	for i, s := range c.PriceFitSteps {
		if s.MaxPercent <= prev {
			return fmt.Errorf("price_fit_steps[%d]: max_percent must ascend", i)
		}
		if s.Fraction < 0 || s.Fraction > 1 {
			return fmt.Errorf("price_fit_steps[%d]: fraction %v out of [0, 1]", i, s.Fraction)
		}
		prev = s.MaxPercent
	}
	if c.ReasonCap <= 0 {
		return fmt.Errorf("reason_cap must be positive, got %d", c.ReasonCap)
	}
	if c.MediumTierThreshold <= 0 || c.HighTierThreshold <= c.MediumTierThreshold {
		return fmt.Errorf("tier thresholds must satisfy 0 < medium < high, got %d/%d",
			c.MediumTierThreshold, c.HighTierThreshold)
	}
	if c.RatingFloor < 0 || c.RatingFloor > 5 {
		return fmt.Errorf("rating_floor %v out of [0, 5]", c.RatingFloor)
	}
	if c.PriceWindowLow <= 0 || c.PriceWindowHigh < c.PriceWindowLow {
		return fmt.Errorf("price window [%v, %v] invalid", c.PriceWindowLow, c.PriceWindowHigh)
	}
	if c.RankLimit <= 0 {
		return fmt.Errorf("rank_limit must be positive, got %d", c.RankLimit)
	}
	if c.ScoreTieTolerance < 0 {
		return fmt.Errorf("score_tie_tolerance must be non-negative, got %d", c.ScoreTieTolerance)
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("tiers must not be empty")
	}
	for i, t := range c.Tiers {
		if t.Tier == "" {
			return fmt.Errorf("tiers[%d]: tier name required", i)
		}
		if t.MinMembers <= 0 {
			return fmt.Errorf("tiers[%d]: min_members must be positive", i)
		}
		if t.MaxMembers != 0 && t.MaxMembers < t.MinMembers {
			return fmt.Errorf("tiers[%d]: max_members %d below min_members %d", i, t.MaxMembers, t.MinMembers)
		}
		if t.Discount < 0 || t.Discount >= 1 {
			return fmt.Errorf("tiers[%d]: discount %v out of [0, 1)", i, t.Discount)
		}
	}
	if c.BudgetTopN <= 0 {
		return fmt.Errorf("budget_top_n must be positive, got %d", c.BudgetTopN)
	}
	if c.InsightCap <= 0 {
		return fmt.Errorf("insight_cap must be positive, got %d", c.InsightCap)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must be non-negative, got %v", c.CacheTTL)
	}
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("cache_max_entries must be positive, got %d", c.CacheMaxEntries)
	}
	return nil
}

// IsPeakMonth reports whether the month is in the peak wedding season.
func (c *Config) IsPeakMonth(m time.Month) bool {
	for _, pm := range c.PeakMonths {
		if pm == m {
			return true
		}
	}
	return false
}

// EstimateCost derives the projected spend for a service: the listed base
// price when present, otherwise the tier lookup, otherwise the default cost,
// all multiplied by the add-on markup. Never fails.
func (c *Config) EstimateCost(svc Service) float64 {
	base := svc.BasePrice
	if base <= 0 {
		var ok bool
		base, ok = c.TierCosts[svc.PriceTier]
		if !ok {
			base = c.DefaultCost
		}
	}
	return RoundCents(base * c.CostMarkup)
}

// RoundCents rounds a currency amount to the nearest cent.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// TierFor maps a score to its priority tier using the configured thresholds.
func (c *Config) TierFor(score int) PriorityTier {
	switch {
	case score >= c.HighTierThreshold:
		return PriorityHigh
	case score >= c.MediumTierThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// PriceFitFraction resolves the budget-share percentage against the step
// table. Shares beyond the last step earn the minimum non-zero fraction so
// expensive services are depressed, not excluded.
func (c *Config) PriceFitFraction(percentOfBudget float64) float64 {
	for _, s := range c.PriceFitSteps {
		if percentOfBudget <= s.MaxPercent {
			return s.Fraction
		}
	}
	return 0.1
}
