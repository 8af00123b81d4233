// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

// Package scoring implements the per-service scoring engine.
//
// The score is an additively weighted sum of independent, bounded
// sub-scores; each factor contributes at most its configured weight and the
// total is clamped to [0, 100]. Every factor may also contribute one
// human-readable reason; the final list is truncated, highest-weight
// factors first.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aisleplan/aisleplan/internal/recommend"
)

// Scorer scores services against normalized criteria. It is stateless and
// safe for concurrent use.
type Scorer struct {
	cfg *recommend.Config
}

// New creates a scorer over the given constant table.
func New(cfg *recommend.Config) *Scorer {
	if cfg == nil {
		cfg = recommend.DefaultConfig()
	}
	return &Scorer{cfg: cfg}
}

// factorResult is one bounded sub-score plus its optional reason.
type factorResult struct {
	points float64
	reason string
}

// Score computes the fitness of one service. Pure: no I/O, no clock reads
// ("now" is explicit), no mutation of the input.
func (s *Scorer) Score(svc recommend.Service, c recommend.Criteria, now time.Time) recommend.ScoredRecommendation {
	rating := clampRating(svc.Rating)
	reviews := svc.ReviewCount
	if reviews < 0 {
		reviews = 0
	}
	cost := s.cfg.EstimateCost(svc)

	quality := s.quality(rating)
	popularity := s.popularity(reviews)
	price := s.priceFit(cost, c.Budget)
	personal, locMatch := s.personalization(svc, c)
	category := s.categoryPriority(svc.Category, c)
	trend := s.trend(svc, rating, reviews, c, now)

	total := quality.points + popularity.points + price.points +
		personal.points + category.points + trend.points
	score := int(math.Round(math.Min(math.Max(total, 0), 100)))

	// Reasons ordered by factor weight descending: price fit (30), quality
	// (25), popularity, personalization, category priority, trend.
	reasons := collectReasons(s.cfg.ReasonCap, price, quality, popularity, personal, category, trend)

	return recommend.ScoredRecommendation{
		ServiceID:     svc.ID,
		VendorID:      svc.VendorID,
		Category:      svc.Category,
		Name:          svc.Name,
		Score:         score,
		Reasons:       reasons,
		PriorityTier:  s.cfg.TierFor(score),
		EstimatedCost: cost,
		ValueRating:   s.valueRating(rating, cost, c.Budget),
		RiskLevel:     RiskFor(rating, reviews),
		Rating:        rating,
		LocationMatch: locMatch,
	}
}

// quality converts the rating to its weighted sub-score with a qualitative
// reason selected by threshold bands.
func (s *Scorer) quality(rating float64) factorResult {
	points := rating / 5 * s.cfg.Weights.Quality

	var reason string
	switch {
	case rating >= 4.8:
		reason = fmt.Sprintf("Outstanding %.1f-star rating", rating)
	case rating >= 4.5:
		reason = fmt.Sprintf("Excellent %.1f-star rating", rating)
	case rating >= 4.0:
		reason = fmt.Sprintf("Highly rated at %.1f stars", rating)
	case rating >= 3.5:
		reason = fmt.Sprintf("Well reviewed at %.1f stars", rating)
	default:
		reason = fmt.Sprintf("Decent %.1f-star rating", rating)
	}
	return factorResult{points: points, reason: reason}
}

// popularity awards a banded fraction of the weight from the estimated
// booking volume. Bands diminish at the top so incumbents are not
// over-rewarded.
func (s *Scorer) popularity(reviews int) factorResult {
	bookings := float64(reviews) * s.cfg.BookingVolumeMultiplier

	var frac float64
	switch {
	case bookings >= 1000:
		frac = 1.0
	case bookings >= 500:
		frac = 0.9
	case bookings >= 200:
		frac = 0.75
	case bookings >= 80:
		frac = 0.6
	case bookings >= 20:
		frac = 0.4
	case bookings > 0:
		frac = 0.2
	}

	res := factorResult{points: frac * s.cfg.Weights.Popularity}
	if bookings >= 200 {
		res.reason = fmt.Sprintf("Proven track record with an estimated %d bookings", int(bookings))
	}
	return res
}

// priceFit resolves the service's share of the budget against the step
// table. The table is deliberately generous so the filter stays inclusive
// rather than exclusionary.
func (s *Scorer) priceFit(cost, budget float64) factorResult {
	pct := cost / budget * 100
	frac := s.cfg.PriceFitFraction(pct)

	res := factorResult{points: frac * s.cfg.Weights.PriceFit}
	switch {
	case pct <= 30:
		res.reason = fmt.Sprintf("Fits comfortably within budget (%.0f%% of total)", pct)
	case pct <= 50:
		res.reason = fmt.Sprintf("Good value at %.0f%% of budget", pct)
	case pct > 100:
		res.reason = fmt.Sprintf("Above budget at %.0f%% of total", pct)
	}
	return res
}

// personalization sums partial-credit location match, availability bonus and
// a capped feature-breadth bonus. Absence of a location preference is
// neutral, not penalized. Raw points are computed on a fixed 15-point scale
// then rescaled to the configured weight.
func (s *Scorer) personalization(svc recommend.Service, c recommend.Criteria) (factorResult, bool) {
	const rawScale = 15

	var raw float64
	var reason string
	matched := false

	switch {
	case !c.HasLocation():
		raw += 4 // neutral: no preference stated
	case strings.Contains(strings.ToLower(svc.Location), c.Location):
		raw += 6
		matched = true
		reason = fmt.Sprintf("Based in %s", svc.Location)
	case tokenMatch(svc.Location, c.Location):
		raw += 3
		matched = true
		reason = fmt.Sprintf("Near your preferred area (%s)", svc.Location)
	}

	if svc.Available {
		raw += 4
	}

	breadth := float64(len(svc.Features)) * 0.5
	if breadth > 5 {
		breadth = 5
	}
	raw += breadth

	return factorResult{
		points: raw / rawScale * s.cfg.Weights.Personalization,
		reason: reason,
	}, matched
}

// categoryPriority grants the full weight for priority categories and a
// smaller credit otherwise. Every category gets some credit: the engine
// favors breadth over strict filtering.
func (s *Scorer) categoryPriority(cat recommend.Category, c recommend.Criteria) factorResult {
	if c.IsPriority(cat) {
		return factorResult{
			points: s.cfg.Weights.CategoryPriority,
			reason: fmt.Sprintf("Matches your %s priority", cat),
		}
	}
	return factorResult{points: s.cfg.Weights.CategoryPriority * 0.4}
}

// trend combines a seasonal bonus with a vendor-lifecycle bonus that
// surfaces under-reviewed but well-rated services alongside incumbents.
func (s *Scorer) trend(svc recommend.Service, rating float64, reviews int, c recommend.Criteria, now time.Time) factorResult {
	month := now.Month()
	if !c.WeddingDate.IsZero() {
		month = c.WeddingDate.Month()
	}

	var raw float64
	if s.cfg.IsPeakMonth(month) {
		raw += 5
	} else {
		raw += 2
	}

	var reason string
	if reviews < 25 && rating >= 4.5 {
		raw += 5
		reason = fmt.Sprintf("Rising vendor: strong %.1f rating with a fresh reputation", rating)
	} else if reviews >= 25 {
		raw += 2
	}

	if raw > 10 {
		raw = 10
	}
	return factorResult{points: raw / 10 * s.cfg.Weights.Trend, reason: reason}
}

// valueRating blends quality and price fit into a 0-10 integer.
func (s *Scorer) valueRating(rating, cost, budget float64) int {
	qualityHalf := rating / 5 * 5
	priceHalf := s.cfg.PriceFitFraction(cost/budget*100) * 5
	v := int(math.Round(qualityHalf + priceHalf))
	if v < 0 {
		v = 0
	}
	if v > 10 {
		v = 10
	}
	return v
}

// RiskFor derives the booking risk level from review volume and rating.
// Missing data (zero values) naturally lands in the high band rather than
// raising an error.
func RiskFor(rating float64, reviews int) recommend.RiskLevel {
	switch {
	case reviews < 10 || rating < 3.5:
		return recommend.RiskHigh
	case reviews < 25 || rating < 4.0:
		return recommend.RiskMedium
	default:
		return recommend.RiskLow
	}
}

// clampRating bounds a rating to [0, 5]. Out-of-range inputs are a data
// quality problem upstream; scoring stays total.
func clampRating(r float64) float64 {
	if r < 0 || math.IsNaN(r) {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}

// tokenMatch reports whether any token of the preferred location appears in
// the service location.
func tokenMatch(serviceLoc, preferred string) bool {
	haystack := strings.ToLower(serviceLoc)
	for _, tok := range strings.FieldsFunc(preferred, func(r rune) bool {
		return r == ' ' || r == ',' || r == '-'
	}) {
		if len(tok) < 3 {
			continue
		}
		if strings.Contains(haystack, tok) {
			return true
		}
	}
	return false
}

// collectReasons gathers non-empty factor reasons in the given order and
// truncates to the cap.
func collectReasons(limit int, factors ...factorResult) []string {
	reasons := make([]string, 0, len(factors))
	for _, f := range factors {
		if f.reason == "" {
			continue
		}
		if len(reasons) == limit {
			break
		}
		reasons = append(reasons, f.reason)
	}
	return reasons
}
