// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

// Package composer assembles tiered, discounted multi-service bundles from
// the ranked recommendation list.
//
// Each of the four fixed tiers (essential, standard, premium, luxury)
// selects members with a tier-specific predicate, keeps at most one service
// per category (the best-ranked one wins), and applies a fixed tier
// discount. A tier that cannot meet its minimum member count is omitted,
// never an error.
package composer

import (
	"math"
	"sort"

	"github.com/aisleplan/aisleplan/internal/recommend"
)

// Composer builds packages according to the configured tier table. It is
// stateless and safe for concurrent use.
type Composer struct {
	cfg *recommend.Config
}

// New creates a composer over the given constant table.
func New(cfg *recommend.Config) *Composer {
	if cfg == nil {
		cfg = recommend.DefaultConfig()
	}
	return &Composer{cfg: cfg}
}

// Compose builds one package per satisfiable tier, sorted by suitability
// descending. The ranked input must already be ordered best-first.
func (c *Composer) Compose(ranked []recommend.ScoredRecommendation, crit recommend.Criteria) []recommend.Package {
	packages := make([]recommend.Package, 0, len(c.cfg.Tiers))
	for _, spec := range c.cfg.Tiers {
		if pkg, ok := c.composeTier(spec, ranked, crit); ok {
			packages = append(packages, pkg)
		}
	}

	sort.SliceStable(packages, func(i, j int) bool {
		return packages[i].SuitabilityScore > packages[j].SuitabilityScore
	})
	return packages
}

// composeTier selects members for one tier. Returns false when the tier
// cannot meet its minimum member count.
func (c *Composer) composeTier(spec recommend.TierSpec, ranked []recommend.ScoredRecommendation, crit recommend.Criteria) (recommend.Package, bool) {
	maxMembers := spec.MaxMembers
	if maxMembers == 0 {
		if len(spec.Categories) > 0 {
			maxMembers = len(spec.Categories)
		} else {
			maxMembers = len(recommend.Categories)
		}
	}

	allowed := make(map[recommend.Category]struct{}, len(spec.Categories))
	for _, cat := range spec.Categories {
		allowed[cat] = struct{}{}
	}

	seen := make(map[recommend.Category]struct{})
	members := make([]recommend.ScoredRecommendation, 0, maxMembers)
	for _, rec := range ranked {
		if len(members) == maxMembers {
			break
		}
		if len(allowed) > 0 {
			if _, ok := allowed[rec.Category]; !ok {
				continue
			}
		}
		if spec.RequireHighPriority && rec.PriorityTier != recommend.PriorityHigh {
			continue
		}
		if spec.MinValueRating > 0 && rec.ValueRating < spec.MinValueRating {
			continue
		}
		// Category invariant: first (best-ranked) service per category wins;
		// later same-category services may still appear in other tiers.
		if _, dup := seen[rec.Category]; dup {
			continue
		}
		seen[rec.Category] = struct{}{}
		members = append(members, rec)
	}

	if len(members) < spec.MinMembers {
		return recommend.Package{}, false
	}

	ids := make([]string, len(members))
	var listTotal float64
	for i, m := range members {
		ids[i] = m.ServiceID
		listTotal += m.EstimatedCost
	}
	listTotal = recommend.RoundCents(listTotal)

	return recommend.Package{
		Tier:             spec.Tier,
		MemberServiceIDs: ids,
		ListTotal:        listTotal,
		DiscountedTotal:  recommend.RoundCents(listTotal * (1 - spec.Discount)),
		DiscountPercent:  spec.Discount,
		SuitabilityScore: c.suitability(members, maxMembers, crit),
	}, true
}

// suitability blends average member rating, aggregate price fit against the
// budget, member count, and location-match ratio into a 0-100 score. Same
// shape as per-service scoring but over the aggregate.
func (c *Composer) suitability(members []recommend.ScoredRecommendation, maxMembers int, crit recommend.Criteria) int {
	var ratingSum, costSum float64
	var locMatches int
	for _, m := range members {
		ratingSum += m.Rating
		costSum += m.EstimatedCost
		if m.LocationMatch {
			locMatches++
		}
	}
	n := float64(len(members))

	ratingPart := ratingSum / n / 5 * 35
	pricePart := c.cfg.PriceFitFraction(costSum/crit.Budget*100) * 30
	countPart := n / float64(maxMembers) * 20

	locPart := 15.0
	if crit.HasLocation() {
		locPart = float64(locMatches) / n * 15
	}

	score := int(math.Round(ratingPart + pricePart + countPart + locPart))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
