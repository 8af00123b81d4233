// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package recommend

import "sort"

// Rank filters and orders scored recommendations.
//
// Filtering is deliberately loose: a service is dropped only when its live
// rating is below the configured floor, or when the couple declared a price
// window and the estimated cost falls outside a widened [low*min, high*max]
// band. Both tolerances are wide so the output stays diverse rather than
// narrowly optimal.
//
// Output is capped at the configured rank limit.
func (c *Config) Rank(scored []ScoredRecommendation, crit Criteria, key SortKey) []ScoredRecommendation {
	if !key.Valid() {
		key = SortByScore
	}

	out := make([]ScoredRecommendation, 0, len(scored))
	for _, s := range scored {
		if s.Rating < c.RatingFloor {
			continue
		}
		if crit.PriceMax > 0 {
			lo := crit.PriceMin * c.PriceWindowLow
			hi := crit.PriceMax * c.PriceWindowHigh
			if s.EstimatedCost < lo || s.EstimatedCost > hi {
				continue
			}
		}
		out = append(out, s)
	}

	switch key {
	case SortByPrice:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].EstimatedCost != out[j].EstimatedCost {
				return out[i].EstimatedCost < out[j].EstimatedCost
			}
			return out[i].ServiceID < out[j].ServiceID
		})
	case SortByRating:
		// Resolved against the live rating field, not the derived score.
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Rating != out[j].Rating {
				return out[i].Rating > out[j].Rating
			}
			return out[i].ServiceID < out[j].ServiceID
		})
	default:
		c.sortByScore(out)
	}

	if len(out) > c.RankLimit {
		out = out[:c.RankLimit]
	}
	return out
}

// sortByScore orders by score descending. Scores within the tie tolerance
// of their band's top score are ordered by category lexicographically, then
// by value rating descending, so near-equal scores interleave categories
// instead of clustering one category at the top.
//
// Two phases keep the ordering a total one: a pairwise "within tolerance"
// comparator is not transitive, so instead the list is sorted strictly by
// score first and then partitioned into bands anchored at each band's
// highest score.
func (c *Config) sortByScore(out []ScoredRecommendation) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ServiceID < out[j].ServiceID
	})

	for lo := 0; lo < len(out); {
		hi := lo + 1
		for hi < len(out) && out[lo].Score-out[hi].Score <= c.ScoreTieTolerance {
			hi++
		}
		band := out[lo:hi]
		sort.SliceStable(band, func(i, j int) bool {
			if band[i].Category != band[j].Category {
				return band[i].Category < band[j].Category
			}
			if band[i].ValueRating != band[j].ValueRating {
				return band[i].ValueRating > band[j].ValueRating
			}
			if band[i].Score != band[j].Score {
				return band[i].Score > band[j].Score
			}
			return band[i].ServiceID < band[j].ServiceID
		})
		lo = hi
	}
}
