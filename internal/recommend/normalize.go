// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package recommend

import "strings"

// Normalize validates and defaults raw criteria. It is a total function and
// never fails: a non-positive or absent budget is replaced with the
// configured default, the priority set defaults to empty, and an empty
// location means "no preference" (neutral during scoring, never a no-match).
func (c *Config) Normalize(raw RawCriteria) Criteria {
	budget := raw.Budget
	if budget <= 0 {
		budget = c.DefaultBudget
	}

	priorities := make([]Category, 0, len(raw.PriorityCategories))
	set := make(map[Category]struct{}, len(raw.PriorityCategories))
	for _, cat := range raw.PriorityCategories {
		if cat == "" {
			continue
		}
		if _, dup := set[cat]; dup {
			continue
		}
		set[cat] = struct{}{}
		priorities = append(priorities, cat)
	}

	guests := raw.GuestCount
	if guests < 0 {
		guests = 0
	}

	priceMin, priceMax := raw.PriceMin, raw.PriceMax
	if priceMin < 0 {
		priceMin = 0
	}
	if priceMax < priceMin {
		// An inverted window is treated as absent rather than rejected.
		priceMin, priceMax = 0, 0
	}

	return Criteria{
		Budget:      budget,
		Location:    strings.TrimSpace(strings.ToLower(raw.Location)),
		Priorities:  priorities,
		GuestCount:  guests,
		WeddingDate: raw.WeddingDate,
		PriceMin:    priceMin,
		PriceMax:    priceMax,
		prioritySet: set,
	}
}
