// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

// Package insights derives budget statistics and rule-triggered
// observations from the ranked and composed results.
//
// Insight derivation is a rule table: every rule inspects an aggregate
// condition and emits zero or one insight. Rules are evaluated
// unconditionally and never short-circuit each other; the combined list is
// capped and ordered by impact descending.
package insights

import (
	"fmt"
	"time"

	"github.com/aisleplan/aisleplan/internal/recommend"
)

// Analyzer computes budget analysis and insights. Stateless, safe for
// concurrent use.
type Analyzer struct {
	cfg   *recommend.Config
	rules []rule
}

// ruleInput carries the aggregates every rule may inspect.
type ruleInput struct {
	ranked   []recommend.ScoredRecommendation
	packages []recommend.Package
	crit     recommend.Criteria
	budget   recommend.BudgetAnalysis
	now      time.Time
	peak     bool
}

// rule emits zero or one insight for the run.
type rule func(in ruleInput) *recommend.Insight

// New creates an analyzer over the given constant table.
func New(cfg *recommend.Config) *Analyzer {
	if cfg == nil {
		cfg = recommend.DefaultConfig()
	}
	a := &Analyzer{cfg: cfg}
	a.rules = []rule{
		overBudgetRule,
		headroomRule,
		highRiskRule,
		valueOpportunityRule,
		bundleDiscountRule,
		seasonRule,
		missingPriorityRule,
		largeGuestCountRule,
	}
	return a
}

// AnalyzeBudget sums estimated cost over the top slice of the ranked list,
// computes the share of the couple's budget, and buckets spend by category.
// Empty input degrades to a zeroed analysis.
func (a *Analyzer) AnalyzeBudget(ranked []recommend.ScoredRecommendation, budget float64) recommend.BudgetAnalysis {
	analysis := recommend.BudgetAnalysis{
		CategoryBreakdown:   make(map[recommend.Category]float64),
		RiskAreas:           []string{},
		SavingOpportunities: []string{},
	}

	top := ranked
	if len(top) > a.cfg.BudgetTopN {
		top = top[:a.cfg.BudgetTopN]
	}

	for _, rec := range top {
		analysis.TotalEstimated += rec.EstimatedCost
		analysis.CategoryBreakdown[rec.Category] += rec.EstimatedCost

		if rec.RiskLevel == recommend.RiskHigh {
			analysis.RiskAreas = append(analysis.RiskAreas,
				fmt.Sprintf("%s has limited review history", rec.Name))
		}
		if rec.ValueRating >= 8 {
			analysis.SavingOpportunities = append(analysis.SavingOpportunities,
				fmt.Sprintf("%s offers strong value for its price", rec.Name))
		}
	}

	if budget > 0 {
		analysis.PercentUsed = analysis.TotalEstimated / budget * 100
	}
	if analysis.PercentUsed > 100 {
		analysis.RiskAreas = append(analysis.RiskAreas,
			"Estimated spend for top recommendations exceeds the total budget")
	}
	return analysis
}

// DeriveInsights evaluates every rule against the run's aggregates. The
// result is capped and sorted by impact descending; rule independence is
// preserved (each rule sees the same input, none short-circuits another).
func (a *Analyzer) DeriveInsights(ranked []recommend.ScoredRecommendation, packages []recommend.Package, crit recommend.Criteria, now time.Time) []recommend.Insight {
	// An empty catalog degrades to empty output across the whole pipeline;
	// criteria-only rules must not fire when there is nothing to recommend.
	if len(ranked) == 0 && len(packages) == 0 {
		return []recommend.Insight{}
	}

	in := ruleInput{
		ranked:   ranked,
		packages: packages,
		crit:     crit,
		budget:   a.AnalyzeBudget(ranked, crit.Budget),
		now:      now,
		peak:     a.cfg.IsPeakMonth(now.Month()),
	}

	insights := make([]recommend.Insight, 0, len(a.rules))
	for _, r := range a.rules {
		if ins := r(in); ins != nil {
			insights = append(insights, *ins)
		}
	}

	// Stable sort keeps rule-table order within an impact band.
	sortByImpact(insights)

	if len(insights) > a.cfg.InsightCap {
		insights = insights[:a.cfg.InsightCap]
	}
	return insights
}

func sortByImpact(insights []recommend.Insight) {
	// Insertion sort: the list is tiny and stability matters.
	for i := 1; i < len(insights); i++ {
		for j := i; j > 0 && insights[j].Impact.Weight() > insights[j-1].Impact.Weight(); j-- {
			insights[j], insights[j-1] = insights[j-1], insights[j]
		}
	}
}

func overBudgetRule(in ruleInput) *recommend.Insight {
	if in.budget.PercentUsed <= 100 {
		return nil
	}
	return &recommend.Insight{
		Type:  recommend.InsightBudget,
		Title: "Over budget",
		Description: fmt.Sprintf(
			"Top recommendations total %.0f, %.0f%% of your %.0f budget. Consider trimming a category or choosing a smaller package tier.",
			in.budget.TotalEstimated, in.budget.PercentUsed, in.crit.Budget),
		Impact:     recommend.ImpactHigh,
		Actionable: true,
	}
}

func headroomRule(in ruleInput) *recommend.Insight {
	if len(in.ranked) == 0 || in.budget.PercentUsed > 70 {
		return nil
	}
	return &recommend.Insight{
		Type:  recommend.InsightBudget,
		Title: "Budget headroom",
		Description: fmt.Sprintf(
			"Top recommendations use only %.0f%% of your budget, leaving room to upgrade key vendors.",
			in.budget.PercentUsed),
		Impact:     recommend.ImpactLow,
		Actionable: false,
	}
}

func highRiskRule(in ruleInput) *recommend.Insight {
	var count int
	for _, rec := range in.ranked {
		if rec.RiskLevel == recommend.RiskHigh {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	impact := recommend.ImpactMedium
	if count > len(in.ranked)/2 {
		impact = recommend.ImpactHigh
	}
	return &recommend.Insight{
		Type:  recommend.InsightRisk,
		Title: "Limited review history",
		Description: fmt.Sprintf(
			"%d recommended vendors have few reviews or lower ratings. Ask for references before booking.", count),
		Impact:     impact,
		Actionable: true,
	}
}

func valueOpportunityRule(in ruleInput) *recommend.Insight {
	var count int
	for _, rec := range in.ranked {
		if rec.ValueRating >= 8 {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return &recommend.Insight{
		Type:  recommend.InsightOpportunity,
		Title: "Strong value picks",
		Description: fmt.Sprintf(
			"%d vendors combine high ratings with prices well inside your budget.", count),
		Impact:     recommend.ImpactMedium,
		Actionable: false,
	}
}

func bundleDiscountRule(in ruleInput) *recommend.Insight {
	if len(in.packages) == 0 {
		return nil
	}
	var best float64
	for _, pkg := range in.packages {
		if pkg.DiscountPercent > best {
			best = pkg.DiscountPercent
		}
	}
	return &recommend.Insight{
		Type:  recommend.InsightOpportunity,
		Title: "Bundle savings available",
		Description: fmt.Sprintf(
			"Booking a curated package saves up to %.0f%% over individual bookings.", best*100),
		Impact:     recommend.ImpactMedium,
		Actionable: true,
	}
}

func seasonRule(in ruleInput) *recommend.Insight {
	if in.peak {
		return &recommend.Insight{
			Type:        recommend.InsightTrend,
			Title:       "Peak wedding season",
			Description: "Demand and pricing are at their seasonal high; popular vendors book out early.",
			Impact:      recommend.ImpactMedium,
			Actionable:  true,
		}
	}
	return &recommend.Insight{
		Type:        recommend.InsightTrend,
		Title:       "Off-peak window",
		Description: "Off-peak months often bring lower rates and better vendor availability.",
		Impact:      recommend.ImpactLow,
		Actionable:  false,
	}
}

func missingPriorityRule(in ruleInput) *recommend.Insight {
	if len(in.crit.Priorities) == 0 {
		return nil
	}
	covered := make(map[recommend.Category]struct{}, len(in.ranked))
	for _, rec := range in.ranked {
		covered[rec.Category] = struct{}{}
	}
	for _, cat := range in.crit.Priorities {
		if _, ok := covered[cat]; !ok {
			return &recommend.Insight{
				Type:  recommend.InsightRisk,
				Title: "Priority category uncovered",
				Description: fmt.Sprintf(
					"No suitable %s vendors matched your constraints. Widening the budget or location may help.", cat),
				Impact:     recommend.ImpactHigh,
				Actionable: true,
			}
		}
	}
	return nil
}

func largeGuestCountRule(in ruleInput) *recommend.Insight {
	if in.crit.GuestCount <= 150 {
		return nil
	}
	return &recommend.Insight{
		Type:  recommend.InsightBudget,
		Title: "Large guest list",
		Description: fmt.Sprintf(
			"With %d guests, catering and venue costs typically dominate the budget; prioritize those quotes first.",
			in.crit.GuestCount),
		Impact:     recommend.ImpactLow,
		Actionable: true,
	}
}
