// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

package scoring

import (
	"testing"
	"time"

	"github.com/aisleplan/aisleplan/internal/recommend"
)

var offPeak = time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)

func normalized(raw recommend.RawCriteria) recommend.Criteria {
	return recommend.DefaultConfig().Normalize(raw)
}

// Scenario: a well-rated, well-reviewed, affordable priority-category
// service must land in the high tier with low risk.
func TestScoreHighQualityPriorityService(t *testing.T) {
	s := New(nil)
	svc := recommend.Service{
		ID:          "svc-photo",
		Category:    recommend.CategoryPhotography,
		Name:        "Golden Hour Studio",
		Rating:      4.9,
		ReviewCount: 150,
		BasePrice:   5000,
		Available:   true,
	}
	crit := normalized(recommend.RawCriteria{
		Budget:             50000,
		PriorityCategories: []recommend.Category{recommend.CategoryPhotography},
	})

	rec := s.Score(svc, crit, offPeak)

	if rec.Score < 65 {
		t.Errorf("Score = %d, want >= 65", rec.Score)
	}
	if rec.PriorityTier != recommend.PriorityHigh {
		t.Errorf("PriorityTier = %q, want high", rec.PriorityTier)
	}
	if rec.RiskLevel != recommend.RiskLow {
		t.Errorf("RiskLevel = %q, want low", rec.RiskLevel)
	}
	if rec.EstimatedCost != 5000*1.15 {
		t.Errorf("EstimatedCost = %v, want %v", rec.EstimatedCost, 5000*1.15)
	}
}

// Scenario: a barely-reviewed service passes the rating floor but is flagged
// high risk.
func TestScoreUnderReviewedService(t *testing.T) {
	s := New(nil)
	svc := recommend.Service{
		ID:          "svc-catering",
		Category:    recommend.CategoryCatering,
		Rating:      3.2,
		ReviewCount: 3,
	}

	rec := s.Score(svc, normalized(recommend.RawCriteria{}), offPeak)

	if rec.RiskLevel != recommend.RiskHigh {
		t.Errorf("RiskLevel = %q, want high", rec.RiskLevel)
	}
	if rec.Rating != 3.2 {
		t.Errorf("Rating = %v, want live 3.2 carried through", rec.Rating)
	}
}

func TestScoreBounds(t *testing.T) {
	s := New(nil)
	crit := normalized(recommend.RawCriteria{
		Budget:             20000,
		Location:           "austin",
		PriorityCategories: []recommend.Category{recommend.CategoryVenue},
	})

	ratings := []float64{-3, 0, 2.5, 3.5, 4.8, 5, 9}
	reviews := []int{-5, 0, 3, 40, 500, 100000}
	prices := []float64{0, 500, 20000, 1e7}

	for _, rating := range ratings {
		for _, rv := range reviews {
			for _, price := range prices {
				svc := recommend.Service{
					ID:          "svc",
					Category:    recommend.CategoryVenue,
					Rating:      rating,
					ReviewCount: rv,
					BasePrice:   price,
					Location:    "Austin, TX",
					Available:   true,
					Features:    []string{"a", "b", "c"},
				}
				rec := s.Score(svc, crit, offPeak)
				if rec.Score < 0 || rec.Score > 100 {
					t.Fatalf("Score = %d out of [0, 100] for rating=%v reviews=%d price=%v",
						rec.Score, rating, rv, price)
				}
				if rec.ValueRating < 0 || rec.ValueRating > 10 {
					t.Fatalf("ValueRating = %d out of [0, 10]", rec.ValueRating)
				}
			}
		}
	}
}

func TestScoreMonotonicInRating(t *testing.T) {
	s := New(nil)
	crit := normalized(recommend.RawCriteria{Budget: 30000})

	prev := -1
	for rating := 0.0; rating <= 5.0; rating += 0.1 {
		svc := recommend.Service{
			ID:          "svc",
			Category:    recommend.CategoryMusic,
			Rating:      rating,
			ReviewCount: 40,
			BasePrice:   4000,
		}
		score := s.Score(svc, crit, offPeak).Score
		if score < prev {
			t.Fatalf("score decreased from %d to %d at rating %v", prev, score, rating)
		}
		prev = score
	}
}

func TestScoreMonotonicInPrice(t *testing.T) {
	s := New(nil)
	crit := normalized(recommend.RawCriteria{Budget: 30000})

	prev := 101
	for price := 1000.0; price <= 80000; price += 1000 {
		svc := recommend.Service{
			ID:          "svc",
			Category:    recommend.CategoryMusic,
			Rating:      4.2,
			ReviewCount: 40,
			BasePrice:   price,
		}
		score := s.Score(svc, crit, offPeak).Score
		if score > prev {
			t.Fatalf("score increased from %d to %d at price %v", prev, score, price)
		}
		prev = score
	}
}

func TestScoreClampsRating(t *testing.T) {
	s := New(nil)
	crit := normalized(recommend.RawCriteria{})

	over := s.Score(recommend.Service{ID: "a", Rating: 7, ReviewCount: 50}, crit, offPeak)
	max := s.Score(recommend.Service{ID: "b", Rating: 5, ReviewCount: 50}, crit, offPeak)
	if over.Score != max.Score {
		t.Errorf("rating 7 scored %d, rating 5 scored %d; want equal after clamping", over.Score, max.Score)
	}
	if over.Rating != 5 {
		t.Errorf("Rating = %v, want clamped to 5", over.Rating)
	}

	under := s.Score(recommend.Service{ID: "c", Rating: -1}, crit, offPeak)
	if under.Rating != 0 {
		t.Errorf("Rating = %v, want clamped to 0", under.Rating)
	}
}

func TestScoreCostFallbacks(t *testing.T) {
	s := New(nil)
	crit := normalized(recommend.RawCriteria{})

	tests := []struct {
		name string
		svc  recommend.Service
		want float64
	}{
		{"premium tier", recommend.Service{ID: "a", PriceTier: recommend.PriceTierPremium}, 8050},
		{"no price info", recommend.Service{ID: "b"}, 2300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.Score(tt.svc, crit, offPeak)
			if rec.EstimatedCost != tt.want {
				t.Errorf("EstimatedCost = %v, want %v", rec.EstimatedCost, tt.want)
			}
		})
	}
}

func TestScoreReasonsCapped(t *testing.T) {
	cfg := recommend.DefaultConfig()
	s := New(cfg)
	crit := normalized(recommend.RawCriteria{
		Budget:             100000,
		Location:           "portland",
		PriorityCategories: []recommend.Category{recommend.CategoryVenue},
	})

	// A service that triggers every reason-bearing factor.
	svc := recommend.Service{
		ID:          "svc",
		Category:    recommend.CategoryVenue,
		Name:        "Rose Hall",
		Rating:      4.9,
		ReviewCount: 20, // rising vendor band
		BasePrice:   3000,
		Location:    "Portland, OR",
		Available:   true,
	}

	rec := s.Score(svc, crit, offPeak)
	if len(rec.Reasons) == 0 {
		t.Fatal("Reasons empty")
	}
	if len(rec.Reasons) > cfg.ReasonCap {
		t.Errorf("len(Reasons) = %d, want <= %d", len(rec.Reasons), cfg.ReasonCap)
	}
	// Highest-weight factor (price fit) leads the list.
	if rec.Reasons[0] != "Fits comfortably within budget (3% of total)" {
		t.Errorf("Reasons[0] = %q, want the price-fit reason first", rec.Reasons[0])
	}
}

func TestScoreLocationMatch(t *testing.T) {
	s := New(nil)

	tests := []struct {
		name      string
		prefer    string
		location  string
		wantMatch bool
	}{
		{"exact substring", "portland", "Portland, OR", true},
		{"token partial", "portland oregon", "Oregon wine country", true},
		{"no overlap", "austin", "Portland, OR", false},
		{"no preference", "", "Portland, OR", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crit := normalized(recommend.RawCriteria{Location: tt.prefer})
			svc := recommend.Service{ID: "svc", Location: tt.location, Rating: 4, ReviewCount: 30}
			rec := s.Score(svc, crit, offPeak)
			if rec.LocationMatch != tt.wantMatch {
				t.Errorf("LocationMatch = %v, want %v", rec.LocationMatch, tt.wantMatch)
			}
		})
	}
}

func TestScoreNoLocationPreferenceIsNeutral(t *testing.T) {
	s := New(nil)
	svc := recommend.Service{ID: "svc", Location: "Nowhere", Rating: 4, ReviewCount: 30}

	noPref := s.Score(svc, normalized(recommend.RawCriteria{}), offPeak)
	mismatch := s.Score(svc, normalized(recommend.RawCriteria{Location: "austin"}), offPeak)

	if noPref.Score <= mismatch.Score {
		t.Errorf("no preference scored %d, mismatch scored %d; absence should be neutral, not penalized",
			noPref.Score, mismatch.Score)
	}
}

func TestScoreSeasonalBonusUsesWeddingDate(t *testing.T) {
	s := New(nil)
	svc := recommend.Service{ID: "svc", Rating: 4, ReviewCount: 100, BasePrice: 3000}

	june := normalized(recommend.RawCriteria{WeddingDate: time.Date(2027, time.June, 5, 0, 0, 0, 0, time.UTC)})
	january := normalized(recommend.RawCriteria{WeddingDate: time.Date(2027, time.January, 5, 0, 0, 0, 0, time.UTC)})

	peakScore := s.Score(svc, june, offPeak).Score
	offScore := s.Score(svc, january, offPeak).Score
	if peakScore <= offScore {
		t.Errorf("peak month scored %d, off-peak %d; want peak higher", peakScore, offScore)
	}
}

func TestScoreSeasonalBonusFallsBackToNow(t *testing.T) {
	s := New(nil)
	svc := recommend.Service{ID: "svc", Rating: 4, ReviewCount: 100, BasePrice: 3000}
	crit := normalized(recommend.RawCriteria{}) // no wedding date

	peakNow := time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC)
	scorePeak := s.Score(svc, crit, peakNow).Score
	scoreOff := s.Score(svc, crit, offPeak).Score
	if scorePeak <= scoreOff {
		t.Errorf("now in peak scored %d, off-peak %d; want peak higher", scorePeak, scoreOff)
	}
}

func TestRiskFor(t *testing.T) {
	tests := []struct {
		rating  float64
		reviews int
		want    recommend.RiskLevel
	}{
		{4.8, 100, recommend.RiskLow},
		{4.0, 25, recommend.RiskLow},
		{4.8, 20, recommend.RiskMedium},
		{3.9, 100, recommend.RiskMedium},
		{4.8, 5, recommend.RiskHigh},
		{3.0, 100, recommend.RiskHigh},
		{0, 0, recommend.RiskHigh},
	}

	for _, tt := range tests {
		if got := RiskFor(tt.rating, tt.reviews); got != tt.want {
			t.Errorf("RiskFor(%v, %d) = %q, want %q", tt.rating, tt.reviews, got, tt.want)
		}
	}
}
