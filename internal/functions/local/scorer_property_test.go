package local

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// For any proposal facts, the heuristic score must stay within 0-100, its
// components must stay within their weights, and a cheaper proposal must
// never score worse than a dearer one that is otherwise identical.

func TestProperty_ScoreBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	inputGen := gen.Struct(reflect.TypeOf(ScoreInput{}), map[string]gopter.Gen{
		"PriceAmount":    gen.Float64Range(0, 1e7),
		"DeliveryDays":   gen.IntRange(0, 365),
		"BudgetAmount":   gen.Float64Range(0, 1e7),
		"DeadlineDays":   gen.IntRange(0, 180),
		"FallbackParsed": gen.Bool(),
	})

	properties.Property("total_score_within_bounds", prop.ForAll(
		func(in ScoreInput) bool {
			score, evaluation := ScoreProposal(in)
			return score >= 0 && score <= 100 && evaluation != ""
		},
		inputGen,
	))

	properties.Property("components_within_weights", prop.ForAll(
		func(in ScoreInput) bool {
			b := CalculateScore(in)
			return b.PriceScore >= 0 && b.PriceScore <= 50 &&
				b.DeliveryScore >= 0 && b.DeliveryScore <= 25 &&
				b.TermsScore >= 0 && b.TermsScore <= 15 &&
				b.Completeness <= 10
		},
		inputGen,
	))

	properties.TestingRun(t)
}

func TestProperty_CheaperNeverScoresWorse(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("cheaper_proposal_scores_at_least_as_well", prop.ForAll(
		func(budget, priceA, priceB float64, deliveryDays int) bool {
			if priceA > priceB {
				priceA, priceB = priceB, priceA
			}
			base := ScoreInput{
				DeliveryDays: deliveryDays,
				PaymentTerms: "Net 30",
				BudgetAmount: budget,
			}
			cheap, dear := base, base
			cheap.PriceAmount = priceA
			dear.PriceAmount = priceB

			scoreCheap, _ := ScoreProposal(cheap)
			scoreDear, _ := ScoreProposal(dear)
			return scoreCheap >= scoreDear
		},
		gen.Float64Range(1000, 1e6),
		gen.Float64Range(1, 2e6),
		gen.Float64Range(1, 2e6),
		gen.IntRange(1, 90),
	))

	properties.TestingRun(t)
}

// TestScoreProposal_MissedDeadline checks that delivery beyond the RFP
// deadline collapses the delivery component
func TestScoreProposal_MissedDeadline(t *testing.T) {
	onTime := CalculateScore(ScoreInput{PriceAmount: 100, BudgetAmount: 200, DeliveryDays: 10, DeadlineDays: 30})
	late := CalculateScore(ScoreInput{PriceAmount: 100, BudgetAmount: 200, DeliveryDays: 60, DeadlineDays: 30})
	if late.DeliveryScore >= onTime.DeliveryScore {
		t.Errorf("late delivery score %v should be below on-time score %v", late.DeliveryScore, onTime.DeliveryScore)
	}
	if late.DeliveryScore != 5 {
		t.Errorf("expected floor delivery score for missed deadline, got %v", late.DeliveryScore)
	}
}

// TestCompareProposals_Recommendation checks the fallback comparison names
// the top-ranked, cheapest and fastest vendors
func TestCompareProposals_Recommendation(t *testing.T) {
	result := CompareProposals([]ComparisonEntry{
		{VendorName: "Acme", PriceAmount: 9000, DeliveryDays: 30, Score: 82},
		{VendorName: "Globex", PriceAmount: 7000, DeliveryDays: 45, Score: 75},
		{VendorName: "Initech", PriceAmount: 9500, DeliveryDays: 7, Score: 70},
	})

	for _, want := range []string{"Acme", "Globex", "Initech", "3 proposals"} {
		if !strings.Contains(result, want) {
			t.Errorf("comparison %q should mention %q", result, want)
		}
	}
}

func TestCompareProposals_Empty(t *testing.T) {
	if got := CompareProposals(nil); got != "No proposals to compare." {
		t.Errorf("unexpected empty comparison: %q", got)
	}
}
