package local

import (
	"fmt"
	"sort"
	"strings"
)

// ScoreInput holds the proposal and RFP facts the heuristic scorer works from
type ScoreInput struct {
	PriceAmount    float64
	DeliveryDays   int
	PaymentTerms   string
	Warranty       string
	BudgetAmount   float64
	DeadlineDays   int // Days until the RFP deadline, 0 if none
	FallbackParsed bool
}

// ScoreBreakdown represents the component scores of a heuristic evaluation
type ScoreBreakdown struct {
	Total         float64
	PriceScore    float64
	DeliveryScore float64
	TermsScore    float64
	Completeness  float64
}

// ScoreProposal produces a 0-100 score and a short evaluation text without
// calling the AI service. Price against budget dominates; delivery fit,
// payment terms and field completeness refine it.
func ScoreProposal(in ScoreInput) (float64, string) {
	breakdown := CalculateScore(in)
	return breakdown.Total, buildEvaluation(in, breakdown)
}

// CalculateScore computes the weighted component scores
func CalculateScore(in ScoreInput) ScoreBreakdown {
	b := ScoreBreakdown{}

	// Price vs budget (weight: 50)
	switch {
	case in.PriceAmount <= 0:
		b.PriceScore = 0
	case in.BudgetAmount <= 0:
		// No budget to compare against; neutral credit for having a price
		b.PriceScore = 30
	default:
		ratio := in.PriceAmount / in.BudgetAmount
		switch {
		case ratio <= 0.6:
			b.PriceScore = 50
		case ratio <= 1.0:
			// Linear from 50 down to 35 as the price approaches budget
			b.PriceScore = 35 + 15*(1.0-ratio)/0.4
		case ratio <= 1.2:
			b.PriceScore = 20
		default:
			b.PriceScore = 5
		}
	}

	// Delivery (weight: 25)
	switch {
	case in.DeliveryDays <= 0:
		b.DeliveryScore = 5
	case in.DeadlineDays > 0 && in.DeliveryDays > in.DeadlineDays:
		b.DeliveryScore = 5
	case in.DeliveryDays <= 14:
		b.DeliveryScore = 25
	case in.DeliveryDays <= 45:
		b.DeliveryScore = 18
	default:
		b.DeliveryScore = 10
	}

	// Payment terms and warranty (weight: 15)
	if in.PaymentTerms != "" {
		b.TermsScore += 8
		if strings.HasPrefix(strings.ToLower(in.PaymentTerms), "net") {
			b.TermsScore += 2
		}
	}
	if in.Warranty != "" {
		b.TermsScore += 5
	}

	// Completeness (weight: 10); regex-parsed proposals are less certain
	fieldCount := 0
	if in.PriceAmount > 0 {
		fieldCount++
	}
	if in.DeliveryDays > 0 {
		fieldCount++
	}
	if in.PaymentTerms != "" {
		fieldCount++
	}
	if in.Warranty != "" {
		fieldCount++
	}
	b.Completeness = float64(fieldCount) * 2.5
	if in.FallbackParsed {
		b.Completeness -= 2
	}

	b.Total = b.PriceScore + b.DeliveryScore + b.TermsScore + b.Completeness
	if b.Total < 0 {
		b.Total = 0
	}
	if b.Total > 100 {
		b.Total = 100
	}
	return b
}

// buildEvaluation writes a one-paragraph evaluation from the breakdown
func buildEvaluation(in ScoreInput, b ScoreBreakdown) string {
	var parts []string

	switch {
	case in.PriceAmount <= 0:
		parts = append(parts, "No price could be determined.")
	case in.BudgetAmount > 0 && in.PriceAmount <= in.BudgetAmount:
		parts = append(parts, fmt.Sprintf("Price %.2f is within budget %.2f.", in.PriceAmount, in.BudgetAmount))
	case in.BudgetAmount > 0:
		parts = append(parts, fmt.Sprintf("Price %.2f exceeds budget %.2f.", in.PriceAmount, in.BudgetAmount))
	default:
		parts = append(parts, fmt.Sprintf("Quoted price %.2f.", in.PriceAmount))
	}

	if in.DeliveryDays > 0 {
		if in.DeadlineDays > 0 && in.DeliveryDays > in.DeadlineDays {
			parts = append(parts, fmt.Sprintf("Delivery in %d days misses the deadline.", in.DeliveryDays))
		} else {
			parts = append(parts, fmt.Sprintf("Delivery in %d days.", in.DeliveryDays))
		}
	} else {
		parts = append(parts, "Delivery time not stated.")
	}

	if in.PaymentTerms != "" {
		parts = append(parts, "Terms: "+in.PaymentTerms+".")
	}
	if in.Warranty != "" {
		parts = append(parts, "Warranty: "+in.Warranty+".")
	}
	if in.FallbackParsed {
		parts = append(parts, "Fields were parsed heuristically and may be incomplete.")
	}

	return strings.Join(parts, " ")
}

// ComparisonEntry is one proposal in a cross-vendor comparison
type ComparisonEntry struct {
	VendorName   string
	PriceAmount  float64
	DeliveryDays int
	Score        float64
}

// CompareProposals produces a plain-text recommendation without the AI
// service: cheapest, fastest, and highest-scored vendors called out.
func CompareProposals(entries []ComparisonEntry) string {
	if len(entries) == 0 {
		return "No proposals to compare."
	}

	ranked := make([]ComparisonEntry, len(entries))
	copy(ranked, entries)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].PriceAmount < ranked[j].PriceAmount
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "Received %d proposals. ", len(ranked))
	fmt.Fprintf(&sb, "Top ranked: %s (score %.1f", ranked[0].VendorName, ranked[0].Score)
	if ranked[0].PriceAmount > 0 {
		fmt.Fprintf(&sb, ", price %.2f", ranked[0].PriceAmount)
	}
	sb.WriteString("). ")

	if cheapest := cheapestEntry(ranked); cheapest != nil && cheapest.VendorName != ranked[0].VendorName {
		fmt.Fprintf(&sb, "Lowest price: %s at %.2f. ", cheapest.VendorName, cheapest.PriceAmount)
	}
	if fastest := fastestEntry(ranked); fastest != nil && fastest.VendorName != ranked[0].VendorName {
		fmt.Fprintf(&sb, "Fastest delivery: %s in %d days. ", fastest.VendorName, fastest.DeliveryDays)
	}

	return strings.TrimSpace(sb.String())
}

func cheapestEntry(entries []ComparisonEntry) *ComparisonEntry {
	var best *ComparisonEntry
	for i := range entries {
		if entries[i].PriceAmount <= 0 {
			continue
		}
		if best == nil || entries[i].PriceAmount < best.PriceAmount {
			best = &entries[i]
		}
	}
	return best
}

func fastestEntry(entries []ComparisonEntry) *ComparisonEntry {
	var best *ComparisonEntry
	for i := range entries {
		if entries[i].DeliveryDays <= 0 {
			continue
		}
		if best == nil || entries[i].DeliveryDays < best.DeliveryDays {
			best = &entries[i]
		}
	}
	return best
}
