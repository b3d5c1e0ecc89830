package local

import (
	"regexp"
	"strings"
	"time"
)

// Category keywords for classifying purchase requests
var categoryKeywords = map[string][]string{
	"IT Hardware":         {"laptop", "desktop", "server", "monitor", "printer", "router", "switch", "hardware", "workstation"},
	"Software":            {"software", "license", "subscription", "saas", "application", "platform"},
	"Office Supplies":     {"stationery", "paper", "toner", "furniture", "desk", "chair", "office supplies"},
	"Services":            {"consulting", "maintenance", "support", "installation", "training", "service"},
	"Raw Materials":       {"steel", "cement", "lumber", "fabric", "chemicals", "raw material"},
	"Logistics":           {"shipping", "freight", "transport", "courier", "warehousing", "logistics"},
	"Marketing":           {"advertising", "campaign", "branding", "design", "marketing"},
	"Facilities":          {"cleaning", "security", "catering", "hvac", "electrical", "plumbing", "facilities"},
}

var budgetPattern = regexp.MustCompile(`(?i)(?:budget|up\s+to|maximum|max|around|approx(?:imately)?)[^0-9$€£₹]{0,15}([$€£₹]|USD|EUR|GBP|INR)?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)\s*(k|K)?`)

var deadlinePatterns = []*regexp.Regexp{
	// "by 2026-03-15", "before 2026/03/15"
	regexp.MustCompile(`(?i)(?:by|before|deadline|due)\s+(\d{4})[-/](\d{1,2})[-/](\d{1,2})`),
	// "within 30 days", "in 6 weeks"
	regexp.MustCompile(`(?i)(?:within|in)\s+(\d{1,3})\s*(day|week|month)s?`),
}

var quantityPattern = regexp.MustCompile(`(?i)\b(\d{1,6})\s*(?:x|units?|pcs|pieces|items?|licenses?|seats?)\b`)

// StructuredRequest is the fallback structuring of a natural-language
// purchase request
type StructuredRequest struct {
	Title          string
	Description    string
	Category       string
	BudgetAmount   float64
	BudgetCurrency string
	DeadlineAt     *time.Time
	Requirements   []string
}

// StructureRequest structures a free-text purchase request using heuristics.
// Used when the AI structurer is unavailable.
func StructureRequest(text string) StructuredRequest {
	normalized := normalizeContent(text)

	req := StructuredRequest{
		Title:       deriveTitle(normalized),
		Description: normalized,
		Category:    classifyCategory(normalized),
	}

	if match := budgetPattern.FindStringSubmatch(normalized); match != nil {
		if amount, err := parseAmount(match[2]); err == nil {
			if match[3] != "" {
				amount *= 1000
			}
			req.BudgetAmount = amount
			req.BudgetCurrency = normalizeCurrency(match[1])
			if req.BudgetCurrency == "" {
				req.BudgetCurrency = "USD"
			}
		}
	}

	req.DeadlineAt = extractDeadline(normalized)
	req.Requirements = extractRequirements(normalized)

	return req
}

// deriveTitle uses the first sentence, truncated to a subject-sized line
func deriveTitle(text string) string {
	title := text
	for _, sep := range []string{". ", "\n", "; "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
		}
	}
	title = strings.TrimSpace(title)
	if len(title) > 120 {
		cut := title[:120]
		if idx := strings.LastIndex(cut, " "); idx > 60 {
			cut = cut[:idx]
		}
		title = cut
	}
	if title == "" {
		title = "Purchase request"
	}
	return title
}

// classifyCategory picks the category with the most keyword matches
func classifyCategory(text string) string {
	lower := strings.ToLower(text)
	bestCategory := "General"
	bestCount := 0
	for category, keywords := range categoryKeywords {
		count := 0
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			bestCategory = category
		}
	}
	return bestCategory
}

// extractDeadline parses an explicit date or a relative duration
func extractDeadline(text string) *time.Time {
	if match := deadlinePatterns[0].FindStringSubmatch(text); match != nil {
		if t, err := time.Parse("2006-1-2", match[1]+"-"+match[2]+"-"+match[3]); err == nil && t.After(time.Now()) {
			return &t
		}
	}
	if match := deadlinePatterns[1].FindStringSubmatch(text); match != nil {
		n := 0
		for _, c := range match[1] {
			n = n*10 + int(c-'0')
		}
		switch strings.ToLower(match[2]) {
		case "week":
			n *= 7
		case "month":
			n *= 30
		}
		if n > 0 && n <= 730 {
			t := time.Now().AddDate(0, 0, n)
			return &t
		}
	}
	return nil
}

// extractRequirements collects quantity mentions and bullet-like fragments
func extractRequirements(text string) []string {
	var requirements []string
	seen := make(map[string]bool)

	for _, match := range quantityPattern.FindAllString(text, -1) {
		req := strings.TrimSpace(match)
		if !seen[req] {
			seen[req] = true
			requirements = append(requirements, req)
		}
	}

	// Sentences containing requirement verbs
	for _, sentence := range strings.Split(text, ". ") {
		lower := strings.ToLower(sentence)
		if strings.Contains(lower, "must ") || strings.Contains(lower, "should ") ||
			strings.Contains(lower, "require") || strings.Contains(lower, "need ") {
			req := strings.TrimSpace(sentence)
			if len(req) > 10 && !seen[req] {
				seen[req] = true
				requirements = append(requirements, req)
			}
		}
	}

	return requirements
}
