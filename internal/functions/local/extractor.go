package local

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// pricePattern pairs a regex with a confidence and the submatch indexes for
// the currency and amount groups. Patterns are ordered by specificity.
type pricePattern struct {
	re         *regexp.Regexp
	confidence float64
	currencyIx int
	amountIx   int
}

var pricePatterns = []pricePattern{
	// "Total price: $12,500.00", "Grand total USD 12500"
	{regexp.MustCompile(`(?i)(?:grand\s+total|total\s+(?:price|cost|amount)|total)[:\s]{0,5}(?:is\s+)?([$€£₹]|USD|EUR|GBP|INR|CAD|AUD)?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`), 1.0, 1, 2},
	// "Our price/quote/bid is $9,800"
	{regexp.MustCompile(`(?i)(?:price|cost|quote|quotation|bid|offer|amount)[:\s]{0,5}(?:is\s+|of\s+)?([$€£₹]|USD|EUR|GBP|INR|CAD|AUD)?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`), 0.9, 1, 2},
	// "$12,500.00" anywhere
	{regexp.MustCompile(`([$€£₹])\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`), 0.7, 1, 2},
	// "12500 USD", "9,800.50 EUR"
	{regexp.MustCompile(`(?i)\b([0-9][0-9,]*(?:\.[0-9]{1,2})?)\s*(USD|EUR|GBP|INR|CAD|AUD)\b`), 0.7, 2, 1},
}

var deliveryPatterns = []*regexp.Regexp{
	// "delivery in 10 days", "lead time: 3 weeks", "shipping within 5 business days"
	regexp.MustCompile(`(?i)(?:delivery|deliver|lead\s*time|turnaround|ship(?:ping|ment)?)[^0-9]{0,30}?(\d{1,3})\s*(business\s+|working\s+|calendar\s+)?(day|week|month)s?`),
	// "within 15 days", "in 2 weeks"
	regexp.MustCompile(`(?i)(?:within|in)\s+(\d{1,3})\s*(business\s+|working\s+|calendar\s+)?(day|week|month)s?`),
	// "10-day delivery", "2 week turnaround"
	regexp.MustCompile(`(?i)(\d{1,3})\s*[- ]\s*()(day|week|month)s?\s+(?:delivery|turnaround|lead)`),
}

var paymentTermsPatterns = []struct {
	re     *regexp.Regexp
	format func(m []string) string
}{
	{regexp.MustCompile(`(?i)\bnet\s*-?\s*(\d{1,3})\b`), func(m []string) string { return "Net " + m[1] }},
	{regexp.MustCompile(`(?i)(\d{1,3})\s*%\s*(?:upfront|advance|deposit|down\s*payment)`), func(m []string) string { return m[1] + "% upfront" }},
	{regexp.MustCompile(`(?i)(\d{1,3})\s*%\s*(?:on|upon)\s+(?:delivery|completion)`), func(m []string) string { return m[1] + "% on delivery" }},
	{regexp.MustCompile(`(?i)(?:payment\s+(?:due\s+)?(?:on|upon)\s+delivery|cash\s+on\s+delivery|\bCOD\b)`), func(m []string) string { return "Payment on delivery" }},
	{regexp.MustCompile(`(?i)payment\s+in\s+advance|full\s+payment\s+upfront|100\s*%\s*advance`), func(m []string) string { return "Payment in advance" }},
}

var warrantyPatterns = []*regexp.Regexp{
	// "2-year warranty", "12 months guarantee"
	regexp.MustCompile(`(?i)(\d{1,3})\s*[- ]?\s*(year|month)s?\s*(?:of\s+)?(?:warranty|guarantee)`),
	// "warranty of 2 years", "warranty: 18 months"
	regexp.MustCompile(`(?i)(?:warranty|guarantee)[^0-9]{0,20}?(\d{1,3})\s*(year|month)s?`),
}

// referenceCodePattern matches the RFP reference code embedded in outbound
// invitation subjects, e.g. "RFP-3FA85F64"
var referenceCodePattern = regexp.MustCompile(`(?i)\bRFP-([A-F0-9]{8})\b`)

// Keywords that indicate an email is a vendor quotation
var proposalKeywords = []string{
	"quote", "quotation", "proposal", "bid", "offer", "pricing",
	"price", "estimate", "cost", "rfp", "tender", "per unit",
}

// Keywords that indicate a vendor is declining to bid
var declineKeywords = []string{
	"decline to bid", "unable to quote", "cannot quote", "will not be bidding",
	"not be participating", "pass on this opportunity", "no-bid", "no bid",
	"unable to participate", "regret to inform you that we cannot",
}

// currencySymbols maps price symbols to ISO codes
var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"₹": "INR",
}

// ProposalFields holds the structured fields extracted from a vendor reply
type ProposalFields struct {
	PriceAmount   float64
	PriceCurrency string
	DeliveryDays  int
	PaymentTerms  string
	Warranty      string
	Confidence    float64
}

// priceCandidate represents a potential price with its confidence score
type priceCandidate struct {
	amount     float64
	currency   string
	confidence float64
	position   int
}

// ExtractProposal extracts proposal fields from a vendor reply using regex
// heuristics. It is the fallback tier used when the AI extractor is
// unavailable; missing fields are left zero-valued.
func ExtractProposal(subject, body string) ProposalFields {
	fields := ProposalFields{}
	content := normalizeContent(subject + "\n" + body)
	if content == "" {
		return fields
	}

	if amount, currency, conf, ok := extractPrice(content); ok {
		fields.PriceAmount = amount
		fields.PriceCurrency = currency
		fields.Confidence = conf
	}
	fields.DeliveryDays = extractDeliveryDays(content)
	fields.PaymentTerms = extractPaymentTerms(content)
	fields.Warranty = extractWarranty(content)

	return fields
}

// extractPrice returns the most likely price mentioned in the content
func extractPrice(content string) (float64, string, float64, bool) {
	var candidates []priceCandidate
	quoteLike := looksLikeProposal(content)

	for _, p := range pricePatterns {
		matches := p.re.FindAllStringSubmatchIndex(content, -1)
		for _, match := range matches {
			groups := expandGroups(content, match)
			if len(groups) <= p.amountIx {
				continue
			}
			amount, err := parseAmount(groups[p.amountIx])
			if err != nil || amount <= 0 {
				continue
			}
			currency := normalizeCurrency(groups[p.currencyIx])

			confidence := p.confidence
			// Bare numbers with no currency marker are only trusted in
			// quote-like emails
			if currency == "" {
				if !quoteLike {
					continue
				}
				confidence -= 0.2
			}
			candidates = append(candidates, priceCandidate{
				amount:     amount,
				currency:   currency,
				confidence: confidence,
				position:   match[0],
			})
		}
	}

	if len(candidates) == 0 {
		return 0, "", 0, false
	}

	// Sort by confidence (descending), then by position (ascending)
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].confidence != candidates[j].confidence {
			return candidates[i].confidence > candidates[j].confidence
		}
		return candidates[i].position < candidates[j].position
	})

	best := candidates[0]
	if best.currency == "" {
		best.currency = "USD"
	}
	return best.amount, best.currency, best.confidence, true
}

// extractDeliveryDays returns the delivery lead time in days, 0 if not found
func extractDeliveryDays(content string) int {
	for _, pattern := range deliveryPatterns {
		match := pattern.FindStringSubmatch(content)
		if len(match) < 4 {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil || n <= 0 || n > 730 {
			continue
		}
		switch strings.ToLower(match[3]) {
		case "week":
			n *= 7
		case "month":
			n *= 30
		}
		return n
	}
	return 0
}

// extractPaymentTerms returns a normalized payment terms string, "" if none
func extractPaymentTerms(content string) string {
	for _, p := range paymentTermsPatterns {
		match := p.re.FindStringSubmatch(content)
		if match != nil {
			return p.format(match)
		}
	}
	return ""
}

// extractWarranty returns a normalized warranty string, "" if none
func extractWarranty(content string) string {
	for _, pattern := range warrantyPatterns {
		match := pattern.FindStringSubmatch(content)
		if len(match) < 3 {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil || n <= 0 {
			continue
		}
		unit := strings.ToLower(match[2])
		if n != 1 {
			unit += "s"
		}
		return match[1] + " " + unit
	}
	return ""
}

// ExtractReferenceCode extracts the RFP reference code from text.
// Returns the normalized code (e.g. "RFP-3FA85F64") or "".
func ExtractReferenceCode(text string) string {
	match := referenceCodePattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return "RFP-" + strings.ToUpper(match[1])
}

// looksLikeProposal checks if the content appears to be a vendor quotation
func looksLikeProposal(content string) bool {
	lower := strings.ToLower(content)
	for _, keyword := range proposalKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// DetectDecline checks whether a vendor reply is declining to bid
func DetectDecline(subject, body string) bool {
	lower := strings.ToLower(subject + " " + body)
	for _, keyword := range declineKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// parseAmount parses a money amount with optional thousand separators
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}

// normalizeCurrency maps symbols and codes to uppercase ISO codes
func normalizeCurrency(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if code, ok := currencySymbols[s]; ok {
		return code
	}
	return strings.ToUpper(s)
}

// expandGroups resolves submatch index pairs into strings, "" for no match
func expandGroups(content string, match []int) []string {
	groups := make([]string, len(match)/2)
	for i := 0; i < len(match); i += 2 {
		if match[i] >= 0 {
			groups[i/2] = content[match[i]:match[i+1]]
		}
	}
	return groups
}

// normalizeContent strips HTML and collapses whitespace for pattern matching
func normalizeContent(content string) string {
	// Remove HTML tags if present
	htmlTagPattern := regexp.MustCompile(`<[^>]*>`)
	content = htmlTagPattern.ReplaceAllString(content, " ")

	// Normalize whitespace
	whitespacePattern := regexp.MustCompile(`\s+`)
	content = whitespacePattern.ReplaceAllString(content, " ")

	// Decode common HTML entities
	content = strings.ReplaceAll(content, "&nbsp;", " ")
	content = strings.ReplaceAll(content, "&amp;", "&")
	content = strings.ReplaceAll(content, "&lt;", "<")
	content = strings.ReplaceAll(content, "&gt;", ">")
	content = strings.ReplaceAll(content, "&quot;", "\"")

	return strings.TrimSpace(content)
}
