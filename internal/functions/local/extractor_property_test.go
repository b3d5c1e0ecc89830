package local

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// For any vendor reply carrying a reference code, a price, a delivery time,
// payment terms or a decline phrase, the regex tier should recover the field
// regardless of surrounding text.

func TestProperty_ReferenceCodeExtraction(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	// Generator for random text prefix/suffix
	randomTextGen := gen.SliceOfN(20, gen.AlphaChar()).Map(func(chars []rune) string {
		return string(chars)
	})

	// Property: any embedded reference code is extracted and normalized
	properties.Property("embedded_reference_code_extracted", prop.ForAll(
		func(n uint32, prefix, suffix string) bool {
			code := fmt.Sprintf("%08X", n)
			content := fmt.Sprintf("%s RFP-%s %s", prefix, code, suffix)
			return ExtractReferenceCode(content) == "RFP-"+code
		},
		gen.UInt32(),
		randomTextGen,
		randomTextGen,
	))

	// Property: lowercase codes are normalized to uppercase
	properties.Property("lowercase_reference_code_normalized", prop.ForAll(
		func(n uint32) bool {
			code := fmt.Sprintf("%08x", n)
			content := fmt.Sprintf("Re: your rfp-%s invitation", code)
			return ExtractReferenceCode(content) == fmt.Sprintf("RFP-%08X", n)
		},
		gen.UInt32(),
	))

	// Property: text without a code yields ""
	properties.Property("no_code_yields_empty", prop.ForAll(
		func(text string) bool {
			return ExtractReferenceCode(text) == ""
		},
		gen.SliceOfN(40, gen.AlphaChar()).Map(func(chars []rune) string {
			return string(chars)
		}),
	))

	properties.TestingRun(t)
}

func TestProperty_PriceExtraction(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	randomTextGen := gen.SliceOfN(15, gen.AlphaChar()).Map(func(chars []rune) string {
		return string(chars)
	})

	// Property: a total-anchored dollar amount is extracted as USD
	properties.Property("total_anchored_price_extracted", prop.ForAll(
		func(amount int, prefix, suffix string) bool {
			content := fmt.Sprintf("%s Total price: $%d %s", prefix, amount, suffix)
			fields := ExtractProposal("Quotation", content)
			return fields.PriceAmount == float64(amount) && fields.PriceCurrency == "USD"
		},
		gen.IntRange(1, 999999),
		randomTextGen,
		randomTextGen,
	))

	// Property: thousand separators do not change the parsed amount
	properties.Property("thousand_separators_ignored", prop.ForAll(
		func(thousands int) bool {
			content := fmt.Sprintf("Our quote is $%d,000 for the full order", thousands)
			fields := ExtractProposal("Quote", content)
			return fields.PriceAmount == float64(thousands)*1000
		},
		gen.IntRange(1, 999),
	))

	// Property: trailing ISO codes are recognized
	properties.Property("trailing_currency_code_recognized", prop.ForAll(
		func(amount int) bool {
			content := fmt.Sprintf("We can supply the lot for %d EUR all inclusive", amount)
			fields := ExtractProposal("Offer", content)
			return fields.PriceAmount == float64(amount) && fields.PriceCurrency == "EUR"
		},
		gen.IntRange(1, 999999),
	))

	properties.TestingRun(t)
}

func TestProperty_DeliveryExtraction(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	// Property: "delivery in N days" yields N
	properties.Property("delivery_days_extracted", prop.ForAll(
		func(days int) bool {
			content := fmt.Sprintf("We offer delivery in %d days after order confirmation", days)
			fields := ExtractProposal("Quote", content)
			return fields.DeliveryDays == days
		},
		gen.IntRange(1, 730),
	))

	// Property: weeks are converted to days
	properties.Property("delivery_weeks_converted", prop.ForAll(
		func(weeks int) bool {
			content := fmt.Sprintf("Lead time: %d weeks from purchase order", weeks)
			fields := ExtractProposal("Quote", content)
			return fields.DeliveryDays == weeks*7
		},
		gen.IntRange(1, 52),
	))

	// Property: months are converted to days
	properties.Property("delivery_months_converted", prop.ForAll(
		func(months int) bool {
			content := fmt.Sprintf("Shipping within %d months of contract signing", months)
			fields := ExtractProposal("Quote", content)
			return fields.DeliveryDays == months*30
		},
		gen.IntRange(1, 12),
	))

	properties.TestingRun(t)
}

func TestProperty_PaymentTermsAndWarranty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	// Property: "Net N" terms are normalized
	properties.Property("net_terms_normalized", prop.ForAll(
		func(days int) bool {
			content := fmt.Sprintf("Payment terms: Net %d from invoice date", days)
			fields := ExtractProposal("Quote", content)
			return fields.PaymentTerms == fmt.Sprintf("Net %d", days)
		},
		gen.IntRange(7, 120),
	))

	// Property: upfront percentages are normalized
	properties.Property("upfront_percentage_normalized", prop.ForAll(
		func(percent int) bool {
			content := fmt.Sprintf("We require %d%% upfront, balance on delivery", percent)
			fields := ExtractProposal("Quote", content)
			return fields.PaymentTerms == fmt.Sprintf("%d%% upfront", percent)
		},
		gen.IntRange(10, 90),
	))

	// Property: year warranties are pluralized correctly
	properties.Property("year_warranty_extracted", prop.ForAll(
		func(years int) bool {
			content := fmt.Sprintf("All units come with a %d-year warranty", years)
			fields := ExtractProposal("Quote", content)
			expected := fmt.Sprintf("%d years", years)
			if years == 1 {
				expected = "1 year"
			}
			return fields.Warranty == expected
		},
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

func TestProperty_DeclineDetection(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	randomTextGen := gen.SliceOfN(20, gen.AlphaChar()).Map(func(chars []rune) string {
		return string(chars)
	})

	// Property: any decline phrase is detected regardless of surrounding text
	properties.Property("decline_phrase_detected", prop.ForAll(
		func(phrase, prefix, suffix string) bool {
			return DetectDecline("Re: RFP", prefix+" "+phrase+" "+suffix)
		},
		gen.OneConstOf(
			"decline to bid", "unable to quote", "cannot quote",
			"will not be bidding", "pass on this opportunity", "no-bid",
		),
		randomTextGen,
		randomTextGen,
	))

	// Property: plain alpha text is never a decline
	properties.Property("plain_text_not_decline", prop.ForAll(
		func(text string) bool {
			return !DetectDecline("Quotation", text)
		},
		gen.SliceOfN(30, gen.NumChar()).Map(func(chars []rune) string {
			return string(chars)
		}),
	))

	properties.TestingRun(t)
}

// TestExtractProposal_NothingFound checks that content without any
// recognizable field leaves the result zero-valued
func TestExtractProposal_NothingFound(t *testing.T) {
	fields := ExtractProposal("Hello", "Thanks for reaching out, we will review internally.")
	if fields.PriceAmount != 0 || fields.DeliveryDays != 0 || fields.PaymentTerms != "" || fields.Warranty != "" {
		t.Errorf("expected zero-valued fields, got %+v", fields)
	}
}

// TestExtractProposal_HTMLContent checks that HTML markup does not block
// extraction
func TestExtractProposal_HTMLContent(t *testing.T) {
	body := "<html><body><p>Our quote is <b>$4,500</b> with delivery in 10 days.</p></body></html>"
	fields := ExtractProposal("Quotation", body)
	if fields.PriceAmount != 4500 {
		t.Errorf("expected price 4500, got %v", fields.PriceAmount)
	}
	if fields.DeliveryDays != 10 {
		t.Errorf("expected 10 delivery days, got %v", fields.DeliveryDays)
	}
}
