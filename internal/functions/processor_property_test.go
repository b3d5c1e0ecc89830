package functions

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/procurehub/core/internal/config"
	"github.com/procurehub/core/internal/database/models"
)

// Without an AI provider configured the processor must run entirely on the
// regex tier, never report a fallback, and still refuse replies that carry
// no extractable fields.

func TestNewProcessor_ModeSelection(t *testing.T) {
	if mode := NewProcessor(nil).Mode(); mode != ExtractorModeLocal {
		t.Errorf("nil config should select local mode, got %v", mode)
	}
	if mode := NewProcessor(&config.Config{}).Mode(); mode != ExtractorModeLocal {
		t.Errorf("empty config should select local mode, got %v", mode)
	}
	cfg := &config.Config{AIProvider: "openai", AIAPIKey: "test-key"}
	if mode := NewProcessor(cfg).Mode(); mode != ExtractorModeAI {
		t.Errorf("configured AI key should select AI mode, got %v", mode)
	}
}

func TestProperty_LocalExtraction(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	processor := NewProcessor(nil)

	// Property: a priced reply extracts in local mode without fallback
	properties.Property("priced_reply_extracts_locally", prop.ForAll(
		func(amount int, days int) bool {
			body := fmt.Sprintf("Our quote is $%d with delivery in %d days.", amount, days)
			result, err := processor.ExtractProposal("Quotation", body)
			if err != nil {
				return false
			}
			return result.ExtractedBy == ExtractorModeLocal &&
				!result.Fallback &&
				result.PriceAmount == float64(amount) &&
				result.DeliveryDays == days &&
				result.ExtractedJSON != ""
		},
		gen.IntRange(1, 999999),
		gen.IntRange(1, 365),
	))

	// Property: replies without extractable fields are refused
	properties.Property("empty_reply_refused", prop.ForAll(
		func(text string) bool {
			_, err := processor.ExtractProposal("Hello", text)
			return err == ErrNothingExtracted
		},
		gen.SliceOfN(40, gen.AlphaChar()).Map(func(chars []rune) string {
			return string(chars)
		}),
	))

	properties.TestingRun(t)
}

func TestProperty_StructureRequestNeverFails(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	processor := NewProcessor(nil)

	// Property: structuring always yields a title and records the tier
	properties.Property("structuring_always_yields_result", prop.ForAll(
		func(text string) bool {
			result := processor.StructureRequest(text)
			return result != nil && result.Title != "" && result.StructuredBy == ExtractorModeLocal
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestExtractProposal_EmptyAIResultFallsBack checks that a syntactically
// valid AI extraction carrying no usable field still gets the regex tier
// before ErrNothingExtracted is considered
func TestExtractProposal_EmptyAIResultFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant",`+
			`"content":"{\"price_amount\":0,\"price_currency\":\"USD\",\"delivery_days\":0,\"payment_terms\":\"\",\"warranty\":\"\",\"summary\":\"\"}"}}]}`)
	}))
	defer server.Close()

	processor := NewProcessor(&config.Config{
		AIProvider: "openai",
		AIAPIKey:   "test-key",
		AIBaseURL:  server.URL,
	})
	if processor.Mode() != ExtractorModeAI {
		t.Fatal("expected AI mode")
	}

	body := "Total price: $18,000 with delivery in 14 days. Net 30."
	result, err := processor.ExtractProposal("Re: RFP-ABCD1234", body)
	if err != nil {
		t.Fatalf("expected the regex tier to recover the proposal, got %v", err)
	}
	if result.ExtractedBy != ExtractorModeLocal || !result.Fallback {
		t.Errorf("expected a regex fallback result, got by=%v fallback=%v", result.ExtractedBy, result.Fallback)
	}
	if result.PriceAmount != 18000 || result.DeliveryDays != 14 {
		t.Errorf("expected 18000/14 days, got %v/%v", result.PriceAmount, result.DeliveryDays)
	}
	if result.PaymentTerms == "" {
		t.Error("expected payment terms from the regex tier")
	}
}

// TestScoreProposal_LocalTier checks heuristic scoring through the processor
func TestScoreProposal_LocalTier(t *testing.T) {
	processor := NewProcessor(nil)
	rfp := &models.RFP{Title: "Laptops", ReferenceCode: "RFP-ABCD1234", BudgetAmount: 10000, BudgetCurrency: "USD"}
	proposal := &models.Proposal{PriceAmount: 8000, PriceCurrency: "USD", DeliveryDays: 14, PaymentTerms: "Net 30"}

	score, evaluation, tier := processor.ScoreProposal(rfp, proposal)
	if tier != ExtractorModeLocal {
		t.Errorf("expected local tier, got %v", tier)
	}
	if score <= 0 || score > 100 {
		t.Errorf("score out of range: %v", score)
	}
	if evaluation == "" {
		t.Error("expected a non-empty evaluation")
	}
}

// TestGenerateInvitation_ContainsReferenceCode checks the invitation subject
// carries the code vendors must keep in their replies
func TestGenerateInvitation_ContainsReferenceCode(t *testing.T) {
	processor := NewProcessor(nil)
	rfp := &models.RFP{
		Title:         "Office chairs",
		ReferenceCode: "RFP-1A2B3C4D",
		Description:   "Ergonomic chairs for the new floor",
	}
	vendor := &models.Vendor{Name: "Acme Seating", Email: "sales@acme.test"}

	subject, body := processor.GenerateInvitation(rfp, vendor)
	if subject == "" || body == "" {
		t.Fatal("expected non-empty subject and body")
	}
	if !strings.Contains(subject, rfp.ReferenceCode) {
		t.Errorf("subject %q should contain %q", subject, rfp.ReferenceCode)
	}
}
