package functions

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/procurehub/core/internal/config"
	"github.com/procurehub/core/internal/database/models"
	"github.com/procurehub/core/internal/functions/ai"
	"github.com/procurehub/core/internal/functions/local"
)

var (
	// ErrNothingExtracted indicates neither tier could find any proposal fields
	ErrNothingExtracted = errors.New("no proposal fields could be extracted")
)

// ExtractorMode represents the extraction tier (AI or local regex)
type ExtractorMode string

const (
	// ExtractorModeAI uses the LLM for extraction
	ExtractorModeAI ExtractorMode = "ai"
	// ExtractorModeLocal uses regex heuristics for extraction
	ExtractorModeLocal ExtractorMode = "local"
)

// Processor orchestrates the two-tier (AI / regex-fallback) strategy for
// structuring requests, extracting proposals, scoring and email generation
type Processor struct {
	aiClient *ai.Client
	mode     ExtractorMode
}

// NewProcessor creates a Processor configured from application config
func NewProcessor(cfg *config.Config) *Processor {
	p := &Processor{
		aiClient: ai.NewClient(),
		mode:     ExtractorModeLocal,
	}
	if cfg != nil && cfg.AIConfigured() {
		p.aiClient.ConfigureWithBaseURL(cfg.AIProvider, cfg.AIAPIKey, cfg.AIModel, cfg.AIBaseURL)
		p.mode = ExtractorModeAI
	}
	return p
}

// Mode returns the configured extraction tier
func (p *Processor) Mode() ExtractorMode {
	return p.mode
}

// ExtractionResult is the outcome of extracting a vendor reply
type ExtractionResult struct {
	PriceAmount   float64
	PriceCurrency string
	DeliveryDays  int
	PaymentTerms  string
	Warranty      string
	Summary       string
	ExtractedJSON string
	ExtractedBy   ExtractorMode
	Fallback      bool // True when the AI tier failed and regex was used
	ExtractedAt   time.Time
}

// ExtractProposal extracts structured proposal data from a vendor reply.
// In AI mode an AI failure, or an AI result without a single usable field,
// falls back to the regex tier; the result records which tier produced it.
// ErrNothingExtracted is returned when no usable field was found by either
// tier.
func (p *Processor) ExtractProposal(subject, body string) (*ExtractionResult, error) {
	result := &ExtractionResult{
		ExtractedBy: ExtractorModeLocal,
		ExtractedAt: time.Now(),
	}

	if p.mode == ExtractorModeAI {
		extraction, err := p.aiClient.ExtractProposal(subject, body)
		if err == nil {
			result.ExtractedBy = ExtractorModeAI
			result.PriceAmount = extraction.PriceAmount
			result.PriceCurrency = extraction.PriceCurrency
			result.DeliveryDays = extraction.DeliveryDays
			result.PaymentTerms = extraction.PaymentTerms
			result.Warranty = extraction.Warranty
			result.Summary = extraction.Summary
			result.ExtractedJSON = marshalJSON(extraction)
			if !result.empty() {
				return result, nil
			}
			result.ExtractedBy = ExtractorModeLocal
			result.Summary = ""
		}
		// AI unavailable, returned garbage or found no usable field;
		// the regex tier gets a try before giving up
		result.Fallback = true
	}

	fields := local.ExtractProposal(subject, body)
	result.PriceAmount = fields.PriceAmount
	result.PriceCurrency = fields.PriceCurrency
	result.DeliveryDays = fields.DeliveryDays
	result.PaymentTerms = fields.PaymentTerms
	result.Warranty = fields.Warranty
	result.ExtractedJSON = marshalJSON(fields)

	if result.empty() {
		return nil, ErrNothingExtracted
	}
	return result, nil
}

// empty reports whether no usable field was extracted
func (r *ExtractionResult) empty() bool {
	return r.PriceAmount <= 0 && r.DeliveryDays <= 0 && r.PaymentTerms == "" && r.Warranty == ""
}

// StructureResult is the outcome of structuring a purchase request
type StructureResult struct {
	Title          string
	Description    string
	Category       string
	BudgetAmount   float64
	BudgetCurrency string
	DeadlineAt     *time.Time
	Requirements   []string
	StructuredBy   ExtractorMode
}

// StructureRequest structures a natural-language purchase request into RFP
// fields, falling back to local heuristics when the AI tier fails
func (p *Processor) StructureRequest(text string) *StructureResult {
	if p.mode == ExtractorModeAI {
		structured, err := p.aiClient.StructureRequest(text)
		if err == nil {
			result := &StructureResult{
				Title:          structured.Title,
				Description:    structured.Description,
				Category:       structured.Category,
				BudgetAmount:   structured.BudgetAmount,
				BudgetCurrency: structured.BudgetCurrency,
				Requirements:   structured.Requirements,
				StructuredBy:   ExtractorModeAI,
			}
			if structured.Deadline != "" {
				if t, err := time.Parse("2006-01-02", structured.Deadline); err == nil {
					result.DeadlineAt = &t
				}
			}
			return result
		}
	}

	structured := local.StructureRequest(text)
	return &StructureResult{
		Title:          structured.Title,
		Description:    structured.Description,
		Category:       structured.Category,
		BudgetAmount:   structured.BudgetAmount,
		BudgetCurrency: structured.BudgetCurrency,
		DeadlineAt:     structured.DeadlineAt,
		Requirements:   structured.Requirements,
		StructuredBy:   ExtractorModeLocal,
	}
}

// ScoreProposal scores a proposal against its RFP, heuristically when the AI
// tier fails. Returns score, evaluation text and the tier that produced them.
func (p *Processor) ScoreProposal(rfp *models.RFP, proposal *models.Proposal) (float64, string, ExtractorMode) {
	if p.mode == ExtractorModeAI {
		score, err := p.aiClient.ScoreProposal(describeRFP(rfp), describeProposal(proposal))
		if err == nil {
			return score.Score, score.Evaluation, ExtractorModeAI
		}
	}

	in := local.ScoreInput{
		PriceAmount:    proposal.PriceAmount,
		DeliveryDays:   proposal.DeliveryDays,
		PaymentTerms:   proposal.PaymentTerms,
		Warranty:       proposal.Warranty,
		BudgetAmount:   rfp.BudgetAmount,
		FallbackParsed: proposal.FallbackParsed,
	}
	if rfp.DeadlineAt != nil {
		days := int(time.Until(*rfp.DeadlineAt).Hours() / 24)
		if days > 0 {
			in.DeadlineDays = days
		}
	}
	score, evaluation := local.ScoreProposal(in)
	return score, evaluation, ExtractorModeLocal
}

// CompareProposals produces a cross-vendor recommendation for an RFP
func (p *Processor) CompareProposals(rfp *models.RFP, proposals []models.Proposal) string {
	if p.mode == ExtractorModeAI {
		summaries := make([]string, 0, len(proposals))
		for i := range proposals {
			summaries = append(summaries, describeProposal(&proposals[i]))
		}
		comparison, err := p.aiClient.CompareProposals(describeRFP(rfp), summaries)
		if err == nil {
			return comparison
		}
	}

	entries := make([]local.ComparisonEntry, 0, len(proposals))
	for i := range proposals {
		entry := local.ComparisonEntry{
			PriceAmount:  proposals[i].PriceAmount,
			DeliveryDays: proposals[i].DeliveryDays,
		}
		if proposals[i].AIScore != nil {
			entry.Score = *proposals[i].AIScore
		}
		if proposals[i].Vendor != nil {
			entry.VendorName = proposals[i].Vendor.Name
		} else {
			entry.VendorName = fmt.Sprintf("vendor #%d", proposals[i].VendorID)
		}
		entries = append(entries, entry)
	}
	return local.CompareProposals(entries)
}

// GenerateInvitation writes the invitation email for one vendor, using the
// template fallback when the AI tier fails
func (p *Processor) GenerateInvitation(rfp *models.RFP, vendor *models.Vendor) (subject, body string) {
	if p.mode == ExtractorModeAI {
		email, err := p.aiClient.GenerateRFPEmail(rfp.ReferenceCode, describeRFP(rfp), vendor.Name)
		if err == nil {
			return email.Subject, email.Body
		}
	}

	return local.GenerateInvitation(local.InvitationInput{
		ReferenceCode: rfp.ReferenceCode,
		Title:         rfp.Title,
		Description:   rfp.Description,
		Requirements:  unmarshalRequirements(rfp.RequirementsJSON),
		DeadlineAt:    rfp.DeadlineAt,
		VendorName:    vendor.Name,
		ContactName:   vendor.ContactName,
	})
}

// describeRFP renders the RFP facts the model needs for scoring and comparison
func describeRFP(rfp *models.RFP) string {
	desc := fmt.Sprintf("%s (%s)\nCategory: %s\nBudget: %.2f %s",
		rfp.Title, rfp.ReferenceCode, rfp.Category, rfp.BudgetAmount, rfp.BudgetCurrency)
	if rfp.DeadlineAt != nil {
		desc += "\nDeadline: " + rfp.DeadlineAt.Format("2006-01-02")
	}
	if rfp.Description != "" {
		desc += "\n" + rfp.Description
	}
	if reqs := unmarshalRequirements(rfp.RequirementsJSON); len(reqs) > 0 {
		desc += "\nRequirements:"
		for _, req := range reqs {
			desc += "\n- " + req
		}
	}
	return desc
}

// describeProposal renders the proposal facts for scoring and comparison
func describeProposal(proposal *models.Proposal) string {
	vendorName := fmt.Sprintf("vendor #%d", proposal.VendorID)
	if proposal.Vendor != nil {
		vendorName = proposal.Vendor.Name
	}
	desc := fmt.Sprintf("%s: price %.2f %s, delivery %d days",
		vendorName, proposal.PriceAmount, proposal.PriceCurrency, proposal.DeliveryDays)
	if proposal.PaymentTerms != "" {
		desc += ", terms " + proposal.PaymentTerms
	}
	if proposal.Warranty != "" {
		desc += ", warranty " + proposal.Warranty
	}
	if proposal.Summary != "" {
		desc += ". " + proposal.Summary
	}
	if proposal.FallbackParsed {
		desc += " (regex-parsed)"
	}
	return desc
}

// unmarshalRequirements decodes the stored requirements JSON array
func unmarshalRequirements(requirementsJSON string) []string {
	if requirementsJSON == "" {
		return nil
	}
	var reqs []string
	if err := json.Unmarshal([]byte(requirementsJSON), &reqs); err != nil {
		return nil
	}
	return reqs
}

// marshalJSON serializes an extraction payload, "" on failure
func marshalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
