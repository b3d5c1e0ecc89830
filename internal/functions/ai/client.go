package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotConfigured indicates the AI client is not configured
	ErrNotConfigured = errors.New("AI client not configured")
	// ErrAPICallFailed indicates the AI API call failed
	ErrAPICallFailed = errors.New("AI API call failed")
	// ErrInvalidResponse indicates an invalid response from the AI API
	ErrInvalidResponse = errors.New("invalid AI API response")
)

// Provider represents an AI provider
type Provider string

const (
	// ProviderOpenAI represents OpenAI API
	ProviderOpenAI Provider = "openai"
	// ProviderAzure represents Azure OpenAI API
	ProviderAzure Provider = "azure"
	// ProviderClaude represents Anthropic Claude API
	ProviderClaude Provider = "claude"
	// ProviderCustom represents a custom API endpoint
	ProviderCustom Provider = "custom"
)

// Client handles AI API communication for the procurement workflow:
// structuring requests, extracting and scoring proposals, comparing
// vendors and generating invitation emails
type Client struct {
	provider   Provider
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	configured bool
}

// NewClient creates a new AI Client instance
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configure configures the AI client with provider settings
func (c *Client) Configure(provider, apiKey, model string) {
	c.ConfigureWithBaseURL(provider, apiKey, model, "")
}

// ConfigureWithBaseURL configures the AI client with provider settings and custom base URL
func (c *Client) ConfigureWithBaseURL(provider, apiKey, model, baseURL string) {
	c.provider = Provider(strings.ToLower(provider))
	c.apiKey = apiKey
	c.model = model
	c.configured = apiKey != ""

	// Use custom base URL if provided
	if baseURL != "" {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	} else {
		// Set default base URLs based on provider
		switch c.provider {
		case ProviderOpenAI:
			c.baseURL = "https://api.openai.com/v1"
			if c.model == "" {
				c.model = "gpt-4o-mini"
			}
		case ProviderClaude:
			c.baseURL = "https://api.anthropic.com/v1"
			if c.model == "" {
				c.model = "claude-3-haiku-20240307"
			}
		case ProviderAzure:
			// Azure requires custom endpoint
			if c.model == "" {
				c.model = "gpt-35-turbo"
			}
		default:
			c.provider = ProviderOpenAI
			c.baseURL = "https://api.openai.com/v1"
		}
	}
}

// IsConfigured returns whether the client is configured
func (c *Client) IsConfigured() bool {
	return c.configured && c.apiKey != ""
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// sendChatRequest sends a chat completion request to the AI API
func (c *Client) sendChatRequest(messages []ChatMessage, maxTokens int) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	request := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")

	// Set authorization header based on provider
	switch c.provider {
	case ProviderClaude:
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	default:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrAPICallFailed, resp.StatusCode, string(respBody))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrAPICallFailed, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", ErrInvalidResponse
	}

	return chatResp.Choices[0].Message.Content, nil
}

// stripCodeFences removes markdown code fences models wrap JSON in
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// truncate limits content length sent to the model
func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// StructuredRFP is the model's structuring of a natural-language request
type StructuredRFP struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	BudgetAmount   float64  `json:"budget_amount"`
	BudgetCurrency string   `json:"budget_currency"`
	Deadline       string   `json:"deadline"` // YYYY-MM-DD or empty
	Requirements   []string `json:"requirements"`
}

// StructureRequest turns a free-text purchase request into a formal RFP
func (c *Client) StructureRequest(text string) (*StructuredRFP, error) {
	if text == "" {
		return nil, ErrInvalidResponse
	}

	systemPrompt := `You are a procurement assistant. Structure the purchase request into an RFP.
Respond with ONLY a JSON object, no prose, with keys:
  "title": short title (max 120 chars)
  "description": cleaned-up description
  "category": one of "IT Hardware", "Software", "Office Supplies", "Services", "Raw Materials", "Logistics", "Marketing", "Facilities", "General"
  "budget_amount": number, 0 if not mentioned
  "budget_currency": ISO code, "USD" if unclear
  "deadline": "YYYY-MM-DD" or "" if not mentioned
  "requirements": array of requirement strings`

	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "Structure this purchase request:\n\n" + truncate(text, 3000)},
	}

	response, err := c.sendChatRequest(messages, 800)
	if err != nil {
		return nil, err
	}

	var structured StructuredRFP
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &structured); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if structured.Title == "" {
		return nil, ErrInvalidResponse
	}
	if structured.BudgetCurrency == "" {
		structured.BudgetCurrency = "USD"
	}
	return &structured, nil
}

// ProposalExtraction is the model's structured reading of a vendor reply
type ProposalExtraction struct {
	PriceAmount   float64 `json:"price_amount"`
	PriceCurrency string  `json:"price_currency"`
	DeliveryDays  int     `json:"delivery_days"`
	PaymentTerms  string  `json:"payment_terms"`
	Warranty      string  `json:"warranty"`
	Summary       string  `json:"summary"`
}

// ExtractProposal extracts structured proposal data from a vendor email
func (c *Client) ExtractProposal(subject, body string) (*ProposalExtraction, error) {
	content := strings.TrimSpace(body)
	if content == "" {
		return nil, ErrInvalidResponse
	}

	systemPrompt := `You are a procurement assistant. Extract the vendor's proposal from their reply email.
Respond with ONLY a JSON object, no prose, with keys:
  "price_amount": total quoted price as a number, 0 if not stated
  "price_currency": ISO currency code, "USD" if unclear
  "delivery_days": delivery lead time in days, 0 if not stated
  "payment_terms": e.g. "Net 30", "" if not stated
  "warranty": e.g. "2 years", "" if not stated
  "summary": one-sentence summary of the offer`

	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Subject: %s\n\n%s", subject, truncate(content, 4000))},
	}

	response, err := c.sendChatRequest(messages, 500)
	if err != nil {
		return nil, err
	}

	var extraction ProposalExtraction
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &extraction); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if extraction.PriceAmount < 0 || extraction.DeliveryDays < 0 {
		return nil, ErrInvalidResponse
	}
	if extraction.PriceCurrency == "" {
		extraction.PriceCurrency = "USD"
	}
	return &extraction, nil
}

// ProposalScore is the model's evaluation of one proposal
type ProposalScore struct {
	Score      float64 `json:"score"`
	Evaluation string  `json:"evaluation"`
}

// ScoreProposal scores a proposal against its RFP on a 0-100 scale
func (c *Client) ScoreProposal(rfpSummary, proposalSummary string) (*ProposalScore, error) {
	systemPrompt := `You are a procurement evaluator. Score the vendor proposal against the RFP.
Respond with ONLY a JSON object, no prose, with keys:
  "score": number from 0 to 100 (price fit, delivery fit, terms, completeness)
  "evaluation": 2-3 sentence justification`

	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("RFP:\n%s\n\nProposal:\n%s", truncate(rfpSummary, 1500), truncate(proposalSummary, 1500))},
	}

	response, err := c.sendChatRequest(messages, 400)
	if err != nil {
		return nil, err
	}

	var score ProposalScore
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &score); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if score.Score < 0 || score.Score > 100 {
		return nil, ErrInvalidResponse
	}
	return &score, nil
}

// CompareProposals produces a cross-vendor recommendation for an RFP
func (c *Client) CompareProposals(rfpSummary string, proposalSummaries []string) (string, error) {
	if len(proposalSummaries) == 0 {
		return "", ErrInvalidResponse
	}

	systemPrompt := `You are a procurement evaluator. Compare the vendor proposals for the RFP and recommend one.
Write 3-5 plain sentences: the recommended vendor and why, plus notable trade-offs. No JSON, no markdown.`

	var sb strings.Builder
	fmt.Fprintf(&sb, "RFP:\n%s\n\nProposals:\n", truncate(rfpSummary, 1200))
	for i, summary := range proposalSummaries {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, truncate(summary, 600))
	}

	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: sb.String()},
	}

	response, err := c.sendChatRequest(messages, 500)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// GeneratedEmail is a model-written invitation email
type GeneratedEmail struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// GenerateRFPEmail writes an invitation email for a vendor. The reference
// code must appear in the subject so replies can be matched to the RFP.
func (c *Client) GenerateRFPEmail(referenceCode, rfpSummary, vendorName string) (*GeneratedEmail, error) {
	systemPrompt := `You are a procurement assistant. Write a professional RFP invitation email to a vendor.
Respond with ONLY a JSON object, no prose, with keys "subject" and "body".
The subject MUST contain the RFP reference code verbatim.
The body must ask for total price, delivery lead time, payment terms and warranty, and ask the vendor to keep the reference code in their reply subject.`

	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Reference code: %s\nVendor: %s\n\nRFP:\n%s", referenceCode, vendorName, truncate(rfpSummary, 2000))},
	}

	response, err := c.sendChatRequest(messages, 800)
	if err != nil {
		return nil, err
	}

	var email GeneratedEmail
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if email.Subject == "" || email.Body == "" {
		return nil, ErrInvalidResponse
	}
	if !strings.Contains(email.Subject, referenceCode) {
		return nil, ErrInvalidResponse
	}
	return &email, nil
}
