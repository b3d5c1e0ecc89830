package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/procurehub/core/internal/services"
)

// WebhookHandler receives inbound email deliveries from the mail provider
type WebhookHandler struct {
	inboundService *services.InboundService
}

// NewWebhookHandler creates a new WebhookHandler instance
func NewWebhookHandler(inboundService *services.InboundService) *WebhookHandler {
	return &WebhookHandler{inboundService: inboundService}
}

// InboundEmailRequest is the webhook delivery payload. Providers that post
// raw MIME set raw; others post the parsed fields directly.
type InboundEmailRequest struct {
	ExternalID string `json:"external_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	HTMLBody   string `json:"html_body"`
	Raw        string `json:"raw"`
	ReceivedAt string `json:"received_at"`
}

// ReceiveInboundEmail ingests one vendor reply. Ingestion always stores the
// email; extraction failures are reported on the stored record, not as HTTP
// errors. Redeliveries return the already stored record.
// POST /api/webhooks/inbound-email
func (h *WebhookHandler) ReceiveInboundEmail(c *gin.Context) {
	var req InboundEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid webhook payload")
		return
	}

	receivedAt := time.Time{}
	if req.ReceivedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, req.ReceivedAt); err == nil {
			receivedAt = parsed
		}
	}

	email, err := h.inboundService.ProcessInbound(services.InboundEmailPayload{
		ExternalID: req.ExternalID,
		From:       req.From,
		To:         req.To,
		Subject:    req.Subject,
		Body:       req.Body,
		HTMLBody:   req.HTMLBody,
		Raw:        req.Raw,
		ReceivedAt: receivedAt,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidInboundPayload) {
			badRequest(c, "external_id and from are required")
			return
		}
		internalError(c, "Failed to ingest inbound email")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    email,
	})
}

// GetInboundEmail returns one stored inbound email
// GET /api/inbound-emails/:id
func (h *WebhookHandler) GetInboundEmail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	email, err := h.inboundService.GetInboundByID(id)
	if err != nil {
		if errors.Is(err, services.ErrInboundEmailNotFound) {
			notFound(c, "Inbound email not found")
			return
		}
		internalError(c, "Failed to retrieve inbound email")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    email,
	})
}

// ListInboundEmails returns stored inbound emails, newest first
// GET /api/inbound-emails
func (h *WebhookHandler) ListInboundEmails(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	opts := services.InboundListOptions{Page: page, Limit: limit}
	if rfpID, err := strconv.ParseUint(c.Query("rfp_id"), 10, 32); err == nil {
		opts.RFPID = uint(rfpID)
	}
	if processed := c.Query("processed"); processed != "" {
		value := processed == "true"
		opts.Processed = &value
	}

	result, err := h.inboundService.ListInbound(opts)
	if err != nil {
		internalError(c, "Failed to retrieve inbound emails")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"emails": result.Emails,
			"total":  result.Total,
			"page":   result.Page,
			"limit":  result.Limit,
		},
	})
}
