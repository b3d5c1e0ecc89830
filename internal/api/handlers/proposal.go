package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/procurehub/core/internal/services"
)

// ProposalHandler handles proposal related requests
type ProposalHandler struct {
	proposalService *services.ProposalService
}

// NewProposalHandler creates a new ProposalHandler instance
func NewProposalHandler(proposalService *services.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService}
}

// UpdateProposalStatusRequest represents a proposal status change
type UpdateProposalStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetProposal returns one proposal
// GET /api/proposals/:id
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	proposal, err := h.proposalService.GetProposalByID(id)
	if err != nil {
		if errors.Is(err, services.ErrProposalNotFound) {
			notFound(c, "Proposal not found")
			return
		}
		internalError(c, "Failed to retrieve proposal")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    proposal,
	})
}

// UpdateProposalStatus applies a proposal status transition. Accepting a
// proposal awards the RFP and rejects the remaining open proposals.
// PUT /api/proposals/:id/status
func (h *ProposalHandler) UpdateProposalStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateProposalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Status is required")
		return
	}

	proposal, err := h.proposalService.UpdateProposalStatus(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProposalNotFound):
			notFound(c, "Proposal not found")
		case errors.Is(err, services.ErrInvalidProposalStatus):
			badRequest(c, "Invalid proposal status")
		case errors.Is(err, services.ErrInvalidStatusTransition):
			conflict(c, "Status transition not allowed")
		default:
			internalError(c, "Failed to update proposal status")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    proposal,
	})
}

// GetStats reports recent proposal activity
// GET /api/stats
func (h *ProposalHandler) GetStats(c *gin.Context) {
	now := time.Now()
	last24h, err := h.proposalService.CountProposalsSince(now.Add(-24 * time.Hour))
	if err != nil {
		internalError(c, "Failed to compute stats")
		return
	}
	last7d, err := h.proposalService.CountProposalsSince(now.Add(-7 * 24 * time.Hour))
	if err != nil {
		internalError(c, "Failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"proposals_last_24h": last24h,
			"proposals_last_7d":  last7d,
		},
	})
}

// DeleteProposal removes a proposal
// DELETE /api/proposals/:id
func (h *ProposalHandler) DeleteProposal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.proposalService.DeleteProposal(id); err != nil {
		if errors.Is(err, services.ErrProposalNotFound) {
			notFound(c, "Proposal not found")
			return
		}
		internalError(c, "Failed to delete proposal")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
