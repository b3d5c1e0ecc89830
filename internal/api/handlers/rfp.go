package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/procurehub/core/internal/services"
)

// RFPHandler handles RFP related requests
type RFPHandler struct {
	rfpService      *services.RFPService
	proposalService *services.ProposalService
	logService      *services.LogService
}

// NewRFPHandler creates a new RFPHandler instance
func NewRFPHandler(rfpService *services.RFPService, proposalService *services.ProposalService, logService *services.LogService) *RFPHandler {
	return &RFPHandler{
		rfpService:      rfpService,
		proposalService: proposalService,
		logService:      logService,
	}
}

// CreateRFPRequest represents the request to create an RFP from free text
type CreateRFPRequest struct {
	Request string `json:"request" binding:"required"`
}

// AttachVendorsRequest represents the request to attach vendors to an RFP
type AttachVendorsRequest struct {
	VendorIDs []uint `json:"vendor_ids" binding:"required"`
}

// UpdateRFPStatusRequest represents the request to change RFP status
type UpdateRFPStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateRFP structures a natural-language purchase request into an RFP
// POST /api/rfps
func (h *RFPHandler) CreateRFP(c *gin.Context) {
	var req CreateRFPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Request text is required")
		return
	}

	rfp, err := h.rfpService.CreateFromRequest(req.Request)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRFPData) {
			badRequest(c, "Request text is required")
			return
		}
		internalError(c, "Failed to create RFP")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    rfp,
	})
}

// ListRFPs returns a page of RFPs
// GET /api/rfps
func (h *RFPHandler) ListRFPs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.rfpService.ListRFPs(services.RFPListOptions{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidRFPStatus) {
			badRequest(c, "Invalid status filter")
			return
		}
		internalError(c, "Failed to retrieve RFPs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"rfps":  result.RFPs,
			"total": result.Total,
			"page":  result.Page,
			"limit": result.Limit,
		},
	})
}

// GetRFP returns one RFP with vendors and proposals
// GET /api/rfps/:id
func (h *RFPHandler) GetRFP(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rfp, err := h.rfpService.GetRFPByID(id)
	if err != nil {
		if errors.Is(err, services.ErrRFPNotFound) {
			notFound(c, "RFP not found")
			return
		}
		internalError(c, "Failed to retrieve RFP")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rfp,
	})
}

// GetRFPByReference resolves an RFP from its reference code, the same code
// vendors carry in their reply subjects
// GET /api/rfp-lookup/:code
func (h *RFPHandler) GetRFPByReference(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		badRequest(c, "Reference code is required")
		return
	}

	rfp, err := h.rfpService.GetRFPByReferenceCode(code)
	if err != nil {
		if errors.Is(err, services.ErrRFPNotFound) {
			notFound(c, "RFP not found")
			return
		}
		internalError(c, "Failed to retrieve RFP")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rfp,
	})
}

// UpdateRFPStatus changes an RFP's status
// PUT /api/rfps/:id/status
func (h *RFPHandler) UpdateRFPStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateRFPStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Status is required")
		return
	}

	rfp, err := h.rfpService.UpdateRFPStatus(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRFPNotFound):
			notFound(c, "RFP not found")
		case errors.Is(err, services.ErrInvalidRFPStatus):
			badRequest(c, "Invalid RFP status")
		default:
			internalError(c, "Failed to update RFP status")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rfp,
	})
}

// DeleteRFP deletes a draft RFP
// DELETE /api/rfps/:id
func (h *RFPHandler) DeleteRFP(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.rfpService.DeleteRFP(id); err != nil {
		switch {
		case errors.Is(err, services.ErrRFPNotFound):
			notFound(c, "RFP not found")
		case errors.Is(err, services.ErrRFPHasProposals):
			conflict(c, "RFP already has proposals and cannot be deleted")
		default:
			internalError(c, "Failed to delete RFP")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AttachVendors attaches vendors to an RFP
// POST /api/rfps/:id/vendors
func (h *RFPHandler) AttachVendors(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req AttachVendorsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.VendorIDs) == 0 {
		badRequest(c, "vendor_ids is required")
		return
	}

	attached, err := h.rfpService.AttachVendors(id, req.VendorIDs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRFPNotFound):
			notFound(c, "RFP not found")
		case errors.Is(err, services.ErrVendorNotFound):
			notFound(c, "Vendor not found")
		default:
			internalError(c, "Failed to attach vendors")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"attached": attached},
	})
}

// SendToVendors emails the RFP invitation to pending vendors
// POST /api/rfps/:id/send
func (h *RFPHandler) SendToVendors(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	results, err := h.rfpService.SendToVendors(id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRFPNotFound):
			notFound(c, "RFP not found")
		case errors.Is(err, services.ErrNoVendorsAttached):
			badRequest(c, "No pending vendors attached to this RFP")
		case errors.Is(err, services.ErrInvalidRFPStatus):
			conflict(c, "RFP is not in a sendable status")
		default:
			internalError(c, "Failed to send invitations")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"results": results},
	})
}

// ListRFPProposals returns an RFP's proposals ranked by score
// GET /api/rfps/:id/proposals
func (h *RFPHandler) ListRFPProposals(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	proposals, err := h.proposalService.ListProposalsByRFP(id)
	if err != nil {
		if errors.Is(err, services.ErrRFPNotFound) {
			notFound(c, "RFP not found")
			return
		}
		internalError(c, "Failed to retrieve proposals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"proposals": proposals},
	})
}

// ScoreRFPProposals scores every unscored proposal of an RFP
// POST /api/rfps/:id/score
func (h *RFPHandler) ScoreRFPProposals(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	scored, err := h.proposalService.ScoreRFPProposals(id)
	if err != nil {
		if errors.Is(err, services.ErrRFPNotFound) {
			notFound(c, "RFP not found")
			return
		}
		internalError(c, "Failed to score proposals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"scored": scored},
	})
}

// GetComparison returns a cross-vendor comparison for the RFP
// GET /api/rfps/:id/comparison
func (h *RFPHandler) GetComparison(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	comparison, err := h.rfpService.GetComparison(id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRFPNotFound):
			notFound(c, "RFP not found")
		case errors.Is(err, services.ErrProposalNotFound):
			notFound(c, "RFP has no proposals to compare")
		default:
			internalError(c, "Failed to compare proposals")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"comparison": comparison},
	})
}

// parseID parses the :id path parameter, writing a 400 response on failure
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "Invalid ID")
		return 0, false
	}
	return uint(id), true
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   gin.H{"code": "BAD_REQUEST", "message": message},
	})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"error":   gin.H{"code": "NOT_FOUND", "message": message},
	})
}

func conflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, gin.H{
		"success": false,
		"error":   gin.H{"code": "CONFLICT", "message": message},
	})
}

func internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   gin.H{"code": "INTERNAL_ERROR", "message": message},
	})
}
