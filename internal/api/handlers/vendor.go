package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/procurehub/core/internal/services"
)

// VendorHandler handles vendor related requests
type VendorHandler struct {
	vendorService *services.VendorService
}

// NewVendorHandler creates a new VendorHandler instance
func NewVendorHandler(vendorService *services.VendorService) *VendorHandler {
	return &VendorHandler{vendorService: vendorService}
}

// CreateVendorRequest represents the request to register a vendor
type CreateVendorRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Notes       string `json:"notes"`
}

// UpdateVendorRequest represents a partial vendor update
type UpdateVendorRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	ContactName *string `json:"contact_name"`
	Phone       *string `json:"phone"`
	Notes       *string `json:"notes"`
}

// CreateVendor registers a new vendor
// POST /api/vendors
func (h *VendorHandler) CreateVendor(c *gin.Context) {
	var req CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Name and email are required")
		return
	}

	vendor, err := h.vendorService.CreateVendor(services.CreateVendorRequest{
		Name:        req.Name,
		Email:       req.Email,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Notes:       req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVendorEmailTaken):
			conflict(c, "A vendor with this email already exists")
		case errors.Is(err, services.ErrInvalidVendorData):
			badRequest(c, "Invalid vendor data")
		default:
			internalError(c, "Failed to create vendor")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    vendor,
	})
}

// ListVendors returns all vendors, or the single vendor matching the email
// query parameter
// GET /api/vendors[?email=...]
func (h *VendorHandler) ListVendors(c *gin.Context) {
	if email := c.Query("email"); email != "" {
		vendor, err := h.vendorService.GetVendorByEmail(email)
		if err != nil {
			if errors.Is(err, services.ErrVendorNotFound) {
				notFound(c, "Vendor not found")
				return
			}
			internalError(c, "Failed to retrieve vendor")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"vendors": []interface{}{vendor}},
		})
		return
	}

	vendors, err := h.vendorService.ListVendors()
	if err != nil {
		internalError(c, "Failed to retrieve vendors")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"vendors": vendors},
	})
}

// GetVendor returns one vendor
// GET /api/vendors/:id
func (h *VendorHandler) GetVendor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	vendor, err := h.vendorService.GetVendorByID(id)
	if err != nil {
		if errors.Is(err, services.ErrVendorNotFound) {
			notFound(c, "Vendor not found")
			return
		}
		internalError(c, "Failed to retrieve vendor")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    vendor,
	})
}

// UpdateVendor applies a partial update to a vendor
// PUT /api/vendors/:id
func (h *VendorHandler) UpdateVendor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	vendor, err := h.vendorService.UpdateVendor(id, services.UpdateVendorRequest{
		Name:        req.Name,
		Email:       req.Email,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Notes:       req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVendorNotFound):
			notFound(c, "Vendor not found")
		case errors.Is(err, services.ErrVendorEmailTaken):
			conflict(c, "A vendor with this email already exists")
		case errors.Is(err, services.ErrInvalidVendorData):
			badRequest(c, "Invalid vendor data")
		default:
			internalError(c, "Failed to update vendor")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    vendor,
	})
}

// DeleteVendor removes a vendor without proposals
// DELETE /api/vendors/:id
func (h *VendorHandler) DeleteVendor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.vendorService.DeleteVendor(id); err != nil {
		switch {
		case errors.Is(err, services.ErrVendorNotFound):
			notFound(c, "Vendor not found")
		case errors.Is(err, services.ErrVendorHasProposals):
			conflict(c, "Vendor has submitted proposals and cannot be deleted")
		default:
			internalError(c, "Failed to delete vendor")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
