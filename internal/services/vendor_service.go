package services

import (
	"errors"
	"strings"

	"github.com/procurehub/core/internal/database/models"
	"gorm.io/gorm"
)

var (
	// ErrVendorNotFound indicates the vendor was not found
	ErrVendorNotFound = errors.New("vendor not found")
	// ErrVendorEmailTaken indicates another vendor already uses the email
	ErrVendorEmailTaken = errors.New("vendor email already registered")
	// ErrInvalidVendorData indicates missing or malformed vendor fields
	ErrInvalidVendorData = errors.New("invalid vendor data")
	// ErrVendorHasProposals indicates the vendor has submitted proposals
	ErrVendorHasProposals = errors.New("vendor has submitted proposals")
)

// VendorService handles vendor CRUD operations
type VendorService struct {
	db *gorm.DB
}

// NewVendorService creates a new VendorService instance
func NewVendorService(db *gorm.DB) *VendorService {
	return &VendorService{db: db}
}

// CreateVendorRequest holds the fields for registering a vendor
type CreateVendorRequest struct {
	Name        string
	Email       string
	ContactName string
	Phone       string
	Notes       string
}

// CreateVendor registers a new vendor. Emails are stored lowercase because
// inbound replies are matched by sender address.
func (s *VendorService) CreateVendor(req CreateVendorRequest) (*models.Vendor, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidVendorData
	}

	var existing models.Vendor
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrVendorEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	vendor := &models.Vendor{
		Name:        strings.TrimSpace(req.Name),
		Email:       email,
		ContactName: strings.TrimSpace(req.ContactName),
		Phone:       strings.TrimSpace(req.Phone),
		Notes:       req.Notes,
	}
	if err := s.db.Create(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}

// GetVendorByID returns a vendor by ID
func (s *VendorService) GetVendorByID(id uint) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := s.db.First(&vendor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

// GetVendorByEmail returns a vendor by email, matched case-insensitively
func (s *VendorService) GetVendorByEmail(email string) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&vendor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

// ListVendors returns all vendors ordered by name
func (s *VendorService) ListVendors() ([]models.Vendor, error) {
	var vendors []models.Vendor
	if err := s.db.Order("name ASC").Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

// UpdateVendorRequest holds the updatable vendor fields; nil means unchanged
type UpdateVendorRequest struct {
	Name        *string
	Email       *string
	ContactName *string
	Phone       *string
	Notes       *string
}

// UpdateVendor updates a vendor's fields
func (s *VendorService) UpdateVendor(id uint, req UpdateVendorRequest) (*models.Vendor, error) {
	vendor, err := s.GetVendorByID(id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, ErrInvalidVendorData
		}
		var existing models.Vendor
		if err := s.db.Where("email = ? AND id != ?", email, id).First(&existing).Error; err == nil {
			return nil, ErrVendorEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		vendor.Email = email
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrInvalidVendorData
		}
		vendor.Name = strings.TrimSpace(*req.Name)
	}
	if req.ContactName != nil {
		vendor.ContactName = strings.TrimSpace(*req.ContactName)
	}
	if req.Phone != nil {
		vendor.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Notes != nil {
		vendor.Notes = *req.Notes
	}

	if err := s.db.Save(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}

// DeleteVendor deletes a vendor. Vendors with stored proposals cannot be
// deleted because proposals must always reference their vendor.
func (s *VendorService) DeleteVendor(id uint) error {
	var count int64
	if err := s.db.Model(&models.Proposal{}).Where("vendor_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrVendorHasProposals
	}

	result := s.db.Delete(&models.Vendor{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVendorNotFound
	}
	// Remove dangling invitations
	return s.db.Where("vendor_id = ?", id).Delete(&models.RFPVendor{}).Error
}
