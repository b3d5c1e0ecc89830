package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurehub/core/internal/database/models"
	"github.com/procurehub/core/internal/functions"
	"gorm.io/gorm"
)

var (
	// ErrRFPNotFound indicates the RFP was not found
	ErrRFPNotFound = errors.New("RFP not found")
	// ErrInvalidRFPData indicates missing or malformed RFP fields
	ErrInvalidRFPData = errors.New("invalid RFP data")
	// ErrInvalidRFPStatus indicates a disallowed RFP status value or change
	ErrInvalidRFPStatus = errors.New("invalid RFP status")
	// ErrNoVendorsAttached indicates the RFP has no vendors to send to
	ErrNoVendorsAttached = errors.New("no vendors attached to RFP")
	// ErrRFPHasProposals indicates the RFP cannot be deleted anymore
	ErrRFPHasProposals = errors.New("RFP already has proposals")
)

// RFPService handles RFP lifecycle operations: structuring natural-language
// requests, vendor invitations and comparisons
type RFPService struct {
	db         *gorm.DB
	processor  *functions.Processor
	mailer     *Mailer
	logService *LogService
}

// NewRFPService creates a new RFPService instance
func NewRFPService(db *gorm.DB, processor *functions.Processor, mailer *Mailer, logService *LogService) *RFPService {
	return &RFPService{
		db:         db,
		processor:  processor,
		mailer:     mailer,
		logService: logService,
	}
}

// newReferenceCode generates a reference code like "RFP-3FA85F64". The code
// is embedded in invitation subjects and used to match vendor replies.
func newReferenceCode() string {
	return "RFP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// CreateFromRequest structures a natural-language purchase request into a
// stored RFP record
func (s *RFPService) CreateFromRequest(rawRequest string) (*models.RFP, error) {
	rawRequest = strings.TrimSpace(rawRequest)
	if rawRequest == "" {
		return nil, ErrInvalidRFPData
	}

	structured := s.processor.StructureRequest(rawRequest)

	requirementsJSON := ""
	if len(structured.Requirements) > 0 {
		if data, err := json.Marshal(structured.Requirements); err == nil {
			requirementsJSON = string(data)
		}
	}

	rfp := &models.RFP{
		ReferenceCode:    newReferenceCode(),
		Title:            structured.Title,
		Description:      structured.Description,
		RawRequest:       rawRequest,
		Category:         structured.Category,
		BudgetAmount:     structured.BudgetAmount,
		BudgetCurrency:   structured.BudgetCurrency,
		DeadlineAt:       structured.DeadlineAt,
		RequirementsJSON: requirementsJSON,
		Status:           string(models.RFPStatusDraft),
		StructuredBy:     string(structured.StructuredBy),
	}

	if err := s.db.Create(rfp).Error; err != nil {
		return nil, err
	}

	s.logService.LogInfo(models.LogModuleRFP, "create", "RFP created from request", map[string]interface{}{
		"rfp_id":         rfp.ID,
		"reference_code": rfp.ReferenceCode,
		"structured_by":  rfp.StructuredBy,
	})
	return rfp, nil
}

// GetRFPByID returns an RFP with its vendors and proposals preloaded
func (s *RFPService) GetRFPByID(id uint) (*models.RFP, error) {
	var rfp models.RFP
	err := s.db.
		Preload("Vendors.Vendor").
		Preload("Proposals.Vendor").
		First(&rfp, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRFPNotFound
		}
		return nil, err
	}
	return &rfp, nil
}

// GetRFPByReferenceCode returns an RFP by its reference code
func (s *RFPService) GetRFPByReferenceCode(code string) (*models.RFP, error) {
	var rfp models.RFP
	err := s.db.Where("reference_code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&rfp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRFPNotFound
		}
		return nil, err
	}
	return &rfp, nil
}

// RFPListOptions holds filters for listing RFPs
type RFPListOptions struct {
	Status string
	Page   int
	Limit  int
}

// RFPListResult is a page of RFPs
type RFPListResult struct {
	RFPs  []models.RFP
	Total int64
	Page  int
	Limit int
}

// ListRFPs returns RFPs, newest first
func (s *RFPService) ListRFPs(opts RFPListOptions) (*RFPListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 || opts.Limit > 100 {
		opts.Limit = 20
	}

	query := s.db.Model(&models.RFP{})
	if opts.Status != "" {
		status := models.RFPStatus(strings.ToUpper(opts.Status))
		if !status.IsValid() {
			return nil, ErrInvalidRFPStatus
		}
		query = query.Where("status = ?", string(status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rfps []models.RFP
	offset := (opts.Page - 1) * opts.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(opts.Limit).Find(&rfps).Error; err != nil {
		return nil, err
	}

	return &RFPListResult{RFPs: rfps, Total: total, Page: opts.Page, Limit: opts.Limit}, nil
}

// UpdateRFPStatus sets the RFP status after validating the value
func (s *RFPService) UpdateRFPStatus(id uint, status string) (*models.RFP, error) {
	newStatus := models.RFPStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !newStatus.IsValid() {
		return nil, ErrInvalidRFPStatus
	}

	rfp, err := s.GetRFPByID(id)
	if err != nil {
		return nil, err
	}

	oldStatus := rfp.Status
	rfp.Status = string(newStatus)
	if err := s.db.Model(&models.RFP{}).Where("id = ?", id).Update("status", rfp.Status).Error; err != nil {
		return nil, err
	}

	s.logService.LogInfo(models.LogModuleRFP, "status_change", "RFP status changed", map[string]interface{}{
		"rfp_id":     id,
		"old_status": oldStatus,
		"new_status": rfp.Status,
	})
	return rfp, nil
}

// DeleteRFP deletes a draft RFP and its invitations. RFPs with proposals
// cannot be deleted because every proposal must reference its RFP.
func (s *RFPService) DeleteRFP(id uint) error {
	var rfp models.RFP
	if err := s.db.First(&rfp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRFPNotFound
		}
		return err
	}

	var proposalCount int64
	if err := s.db.Model(&models.Proposal{}).Where("rfp_id = ?", id).Count(&proposalCount).Error; err != nil {
		return err
	}
	if proposalCount > 0 {
		return ErrRFPHasProposals
	}

	if err := s.db.Where("rfp_id = ?", id).Delete(&models.RFPVendor{}).Error; err != nil {
		return err
	}
	if err := s.db.Delete(&models.RFP{}, id).Error; err != nil {
		return err
	}

	s.logService.LogInfo(models.LogModuleRFP, "delete", "RFP deleted", map[string]interface{}{
		"rfp_id":         id,
		"reference_code": rfp.ReferenceCode,
	})
	return nil
}

// AttachVendors attaches vendors to an RFP as pending invitations.
// Already-attached vendors are skipped. Returns the number attached.
func (s *RFPService) AttachVendors(rfpID uint, vendorIDs []uint) (int, error) {
	var rfp models.RFP
	if err := s.db.First(&rfp, rfpID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrRFPNotFound
		}
		return 0, err
	}

	attached := 0
	for _, vendorID := range vendorIDs {
		var vendor models.Vendor
		if err := s.db.First(&vendor, vendorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return attached, ErrVendorNotFound
			}
			return attached, err
		}

		var existing models.RFPVendor
		err := s.db.Where("rfp_id = ? AND vendor_id = ?", rfpID, vendorID).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return attached, err
		}

		link := &models.RFPVendor{
			RFPID:    rfpID,
			VendorID: vendorID,
			Status:   string(models.RFPVendorStatusPending),
		}
		if err := s.db.Create(link).Error; err != nil {
			return attached, err
		}
		attached++
	}
	return attached, nil
}

// SendResult reports the outcome of sending one invitation
type SendResult struct {
	VendorID    uint   `json:"vendor_id"`
	VendorEmail string `json:"vendor_email"`
	Sent        bool   `json:"sent"`
	MessageID   string `json:"message_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SendToVendors emails the RFP invitation to every pending vendor. Partial
// failure is reported per vendor; the RFP moves to OPEN once at least one
// invitation is delivered.
func (s *RFPService) SendToVendors(rfpID uint) ([]SendResult, error) {
	rfp, err := s.GetRFPByID(rfpID)
	if err != nil {
		return nil, err
	}
	if rfp.Status != string(models.RFPStatusDraft) && rfp.Status != string(models.RFPStatusOpen) {
		return nil, ErrInvalidRFPStatus
	}

	var pending []models.RFPVendor
	if err := s.db.Preload("Vendor").
		Where("rfp_id = ? AND status = ?", rfpID, string(models.RFPVendorStatusPending)).
		Find(&pending).Error; err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, ErrNoVendorsAttached
	}

	results := make([]SendResult, 0, len(pending))
	sentAny := false
	for _, link := range pending {
		if link.Vendor == nil {
			continue
		}
		result := SendResult{VendorID: link.VendorID, VendorEmail: link.Vendor.Email}

		subject, body := s.processor.GenerateInvitation(rfp, link.Vendor)
		messageID, sendErr := s.mailer.Send(link.Vendor.Email, subject, body)
		if sendErr != nil {
			result.Error = sendErr.Error()
			results = append(results, result)
			s.logService.LogWarn(models.LogModuleMailer, "send_invitation", "Invitation send failed", map[string]interface{}{
				"rfp_id":    rfpID,
				"vendor_id": link.VendorID,
				"error":     sendErr.Error(),
			})
			continue
		}

		now := time.Now()
		link.Status = string(models.RFPVendorStatusSent)
		link.SentAt = &now
		if err := s.db.Save(&link).Error; err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.Sent = true
		result.MessageID = messageID
		results = append(results, result)
		sentAny = true

		s.logService.LogInfo(models.LogModuleMailer, "send_invitation", "Invitation sent", map[string]interface{}{
			"rfp_id":     rfpID,
			"vendor_id":  link.VendorID,
			"message_id": messageID,
		})
	}

	if sentAny && rfp.Status == string(models.RFPStatusDraft) {
		if err := s.db.Model(&models.RFP{}).Where("id = ?", rfpID).
			Update("status", string(models.RFPStatusOpen)).Error; err != nil {
			s.logService.LogError(models.LogModuleRFP, "status_change", "Failed to move RFP to open", map[string]interface{}{
				"rfp_id": rfpID,
				"error":  err.Error(),
			})
		}
	}
	return results, nil
}

// GetComparison produces a cross-vendor comparison for an RFP's proposals
func (s *RFPService) GetComparison(rfpID uint) (string, error) {
	rfp, err := s.GetRFPByID(rfpID)
	if err != nil {
		return "", err
	}
	if len(rfp.Proposals) == 0 {
		return "", ErrProposalNotFound
	}
	return s.processor.CompareProposals(rfp, rfp.Proposals), nil
}
