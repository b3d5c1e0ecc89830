package services

import (
	"errors"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/procurehub/core/internal/database/models"
	"github.com/procurehub/core/internal/functions"
	"github.com/procurehub/core/internal/functions/local"
	"gorm.io/gorm"
)

var (
	// ErrInvalidInboundPayload indicates the webhook payload is unusable
	ErrInvalidInboundPayload = errors.New("invalid inbound email payload")
	// ErrInboundEmailNotFound indicates the inbound email was not found
	ErrInboundEmailNotFound = errors.New("inbound email not found")
)

// Processing error reasons recorded on inbound emails that could not be
// turned into proposals
const (
	reasonNoReferenceCode  = "no RFP reference code found in subject or body"
	reasonUnknownReference = "reference code does not match any RFP"
	reasonUnknownVendor    = "sender address does not match any vendor"
	reasonNothingExtracted = "no proposal fields could be extracted"
)

// InboundService runs the inbound email pipeline: identity resolution,
// raw persistence, two-tier extraction and outcome bookkeeping
type InboundService struct {
	db              *gorm.DB
	processor       *functions.Processor
	proposalService *ProposalService
	logService      *LogService
}

// NewInboundService creates a new InboundService instance
func NewInboundService(db *gorm.DB, processor *functions.Processor, proposalService *ProposalService, logService *LogService) *InboundService {
	return &InboundService{
		db:              db,
		processor:       processor,
		proposalService: proposalService,
		logService:      logService,
	}
}

// InboundEmailPayload is the webhook delivery of one vendor reply. Either
// the parsed fields or Raw (a full RFC 5322 message) must be present.
type InboundEmailPayload struct {
	ExternalID string
	From       string
	To         string
	Subject    string
	Body       string
	HTMLBody   string
	Raw        string
	ReceivedAt time.Time
}

// ProcessInbound ingests one webhook delivery. The raw email is persisted
// before any extraction runs; resolution or extraction failures are recorded
// on the stored record and never abort ingestion. Redelivery of an already
// stored external ID returns the stored record unchanged.
func (s *InboundService) ProcessInbound(payload InboundEmailPayload) (*models.InboundEmail, error) {
	email := &models.InboundEmail{
		ExternalID: strings.TrimSpace(payload.ExternalID),
		FromAddr:   strings.TrimSpace(payload.From),
		ToAddr:     strings.TrimSpace(payload.To),
		Subject:    payload.Subject,
		Body:       payload.Body,
		HTMLBody:   payload.HTMLBody,
		RawPayload: payload.Raw,
		ReceivedAt: payload.ReceivedAt,
	}
	if email.ReceivedAt.IsZero() {
		email.ReceivedAt = time.Now()
	}

	// Raw MIME deliveries carry their own headers and bodies
	if payload.Raw != "" {
		parseRawMessage(payload.Raw, email)
	}

	if email.ExternalID == "" || email.FromAddr == "" {
		return nil, ErrInvalidInboundPayload
	}

	// At-least-once delivery: a redelivered message is returned as stored
	var existing models.InboundEmail
	err := s.db.Preload("Proposal").Where("external_id = ?", email.ExternalID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Persist the raw email before anything can fail
	if err := s.db.Create(email).Error; err != nil {
		return nil, err
	}

	s.process(email)
	return email, nil
}

// process resolves identity and extracts a proposal for a stored inbound
// email. Failures are recorded as processingError on the record.
func (s *InboundService) process(email *models.InboundEmail) {
	// Resolve the RFP from the reference code, subject first
	code := local.ExtractReferenceCode(email.Subject)
	if code == "" {
		code = local.ExtractReferenceCode(email.Body)
	}
	if code == "" {
		code = local.ExtractReferenceCode(email.HTMLBody)
	}
	if code == "" {
		s.failProcessing(email, reasonNoReferenceCode)
		return
	}

	var rfp models.RFP
	if err := s.db.Where("reference_code = ?", code).First(&rfp).Error; err != nil {
		s.failProcessing(email, reasonUnknownReference)
		return
	}
	email.RFPID = &rfp.ID

	// Resolve the vendor from the sender address
	var vendor models.Vendor
	if err := s.db.Where("email = ?", senderAddress(email.FromAddr)).First(&vendor).Error; err != nil {
		s.saveEmail(email)
		s.failProcessing(email, reasonUnknownVendor)
		return
	}
	email.VendorID = &vendor.ID
	s.saveEmail(email)

	// A declining vendor sends no proposal
	if local.DetectDecline(email.Subject, email.Body) {
		s.markVendorStatus(rfp.ID, vendor.ID, models.RFPVendorStatusDeclined)
		email.Processed = true
		email.ProcessingError = ""
		if err := s.saveEmail(email); err != nil {
			email.Processed = false
			return
		}
		s.logService.LogInfo(models.LogModuleInbound, "decline", "Vendor declined to bid", map[string]interface{}{
			"inbound_id": email.ID,
			"rfp_id":     rfp.ID,
			"vendor_id":  vendor.ID,
		})
		return
	}

	body := email.Body
	if body == "" {
		body = email.HTMLBody
	}
	result, err := s.processor.ExtractProposal(email.Subject, body)
	if err != nil {
		s.failProcessing(email, reasonNothingExtracted)
		return
	}

	// The proposal row and the email's processed flag must land together:
	// a proposal without the link would be duplicated by the retry pass
	var proposal *models.Proposal
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		created, err := s.proposalService.createFromExtraction(tx, rfp.ID, vendor.ID, result)
		if err != nil {
			return err
		}
		email.ProposalID = &created.ID
		email.Processed = true
		email.ProcessingError = ""
		if err := tx.Save(email).Error; err != nil {
			return err
		}
		proposal = created
		return nil
	})
	if txErr != nil {
		email.ProposalID = nil
		email.Processed = false
		s.failProcessing(email, "failed to store proposal: "+txErr.Error())
		return
	}

	s.markVendorStatus(rfp.ID, vendor.ID, models.RFPVendorStatusResponded)
	if rfp.Status == string(models.RFPStatusOpen) {
		if err := s.db.Model(&models.RFP{}).Where("id = ?", rfp.ID).
			Update("status", string(models.RFPStatusEvaluating)).Error; err != nil {
			s.logService.LogError(models.LogModuleInbound, "rfp_status", "Failed to move RFP to evaluating", map[string]interface{}{
				"rfp_id": rfp.ID,
				"error":  err.Error(),
			})
		}
	}

	s.logService.LogInfo(models.LogModuleInbound, "proposal_extracted", "Proposal extracted from inbound email", map[string]interface{}{
		"inbound_id":   email.ID,
		"proposal_id":  proposal.ID,
		"rfp_id":       rfp.ID,
		"vendor_id":    vendor.ID,
		"extracted_by": string(result.ExtractedBy),
		"fallback":     result.Fallback,
	})
}

// failProcessing records the failure reason; the email stays unprocessed so
// the retry scheduler can pick it up
func (s *InboundService) failProcessing(email *models.InboundEmail, reason string) {
	email.Processed = false
	email.ProcessingError = reason
	s.saveEmail(email)
	s.logService.LogWarn(models.LogModuleInbound, "process_failed", "Inbound email processing failed", map[string]interface{}{
		"inbound_id": email.ID,
		"reason":     reason,
	})
}

// saveEmail persists the email's bookkeeping fields. Failures are logged;
// callers whose state depends on the write check the returned error.
func (s *InboundService) saveEmail(email *models.InboundEmail) error {
	if err := s.db.Save(email).Error; err != nil {
		s.logService.LogError(models.LogModuleInbound, "save_failed", "Failed to persist inbound email state", map[string]interface{}{
			"inbound_id": email.ID,
			"error":      err.Error(),
		})
		return err
	}
	return nil
}

// markVendorStatus moves the RFP-vendor link to the given status, creating
// the link when a reply arrives from a vendor that was never invited
func (s *InboundService) markVendorStatus(rfpID, vendorID uint, status models.RFPVendorStatus) {
	now := time.Now()
	var link models.RFPVendor
	err := s.db.Where("rfp_id = ? AND vendor_id = ?", rfpID, vendorID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		link = models.RFPVendor{
			RFPID:       rfpID,
			VendorID:    vendorID,
			Status:      string(status),
			RespondedAt: &now,
		}
		if err := s.db.Create(&link).Error; err != nil {
			s.logVendorStatusFailure(rfpID, vendorID, status, err)
		}
		return
	}
	if err != nil {
		s.logVendorStatusFailure(rfpID, vendorID, status, err)
		return
	}
	link.Status = string(status)
	link.RespondedAt = &now
	if err := s.db.Save(&link).Error; err != nil {
		s.logVendorStatusFailure(rfpID, vendorID, status, err)
	}
}

func (s *InboundService) logVendorStatusFailure(rfpID, vendorID uint, status models.RFPVendorStatus, err error) {
	s.logService.LogError(models.LogModuleInbound, "vendor_status", "Failed to update RFP-vendor link", map[string]interface{}{
		"rfp_id":    rfpID,
		"vendor_id": vendorID,
		"status":    string(status),
		"error":     err.Error(),
	})
}

// RetryUnprocessed re-runs the pipeline for stored emails whose earlier
// processing failed. Returns the number that processed successfully.
func (s *InboundService) RetryUnprocessed(limit int) (int, error) {
	if limit <= 0 {
		limit = 50
	}

	var emails []models.InboundEmail
	if err := s.db.Where("processed = ?", false).
		Order("created_at ASC").Limit(limit).Find(&emails).Error; err != nil {
		return 0, err
	}

	recovered := 0
	for i := range emails {
		s.process(&emails[i])
		if emails[i].Processed {
			recovered++
		}
	}
	return recovered, nil
}

// GetInboundByID returns a stored inbound email with its proposal
func (s *InboundService) GetInboundByID(id uint) (*models.InboundEmail, error) {
	var email models.InboundEmail
	if err := s.db.Preload("Proposal").First(&email, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInboundEmailNotFound
		}
		return nil, err
	}
	return &email, nil
}

// InboundListOptions holds filters for listing inbound emails
type InboundListOptions struct {
	RFPID     uint
	Processed *bool
	Page      int
	Limit     int
}

// InboundListResult is a page of inbound emails
type InboundListResult struct {
	Emails []models.InboundEmail
	Total  int64
	Page   int
	Limit  int
}

// ListInbound returns stored inbound emails, newest first
func (s *InboundService) ListInbound(opts InboundListOptions) (*InboundListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 || opts.Limit > 100 {
		opts.Limit = 20
	}

	query := s.db.Model(&models.InboundEmail{})
	if opts.RFPID != 0 {
		query = query.Where("rfp_id = ?", opts.RFPID)
	}
	if opts.Processed != nil {
		query = query.Where("processed = ?", *opts.Processed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var emails []models.InboundEmail
	offset := (opts.Page - 1) * opts.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(opts.Limit).Find(&emails).Error; err != nil {
		return nil, err
	}

	return &InboundListResult{Emails: emails, Total: total, Page: opts.Page, Limit: opts.Limit}, nil
}

// senderAddress extracts the bare lowercase address from a From header value
func senderAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	return strings.ToLower(strings.TrimSpace(from))
}

// parseRawMessage fills missing fields from a raw RFC 5322 message
func parseRawMessage(raw string, email *models.InboundEmail) {
	entity, err := message.Read(strings.NewReader(raw))
	if err != nil {
		return
	}

	if email.Subject == "" {
		email.Subject = entity.Header.Get("Subject")
	}
	if email.FromAddr == "" {
		email.FromAddr = strings.TrimSpace(entity.Header.Get("From"))
	}
	if email.ToAddr == "" {
		email.ToAddr = strings.TrimSpace(entity.Header.Get("To"))
	}
	if email.ExternalID == "" {
		email.ExternalID = strings.Trim(entity.Header.Get("Message-Id"), "<> ")
	}

	fillBodyFromEntity(entity, email)
}

// fillBodyFromEntity walks MIME parts collecting the first text/plain and
// text/html bodies
func fillBodyFromEntity(entity *message.Entity, email *models.InboundEmail) {
	if mr := entity.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err != nil {
				return
			}
			fillBodyFromEntity(part, email)
		}
	}

	mediaType, _, err := entity.Header.ContentType()
	if err != nil {
		mediaType = "text/plain"
	}
	data, err := io.ReadAll(entity.Body)
	if err != nil {
		return
	}

	switch mediaType {
	case "text/plain":
		if email.Body == "" {
			email.Body = string(data)
		}
	case "text/html":
		if email.HTMLBody == "" {
			email.HTMLBody = string(data)
		}
	}
}
