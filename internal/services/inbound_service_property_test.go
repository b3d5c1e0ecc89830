package services

import (
	"fmt"
	"os"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/procurehub/core/internal/database/models"
	"github.com/procurehub/core/internal/functions"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// For any webhook delivery, the raw email must be stored before extraction
// runs, redelivery of a known external ID must change nothing, and an inbound
// email must map to at most one proposal.

func setupInboundTestDB(t *testing.T) (*gorm.DB, func()) {
	tmpFile, err := os.CreateTemp("", "inbound_test_*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tmpFile.Close()

	db, err := gorm.Open(sqlite.Open(tmpFile.Name()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("Failed to open database: %v", err)
	}

	err = db.AutoMigrate(&models.RFP{}, &models.Vendor{}, &models.RFPVendor{},
		&models.Proposal{}, &models.InboundEmail{}, &models.Log{})
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("Failed to migrate: %v", err)
	}

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		os.Remove(tmpFile.Name())
	}

	return db, cleanup
}

func newInboundService(db *gorm.DB) *InboundService {
	processor := functions.NewProcessor(nil)
	logService := NewLogService(db)
	proposalService := NewProposalService(db, processor, logService)
	return NewInboundService(db, processor, proposalService, logService)
}

func seedRFPAndVendor(t *testing.T, db *gorm.DB, status models.RFPStatus) (*models.RFP, *models.Vendor) {
	rfp := &models.RFP{
		ReferenceCode:  "RFP-ABCD1234",
		Title:          "Laptops for new office",
		BudgetAmount:   20000,
		BudgetCurrency: "USD",
		Status:         string(status),
	}
	if err := db.Create(rfp).Error; err != nil {
		t.Fatalf("Failed to seed RFP: %v", err)
	}

	vendor := &models.Vendor{Name: "Acme Supplies", Email: "sales@acme.test"}
	if err := db.Create(vendor).Error; err != nil {
		t.Fatalf("Failed to seed vendor: %v", err)
	}
	return rfp, vendor
}

func TestProcessInbound_HappyPath(t *testing.T) {
	db, cleanup := setupInboundTestDB(t)
	defer cleanup()

	service := newInboundService(db)
	rfp, vendor := seedRFPAndVendor(t, db, models.RFPStatusOpen)

	email, err := service.ProcessInbound(InboundEmailPayload{
		ExternalID: "msg-001",
		From:       "Acme Sales <sales@acme.test>",
		Subject:    "Re: Request for Proposal RFP-ABCD1234: Laptops",
		Body:       "Our quote is $18,000 with delivery in 14 days. Net 30. 2-year warranty.",
	})
	if err != nil {
		t.Fatalf("ProcessInbound failed: %v", err)
	}

	if !email.Processed {
		t.Errorf("expected processed email, got error %q", email.ProcessingError)
	}
	if email.ProposalID == nil {
		t.Fatal("expected a proposal to be linked")
	}
	if email.RFPID == nil || *email.RFPID != rfp.ID {
		t.Error("expected RFP to be resolved from the reference code")
	}
	if email.VendorID == nil || *email.VendorID != vendor.ID {
		t.Error("expected vendor to be resolved from the sender address")
	}

	var proposal models.Proposal
	if err := db.First(&proposal, *email.ProposalID).Error; err != nil {
		t.Fatalf("proposal not stored: %v", err)
	}
	if proposal.PriceAmount != 18000 || proposal.DeliveryDays != 14 {
		t.Errorf("unexpected extraction: %+v", proposal)
	}
	if !proposal.FallbackParsed {
		t.Error("local-tier extraction should be marked fallback-parsed")
	}

	var link models.RFPVendor
	if err := db.Where("rfp_id = ? AND vendor_id = ?", rfp.ID, vendor.ID).First(&link).Error; err != nil {
		t.Fatalf("vendor link not created: %v", err)
	}
	if link.Status != string(models.RFPVendorStatusResponded) {
		t.Errorf("expected RESPONDED link, got %s", link.Status)
	}

	var updated models.RFP
	db.First(&updated, rfp.ID)
	if updated.Status != string(models.RFPStatusEvaluating) {
		t.Errorf("open RFP should move to EVALUATING on first proposal, got %s", updated.Status)
	}
}

func TestProperty_ProcessInbound_Idempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10
	properties := gopter.NewProperties(parameters)

	// Property: redelivery of the same external ID stores nothing new
	properties.Property("redelivery_returns_stored_record", prop.ForAll(
		func(suffix uint32) bool {
			db, cleanup := setupInboundTestDB(t)
			defer cleanup()

			service := newInboundService(db)
			seedRFPAndVendor(t, db, models.RFPStatusOpen)

			payload := InboundEmailPayload{
				ExternalID: fmt.Sprintf("msg-%08x", suffix),
				From:       "sales@acme.test",
				Subject:    "Re: RFP-ABCD1234",
				Body:       "Total price: $9,500, delivery in 10 days",
			}

			first, err := service.ProcessInbound(payload)
			if err != nil {
				return false
			}
			second, err := service.ProcessInbound(payload)
			if err != nil {
				return false
			}

			var emailCount, proposalCount int64
			db.Model(&models.InboundEmail{}).Count(&emailCount)
			db.Model(&models.Proposal{}).Count(&proposalCount)

			return first.ID == second.ID && emailCount == 1 && proposalCount == 1
		},
		gen.UInt32(),
	))

	properties.TestingRun(t)
}

func TestProperty_RawPersistedDespiteFailure(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10
	properties := gopter.NewProperties(parameters)

	// Property: an email without a reference code is stored with the failure
	// reason and stays unprocessed
	properties.Property("unresolvable_email_stored_with_reason", prop.ForAll(
		func(suffix uint32) bool {
			db, cleanup := setupInboundTestDB(t)
			defer cleanup()

			service := newInboundService(db)

			email, err := service.ProcessInbound(InboundEmailPayload{
				ExternalID: fmt.Sprintf("msg-%08x", suffix),
				From:       "unknown@nowhere.test",
				Subject:    "Hello",
				Body:       "Just checking in about our meeting",
			})
			if err != nil {
				return false
			}

			var stored models.InboundEmail
			if err := db.First(&stored, email.ID).Error; err != nil {
				return false
			}
			return !stored.Processed &&
				stored.ProcessingError == reasonNoReferenceCode &&
				stored.ProposalID == nil
		},
		gen.UInt32(),
	))

	properties.TestingRun(t)
}

func TestProcessInbound_UnknownVendor(t *testing.T) {
	db, cleanup := setupInboundTestDB(t)
	defer cleanup()

	service := newInboundService(db)
	rfp, _ := seedRFPAndVendor(t, db, models.RFPStatusOpen)

	email, err := service.ProcessInbound(InboundEmailPayload{
		ExternalID: "msg-stranger",
		From:       "stranger@elsewhere.test",
		Subject:    "Re: RFP-ABCD1234",
		Body:       "Our quote is $5,000",
	})
	if err != nil {
		t.Fatalf("ProcessInbound failed: %v", err)
	}

	if email.Processed {
		t.Error("unknown sender should leave the email unprocessed")
	}
	if email.ProcessingError != reasonUnknownVendor {
		t.Errorf("expected %q, got %q", reasonUnknownVendor, email.ProcessingError)
	}
	if email.RFPID == nil || *email.RFPID != rfp.ID {
		t.Error("the resolved RFP should still be recorded")
	}
}

func TestProcessInbound_Decline(t *testing.T) {
	db, cleanup := setupInboundTestDB(t)
	defer cleanup()

	service := newInboundService(db)
	rfp, vendor := seedRFPAndVendor(t, db, models.RFPStatusOpen)

	email, err := service.ProcessInbound(InboundEmailPayload{
		ExternalID: "msg-decline",
		From:       "sales@acme.test",
		Subject:    "Re: RFP-ABCD1234",
		Body:       "Thank you for the invitation but we must decline to bid this time.",
	})
	if err != nil {
		t.Fatalf("ProcessInbound failed: %v", err)
	}

	if !email.Processed {
		t.Errorf("decline should count as processed, got error %q", email.ProcessingError)
	}
	if email.ProposalID != nil {
		t.Error("a decline must not create a proposal")
	}

	var link models.RFPVendor
	if err := db.Where("rfp_id = ? AND vendor_id = ?", rfp.ID, vendor.ID).First(&link).Error; err != nil {
		t.Fatalf("vendor link not created: %v", err)
	}
	if link.Status != string(models.RFPVendorStatusDeclined) {
		t.Errorf("expected DECLINED link, got %s", link.Status)
	}
}

func TestRetryUnprocessed_RecoversAfterVendorRegistered(t *testing.T) {
	db, cleanup := setupInboundTestDB(t)
	defer cleanup()

	service := newInboundService(db)
	seedRFPAndVendor(t, db, models.RFPStatusOpen)

	// Reply from a sender that is not registered yet
	email, err := service.ProcessInbound(InboundEmailPayload{
		ExternalID: "msg-late-vendor",
		From:       "quotes@globex.test",
		Subject:    "Re: RFP-ABCD1234",
		Body:       "Our quote is $7,200 with delivery in 21 days",
	})
	if err != nil {
		t.Fatalf("ProcessInbound failed: %v", err)
	}
	if email.Processed {
		t.Fatal("expected processing to fail before the vendor exists")
	}

	if err := db.Create(&models.Vendor{Name: "Globex", Email: "quotes@globex.test"}).Error; err != nil {
		t.Fatalf("Failed to create vendor: %v", err)
	}

	recovered, err := service.RetryUnprocessed(10)
	if err != nil {
		t.Fatalf("RetryUnprocessed failed: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("expected 1 recovered email, got %d", recovered)
	}

	var stored models.InboundEmail
	db.First(&stored, email.ID)
	if !stored.Processed || stored.ProposalID == nil {
		t.Errorf("retried email should be processed with a proposal, got %+v", stored)
	}
}

func TestProcessInbound_LinkFailureLeavesNoOrphanProposal(t *testing.T) {
	db, cleanup := setupInboundTestDB(t)
	defer cleanup()

	service := newInboundService(db)
	seedRFPAndVendor(t, db, models.RFPStatusOpen)

	// Block every update to inbound_emails so recording the processed flag
	// fails after the proposal row would have been written
	if err := db.Exec(`CREATE TRIGGER block_email_updates BEFORE UPDATE ON inbound_emails
		BEGIN SELECT RAISE(ABORT, 'update blocked'); END`).Error; err != nil {
		t.Fatalf("Failed to create trigger: %v", err)
	}

	email, err := service.ProcessInbound(InboundEmailPayload{
		ExternalID: "msg-partial-write",
		From:       "sales@acme.test",
		Subject:    "Re: RFP-ABCD1234",
		Body:       "Our quote is $6,400 with delivery in 9 days",
	})
	if err != nil {
		t.Fatalf("ProcessInbound failed: %v", err)
	}
	if email.Processed {
		t.Error("blocked bookkeeping write should leave the email unprocessed")
	}

	var proposalCount int64
	db.Model(&models.Proposal{}).Count(&proposalCount)
	if proposalCount != 0 {
		t.Fatalf("expected no proposal while the email link cannot be written, got %d", proposalCount)
	}

	var stored models.InboundEmail
	if err := db.Where("external_id = ?", "msg-partial-write").First(&stored).Error; err != nil {
		t.Fatalf("raw email not stored: %v", err)
	}
	if stored.Processed {
		t.Error("stored email must stay unprocessed for the retry pass")
	}

	// Once writes work again, the retry pass processes the email exactly once
	if err := db.Exec("DROP TRIGGER block_email_updates").Error; err != nil {
		t.Fatalf("Failed to drop trigger: %v", err)
	}

	recovered, err := service.RetryUnprocessed(10)
	if err != nil {
		t.Fatalf("RetryUnprocessed failed: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("expected 1 recovered email, got %d", recovered)
	}

	db.Model(&models.Proposal{}).Count(&proposalCount)
	if proposalCount != 1 {
		t.Errorf("expected exactly 1 proposal after recovery, got %d", proposalCount)
	}

	db.Where("external_id = ?", "msg-partial-write").First(&stored)
	if !stored.Processed || stored.ProposalID == nil {
		t.Errorf("recovered email should be processed with a proposal, got %+v", stored)
	}
}

func TestProcessInbound_RawMIME(t *testing.T) {
	db, cleanup := setupInboundTestDB(t)
	defer cleanup()

	service := newInboundService(db)
	seedRFPAndVendor(t, db, models.RFPStatusOpen)

	raw := "From: sales@acme.test\r\n" +
		"To: rfp@procurehub.test\r\n" +
		"Subject: Re: RFP-ABCD1234 quotation\r\n" +
		"Message-Id: <raw-msg-1@acme.test>\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		"Our total price is $12,500 with delivery in 3 weeks. Net 45.\r\n"

	email, err := service.ProcessInbound(InboundEmailPayload{Raw: raw})
	if err != nil {
		t.Fatalf("ProcessInbound failed: %v", err)
	}

	if email.ExternalID != "raw-msg-1@acme.test" {
		t.Errorf("expected external ID from Message-Id header, got %q", email.ExternalID)
	}
	if !email.Processed || email.ProposalID == nil {
		t.Fatalf("raw MIME reply should yield a proposal, got error %q", email.ProcessingError)
	}

	var proposal models.Proposal
	db.First(&proposal, *email.ProposalID)
	if proposal.PriceAmount != 12500 || proposal.DeliveryDays != 21 {
		t.Errorf("unexpected extraction from raw MIME: %+v", proposal)
	}
}

func TestProcessInbound_InvalidPayload(t *testing.T) {
	db, cleanup := setupInboundTestDB(t)
	defer cleanup()

	service := newInboundService(db)

	if _, err := service.ProcessInbound(InboundEmailPayload{Subject: "no ids"}); err != ErrInvalidInboundPayload {
		t.Errorf("expected ErrInvalidInboundPayload, got %v", err)
	}
}
