package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/procurehub/core/internal/database/models"
	"github.com/procurehub/core/internal/functions"
	"github.com/procurehub/core/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The webhook endpoint must accept any delivery that carries an external ID
// and sender, store it even when it cannot be processed, and answer
// redeliveries with the already stored record.

func setupWebhookTest(t *testing.T) (*gin.Engine, *gorm.DB, func()) {
	gin.SetMode(gin.TestMode)

	tmpFile, err := os.CreateTemp("", "webhook_test_*.db")
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

	processor := functions.NewProcessor(nil)
	logService := services.NewLogService(db)
	proposalService := services.NewProposalService(db, processor, logService)
	inboundService := services.NewInboundService(db, processor, proposalService, logService)
	handler := NewWebhookHandler(inboundService)

	router := gin.New()
	router.POST("/api/webhooks/inbound-email", handler.ReceiveInboundEmail)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		os.Remove(tmpFile.Name())
	}

	return router, db, cleanup
}

func postInbound(router *gin.Engine, payload map[string]interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", "/api/webhooks/inbound-email", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestReceiveInboundEmail_StoresDelivery(t *testing.T) {
	router, db, cleanup := setupWebhookTest(t)
	defer cleanup()

	db.Create(&models.RFP{ReferenceCode: "RFP-FEEDBEEF", Title: "Monitors", Status: string(models.RFPStatusOpen)})
	db.Create(&models.Vendor{Name: "Acme", Email: "sales@acme.test"})

	w := postInbound(router, map[string]interface{}{
		"external_id": "hook-msg-1",
		"from":        "sales@acme.test",
		"subject":     "Re: RFP-FEEDBEEF",
		"body":        "Our quote is $3,200 with delivery in 12 days",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Success bool                `json:"success"`
		Data    models.InboundEmail `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !response.Success || !response.Data.Processed || response.Data.ProposalID == nil {
		t.Errorf("expected processed delivery with proposal, got %+v", response.Data)
	}
}

func TestReceiveInboundEmail_InvalidPayload(t *testing.T) {
	router, _, cleanup := setupWebhookTest(t)
	defer cleanup()

	w := postInbound(router, map[string]interface{}{"subject": "no identifiers"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for payload without identifiers, got %d", w.Code)
	}
}

func TestProperty_ReceiveInboundEmail_Redelivery(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10
	properties := gopter.NewProperties(parameters)

	// Property: redelivering a webhook payload never creates a second record
	properties.Property("redelivery_is_idempotent", prop.ForAll(
		func(suffix uint32) bool {
			router, db, cleanup := setupWebhookTest(t)
			defer cleanup()

			payload := map[string]interface{}{
				"external_id": fmt.Sprintf("hook-%08x", suffix),
				"from":        "anyone@example.test",
				"subject":     "No reference here",
				"body":        "Hello there",
			}

			if w := postInbound(router, payload); w.Code != http.StatusOK {
				return false
			}
			if w := postInbound(router, payload); w.Code != http.StatusOK {
				return false
			}

			var count int64
			db.Model(&models.InboundEmail{}).Count(&count)
			return count == 1
		},
		gen.UInt32(),
	))

	properties.TestingRun(t)
}

func TestReceiveInboundEmail_StoredDespiteUnknownReference(t *testing.T) {
	router, db, cleanup := setupWebhookTest(t)
	defer cleanup()

	w := postInbound(router, map[string]interface{}{
		"external_id": "hook-unknown-ref",
		"from":        "sales@acme.test",
		"subject":     "Re: RFP-00000000",
		"body":        "Quote attached",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var stored models.InboundEmail
	if err := db.Where("external_id = ?", "hook-unknown-ref").First(&stored).Error; err != nil {
		t.Fatalf("delivery not stored: %v", err)
	}
	if stored.Processed {
		t.Error("unknown reference should leave the delivery unprocessed")
	}
	if stored.ProcessingError == "" {
		t.Error("expected a recorded processing error")
	}
}
