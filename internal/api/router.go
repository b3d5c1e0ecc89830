package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/procurehub/core/internal/api/handlers"
	"github.com/procurehub/core/internal/api/middleware"
	"github.com/procurehub/core/internal/config"
	"github.com/procurehub/core/internal/functions"
	"github.com/procurehub/core/internal/services"
	"gorm.io/gorm"
)

// SetupRouter initializes and returns the Gin router with all routes configured
func SetupRouter(db *gorm.DB, cfg *config.Config) (*gin.Engine, *middleware.APIKeyManager, error) {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitOrigins(cfg.CORSOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-API-Key", "X-Webhook-Secret"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	apiKeyManager, err := middleware.NewAPIKeyManager(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}

	// Initialize services
	logService := services.NewLogServiceWithLevel(db, cfg.LogLevel)
	processor := functions.NewProcessor(cfg)
	mailer := services.NewMailer(cfg)
	vendorService := services.NewVendorService(db)
	proposalService := services.NewProposalService(db, processor, logService)
	rfpService := services.NewRFPService(db, processor, mailer, logService)
	inboundService := services.NewInboundService(db, processor, proposalService, logService)

	// Retry failed inbound processing every 2 minutes
	retryScheduler := services.NewRetryScheduler(inboundService, logService, 2*time.Minute)
	retryScheduler.Start()

	// Initialize handlers
	rfpHandler := handlers.NewRFPHandler(rfpService, proposalService, logService)
	vendorHandler := handlers.NewVendorHandler(vendorService)
	proposalHandler := handlers.NewProposalHandler(proposalService)
	webhookHandler := handlers.NewWebhookHandler(inboundService)
	logHandler := handlers.NewLogHandler(logService)

	// Health check endpoint (no auth required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// The inbound webhook authenticates with a shared secret, not the
		// API key: the mail provider never holds operator credentials
		webhooks := api.Group("/webhooks")
		webhooks.Use(middleware.WebhookAuthMiddleware(cfg.WebhookSecret))
		{
			webhooks.POST("/inbound-email", webhookHandler.ReceiveInboundEmail)
		}

		// Operator routes (API key required)
		protected := api.Group("")
		protected.Use(middleware.APIKeyMiddleware(apiKeyManager))
		{
			rfps := protected.Group("/rfps")
			{
				rfps.GET("", rfpHandler.ListRFPs)
				rfps.POST("", rfpHandler.CreateRFP)
				rfps.GET("/:id", rfpHandler.GetRFP)
				rfps.PUT("/:id/status", rfpHandler.UpdateRFPStatus)
				rfps.DELETE("/:id", rfpHandler.DeleteRFP)
				rfps.POST("/:id/vendors", rfpHandler.AttachVendors)
				rfps.POST("/:id/send", rfpHandler.SendToVendors)
				rfps.GET("/:id/proposals", rfpHandler.ListRFPProposals)
				rfps.POST("/:id/score", rfpHandler.ScoreRFPProposals)
				rfps.GET("/:id/comparison", rfpHandler.GetComparison)
			}

			vendors := protected.Group("/vendors")
			{
				vendors.GET("", vendorHandler.ListVendors)
				vendors.POST("", vendorHandler.CreateVendor)
				vendors.GET("/:id", vendorHandler.GetVendor)
				vendors.PUT("/:id", vendorHandler.UpdateVendor)
				vendors.DELETE("/:id", vendorHandler.DeleteVendor)
			}

			proposals := protected.Group("/proposals")
			{
				proposals.GET("/:id", proposalHandler.GetProposal)
				proposals.PUT("/:id/status", proposalHandler.UpdateProposalStatus)
				proposals.DELETE("/:id", proposalHandler.DeleteProposal)
			}

			inbound := protected.Group("/inbound-emails")
			{
				inbound.GET("", webhookHandler.ListInboundEmails)
				inbound.GET("/:id", webhookHandler.GetInboundEmail)
			}

			// Reference-code lookup lives outside /rfps/:id to avoid a
			// wildcard conflict in the route tree
			protected.GET("/rfp-lookup/:code", rfpHandler.GetRFPByReference)
			protected.GET("/stats", proposalHandler.GetStats)
			protected.GET("/logs", logHandler.ListLogs)
		}
	}

	return router, apiKeyManager, nil
}

// splitOrigins parses the comma-separated CORS origin list
func splitOrigins(origins string) []string {
	if origins == "" {
		return []string{"*"}
	}
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return []string{"*"}
	}
	return result
}
