package main

import (
	"log"
	"os"

	"github.com/procurehub/core/internal/api"
	"github.com/procurehub/core/internal/cli"
	"github.com/procurehub/core/internal/config"
	"github.com/procurehub/core/internal/database"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Check if running CLI command
	if len(os.Args) > 1 {
		cli.Execute(db, cfg)
		return
	}

	// Start API server
	router, apiKeyManager, err := api.SetupRouter(db, cfg)
	if err != nil {
		log.Fatalf("Failed to setup router: %v", err)
	}

	log.Printf("Starting ProcureHub server on port %s", cfg.APIPort)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Database path: %s", cfg.DatabasePath)
	log.Printf("API Key: %s", apiKeyManager.GetCurrentKey())
	if cfg.WebhookSecret == "" {
		log.Printf("Warning: webhook secret not configured; inbound email deliveries will be rejected")
	}
	if !cfg.SMTPConfigured() {
		log.Printf("Warning: SMTP not configured; RFP invitations cannot be sent")
	}
	if !cfg.AIConfigured() {
		log.Printf("AI provider not configured; using pattern-based extraction only")
	}
	if err := router.Run(":" + cfg.APIPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
