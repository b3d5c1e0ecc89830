package cli

import (
	"fmt"
	"os"

	"github.com/procurehub/core/internal/api/middleware"
	"github.com/procurehub/core/internal/config"
	"github.com/procurehub/core/internal/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	db            *gorm.DB
	cfg           *config.Config
	apiKeyManager *middleware.APIKeyManager
	vendorService *services.VendorService
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "procurehub",
	Short: "ProcureHub procurement workflow backend",
	Long: `ProcureHub turns natural-language purchase requests into RFPs,
emails them to vendors and extracts proposals from vendor replies.

Available management commands:
  procurehub key show       # Show the current API key
  procurehub key reset      # Reset the API key
  procurehub vendor add     # Register a vendor
  procurehub vendor list    # List registered vendors`,
}

// Execute runs the CLI with the provided database and config
func Execute(database *gorm.DB, config *config.Config) {
	db = database
	cfg = config

	var err error
	apiKeyManager, err = middleware.NewAPIKeyManager(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize API key manager: %v\n", err)
		os.Exit(1)
	}

	vendorService = services.NewVendorService(db)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(vendorCmd)
}
