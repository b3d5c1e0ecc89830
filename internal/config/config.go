package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	DatabasePath string `json:"database_path"`
	APIPort      string `json:"api_port"`
	LogLevel     string `json:"log_level"`
	DataDir      string `json:"data_dir"`
	CORSOrigins  string `json:"cors_origins"` // Comma-separated origins, * for all

	// Inbound webhook
	WebhookSecret string `json:"webhook_secret"` // Shared secret for the inbound email webhook

	// Outbound SMTP
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     string `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	SMTPFrom     string `json:"smtp_from"`

	// AI provider (black-box chat-completions service)
	AIProvider string `json:"ai_provider"`
	AIAPIKey   string `json:"ai_api_key"`
	AIModel    string `json:"ai_model"`
	AIBaseURL  string `json:"ai_base_url"`
}

// Default configuration values
const (
	DefaultDatabasePath = "data/procurehub.db"
	DefaultAPIPort      = "8080"
	DefaultLogLevel     = "INFO"
	DefaultDataDir      = "data"
	DefaultCORSOrigins  = "*"
	DefaultSMTPPort     = "587"
	DefaultAIProvider   = "openai"
)

// Load loads configuration from environment variables and config file
// Priority: Environment variables > Config file > Default values
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath: DefaultDatabasePath,
		APIPort:      DefaultAPIPort,
		LogLevel:     DefaultLogLevel,
		DataDir:      DefaultDataDir,
		CORSOrigins:  DefaultCORSOrigins,
		SMTPPort:     DefaultSMTPPort,
		AIProvider:   DefaultAIProvider,
	}

	// Config file is optional
	if err := cfg.loadFromFile(); err != nil {
		return nil, err
	}

	// Override with environment variables
	cfg.loadFromEnv()

	return cfg, nil
}

// loadFromFile loads configuration from config.json file
func (c *Config) loadFromFile() error {
	// Look for config file in current directory and data directory
	configPaths := []string{
		"config.json",
		filepath.Join(c.DataDir, "config.json"),
	}

	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		if err := json.Unmarshal(data, c); err != nil {
			return err
		}
		return nil
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROCUREHUB_DATABASE_PATH"); val != "" {
		c.DatabasePath = val
	}
	if val := os.Getenv("PROCUREHUB_API_PORT"); val != "" {
		c.APIPort = val
	}
	if val := os.Getenv("PROCUREHUB_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("PROCUREHUB_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("PROCUREHUB_CORS_ORIGINS"); val != "" {
		c.CORSOrigins = val
	}
	if val := os.Getenv("PROCUREHUB_WEBHOOK_SECRET"); val != "" {
		c.WebhookSecret = val
	}
	if val := os.Getenv("PROCUREHUB_SMTP_HOST"); val != "" {
		c.SMTPHost = val
	}
	if val := os.Getenv("PROCUREHUB_SMTP_PORT"); val != "" {
		c.SMTPPort = val
	}
	if val := os.Getenv("PROCUREHUB_SMTP_USERNAME"); val != "" {
		c.SMTPUsername = val
	}
	if val := os.Getenv("PROCUREHUB_SMTP_PASSWORD"); val != "" {
		c.SMTPPassword = val
	}
	if val := os.Getenv("PROCUREHUB_SMTP_FROM"); val != "" {
		c.SMTPFrom = val
	}
	if val := os.Getenv("PROCUREHUB_AI_PROVIDER"); val != "" {
		c.AIProvider = val
	}
	if val := os.Getenv("PROCUREHUB_AI_API_KEY"); val != "" {
		c.AIAPIKey = val
	}
	if val := os.Getenv("PROCUREHUB_AI_MODEL"); val != "" {
		c.AIModel = val
	}
	if val := os.Getenv("PROCUREHUB_AI_BASE_URL"); val != "" {
		c.AIBaseURL = val
	}
}

// AIConfigured reports whether an AI provider is usable
func (c *Config) AIConfigured() bool {
	return c.AIAPIKey != ""
}

// SMTPConfigured reports whether outbound mail can be sent
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// Save saves the current configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
