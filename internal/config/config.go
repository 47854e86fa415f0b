// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/aristath/fxrisk/internal/modules/settings"
	"github.com/aristath/fxrisk/internal/utils"
)

// Config holds application configuration
type Config struct {
	DataDir string // Base directory for all databases (always absolute)

	Port     int
	DevMode  bool
	LogLevel string

	// Rate feed (REST polling + websocket stream)
	RatefeedURL    string
	RatefeedWSURL  string
	RatefeedAPIKey string

	// Pairs seeded into the approved catalog on first boot
	RatefeedPairs []string

	// Monte-Carlo simulation microservice
	SimulationServiceURL string

	// Minutes between scheduled market-rate refreshes
	RateRefreshMinutes int

	// Seed a small demo portfolio into an empty exposures database
	SeedDemoData bool

	// Cloudflare R2 backup credentials (optional; backups disabled when empty)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string

	// Days to keep cloud backups before rotation (0 = keep forever)
	R2RetentionDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	// 1. Check FXRISK_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("FXRISK_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:              absDataDir,
		Port:                 getEnvAsInt("GO_PORT", 8001), // Default 8001 (the legacy dashboard keeps 8000)
		DevMode:              getEnvAsBool("DEV_MODE", false),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		RatefeedURL:          getEnv("RATEFEED_URL", "https://api.exchangerate.host"),
		RatefeedWSURL:        getEnv("RATEFEED_WS_URL", ""),
		RatefeedAPIKey:       getEnv("RATEFEED_API_KEY", ""),
		RatefeedPairs:        utils.ParseCSV(getEnv("RATEFEED_PAIRS", "EUR/USD,GBP/USD,USD/JPY,USD/CHF,AUD/USD")),
		SimulationServiceURL: getEnv("SIMULATION_SERVICE_URL", "http://localhost:9000"),
		RateRefreshMinutes:   getEnvAsInt("RATE_REFRESH_MINUTES", 15),
		SeedDemoData:         getEnvAsBool("SEED_DEMO_DATA", true),
		R2AccountID:          getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:        getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey:    getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:         getEnv("R2_BUCKET_NAME", ""),
		R2RetentionDays:      getEnvAsInt("R2_RETENTION_DAYS", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings updates configuration from the settings database.
// This should be called after the config database is initialized.
// Settings DB values take precedence over environment variables.
func (c *Config) UpdateFromSettings(settingsRepo *settings.Repository) error {
	apiKey, err := settingsRepo.Get("ratefeed_api_key")
	if err != nil {
		return fmt.Errorf("failed to get ratefeed_api_key from settings: %w", err)
	}
	// Only use the settings DB value if it's not empty; otherwise the env
	// var value (if any) stays as fallback.
	if apiKey != nil && *apiKey != "" {
		c.RatefeedAPIKey = *apiKey
	}

	refresh, err := settingsRepo.Get("rate_refresh_minutes")
	if err != nil {
		return fmt.Errorf("failed to get rate_refresh_minutes from settings: %w", err)
	}
	if refresh != nil && *refresh != "" {
		// Parse via float to handle "15.000000" strings from the settings DB
		if minutes, err := strconv.ParseFloat(*refresh, 64); err == nil && int(minutes) > 0 {
			c.RateRefreshMinutes = int(minutes)
		}
	}

	for key, target := range map[string]*string{
		"r2_account_id":        &c.R2AccountID,
		"r2_access_key_id":     &c.R2AccessKeyID,
		"r2_secret_access_key": &c.R2SecretAccessKey,
		"r2_bucket_name":       &c.R2BucketName,
	} {
		value, err := settingsRepo.Get(key)
		if err != nil {
			return fmt.Errorf("failed to get %s from settings: %w", key, err)
		}
		if value != nil && *value != "" {
			*target = *value
		}
	}

	return nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RateRefreshMinutes < 1 {
		return fmt.Errorf("rate refresh interval must be at least 1 minute, got %d", c.RateRefreshMinutes)
	}

	// Note: ratefeed credentials optional; the rate client falls back to
	// cached rates when the feed is unreachable.

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
