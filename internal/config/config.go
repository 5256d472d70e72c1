// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir          string // Base directory for all databases (always absolute)
	Port             int
	DevMode          bool
	LogLevel         string
	CryptoCompareKey string // CryptoCompare API key for prices/history
	EtherscanKey     string // Etherscan API key for ERC-20 balance reads
	DisplayCurrency  string // EUR or USD
	Wallets          WalletConfig
	Refresh          RefreshConfig
	Backup           BackupConfig
}

// WalletConfig holds the on-chain addresses wallet sync reads balances from.
// Empty addresses disable that chain's sync.
type WalletConfig struct {
	XRP  string // XRPL account address
	QNT  string // Ethereum address holding the ERC-20 QNT balance
	HBAR string // Hedera account ID (0.0.x form)
	XDC  string // XDC address (xdc... or 0x... form)
}

// RefreshConfig holds the cron cadences for the independent refresh pipelines.
// Prices refresh fastest, history slowest; the pipelines never block each other.
type RefreshConfig struct {
	Prices     string
	Sentiment  string
	History    string
	WalletSync string
	Snapshot   string
}

// BackupConfig holds S3-compatible backup settings. Backups are disabled when
// the bucket is empty.
type BackupConfig struct {
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Schedule  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. CRYPTOFOLIO_DATA_DIR environment variable
	// 2. ./data under the working directory
	// Always resolved to an absolute path, created if missing.
	dataDir := getEnv("CRYPTOFOLIO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("PORT", 8090),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CryptoCompareKey: getEnv("CRYPTOCOMPARE_API_KEY", ""),
		EtherscanKey:     getEnv("ETHERSCAN_API_KEY", ""),
		DisplayCurrency:  getEnv("DISPLAY_CURRENCY", "EUR"),
		Wallets: WalletConfig{
			XRP:  getEnv("WALLET_XRP", ""),
			QNT:  getEnv("WALLET_QNT", ""),
			HBAR: getEnv("WALLET_HBAR", ""),
			XDC:  getEnv("WALLET_XDC", ""),
		},
		Refresh: RefreshConfig{
			Prices:     getEnv("REFRESH_PRICES", "@every 30s"),
			Sentiment:  getEnv("REFRESH_SENTIMENT", "@every 5m"),
			History:    getEnv("REFRESH_HISTORY", "@every 15m"),
			WalletSync: getEnv("REFRESH_WALLET_SYNC", "@every 1h"),
			Snapshot:   getEnv("REFRESH_SNAPSHOT", "@hourly"),
		},
		Backup: BackupConfig{
			Bucket:    getEnv("BACKUP_S3_BUCKET", ""),
			Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
			AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
			Region:    getEnv("BACKUP_S3_REGION", "auto"),
			Schedule:  getEnv("BACKUP_SCHEDULE", "0 0 4 * * *"),
		},
	}

	if cfg.DisplayCurrency != "EUR" && cfg.DisplayCurrency != "USD" {
		return nil, fmt.Errorf("unsupported display currency %q (want EUR or USD)", cfg.DisplayCurrency)
	}

	return cfg, nil
}

// BackupEnabled reports whether cloud backups are configured.
func (c *Config) BackupEnabled() bool {
	return c.Backup.Bucket != ""
}

// DatabasePath returns the absolute path for a named database file.
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name)
}

// getEnv retrieves an environment variable value, returning a fallback if the
// variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvAsBool retrieves an environment variable as a boolean
func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
