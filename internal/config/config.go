// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Sync backends
const (
	SyncBackendNone      = ""
	SyncBackendPostgREST = "postgrest"
	SyncBackendS3        = "s3"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Directory holding tradebook.db and client_data.db (always absolute)
	LogLevel  string
	LogPretty bool
	Port      int
	DevMode   bool
	Sync      *SyncConfig
	Quotes    *QuoteConfig
}

// SyncConfig selects and configures the remote mirror store
type SyncConfig struct {
	Backend string
	Timeout time.Duration

	// PostgREST (Supabase style) endpoint
	RemoteURL    string
	RemoteAPIKey string

	// S3 compatible object storage (AWS S3, Cloudflare R2, MinIO)
	S3Bucket    string
	S3Prefix    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// Enabled reports whether a remote mirror is configured
func (s *SyncConfig) Enabled() bool {
	return s != nil && s.Backend != SyncBackendNone
}

// QuoteConfig configures the broker quote service client
type QuoteConfig struct {
	ServiceURL string
	CacheTTL   time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("TRADEBOOK_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		Port:      getEnvAsInt("GO_PORT", 8080),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		Sync:      loadSyncConfig(),
		Quotes: &QuoteConfig{
			ServiceURL: getEnv("QUOTE_SERVICE_URL", ""),
			CacheTTL:   time.Duration(getEnvAsInt("QUOTE_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadSyncConfig() *SyncConfig {
	return &SyncConfig{
		Backend:      getEnv("SYNC_BACKEND", SyncBackendNone),
		Timeout:      time.Duration(getEnvAsInt("REMOTE_TIMEOUT_SECONDS", 30)) * time.Second,
		RemoteURL:    getEnv("REMOTE_URL", ""),
		RemoteAPIKey: getEnv("REMOTE_API_KEY", ""),
		S3Bucket:     getEnv("REMOTE_S3_BUCKET", ""),
		S3Prefix:     getEnv("REMOTE_S3_PREFIX", "tradebook"),
		S3Region:     getEnv("REMOTE_S3_REGION", "auto"),
		S3Endpoint:   getEnv("REMOTE_S3_ENDPOINT", ""),
		S3AccessKey:  getEnv("REMOTE_S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("REMOTE_S3_SECRET_KEY", ""),
	}
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	if c.Sync == nil {
		return nil
	}

	switch c.Sync.Backend {
	case SyncBackendNone:
	case SyncBackendPostgREST:
		if c.Sync.RemoteURL == "" {
			return fmt.Errorf("REMOTE_URL is required for sync backend %q", c.Sync.Backend)
		}
	case SyncBackendS3:
		if c.Sync.S3Bucket == "" {
			return fmt.Errorf("REMOTE_S3_BUCKET is required for sync backend %q", c.Sync.Backend)
		}
	default:
		return fmt.Errorf("unknown sync backend %q", c.Sync.Backend)
	}

	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("remote timeout must be positive")
	}

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
