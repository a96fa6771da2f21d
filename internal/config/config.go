package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Cart modes.
const (
	CartModeRemote = "remote"
	CartModeLocal  = "local"
)

// Config holds all application configuration.
type Config struct {
	API       APIConfig
	Cart      CartConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
	Promotion PromotionConfig
	S3        S3Config
}

// APIConfig holds storefront REST API settings.
type APIConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// CartConfig selects where the shopper's cart lives.
type CartConfig struct {
	Mode      string // "remote" or "local"
	SessionID uuid.UUID
	// StaleResponseGuard discards cart responses that arrive after a newer one.
	StaleResponseGuard bool
}

// DatabaseConfig holds database-related configuration for the local cart.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// PromotionConfig holds the offline promotion snapshot location.
type PromotionConfig struct {
	SnapshotPath string
}

// S3Config holds AWS S3 configuration for promotion snapshots.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "promotions/")
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first; variables already set take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cartMode := getEnv("CART_MODE", CartModeRemote)
	sessionID, err := cartSessionID(cartMode)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:        getEnv("API_BASE_URL", "http://127.0.0.1:5000/api"),
			APIKey:         getEnv("API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("API_TIMEOUT_SECONDS", 30),
		},
		Cart: CartConfig{
			Mode:               cartMode,
			SessionID:          sessionID,
			StaleResponseGuard: getEnvAsBool("STALE_RESPONSE_GUARD", false),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "sweetheaven"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 1),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Promotion: PromotionConfig{
			SnapshotPath: getEnv("PROMOTION_SNAPSHOT_PATH", ""),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "promotions/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %s", c.API.BaseURL)
	}

	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("API timeout cannot be negative")
	}

	if c.Cart.Mode != CartModeRemote && c.Cart.Mode != CartModeLocal {
		return fmt.Errorf("invalid cart mode: %s (must be remote or local)", c.Cart.Mode)
	}

	if c.Cart.Mode == CartModeLocal {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
		if c.Promotion.SnapshotPath == "" {
			return fmt.Errorf("promotion snapshot path is required when S3 is enabled")
		}
	}

	return nil
}

// Validate validates the database settings used by the local cart.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Timeout returns the HTTP client timeout. Zero means no timeout.
func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// cartSessionID returns CART_SESSION_ID when set. Otherwise a local cart
// keeps its session in CART_SESSION_FILE so every run reads the same lines;
// a remote cart gets a throwaway ID.
func cartSessionID(mode string) (uuid.UUID, error) {
	if os.Getenv("CART_SESSION_ID") != "" || mode != CartModeLocal {
		id, err := getEnvAsUUID("CART_SESSION_ID")
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid CART_SESSION_ID: %w", err)
		}
		return id, nil
	}

	path := getEnv("CART_SESSION_FILE", "")
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to locate cart session file: %w", err)
		}
		path = filepath.Join(dir, "sweet-heaven", "cart-session")
	}
	return loadOrCreateSessionID(path)
}

// loadOrCreateSessionID reads the session ID stored at path, writing a new
// one there on first use.
func loadOrCreateSessionID(path string) (uuid.UUID, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		id, err := uuid.Parse(strings.TrimSpace(string(data)))
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid cart session file %s: %w", path, err)
		}
		return id, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return uuid.Nil, fmt.Errorf("failed to read cart session file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create cart session directory: %w", err)
	}
	id := uuid.New()
	if err := os.WriteFile(path, []byte(id.String()+"\n"), 0o600); err != nil {
		return uuid.Nil, fmt.Errorf("failed to write cart session file: %w", err)
	}
	return id, nil
}

// getEnvAsUUID parses a UUID variable, generating a fresh one when unset.
func getEnvAsUUID(key string) (uuid.UUID, error) {
	if value := os.Getenv(key); value != "" {
		return uuid.Parse(value)
	}
	return uuid.New(), nil
}
