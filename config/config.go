package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/Annany2002/taxacurator/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Gateway drivers understood by LoadConfig.
const (
	GatewaySQLite = "sqlite"
	GatewayREST   = "rest"
)

// Config holds application configuration values
type Config struct {
	ServerPort         string `env:"SERVER_PORT" envDefault:"8080"`
	JWTSecret          string `env:"JWT_SECRET"`
	JWTExpirationHours int    `env:"JWT_EXPIRATION_HOURS" envDefault:"24"`
	JWTExpiration      time.Duration

	// Remote Data Gateway selection
	GatewayDriver  string        `env:"GATEWAY_DRIVER" envDefault:"sqlite"`
	DatabaseDir    string        `env:"DATABASE_DIRECTORY" envDefault:"data"`
	DatabaseFile   string        `env:"DATABASE_FILE" envDefault:"taxa.db"`
	GatewayURL     string        `env:"GATEWAY_URL"`
	GatewayAPIKey  string        `env:"GATEWAY_API_KEY"`
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"15s"`

	CORSOrigins        []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`

	// Seeded on startup when no account with this email exists
	AdminEmail       string `env:"ADMIN_EMAIL"`
	AdminPassword    string `env:"ADMIN_PASSWORD"`
	AdminDisplayName string `env:"ADMIN_DISPLAY_NAME" envDefault:"Administrator"`

	DefaultPageSize int `env:"DEFAULT_PAGE_SIZE" envDefault:"25"`
	MaxPageSize     int `env:"MAX_PAGE_SIZE" envDefault:"500"`
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")

	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	customLog.Printf("Configuration loaded successfully. Port: %s, Gateway: %s, JWT Exp: %v",
		cfg.ServerPort, cfg.GatewayDriver, cfg.JWTExpiration)
	return cfg, nil
}

// normalize validates required values and replaces out-of-range ones with defaults.
func (c *Config) normalize() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable must be set")
	}
	if c.JWTSecret == "!!replace_this_with_a_real_secret_key!!" {
		customLog.Warnln("WARNING: JWT_SECRET is set to the default placeholder!")
	}

	if c.JWTExpirationHours <= 0 {
		customLog.Warnf("Invalid JWT_EXPIRATION_HOURS '%d'. Using default 24h.", c.JWTExpirationHours)
		c.JWTExpirationHours = 24
	}
	c.JWTExpiration = time.Hour * time.Duration(c.JWTExpirationHours)

	c.GatewayDriver = strings.ToLower(strings.TrimSpace(c.GatewayDriver))
	switch c.GatewayDriver {
	case GatewaySQLite:
	case GatewayREST:
		if c.GatewayURL == "" {
			return errors.New("GATEWAY_URL must be set when GATEWAY_DRIVER=rest")
		}
	default:
		return fmt.Errorf("unsupported GATEWAY_DRIVER '%s'", c.GatewayDriver)
	}

	if c.GatewayTimeout <= 0 {
		c.GatewayTimeout = 15 * time.Second
	}
	if c.RateLimitPerMinute <= 0 {
		customLog.Warnf("Invalid RATE_LIMIT_PER_MINUTE '%d'. Using default 120.", c.RateLimitPerMinute)
		c.RateLimitPerMinute = 120
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 500
	}
	if c.DefaultPageSize <= 0 || c.DefaultPageSize > c.MaxPageSize {
		customLog.Warnf("Invalid DEFAULT_PAGE_SIZE '%d'. Using 25.", c.DefaultPageSize)
		c.DefaultPageSize = 25
	}
	return nil
}
