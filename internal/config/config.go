package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port          string `envconfig:"PORT" default:"3001"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"*"`

	// Logging configuration
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// Backend API configuration
	BackendURL     string        `envconfig:"BACKEND_URL" default:"http://localhost:8000"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"0s"`

	// Console session configuration
	SessionSecret  string        `envconfig:"SESSION_SECRET"`
	SessionCookie  string        `envconfig:"SESSION_COOKIE" default:"a2a_console"`
	SessionIdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`

	// UI feedback timings
	ToastTTL           time.Duration `envconfig:"TOAST_TTL" default:"3s"`
	DownloadMinLoading time.Duration `envconfig:"DOWNLOAD_MIN_LOADING" default:"1s"`

	// DisplayTimezone is used for date filters and CSV timestamps
	DisplayTimezone string `envconfig:"DISPLAY_TIMEZONE" default:"Local"`

	// Access control
	RolePolicyFile string `envconfig:"ROLE_POLICY_FILE"`

	// Login throttling
	LoginRatePerSecond float64 `envconfig:"LOGIN_RATE_PER_SECOND" default:"1"`
	LoginRateBurst     int     `envconfig:"LOGIN_RATE_BURST" default:"5"`
}

// New creates a new Config instance by loading environment variables
// from .env file (if present) and OS environment.
// OS environment variables take precedence over .env file values.
// Panics if configuration values are invalid.
func New() *Config {
	_ = godotenv.Load(filepath.Join(".", ".env"))

	cfg, err := Load()
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// Load decodes the process environment into a Config without touching .env.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks that configuration values are present and valid
func (c *Config) validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute URL (got '%s')", c.BackendURL)
	}
	if c.SessionCookie == "" {
		return fmt.Errorf("SESSION_COOKIE must not be empty")
	}
	if len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 characters (got %d)", len(c.SessionSecret))
	}
	if c.BackendTimeout < 0 || c.ToastTTL <= 0 || c.DownloadMinLoading < 0 {
		return fmt.Errorf("durations must not be negative and TOAST_TTL must be positive")
	}
	if c.LoginRatePerSecond <= 0 || c.LoginRateBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_SECOND and LOGIN_RATE_BURST must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves DisplayTimezone
func (c *Config) Location() (*time.Location, error) {
	if c.DisplayTimezone == "" || c.DisplayTimezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("DISPLAY_TIMEZONE is not a known zone (got '%s'): %w", c.DisplayTimezone, err)
	}
	return loc, nil
}

// MustLocation is Location for already validated configs
func (c *Config) MustLocation() *time.Location {
	loc, err := c.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

// randomSecret is used when no SESSION_SECRET is configured; console
// sessions then do not survive a restart.
func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate session secret: %v", err))
	}
	return hex.EncodeToString(b)
}
