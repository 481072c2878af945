// Package config loads binary configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/time/rate"

	"github.com/eshaffer321/chartagopm-go/internal/types"
	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

// ClientPrefix is the environment prefix for client settings
const ClientPrefix = "CHARTAGO"

// ClientConfig holds CLI and MCP server configuration.
type ClientConfig struct {
	BaseURL         string        `envconfig:"BASE_URL" default:"http://localhost:8000"`
	SessionFile     string        `envconfig:"SESSION_FILE"`
	Email           string        `envconfig:"EMAIL"`
	Password        string        `envconfig:"PASSWORD"`
	Timeout         time.Duration `envconfig:"TIMEOUT" default:"30s"`
	MaxRetries      int           `envconfig:"MAX_RETRIES" default:"0"`
	RateLimitRPS    float64       `envconfig:"RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst  int           `envconfig:"RATE_LIMIT_BURST" default:"1"`
	CoalesceRefresh bool          `envconfig:"COALESCE_REFRESH" default:"false"`
	SentryDSN       string        `envconfig:"SENTRY_DSN"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"warn"`
	LogDev          bool          `envconfig:"LOG_DEV" default:"false"`
}

// ServerConfig holds development API server configuration.
type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            string        `envconfig:"PORT" default:"8000"`
	JWTSecret       string        `envconfig:"JWT_SECRET"`
	RefreshSecret   string        `envconfig:"REFRESH_SECRET"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	SecureCookies   bool          `envconfig:"SECURE_COOKIES" default:"false"`
	SeedDemo        bool          `envconfig:"SEED_DEMO" default:"true"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogDev          bool          `envconfig:"LOG_DEV" default:"false"`
}

// LoadClient loads CHARTAGO_* variables.
func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process(ClientPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = DefaultSessionFile()
	}
	return &cfg, nil
}

// LoadServer loads the dev server variables.
func LoadServer() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// DefaultSessionFile is ~/.config/chartago/session.json, or a relative
// path when no config directory is known.
func DefaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".chartago", "session.json")
	}
	return filepath.Join(dir, "chartago", "session.json")
}

// ClientOptions turns the configuration into client options.
func (c *ClientConfig) ClientOptions(logger types.Logger) *chartago.ClientOptions {
	opts := &chartago.ClientOptions{
		BaseURL:         c.BaseURL,
		Timeout:         c.Timeout,
		SessionFile:     c.SessionFile,
		Logger:          logger,
		SentryDSN:       c.SentryDSN,
		CoalesceRefresh: c.CoalesceRefresh,
	}

	if c.MaxRetries > 0 {
		opts.RetryConfig = &types.RetryConfig{
			MaxRetries: c.MaxRetries,
			RetryWait:  500 * time.Millisecond,
			MaxWait:    5 * time.Second,
		}
	}

	if c.RateLimitRPS > 0 {
		burst := c.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		opts.RateLimiter = rate.NewLimiter(rate.Limit(c.RateLimitRPS), burst)
	}

	return opts
}
