// Package config loads and validates commonground configuration from the
// environment and an optional .env file using Viper.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"

	SessionBackendDatabase = "database"
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"

	minBcryptCost = 4
	maxBcryptCost = 31
	minSecretLen  = 32
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the listen address of the HTTP server.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseDriver is "sqlite" or "postgres".
	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	// DatabaseURL is a file path or DSN for sqlite, a connection string for postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// SessionBackend is "database", "memory" or "redis".
	SessionBackend         string        `mapstructure:"SESSION_BACKEND"`
	RedisURL               string        `mapstructure:"REDIS_URL"`
	SessionCookieName      string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionCookieSecure    bool          `mapstructure:"SESSION_COOKIE_SECURE"`
	SessionTTL             time.Duration `mapstructure:"SESSION_TTL"`
	SessionTokenBytes      int           `mapstructure:"SESSION_TOKEN_BYTES"`
	SessionCleanupInterval time.Duration `mapstructure:"SESSION_CLEANUP_INTERVAL"`
	// SessionRetention is how long expired or revoked sessions are kept before purging.
	SessionRetention time.Duration `mapstructure:"SESSION_RETENTION"`

	FilesDir      string `mapstructure:"FILES_DIR"`
	FilesMaxBytes int64  `mapstructure:"FILES_MAX_BYTES"`

	// VerificationSecret signs e-mail verification tokens. Required in production.
	VerificationSecret string        `mapstructure:"VERIFICATION_SECRET"`
	VerificationTTL    time.Duration `mapstructure:"VERIFICATION_TTL"`

	BcryptCost         int     `mapstructure:"BCRYPT_COST"`
	LoginRatePerSecond float64 `mapstructure:"LOGIN_RATE_PER_SECOND"`
	LoginBurst         int     `mapstructure:"LOGIN_BURST"`
	// TrustProxyHeaders keys the login limiter on X-Forwarded-For when set.
	TrustProxyHeaders bool `mapstructure:"TRUST_PROXY_HEADERS"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	// Env is the application environment, e.g. "development" or "production".
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env from the working directory, if present, then the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path. A missing file is ignored
// and environment variables override values from the file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.DatabaseDriver = strings.ToLower(cfg.DatabaseDriver)
	cfg.SessionBackend = strings.ToLower(cfg.SessionBackend)

	if cfg.VerificationSecret == "" && !cfg.IsProduction() {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		cfg.VerificationSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_DRIVER", DriverSqlite)
	v.SetDefault("DATABASE_URL", "commonground.db")
	v.SetDefault("SESSION_BACKEND", SessionBackendDatabase)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SESSION_COOKIE_NAME", "session_id")
	v.SetDefault("SESSION_COOKIE_SECURE", true)
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("SESSION_TOKEN_BYTES", 32)
	v.SetDefault("SESSION_CLEANUP_INTERVAL", "1h")
	v.SetDefault("SESSION_RETENTION", "24h")
	v.SetDefault("FILES_DIR", "files")
	v.SetDefault("FILES_MAX_BYTES", 10<<20)
	v.SetDefault("VERIFICATION_SECRET", "")
	v.SetDefault("VERIFICATION_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("LOGIN_RATE_PER_SECOND", 0.2)
	v.SetDefault("LOGIN_BURST", 5)
	v.SetDefault("TRUST_PROXY_HEADERS", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("APP_ENV", "development")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config: "+format, args...))
	}

	if c.HTTPAddr == "" {
		add("HTTP_ADDR must be set")
	}
	if !slices.Contains([]string{DriverSqlite, DriverPostgres}, c.DatabaseDriver) {
		add("DATABASE_DRIVER must be %q or %q, got %q", DriverSqlite, DriverPostgres, c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		add("DATABASE_URL must be set")
	}
	switch c.SessionBackend {
	case SessionBackendDatabase, SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisURL == "" {
			add("REDIS_URL must be set when SESSION_BACKEND=redis")
		}
	default:
		add("SESSION_BACKEND must be one of database, memory, redis, got %q", c.SessionBackend)
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		add("SESSION_COOKIE_NAME must not be empty")
	}
	if c.SessionTTL <= 0 {
		add("SESSION_TTL must be positive")
	}
	if c.SessionTokenBytes < 16 {
		add("SESSION_TOKEN_BYTES must be at least 16")
	}
	if c.SessionCleanupInterval < 0 || c.SessionRetention < 0 {
		add("SESSION_CLEANUP_INTERVAL and SESSION_RETENTION must not be negative")
	}
	if c.FilesMaxBytes <= 0 {
		add("FILES_MAX_BYTES must be positive")
	}
	if len(c.VerificationSecret) < minSecretLen {
		add("VERIFICATION_SECRET must be at least %d bytes", minSecretLen)
	}
	if c.VerificationTTL <= 0 {
		add("VERIFICATION_TTL must be positive")
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > maxBcryptCost {
		add("BCRYPT_COST must be between %d and %d", minBcryptCost, maxBcryptCost)
	}
	if c.LoginRatePerSecond <= 0 || c.LoginBurst < 1 {
		add("LOGIN_RATE_PER_SECOND must be positive and LOGIN_BURST at least 1")
	}
	if c.IsProduction() && !c.SessionCookieSecure {
		add("SESSION_COOKIE_SECURE must be true when APP_ENV=production")
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func randomSecret() (string, error) {
	b := make([]byte, minSecretLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
