// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Selection SelectionConfig
	Session   SessionConfig
	Export    ExportConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// CatalogConfig describes where the product list comes from.
type CatalogConfig struct {
	// Source is a file path or an http(s) URL of the delimited catalog (default: idcatalog.csv)
	Source string `env:"CATALOG_SOURCE" default:"idcatalog.csv"`

	// Delimiter is the single-character field separator (default: ,)
	Delimiter string `env:"CATALOG_DELIMITER" default:","`

	// LoadTimeout bounds the initial fetch (default: 30s)
	LoadTimeout time.Duration `env:"CATALOG_LOAD_TIMEOUT" default:"30s"`

	// PageSize is the initial number of cards per page, 0 means all (default: 30)
	PageSize int `env:"CATALOG_PAGE_SIZE" default:"30"`
}

// SelectionConfig selects and configures the backend that persists each
// visitor's selection.
type SelectionConfig struct {
	// Backend is one of: file, postgres, redis, memory (default: file)
	Backend string `env:"SELECTION_BACKEND" default:"file"`

	// Dir is the directory used by the file backend (default: data/selections)
	Dir string `env:"SELECTION_DIR" default:"data/selections"`

	// DatabaseURL is the PostgreSQL connection string for the postgres backend
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// RedisURL is the redis:// URL for the redis backend
	RedisURL string `env:"REDIS_URL"`

	// TTL expires idle redis selections; 0 keeps them forever (default: 0s)
	TTL time.Duration `env:"SELECTION_TTL" default:"0s"`
}

// SessionConfig holds per-visitor session settings.
type SessionConfig struct {
	// CookieName is the visitor cookie (default: catalog_visitor)
	CookieName string `env:"SESSION_COOKIE_NAME" default:"catalog_visitor"`

	// CookieMaxAge is how long the visitor cookie lives (default: 8760h)
	CookieMaxAge time.Duration `env:"SESSION_COOKIE_MAX_AGE" default:"8760h"`

	// IdleTimeout evicts in-memory view state after inactivity (default: 2h)
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"2h"`

	// SweepInterval is how often idle sessions are evicted (default: 10m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"10m"`
}

// ExportConfig holds settings for document and messaging exports.
type ExportConfig struct {
	// ContactNumber is the fixed messaging destination (default: +595983617831)
	ContactNumber string `env:"EXPORT_CONTACT_NUMBER" default:"+595983617831"`

	// MessageEndpoint is the messaging link base (default: https://wa.me/)
	MessageEndpoint string `env:"EXPORT_MESSAGE_ENDPOINT" default:"https://wa.me/"`

	// DocumentName is the download file name (default: seleccion-productos.pdf)
	DocumentName string `env:"EXPORT_DOCUMENT_NAME" default:"seleccion-productos.pdf"`

	// DefaultCountryCode preselects the phone prefix (default: +595)
	DefaultCountryCode string `env:"EXPORT_DEFAULT_COUNTRY_CODE" default:"+595"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// Burst is the bucket size per IP (default: 60)
	Burst int `env:"RATE_LIMIT_BURST" default:"60"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// SecureCookies marks the visitor cookie Secure (default: false)
	SecureCookies bool `env:"SECURITY_SECURE_COOKIES" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// DelimiterRune returns the configured delimiter as a rune.
func (c *CatalogConfig) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ','
}
