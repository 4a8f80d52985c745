// Package config provides configuration management for the session service.
// It supports environment variable-based configuration with validation and default
// values for all service components including server, database, session, JWT,
// resilience, security, and logging settings.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// MinJWTSecretLength is the minimum required length for JWT secret.
	MinJWTSecretLength = 32
	// MinPortNumber is the minimum valid port number.
	MinPortNumber = 1
	// MaxPortNumber is the maximum valid port number.
	MaxPortNumber = 65535
)

// Config represents the complete configuration for the session service,
// aggregating all component-specific configurations.
type Config struct {
	// Environment holds environment-specific settings.
	Environment EnvironmentConfig `envconfig:"ENVIRONMENT"`
	// Server contains HTTP server configuration including ports, timeouts, and TLS settings.
	Server ServerConfig `envconfig:"SERVER"`
	// Database contains PostgreSQL session store configuration.
	Database DatabaseConfig `envconfig:"POSTGRES"`
	// Redis contains Redis connection configuration used for rate limiting.
	Redis RedisConfig `envconfig:"REDIS"`
	// JWT contains JWT token generation and validation settings.
	JWT JWTConfig `envconfig:"JWT"`
	// Session contains session lifecycle settings.
	Session SessionConfig `envconfig:"SESSION"`
	// Resilience contains client-side auth failure handling settings.
	Resilience ResilienceConfig `envconfig:"RESILIENCE"`
	// Security contains security-related settings like CORS and rate limiting.
	Security SecurityConfig `envconfig:"SECURITY"`
	// Logging contains logging configuration.
	Logging LoggingConfig `envconfig:"LOGGING"`
}

type Environment string

const (
	Local   Environment = "LOCAL"
	NonProd Environment = "NONPROD"
	Prod    Environment = "PROD"
)

// EnvironmentConfig holds environment-specific settings.
type EnvironmentConfig struct {
	// Environment indicates the current running environment (LOCAL, NONPROD, PROD).
	Environment Environment `envconfig:"ENV" default:"LOCAL"`
}

// ServerConfig holds HTTP server configuration including network settings,
// timeouts, and TLS certificate paths.
type ServerConfig struct {
	// Port is the HTTP server listening port.
	Port int `envconfig:"PORT"             default:"8080"`
	// Host is the network interface to bind to.
	Host string `envconfig:"HOST"             default:"0.0.0.0"`
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT"     default:"15s"`
	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT"    default:"15s"`
	// IdleTimeout is the maximum amount of time to wait for keep-alive connections.
	IdleTimeout time.Duration `envconfig:"IDLE_TIMEOUT"     default:"60s"`
	// ShutdownTimeout is the maximum time to wait for graceful server shutdown.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	// TLSCert is the path to the TLS certificate file for HTTPS.
	TLSCert string `envconfig:"TLS_CERT"`
	// TLSKey is the path to the TLS private key file for HTTPS.
	TLSKey string `envconfig:"TLS_KEY"`
}

// DatabaseConfig contains PostgreSQL database connection configuration
// including connection pool settings and health check parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `envconfig:"HOST"                default:"localhost"`
	// Port is the PostgreSQL server port.
	Port int `envconfig:"PORT"                default:"5432"`
	// Database is the PostgreSQL database name.
	Database string `envconfig:"DB"                  default:"pro_portal"`
	// User is the database username.
	User string `envconfig:"USER"`
	// Password is the database password.
	Password string `envconfig:"PASSWORD"`
	// SSLMode is the SSL connection mode (disable, require, verify-ca, verify-full).
	SSLMode string `envconfig:"SSL_MODE"            default:"require"`
	// MaxConn is the maximum number of connections in the pool.
	MaxConn int32 `envconfig:"MAX_CONN"            default:"30"`
	// MinConn is the minimum number of connections in the pool.
	MinConn int32 `envconfig:"MIN_CONN"            default:"5"`
	// MaxConnLifetime is the maximum lifetime of a connection.
	MaxConnLifetime time.Duration `envconfig:"MAX_CONN_LIFETIME"   default:"1h"`
	// MaxConnIdleTime is the maximum idle time for a connection.
	MaxConnIdleTime time.Duration `envconfig:"MAX_CONN_IDLE_TIME"  default:"30m"`
	// HealthCheckPeriod is how often to check database connectivity.
	HealthCheckPeriod time.Duration `envconfig:"HEALTH_CHECK_PERIOD" default:"30s"`
	// ConnectTimeout is the timeout for establishing connections.
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT"     default:"15s"`
}

// RedisConfig contains Redis connection configuration. Redis is optional
// and only used for request rate limiting; the service degrades gracefully
// without it.
type RedisConfig struct {
	// URL is the Redis connection URL.
	URL string `envconfig:"URL"           default:"redis://localhost:6379"`
	// Password is the Redis authentication password.
	Password string `envconfig:"PASSWORD"`
	// DB is the Redis database number to use.
	DB int `envconfig:"DB"            default:"0"`
	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration `envconfig:"DIAL_TIMEOUT"  default:"5s"`
	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT"  default:"3s"`
	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
	// PoolSize is the maximum number of socket connections.
	PoolSize int `envconfig:"POOL_SIZE"     default:"10"`
}

// JWTConfig contains JWT token configuration including the signing secret,
// issuer, and supported algorithm.
type JWTConfig struct {
	// Secret is the signing secret for JWT tokens (required, minimum 32 characters).
	Secret string `envconfig:"SECRET"    required:"true"`
	// Issuer is the JWT issuer claim.
	Issuer string `envconfig:"ISSUER"    default:"pro-portal"`
	// Algorithm is the JWT signing algorithm (HS256, HS384, HS512).
	Algorithm string `envconfig:"ALGORITHM" default:"HS256"`
}

// SessionConfig contains session lifecycle settings enforced by the
// session manager.
type SessionConfig struct {
	// TTL is the lifetime of a newly created session. The bearer token
	// issued at sign-in always carries a matching expiry.
	TTL time.Duration `envconfig:"TTL"              default:"24h"`
	// MaxPerUser is the maximum number of simultaneously valid sessions
	// per user, enforced at creation time.
	MaxPerUser int `envconfig:"MAX_PER_USER"     default:"5"`
	// CleanupInterval is how often the background sweep hard-deletes
	// expired and inactive session rows.
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1h"`
}

// ResilienceConfig contains client-side auth failure handling settings.
type ResilienceConfig struct {
	// RetryAttempts is the number of 401 responses tolerated per request
	// key before the session is revalidated.
	RetryAttempts int `envconfig:"RETRY_ATTEMPTS"    default:"2"`
	// RetryDelay is the base backoff delay; actual delay grows linearly
	// with the attempt number.
	RetryDelay time.Duration `envconfig:"RETRY_DELAY"       default:"1s"`
	// AutoLogoutDelay is the grace period between a confirmed-invalid
	// session and the actual logout.
	AutoLogoutDelay time.Duration `envconfig:"AUTO_LOGOUT_DELAY" default:"5s"`
	// ValidateTimeout bounds the session revalidation call.
	ValidateTimeout time.Duration `envconfig:"VALIDATE_TIMEOUT"  default:"5s"`
	// ShowNotification controls whether user-facing notices are surfaced.
	ShowNotification bool `envconfig:"SHOW_NOTIFICATION" default:"true"`
}

// SecurityConfig contains security-related settings including
// rate limiting, CORS configuration, and trusted proxies.
type SecurityConfig struct {
	// RateLimitRPS is the maximum requests per second per client.
	RateLimitRPS int `envconfig:"RATE_LIMIT_RPS"    default:"100"`
	// RateLimitBurst is the maximum burst size for rate limiting.
	RateLimitBurst int `envconfig:"RATE_LIMIT_BURST"  default:"200"`
	// AllowedOrigins are the CORS allowed origins.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"   default:"*"`
	// AllowedMethods are the CORS allowed HTTP methods.
	AllowedMethods []string `envconfig:"ALLOWED_METHODS"   default:"GET,POST,PUT,DELETE,OPTIONS"`
	// AllowedHeaders are the CORS allowed headers.
	AllowedHeaders []string `envconfig:"ALLOWED_HEADERS"   default:"*"`
	// ExposedHeaders are the CORS exposed headers.
	ExposedHeaders []string `envconfig:"EXPOSED_HEADERS"`
	// AllowCredentials determines if CORS allows credentials.
	AllowCredentials bool `envconfig:"ALLOW_CREDENTIALS" default:"true"`
	// MaxAge is the CORS preflight cache duration in seconds.
	MaxAge int `envconfig:"MAX_AGE"           default:"86400"`
	// TrustedProxies are the trusted proxy IP addresses.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`
}

// LoggingConfig contains logging configuration including
// log level, format, and output destination.
type LoggingConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string `envconfig:"LEVEL"  default:"info"`
	// Format is the log output format (json, text).
	Format string `envconfig:"FORMAT" default:"json"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `envconfig:"OUTPUT" default:"stdout"`
}

// Load reads configuration from environment variables, applies the optional
// YAML tuning overlay, and returns a validated Config instance. It returns
// an error if configuration is invalid or required values are missing.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// YAML overlay is optional operational tuning; env vars still win.
	if err := applyYAMLOverlay(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply YAML configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate performs comprehensive validation of all configuration values,
// ensuring they meet security and operational requirements.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT secret is required")
	}

	if len(c.JWT.Secret) < MinJWTSecretLength {
		return fmt.Errorf("JWT secret must be at least %d characters long", MinJWTSecretLength)
	}

	if c.Server.Port < MinPortNumber || c.Server.Port > MaxPortNumber {
		return errors.New("server port must be between 1 and 65535")
	}

	if c.Session.TTL < time.Minute {
		return errors.New("session TTL must be at least 1 minute")
	}

	if c.Session.MaxPerUser < 1 {
		return errors.New("session limit must allow at least 1 session per user")
	}

	if c.Resilience.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}

	validAlgorithms := map[string]bool{
		"HS256": true, "HS384": true, "HS512": true,
	}
	if !validAlgorithms[c.JWT.Algorithm] {
		return fmt.Errorf("unsupported JWT algorithm: %s", c.JWT.Algorithm)
	}

	return nil
}

// ServerAddr returns the formatted server address string in host:port format.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsTLSEnabled returns true if both TLS certificate and key paths are configured.
func (c *Config) IsTLSEnabled() bool {
	return c.Server.TLSCert != "" && c.Server.TLSKey != ""
}

// DatabaseDSN returns the PostgreSQL connection string (Data Source Name).
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.User,
		c.Database.Password,
		c.Database.SSLMode,
	)
}

// IsDatabaseConfigured returns true if database user and password are configured.
func (c *Config) IsDatabaseConfigured() bool {
	return c.Database.User != "" && c.Database.Password != ""
}
