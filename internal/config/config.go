// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development; insecure
// defaults are loudly flagged at startup.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// devJWTSecret is the fallback signing secret for local development only.
// Production boots refuse to start with this value.
const devJWTSecret = "dev-secret-key-do-not-use-in-production!!"

// Config holds all application configuration. Populated from environment
// variables once at startup and passed to other packages by reference.
// Read-only after Load returns.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 3000).
	Port int

	// CORSOrigin is the single origin allowed to make cross-origin requests
	// to the API (the SPA dev server by default).
	CORSOrigin string

	// Database holds the user store connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings (login rate limiting).
	Redis RedisConfig

	// Auth holds token signing settings.
	Auth AuthConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields are
// read from separate env vars so container orchestrators can manage each
// independently. If DATABASE_URL is set, it takes precedence.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "payflow").
	User string

	// Password is the MariaDB password (default: "payflow").
	Password string

	// Name is the database name (default: "payflow").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// fields using the driver's Config.FormatDSN() to safely handle special
// characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds token issuance settings.
type AuthConfig struct {
	// JWTSecret is the HMAC signing secret for access tokens. Rotating it
	// invalidates every previously issued token.
	JWTSecret string

	// TokenTTL is how long issued access tokens remain valid.
	TokenTTL time.Duration
}

// Load reads configuration from environment variables with development
// defaults. Missing JWT_SECRET or DATABASE_URL are warned about loudly since
// both fall back to insecure local values. Returns an error if production
// configuration is incomplete.
func Load() (*Config, error) {
	cfg := &Config{
		Env:        getEnv("ENV", "development"),
		Port:       getEnvInt("PORT", 3000),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "payflow"),
			Password:        getEnv("DB_PASSWORD", "payflow"),
			Name:            getEnv("DB_NAME", "payflow"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
		},
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	if !cfg.IsDevelopment() {
		if cfg.Auth.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		if len(cfg.Auth.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
	}

	// Dev-only fallbacks so local runs work without a .env, but make the
	// insecure defaults impossible to miss in the logs.
	if cfg.Auth.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set, using insecure development default")
		cfg.Auth.JWTSecret = devJWTSecret
	}
	if cfg.Database.dsnOverride == "" && !envIsSet("DB_HOST") {
		slog.Warn("DATABASE_URL is not set, using local development database",
			slog.String("dsn_host", cfg.Database.Host),
		)
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// envIsSet reports whether the env var is present at all.
func envIsSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "24h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
