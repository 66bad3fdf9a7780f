package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/console/internal/console/session"
	"github.com/aussiebroadwan/console/pkg/consolesdk"
	"github.com/google/uuid"
)

// Session store drivers.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	AuthBaseURL  string // Auth service base URL (default: http://localhost:6000/v1/auth)
	SalesBaseURL string // Sales service base URL (default: http://localhost:3000/v1)
	TokenKeyID   string // Key id tokens are requested under, must be a UUID

	UpstreamTimeout time.Duration // Per request timeout towards the backends (default: 10s)
	HealthInterval  time.Duration // Dashboard health polling interval (default: 30s)

	SessionStore      string // Session record driver (sqlite, redis, memory) (default: sqlite)
	SessionDBFile     string // SQLite file for the sqlite driver (default: ./console.db)
	SessionRedisAddr  string // Redis address for the redis driver (default: localhost:6379)
	SessionRedisDB    int    // Redis database for the redis driver (default: 0)
	SessionRecordName string // Name of the persisted session record (default: auth-storage)
	MasterKey         string // Optional: key material sealing the stored token
	MasterKeyPath     string // Optional: file holding the key material, used when MasterKey is empty

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Host                string        // Interface to listen on (default: 127.0.0.1)
	Port                int           // HTTP server port (default: 8081)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		AuthBaseURL:  getEnvOrDefault("AUTH_BASE_URL", "http://localhost:6000/v1/auth"),
		SalesBaseURL: getEnvOrDefault("SALES_BASE_URL", "http://localhost:3000/v1"),
		TokenKeyID:   getEnvOrDefault("AUTH_TOKEN_KID", consolesdk.DefaultTokenKeyID),

		UpstreamTimeout: getEnvDurationOrDefault("UPSTREAM_TIMEOUT", 10*time.Second),
		HealthInterval:  getEnvDurationOrDefault("HEALTH_INTERVAL", 30*time.Second),

		SessionStore:      getEnvOrDefault("SESSION_STORE", StoreSQLite),
		SessionDBFile:     getEnvOrDefault("SESSION_DATABASE_FILE", "console.db"),
		SessionRedisAddr:  getEnvOrDefault("SESSION_REDIS_ADDR", "localhost:6379"),
		SessionRedisDB:    getEnvIntOrDefault("SESSION_REDIS_DB", 0),
		SessionRecordName: getEnvOrDefault("SESSION_RECORD_NAME", session.DefaultRecordName),
		MasterKey:         os.Getenv("CONSOLE_MASTER_KEY"),
		MasterKeyPath:     os.Getenv("CONSOLE_MASTER_KEY_PATH"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Host:                getEnvOrDefault("HOST", "127.0.0.1"),
		Port:                getEnvIntOrDefault("PORT", 8081),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate reports every setting that would stop the console from starting.
func (c Config) Validate() error {
	var errs []error

	if _, err := uuid.Parse(c.TokenKeyID); err != nil {
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_KID must be a UUID: %w", err))
	}

	for name, raw := range map[string]string{"AUTH_BASE_URL": c.AuthBaseURL, "SALES_BASE_URL": c.SalesBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}

	switch c.SessionStore {
	case StoreSQLite, StoreRedis, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be one of sqlite, redis, memory, got %q", c.SessionStore))
	}

	if c.SessionRecordName == "" {
		errs = append(errs, errors.New("SESSION_RECORD_NAME must not be empty"))
	}

	if c.HealthInterval <= 0 {
		errs = append(errs, errors.New("HEALTH_INTERVAL must be positive"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
