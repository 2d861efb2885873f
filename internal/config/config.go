package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port         string
	TemplateDir  string
	StaticDir    string
	SecureCookie bool

	// Database
	DBPath string

	// Sessions
	SessionStore           string
	SessionDuration        time.Duration
	SessionCleanupInterval time.Duration

	// Bootstrap account, created on startup when set
	AdminUser     string
	AdminPassword string

	// Rate limiting for login and registration
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int

	// TrustedProxy honours X-Forwarded-For and X-Real-IP. Only enable it
	// behind a reverse proxy that overwrites those headers.
	TrustedProxy bool

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. Values from a .env file in
// the working directory, if present, fill in unset variables.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "8080"),
		TemplateDir:  getEnv("TEMPLATE_DIR", "web/templates"),
		StaticDir:    getEnv("STATIC_DIR", "web/static"),
		SecureCookie: getEnvBool("SECURE_COOKIE", false),

		DBPath: getEnv("DB_PATH", "accounting.db"),

		SessionStore:           getEnv("SESSION_STORE", SessionStoreMemory),
		SessionDuration:        getEnvDuration("SESSION_DURATION", 30*24*time.Hour),
		SessionCleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour),

		AdminUser:     getEnv("ADMIN_USER", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		AuthRateLimitRPS:   getEnvFloat("AUTH_RATE_LIMIT_RPS", 1),
		AuthRateLimitBurst: getEnvInt("AUTH_RATE_LIMIT_BURST", 5),
		TrustedProxy:       getEnvBool("TRUSTED_PROXY", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.DBPath) == "" {
		errors = append(errors, "database path cannot be empty")
	}

	if info, err := os.Stat(c.TemplateDir); err != nil || !info.IsDir() {
		errors = append(errors, fmt.Sprintf("template directory '%s' does not exist", c.TemplateDir))
	}

	if c.SessionStore != SessionStoreMemory && c.SessionStore != SessionStoreSQLite {
		errors = append(errors, fmt.Sprintf("invalid session store '%s': must be one of [%s %s]",
			c.SessionStore, SessionStoreMemory, SessionStoreSQLite))
	}

	if c.SessionDuration < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session duration %v: must be at least 1 minute", c.SessionDuration))
	}
	if c.SessionCleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid session cleanup interval %v: must be at least 1 second", c.SessionCleanupInterval))
	}

	if (c.AdminUser == "") != (c.AdminPassword == "") {
		errors = append(errors, "ADMIN_USER and ADMIN_PASSWORD must be set together")
	}

	if c.AuthRateLimitRPS < 0 {
		errors = append(errors, fmt.Sprintf("invalid auth rate limit %v: must not be negative", c.AuthRateLimitRPS))
	}
	if c.AuthRateLimitRPS > 0 && c.AuthRateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid auth rate limit burst %d: must be at least 1", c.AuthRateLimitBurst))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
