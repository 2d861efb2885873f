package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Port:                   "8080",
		TemplateDir:            t.TempDir(),
		DBPath:                 "accounting.db",
		SessionStore:           SessionStoreMemory,
		SessionDuration:        time.Hour,
		SessionCleanupInterval: time.Minute,
		AuthRateLimitRPS:       1,
		AuthRateLimitBurst:     5,
		LogFormat:              "text",
	}
}

func TestLoadDefaults(t *testing.T) {
	// Run in an empty directory so no .env is picked up
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "DB_PATH", "SESSION_STORE", "SESSION_DURATION", "AUTH_RATE_LIMIT_RPS", "LOG_FORMAT", "TRUSTED_PROXY"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "accounting.db", cfg.DBPath)
	assert.Equal(t, SessionStoreMemory, cfg.SessionStore)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 1.0, cfg.AuthRateLimitRPS)
	assert.False(t, cfg.TrustedProxy)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_STORE", "sqlite")
	t.Setenv("SESSION_DURATION", "2h")
	t.Setenv("SECURE_COOKIE", "true")
	t.Setenv("AUTH_RATE_LIMIT_RPS", "0.5")
	t.Setenv("AUTH_RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("TRUSTED_PROXY", "true")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, SessionStoreSQLite, cfg.SessionStore)
	assert.Equal(t, 2*time.Hour, cfg.SessionDuration)
	assert.True(t, cfg.SecureCookie)
	assert.Equal(t, 0.5, cfg.AuthRateLimitRPS)
	assert.Equal(t, 5, cfg.AuthRateLimitBurst, "malformed values fall back to the default")
	assert.True(t, cfg.TrustedProxy)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_PATH=from-dotenv.db\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("DB_PATH", "")
	require.NoError(t, os.Unsetenv("DB_PATH"))

	cfg := Load()
	assert.Equal(t, "from-dotenv.db", cfg.DBPath)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig(t).Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"non numeric port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "between 1 and 65535"},
		{"empty db path", func(c *Config) { c.DBPath = " " }, "database path"},
		{"missing templates", func(c *Config) { c.TemplateDir = "/does/not/exist" }, "template directory"},
		{"unknown session store", func(c *Config) { c.SessionStore = "redis" }, "invalid session store"},
		{"short session", func(c *Config) { c.SessionDuration = time.Second }, "session duration"},
		{"admin without password", func(c *Config) { c.AdminUser = "admin" }, "ADMIN_USER and ADMIN_PASSWORD"},
		{"negative rate", func(c *Config) { c.AuthRateLimitRPS = -1 }, "auth rate limit"},
		{"zero burst", func(c *Config) { c.AuthRateLimitBurst = 0 }, "burst"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = "x"
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
	assert.Contains(t, err.Error(), "log format")
}

func TestRateLimitCanBeDisabled(t *testing.T) {
	cfg := validConfig(t)
	cfg.AuthRateLimitRPS = 0
	cfg.AuthRateLimitBurst = 0
	assert.NoError(t, cfg.Validate())
}
