package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gistConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "t"},
		Store:    StoreConfig{Gist: GistConfig{ID: "g", Token: "gh"}},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := gistConfig()
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, BackendGist, cfg.Store.Backend)
	assert.Equal(t, "budget.json", cfg.Store.Gist.Filename)
	assert.Equal(t, "https://api.github.com", cfg.Store.Gist.APIBase)
	assert.Equal(t, 15*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 3, cfg.Store.UpdateAttempts)
	assert.Equal(t, "$", cfg.Budget.Currency)
	assert.Equal(t, time.Minute, cfg.Budget.RefreshInterval)
	assert.Equal(t, 15*time.Minute, cfg.Budget.SessionTTL)
	assert.Equal(t, "budget", cfg.Events.Exchange)
}

func TestNormalizeRequiredValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bot token", func(c *Config) { c.Telegram.Token = "" }},
		{"gist id", func(c *Config) { c.Store.Gist.ID = "" }},
		{"github token", func(c *Config) { c.Store.Gist.Token = " " }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }},
		{"postgres host", func(c *Config) { c.Store.Backend = BackendPostgres }},
		{"webhook url", func(c *Config) { c.Telegram.RunMode = RunModeWebhook }},
		{"run mode", func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" }},
		{"rate limit exclusion", func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"poll"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := gistConfig()
			tt.mutate(cfg)
			assert.Error(t, Normalize(cfg))
		})
	}
}

func TestNormalizeWebhookFromPort(t *testing.T) {
	cfg := gistConfig()
	cfg.Webhook.URL = "https://bot.example.com"
	cfg.Webhook.Port = 8443
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)
	assert.Equal(t, "0.0.0.0", cfg.Webhook.Listen)
}

func TestNormalizeSQLiteNeedsNoCredentials(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "t"},
		Store:    StoreConfig{Backend: "SQLite"},
	}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "data/budget.db", cfg.Store.Database.Path)
	assert.Equal(t, 1, cfg.Store.Database.MaxConnections)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: from-file
store:
  backend: memory
budget:
  currency: "€"
  session_ttl: 5m
`), 0o600))
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("TELEGRAM_ALLOWED_USERS", "1,2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, []int64{1, 2}, cfg.Telegram.AllowedUsers)
	assert.Equal(t, "€", cfg.Budget.Currency)
	assert.Equal(t, 5*time.Minute, cfg.Budget.SessionTTL)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("BOT_TOKEN", "tok")
	t.Setenv("GIST_ID", "abc")
	t.Setenv("GITHUB_TOKEN", "gh")
	t.Setenv("WEBAPP_URL", "https://budget.example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Store.Gist.ID)
	assert.Equal(t, "https://budget.example.com", cfg.Telegram.WebAppURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
