package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// AllowedUsers restricts the bot to these Telegram user ids. Empty allows everyone.
	AllowedUsers []int64 `yaml:"allowed_users" envconfig:"TELEGRAM_ALLOWED_USERS"`
	// WebAppURL is the budget web application linked from replies and the keyboard.
	WebAppURL string `yaml:"webapp_url" envconfig:"WEBAPP_URL"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// GistConfig locates the budget document inside a GitHub gist.
type GistConfig struct {
	ID       string `yaml:"id" envconfig:"GIST_ID"`
	Token    string `yaml:"token" envconfig:"GITHUB_TOKEN"`
	Filename string `yaml:"filename" envconfig:"GIST_FILENAME"`
	APIBase  string `yaml:"api_base" envconfig:"GITHUB_API_URL"`
}

// DatabaseConfig holds SQL connection settings for the sql store backends.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// Path is the database file for the sqlite backend.
	Path string `yaml:"path" envconfig:"DB_PATH"`
}

// StoreConfig selects where the budget document lives.
type StoreConfig struct {
	Backend string `yaml:"backend" envconfig:"STORE_BACKEND"`
	// Key names the document row for the sql backends.
	Key            string         `yaml:"key" envconfig:"STORE_KEY"`
	Timeout        time.Duration  `yaml:"timeout" envconfig:"STORE_TIMEOUT"`
	UpdateAttempts int            `yaml:"update_attempts" envconfig:"STORE_UPDATE_ATTEMPTS"`
	Gist           GistConfig     `yaml:"gist"`
	Database       DatabaseConfig `yaml:"database"`
}

// BudgetConfig tunes the conversation and background work.
type BudgetConfig struct {
	Currency        string        `yaml:"currency" envconfig:"BUDGET_CURRENCY"`
	RefreshInterval time.Duration `yaml:"refresh_interval" envconfig:"REFRESH_INTERVAL"`
	SessionTTL      time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL"`
	SweepInterval   time.Duration `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`
}

// EventsConfig enables publishing ledger events to RabbitMQ.
type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url" envconfig:"AMQP_URL"`
	Exchange string `yaml:"exchange" envconfig:"AMQP_EXCHANGE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// Store backends.
const (
	BackendGist     = "gist"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Store     StoreConfig     `yaml:"store"`
	Budget    BudgetConfig    `yaml:"budget"`
	Events    EventsConfig    `yaml:"events"`
}

// CoreConfig lets *Config act as its own configuration carrier.
func (c *Config) CoreConfig() *Config { return c }

// Load reads configuration from an optional YAML file and the environment.
// A .env file in the working directory is loaded first; variables already set win.
// An empty path skips the YAML file entirely.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs validation of required configuration fields and applies defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required (BOT_TOKEN)")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		// PORT alone is how most PaaS hosts announce a webhook deployment.
		if cfg.Webhook.Port > 0 && strings.TrimSpace(cfg.Webhook.URL) != "" {
			rm = RunModeWebhook
		} else {
			rm = RunModeLongpoll
		}
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			cfg.Webhook.Listen = "0.0.0.0"
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if err := normalizeStore(&cfg.Store); err != nil {
		return err
	}
	normalizeBudget(&cfg.Budget)

	if strings.TrimSpace(cfg.Events.Exchange) == "" {
		cfg.Events.Exchange = "budget"
	}
	return nil
}

func normalizeStore(s *StoreConfig) error {
	backend := strings.ToLower(strings.TrimSpace(s.Backend))
	if backend == "" {
		backend = BackendGist
	}
	switch backend {
	case BackendGist:
		if strings.TrimSpace(s.Gist.ID) == "" {
			return fmt.Errorf("gist id is required for the gist store (GIST_ID)")
		}
		if strings.TrimSpace(s.Gist.Token) == "" {
			return fmt.Errorf("github token is required for the gist store (GITHUB_TOKEN)")
		}
		if s.Gist.Filename == "" {
			s.Gist.Filename = "budget.json"
		}
		if s.Gist.APIBase == "" {
			s.Gist.APIBase = "https://api.github.com"
		}
		s.Gist.APIBase = strings.TrimRight(s.Gist.APIBase, "/")
	case BackendPostgres:
		if s.Database.Host == "" || s.Database.Name == "" {
			return fmt.Errorf("store.database.host and store.database.name are required for the postgres store")
		}
		if s.Database.Port == "" {
			s.Database.Port = "5432"
		}
		if s.Database.SSLMode == "" {
			s.Database.SSLMode = "disable"
		}
		if s.Database.MaxConnections <= 0 {
			s.Database.MaxConnections = 4
		}
	case BackendSQLite:
		if s.Database.Path == "" {
			s.Database.Path = "data/budget.db"
		}
		s.Database.MaxConnections = 1
	case BackendMemory:
	default:
		return fmt.Errorf("invalid store.backend %q; allowed: gist, postgres, sqlite, memory", s.Backend)
	}
	s.Backend = backend

	if s.Key == "" {
		s.Key = "budget"
	}
	if s.Timeout <= 0 {
		s.Timeout = 15 * time.Second
	}
	if s.UpdateAttempts <= 0 {
		s.UpdateAttempts = 3
	}
	return nil
}

func normalizeBudget(b *BudgetConfig) {
	if strings.TrimSpace(b.Currency) == "" {
		b.Currency = "$"
	}
	if b.RefreshInterval <= 0 {
		b.RefreshInterval = 60 * time.Second
	}
	if b.SessionTTL <= 0 {
		b.SessionTTL = 15 * time.Minute
	}
	if b.SweepInterval <= 0 {
		b.SweepInterval = time.Minute
	}
}
