package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines the server side getUpdates timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	ErrorsFile  string `yaml:"errors_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// PollingConfig tunes the long-poll update loop.
type PollingConfig struct {
	IntervalMS        int `yaml:"interval_ms"`
	StaleAfterSeconds int `yaml:"stale_after_seconds"`
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`
	SnapshotEvery     int `yaml:"snapshot_every"`
}

// BotConfig holds file locations and timings of the prompt bot.
type BotConfig struct {
	DataDir       string `yaml:"data_dir" envconfig:"BOT_DATA_DIR"`
	TemplatesFile string `yaml:"templates_file"`
	StatsFile     string `yaml:"stats_file"`
	SummaryFile   string `yaml:"summary_file"`
	DraftsFile    string `yaml:"drafts_file"`
	// DedupWindowMS is the cooldown between two sends of the same kind to one chat.
	DedupWindowMS int `yaml:"dedup_window_ms"`
	// MenuDelayMS is the pause between a rendered prompt and the menu that follows it.
	MenuDelayMS int `yaml:"menu_delay_ms"`
}

// DatabaseConfig holds Postgres connection settings for the draft backend.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// DraftsConfig selects where in-progress field values are mirrored.
type DraftsConfig struct {
	Backend string `yaml:"backend" envconfig:"DRAFTS_BACKEND"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// DraftsBackendFile keeps drafts in a JSON file under the data dir.
	DraftsBackendFile = "file"
	// DraftsBackendPostgres keeps drafts in a Postgres table.
	DraftsBackendPostgres = "postgres"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the whole process configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Polling   PollingConfig   `yaml:"polling"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Bot       BotConfig       `yaml:"bot"`
	Drafts    DraftsConfig    `yaml:"drafts"`
	Database  DatabaseConfig  `yaml:"database"`
}

// CoreConfig satisfies the runner's config carrier contract.
func (c *Config) CoreConfig() *Config {
	return c
}

// Load reads configuration from a YAML file, an optional .env file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv exports variables from path without overriding the real environment.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
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
	if cfg.Telegram.LongPollTimeoutSeconds == 0 {
		cfg.Telegram.LongPollTimeoutSeconds = 20
	}

	normalizePolling(&cfg.Polling)
	normalizeBot(&cfg.Bot)

	backend := strings.ToLower(strings.TrimSpace(cfg.Drafts.Backend))
	switch backend {
	case "", DraftsBackendFile:
		backend = DraftsBackendFile
	case DraftsBackendPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when drafts.backend is 'postgres'")
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 4
		}
	default:
		return fmt.Errorf("invalid drafts.backend %q; allowed: file, postgres", cfg.Drafts.Backend)
	}
	cfg.Drafts.Backend = backend

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}

func normalizePolling(p *PollingConfig) {
	if p.IntervalMS <= 0 {
		p.IntervalMS = 250
	}
	if p.StaleAfterSeconds <= 0 {
		p.StaleAfterSeconds = 120
	}
	if p.RetryDelaySeconds <= 0 {
		p.RetryDelaySeconds = 5
	}
	if p.SnapshotEvery <= 0 {
		p.SnapshotEvery = 100
	}
}

func normalizeBot(b *BotConfig) {
	if strings.TrimSpace(b.DataDir) == "" {
		b.DataDir = "."
	}
	if b.TemplatesFile == "" {
		b.TemplatesFile = "prompts.json"
	}
	if b.StatsFile == "" {
		b.StatsFile = "stats.csv"
	}
	if b.SummaryFile == "" {
		b.SummaryFile = "summary.json"
	}
	if b.DraftsFile == "" {
		b.DraftsFile = "drafts.json"
	}
	if b.DedupWindowMS <= 0 {
		b.DedupWindowMS = 2000
	}
	if b.MenuDelayMS < 0 {
		b.MenuDelayMS = 0
	} else if b.MenuDelayMS == 0 {
		b.MenuDelayMS = 600
	}
}

// Path resolves a data file name against the bot data directory.
func (b BotConfig) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(b.DataDir, name)
}
