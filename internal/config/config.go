package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "NEWS_INTEGRITY_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	redisURLEnv       = "REDIS_URL"
	llmProviderEnv    = "LLM_PROVIDER"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
	llmModelEnv       = "LLM_MODEL"
	historyURLEnv     = "HISTORY_URL"
	historyAPIKeyEnv  = "HISTORY_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
	logFormatEnv      = "LOG_FORMAT"
)

// LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Redis         RedisConfig        `yaml:"redis"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	LLM           LLMConfig          `yaml:"llm"`
	History       HistoryConfig      `yaml:"history"`
	Scoring       ScoringConfig      `yaml:"scoring"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN runs
// against the in-memory store.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// RedisConfig enables the cross-process rollup lock when URL is set.
type RedisConfig struct {
	URL     string        `yaml:"url"`
	LockTTL time.Duration `yaml:"lockTTL"`
}

// SchedulerConfig defines how often the scoring loop runs.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// LLMConfig selects and tunes the model provider.
type LLMConfig struct {
	Provider          string        `yaml:"provider"`
	APIKey            string        `yaml:"apiKey"`
	BaseURL           string        `yaml:"baseUrl"`
	Model             string        `yaml:"model"`
	Temperature       float64       `yaml:"temperature"`
	ClassifyTimeout   time.Duration `yaml:"classifyTimeout"`
	RedraftTimeout    time.Duration `yaml:"redraftTimeout"`
	ClassifyMaxTokens int           `yaml:"classifyMaxTokens"`
	RedraftMaxTokens  int           `yaml:"redraftMaxTokens"`
}

// HistoryConfig points at the vector-search service holding past coverage.
type HistoryConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"apiKey"`
	TopK    int           `yaml:"topK"`
	Timeout time.Duration `yaml:"timeout"`
}

// ScoringConfig sizes batch scoring.
type ScoringConfig struct {
	BatchSize   int `yaml:"batchSize"`
	Concurrency int `yaml:"concurrency"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig controls slog level and output format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads .env and YAML configuration (if present) and applies
// environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config: cannot load .env", "error", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			slog.Warn("config: cannot read file, falling back to defaults", "path", path, "error", err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				slog.Warn("config: cannot parse file, falling back to defaults", "path", path, "error", err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisURLEnv); v != "" {
		c.Redis.URL = v
	}

	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = v
	}

	switch c.LLM.Provider {
	case ProviderGemini:
		if v := os.Getenv(geminiAPIKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
	default:
		if v := os.Getenv(openAIAPIKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(historyURLEnv); v != "" {
		c.History.URL = v
	}

	if v := os.Getenv(historyAPIKeyEnv); v != "" {
		c.History.APIKey = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("config: unknown timezone, reverting to default", "timezone", tz, "default", defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.MaxConns > 0 {
		base.Database.MaxConns = override.Database.MaxConns
	}
	if override.Database.MinConns > 0 {
		base.Database.MinConns = override.Database.MinConns
	}

	if override.Redis.URL != "" {
		base.Redis.URL = override.Redis.URL
	}
	if override.Redis.LockTTL > 0 {
		base.Redis.LockTTL = override.Redis.LockTTL
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.LLM.Provider != "" {
		base.LLM.Provider = override.LLM.Provider
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.BaseURL != "" {
		base.LLM.BaseURL = override.LLM.BaseURL
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.Temperature > 0 {
		base.LLM.Temperature = override.LLM.Temperature
	}
	if override.LLM.ClassifyTimeout > 0 {
		base.LLM.ClassifyTimeout = override.LLM.ClassifyTimeout
	}
	if override.LLM.RedraftTimeout > 0 {
		base.LLM.RedraftTimeout = override.LLM.RedraftTimeout
	}
	if override.LLM.ClassifyMaxTokens > 0 {
		base.LLM.ClassifyMaxTokens = override.LLM.ClassifyMaxTokens
	}
	if override.LLM.RedraftMaxTokens > 0 {
		base.LLM.RedraftMaxTokens = override.LLM.RedraftMaxTokens
	}

	if override.History.URL != "" {
		base.History.URL = override.History.URL
	}
	if override.History.APIKey != "" {
		base.History.APIKey = override.History.APIKey
	}
	if override.History.TopK > 0 {
		base.History.TopK = override.History.TopK
	}
	if override.History.Timeout > 0 {
		base.History.Timeout = override.History.Timeout
	}

	if override.Scoring.BatchSize > 0 {
		base.Scoring.BatchSize = override.Scoring.BatchSize
	}
	if override.Scoring.Concurrency > 0 {
		base.Scoring.Concurrency = override.Scoring.Concurrency
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{MaxConns: 10, MinConns: 1},
		Redis:     RedisConfig{LockTTL: 30 * time.Second},
		Scheduler: SchedulerConfig{Interval: 15 * time.Minute, Timezone: defaultTimezone, location: tz},
		LLM: LLMConfig{
			Provider:          ProviderOpenAI,
			Temperature:       0.3,
			ClassifyTimeout:   60 * time.Second,
			RedraftTimeout:    90 * time.Second,
			ClassifyMaxTokens: 2000,
			RedraftMaxTokens:  3000,
		},
		History: HistoryConfig{TopK: 3, Timeout: 10 * time.Second},
		Scoring: ScoringConfig{BatchSize: 50, Concurrency: 4},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// String renders a redacted summary for startup logs.
func (c Config) String() string {
	return "provider=" + c.LLM.Provider +
		" model=" + c.LLM.Model +
		" database=" + strconv.FormatBool(c.Database.DSN != "") +
		" redis=" + strconv.FormatBool(c.Redis.URL != "") +
		" history=" + strconv.FormatBool(c.History.URL != "") +
		" telegram=" + strconv.FormatBool(c.Notifications.Telegram.BotToken != "")
}
