package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultSymbols is the watch list used when none is configured.
var DefaultSymbols = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META", "INTC", "NVDA", "ORCL"}

// Config holds all application configuration.
type Config struct {
	Symbols  []string `yaml:"symbols"`
	Analysis struct {
		PriceWindow   int `yaml:"price_window"`
		MentionWindow int `yaml:"mention_window"`
	} `yaml:"analysis"`
	PriceSource   string `yaml:"price_source"`
	MentionSource string `yaml:"mention_source"`
	TwelveData    struct {
		BaseURL           string `yaml:"base_url"`
		APIKey            string `yaml:"api_key"`
		Interval          string `yaml:"interval"`
		OutputSize        int    `yaml:"output_size"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
	} `yaml:"twelvedata"`
	ApeWisdom struct {
		BaseURL  string `yaml:"base_url"`
		Filter   string `yaml:"filter"`
		MaxPages int    `yaml:"max_pages"`
	} `yaml:"apewisdom"`
	Schedule struct {
		PriceCron   string `yaml:"price_cron"`
		MentionCron string `yaml:"mention_cron"`
		ReportCron  string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		Driver      string `yaml:"driver"`
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Tracing struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"tracing"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TWELVEDATA_KEY"); v != "" {
		cfg.TwelveData.APIKey = v
	}
	if v := os.Getenv("PULSE_SYMBOLS"); v != "" {
		cfg.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("PRICE_SOURCE"); v != "" {
		cfg.PriceSource = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tracing.Enabled = b
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Symbols = normalizeSymbols(c.Symbols)
	if len(c.Symbols) == 0 {
		c.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if c.Analysis.PriceWindow == 0 {
		c.Analysis.PriceWindow = 30
	}
	if c.Analysis.MentionWindow == 0 {
		c.Analysis.MentionWindow = 30
	}
	if c.PriceSource == "" {
		c.PriceSource = "twelvedata"
	}
	if c.MentionSource == "" {
		c.MentionSource = "apewisdom"
	}
	if c.TwelveData.BaseURL == "" {
		c.TwelveData.BaseURL = "https://api.twelvedata.com"
	}
	if c.TwelveData.Interval == "" {
		c.TwelveData.Interval = "1day"
	}
	if c.TwelveData.OutputSize == 0 {
		c.TwelveData.OutputSize = 30
	}
	if c.TwelveData.RequestsPerMinute == 0 {
		c.TwelveData.RequestsPerMinute = 8
	}
	if c.ApeWisdom.BaseURL == "" {
		c.ApeWisdom.BaseURL = "https://apewisdom.io/api/v1.0"
	}
	if c.ApeWisdom.Filter == "" {
		c.ApeWisdom.Filter = "all-stocks"
	}
	if c.ApeWisdom.MaxPages == 0 {
		c.ApeWisdom.MaxPages = 5
	}
	if c.Schedule.PriceCron == "" {
		c.Schedule.PriceCron = "0 0 22 * * 1-5"
	}
	if c.Schedule.MentionCron == "" {
		c.Schedule.MentionCron = "0 0 */4 * * *"
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 30 22 * * 1-5"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/market_pulse.db"
	}
}

// Validate checks that the configuration is usable for collecting and serving.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	if c.Analysis.PriceWindow < 0 || c.Analysis.MentionWindow < 0 {
		return fmt.Errorf("analysis windows must not be negative")
	}
	switch c.PriceSource {
	case "twelvedata":
		if c.TwelveData.APIKey == "" {
			return fmt.Errorf("twelvedata.api_key (TWELVEDATA_KEY) is required")
		}
	case "yahoo", "mock":
	default:
		return fmt.Errorf("unknown price_source %q", c.PriceSource)
	}
	switch c.MentionSource {
	case "apewisdom", "mock":
	default:
		return fmt.Errorf("unknown mention_source %q", c.MentionSource)
	}
	switch c.Database.Driver {
	case "sqlite", "memory":
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("database.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.price_cron":   c.Schedule.PriceCron,
		"schedule.mention_cron": c.Schedule.MentionCron,
		"schedule.report_cron":  c.Schedule.ReportCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether push notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func splitSymbols(v string) []string {
	return normalizeSymbols(strings.Split(v, ","))
}

func normalizeSymbols(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
