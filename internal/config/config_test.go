package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

var envKeys = []string{
	"TWELVEDATA_KEY", "PULSE_SYMBOLS", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	"DB_DRIVER", "SQLITE_PATH", "POSTGRES_DSN", "PRICE_SOURCE", "HTTPS_PROXY", "TRACING_ENABLED",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg.Symbols, DefaultSymbols) {
		t.Errorf("expected default symbols, got %v", cfg.Symbols)
	}
	if cfg.Analysis.PriceWindow != 30 || cfg.Analysis.MentionWindow != 30 {
		t.Errorf("expected 30/30 windows, got %d/%d", cfg.Analysis.PriceWindow, cfg.Analysis.MentionWindow)
	}
	if cfg.PriceSource != "twelvedata" || cfg.Database.Driver != "sqlite" {
		t.Errorf("unexpected defaults: source=%s driver=%s", cfg.PriceSource, cfg.Database.Driver)
	}
	if cfg.ApeWisdom.MaxPages != 5 {
		t.Errorf("expected 5 pages, got %d", cfg.ApeWisdom.MaxPages)
	}
	if cfg.TelegramEnabled() {
		t.Error("expected telegram disabled")
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
symbols: [aapl, msft, aapl]
analysis:
  price_window: 10
twelvedata:
  api_key: from-file
database:
  driver: memory
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TWELVEDATA_KEY", "from-env")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg.Symbols, []string{"AAPL", "MSFT"}) {
		t.Errorf("expected normalized symbols, got %v", cfg.Symbols)
	}
	if cfg.Analysis.PriceWindow != 10 || cfg.Analysis.MentionWindow != 30 {
		t.Errorf("unexpected windows %d/%d", cfg.Analysis.PriceWindow, cfg.Analysis.MentionWindow)
	}
	if cfg.TwelveData.APIKey != "from-env" {
		t.Errorf("expected env api key, got %s", cfg.TwelveData.APIKey)
	}
	if !cfg.Tracing.Enabled {
		t.Error("expected tracing enabled")
	}

	t.Setenv("PULSE_SYMBOLS", " nvda, orcl ,")
	cfg, _ = Load(path)
	if !reflect.DeepEqual(cfg.Symbols, []string{"NVDA", "ORCL"}) {
		t.Errorf("expected env symbols, got %v", cfg.Symbols)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	_ = os.WriteFile(path, []byte("symbols: [unclosed"), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := func() *Config {
		cfg, _ := Load(filepath.Join(t.TempDir(), "none.yaml"))
		cfg.TwelveData.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing api key", func(c *Config) { c.TwelveData.APIKey = "" }, "api_key"},
		{"yahoo needs no key", func(c *Config) { c.TwelveData.APIKey = ""; c.PriceSource = "yahoo" }, ""},
		{"unknown source", func(c *Config) { c.PriceSource = "bloomberg" }, "price_source"},
		{"unknown mention source", func(c *Config) { c.MentionSource = "x" }, "mention_source"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "postgres_dsn"},
		{"bad cron", func(c *Config) { c.Schedule.ReportCron = "every day" }, "report_cron"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "t" }, "together"},
		{"no symbols", func(c *Config) { c.Symbols = nil }, "symbols"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
