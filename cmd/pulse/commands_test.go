package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"TWELVEDATA_KEY", "PULSE_SYMBOLS", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
		"DB_DRIVER", "SQLITE_PATH", "POSTGRES_DSN", "PRICE_SOURCE", "HTTPS_PROXY", "TRACING_ENABLED"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	yml := "symbols: [AAPL, MSFT]\n" +
		"price_source: mock\n" +
		"mention_source: mock\n" +
		"database:\n" +
		"  driver: sqlite\n" +
		"  sqlite_path: " + filepath.Join(dir, "pulse.db") + "\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestETLThenAnalyze(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, "etl", "--config", cfg)
	if err != nil {
		t.Fatalf("etl failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "mock: 60 new records") || !strings.Contains(out, "mock: 2 new records") {
		t.Errorf("unexpected etl output:\n%s", out)
	}

	out, err = run(t, "analyze", "aapl", "--json", "--config", cfg)
	if err != nil {
		t.Fatalf("analyze failed: %v\n%s", err, out)
	}
	var rep map[string]any
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if rep["symbol"] != "AAPL" || rep["price_trend"] != "up" || rep["social_interest"] != "low" {
		t.Errorf("unexpected report: %v", rep)
	}
	if rep["td_count"] != float64(30) || rep["aw_count"] != float64(1) {
		t.Errorf("unexpected counts: td=%v aw=%v", rep["td_count"], rep["aw_count"])
	}
	if rep["correlation"] != nil {
		t.Errorf("expected null correlation with one mention snapshot, got %v", rep["correlation"])
	}

	out, err = run(t, "results", "MSFT", "--kind", "mention", "--config", cfg)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if !strings.Contains(out, "mention records for MSFT (1)") {
		t.Errorf("unexpected results output:\n%s", out)
	}

	out, err = run(t, "history", "--limit", "2", "--config", cfg)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "ETL history (2)") {
		t.Errorf("unexpected history output:\n%s", out)
	}
}

func TestAnalyzeUnknownSymbol(t *testing.T) {
	cfg := writeTestConfig(t)
	if _, err := run(t, "analyze", "TSLA", "--config", cfg); err == nil || !strings.Contains(err.Error(), "unknown symbol") {
		t.Fatalf("expected unknown symbol error, got %v", err)
	}
}

func TestResultsRejectsBadKind(t *testing.T) {
	cfg := writeTestConfig(t)
	if _, err := run(t, "results", "AAPL", "--kind", "volume", "--config", cfg); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestETLRejectsBadTarget(t *testing.T) {
	cfg := writeTestConfig(t)
	if _, err := run(t, "etl", "dividends", "--config", cfg); err == nil {
		t.Fatal("expected error for invalid target")
	}
}
