package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"MarketPulse/internal/model"
)

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "pulse.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"sqlite": openSQLite(t),
		"memory": NewMemoryStore(),
	}
}

func priceRecords(closes ...string) []model.KeyedRecord {
	recs := make([]model.KeyedRecord, len(closes))
	for i, c := range closes {
		dt := time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		recs[i] = model.KeyedRecord{Key: dt, Record: model.Record{"datetime": dt, "close": c}}
	}
	return recs
}

func TestInsertAndLatest(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			n, err := s.InsertRecords(ctx, model.KindPrice, "AAPL", priceRecords("100", "101", "102"))
			if err != nil {
				t.Fatalf("InsertRecords failed: %v", err)
			}
			if n != 3 {
				t.Errorf("expected 3 inserted, got %d", n)
			}

			got, err := s.Latest(ctx, model.KindPrice, "AAPL", 2)
			if err != nil {
				t.Fatalf("Latest failed: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("expected 2 records, got %d", len(got))
			}
			if got[0]["close"] != "102" || got[1]["close"] != "101" {
				t.Errorf("expected newest first [102 101], got [%v %v]", got[0]["close"], got[1]["close"])
			}

			all, err := s.Latest(ctx, model.KindPrice, "AAPL", 0)
			if err != nil {
				t.Fatalf("Latest failed: %v", err)
			}
			if len(all) != 3 {
				t.Errorf("expected 3 records with no limit, got %d", len(all))
			}

			other, err := s.Latest(ctx, model.KindMention, "AAPL", 10)
			if err != nil {
				t.Fatalf("Latest failed: %v", err)
			}
			if len(other) != 0 {
				t.Errorf("expected no mention records, got %d", len(other))
			}
		})
	}
}

func TestInsertIgnoresDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.InsertRecords(ctx, model.KindPrice, "MSFT", priceRecords("10", "11")); err != nil {
				t.Fatalf("InsertRecords failed: %v", err)
			}
			n, err := s.InsertRecords(ctx, model.KindPrice, "MSFT", priceRecords("10", "11", "12"))
			if err != nil {
				t.Fatalf("InsertRecords failed: %v", err)
			}
			if n != 1 {
				t.Errorf("expected 1 new record, got %d", n)
			}

			// Records without a key are never de-duplicated.
			unkeyed := []model.KeyedRecord{{Record: model.Record{"mentions": 5}}, {Record: model.Record{"mentions": 5}}}
			n, err = s.InsertRecords(ctx, model.KindMention, "MSFT", unkeyed)
			if err != nil {
				t.Fatalf("InsertRecords failed: %v", err)
			}
			if n != 2 {
				t.Errorf("expected 2 unkeyed records, got %d", n)
			}
		})
	}
}

func TestLatestKeepsNumbers(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			recs := []model.KeyedRecord{{Key: "k", Record: model.Record{"mentions": 42, "ticker": "NVDA"}}}
			if _, err := s.InsertRecords(ctx, model.KindMention, "NVDA", recs); err != nil {
				t.Fatalf("InsertRecords failed: %v", err)
			}
			got, err := s.Latest(ctx, model.KindMention, "NVDA", 1)
			if err != nil {
				t.Fatalf("Latest failed: %v", err)
			}
			if got[0]["mentions"] != json.Number("42") {
				t.Errorf("expected json.Number 42, got %#v", got[0]["mentions"])
			}
		})
	}
}

func TestLatestReturnsCopies(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.InsertRecords(ctx, model.KindPrice, "AAPL", priceRecords("100")); err != nil {
				t.Fatalf("InsertRecords failed: %v", err)
			}
			first, err := s.Latest(ctx, model.KindPrice, "AAPL", 1)
			if err != nil {
				t.Fatalf("Latest failed: %v", err)
			}
			first[0]["close"] = "999"
			delete(first[0], "datetime")

			again, _ := s.Latest(ctx, model.KindPrice, "AAPL", 1)
			if again[0]["close"] != "100" || again[0]["datetime"] != "2025-01-01" {
				t.Errorf("stored record changed through a returned map: %v", again[0])
			}
		})
	}
}

func TestETLHistory(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i, sym := range []string{"AAPL", "MSFT", "META"} {
				evt := &model.ETLEvent{
					Source:    "apewisdom",
					Symbol:    sym,
					Count:     1,
					Message:   "Inserted data for " + sym,
					Timestamp: base.Add(time.Duration(i) * time.Minute),
				}
				if err := s.RecordETL(ctx, evt); err != nil {
					t.Fatalf("RecordETL failed: %v", err)
				}
				if evt.ID == "" {
					t.Error("expected an event id to be assigned")
				}
			}

			got, err := s.ETLHistory(ctx, 2)
			if err != nil {
				t.Fatalf("ETLHistory failed: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("expected 2 events, got %d", len(got))
			}
			if got[0].Symbol != "META" || got[1].Symbol != "MSFT" {
				t.Errorf("expected newest first [META MSFT], got [%s %s]", got[0].Symbol, got[1].Symbol)
			}
			if !got[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
				t.Errorf("unexpected timestamp %v", got[0].Timestamp)
			}
		})
	}
}

func TestSQLiteSaveReport(t *testing.T) {
	s := openSQLite(t)
	trend := model.TrendUp
	corr := 0.42
	rep := &model.AnalysisReport{
		Symbol:      "AAPL",
		PriceTrend:  &trend,
		Correlation: &corr,
		GeneratedAt: time.Now().UTC(),
		Summary:     "x",
	}
	if err := s.SaveReport(context.Background(), rep); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	var symbol, priceTrend string
	var correlation float64
	err := s.db.QueryRow("SELECT symbol, price_trend, correlation FROM analysis_reports").
		Scan(&symbol, &priceTrend, &correlation)
	if err != nil {
		t.Fatalf("query report: %v", err)
	}
	if symbol != "AAPL" || priceTrend != "up" || correlation != 0.42 {
		t.Errorf("unexpected row: %s %s %v", symbol, priceTrend, correlation)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("mongo", "", ""); err == nil {
		t.Error("expected error for unknown driver")
	}
	s, err := Open("memory", "", "")
	if err != nil {
		t.Fatalf("Open memory failed: %v", err)
	}
	s.Close()
}
