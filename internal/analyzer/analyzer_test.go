package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"MarketPulse/internal/model"
	"MarketPulse/internal/narrative"
	"MarketPulse/internal/store"
)

var fixedNow = time.Date(2025, 6, 2, 15, 4, 5, 0, time.FixedZone("CET", 3600))

func newAnalyzer(t *testing.T, src RecordSource, opts Options) *Analyzer {
	t.Helper()
	a := New(src, opts)
	a.now = func() time.Time { return fixedNow }
	return a
}

// seed inserts values oldest first, the way the collectors do.
func seed(t *testing.T, s *store.MemoryStore, kind model.RecordKind, symbol, field string, values ...any) {
	t.Helper()
	recs := make([]model.KeyedRecord, len(values))
	for i, v := range values {
		recs[i] = model.KeyedRecord{Record: model.Record{field: v}}
	}
	if _, err := s.InsertRecords(context.Background(), kind, symbol, recs); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s, model.KindPrice, "AAPL", "close", "100", "108", "110")
	seed(t, s, model.KindMention, "AAPL", "mentions", 12, 15, 10)

	a := newAnalyzer(t, s, Options{Symbols: []string{"aapl"}})
	rep, err := a.Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if rep.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", rep.Symbol)
	}
	if rep.LastPrice == nil || *rep.LastPrice != 110 {
		t.Errorf("expected last price 110, got %v", rep.LastPrice)
	}
	if rep.LastMentions == nil || *rep.LastMentions != 10 {
		t.Errorf("expected last mentions 10, got %v", rep.LastMentions)
	}
	if rep.PriceTrend == nil || *rep.PriceTrend != model.TrendUp {
		t.Errorf("expected trend up, got %v", rep.PriceTrend)
	}
	if rep.PriceChangePct == nil || *rep.PriceChangePct != 10.0 {
		t.Errorf("expected change 10.0, got %v", rep.PriceChangePct)
	}
	if rep.SocialInterest == nil || *rep.SocialInterest != model.InterestLow {
		t.Errorf("expected low interest, got %v", rep.SocialInterest)
	}
	if rep.Correlation == nil {
		t.Fatal("expected a correlation")
	}
	// newest first: prices [110 108 100], mentions [10 15 12]
	if *rep.Correlation != -0.075 {
		t.Errorf("expected correlation -0.075, got %v", *rep.Correlation)
	}
	if rep.PriceCount != 3 || rep.MentionCount != 3 {
		t.Errorf("unexpected counts %d/%d", rep.PriceCount, rep.MentionCount)
	}
	wantPrices := []float64{100, 108, 110}
	for i, v := range wantPrices {
		if rep.PriceSeries[i] != v {
			t.Errorf("price series[%d]: expected %v, got %v", i, v, rep.PriceSeries[i])
		}
	}
	if rep.MentionSeries[0] != 12 || rep.MentionSeries[2] != 10 {
		t.Errorf("mention series not chronological: %v", rep.MentionSeries)
	}
	if !rep.GeneratedAt.Equal(fixedNow) || rep.GeneratedAt.Location() != time.UTC {
		t.Errorf("expected UTC timestamp, got %v", rep.GeneratedAt)
	}
	if !strings.Contains(rep.Summary, "low-profile momentum") {
		t.Errorf("unexpected summary %q", rep.Summary)
	}
}

func TestAnalyze_NoData(t *testing.T) {
	a := newAnalyzer(t, store.NewMemoryStore(), Options{})
	rep, err := a.Analyze(context.Background(), "ORCL")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if rep.LastPrice != nil || rep.PriceTrend != nil || rep.SocialInterest != nil || rep.Correlation != nil {
		t.Errorf("expected nil fields, got %+v", rep)
	}
	if rep.Summary != narrative.NotEnoughData {
		t.Errorf("expected not-enough-data summary, got %q", rep.Summary)
	}

	data, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	js := string(data)
	for _, frag := range []string{`"price_trend":null`, `"correlation":null`, `"td_prices_series":[]`, `"aw_mentions_series":[]`} {
		if !strings.Contains(js, frag) {
			t.Errorf("expected %s in %s", frag, js)
		}
	}
}

func TestAnalyze_ConstantPricesHaveNoCorrelation(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s, model.KindPrice, "INTC", "close", 5, 5, 5, 5)
	seed(t, s, model.KindMention, "INTC", "mentions", 60, 70, 80)

	rep, err := newAnalyzer(t, s, Options{}).Analyze(context.Background(), "INTC")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if rep.Correlation != nil {
		t.Errorf("expected nil correlation, got %v", *rep.Correlation)
	}
	if *rep.PriceTrend != model.TrendFlat || *rep.SocialInterest != model.InterestHigh {
		t.Errorf("unexpected classification %s/%s", *rep.PriceTrend, *rep.SocialInterest)
	}
	if !strings.Contains(rep.Summary, "consolidation") {
		t.Errorf("expected consolidation summary, got %q", rep.Summary)
	}
}

func TestAnalyze_Windows(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s, model.KindPrice, "NVDA", "close", 1, 2, 3, 4, 5, 6)
	seed(t, s, model.KindMention, "NVDA", "mentions", "x", 30, 40)

	rep, err := newAnalyzer(t, s, Options{PriceWindow: 4, MentionWindow: 2}).Analyze(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if rep.PriceCount != 4 || rep.PriceSeries[0] != 3 {
		t.Errorf("expected the 4 newest prices, got %v", rep.PriceSeries)
	}
	if rep.MentionCount != 2 {
		t.Errorf("expected 2 mentions, got %d", rep.MentionCount)
	}
}

func TestAnalyze_UnknownSymbol(t *testing.T) {
	a := newAnalyzer(t, store.NewMemoryStore(), Options{Symbols: []string{"AAPL", "MSFT", "AAPL"}})
	if _, err := a.Analyze(context.Background(), "TSLA"); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("expected ErrUnknownSymbol, got %v", err)
	}
	if got := a.Symbols(); len(got) != 2 {
		t.Errorf("expected de-duplicated symbols, got %v", got)
	}
}

type failingSource struct{}

func (failingSource) Latest(context.Context, model.RecordKind, string, int) ([]model.Record, error) {
	return nil, errors.New("store unavailable")
}

func TestAnalyze_SourceError(t *testing.T) {
	a := newAnalyzer(t, failingSource{}, Options{})
	if _, err := a.Analyze(context.Background(), "AAPL"); err == nil {
		t.Error("expected error from failing source")
	}
	if reps := a.AnalyzeAll(context.Background()); len(reps) != 0 {
		t.Errorf("expected no reports, got %d", len(reps))
	}
}

func TestAnalyzeAll(t *testing.T) {
	s := store.NewMemoryStore()
	seed(t, s, model.KindPrice, "AAPL", "close", 1, 2)
	a := newAnalyzer(t, s, Options{Symbols: []string{"AAPL", "MSFT"}})
	reps := a.AnalyzeAll(context.Background())
	if len(reps) != 2 || reps[0].Symbol != "AAPL" || reps[1].Symbol != "MSFT" {
		t.Errorf("unexpected reports %+v", reps)
	}
}
