package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketPulse/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// It serves both prices and mentions.
type MockFetcher struct {
	Price    float64
	Closes   map[string][]float64 // oldest first
	Mentions map[string]float64
	Err      error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPrices(_ context.Context, symbol string, size int) ([]model.KeyedRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	closes, ok := m.Closes[symbol]
	if !ok {
		closes = generateMockCloses(m.Price, size)
	}
	if size > 0 && len(closes) > size {
		closes = closes[len(closes)-size:]
	}
	base := time.Now().UTC()
	recs := make([]model.KeyedRecord, len(closes))
	for i, c := range closes {
		day := base.AddDate(0, 0, -(len(closes) - i)).Format("2006-01-02")
		recs[i] = model.KeyedRecord{
			Key:    day,
			Record: model.Record{"datetime": day, "close": fmt.Sprintf("%.5f", c)},
		}
	}
	return recs, nil
}

func (m *MockFetcher) FetchMentions(_ context.Context, symbols []string) (map[string]model.Record, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]model.Record)
	for i, s := range symbols {
		s = strings.ToUpper(s)
		n, ok := m.Mentions[s]
		if !ok {
			if m.Mentions != nil {
				continue
			}
			n = float64(10 * (i + 1))
		}
		out[s] = model.Record{"rank": i + 1, "ticker": s, "mentions": n}
	}
	return out, nil
}

func generateMockCloses(basePrice float64, count int) []float64 {
	if basePrice <= 0 {
		basePrice = 100
	}
	closes := make([]float64, count)
	for i := 0; i < count; i++ {
		closes[i] = basePrice * (1 + float64(i-count/2)*0.001)
	}
	return closes
}
