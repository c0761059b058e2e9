package collector

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/model"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

// YahooFetcher implements PriceFetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	now       func() time.Time
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher() *YahooFetcher {
	return &YahooFetcher{
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		now: time.Now,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

func (f *YahooFetcher) FetchPrices(ctx context.Context, symbol string, size int) ([]model.KeyedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start, end := f.window(size)
	iter := chart.Get(&chart.Params{
		Symbol:   f.yahooSymbol(symbol),
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var bars []*finance.ChartBar
	for iter.Next() {
		bars = append(bars, iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	return barRecords(bars, size), nil
}

// window returns a calendar range wide enough to hold size trading days.
func (f *YahooFetcher) window(size int) (time.Time, time.Time) {
	end := f.now()
	return end.AddDate(0, 0, -(size*7/5 + 10)), end
}

// barRecords converts daily bars to price records, skipping bars without a
// close and keeping the last size of them (all when size <= 0).
func barRecords(bars []*finance.ChartBar, size int) []model.KeyedRecord {
	var recs []model.KeyedRecord
	for _, bar := range bars {
		if bar == nil || bar.Close.IsZero() {
			continue
		}
		day := time.Unix(int64(bar.Timestamp), 0).UTC().Format("2006-01-02")
		recs = append(recs, model.KeyedRecord{
			Key:    day,
			Record: model.Record{"datetime": day, "close": bar.Close.String()},
		})
	}
	if size > 0 && len(recs) > size {
		recs = recs[len(recs)-size:]
	}
	return recs
}
