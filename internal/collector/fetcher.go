package collector

import (
	"context"

	"MarketPulse/internal/model"
)

// PriceFetcher fetches daily closing prices for one symbol.
// Records are returned oldest first, keyed by bar datetime.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, symbol string, size int) ([]model.KeyedRecord, error)
	Name() string
}

// MentionFetcher fetches the current social mention snapshot for a set of symbols.
// Symbols that were not found are absent from the result.
type MentionFetcher interface {
	FetchMentions(ctx context.Context, symbols []string) (map[string]model.Record, error)
	Name() string
}
