package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"MarketPulse/internal/model"
	"MarketPulse/internal/store"
	"MarketPulse/internal/trace"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultOutputSize is the number of daily bars requested per symbol.
const DefaultOutputSize = 30

// Result summarizes one ETL run of a single source.
type Result struct {
	Source   string
	Inserted map[string]int
	Missing  []string
	Failed   map[string]error
}

func newResult(source string) *Result {
	return &Result{Source: source, Inserted: map[string]int{}, Failed: map[string]error{}}
}

// Total returns the number of records inserted across all symbols.
func (r *Result) Total() int {
	n := 0
	for _, c := range r.Inserted {
		n += c
	}
	return n
}

// Collector fetches records for the configured symbols and writes them to the store.
type Collector struct {
	Prices     PriceFetcher
	Mentions   MentionFetcher
	Store      store.Store
	Symbols    []string
	OutputSize int
	now        func() time.Time
}

// NewCollector creates a new Collector. Either fetcher may be nil.
func NewCollector(prices PriceFetcher, mentions MentionFetcher, st store.Store, symbols []string, outputSize int) *Collector {
	if outputSize <= 0 {
		outputSize = DefaultOutputSize
	}
	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			normalized = append(normalized, s)
		}
	}
	return &Collector{
		Prices:     prices,
		Mentions:   mentions,
		Store:      st,
		Symbols:    normalized,
		OutputSize: outputSize,
		now:        time.Now,
	}
}

// CollectPrices fetches and stores daily prices for every symbol.
// Per-symbol failures are logged, recorded as ETL events and skipped.
func (c *Collector) CollectPrices(ctx context.Context) (*Result, error) {
	if c.Prices == nil {
		return nil, fmt.Errorf("collect prices: no price fetcher configured")
	}
	ctx, span := trace.StartSpan(ctx, "collector.CollectPrices")
	defer span.End()
	span.SetAttributes(attribute.String("source", c.Prices.Name()))

	res := newResult(c.Prices.Name())
	for _, sym := range c.Symbols {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		recs, err := c.Prices.FetchPrices(ctx, sym, c.OutputSize)
		if err != nil {
			log.Printf("[ERROR] %s prices for %s: %v", res.Source, sym, err)
			res.Failed[sym] = err
			c.recordEvent(ctx, res.Source, sym, 0, fmt.Sprintf("fetch failed: %v", err))
			continue
		}
		if len(recs) == 0 {
			log.Printf("[WARN] No price data returned for %s", sym)
			res.Missing = append(res.Missing, sym)
			continue
		}
		n, err := c.Store.InsertRecords(ctx, model.KindPrice, sym, recs)
		if err != nil {
			log.Printf("[ERROR] store prices for %s: %v", sym, err)
			res.Failed[sym] = err
			continue
		}
		res.Inserted[sym] = n
		log.Printf("[INFO] Inserted %d price records for %s", n, sym)
		c.recordEvent(ctx, res.Source, sym, n, fmt.Sprintf("Inserted %d records for %s", n, sym))
	}
	span.SetAttributes(attribute.Int("inserted", res.Total()))
	return res, nil
}

// CollectMentions fetches the current mention snapshot and stores one record
// per symbol found, keyed by the collection timestamp.
func (c *Collector) CollectMentions(ctx context.Context) (*Result, error) {
	if c.Mentions == nil {
		return nil, fmt.Errorf("collect mentions: no mention fetcher configured")
	}
	ctx, span := trace.StartSpan(ctx, "collector.CollectMentions")
	defer span.End()
	span.SetAttributes(attribute.String("source", c.Mentions.Name()))

	res := newResult(c.Mentions.Name())
	found, err := c.Mentions.FetchMentions(ctx, c.Symbols)
	if err != nil {
		c.recordEvent(ctx, res.Source, "", 0, fmt.Sprintf("fetch failed: %v", err))
		return nil, fmt.Errorf("fetch mentions: %w", err)
	}

	collectedAt := c.now().UTC().Format(time.RFC3339)
	for _, sym := range c.Symbols {
		rec, ok := found[sym]
		if !ok {
			log.Printf("[WARN] No %s data found for %s", res.Source, sym)
			res.Missing = append(res.Missing, sym)
			continue
		}
		rec["collected_at"] = collectedAt
		n, err := c.Store.InsertRecords(ctx, model.KindMention, sym, []model.KeyedRecord{{Key: collectedAt, Record: rec}})
		if err != nil {
			log.Printf("[ERROR] store mentions for %s: %v", sym, err)
			res.Failed[sym] = err
			continue
		}
		res.Inserted[sym] = n
		log.Printf("[INFO] Inserted %d mention records for %s", n, sym)
		c.recordEvent(ctx, res.Source, sym, n, fmt.Sprintf("Inserted %d records for %s", n, sym))
	}
	span.SetAttributes(attribute.Int("inserted", res.Total()))
	return res, nil
}

// CollectAll runs the price and mention ETL back to back. A mention failure
// does not discard the price result.
func (c *Collector) CollectAll(ctx context.Context) ([]*Result, error) {
	var results []*Result
	var errs []string
	if c.Prices != nil {
		res, err := c.CollectPrices(ctx)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Mentions != nil {
		res, err := c.CollectMentions(ctx)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return results, fmt.Errorf("collect all: %s", strings.Join(errs, "; "))
	}
	return results, nil
}

func (c *Collector) recordEvent(ctx context.Context, source, symbol string, count int, msg string) {
	evt := &model.ETLEvent{
		Source:    source,
		Symbol:    symbol,
		Count:     count,
		Message:   msg,
		Timestamp: c.now().UTC(),
	}
	if err := c.Store.RecordETL(ctx, evt); err != nil {
		log.Printf("[WARN] record ETL event for %s: %v", symbol, err)
	}
}
