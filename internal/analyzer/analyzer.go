package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/model"
	"MarketPulse/internal/narrative"
	"MarketPulse/internal/trace"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultWindow is the number of most recent records analyzed per stream.
const DefaultWindow = 30

const (
	priceField   = "close"
	mentionField = "mentions"
)

// ErrUnknownSymbol is returned for symbols outside the configured set.
var ErrUnknownSymbol = errors.New("unknown symbol")

// RecordSource returns up to limit most recent records of a stream, newest first.
type RecordSource interface {
	Latest(ctx context.Context, kind model.RecordKind, symbol string, limit int) ([]model.Record, error)
}

// Options configures the analyzer. An empty Symbols set accepts any symbol.
type Options struct {
	Symbols       []string
	PriceWindow   int
	MentionWindow int
}

// Analyzer builds AnalysisReports from stored price and mention records.
type Analyzer struct {
	source  RecordSource
	opts    Options
	symbols map[string]bool
	now     func() time.Time
}

// New creates an Analyzer. Non-positive windows fall back to DefaultWindow.
func New(source RecordSource, opts Options) *Analyzer {
	if opts.PriceWindow <= 0 {
		opts.PriceWindow = DefaultWindow
	}
	if opts.MentionWindow <= 0 {
		opts.MentionWindow = DefaultWindow
	}
	symbols := make(map[string]bool, len(opts.Symbols))
	normalized := make([]string, 0, len(opts.Symbols))
	for _, s := range opts.Symbols {
		s = normalize(s)
		if s == "" || symbols[s] {
			continue
		}
		symbols[s] = true
		normalized = append(normalized, s)
	}
	opts.Symbols = normalized
	return &Analyzer{source: source, opts: opts, symbols: symbols, now: time.Now}
}

// Symbols returns the configured symbols in configuration order.
func (a *Analyzer) Symbols() []string {
	out := make([]string, len(a.opts.Symbols))
	copy(out, a.opts.Symbols)
	return out
}

// Analyze runs the full pipeline for one symbol. Missing data never fails the
// call; it shows up as nil report fields and the not-enough-data narrative.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) (*model.AnalysisReport, error) {
	symbol = normalize(symbol)
	if len(a.symbols) > 0 && !a.symbols[symbol] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	ctx, span := trace.StartSpan(ctx, "analyzer.Analyze")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	priceRecords, err := a.source.Latest(ctx, model.KindPrice, symbol, a.opts.PriceWindow)
	if err != nil {
		return nil, fmt.Errorf("load prices for %s: %w", symbol, err)
	}
	mentionRecords, err := a.source.Latest(ctx, model.KindMention, symbol, a.opts.MentionWindow)
	if err != nil {
		return nil, fmt.Errorf("load mentions for %s: %w", symbol, err)
	}

	prices := calculator.NewSeries(calculator.Extract(priceRecords, priceField, a.opts.PriceWindow), calculator.NewestFirst)
	mentions := calculator.NewSeries(calculator.Extract(mentionRecords, mentionField, a.opts.MentionWindow), calculator.NewestFirst)

	rep := &model.AnalysisReport{
		Symbol:        symbol,
		PriceCount:    prices.Len(),
		MentionCount:  mentions.Len(),
		PriceSeries:   prices.Chronological(),
		MentionSeries: mentions.Chronological(),
		GeneratedAt:   a.now().UTC(),
	}
	if v, ok := prices.Latest(); ok {
		rep.LastPrice = &v
	}
	if v, ok := mentions.Latest(); ok {
		rep.LastMentions = &v
	}

	trend, changePct, ok := calculator.ClassifyTrend(prices)
	if ok {
		rep.PriceTrend = &trend
		rep.PriceChangePct = &changePct
	}
	interest := calculator.ClassifyInterest(mentions.Values())
	if interest != "" {
		rep.SocialInterest = &interest
	}
	if corr, ok := calculator.Correlate(prices, mentions); ok {
		rep.Correlation = &corr
	}
	rep.Summary = narrative.Compose(trend, interest)

	span.SetAttributes(
		attribute.Int("prices", rep.PriceCount),
		attribute.Int("mentions", rep.MentionCount),
		attribute.String("trend", string(trend)),
		attribute.String("interest", string(interest)),
	)
	return rep, nil
}

// AnalyzeAll analyzes every configured symbol in order, skipping failures.
func (a *Analyzer) AnalyzeAll(ctx context.Context) []*model.AnalysisReport {
	reports := make([]*model.AnalysisReport, 0, len(a.opts.Symbols))
	for _, sym := range a.opts.Symbols {
		rep, err := a.Analyze(ctx, sym)
		if err != nil {
			log.Printf("[ERROR] analyze %s: %v", sym, err)
			continue
		}
		reports = append(reports, rep)
	}
	return reports
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
