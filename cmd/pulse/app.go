package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"MarketPulse/internal/analyzer"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
	"MarketPulse/internal/store"
	"MarketPulse/internal/trace"
)

// app bundles the components shared by every command.
type app struct {
	cfg       *config.Config
	store     store.Store
	analyzer  *analyzer.Analyzer
	collector *collector.Collector
}

// openApp loads configuration and opens the store. Collectors are only built
// when collect is true, so read-only commands work without API keys.
func openApp(cfgPath string, collect bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if collect {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	}

	if err := trace.Init(cfg.Tracing.Enabled, os.Stderr); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	st, err := store.Open(cfg.Database.Driver, cfg.Database.SQLitePath, cfg.Database.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Printf("[INFO] store: %s", cfg.Database.Driver)

	a := &app{
		cfg:   cfg,
		store: st,
		analyzer: analyzer.New(st, analyzer.Options{
			Symbols:       cfg.Symbols,
			PriceWindow:   cfg.Analysis.PriceWindow,
			MentionWindow: cfg.Analysis.MentionWindow,
		}),
	}
	if collect {
		prices, err := newPriceFetcher(cfg)
		if err != nil {
			st.Close()
			return nil, err
		}
		mentions, err := newMentionFetcher(cfg)
		if err != nil {
			st.Close()
			return nil, err
		}
		log.Printf("[INFO] data sources: %s, %s", prices.Name(), mentions.Name())
		a.collector = collector.NewCollector(prices, mentions, st, cfg.Symbols, cfg.TwelveData.OutputSize)
	}
	return a, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := trace.Shutdown(ctx); err != nil {
		log.Printf("[WARN] shutdown tracing: %v", err)
	}
	if err := a.store.Close(); err != nil {
		log.Printf("[WARN] close store: %v", err)
	}
}

func newPriceFetcher(cfg *config.Config) (collector.PriceFetcher, error) {
	switch cfg.PriceSource {
	case "twelvedata":
		return collector.NewTwelveDataFetcher(cfg.TwelveData.BaseURL, cfg.TwelveData.APIKey,
			cfg.TwelveData.Interval, cfg.TwelveData.RequestsPerMinute, cfg.Proxy), nil
	case "yahoo":
		return collector.NewYahooFetcher(), nil
	case "mock":
		return &collector.MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown price source %q", cfg.PriceSource)
	}
}

func newMentionFetcher(cfg *config.Config) (collector.MentionFetcher, error) {
	switch cfg.MentionSource {
	case "apewisdom":
		return collector.NewApeWisdomFetcher(cfg.ApeWisdom.BaseURL, cfg.ApeWisdom.Filter,
			cfg.ApeWisdom.MaxPages, cfg.Proxy), nil
	case "mock":
		return &collector.MockFetcher{}, nil
	default:
		return nil, fmt.Errorf("unknown mention source %q", cfg.MentionSource)
	}
}
