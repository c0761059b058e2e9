package model

import "time"

// Trend is the direction of price movement across a window. The zero value
// means there was not enough data to classify.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// InterestLevel buckets average social mention volume. The zero value means
// no mention data was available.
type InterestLevel string

const (
	InterestLow    InterestLevel = "low"
	InterestMedium InterestLevel = "medium"
	InterestHigh   InterestLevel = "high"
)

// AnalysisReport is the per-symbol summary produced by the analyzer.
// Nil pointer fields encode as JSON null.
type AnalysisReport struct {
	Symbol         string         `json:"symbol"`
	LastPrice      *float64       `json:"td_last_price"`
	LastMentions   *float64       `json:"aw_last_mentions"`
	PriceTrend     *Trend         `json:"price_trend"`
	PriceChangePct *float64       `json:"price_change_pct"`
	SocialInterest *InterestLevel `json:"social_interest"`
	Correlation    *float64       `json:"correlation"`
	PriceCount     int            `json:"td_count"`
	MentionCount   int            `json:"aw_count"`
	PriceSeries    []float64      `json:"td_prices_series"`
	MentionSeries  []float64      `json:"aw_mentions_series"`
	GeneratedAt    time.Time      `json:"analysis_timestamp"`
	Summary        string         `json:"summary"`
}
