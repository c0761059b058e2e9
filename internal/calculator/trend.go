package calculator

import "MarketPulse/internal/model"

// trendThresholdPct is the absolute percentage move needed to leave "flat".
const trendThresholdPct = 1.0

// ClassifyTrend compares the oldest and latest samples of s.
// It returns the trend, the percentage change rounded to 2 places, and false
// when s has fewer than 2 samples. A zero oldest sample yields a 0% change.
func ClassifyTrend(s Series) (model.Trend, float64, bool) {
	if s.Len() < 2 {
		return "", 0, false
	}
	first, _ := s.Oldest()
	last, _ := s.Latest()

	changePct := 0.0
	if first != 0 {
		changePct = (last - first) / first * 100
	}

	var trend model.Trend
	switch {
	case changePct > trendThresholdPct:
		trend = model.TrendUp
	case changePct < -trendThresholdPct:
		trend = model.TrendDown
	default:
		trend = model.TrendFlat
	}
	return trend, round(changePct, 2), true
}
