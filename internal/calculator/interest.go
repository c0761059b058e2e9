package calculator

import "MarketPulse/internal/model"

const (
	highInterestMean   = 50.0
	mediumInterestMean = 20.0
)

// ClassifyInterest buckets the mean of values. Empty input yields the zero level.
func ClassifyInterest(values []float64) model.InterestLevel {
	if len(values) == 0 {
		return ""
	}
	avg := mean(values)
	switch {
	case avg >= highInterestMean:
		return model.InterestHigh
	case avg >= mediumInterestMean:
		return model.InterestMedium
	default:
		return model.InterestLow
	}
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
