// Package narrative turns a trend/interest classification into a fixed
// human-readable interpretation.
package narrative

import "MarketPulse/internal/model"

const (
	// NotEnoughData is returned when the trend or the interest level is absent.
	NotEnoughData = "Not enough data to generate a meaningful interpretation."
	// NoClearPattern is returned when no rule matches the classification pair.
	NoClearPattern = "No clear pattern could be identified from the available data."
)

// rules are evaluated in order; the first match wins.
var rules = []struct {
	Trend    model.Trend
	Interest model.InterestLevel // empty matches any level
	Text     string
}{
	{model.TrendUp, model.InterestHigh,
		"The stock price is rising alongside strong social interest, " +
			"suggesting aligned market momentum and public attention."},
	{model.TrendDown, model.InterestHigh,
		"High social interest combined with falling prices may indicate " +
			"speculative attention without market confirmation."},
	{model.TrendUp, model.InterestLow,
		"The stock price is increasing despite limited social interest, " +
			"suggesting institutional or low-profile momentum."},
	{model.TrendDown, model.InterestLow,
		"The stock price is trending downward with limited social interest, " +
			"indicating weak momentum and attention."},
	{model.TrendFlat, "",
		"The stock shows little price movement, indicating consolidation " +
			"or market indecision regardless of social attention."},
}

// Compose maps a classification pair to its interpretation.
// Correlation is intentionally not an input: it is reported alongside the
// narrative but never selects a branch.
func Compose(trend model.Trend, interest model.InterestLevel) string {
	if trend == "" || interest == "" {
		return NotEnoughData
	}
	for _, r := range rules {
		if r.Trend == trend && (r.Interest == "" || r.Interest == interest) {
			return r.Text
		}
	}
	return NoClearPattern
}
