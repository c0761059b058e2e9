package calculator

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"MarketPulse/internal/model"

	"github.com/shopspring/decimal"
)

// Order states which end of a Series holds the most recent observation.
type Order int

const (
	// NewestFirst is the order records come back from the store: index 0 is the latest sample.
	NewestFirst Order = iota
	// OldestFirst is chronological order, used for presentation.
	OldestFirst
)

func (o Order) String() string {
	if o == OldestFirst {
		return "oldest-first"
	}
	return "newest-first"
}

// Series is an immutable window of numeric samples with an explicit order.
type Series struct {
	values []float64
	order  Order
}

// NewSeries copies values into a Series with the given order.
func NewSeries(values []float64, order Order) Series {
	v := make([]float64, len(values))
	copy(v, values)
	return Series{values: v, order: order}
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.values) }

// Order returns the direction of the series.
func (s Series) Order() Order { return s.order }

// Latest returns the most recent sample.
func (s Series) Latest() (float64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	if s.order == NewestFirst {
		return s.values[0], true
	}
	return s.values[len(s.values)-1], true
}

// Oldest returns the earliest retained sample.
func (s Series) Oldest() (float64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	if s.order == NewestFirst {
		return s.values[len(s.values)-1], true
	}
	return s.values[0], true
}

// Values returns a copy of the samples in the series' own order.
func (s Series) Values() []float64 {
	v := make([]float64, len(s.values))
	copy(v, s.values)
	return v
}

// Chronological returns the samples oldest first. Never nil.
func (s Series) Chronological() []float64 {
	if s.order == OldestFirst {
		return s.Values()
	}
	return reversed(s.values)
}

// NewestFirstValues returns the samples newest first. Never nil.
func (s Series) NewestFirstValues() []float64 {
	if s.order == NewestFirst {
		return s.Values()
	}
	return reversed(s.values)
}

func reversed(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}

// Extract pulls field out of each record as a float, keeping source order.
// Records whose field is missing, null or not numeric are skipped.
// limit <= 0 means no cap.
func Extract(records []model.Record, field string, limit int) []float64 {
	out := make([]float64, 0, len(records))
	for _, rec := range records {
		if limit > 0 && len(out) >= limit {
			break
		}
		if v, ok := toFloat(rec[field]); ok {
			out = append(out, v)
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		return parseNumber(string(n))
	case string:
		return parseNumber(n)
	case decimal.Decimal:
		f = n.InexactFloat64()
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumber(s string) (float64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	f := d.InexactFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// round rounds the exact binary value of v to places decimal places,
// breaking exact ties to even. round(0.125, 2) is 0.12, round(2.675, 2) is
// 2.67 because 2.675 is stored slightly below the tie.
func round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
