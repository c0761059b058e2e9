package calculator

import "math"

// Correlate returns the Pearson coefficient of a and b rounded to 3 places.
//
// Both series are aligned newest-to-newest and truncated to the shorter length.
// The alignment is positional only: sample i of each series is paired even if
// the two streams were collected on different dates.
// It reports false when fewer than 2 pairs remain or either side is constant.
func Correlate(a, b Series) (float64, bool) {
	x := a.NewestFirstValues()
	y := b.NewestFirstValues()

	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return 0, false
	}
	x, y = x[:n], y[:n]
	if constant(x) || constant(y) {
		return 0, false
	}

	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}

	r := sxy / (math.Sqrt(sxx) * math.Sqrt(syy))
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	r = math.Max(-1, math.Min(1, r))
	return round(r, 3), true
}

// constant reports whether every value equals the first one. The computed
// variance of a repeated non-integer value is not exactly zero.
func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
