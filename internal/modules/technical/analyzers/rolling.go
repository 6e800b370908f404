package analyzers

import "math"

// Rolling-window helpers used by the indicator calculators. All of them
// skip NaN inputs inside the window and emit NaN when nothing usable is
// in range, so partial histories still produce values on early bars.

func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum, n := 0.0, 0
		for j := start; j <= i; j++ {
			if !math.IsNaN(values[j]) {
				sum += values[j]
				n++
			}
		}
		if n == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// rollingStd is the sample standard deviation (ddof=1). A window with a
// single usable value yields NaN.
func rollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum, n := 0.0, 0
		for j := start; j <= i; j++ {
			if !math.IsNaN(values[j]) {
				sum += values[j]
				n++
			}
		}
		if n < 2 {
			out[i] = math.NaN()
			continue
		}
		mean := sum / float64(n)
		ss := 0.0
		for j := start; j <= i; j++ {
			if !math.IsNaN(values[j]) {
				d := values[j] - mean
				ss += d * d
			}
		}
		out[i] = math.Sqrt(ss / float64(n-1))
	}
	return out
}

func rollingMin(values []float64, window int) []float64 {
	return rollingExtreme(values, window, func(a, b float64) bool { return a < b })
}

func rollingMax(values []float64, window int) []float64 {
	return rollingExtreme(values, window, func(a, b float64) bool { return a > b })
}

func rollingExtreme(values []float64, window int, better func(a, b float64) bool) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		best := math.NaN()
		for j := start; j <= i; j++ {
			if math.IsNaN(values[j]) {
				continue
			}
			if math.IsNaN(best) || better(values[j], best) {
				best = values[j]
			}
		}
		out[i] = best
	}
	return out
}

// ema is exponential smoothing seeded at the first usable value
// (recursive form, not the adjusted weighted form). NaN inputs carry the
// previous value forward.
func ema(values []float64, span int) []float64 {
	alpha := 2.0 / (float64(span) + 1.0)
	return ewm(values, alpha)
}

// ewmCom is exponential smoothing parameterized by center of mass,
// alpha = 1/(1+com).
func ewmCom(values []float64, com float64) []float64 {
	return ewm(values, 1.0/(1.0+com))
}

func ewm(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	prev := math.NaN()
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = prev
			continue
		}
		if math.IsNaN(prev) {
			prev = v
		} else {
			prev = (1.0-alpha)*prev + alpha*v
		}
		out[i] = prev
	}
	return out
}

// lastValue extracts the final element rounded to 4 decimals, or nil
// when the slice is empty or ends in NaN.
func lastValue(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := math.Round(v*10000) / 10000
	return &r
}

func nanDiv(a, b float64) float64 {
	if b == 0 || math.IsNaN(b) {
		return math.NaN()
	}
	return a / b
}
