package formulas

import (
	"github.com/markcheno/go-talib"
)

// OBV calculates On-Balance Volume for the full price/volume history.
// Returns nil if the inputs are empty or mismatched.
func OBV(closes, volumes []float64) []float64 {
	if len(closes) == 0 || len(closes) != len(volumes) {
		return nil
	}
	return talib.Obv(closes, volumes)
}

// ATR calculates the Average True Range and returns the latest value,
// or nil if there is not enough history.
func ATR(highs, lows, closes []float64, period int) *float64 {
	if len(closes) < period+1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return nil
	}
	atr := talib.Atr(highs, lows, closes, period)
	if len(atr) == 0 {
		return nil
	}
	last := atr[len(atr)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
