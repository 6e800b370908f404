package formulas

import "math"

// Round2 rounds a value to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round4 rounds a value to 4 decimal places
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// RoundPtr2 rounds a nullable value to 2 decimal places
func RoundPtr2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := Round2(*v)
	return &r
}
