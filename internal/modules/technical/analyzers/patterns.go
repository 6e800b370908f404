package analyzers

import (
	"fmt"
	"math"
	"sort"

	"github.com/yuhaojin/stocklens/internal/domain"
)

const patternScanWindow = 10 // look at last N bars

// PatternRecognizer detects candlestick patterns in recent price data.
type PatternRecognizer struct{}

// NewPatternRecognizer creates a new pattern recognizer
func NewPatternRecognizer() *PatternRecognizer {
	return &PatternRecognizer{}
}

// Pattern is a detected candlestick pattern
type Pattern struct {
	Date        string `json:"date"`
	Pattern     string `json:"pattern"`
	Type        string `json:"type"`        // bullish, bearish, neutral
	Reliability string `json:"reliability"` // high, medium, low
	Description string `json:"description"`
}

// Recognize scans the last 10 trading days for classical candlestick
// patterns, newest first.
func (r *PatternRecognizer) Recognize(series domain.Series) []Pattern {
	if len(series) == 0 {
		return nil
	}

	bars := series.Sorted()
	window := bars
	if len(bars) > patternScanWindow {
		window = bars[len(bars)-patternScanWindow:]
	}

	var patterns []Pattern
	for i := range window {
		curr := window[i]
		var prev, prev2 *domain.Candle
		if i > 0 {
			prev = &window[i-1]
		}
		if i > 1 {
			prev2 = &window[i-2]
		}

		patterns = append(patterns, checkDoji(curr)...)
		patterns = append(patterns, checkHammer(curr)...)
		patterns = append(patterns, checkInvertedHammer(curr)...)

		if prev != nil {
			patterns = append(patterns, checkEngulfing(*prev, curr)...)
			patterns = append(patterns, checkGap(*prev, curr)...)
		}
		if prev != nil && prev2 != nil {
			patterns = append(patterns, checkMorningStar(*prev2, *prev, curr)...)
			patterns = append(patterns, checkEveningStar(*prev2, *prev, curr)...)
		}
	}

	sort.SliceStable(patterns, func(i, j int) bool { return patterns[i].Date > patterns[j].Date })
	return patterns
}

func body(c domain.Candle) float64       { return math.Abs(c.Close - c.Open) }
func candleRange(c domain.Candle) float64 { return c.High - c.Low }
func upperShadow(c domain.Candle) float64 {
	return c.High - math.Max(c.Open, c.Close)
}
func lowerShadow(c domain.Candle) float64 {
	return math.Min(c.Open, c.Close) - c.Low
}
func isBullish(c domain.Candle) bool { return c.Close >= c.Open }

// Doji: open and close within 10% of the bar's range
func checkDoji(c domain.Candle) []Pattern {
	rng := candleRange(c)
	if rng == 0 {
		return nil
	}
	if body(c)/rng <= 0.1 {
		return []Pattern{{
			Date:        c.DateString(),
			Pattern:     "doji",
			Type:        "neutral",
			Reliability: "medium",
			Description: "Open and close nearly equal, market indecision.",
		}}
	}
	return nil
}

// Hammer: small body at top, lower shadow at least twice the body,
// little upper shadow
func checkHammer(c domain.Candle) []Pattern {
	b := body(c)
	if candleRange(c) == 0 || b == 0 {
		return nil
	}
	if lowerShadow(c) >= 2.0*b && upperShadow(c) <= b*0.5 {
		return []Pattern{{
			Date:        c.DateString(),
			Pattern:     "hammer",
			Type:        "bullish",
			Reliability: "high",
			Description: "Small body at top with long lower shadow, potential bullish reversal.",
		}}
	}
	return nil
}

func checkInvertedHammer(c domain.Candle) []Pattern {
	b := body(c)
	if candleRange(c) == 0 || b == 0 {
		return nil
	}
	if upperShadow(c) >= 2.0*b && lowerShadow(c) <= b*0.5 {
		return []Pattern{{
			Date:        c.DateString(),
			Pattern:     "inverted_hammer",
			Type:        "bullish",
			Reliability: "medium",
			Description: "Small body at bottom with long upper shadow, potential reversal.",
		}}
	}
	return nil
}

// Engulfing: current body completely engulfs previous body
func checkEngulfing(prev, curr domain.Candle) []Pattern {
	if body(prev) == 0 || body(curr) == 0 {
		return nil
	}

	prevTop := math.Max(prev.Open, prev.Close)
	prevBot := math.Min(prev.Open, prev.Close)
	currTop := math.Max(curr.Open, curr.Close)
	currBot := math.Min(curr.Open, curr.Close)

	if currTop > prevTop && currBot < prevBot {
		if !isBullish(prev) && isBullish(curr) {
			return []Pattern{{
				Date:        curr.DateString(),
				Pattern:     "bullish_engulfing",
				Type:        "bullish",
				Reliability: "high",
				Description: "Green candle engulfs previous red candle, bullish reversal signal.",
			}}
		}
		if isBullish(prev) && !isBullish(curr) {
			return []Pattern{{
				Date:        curr.DateString(),
				Pattern:     "bearish_engulfing",
				Type:        "bearish",
				Reliability: "high",
				Description: "Red candle engulfs previous green candle, bearish reversal signal.",
			}}
		}
	}
	return nil
}

// Morning star: large red, small body, large green. The gaps upgrade
// reliability but are not required.
func checkMorningStar(first, second, third domain.Candle) []Pattern {
	firstBody := body(first)
	firstRange := candleRange(first)
	if firstRange == 0 {
		return nil
	}

	isBigRed := !isBullish(first) && firstBody/firstRange > 0.5
	isSmall := body(second) < firstBody*0.5
	gapsDown := math.Max(second.Open, second.Close) < math.Min(first.Open, first.Close)
	isBigGreen := isBullish(third) && body(third) > firstBody*0.5
	gapsUp := math.Min(third.Open, third.Close) > math.Max(second.Open, second.Close)

	if isBigRed && isSmall && isBigGreen {
		reliability := "medium"
		if gapsDown && gapsUp {
			reliability = "high"
		}
		return []Pattern{{
			Date:        third.DateString(),
			Pattern:     "morning_star",
			Type:        "bullish",
			Reliability: reliability,
			Description: "Three-candle bullish reversal: large red, small body, large green.",
		}}
	}
	return nil
}

func checkEveningStar(first, second, third domain.Candle) []Pattern {
	firstBody := body(first)
	firstRange := candleRange(first)
	if firstRange == 0 {
		return nil
	}

	isBigGreen := isBullish(first) && firstBody/firstRange > 0.5
	isSmall := body(second) < firstBody*0.5
	gapsUp := math.Min(second.Open, second.Close) > math.Max(first.Open, first.Close)
	isBigRed := !isBullish(third) && body(third) > firstBody*0.5
	gapsDown := math.Max(third.Open, third.Close) < math.Min(second.Open, second.Close)

	if isBigGreen && isSmall && isBigRed {
		reliability := "medium"
		if gapsUp && gapsDown {
			reliability = "high"
		}
		return []Pattern{{
			Date:        third.DateString(),
			Pattern:     "evening_star",
			Type:        "bearish",
			Reliability: reliability,
			Description: "Three-candle bearish reversal: large green, small body, large red.",
		}}
	}
	return nil
}

// Gap up/down: more than 1% between previous close and current open
func checkGap(prev, curr domain.Candle) []Pattern {
	if prev.Close == 0 {
		return nil
	}
	gapPct := (curr.Open - prev.Close) / prev.Close * 100
	if gapPct > 1.0 {
		return []Pattern{{
			Date:        curr.DateString(),
			Pattern:     "gap_up",
			Type:        "bullish",
			Reliability: "medium",
			Description: fmt.Sprintf("Gap up of %.2f%%, bullish momentum.", gapPct),
		}}
	}
	if gapPct < -1.0 {
		return []Pattern{{
			Date:        curr.DateString(),
			Pattern:     "gap_down",
			Type:        "bearish",
			Reliability: "medium",
			Description: fmt.Sprintf("Gap down of %.2f%%, bearish pressure.", math.Abs(gapPct)),
		}}
	}
	return nil
}
