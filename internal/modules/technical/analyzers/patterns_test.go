package analyzers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuhaojin/stocklens/internal/domain"
)

func candle(i int, open, high, low, close float64) domain.Candle {
	return domain.Candle{
		Date:   time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 1_000_000,
	}
}

func findPattern(patterns []Pattern, name string) *Pattern {
	for i := range patterns {
		if patterns[i].Pattern == name {
			return &patterns[i]
		}
	}
	return nil
}

func TestRecognizeEmpty(t *testing.T) {
	r := NewPatternRecognizer()
	assert.Nil(t, r.Recognize(nil))
}

func TestRecognizeDoji(t *testing.T) {
	r := NewPatternRecognizer()
	got := r.Recognize(domain.Series{candle(0, 10, 11, 9, 10.05)})

	require.Len(t, got, 1)
	assert.Equal(t, "doji", got[0].Pattern)
	assert.Equal(t, "neutral", got[0].Type)
	assert.Equal(t, "medium", got[0].Reliability)
}

func TestRecognizeHammer(t *testing.T) {
	r := NewPatternRecognizer()
	got := r.Recognize(domain.Series{candle(0, 10, 10.35, 9, 10.3)})

	hammer := findPattern(got, "hammer")
	require.NotNil(t, hammer)
	assert.Equal(t, "bullish", hammer.Type)
	assert.Equal(t, "high", hammer.Reliability)
}

func TestRecognizeInvertedHammer(t *testing.T) {
	r := NewPatternRecognizer()
	got := r.Recognize(domain.Series{candle(0, 10, 11, 9.95, 10.2)})

	inv := findPattern(got, "inverted_hammer")
	require.NotNil(t, inv)
	assert.Equal(t, "bullish", inv.Type)
}

func TestRecognizeBullishEngulfing(t *testing.T) {
	r := NewPatternRecognizer()
	series := domain.Series{
		candle(0, 10.5, 10.6, 9.9, 10),   // red
		candle(1, 9.95, 10.9, 9.7, 10.8), // green body engulfs it
	}
	got := r.Recognize(series)

	require.Len(t, got, 1)
	assert.Equal(t, "bullish_engulfing", got[0].Pattern)
	assert.Equal(t, "bullish", got[0].Type)
	assert.Equal(t, "2024-06-04", got[0].Date)
}

func TestRecognizeBearishEngulfing(t *testing.T) {
	r := NewPatternRecognizer()
	series := domain.Series{
		candle(0, 10, 10.6, 9.9, 10.5),   // green
		candle(1, 10.55, 10.6, 9.8, 9.9), // red body engulfs it
	}
	got := r.Recognize(series)

	eng := findPattern(got, "bearish_engulfing")
	require.NotNil(t, eng)
	assert.Equal(t, "bearish", eng.Type)
	assert.Equal(t, "high", eng.Reliability)
}

func TestRecognizeGapUp(t *testing.T) {
	r := NewPatternRecognizer()
	series := domain.Series{
		candle(0, 10, 10.1, 9.9, 10),
		candle(1, 10.5, 10.6, 10.4, 10.55),
	}
	got := r.Recognize(series)

	gap := findPattern(got, "gap_up")
	require.NotNil(t, gap)
	assert.Equal(t, "bullish", gap.Type)
	assert.Equal(t, "Gap up of 5.00%, bullish momentum.", gap.Description)
}

func TestRecognizeMorningStar(t *testing.T) {
	r := NewPatternRecognizer()
	series := domain.Series{
		candle(0, 11, 11.1, 9.9, 10),     // big red
		candle(1, 9.8, 9.85, 9.6, 9.7),   // small body, gaps down
		candle(2, 9.9, 10.95, 9.85, 10.9), // big green, gaps up
	}
	got := r.Recognize(series)

	star := findPattern(got, "morning_star")
	require.NotNil(t, star)
	assert.Equal(t, "bullish", star.Type)
	assert.Equal(t, "high", star.Reliability)
	assert.Equal(t, "2024-06-05", star.Date)

	// Results come back newest first.
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Date, got[i].Date)
	}
}

func TestRecognizeEveningStar(t *testing.T) {
	r := NewPatternRecognizer()
	series := domain.Series{
		candle(0, 10, 11.1, 9.9, 11),       // big green
		candle(1, 11.2, 11.4, 11.15, 11.3), // small body, gaps up
		candle(2, 11, 11.05, 9.9, 10),      // big red, gaps down
	}
	got := r.Recognize(series)

	star := findPattern(got, "evening_star")
	require.NotNil(t, star)
	assert.Equal(t, "bearish", star.Type)
	assert.Equal(t, "high", star.Reliability)
}

func TestRecognizeWindowLimit(t *testing.T) {
	r := NewPatternRecognizer()

	series := make(domain.Series, 15)
	for i := range series {
		series[i] = candle(i, 100, 100, 100, 100)
	}
	// A gap-up outside the 10-bar scan window is ignored.
	series[3] = candle(3, 102, 102, 100, 100)

	assert.Empty(t, r.Recognize(series))
}
