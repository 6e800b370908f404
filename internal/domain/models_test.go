package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestSeriesSorted(t *testing.T) {
	series := Series{
		{Date: day("2024-01-03"), Close: 3},
		{Date: day("2024-01-01"), Close: 1},
		{Date: day("2024-01-02"), Close: 2},
	}

	sorted := series.Sorted()

	assert.Len(t, sorted, 3)
	assert.Equal(t, 1.0, sorted[0].Close)
	assert.Equal(t, 3.0, sorted[2].Close)
	// original order untouched
	assert.Equal(t, 3.0, series[0].Close)
}

func TestSeriesSortedDeduplicates(t *testing.T) {
	series := Series{
		{Date: day("2024-01-01"), Close: 1},
		{Date: day("2024-01-01"), Close: 9},
		{Date: day("2024-01-02"), Close: 2},
	}

	sorted := series.Sorted()

	assert.Len(t, sorted, 2)
	// last occurrence wins
	assert.Equal(t, 9.0, sorted[0].Close)
}

func TestSeriesSortedEmpty(t *testing.T) {
	assert.Empty(t, Series{}.Sorted())
	assert.Empty(t, Series(nil).Sorted())
}

func TestDetectMarket(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"600519", "CN"},
		{"000001", "CN"},
		{"00700", "HK"},
		{"AAPL", "US"},
		{"brk", "US"},
		{"0700.HK", "HK"},
		{"600519.SH", "CN"},
		{"000001.SZ", "CN"},
		{"  aapl  ", "US"},
		{"BRK.B", "US"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMarket(tt.code))
		})
	}
}

func TestCurrentPricePrefersRealtime(t *testing.T) {
	stock := &StockData{
		Realtime: Quote{"price": 101.5},
		Daily: Series{
			{Date: day("2024-01-01"), Close: 99.0},
		},
	}

	price := stock.CurrentPrice()
	assert.NotNil(t, price)
	assert.Equal(t, 101.5, *price)
}

func TestCurrentPriceFallsBackToLastClose(t *testing.T) {
	stock := &StockData{
		Daily: Series{
			{Date: day("2024-01-02"), Close: 50.0},
			{Date: day("2024-01-01"), Close: 49.0},
		},
	}

	price := stock.CurrentPrice()
	assert.NotNil(t, price)
	assert.Equal(t, 50.0, *price)
}

func TestCurrentPriceNilWhenNoData(t *testing.T) {
	assert.Nil(t, (&StockData{}).CurrentPrice())
	assert.Nil(t, (*StockData)(nil).CurrentPrice())
}

func TestQuoteFloat(t *testing.T) {
	q := Quote{
		"pe":       15.2,
		"pb":       "3.4",
		"shares":   int64(1000),
		"bad":      "n/a",
		"explicit": nil,
	}

	assert.Equal(t, 15.2, *q.Float("pe"))
	assert.Equal(t, 3.4, *q.Float("pb"))
	assert.Equal(t, 1000.0, *q.Float("shares"))
	assert.Nil(t, q.Float("bad"))
	assert.Nil(t, q.Float("explicit"))
	assert.Nil(t, q.Float("missing"))

	// first usable candidate wins
	assert.Equal(t, 15.2, *q.Float("missing", "pe", "pb"))
	assert.Nil(t, Quote(nil).Float("pe"))
}

func TestQuoteString(t *testing.T) {
	q := Quote{
		"name":   "  Apple Inc. ",
		"sector": "N/A",
		"empty":  "",
	}

	assert.Equal(t, "Apple Inc.", q.String("name"))
	assert.Equal(t, "", q.String("sector"))
	assert.Equal(t, "Apple Inc.", q.String("sector", "empty", "name"))
}

func TestFloatRejectsNonFinite(t *testing.T) {
	assert.Nil(t, Float(math.NaN()))
	assert.Nil(t, Float(math.Inf(1)))
	assert.Nil(t, Float(math.Inf(-1)))
	assert.Equal(t, 1.5, *Float(1.5))
}
