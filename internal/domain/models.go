// Package domain holds the shared data model for stock analysis: OHLCV
// series, financial statements, quote snapshots, and the verdict enum.
// These types are pure data; all computation lives in the analyzer and
// service packages.
package domain

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Candle is a single daily OHLCV bar.
type Candle struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Turnover *float64  `json:"turnover,omitempty"`
}

// Series is an ordered-by-date sequence of daily bars.
type Series []Candle

// Sorted returns a copy of the series sorted by date ascending with duplicate
// dates removed (last occurrence wins). The receiver is never mutated;
// analyzers always work on the copy.
func (s Series) Sorted() Series {
	if len(s) == 0 {
		return Series{}
	}
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	dedup := out[:0]
	for _, c := range out {
		if len(dedup) > 0 && dedup[len(dedup)-1].Date.Equal(c.Date) {
			dedup[len(dedup)-1] = c
			continue
		}
		dedup = append(dedup, c)
	}
	return dedup
}

// Closes returns the close prices in series order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Volumes returns the volumes in series order.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Volume
	}
	return out
}

// Highs returns the high prices in series order.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

// Lows returns the low prices in series order.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

// DateString formats a candle date the way it appears in analyzer output.
func (c Candle) DateString() string {
	return c.Date.Format("2006-01-02")
}

// NewsArticle is one fetched news item. PublishedAt stays a string because
// providers return wildly inconsistent date formats; sorting is lexical.
type NewsArticle struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_date"`
	Source      string `json:"source"`
}

// FundFlowDay is one day of institutional fund-flow data (CN markets).
type FundFlowDay struct {
	Date          time.Time `json:"date"`
	MainNet       float64   `json:"main_net"`
	SuperLargeNet *float64  `json:"super_large_net,omitempty"`
	LargeNet      *float64  `json:"large_net,omitempty"`
	MediumNet     *float64  `json:"medium_net,omitempty"`
	SmallNet      *float64  `json:"small_net,omitempty"`
}

// ChipDay is one snapshot of chip (cost-basis) distribution data (CN markets).
type ChipDay struct {
	Date          time.Time `json:"date"`
	ProfitRatio   *float64  `json:"profit_ratio,omitempty"`
	AvgCost       *float64  `json:"avg_cost,omitempty"`
	Concentration *float64  `json:"concentration,omitempty"`
}

// StockData is the immutable snapshot of everything the three pillar services
// consume. It is assembled by the data-acquisition collaborator; the analysis
// core never mutates it and never fetches anything itself.
type StockData struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Market      string `json:"market"` // CN, US, HK
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	Description string `json:"description,omitempty"`

	Daily    Series           `json:"daily,omitempty"`
	Income   *IncomeStatement `json:"income,omitempty"`
	Balance  *StatementTable  `json:"balance,omitempty"`
	CashFlow *StatementTable  `json:"cash_flow,omitempty"`

	Quote    Quote `json:"quote,omitempty"`    // company info / fundamentals snapshot
	Realtime Quote `json:"realtime,omitempty"` // live quote (price etc.)

	FundFlow []FundFlowDay `json:"fund_flow,omitempty"` // CN only
	ChipData []ChipDay     `json:"chip_data,omitempty"` // CN only

	News  []NewsArticle `json:"news,omitempty"`
	Peers []*StockData  `json:"-"`
}

// CurrentPrice resolves the current price: realtime quote first, then the
// last daily close. Returns nil when neither is available.
func (d *StockData) CurrentPrice() *float64 {
	if d == nil {
		return nil
	}
	if p := d.Realtime.Float("price", "current_price", "最新"); p != nil && *p > 0 {
		return p
	}
	if len(d.Daily) > 0 {
		sorted := d.Daily.Sorted()
		return Float(sorted[len(sorted)-1].Close)
	}
	return nil
}

var (
	cnCodeRe = regexp.MustCompile(`^\d{6}$`)
	hkCodeRe = regexp.MustCompile(`^\d{5}$`)
	usCodeRe = regexp.MustCompile(`^[A-Z]{1,5}$`)
)

// DetectMarket infers the market from the shape of a stock code.
func DetectMarket(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch {
	case cnCodeRe.MatchString(code):
		return "CN"
	case hkCodeRe.MatchString(code):
		return "HK"
	case usCodeRe.MatchString(code):
		return "US"
	case strings.HasSuffix(code, ".HK"):
		return "HK"
	case strings.HasSuffix(code, ".SH"), strings.HasSuffix(code, ".SZ"):
		return "CN"
	}
	return "US"
}

// Float converts a value to a nullable float, rejecting NaN and Inf. Every
// float that crosses the core boundary goes through this so that "not
// computable" is always represented as nil, never as NaN.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
