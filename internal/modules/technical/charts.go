package technical

import (
	"math"

	"github.com/yuhaojin/stocklens/internal/domain"
	"github.com/yuhaojin/stocklens/internal/modules/technical/analyzers"
	"github.com/yuhaojin/stocklens/pkg/formulas"
)

const chartLookback = 250 // trading days rendered by the frontend

// ChartBar is one OHLCV row prepared for chart rendering
type ChartBar struct {
	Date   string   `json:"date"`
	Open   float64  `json:"open"`
	Close  float64  `json:"close"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Volume float64  `json:"volume"`
}

// ChartData carries OHLCV rows plus aligned indicator columns
type ChartData struct {
	Dates      []string              `json:"dates"`
	OHLCV      []ChartBar            `json:"ohlcv"`
	Indicators map[string][]*float64 `json:"indicators"`
}

// buildChartData trims the enriched series to the last 250 bars and
// converts indicator columns to nullable values.
func buildChartData(enriched *analyzers.EnrichedSeries) *ChartData {
	if enriched == nil || len(enriched.Bars) == 0 {
		return &ChartData{OHLCV: []ChartBar{}, Indicators: map[string][]*float64{}}
	}

	n := len(enriched.Bars)
	start := 0
	if n > chartLookback {
		start = n - chartLookback
	}

	bars := enriched.Bars[start:]
	dates := make([]string, len(bars))
	ohlcv := make([]ChartBar, len(bars))
	for i, b := range bars {
		dates[i] = b.DateString()
		ohlcv[i] = ChartBar{
			Date:   b.DateString(),
			Open:   b.Open,
			Close:  b.Close,
			High:   b.High,
			Low:    b.Low,
			Volume: b.Volume,
		}
	}

	indicators := make(map[string][]*float64)
	add := func(name string, col []float64) {
		if col == nil {
			return
		}
		indicators[name] = chartColumn(col[start:])
	}

	add("ma5", enriched.MA[5])
	add("ma10", enriched.MA[10])
	add("ma20", enriched.MA[20])
	add("ma60", enriched.MA[60])
	add("ma120", enriched.MA[120])
	add("ma250", enriched.MA[250])
	add("macd_dif", enriched.MACDDif)
	add("macd_dea", enriched.MACDDea)
	add("macd_hist", enriched.MACDHist)
	add("rsi", enriched.RSI)
	add("kdj_k", enriched.KDJK)
	add("kdj_d", enriched.KDJD)
	add("kdj_j", enriched.KDJJ)
	add("boll_upper", enriched.BollUpper)
	add("boll_mid", enriched.BollMid)
	add("boll_lower", enriched.BollLower)

	return &ChartData{Dates: dates, OHLCV: ohlcv, Indicators: indicators}
}

func chartColumn(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = domain.Float(formulas.Round4(v))
	}
	return out
}
