package analyzers

import (
	"fmt"
	"math"

	"github.com/yuhaojin/stocklens/internal/domain"
)

// MAPeriods are the moving-average windows computed for every series.
var MAPeriods = []int{5, 10, 20, 60, 120, 250}

// IndicatorCalculator computes standard technical indicators from a
// daily OHLCV series.
type IndicatorCalculator struct{}

// NewIndicatorCalculator creates a new indicator calculator
func NewIndicatorCalculator() *IndicatorCalculator {
	return &IndicatorCalculator{}
}

// Crossover is a moving-average cross event on the most recent bar
type Crossover struct {
	Type string `json:"type"` // golden_cross or death_cross
	Fast string `json:"fast"`
	Slow string `json:"slow"`
	Date string `json:"date"`
}

// MAResult holds current moving-average values and cross events
type MAResult struct {
	Current    map[string]*float64 `json:"current"`
	Crossovers []Crossover         `json:"crossovers"`
}

// MACDResult holds the latest MACD state
type MACDResult struct {
	Dif       *float64 `json:"dif"`
	Dea       *float64 `json:"dea"`
	Histogram *float64 `json:"histogram"`
	Signal    string   `json:"signal"`
}

// RSIResult holds the latest RSI value and zone
type RSIResult struct {
	Value *float64 `json:"value"`
	Zone  string   `json:"zone"` // oversold, overbought, neutral, unknown
}

// KDJResult holds the latest stochastic K/D/J values
type KDJResult struct {
	K      *float64 `json:"k"`
	D      *float64 `json:"d"`
	J      *float64 `json:"j"`
	Signal string   `json:"signal"`
}

// BollingerResult holds the latest Bollinger band values
type BollingerResult struct {
	Upper     *float64 `json:"upper"`
	Middle    *float64 `json:"middle"`
	Lower     *float64 `json:"lower"`
	Bandwidth *float64 `json:"bandwidth"`
	PercentB  *float64 `json:"percent_b"`
}

// EnrichedSeries carries the sorted bars plus full indicator columns,
// aligned by index, for charting.
type EnrichedSeries struct {
	Bars      domain.Series
	MA        map[int][]float64 // period -> values
	MACDDif   []float64
	MACDDea   []float64
	MACDHist  []float64
	RSI       []float64
	KDJK      []float64
	KDJD      []float64
	KDJJ      []float64
	BollUpper []float64
	BollMid   []float64
	BollLower []float64
}

// IndicatorReport is the full output of Compute
type IndicatorReport struct {
	MA        MAResult        `json:"ma"`
	MACD      MACDResult      `json:"macd"`
	RSI       RSIResult       `json:"rsi"`
	KDJ       KDJResult       `json:"kdj"`
	Bollinger BollingerResult `json:"bollinger"`
	Enriched  *EnrichedSeries `json:"-"`
}

// Compute calculates all indicators for the series. An empty series
// yields the documented all-null shape. The caller's series is never
// mutated.
func (c *IndicatorCalculator) Compute(series domain.Series) *IndicatorReport {
	if len(series) == 0 {
		return emptyReport()
	}

	bars := series.Sorted()
	closes := bars.Closes()
	highs := bars.Highs()
	lows := bars.Lows()

	enriched := &EnrichedSeries{Bars: bars, MA: make(map[int][]float64, len(MAPeriods))}

	maResult := computeMA(bars, closes, enriched)
	macdResult := computeMACD(closes, enriched)
	rsiResult := computeRSI(closes, enriched)
	kdjResult := computeKDJ(closes, highs, lows, enriched)
	bollResult := computeBollinger(closes, enriched)

	return &IndicatorReport{
		MA:        maResult,
		MACD:      macdResult,
		RSI:       rsiResult,
		KDJ:       kdjResult,
		Bollinger: bollResult,
		Enriched:  enriched,
	}
}

func computeMA(bars domain.Series, closes []float64, enriched *EnrichedSeries) MAResult {
	current := make(map[string]*float64, len(MAPeriods))
	for _, p := range MAPeriods {
		ma := rollingMean(closes, p)
		enriched.MA[p] = ma
		current[fmt.Sprintf("ma%d", p)] = lastValue(ma)
	}

	var crossovers []Crossover
	pairs := [][2]int{{5, 20}, {20, 60}}
	n := len(bars)
	if n >= 2 {
		for _, pair := range pairs {
			fast := enriched.MA[pair[0]]
			slow := enriched.MA[pair[1]]
			prevFast, prevSlow := fast[n-2], slow[n-2]
			currFast, currSlow := fast[n-1], slow[n-1]
			if anyNaN(prevFast, prevSlow, currFast, currSlow) {
				continue
			}
			var crossType string
			if prevFast <= prevSlow && currFast > currSlow {
				crossType = "golden_cross"
			} else if prevFast >= prevSlow && currFast < currSlow {
				crossType = "death_cross"
			} else {
				continue
			}
			crossovers = append(crossovers, Crossover{
				Type: crossType,
				Fast: fmt.Sprintf("ma%d", pair[0]),
				Slow: fmt.Sprintf("ma%d", pair[1]),
				Date: bars[n-1].DateString(),
			})
		}
	}

	return MAResult{Current: current, Crossovers: crossovers}
}

func computeMACD(closes []float64, enriched *EnrichedSeries) MACDResult {
	ema12 := ema(closes, 12)
	ema26 := ema(closes, 26)
	dif := make([]float64, len(closes))
	for i := range closes {
		dif[i] = ema12[i] - ema26[i]
	}
	dea := ema(dif, 9)
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = 2.0 * (dif[i] - dea[i])
	}

	enriched.MACDDif = dif
	enriched.MACDDea = dea
	enriched.MACDHist = hist

	return MACDResult{
		Dif:       lastValue(dif),
		Dea:       lastValue(dea),
		Histogram: lastValue(hist),
		Signal:    macdSignal(dif, dea),
	}
}

func macdSignal(dif, dea []float64) string {
	n := len(dif)
	if n < 2 {
		return "neutral"
	}
	prevDif, prevDea := dif[n-2], dea[n-2]
	currDif, currDea := dif[n-1], dea[n-1]
	if anyNaN(prevDif, prevDea, currDif, currDea) {
		return "neutral"
	}
	switch {
	case prevDif <= prevDea && currDif > currDea:
		return "bullish_cross"
	case prevDif >= prevDea && currDif < currDea:
		return "bearish_cross"
	case currDif > 0 && currDea > 0:
		return "above_zero"
	case currDif < 0 && currDea < 0:
		return "below_zero"
	default:
		return "neutral"
	}
}

func computeRSI(closes []float64, enriched *EnrichedSeries) RSIResult {
	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := range closes {
		if i == 0 {
			gains[i] = math.NaN()
			losses[i] = math.NaN()
			continue
		}
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
			losses[i] = 0
		} else {
			gains[i] = 0
			losses[i] = -delta
		}
	}

	avgGain := rollingMean(gains, 14)
	avgLoss := rollingMean(losses, 14)

	rsi := make([]float64, n)
	for i := range rsi {
		rs := nanDiv(avgGain[i], avgLoss[i])
		if math.IsNaN(rs) {
			rsi[i] = math.NaN()
		} else {
			rsi[i] = 100.0 - 100.0/(1.0+rs)
		}
	}
	enriched.RSI = rsi

	value := lastValue(rsi)
	zone := "unknown"
	if value != nil {
		switch {
		case *value < 30:
			zone = "oversold"
		case *value > 70:
			zone = "overbought"
		default:
			zone = "neutral"
		}
	}
	return RSIResult{Value: value, Zone: zone}
}

func computeKDJ(closes, highs, lows []float64, enriched *EnrichedSeries) KDJResult {
	n := len(closes)
	lowMin := rollingMin(lows, 9)
	highMax := rollingMax(highs, 9)

	rsv := make([]float64, n)
	for i := range rsv {
		rsv[i] = nanDiv(closes[i]-lowMin[i], highMax[i]-lowMin[i]) * 100.0
	}

	k := ewmCom(rsv, 2)
	d := ewmCom(k, 2)
	j := make([]float64, n)
	for i := range j {
		j[i] = 3.0*k[i] - 2.0*d[i]
	}

	enriched.KDJK = k
	enriched.KDJD = d
	enriched.KDJJ = j

	return KDJResult{
		K:      lastValue(k),
		D:      lastValue(d),
		J:      lastValue(j),
		Signal: kdjSignal(k, d, lastValue(j)),
	}
}

func kdjSignal(k, d []float64, j *float64) string {
	n := len(k)
	if n < 2 {
		return "neutral"
	}
	prevK, prevD := k[n-2], d[n-2]
	currK, currD := k[n-1], d[n-1]
	if anyNaN(prevK, prevD, currK, currD) {
		return "neutral"
	}

	signal := "neutral"
	if prevK <= prevD && currK > currD {
		signal = "golden_cross"
	} else if prevK >= prevD && currK < currD {
		signal = "death_cross"
	}

	if j != nil {
		if *j > 80 {
			signal += "|overbought"
		} else if *j < 20 {
			signal += "|oversold"
		}
	}
	return signal
}

func computeBollinger(closes []float64, enriched *EnrichedSeries) BollingerResult {
	n := len(closes)
	mid := rollingMean(closes, 20)
	std := rollingStd(closes, 20)

	upper := make([]float64, n)
	lower := make([]float64, n)
	pband := make([]float64, n)
	wband := make([]float64, n)
	for i := range closes {
		upper[i] = mid[i] + 2.0*std[i]
		lower[i] = mid[i] - 2.0*std[i]
		bandRange := upper[i] - lower[i]
		pband[i] = nanDiv(closes[i]-lower[i], bandRange)
		wband[i] = nanDiv(bandRange, mid[i])
	}

	enriched.BollUpper = upper
	enriched.BollMid = mid
	enriched.BollLower = lower

	return BollingerResult{
		Upper:     lastValue(upper),
		Middle:    lastValue(mid),
		Lower:     lastValue(lower),
		Bandwidth: lastValue(wband),
		PercentB:  lastValue(pband),
	}
}

func emptyReport() *IndicatorReport {
	return &IndicatorReport{
		MA:        MAResult{Current: map[string]*float64{}, Crossovers: nil},
		MACD:      MACDResult{Signal: "neutral"},
		RSI:       RSIResult{Zone: "unknown"},
		KDJ:       KDJResult{Signal: "neutral"},
		Bollinger: BollingerResult{},
		Enriched:  &EnrichedSeries{MA: map[int][]float64{}},
	}
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
