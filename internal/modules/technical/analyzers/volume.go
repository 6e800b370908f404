package analyzers

import (
	"fmt"
	"math"

	"github.com/yuhaojin/stocklens/internal/domain"
	"github.com/yuhaojin/stocklens/pkg/formulas"
)

// VolumeAnalyzer examines volume dynamics relative to price action.
type VolumeAnalyzer struct{}

// NewVolumeAnalyzer creates a new volume analyzer
func NewVolumeAnalyzer() *VolumeAnalyzer {
	return &VolumeAnalyzer{}
}

// VolumeRatio compares today's volume against the recent average
type VolumeRatio struct {
	Ratio *float64 `json:"ratio"`
	Flag  string   `json:"flag"` // unusual_high, thin, normal, insufficient_data, no_volume, no_data
}

// Divergence is a volume/price relationship over a lookback window
type Divergence struct {
	Window      int    `json:"window"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// UnusualDay is a day whose volume ran well above its 20-day average
type UnusualDay struct {
	Date           string  `json:"date"`
	VolumeRatio    float64 `json:"volume_ratio"`
	PriceChangePct float64 `json:"price_change_pct"`
}

// VolumeTrend compares the 5-day and 20-day average volume
type VolumeTrend struct {
	Trend     string   `json:"trend"` // expanding, contracting, stable, insufficient_data, no_volume, no_data
	Ratio520  *float64 `json:"ratio_5_20"`
	OBVSignal string   `json:"obv_signal,omitempty"` // rising, falling, flat
}

// VolumeReport is the full output of Analyze
type VolumeReport struct {
	VolumeRatio VolumeRatio  `json:"volume_ratio"`
	Divergences []Divergence `json:"divergences"`
	UnusualDays []UnusualDay `json:"unusual_days"`
	VolumeTrend VolumeTrend  `json:"volume_trend"`
}

// Analyze computes volume metrics for the series. Empty input yields
// the documented no-data shape.
func (a *VolumeAnalyzer) Analyze(series domain.Series) *VolumeReport {
	if len(series) == 0 {
		return &VolumeReport{
			VolumeRatio: VolumeRatio{Flag: "no_data"},
			VolumeTrend: VolumeTrend{Trend: "no_data"},
		}
	}

	bars := series.Sorted()
	closes := bars.Closes()
	volumes := bars.Volumes()

	return &VolumeReport{
		VolumeRatio: volumeRatio(volumes),
		Divergences: volumeDivergences(bars, closes, volumes),
		UnusualDays: unusualVolumeDays(bars, closes, volumes),
		VolumeTrend: volumeTrend(closes, volumes),
	}
}

// volumeRatio compares the latest volume against the average of the
// previous five days.
func volumeRatio(volumes []float64) VolumeRatio {
	n := len(volumes)
	if n < 2 {
		return VolumeRatio{Flag: "insufficient_data"}
	}

	start := n - 6
	if start < 0 {
		start = 0
	}
	avg := formulas.Mean(volumes[start : n-1])
	if avg == 0 || math.IsNaN(avg) {
		return VolumeRatio{Flag: "no_volume"}
	}

	ratio := formulas.Round4(volumes[n-1] / avg)
	flag := "normal"
	if ratio > 2.0 {
		flag = "unusual_high"
	} else if ratio < 0.5 {
		flag = "thin"
	}
	return VolumeRatio{Ratio: &ratio, Flag: flag}
}

func volumeDivergences(bars domain.Series, closes, volumes []float64) []Divergence {
	var divergences []Divergence
	n := len(bars)
	for _, window := range []int{5, 10, 20} {
		if n < window+1 {
			continue
		}
		recentCloses := closes[n-window:]
		recentVolumes := volumes[n-window:]
		priceChange := recentCloses[len(recentCloses)-1] - recentCloses[0]
		volSlope := formulas.LinearSlope(recentVolumes)

		var divType, desc string
		switch {
		case priceChange > 0 && volSlope < 0:
			divType = "bearish_divergence"
			desc = fmt.Sprintf("Price rising but volume declining over %d days", window)
		case priceChange < 0 && volSlope < 0:
			divType = "selling_exhaustion"
			desc = fmt.Sprintf("Price falling with declining volume over %d days, possible exhaustion", window)
		case priceChange > 0 && volSlope > 0:
			divType = "confirmed_uptrend"
			desc = fmt.Sprintf("Price and volume both rising over %d days, healthy", window)
		case priceChange < 0 && volSlope > 0:
			divType = "distribution"
			desc = fmt.Sprintf("Price falling with rising volume over %d days, distribution", window)
		default:
			continue
		}
		divergences = append(divergences, Divergence{Window: window, Type: divType, Description: desc})
	}
	return divergences
}

// unusualVolumeDays scans the last 60 trading days for days whose
// volume exceeded twice the 20-day average.
func unusualVolumeDays(bars domain.Series, closes, volumes []float64) []UnusualDay {
	n := len(bars)
	lookback := n
	if lookback > 60 {
		lookback = 60
	}
	winBars := bars[n-lookback:]
	winCloses := closes[n-lookback:]
	winVolumes := volumes[n-lookback:]
	volMA20 := rollingMean(winVolumes, 20)

	var unusual []UnusualDay
	for i := range winBars {
		if math.IsNaN(volMA20[i]) || volMA20[i] == 0 {
			continue
		}
		ratio := winVolumes[i] / volMA20[i]
		if ratio <= 2.0 {
			continue
		}
		priceChg := 0.0
		if i > 0 && winCloses[i-1] != 0 {
			priceChg = formulas.Round2((winCloses[i] - winCloses[i-1]) / winCloses[i-1] * 100)
		}
		unusual = append(unusual, UnusualDay{
			Date:           winBars[i].DateString(),
			VolumeRatio:    formulas.Round2(ratio),
			PriceChangePct: priceChg,
		})
	}
	return unusual
}

func volumeTrend(closes, volumes []float64) VolumeTrend {
	n := len(volumes)
	if n < 20 {
		return VolumeTrend{Trend: "insufficient_data"}
	}

	avg5 := formulas.Mean(volumes[n-5:])
	avg20 := formulas.Mean(volumes[n-20:])
	if avg20 == 0 || math.IsNaN(avg20) {
		return VolumeTrend{Trend: "no_volume"}
	}

	ratio := formulas.Round4(avg5 / avg20)
	trend := "stable"
	if ratio > 1.3 {
		trend = "expanding"
	} else if ratio < 0.7 {
		trend = "contracting"
	}

	return VolumeTrend{Trend: trend, Ratio520: &ratio, OBVSignal: obvSignal(closes, volumes)}
}

// obvSignal classifies the direction of On-Balance Volume over the
// last 20 bars.
func obvSignal(closes, volumes []float64) string {
	obv := formulas.OBV(closes, volumes)
	if len(obv) < 20 {
		return ""
	}
	recent := obv[len(obv)-20:]
	slope := formulas.LinearSlope(recent)
	scale := math.Abs(formulas.Mean(volumes[len(volumes)-20:]))
	if scale == 0 {
		return "flat"
	}
	switch {
	case slope > 0.01*scale:
		return "rising"
	case slope < -0.01*scale:
		return "falling"
	default:
		return "flat"
	}
}
