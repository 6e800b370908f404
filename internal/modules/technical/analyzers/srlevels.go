package analyzers

import (
	"math"
	"sort"

	"github.com/yuhaojin/stocklens/internal/domain"
	"github.com/yuhaojin/stocklens/pkg/formulas"
)

const (
	fractalWindow   = 5    // bars each side for fractal detection
	clusterPct      = 0.02 // 2% threshold to cluster nearby levels
	fractalLookback = 60   // look at last 60 bars for fractals
)

// SupportResistanceAnalyzer identifies support and resistance levels
// via pivot points, fractals, moving averages, and round numbers.
type SupportResistanceAnalyzer struct{}

// NewSupportResistanceAnalyzer creates a new support/resistance analyzer
func NewSupportResistanceAnalyzer() *SupportResistanceAnalyzer {
	return &SupportResistanceAnalyzer{}
}

// PivotPoints are the classic pivot levels from the last bar
type PivotPoints struct {
	PP *float64 `json:"pp,omitempty"`
	R1 *float64 `json:"r1,omitempty"`
	R2 *float64 `json:"r2,omitempty"`
	S1 *float64 `json:"s1,omitempty"`
	S2 *float64 `json:"s2,omitempty"`
}

// FractalLevel is a clustered fractal high/low
type FractalLevel struct {
	Level   float64  `json:"level"`
	Type    string   `json:"type"` // fractal_high, fractal_low, fractal_both
	Touches int      `json:"touches"`
	Dates   []string `json:"dates"`
}

// NamedLevel is a single price level with its source label
type NamedLevel struct {
	Level float64 `json:"level"`
	Type  string  `json:"type"`
}

// Level is a merged support/resistance level scored by how many
// methods agree on it
type Level struct {
	Level       float64  `json:"level"`
	Role        string   `json:"role"` // support or resistance
	Strength    int      `json:"strength"`
	Sources     []string `json:"sources"`
	DistancePct float64  `json:"distance_pct"`
}

// LevelReport is the full output of Analyze
type LevelReport struct {
	PivotPoints   PivotPoints    `json:"pivot_points"`
	FractalLevels []FractalLevel `json:"fractal_levels"`
	MALevels      []NamedLevel   `json:"ma_levels"`
	RoundLevels   []NamedLevel   `json:"round_levels"`
	Levels        []Level        `json:"levels"`
	CurrentPrice  *float64       `json:"current_price"`
}

// Analyze detects support/resistance levels for the series around the
// current price. Empty input or a nil price yields the empty shape.
func (a *SupportResistanceAnalyzer) Analyze(series domain.Series, currentPrice *float64) *LevelReport {
	if len(series) == 0 || currentPrice == nil {
		return &LevelReport{}
	}
	price := *currentPrice

	bars := series.Sorted()
	pivots := pivotPoints(bars)
	fractals := fractalLevels(bars)
	maLevels := maLevels(bars)
	roundLevels := roundNumberLevels(price)

	return &LevelReport{
		PivotPoints:   pivots,
		FractalLevels: fractals,
		MALevels:      maLevels,
		RoundLevels:   roundLevels,
		Levels:        mergeLevels(pivots, fractals, maLevels, roundLevels, price),
		CurrentPrice:  currentPrice,
	}
}

func pivotPoints(bars domain.Series) PivotPoints {
	last := bars[len(bars)-1]
	h, l, c := last.High, last.Low, last.Close

	pp := (h + l + c) / 3.0
	r1 := formulas.Round4(2.0*pp - l)
	s1 := formulas.Round4(2.0*pp - h)
	r2 := formulas.Round4(pp + (h - l))
	s2 := formulas.Round4(pp - (h - l))
	ppr := formulas.Round4(pp)

	return PivotPoints{PP: &ppr, R1: &r1, R2: &r2, S1: &s1, S2: &s2}
}

func fractalLevels(bars domain.Series) []FractalLevel {
	lookback := len(bars)
	if lookback > fractalLookback {
		lookback = fractalLookback
	}
	window := bars[len(bars)-lookback:]

	type rawFractal struct {
		level float64
		typ   string
		date  string
	}
	var raw []rawFractal

	for i := fractalWindow; i < len(window)-fractalWindow; i++ {
		seg := window[i-fractalWindow : i+fractalWindow+1]
		bar := window[i]

		maxHigh, minLow := seg[0].High, seg[0].Low
		for _, b := range seg[1:] {
			if b.High > maxHigh {
				maxHigh = b.High
			}
			if b.Low < minLow {
				minLow = b.Low
			}
		}

		if bar.High == maxHigh {
			raw = append(raw, rawFractal{formulas.Round4(bar.High), "fractal_high", bar.DateString()})
		}
		if bar.Low == minLow {
			raw = append(raw, rawFractal{formulas.Round4(bar.Low), "fractal_low", bar.DateString()})
		}
	}

	if len(raw) == 0 {
		return nil
	}

	// Cluster against the first level of the current group.
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].level < raw[j].level })
	clusters := [][]rawFractal{{raw[0]}}
	for _, f := range raw[1:] {
		anchor := clusters[len(clusters)-1][0].level
		if math.Abs(f.level-anchor)/anchor <= clusterPct {
			clusters[len(clusters)-1] = append(clusters[len(clusters)-1], f)
		} else {
			clusters = append(clusters, []rawFractal{f})
		}
	}

	result := make([]FractalLevel, 0, len(clusters))
	for _, group := range clusters {
		sum := 0.0
		hasHigh, hasLow := false, false
		dates := make([]string, 0, len(group))
		for _, g := range group {
			sum += g.level
			dates = append(dates, g.date)
			if g.typ == "fractal_high" {
				hasHigh = true
			} else {
				hasLow = true
			}
		}
		levelType := "fractal_low"
		if hasHigh {
			levelType = "fractal_high"
		}
		if hasHigh && hasLow {
			levelType = "fractal_both"
		}
		result = append(result, FractalLevel{
			Level:   formulas.Round4(sum / float64(len(group))),
			Type:    levelType,
			Touches: len(group),
			Dates:   dates,
		})
	}
	return result
}

func maLevels(bars domain.Series) []NamedLevel {
	closes := bars.Closes()
	var levels []NamedLevel
	for _, period := range []int{20, 60, 120, 250} {
		if len(bars) < period {
			continue
		}
		ma := rollingMean(closes, period)
		if v := lastValue(ma); v != nil {
			levels = append(levels, NamedLevel{Level: *v, Type: maName(period)})
		}
	}
	return levels
}

func maName(period int) string {
	switch period {
	case 20:
		return "ma20"
	case 60:
		return "ma60"
	case 120:
		return "ma120"
	default:
		return "ma250"
	}
}

// roundNumberLevels returns the nearest psychologically round prices
// above and below, with step size scaled to the price magnitude.
func roundNumberLevels(price float64) []NamedLevel {
	var step float64
	switch {
	case price < 5:
		step = 1
	case price < 50:
		step = 5
	case price < 200:
		step = 10
	case price < 1000:
		step = 50
	default:
		step = 100
	}

	lower := math.Floor(price/step) * step
	upper := math.Ceil(price/step) * step
	if lower == upper {
		upper += step
	}

	var levels []NamedLevel
	seen := make(map[float64]bool)
	add := func(v float64) {
		if v > 0 && !seen[v] {
			seen[v] = true
			levels = append(levels, NamedLevel{Level: v, Type: "round_number"})
		}
	}
	for offset := 0; offset < 2; offset++ {
		add(lower - float64(offset)*step)
		add(upper + float64(offset)*step)
	}
	return levels
}

func mergeLevels(pivots PivotPoints, fractals []FractalLevel, maLvls, roundLvls []NamedLevel, currentPrice float64) []Level {
	type sourced struct {
		level  float64
		source string
	}
	var raw []sourced

	for _, p := range []struct {
		v    *float64
		name string
	}{
		{pivots.R1, "pivot_r1"}, {pivots.R2, "pivot_r2"},
		{pivots.S1, "pivot_s1"}, {pivots.S2, "pivot_s2"},
		{pivots.PP, "pivot_pp"},
	} {
		if p.v != nil {
			raw = append(raw, sourced{*p.v, p.name})
		}
	}
	for _, f := range fractals {
		raw = append(raw, sourced{f.Level, f.Type})
	}
	for _, m := range maLvls {
		raw = append(raw, sourced{m.Level, m.Type})
	}
	for _, r := range roundLvls {
		raw = append(raw, sourced{r.Level, r.Type})
	}
	if len(raw) == 0 {
		return nil
	}

	// Cluster against the running mean of the current group.
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].level < raw[j].level })
	clusters := [][]sourced{{raw[0]}}
	for _, s := range raw[1:] {
		group := clusters[len(clusters)-1]
		ref := 0.0
		for _, g := range group {
			ref += g.level
		}
		ref /= float64(len(group))
		if math.Abs(s.level-ref)/math.Max(ref, 0.01) <= clusterPct {
			clusters[len(clusters)-1] = append(group, s)
		} else {
			clusters = append(clusters, []sourced{s})
		}
	}

	result := make([]Level, 0, len(clusters))
	for _, group := range clusters {
		sum := 0.0
		var sources []string
		seen := make(map[string]bool)
		for _, g := range group {
			sum += g.level
			if !seen[g.source] {
				seen[g.source] = true
				sources = append(sources, g.source)
			}
		}
		avg := formulas.Round4(sum / float64(len(group)))
		role := "resistance"
		if avg < currentPrice {
			role = "support"
		}
		result = append(result, Level{
			Level:       avg,
			Role:        role,
			Strength:    len(sources),
			Sources:     sources,
			DistancePct: formulas.Round2((avg - currentPrice) / currentPrice * 100),
		})
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].Level < result[j].Level })
	return result
}
