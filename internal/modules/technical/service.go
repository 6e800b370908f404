package technical

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yuhaojin/stocklens/internal/domain"
	"github.com/yuhaojin/stocklens/internal/modules/technical/analyzers"
	"github.com/yuhaojin/stocklens/pkg/formulas"
)

// Component is one scored slice of the technical picture
type Component struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// Score is the composite technical analysis result
type Score struct {
	Total             float64                   `json:"total"`       // 0-100
	TrendScore        float64                   `json:"trend_score"` // 0-30
	MomentumScore     float64                   `json:"momentum_score"`
	VolumeScore       float64                   `json:"volume_score"`
	StructureScore    float64                   `json:"structure_score"`
	PatternScore      float64                   `json:"pattern_score"`
	Breakdown         map[string]Component      `json:"breakdown"`
	Indicators        *analyzers.IndicatorReport `json:"indicators"`
	SupportResistance *analyzers.LevelReport    `json:"support_resistance"`
	InstitutionalFlow *analyzers.FlowReport     `json:"institutional_flow"`
	ChipData          *analyzers.ChipReport     `json:"chip_data"`
	Patterns          []analyzers.Pattern       `json:"patterns"`
	ATR14             *float64                  `json:"atr_14"`
	ChartData         *ChartData                `json:"chart_data"`
}

// Service runs all technical analyzers and produces a composite score.
type Service struct {
	indicators *analyzers.IndicatorCalculator
	volume     *analyzers.VolumeAnalyzer
	flow       *analyzers.FlowAnalyzer
	levels     *analyzers.SupportResistanceAnalyzer
	chips      *analyzers.ChipAnalyzer
	patterns   *analyzers.PatternRecognizer
	log        zerolog.Logger
}

// NewService creates a new technical analysis service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		indicators: analyzers.NewIndicatorCalculator(),
		volume:     analyzers.NewVolumeAnalyzer(),
		flow:       analyzers.NewFlowAnalyzer(),
		levels:     analyzers.NewSupportResistanceAnalyzer(),
		chips:      analyzers.NewChipAnalyzer(),
		patterns:   analyzers.NewPatternRecognizer(),
		log:        log.With().Str("component", "technical").Logger(),
	}
}

// Analyze runs every analyzer against the stock snapshot and scores
// the result across trend, momentum, volume, structure, and patterns.
func (s *Service) Analyze(ctx context.Context, stock *domain.StockData) (*Score, error) {
	currentPrice := stock.CurrentPrice()

	indicatorResult := s.indicators.Compute(stock.Daily)
	volumeResult := s.volume.Analyze(stock.Daily)
	flowResult := s.flow.Analyze(stock.FundFlow)
	srResult := s.levels.Analyze(stock.Daily, currentPrice)
	chipResult := s.chips.Analyze(stock.ChipData, currentPrice)
	patterns := s.patterns.Recognize(stock.Daily)

	trend := scoreTrend(indicatorResult, currentPrice)
	momentum := scoreMomentum(indicatorResult)
	volume := scoreVolume(volumeResult)
	structure := scoreStructure(srResult, chipResult)
	pattern := scorePattern(patterns)

	total := trend.Score + momentum.Score + volume.Score + structure.Score + pattern.Score
	total = math.Max(0, math.Min(100, total))

	bars := indicatorResult.Enriched.Bars
	atr := formulas.ATR(bars.Highs(), bars.Lows(), bars.Closes(), 14)

	s.log.Debug().
		Str("code", stock.Code).
		Float64("total", total).
		Msg("Technical analysis complete")

	return &Score{
		Total:          formulas.Round2(total),
		TrendScore:     formulas.Round2(trend.Score),
		MomentumScore:  formulas.Round2(momentum.Score),
		VolumeScore:    formulas.Round2(volume.Score),
		StructureScore: formulas.Round2(structure.Score),
		PatternScore:   formulas.Round2(pattern.Score),
		Breakdown: map[string]Component{
			"trend":     trend,
			"momentum":  momentum,
			"volume":    volume,
			"structure": structure,
			"pattern":   pattern,
		},
		Indicators:        indicatorResult,
		SupportResistance: srResult,
		InstitutionalFlow: flowResult,
		ChipData:          chipResult,
		Patterns:          patterns,
		ATR14:             atr,
		ChartData:         buildChartData(indicatorResult.Enriched),
	}, nil
}

// scoreTrend scores 0-30 from price position vs moving averages plus
// the MA alignment.
func scoreTrend(ind *analyzers.IndicatorReport, currentPrice *float64) Component {
	score := 0.0
	var reasons []string

	current := ind.MA.Current
	ma20 := current["ma20"]
	ma60 := current["ma60"]

	if ma20 != nil && ma60 != nil && currentPrice != nil {
		price := *currentPrice
		switch {
		case price > *ma20 && price > *ma60:
			score += 20
			reasons = append(reasons, "Price above MA20 and MA60, bullish trend.")
		case price < *ma20 && price < *ma60:
			score += 5
			reasons = append(reasons, "Price below MA20 and MA60, bearish trend.")
		default:
			score += 12
			reasons = append(reasons, "Price between key moving averages, mixed trend.")
		}
	} else {
		score += 10
		reasons = append(reasons, "Insufficient MA data for trend assessment.")
	}

	ma5 := current["ma5"]
	ma10 := current["ma10"]
	if ma5 != nil && ma10 != nil && ma20 != nil && ma60 != nil {
		switch {
		case *ma5 > *ma10 && *ma10 > *ma20 && *ma20 > *ma60:
			score += 10
			reasons = append(reasons, "Perfect bullish MA alignment (MA5>MA10>MA20>MA60).")
		case *ma5 < *ma10 && *ma10 < *ma20 && *ma20 < *ma60:
			reasons = append(reasons, "Bearish MA alignment (MA5<MA10<MA20<MA60).")
		default:
			score += 5
			reasons = append(reasons, "Partial MA alignment, transitional phase.")
		}
	}

	return Component{Score: clamp(score, 0, 30), Reasons: reasons}
}

// scoreMomentum scores 0-20 from RSI, MACD, and KDJ signals.
func scoreMomentum(ind *analyzers.IndicatorReport) Component {
	score := 0.0
	var reasons []string

	if rsi := ind.RSI.Value; rsi != nil {
		v := *rsi
		switch {
		case v >= 40 && v <= 60:
			score += 10
			reasons = append(reasons, fmt.Sprintf("RSI neutral (%.1f), balanced momentum.", v))
		case v > 70:
			score += 5
			reasons = append(reasons, fmt.Sprintf("RSI overbought (%.1f), potential pullback.", v))
		case v < 30:
			score += 8
			reasons = append(reasons, fmt.Sprintf("RSI oversold (%.1f), potential bounce.", v))
		case v > 60 && v <= 70:
			score += 8
			reasons = append(reasons, fmt.Sprintf("RSI moderately high (%.1f), bullish momentum.", v))
		default: // 30-40
			score += 7
			reasons = append(reasons, fmt.Sprintf("RSI moderately low (%.1f), weak momentum.", v))
		}
	} else {
		score += 5
	}

	switch ind.MACD.Signal {
	case "bullish_cross":
		score += 5
		reasons = append(reasons, "MACD bullish cross, momentum turning up.")
	case "bearish_cross":
		score += 2
		reasons = append(reasons, "MACD bearish cross, momentum turning down.")
	case "above_zero":
		score += 4
		reasons = append(reasons, "MACD above zero line, positive momentum.")
	case "below_zero":
		score += 2
		reasons = append(reasons, "MACD below zero line, negative momentum.")
	default:
		score += 3
	}

	kdjSignal := ind.KDJ.Signal
	switch {
	case strings.Contains(kdjSignal, "golden_cross"):
		score += 5
		reasons = append(reasons, "KDJ golden cross, short-term bullish.")
	case strings.Contains(kdjSignal, "death_cross"):
		score++
		reasons = append(reasons, "KDJ death cross, short-term bearish.")
	default:
		score += 3
	}

	return Component{Score: clamp(score, 0, 20), Reasons: reasons}
}

// scoreVolume scores 0-20 starting from a neutral 10 and adjusting for
// divergences, the volume ratio flag, and the volume trend.
func scoreVolume(vol *analyzers.VolumeReport) Component {
	score := 10.0
	var reasons []string

	hasConfirmed := false
	for _, div := range vol.Divergences {
		switch div.Type {
		case "confirmed_uptrend":
			score += 2
			hasConfirmed = true
		case "bearish_divergence", "distribution":
			score -= 2
		case "selling_exhaustion":
			score++
		default:
			continue
		}
		reasons = append(reasons, fmt.Sprintf("%dd: %s", div.Window, div.Description))
	}

	vr := vol.VolumeRatio
	if vr.Flag == "unusual_high" && vr.Ratio != nil {
		if hasConfirmed {
			score += 3
			reasons = append(reasons, fmt.Sprintf("High volume (%.1fx avg) supporting price move.", *vr.Ratio))
		} else {
			score++
			reasons = append(reasons, fmt.Sprintf("Unusual volume (%.1fx avg), needs directional confirmation.", *vr.Ratio))
		}
	} else if vr.Flag == "thin" {
		score--
		reasons = append(reasons, "Thin volume, low conviction.")
	}

	switch vol.VolumeTrend.Trend {
	case "expanding":
		score++
		reasons = append(reasons, "Volume trend expanding (5d > 20d avg).")
	case "contracting":
		score--
		reasons = append(reasons, "Volume trend contracting.")
	}

	return Component{Score: clamp(score, 0, 20), Reasons: reasons}
}

// scoreStructure scores 0-15 from support/resistance proximity and
// chip distribution health.
func scoreStructure(sr *analyzers.LevelReport, chip *analyzers.ChipReport) Component {
	score := 7.0
	var reasons []string

	var supports []analyzers.Level
	for _, lv := range sr.Levels {
		if lv.Role == "support" {
			supports = append(supports, lv)
		}
	}

	if len(supports) > 0 {
		nearest := supports[0]
		for _, lv := range supports[1:] {
			if lv.Level > nearest.Level {
				nearest = lv
			}
		}
		dist := math.Abs(nearest.DistancePct)
		if dist < 3 && nearest.Strength >= 2 {
			score += 3
			reasons = append(reasons, fmt.Sprintf(
				"Price near strong support at %.2f (strength %d).", nearest.Level, nearest.Strength))
		} else if dist < 5 {
			score++
			reasons = append(reasons, fmt.Sprintf(
				"Support level at %.2f (%.1f%% away).", nearest.Level, dist))
		}
	}

	if len(sr.Levels) >= 4 {
		score += 2
		reasons = append(reasons, fmt.Sprintf(
			"Well-defined S/R framework (%d levels identified).", len(sr.Levels)))
	}

	switch chip.Health {
	case "strong":
		score += 3
		reasons = append(reasons, "Chip distribution healthy, strong holder base.")
	case "healthy":
		score += 2
		reasons = append(reasons, "Chip distribution moderately healthy.")
	case "weak":
		score--
		reasons = append(reasons, "Chip distribution weak, potential selling pressure.")
	case "unhealthy":
		score -= 2
		reasons = append(reasons, "Chip distribution unhealthy, high risk.")
	}

	return Component{Score: clamp(score, 0, 15), Reasons: reasons}
}

// scorePattern scores 0-15 from candlestick patterns weighted by
// reliability, with a bonus or penalty when three or more signals
// agree.
func scorePattern(patterns []analyzers.Pattern) Component {
	score := 7.0
	var reasons []string

	if len(patterns) == 0 {
		return Component{Score: score, Reasons: []string{"No significant candlestick patterns detected."}}
	}

	bullish, bearish := 0, 0
	for _, p := range patterns {
		weight := 1.0
		switch p.Reliability {
		case "high":
			weight = 3
		case "medium":
			weight = 2
		}

		switch p.Type {
		case "bullish":
			bullish++
			score += weight
			reasons = append(reasons, fmt.Sprintf("Bullish: %s on %s (%s reliability).", p.Pattern, p.Date, p.Reliability))
		case "bearish":
			bearish++
			score -= weight
			reasons = append(reasons, fmt.Sprintf("Bearish: %s on %s (%s reliability).", p.Pattern, p.Date, p.Reliability))
		}
	}

	if bullish >= 3 {
		score += 2
		reasons = append(reasons, fmt.Sprintf("Multiple bullish confirmations (%d patterns).", bullish))
	}
	if bearish >= 3 {
		score -= 2
		reasons = append(reasons, fmt.Sprintf("Multiple bearish signals (%d patterns).", bearish))
	}

	return Component{Score: clamp(score, 0, 15), Reasons: reasons}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
