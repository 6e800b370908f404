package analyzers

import (
	"fmt"
	"math"
	"strings"

	"github.com/yuhaojin/stocklens/internal/domain"
	"github.com/yuhaojin/stocklens/pkg/formulas"
)

// ChipAnalyzer assesses chip distribution data for CN stocks.
type ChipAnalyzer struct{}

// NewChipAnalyzer creates a new chip analyzer
func NewChipAnalyzer() *ChipAnalyzer {
	return &ChipAnalyzer{}
}

// ChipReport is the chip distribution health assessment
type ChipReport struct {
	ProfitRatio    *float64 `json:"profit_ratio"`
	AvgCost        *float64 `json:"avg_cost"`
	Concentration  *float64 `json:"concentration"`
	CurrentPrice   *float64 `json:"current_price"`
	Health         string   `json:"health"` // strong, healthy, neutral, weak, unhealthy, unavailable
	AssessmentText string   `json:"assessment_text"`
	Available      bool     `json:"available"`
}

// Analyze assesses the latest chip distribution snapshot against the
// current price. Missing data yields an unavailable result.
func (a *ChipAnalyzer) Analyze(chipData []domain.ChipDay, currentPrice *float64) *ChipReport {
	if len(chipData) == 0 {
		return chipUnavailable("No chip data available")
	}

	latest := chipData[len(chipData)-1]
	if latest.ProfitRatio == nil && latest.AvgCost == nil {
		return chipUnavailable("Could not parse chip data columns")
	}

	profitRatio := roundChip(latest.ProfitRatio)
	avgCost := roundChip(latest.AvgCost)
	concentration := roundChip(latest.Concentration)

	health, assessment := assessChips(profitRatio, avgCost, concentration, currentPrice)

	return &ChipReport{
		ProfitRatio:    profitRatio,
		AvgCost:        avgCost,
		Concentration:  concentration,
		CurrentPrice:   currentPrice,
		Health:         health,
		AssessmentText: assessment,
		Available:      true,
	}
}

func assessChips(profitRatio, avgCost, concentration, currentPrice *float64) (string, string) {
	var parts []string
	score := 0

	if profitRatio != nil {
		pr := *profitRatio
		switch {
		case pr > 80:
			parts = append(parts, fmt.Sprintf(
				"Profit ratio is high (%.1f%%), indicating most holders are in profit with strong holder confidence.", pr))
			score += 2
		case pr > 50:
			parts = append(parts, fmt.Sprintf(
				"Profit ratio is moderate (%.1f%%). Majority of holders are profitable, but watch for resistance near cost peaks.", pr))
			score++
		case pr > 30:
			parts = append(parts, fmt.Sprintf(
				"Profit ratio is below average (%.1f%%). A significant portion of holders are underwater with potential selling pressure.", pr))
		default:
			parts = append(parts, fmt.Sprintf(
				"Profit ratio is low (%.1f%%). Most holders are underwater with high risk of capitulation selling.", pr))
			score -= 2
		}
	}

	if avgCost != nil && currentPrice != nil {
		spreadPct := 0.0
		if *avgCost != 0 {
			spreadPct = (*currentPrice - *avgCost) / *avgCost * 100
		}
		if *currentPrice > *avgCost {
			parts = append(parts, fmt.Sprintf(
				"Current price (%.2f) is %.1f%% above average cost (%.2f), healthy.", *currentPrice, spreadPct, *avgCost))
			score++
		} else {
			parts = append(parts, fmt.Sprintf(
				"Current price (%.2f) is %.1f%% below average cost (%.2f), underwater.", *currentPrice, math.Abs(spreadPct), *avgCost))
			score--
		}
	}

	if concentration != nil {
		c := *concentration
		switch {
		case c < 10:
			parts = append(parts, fmt.Sprintf(
				"Chip concentration is tight (%.1f%%), chips are highly concentrated, often a bullish signal.", c))
			score++
		case c < 20:
			parts = append(parts, fmt.Sprintf("Chip concentration is moderate (%.1f%%).", c))
		default:
			parts = append(parts, fmt.Sprintf(
				"Chip concentration is dispersed (%.1f%%), chips are spread out, may indicate weak consensus.", c))
			score--
		}
	}

	var health string
	switch {
	case score >= 3:
		health = "strong"
	case score >= 1:
		health = "healthy"
	case score >= 0:
		health = "neutral"
	case score >= -1:
		health = "weak"
	default:
		health = "unhealthy"
	}

	assessment := "Insufficient chip data for assessment."
	if len(parts) > 0 {
		assessment = strings.Join(parts, " ")
	}
	return health, assessment
}

func roundChip(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	r := formulas.Round4(*v)
	return &r
}

func chipUnavailable(reason string) *ChipReport {
	if reason == "" {
		reason = "Chip data unavailable."
	}
	return &ChipReport{Health: "unavailable", AssessmentText: reason}
}
