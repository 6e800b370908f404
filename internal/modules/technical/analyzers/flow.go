package analyzers

import (
	"fmt"
	"math"
	"sort"

	"github.com/yuhaojin/stocklens/internal/domain"
	"github.com/yuhaojin/stocklens/pkg/formulas"
)

// FlowAnalyzer aggregates institutional fund-flow data.
type FlowAnalyzer struct{}

// NewFlowAnalyzer creates a new fund-flow analyzer
func NewFlowAnalyzer() *FlowAnalyzer {
	return &FlowAnalyzer{}
}

// FlowWindow summarizes main-force flow direction over a lookback window
type FlowWindow struct {
	Trend         string  `json:"trend"` // accumulating, distributing, neutral
	PositiveDays  int     `json:"positive_days"`
	NegativeDays  int     `json:"negative_days"`
	PositiveRatio float64 `json:"positive_ratio"`
}

// OrderBucket is one order-size tier's aggregate flow
type OrderBucket struct {
	Total      float64 `json:"total"`
	Proportion float64 `json:"proportion"`
	Direction  string  `json:"direction"` // inflow or outflow
}

// FlowReport is the full output of Analyze
type FlowReport struct {
	MainForceFlow  map[string]float64     `json:"main_force_flow"`
	FlowTrend      map[string]FlowWindow  `json:"flow_trend"`
	OrderBreakdown map[string]OrderBucket `json:"order_breakdown"`
	Classification string                 `json:"classification"`
	DaysAnalyzed   int                    `json:"days_analyzed"`
	Available      bool                   `json:"available"`
}

// Analyze aggregates main-force net flow over 5/10/20 day windows and
// classifies the overall direction. Missing data yields an unavailable
// result.
func (a *FlowAnalyzer) Analyze(flow []domain.FundFlowDay) *FlowReport {
	if len(flow) == 0 {
		return flowUnavailable()
	}

	days := make([]domain.FundFlowDay, len(flow))
	copy(days, flow)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	mainNet := make([]float64, len(days))
	for i, d := range days {
		mainNet[i] = d.MainNet
	}

	mainForce := mainForceFlow(mainNet)
	flowTrend := flowTrend(mainNet)
	breakdown := orderBreakdown(days)
	classification := classifyFlow(mainForce, flowTrend)

	return &FlowReport{
		MainForceFlow:  mainForce,
		FlowTrend:      flowTrend,
		OrderBreakdown: breakdown,
		Classification: classification,
		DaysAnalyzed:   len(days),
		Available:      true,
	}
}

func mainForceFlow(mainNet []float64) map[string]float64 {
	result := make(map[string]float64)
	n := len(mainNet)
	for _, window := range []int{5, 10, 20} {
		vals := mainNet
		if n >= window {
			vals = mainNet[n-window:]
		}
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		result[fmt.Sprintf("sum_%dd", window)] = formulas.Round2(sum)
		result[fmt.Sprintf("avg_%dd", window)] = formulas.Round2(sum / float64(len(vals)))
	}
	result["latest"] = formulas.Round2(mainNet[n-1])
	return result
}

func flowTrend(mainNet []float64) map[string]FlowWindow {
	windows := make(map[string]FlowWindow)
	n := len(mainNet)
	for _, window := range []int{5, 10, 20} {
		if n < window {
			continue
		}
		recent := mainNet[n-window:]
		positive, negative := 0, 0
		for _, v := range recent {
			if v > 0 {
				positive++
			} else if v < 0 {
				negative++
			}
		}
		ratio := float64(positive) / float64(window)

		trend := "neutral"
		if ratio >= 0.7 {
			trend = "accumulating"
		} else if ratio <= 0.3 {
			trend = "distributing"
		}

		windows[fmt.Sprintf("%dd", window)] = FlowWindow{
			Trend:         trend,
			PositiveDays:  positive,
			NegativeDays:  negative,
			PositiveRatio: formulas.Round2(ratio),
		}
	}
	return windows
}

// orderBreakdown aggregates the last 20 days by order-size tier, with
// proportions computed over absolute totals.
func orderBreakdown(days []domain.FundFlowDay) map[string]OrderBucket {
	window := len(days)
	if window > 20 {
		window = 20
	}
	recent := days[len(days)-window:]

	totals := make(map[string]float64)
	present := make(map[string]bool)
	for _, d := range recent {
		for label, v := range map[string]*float64{
			"super_large": d.SuperLargeNet,
			"large":       d.LargeNet,
			"medium":      d.MediumNet,
			"small":       d.SmallNet,
		} {
			if v != nil {
				totals[label] += *v
				present[label] = true
			}
		}
	}
	if len(present) == 0 {
		return map[string]OrderBucket{}
	}

	absTotal := 0.0
	for label := range present {
		absTotal += math.Abs(totals[label])
	}
	if absTotal == 0 {
		absTotal = 1.0
	}

	breakdown := make(map[string]OrderBucket, len(present))
	for label := range present {
		direction := "outflow"
		if totals[label] > 0 {
			direction = "inflow"
		}
		breakdown[label] = OrderBucket{
			Total:      formulas.Round2(totals[label]),
			Proportion: formulas.Round2(math.Abs(totals[label]) / absTotal * 100),
			Direction:  direction,
		}
	}
	return breakdown
}

// classifyFlow prefers the 10-day trend, falling back to 5-day, then
// 20-day, then the sign of the 5-day sum.
func classifyFlow(mainForce map[string]float64, trend map[string]FlowWindow) string {
	for _, key := range []string{"10d", "5d", "20d"} {
		if w, ok := trend[key]; ok {
			return w.Trend
		}
	}
	s := mainForce["sum_5d"]
	if s > 0 {
		return "accumulating"
	}
	if s < 0 {
		return "distributing"
	}
	return "neutral"
}

func flowUnavailable() *FlowReport {
	return &FlowReport{
		MainForceFlow:  map[string]float64{},
		FlowTrend:      map[string]FlowWindow{},
		OrderBreakdown: map[string]OrderBucket{},
		Classification: "unavailable",
	}
}
