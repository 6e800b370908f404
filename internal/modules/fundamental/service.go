package fundamental

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/yuhaojin/stocklens/internal/domain"
	"github.com/yuhaojin/stocklens/pkg/formulas"
)

// Score is the composite fundamental analysis result
type Score struct {
	Total              float64                      `json:"total"`           // 0-100
	ValuationScore     float64                      `json:"valuation_score"` // 0-25
	ProfitabilityScore float64                      `json:"profitability_score"`
	GrowthScore        float64                      `json:"growth_score"`
	HealthScore        float64                      `json:"health_score"`
	Breakdown          map[string]map[string]string `json:"breakdown"`
	Metrics            *Metrics                     `json:"metrics"`
	PeerComparison     map[string]*float64          `json:"peer_comparison"`
	CompanyProfile     map[string]any               `json:"company_profile"`
}

// Service computes metrics, applies the scoring rules, and returns a
// fundamental Score.
type Service struct {
	calculator *Calculator
	log        zerolog.Logger
}

// NewService creates a new fundamental analysis service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		calculator: NewCalculator(),
		log:        log.With().Str("component", "fundamental").Logger(),
	}
}

// Analyze scores the stock across valuation, profitability, growth,
// and financial health, each capped at 25 points.
func (s *Service) Analyze(ctx context.Context, stock *domain.StockData) (*Score, error) {
	metrics := s.calculator.Compute(stock)

	var peerComparison map[string]*float64
	if len(stock.Peers) > 0 {
		peerMetrics := make([]*Metrics, 0, len(stock.Peers))
		for _, peer := range stock.Peers {
			if peer == nil {
				continue
			}
			peerMetrics = append(peerMetrics, s.calculator.Compute(peer))
		}
		if len(peerMetrics) > 0 {
			peerComparison = PeerComparison(metrics, peerMetrics)
		}
	}

	valuation, valuationDetails := scoreValuation(metrics)
	profitability, profitabilityDetails := scoreProfitability(metrics)
	growth, growthDetails := scoreGrowth(metrics)
	health, healthDetails := scoreHealth(metrics)

	total := valuation + profitability + growth + health

	s.log.Debug().
		Str("code", stock.Code).
		Float64("total", total).
		Msg("Fundamental analysis complete")

	return &Score{
		Total:              formulas.Round2(total),
		ValuationScore:     formulas.Round2(valuation),
		ProfitabilityScore: formulas.Round2(profitability),
		GrowthScore:        formulas.Round2(growth),
		HealthScore:        formulas.Round2(health),
		Breakdown: map[string]map[string]string{
			"valuation":     valuationDetails,
			"profitability": profitabilityDetails,
			"growth":        growthDetails,
			"health":        healthDetails,
		},
		Metrics:        metrics,
		PeerComparison: peerComparison,
		CompanyProfile: buildCompanyProfile(stock),
	}, nil
}

// scoreValuation scores 0-25: PE ladder as the base, PEG/PB/PS as
// bonuses.
func scoreValuation(m *Metrics) (float64, map[string]string) {
	score := 0.0
	details := make(map[string]string)

	switch {
	case m.PE != nil && *m.PE > 0:
		pe := *m.PE
		switch {
		case pe < 15:
			score += 20
			details["pe"] = fmt.Sprintf("PE=%.1f (<15): excellent value", pe)
		case pe <= 25:
			score += 15
			details["pe"] = fmt.Sprintf("PE=%.1f (15-25): fair value", pe)
		case pe <= 40:
			score += 10
			details["pe"] = fmt.Sprintf("PE=%.1f (25-40): moderately expensive", pe)
		default:
			score += 5
			details["pe"] = fmt.Sprintf("PE=%.1f (>40): expensive", pe)
		}
	case m.PE != nil && *m.PE < 0:
		score += 3
		details["pe"] = fmt.Sprintf("PE=%.1f (negative): company is unprofitable", *m.PE)
	default:
		details["pe"] = "PE data unavailable"
	}

	if m.PEG != nil && *m.PEG > 0 {
		peg := *m.PEG
		switch {
		case peg < 1.0:
			score += 5
			details["peg"] = fmt.Sprintf("PEG=%.2f (<1): growth at reasonable price", peg)
		case peg < 1.5:
			score += 3
			details["peg"] = fmt.Sprintf("PEG=%.2f (1-1.5): moderate growth valuation", peg)
		case peg < 2.0:
			score++
			details["peg"] = fmt.Sprintf("PEG=%.2f (1.5-2): somewhat pricey for growth", peg)
		default:
			details["peg"] = fmt.Sprintf("PEG=%.2f (>2): expensive relative to growth", peg)
		}
	} else {
		details["peg"] = "PEG data unavailable"
	}

	if m.PB != nil && *m.PB > 0 {
		pb := *m.PB
		switch {
		case pb < 1.0:
			score += 3
			details["pb"] = fmt.Sprintf("PB=%.2f (<1): trading below book value", pb)
		case pb < 2.0:
			score += 1.5
			details["pb"] = fmt.Sprintf("PB=%.2f (1-2): reasonable book valuation", pb)
		default:
			details["pb"] = fmt.Sprintf("PB=%.2f (>2): premium to book value", pb)
		}
	} else {
		details["pb"] = "PB data unavailable"
	}

	if m.PS != nil && *m.PS > 0 {
		ps := *m.PS
		switch {
		case ps < 1.0:
			score += 2
			details["ps"] = fmt.Sprintf("PS=%.2f (<1): very attractive price-to-sales", ps)
		case ps < 3.0:
			score++
			details["ps"] = fmt.Sprintf("PS=%.2f (1-3): reasonable price-to-sales", ps)
		default:
			details["ps"] = fmt.Sprintf("PS=%.2f (>3): high price-to-sales", ps)
		}
	} else {
		details["ps"] = "PS data unavailable"
	}

	return math.Min(score, 25), details
}

// scoreProfitability scores 0-25: ROE as the base, net margin, gross
// margin, and ROA as bonuses.
func scoreProfitability(m *Metrics) (float64, map[string]string) {
	score := 0.0
	details := make(map[string]string)

	if m.ROE != nil {
		roe := asPercent(*m.ROE)
		switch {
		case roe > 20:
			score += 20
			details["roe"] = fmt.Sprintf("ROE=%.1f%% (>20%%): excellent return on equity", roe)
		case roe > 15:
			score += 15
			details["roe"] = fmt.Sprintf("ROE=%.1f%% (15-20%%): strong return on equity", roe)
		case roe > 10:
			score += 10
			details["roe"] = fmt.Sprintf("ROE=%.1f%% (10-15%%): adequate return on equity", roe)
		case roe > 0:
			score += 5
			details["roe"] = fmt.Sprintf("ROE=%.1f%% (<10%%): low return on equity", roe)
		default:
			score += 2
			details["roe"] = fmt.Sprintf("ROE=%.1f%% (negative): destroying shareholder value", roe)
		}
	} else {
		details["roe"] = "ROE data unavailable"
	}

	if m.NetMargin != nil {
		nm := asPercent(*m.NetMargin)
		switch {
		case nm > 15:
			score += 5
			details["net_margin"] = fmt.Sprintf("Net margin=%.1f%% (>15%%): high profitability", nm)
		case nm > 10:
			score += 3
			details["net_margin"] = fmt.Sprintf("Net margin=%.1f%% (10-15%%): good profitability", nm)
		case nm > 5:
			score += 1.5
			details["net_margin"] = fmt.Sprintf("Net margin=%.1f%% (5-10%%): moderate profitability", nm)
		case nm > 0:
			score += 0.5
			details["net_margin"] = fmt.Sprintf("Net margin=%.1f%% (0-5%%): thin margins", nm)
		default:
			details["net_margin"] = fmt.Sprintf("Net margin=%.1f%% (negative): unprofitable", nm)
		}
	} else {
		details["net_margin"] = "Net margin data unavailable"
	}

	if m.GrossMargin != nil {
		gm := asPercent(*m.GrossMargin)
		switch {
		case gm > 50:
			score += 3
			details["gross_margin"] = fmt.Sprintf("Gross margin=%.1f%% (>50%%): strong pricing power", gm)
		case gm > 30:
			score += 2
			details["gross_margin"] = fmt.Sprintf("Gross margin=%.1f%% (30-50%%): decent margins", gm)
		case gm > 15:
			score++
			details["gross_margin"] = fmt.Sprintf("Gross margin=%.1f%% (15-30%%): competitive industry", gm)
		default:
			details["gross_margin"] = fmt.Sprintf("Gross margin=%.1f%% (<15%%): low margin business", gm)
		}
	} else {
		details["gross_margin"] = "Gross margin data unavailable"
	}

	if m.ROA != nil {
		roa := asPercent(*m.ROA)
		switch {
		case roa > 10:
			score += 2
			details["roa"] = fmt.Sprintf("ROA=%.1f%% (>10%%): efficient asset utilization", roa)
		case roa > 5:
			score++
			details["roa"] = fmt.Sprintf("ROA=%.1f%% (5-10%%): adequate asset efficiency", roa)
		default:
			details["roa"] = fmt.Sprintf("ROA=%.1f%%: low asset efficiency", roa)
		}
	} else {
		details["roa"] = "ROA data unavailable"
	}

	return math.Min(score, 25), details
}

// scoreGrowth scores 0-25: revenue growth as the base, profit growth
// and QoQ acceleration as bonuses.
func scoreGrowth(m *Metrics) (float64, map[string]string) {
	score := 0.0
	details := make(map[string]string)

	if m.RevenueGrowthYoY != nil {
		rg := asPercent(*m.RevenueGrowthYoY)
		switch {
		case rg > 20:
			score += 20
			details["revenue_growth"] = fmt.Sprintf("Revenue growth=%.1f%% (>20%%): high growth", rg)
		case rg > 10:
			score += 15
			details["revenue_growth"] = fmt.Sprintf("Revenue growth=%.1f%% (10-20%%): solid growth", rg)
		case rg > 0:
			score += 10
			details["revenue_growth"] = fmt.Sprintf("Revenue growth=%.1f%% (0-10%%): modest growth", rg)
		default:
			score += 5
			details["revenue_growth"] = fmt.Sprintf("Revenue growth=%.1f%% (<0%%): declining revenue", rg)
		}
	} else {
		details["revenue_growth"] = "Revenue growth data unavailable"
	}

	if m.ProfitGrowthYoY != nil {
		pg := asPercent(*m.ProfitGrowthYoY)
		switch {
		case pg > 20:
			score += 5
			details["profit_growth"] = fmt.Sprintf("Profit growth=%.1f%% (>20%%): strong earnings momentum", pg)
		case pg > 10:
			score += 3
			details["profit_growth"] = fmt.Sprintf("Profit growth=%.1f%% (10-20%%): healthy earnings growth", pg)
		case pg > 0:
			score += 1.5
			details["profit_growth"] = fmt.Sprintf("Profit growth=%.1f%% (0-10%%): modest earnings growth", pg)
		default:
			details["profit_growth"] = fmt.Sprintf("Profit growth=%.1f%% (<0%%): declining earnings", pg)
		}
	} else {
		details["profit_growth"] = "Profit growth data unavailable"
	}

	switch {
	case m.RevenueGrowthQoQ != nil && m.RevenueGrowthYoY != nil &&
		*m.RevenueGrowthQoQ > *m.RevenueGrowthYoY && *m.RevenueGrowthQoQ > 0:
		score += 3
		details["acceleration"] = fmt.Sprintf("Revenue accelerating: QoQ=%.1f%% > YoY=%.1f%%",
			*m.RevenueGrowthQoQ*100, *m.RevenueGrowthYoY*100)
	case m.RevenueGrowthQoQ != nil && *m.RevenueGrowthQoQ > 0:
		score++
		details["acceleration"] = fmt.Sprintf("QoQ revenue growth=%.1f%%: positive momentum",
			*m.RevenueGrowthQoQ*100)
	default:
		details["acceleration"] = "Acceleration data unavailable or negative"
	}

	return math.Min(score, 25), details
}

// scoreHealth scores 0-25: debt-to-equity as the base, FCF, current
// ratio, and dividend yield as bonuses.
func scoreHealth(m *Metrics) (float64, map[string]string) {
	score := 0.0
	details := make(map[string]string)

	if m.DebtToEquity != nil {
		de := *m.DebtToEquity
		switch {
		case de < 0.3:
			score += 20
			details["debt_to_equity"] = fmt.Sprintf("D/E=%.2f (<0.3): very low leverage", de)
		case de < 0.5:
			score += 15
			details["debt_to_equity"] = fmt.Sprintf("D/E=%.2f (0.3-0.5): conservative leverage", de)
		case de < 1.0:
			score += 10
			details["debt_to_equity"] = fmt.Sprintf("D/E=%.2f (0.5-1.0): moderate leverage", de)
		default:
			score += 5
			details["debt_to_equity"] = fmt.Sprintf("D/E=%.2f (>1.0): high leverage", de)
		}
	} else {
		details["debt_to_equity"] = "Debt-to-equity data unavailable"
	}

	if m.FCFYield != nil {
		if *m.FCFYield > 0 {
			score += 3
			details["fcf"] = fmt.Sprintf("FCF yield=%.1f%%: positive free cash flow", *m.FCFYield*100)
		} else {
			details["fcf"] = fmt.Sprintf("FCF yield=%.1f%%: negative free cash flow", *m.FCFYield*100)
		}
	} else {
		details["fcf"] = "FCF data unavailable"
	}

	if m.CurrentRatio != nil {
		cr := *m.CurrentRatio
		switch {
		case cr > 2.0:
			score += 3
			details["current_ratio"] = fmt.Sprintf("Current ratio=%.2f (>2): strong short-term liquidity", cr)
		case cr >= 1.5:
			score += 2
			details["current_ratio"] = fmt.Sprintf("Current ratio=%.2f (1.5-2): adequate liquidity", cr)
		case cr >= 1.0:
			score++
			details["current_ratio"] = fmt.Sprintf("Current ratio=%.2f (1-1.5): tight liquidity", cr)
		default:
			details["current_ratio"] = fmt.Sprintf("Current ratio=%.2f (<1): liquidity risk", cr)
		}
	} else {
		details["current_ratio"] = "Current ratio data unavailable"
	}

	if m.DividendYield != nil && *m.DividendYield > 0 {
		dy := *m.DividendYield
		if dy < 1 {
			dy *= 100
		}
		switch {
		case dy > 3:
			score += 2
			details["dividend"] = fmt.Sprintf("Dividend yield=%.1f%%: attractive income", dy)
		case dy > 1:
			score++
			details["dividend"] = fmt.Sprintf("Dividend yield=%.1f%%: modest income", dy)
		default:
			details["dividend"] = fmt.Sprintf("Dividend yield=%.1f%%: minimal income", dy)
		}
	} else {
		details["dividend"] = "No dividend or data unavailable"
	}

	return math.Min(score, 25), details
}

// asPercent normalizes a ratio to percentage form. Values already in
// percent (abs >= 5) are passed through.
func asPercent(v float64) float64 {
	if math.Abs(v) < 5 {
		return v * 100
	}
	return v
}

// Profile keys mapped from the market-specific quote fields.
var profileKeys = []struct {
	Target  string
	Sources []string
}{
	{"name", []string{"shortName", "longName", "name", "股票简称"}},
	{"symbol", []string{"symbol", "ticker", "股票代码"}},
	{"sector", []string{"sector", "行业"}},
	{"industry", []string{"industry", "所属行业"}},
	{"exchange", []string{"exchange", "exchangeName", "市场"}},
	{"currency", []string{"currency", "financialCurrency"}},
	{"country", []string{"country", "国家"}},
	{"website", []string{"website"}},
	{"description", []string{"longBusinessSummary", "description", "公司简介"}},
	{"employees", []string{"fullTimeEmployees", "员工人数"}},
	{"market_cap", []string{"marketCap", "market_cap", "总市值"}},
	{"52_week_high", []string{"fiftyTwoWeekHigh", "52周最高"}},
	{"52_week_low", []string{"fiftyTwoWeekLow", "52周最低"}},
}

func buildCompanyProfile(stock *domain.StockData) map[string]any {
	profile := make(map[string]any)
	quote := stock.Quote
	for _, mapping := range profileKeys {
		if quote == nil {
			break
		}
		if v := quote.Value(mapping.Sources...); v != nil {
			profile[mapping.Target] = v
		}
	}
	profile["market"] = stock.Market
	return profile
}
