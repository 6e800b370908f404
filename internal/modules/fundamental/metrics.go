package fundamental

// Metrics holds the computed fundamental ratios for one stock. Every
// field is nullable; a nil value means the underlying data was missing
// or the computation was impossible.
type Metrics struct {
	PE                *float64 `json:"pe"`
	PS                *float64 `json:"ps"`
	PB                *float64 `json:"pb"`
	PEG               *float64 `json:"peg"`
	ROE               *float64 `json:"roe"`
	ROA               *float64 `json:"roa"`
	GrossMargin       *float64 `json:"gross_margin"`
	NetMargin         *float64 `json:"net_margin"`
	OperatingMargin   *float64 `json:"operating_margin"`
	RevenueGrowthYoY  *float64 `json:"revenue_growth_yoy"`
	RevenueGrowthQoQ  *float64 `json:"revenue_growth_qoq"`
	ProfitGrowthYoY   *float64 `json:"profit_growth_yoy"`
	ProfitGrowthQoQ   *float64 `json:"profit_growth_qoq"`
	DebtToEquity      *float64 `json:"debt_to_equity"`
	CurrentRatio      *float64 `json:"current_ratio"`
	FCFYield          *float64 `json:"fcf_yield"`
	MarketCap         *float64 `json:"market_cap"`
	EPS               *float64 `json:"eps"`
	BookValuePerShare *float64 `json:"book_value_per_share"`
	DividendYield     *float64 `json:"dividend_yield"`
}

// MetricNames lists every metric field in a stable order, used for
// peer percentile ranking.
var MetricNames = []string{
	"pe", "ps", "pb", "peg",
	"roe", "roa", "gross_margin", "net_margin", "operating_margin",
	"revenue_growth_yoy", "revenue_growth_qoq",
	"profit_growth_yoy", "profit_growth_qoq",
	"debt_to_equity", "current_ratio", "fcf_yield",
	"market_cap", "eps", "book_value_per_share", "dividend_yield",
}

// Field returns the metric value by its JSON name.
func (m *Metrics) Field(name string) *float64 {
	switch name {
	case "pe":
		return m.PE
	case "ps":
		return m.PS
	case "pb":
		return m.PB
	case "peg":
		return m.PEG
	case "roe":
		return m.ROE
	case "roa":
		return m.ROA
	case "gross_margin":
		return m.GrossMargin
	case "net_margin":
		return m.NetMargin
	case "operating_margin":
		return m.OperatingMargin
	case "revenue_growth_yoy":
		return m.RevenueGrowthYoY
	case "revenue_growth_qoq":
		return m.RevenueGrowthQoQ
	case "profit_growth_yoy":
		return m.ProfitGrowthYoY
	case "profit_growth_qoq":
		return m.ProfitGrowthQoQ
	case "debt_to_equity":
		return m.DebtToEquity
	case "current_ratio":
		return m.CurrentRatio
	case "fcf_yield":
		return m.FCFYield
	case "market_cap":
		return m.MarketCap
	case "eps":
		return m.EPS
	case "book_value_per_share":
		return m.BookValuePerShare
	case "dividend_yield":
		return m.DividendYield
	default:
		return nil
	}
}
