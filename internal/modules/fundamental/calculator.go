package fundamental

import (
	"math"

	"github.com/yuhaojin/stocklens/internal/domain"
)

// Line-item candidates for CN statements (AkShare headers).
var (
	cnRevenue            = []string{"营业总收入", "营业收入"}
	cnNetIncome          = []string{"净利润", "归属于母公司所有者的净利润"}
	cnOperatingIncome    = []string{"营业利润"}
	cnCostOfRevenue      = []string{"营业总成本", "营业成本"}
	cnTotalAssets        = []string{"总资产", "资产总计"}
	cnTotalLiabilities   = []string{"总负债", "负债合计"}
	cnEquity             = []string{"股东权益合计", "归属于母公司所有者权益合计", "所有者权益合计"}
	cnCurrentAssets      = []string{"流动资产合计"}
	cnCurrentLiabilities = []string{"流动负债合计"}
	cnOperatingCashflow  = []string{"经营活动产生的现金流量净额"}
	cnCapex              = []string{
		"购建固定资产、无形资产和其他长期资产支付的现金",
		"购建固定资产无形资产和其他长期资产支付的现金",
		"资本性支出",
	}
)

// Line-item candidates for US statements (YFinance row labels).
var (
	usRevenue         = []string{"Total Revenue", "TotalRevenue", "totalRevenue"}
	usNetIncome       = []string{"Net Income", "NetIncome", "netIncome", "Net Income From Continuing Operations"}
	usGrossProfit     = []string{"Gross Profit", "GrossProfit", "grossProfit"}
	usOperatingIncome = []string{"Operating Income", "OperatingIncome", "operatingIncome", "Ebit", "EBIT"}
	usTotalAssets     = []string{"Total Assets", "TotalAssets", "totalAssets"}
	usTotalDebt       = []string{"Total Debt", "TotalDebt", "totalDebt", "Long Term Debt", "LongTermDebt"}
	usEquity          = []string{
		"Total Stockholder Equity",
		"Stockholders Equity",
		"StockholdersEquity",
		"stockholdersEquity",
		"Total Stockholders Equity",
		"Ordinary Shares Number",
	}
	usCurrentAssets      = []string{"Total Current Assets", "TotalCurrentAssets", "totalCurrentAssets"}
	usCurrentLiabilities = []string{"Total Current Liabilities", "TotalCurrentLiabilities", "totalCurrentLiabilities"}
	usOperatingCashflow  = []string{
		"Operating Cash Flow",
		"Total Cash From Operating Activities",
		"OperatingCashFlow",
		"operatingCashflow",
	}
	usCapex = []string{
		"Capital Expenditures",
		"Capital Expenditure",
		"CapitalExpenditures",
		"capitalExpenditures",
	}
)

// Calculator computes fundamental metrics from financial statements.
// CN statements arrive column-oriented with Chinese headers, US
// statements row-oriented with English labels; the ratio-abstract CN
// variant carries pre-computed percentage ratios.
type Calculator struct{}

// NewCalculator creates a new fundamental calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute derives the full metric set from the stock's statements and
// quote snapshot, branching on the market tag.
func (c *Calculator) Compute(stock *domain.StockData) *Metrics {
	quote := stock.Quote
	if quote == nil {
		quote = domain.Quote{}
	}
	if stock.Market == "CN" {
		if stock.Income != nil && stock.Income.IsAbstract() {
			return c.computeAbstract(stock.Income.Abstract, quote)
		}
		return c.computeCN(stock, quote)
	}
	return c.computeUS(stock, quote)
}

func (c *Calculator) computeCN(stock *domain.StockData, qi domain.Quote) *Metrics {
	m := &Metrics{}

	income := incomeTable(stock)
	balance := stock.Balance
	cashflow := stock.CashFlow

	revenue := income.Value(cnRevenue...)
	netIncome := income.Value(cnNetIncome...)
	operatingIncome := income.Value(cnOperatingIncome...)
	costOfRevenue := income.Value(cnCostOfRevenue...)

	totalAssets := balance.Value(cnTotalAssets...)
	totalLiabilities := balance.Value(cnTotalLiabilities...)
	equity := balance.Value(cnEquity...)
	currentAssets := balance.Value(cnCurrentAssets...)
	currentLiabilities := balance.Value(cnCurrentLiabilities...)

	operatingCF := cashflow.Value(cnOperatingCashflow...)
	capex := cashflow.Value(cnCapex...)

	// Valuation from the quote snapshot
	m.PE = qi.Float("pe", "pe_ttm")
	m.PB = qi.Float("pb")
	m.MarketCap = qi.Float("market_cap", "total_mv")
	m.DividendYield = qi.Float("dividend_yield")

	price := qi.Float("price", "current_price")
	shares := qi.Float("shares_outstanding", "total_shares")

	if positive(m.MarketCap) && positive(revenue) {
		m.PS = safeDivide(m.MarketCap, revenue)
	} else if positive(price) && positive(shares) && positive(revenue) {
		m.PS = domain.Float(*price * *shares / *revenue)
	}

	if netIncome != nil && positive(shares) {
		m.EPS = safeDivide(netIncome, shares)
	} else {
		m.EPS = qi.Float("eps")
	}

	if equity != nil && positive(shares) {
		m.BookValuePerShare = safeDivide(equity, shares)
	}

	if m.PE == nil && positive(price) && positive(m.EPS) {
		m.PE = safeDivide(price, m.EPS)
	}
	if m.PB == nil && positive(price) && positive(m.BookValuePerShare) {
		m.PB = safeDivide(price, m.BookValuePerShare)
	}

	// Profitability
	m.ROE = safeDivide(netIncome, equity)
	m.ROA = safeDivide(netIncome, totalAssets)

	if positive(revenue) {
		if costOfRevenue != nil {
			m.GrossMargin = domain.Float((*revenue - *costOfRevenue) / *revenue)
		}
		m.NetMargin = safeDivide(netIncome, revenue)
		m.OperatingMargin = safeDivide(operatingIncome, revenue)
	}

	// Growth across report periods, most-recent-first. Quarterly data,
	// so 4 periods back is year over year.
	revenueSeries := income.Series(cnRevenue...)
	profitSeries := income.Series(cnNetIncome...)

	m.RevenueGrowthYoY = computeGrowth(revenueSeries, 4)
	m.RevenueGrowthQoQ = computeGrowth(revenueSeries, 1)
	m.ProfitGrowthYoY = computeGrowth(profitSeries, 4)
	m.ProfitGrowthQoQ = computeGrowth(profitSeries, 1)

	if m.RevenueGrowthYoY == nil {
		m.RevenueGrowthYoY = computeGrowth(revenueSeries, 1)
	}
	if m.ProfitGrowthYoY == nil {
		m.ProfitGrowthYoY = computeGrowth(profitSeries, 1)
	}

	m.PEG = pegRatio(m.PE, m.ProfitGrowthYoY)

	// Financial health
	if totalLiabilities != nil && positive(equity) {
		m.DebtToEquity = safeDivide(totalLiabilities, equity)
	}
	m.CurrentRatio = safeDivide(currentAssets, currentLiabilities)

	m.FCFYield = fcfYield(operatingCF, capex, m.MarketCap)

	return m
}

// computeAbstract handles the pre-aggregated ratio layout where the
// percentages are already computed upstream.
func (c *Calculator) computeAbstract(abstract *domain.RatioAbstract, qi domain.Quote) *Metrics {
	m := &Metrics{}
	rows := abstract.Sorted().Rows
	if len(rows) == 0 {
		return m
	}
	latest := rows[0]

	m.PE = qi.Float("pe", "pe_ttm")
	m.PB = qi.Float("pb")
	m.MarketCap = qi.Float("market_cap", "total_mv", "总市值")
	m.DividendYield = qi.Float("dividend_yield")

	m.EPS = latest.Number("基本每股收益")
	m.BookValuePerShare = latest.Number("每股净资产")

	price := qi.Float("price", "最新")
	if m.PE == nil && positive(price) && positive(m.EPS) {
		m.PE = safeDivide(price, m.EPS)
	}
	if m.PB == nil && positive(price) && positive(m.BookValuePerShare) {
		m.PB = safeDivide(price, m.BookValuePerShare)
	}

	// Profitability ratios arrive already expressed in percent
	m.ROE = latest.Percent("净资产收益率")
	m.NetMargin = latest.Percent("销售净利率")
	m.GrossMargin = latest.Percent("销售毛利率")

	m.RevenueGrowthYoY = latest.Percent("营业总收入同比增长率")
	m.ProfitGrowthYoY = latest.Percent("净利润同比增长率")

	assetLiability := latest.Percent("资产负债率")
	if assetLiability != nil && *assetLiability < 100 {
		m.DebtToEquity = domain.Float(*assetLiability / (100 - *assetLiability))
	}
	if m.DebtToEquity == nil {
		m.DebtToEquity = latest.Number("产权比率")
	}

	m.CurrentRatio = latest.Number("流动比率")

	revenue := latest.Amount("营业总收入")
	if positive(m.MarketCap) && positive(revenue) {
		m.PS = safeDivide(m.MarketCap, revenue)
	}

	if m.PE != nil && positive(m.ProfitGrowthYoY) {
		// Growth is already a percentage here
		m.PEG = safeDivide(m.PE, m.ProfitGrowthYoY)
	}

	ocfPerShare := latest.Number("每股经营现金流")
	if ocfPerShare != nil && positive(qi.Float("price")) {
		m.FCFYield = domain.Float(*ocfPerShare / *qi.Float("price") * 100)
	}

	// ROA estimated from ROE and the liability ratio
	if m.ROE != nil && assetLiability != nil && *assetLiability < 100 {
		m.ROA = domain.Float(*m.ROE * (1 - *assetLiability/100))
	}

	return m
}

func (c *Calculator) computeUS(stock *domain.StockData, qi domain.Quote) *Metrics {
	m := &Metrics{}

	income := incomeTable(stock)
	balance := stock.Balance
	cashflow := stock.CashFlow

	revenue := income.Value(usRevenue...)
	netIncome := income.Value(usNetIncome...)
	grossProfit := income.Value(usGrossProfit...)
	operatingIncome := income.Value(usOperatingIncome...)

	totalAssets := balance.Value(usTotalAssets...)
	totalDebt := balance.Value(usTotalDebt...)
	equity := balance.Value(usEquity...)
	currentAssets := balance.Value(usCurrentAssets...)
	currentLiabilities := balance.Value(usCurrentLiabilities...)

	operatingCF := cashflow.Value(usOperatingCashflow...)
	capex := cashflow.Value(usCapex...)

	m.PE = qi.Float("trailingPE", "pe", "forwardPE")
	m.PB = qi.Float("priceToBook", "pb")
	m.MarketCap = qi.Float("marketCap", "market_cap")
	m.DividendYield = qi.Float("dividendYield", "dividend_yield")
	m.EPS = qi.Float("trailingEps", "eps")

	price := qi.Float("currentPrice", "regularMarketPrice", "price")
	shares := qi.Float("sharesOutstanding", "shares_outstanding")

	if m.MarketCap == nil && positive(price) && positive(shares) {
		m.MarketCap = domain.Float(*price * *shares)
	}

	m.PS = qi.Float("priceToSalesTrailing12Months")
	if m.PS == nil && positive(m.MarketCap) && positive(revenue) {
		m.PS = safeDivide(m.MarketCap, revenue)
	}

	if m.EPS == nil && netIncome != nil && positive(shares) {
		m.EPS = safeDivide(netIncome, shares)
	}

	m.BookValuePerShare = qi.Float("bookValue")
	if m.BookValuePerShare == nil && equity != nil && positive(shares) {
		m.BookValuePerShare = safeDivide(equity, shares)
	}

	if m.PE == nil && positive(price) && positive(m.EPS) {
		m.PE = safeDivide(price, m.EPS)
	}
	if m.PB == nil && positive(price) && positive(m.BookValuePerShare) {
		m.PB = safeDivide(price, m.BookValuePerShare)
	}

	m.ROE = safeDivide(netIncome, equity)
	m.ROA = safeDivide(netIncome, totalAssets)

	if positive(revenue) {
		if grossProfit != nil {
			m.GrossMargin = domain.Float(*grossProfit / *revenue)
		}
		m.NetMargin = safeDivide(netIncome, revenue)
		m.OperatingMargin = safeDivide(operatingIncome, revenue)
	}

	// Annual statements, so one period back is YoY
	revenueSeries := income.Series(usRevenue...)
	profitSeries := income.Series(usNetIncome...)

	m.RevenueGrowthYoY = computeGrowth(revenueSeries, 1)
	m.ProfitGrowthYoY = computeGrowth(profitSeries, 1)

	if len(revenueSeries) >= 3 {
		m.RevenueGrowthQoQ = computeGrowth(revenueSeries, 1)
	}
	if len(profitSeries) >= 3 {
		m.ProfitGrowthQoQ = computeGrowth(profitSeries, 1)
	}

	earningsGrowth := qi.Float("earningsGrowth", "earningsQuarterlyGrowth")
	if m.PE != nil && positive(earningsGrowth) {
		m.PEG = domain.Float(*m.PE / (*earningsGrowth * 100))
	} else {
		m.PEG = pegRatio(m.PE, m.ProfitGrowthYoY)
	}
	if m.PEG == nil {
		m.PEG = qi.Float("pegRatio")
	}

	if totalDebt != nil && positive(equity) {
		m.DebtToEquity = safeDivide(totalDebt, equity)
	} else if de := qi.Float("debtToEquity"); de != nil {
		// Sometimes reported as a percentage
		if *de > 10 {
			m.DebtToEquity = domain.Float(*de / 100.0)
		} else {
			m.DebtToEquity = de
		}
	}

	m.CurrentRatio = qi.Float("currentRatio")
	if m.CurrentRatio == nil {
		m.CurrentRatio = safeDivide(currentAssets, currentLiabilities)
	}

	m.FCFYield = fcfYield(operatingCF, capex, m.MarketCap)

	return m
}

// helpers

func incomeTable(stock *domain.StockData) *domain.StatementTable {
	if stock.Income == nil {
		return nil
	}
	return stock.Income.Table
}

func safeDivide(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	return domain.Float(*num / *den)
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}

// computeGrowth compares the latest value against the value
// periodsBack ago in a most-recent-first series.
func computeGrowth(series []float64, periodsBack int) *float64 {
	if len(series) <= periodsBack {
		return nil
	}
	current := series[0]
	previous := series[periodsBack]
	if previous == 0 {
		return nil
	}
	return domain.Float((current - previous) / math.Abs(previous))
}

// pegRatio divides PE by the YoY profit growth expressed as a
// percentage, only for positive growth.
func pegRatio(pe, profitGrowthYoY *float64) *float64 {
	if pe == nil || profitGrowthYoY == nil || *profitGrowthYoY <= 0 {
		return nil
	}
	growthPct := *profitGrowthYoY * 100
	if growthPct <= 0 {
		return nil
	}
	return domain.Float(*pe / growthPct)
}

// fcfYield is (operating cashflow - |capex|) / market cap.
func fcfYield(operatingCF, capex, marketCap *float64) *float64 {
	if operatingCF == nil || !positive(marketCap) {
		return nil
	}
	capexVal := 0.0
	if capex != nil {
		capexVal = math.Abs(*capex)
	}
	return domain.Float((*operatingCF - capexVal) / *marketCap)
}
