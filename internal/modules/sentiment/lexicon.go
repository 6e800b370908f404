package sentiment

import (
	"net/url"
	"strings"
)

// Keyword lexicons for English and Chinese financial news.

var positiveEN = []string{
	"beat", "beats", "exceeded", "upgrade", "upgraded", "outperform",
	"buy", "bullish", "growth", "record", "surge", "surged", "rally",
	"breakthrough", "innovation", "profit", "dividend", "acquisition",
	"expansion", "partnership", "strong", "robust", "accelerat",
	"momentum", "optimistic", "upside",
}

var negativeEN = []string{
	"miss", "missed", "downgrade", "downgraded", "underperform",
	"sell", "bearish", "decline", "loss", "layoff", "lawsuit",
	"investigation", "warning", "risk", "debt", "bankruptcy", "fraud",
	"recall", "weak", "slowdown", "pessimistic", "headwind", "concern",
	"cut", "slash",
}

var positiveCN = []string{
	"利好", "上涨", "增长", "突破", "创新高", "买入", "增持", "超预期",
	"业绩大增", "净利润增", "营收增", "分红", "回购", "扩张", "合作",
	"中标", "获批", "强劲", "加速", "景气", "龙头", "优质",
}

var negativeCN = []string{
	"利空", "下跌", "亏损", "暴跌", "减持", "卖出", "低于预期",
	"业绩下滑", "营收下降", "违规", "处罚", "诉讼", "退市", "质押",
	"爆仓", "商誉减值", "坏账", "风险", "警示", "负面", "压力", "疲软",
}

// Article categories.
const (
	CategoryEarnings = "earnings"
	CategoryPolicy   = "policy"
	CategoryInsider  = "insider"
	CategoryAnalyst  = "analyst"
	CategoryProduct  = "product"
	CategoryRisk     = "risk"
	CategoryMacro    = "macro"
	CategoryGeneral  = "general"
)

// categoryKeywords is ordered so classification ties resolve
// deterministically to the earliest category.
var categoryKeywords = []struct {
	Category string
	Keywords []string
}{
	{CategoryEarnings, []string{"earnings", "profit", "revenue", "业绩", "营收"}},
	{CategoryPolicy, []string{"policy", "regulation", "政策", "监管"}},
	{CategoryInsider, []string{"insider", "buyback", "减持", "增持", "回购"}},
	{CategoryAnalyst, []string{"analyst", "rating", "target", "研报", "评级"}},
	{CategoryProduct, []string{"product", "launch", "release", "新品", "发布"}},
	{CategoryRisk, []string{"lawsuit", "fraud", "investigation", "诉讼", "违规"}},
	{CategoryMacro, []string{"gdp", "interest rate", "inflation", "央行", "加息"}},
}

// Source quality tiers by publisher domain.
var tier1Domains = []string{
	"reuters.com",
	"bloomberg.com",
	"wsj.com",
	"ft.com",
	"cnbc.com",
	"finance.sina.com.cn",
	"sina.com.cn",
	"eastmoney.com",
}

var tier2Domains = []string{
	"marketwatch.com",
	"seekingalpha.com",
	"barrons.com",
	"investing.com",
	"yahoo.com",
	"finance.yahoo.com",
	"cnn.com",
	"bbc.com",
	"foxbusiness.com",
	"thestreet.com",
	"fool.com",
	"benzinga.com",
	"163.com",
	"qq.com",
	"sohu.com",
	"10jqka.com.cn",
	"cls.cn",
	"caixin.com",
	"yicai.com",
	"stcn.com",
	"hexun.com",
}

// countKeywordMatches returns the keywords present in text. English
// keywords match as case-insensitive substrings so stems like
// "accelerat" also match "accelerating".
func countKeywordMatches(text string, keywords []string) []string {
	textLower := strings.ToLower(text)
	var matches []string
	for _, kw := range keywords {
		if strings.Contains(textLower, strings.ToLower(kw)) {
			matches = append(matches, kw)
		}
	}
	return matches
}

// extractDomain returns the base domain of a URL with any leading
// "www." stripped.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// assessSourceQuality returns a quality multiplier for the article
// source: 1.0 for tier-1 publishers, 0.7 for tier-2, 0.5 otherwise.
func assessSourceQuality(rawURL string) float64 {
	domain := extractDomain(rawURL)
	if domain == "" {
		return 0.5
	}
	for _, t1 := range tier1Domains {
		if domain == t1 || strings.HasSuffix(domain, "."+t1) {
			return 1.0
		}
	}
	for _, t2 := range tier2Domains {
		if domain == t2 || strings.HasSuffix(domain, "."+t2) {
			return 0.7
		}
	}
	return 0.5
}

// classifyCategory picks the category with the most keyword hits,
// defaulting to general.
func classifyCategory(text string) string {
	textLower := strings.ToLower(text)
	best := CategoryGeneral
	bestCount := 0
	for _, entry := range categoryKeywords {
		count := 0
		for _, kw := range entry.Keywords {
			if strings.Contains(textLower, strings.ToLower(kw)) {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = entry.Category
		}
	}
	return best
}
