package fundamental

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuhaojin/stocklens/internal/domain"
)

func TestScoreValuation(t *testing.T) {
	score, details := scoreValuation(&Metrics{
		PE:  fp(12),
		PEG: fp(0.8),
		PB:  fp(0.9),
		PS:  fp(0.8),
	})

	// 20 + 5 + 3 + 2 caps at 25
	assert.InDelta(t, 25.0, score, 1e-9)
	assert.Equal(t, "PE=12.0 (<15): excellent value", details["pe"])
	assert.Equal(t, "PEG=0.80 (<1): growth at reasonable price", details["peg"])

	score, details = scoreValuation(&Metrics{PE: fp(-8)})
	assert.InDelta(t, 3.0, score, 1e-9)
	assert.Contains(t, details["pe"], "unprofitable")

	score, details = scoreValuation(&Metrics{})
	assert.InDelta(t, 0.0, score, 1e-9)
	assert.Equal(t, "PE data unavailable", details["pe"])
}

func TestScoreValuationLadder(t *testing.T) {
	tests := []struct {
		pe   float64
		want float64
	}{
		{14.9, 20}, {15, 15}, {25, 15}, {25.1, 10}, {40, 10}, {41, 5},
	}
	for _, tt := range tests {
		score, _ := scoreValuation(&Metrics{PE: fp(tt.pe)})
		assert.InDelta(t, tt.want, score, 1e-9, "pe=%v", tt.pe)
	}
}

func TestScoreProfitability(t *testing.T) {
	score, details := scoreProfitability(&Metrics{
		ROE:         fp(0.25),
		NetMargin:   fp(0.16),
		GrossMargin: fp(0.55),
		ROA:         fp(0.12),
	})

	assert.InDelta(t, 25.0, score, 1e-9)
	assert.Equal(t, "ROE=25.0% (>20%): excellent return on equity", details["roe"])

	score, details = scoreProfitability(&Metrics{ROE: fp(-0.05)})
	assert.InDelta(t, 2.0, score, 1e-9)
	assert.Contains(t, details["roe"], "destroying shareholder value")
}

func TestAsPercent(t *testing.T) {
	assert.InDelta(t, 15.0, asPercent(0.15), 1e-9)
	assert.InDelta(t, 15.0, asPercent(15), 1e-9, "already-percent values pass through")
	assert.InDelta(t, -3.0, asPercent(-0.03), 1e-9)
}

func TestScoreGrowth(t *testing.T) {
	score, details := scoreGrowth(&Metrics{
		RevenueGrowthYoY: fp(0.25),
		ProfitGrowthYoY:  fp(0.25),
		RevenueGrowthQoQ: fp(0.30),
	})

	// 20 + 5 + 3 caps at 25
	assert.InDelta(t, 25.0, score, 1e-9)
	assert.Contains(t, details["acceleration"], "Revenue accelerating")

	score, details = scoreGrowth(&Metrics{
		RevenueGrowthYoY: fp(0.05),
		RevenueGrowthQoQ: fp(0.02),
	})
	assert.InDelta(t, 11.0, score, 1e-9)
	assert.Equal(t, "Profit growth data unavailable", details["profit_growth"])
}

func TestScoreHealth(t *testing.T) {
	score, details := scoreHealth(&Metrics{
		DebtToEquity:  fp(0.2),
		FCFYield:      fp(0.05),
		CurrentRatio:  fp(2.5),
		DividendYield: fp(0.035),
	})

	// 20 + 3 + 3 + 2 caps at 25
	assert.InDelta(t, 25.0, score, 1e-9)
	// 0.035 normalizes to 3.5%
	assert.Equal(t, "Dividend yield=3.5%: attractive income", details["dividend"])

	score, details = scoreHealth(&Metrics{
		DebtToEquity: fp(1.5),
		CurrentRatio: fp(0.8),
	})
	assert.InDelta(t, 5.0, score, 1e-9)
	assert.Contains(t, details["current_ratio"], "liquidity risk")
	assert.Equal(t, "No dividend or data unavailable", details["dividend"])
}

func TestAnalyze(t *testing.T) {
	svc := NewService(zerolog.Nop())
	stock := &domain.StockData{
		Code:   "600519",
		Market: "CN",
		Quote: domain.Quote{
			"pe":        12.0,
			"pb":        1.5,
			"shortName": "Kweichow Moutai",
			"sector":    "Consumer Defensive",
		},
		Peers: []*domain.StockData{
			nil,
			{Code: "000858", Market: "CN", Quote: domain.Quote{"pe": 20.0}},
		},
	}

	got, err := svc.Analyze(context.Background(), stock)
	require.NoError(t, err)

	sum := got.ValuationScore + got.ProfitabilityScore + got.GrowthScore + got.HealthScore
	assert.InDelta(t, sum, got.Total, 1e-9)
	assert.Len(t, got.Breakdown, 4)

	require.NotNil(t, got.PeerComparison)
	require.NotNil(t, got.PeerComparison["pe"])
	assert.InDelta(t, 0.0, *got.PeerComparison["pe"], 1e-9, "no peer PE ranks below the target")

	assert.Equal(t, "Kweichow Moutai", got.CompanyProfile["name"])
	assert.Equal(t, "Consumer Defensive", got.CompanyProfile["sector"])
	assert.Equal(t, "CN", got.CompanyProfile["market"])
}

func TestBuildCompanyProfileNoQuote(t *testing.T) {
	profile := buildCompanyProfile(&domain.StockData{Code: "AAPL", Market: "US"})

	assert.Equal(t, map[string]any{"market": "US"}, profile)
}
