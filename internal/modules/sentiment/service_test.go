package sentiment

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuhaojin/stocklens/internal/domain"
)

func TestAnalyzeNoNews(t *testing.T) {
	svc := NewService(zerolog.Nop())

	got, err := svc.Analyze(context.Background(), &domain.StockData{Code: "600519"})
	require.NoError(t, err)

	assert.InDelta(t, 50.0, got.Total, 1e-9)
	assert.InDelta(t, 20.0, got.NewsSentimentScore, 1e-9)
	assert.InDelta(t, 15.0, got.EventImpactScore, 1e-9)
	assert.InDelta(t, 7.5, got.MarketAttentionScore, 1e-9)
	assert.InDelta(t, 7.5, got.SourceQualityScore, 1e-9)
	assert.Equal(t, "No news articles available, returning neutral score", got.Breakdown["note"])
	assert.Empty(t, got.Articles)
	assert.Empty(t, got.Timeline)
}

func TestAnalyzeWithNews(t *testing.T) {
	svc := NewService(zerolog.Nop())
	stock := &domain.StockData{
		Code: "AAPL",
		News: []domain.NewsArticle{
			{
				Title:       "Company beats earnings with record profit",
				URL:         "https://www.reuters.com/a",
				PublishedAt: "2024-06-05",
			},
			{
				Title:       "Analysts warn of slowdown risk",
				URL:         "https://blog.example.com/b",
				PublishedAt: "2024-06-06",
			},
		},
	}

	got, err := svc.Analyze(context.Background(), stock)
	require.NoError(t, err)

	sum := got.NewsSentimentScore + got.EventImpactScore + got.MarketAttentionScore + got.SourceQualityScore
	assert.InDelta(t, sum, got.Total, 0.01)
	assert.Len(t, got.Articles, 2)

	require.Len(t, got.Timeline, 2)
	// Newest first, colored by score sign.
	assert.Equal(t, "2024-06-06", got.Timeline[0].Date)
	assert.Equal(t, "red", got.Timeline[0].Color)
	assert.Equal(t, "green", got.Timeline[1].Color)

	earnings, ok := got.CategorySummary[CategoryEarnings]
	require.True(t, ok)
	assert.Equal(t, 1, earnings.Count)
	assert.Equal(t, "high", earnings.Impact)
}

func TestCalcNewsSentiment(t *testing.T) {
	tests := []struct {
		overall float64
		want    float64
	}{
		{1.0, 40.0},
		{0.5, 35.0},
		{0.2, 25.0},
		{0.0, 20.0},
		{-0.2, 15.0},
		{-0.5, 5.0},
		{-1.0, 0.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, calcNewsSentiment(tt.overall), 1e-9, "overall=%v", tt.overall)
	}
}

func TestCalcEventImpact(t *testing.T) {
	strong := calcEventImpact(nil, map[string]float64{CategoryEarnings: 0.5})
	assert.InDelta(t, 27.5, strong, 1e-9)

	moderate := calcEventImpact(nil, map[string]float64{CategoryPolicy: -0.2})
	assert.InDelta(t, 15.0+(0.2/0.3)*10.0, moderate, 1e-9)

	faint := calcEventImpact(nil, map[string]float64{CategoryInsider: 0.05})
	assert.InDelta(t, 12.5, faint, 1e-9)

	// No high-impact categories: falls back to average magnitude.
	fallback := calcEventImpact(
		[]ScoredArticle{{Score: 0.4}, {Score: -0.2}},
		map[string]float64{CategoryGeneral: 0.1})
	assert.InDelta(t, 13.0, fallback, 1e-9)

	assert.InDelta(t, 10.0, calcEventImpact(nil, nil), 1e-9)
}

func TestCalcMarketAttention(t *testing.T) {
	assert.InDelta(t, 14.0, calcMarketAttention(20, 0.3), 1e-9, "heavy positive coverage bonus")
	assert.InDelta(t, 12.0, calcMarketAttention(16, 0.0), 1e-9)
	assert.InDelta(t, 8.0+2.0/7.0*2.0, calcMarketAttention(10, 0.0), 1e-9)
	assert.InDelta(t, 5.0+2.0/7.0*2.0, calcMarketAttention(3, 0.0), 1e-9)
	assert.InDelta(t, 5.0, calcMarketAttention(0, 0.0), 1e-9)
}

func TestCalcSourceQuality(t *testing.T) {
	tier1 := []ScoredArticle{{SourceQuality: 1.0}, {SourceQuality: 1.0}}
	assert.InDelta(t, 15.0, calcSourceQuality(tier1), 1e-9)

	tier2 := []ScoredArticle{{SourceQuality: 0.7}}
	assert.InDelta(t, 8.0+(0.1/0.3)*5.0, calcSourceQuality(tier2), 1e-6)

	low := []ScoredArticle{{SourceQuality: 0.5}}
	assert.InDelta(t, 7.5, calcSourceQuality(low), 1e-9)

	assert.InDelta(t, 5.0, calcSourceQuality(nil), 1e-9)
}
