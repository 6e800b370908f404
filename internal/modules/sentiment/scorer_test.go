package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuhaojin/stocklens/internal/domain"
)

func TestScoreArticlePositive(t *testing.T) {
	s := NewScorer()
	got := s.ScoreArticle(domain.NewsArticle{
		Title:   "Company beats earnings, strong growth",
		Content: "Record profit and dividend.",
		URL:     "https://www.reuters.com/business/company-beats",
	})

	// "beat" matches inside "beats", so both stems count.
	assert.ElementsMatch(t,
		[]string{"beat", "beats", "strong", "growth", "record", "profit", "dividend"},
		got.PositiveMatches)
	assert.Empty(t, got.NegativeMatches)
	assert.InDelta(t, 7.0/8.0, got.Score, 1e-4)
	assert.Equal(t, CategoryEarnings, got.Category)
	assert.InDelta(t, 1.0, got.SourceQuality, 1e-9)
}

func TestScoreArticleNegativeChinese(t *testing.T) {
	s := NewScorer()
	got := s.ScoreArticle(domain.NewsArticle{
		Title:   "公司业绩下滑 面临诉讼风险",
		Content: "监管处罚 股价下跌",
		URL:     "https://unknown-blog.example.com/post",
	})

	assert.ElementsMatch(t, []string{"业绩下滑", "诉讼", "风险", "处罚", "下跌"}, got.NegativeMatches)
	assert.Empty(t, got.PositiveMatches)
	assert.InDelta(t, -5.0/6.0, got.Score, 1e-4)
	// Category ties resolve to the earliest entry in the keyword list.
	assert.Equal(t, CategoryEarnings, got.Category)
	assert.InDelta(t, 0.5, got.SourceQuality, 1e-9)
}

func TestScoreArticleNeutral(t *testing.T) {
	s := NewScorer()
	got := s.ScoreArticle(domain.NewsArticle{
		Title:   "Quarterly report scheduled for next week",
		Content: "The company will hold a call.",
	})

	assert.InDelta(t, 0.0, got.Score, 1e-9)
	assert.Equal(t, CategoryGeneral, got.Category)
	assert.Nil(t, got.PositiveMatches)
	assert.Nil(t, got.NegativeMatches)
}

func TestScoreBatchOrdersByMagnitude(t *testing.T) {
	s := NewScorer()
	got := s.ScoreBatch([]domain.NewsArticle{
		{Title: "nothing notable"},
		{Title: "bankruptcy fraud lawsuit layoff"},
		{Title: "growth"},
	})

	require.Len(t, got, 3)
	assert.Equal(t, "bankruptcy fraud lawsuit layoff", got[0].Title)
	assert.Equal(t, "growth", got[1].Title)
	assert.Equal(t, "nothing notable", got[2].Title)
}

func TestComputeAggregate(t *testing.T) {
	s := NewScorer()
	scored := []ScoredArticle{
		{Score: 0.8, SourceQuality: 1.0, Category: CategoryEarnings},
		{Score: -0.4, SourceQuality: 0.5, Category: CategoryRisk},
		{Score: 0.05, SourceQuality: 0.5, Category: CategoryGeneral},
	}

	got := s.ComputeAggregate(scored)

	assert.InDelta(t, 0.3125, got.OverallScore, 1e-4)
	assert.Equal(t, Distribution{Positive: 1, Neutral: 1, Negative: 1}, got.Distribution)
	assert.Equal(t, 3, got.ArticleCount)
	assert.InDelta(t, 0.8, got.CategoryScores[CategoryEarnings], 1e-9)
	assert.InDelta(t, -0.4, got.CategoryScores[CategoryRisk], 1e-9)
}

func TestComputeAggregateEmpty(t *testing.T) {
	s := NewScorer()
	got := s.ComputeAggregate(nil)

	assert.Zero(t, got.OverallScore)
	assert.Zero(t, got.ArticleCount)
	assert.NotNil(t, got.CategoryScores)
}

func TestAssessSourceQuality(t *testing.T) {
	tests := []struct {
		url  string
		want float64
	}{
		{"https://www.reuters.com/markets/article", 1.0},
		{"https://cn.reuters.com/article", 1.0},
		{"https://finance.yahoo.com/news/x", 0.7},
		{"https://blog.example.com/post", 0.5},
		{"", 0.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, assessSourceQuality(tt.url), 1e-9, tt.url)
	}
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "reuters.com", extractDomain("https://www.reuters.com/a/b"))
	assert.Equal(t, "eastmoney.com", extractDomain("http://eastmoney.com/x"))
}

func TestDedupeSorted(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupeSorted([]string{"c", "a", "b", "a", "c"}))
	assert.Nil(t, dedupeSorted(nil))
}
