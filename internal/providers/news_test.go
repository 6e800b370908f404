package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuhaojin/stocklens/internal/domain"
)

type fakeNewsProvider struct {
	name      string
	priority  int
	available bool
	articles  []domain.NewsArticle
	err       error
	calls     int
}

func (f *fakeNewsProvider) Name() string    { return f.name }
func (f *fakeNewsProvider) Priority() int   { return f.priority }
func (f *fakeNewsProvider) Available() bool { return f.available }

func (f *fakeNewsProvider) Search(ctx context.Context, query string, maxResults int) ([]domain.NewsArticle, error) {
	f.calls++
	return f.articles, f.err
}

func article(url string) domain.NewsArticle {
	return domain.NewsArticle{Title: "t", URL: url}
}

func TestNewsManagerPriorityOrder(t *testing.T) {
	second := &fakeNewsProvider{name: "second", priority: 1, available: true, articles: []domain.NewsArticle{article("https://b")}}
	first := &fakeNewsProvider{name: "first", priority: 0, available: true, articles: []domain.NewsArticle{article("https://a")}}

	m := NewNewsManager(zerolog.Nop(), second, first)
	got := m.Search(context.Background(), "query", 5)

	require.Len(t, got, 1)
	assert.Equal(t, "https://a", got[0].URL)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls, "higher-priority provider succeeded first")
}

func TestNewsManagerFailover(t *testing.T) {
	broken := &fakeNewsProvider{name: "broken", priority: 0, available: true, err: errors.New("quota exceeded")}
	unconfigured := &fakeNewsProvider{name: "off", priority: 1, available: false, articles: []domain.NewsArticle{article("https://skip")}}
	backup := &fakeNewsProvider{name: "backup", priority: 2, available: true, articles: []domain.NewsArticle{article("https://c")}}

	m := NewNewsManager(zerolog.Nop(), broken, unconfigured, backup)
	got := m.Search(context.Background(), "query", 5)

	require.Len(t, got, 1)
	assert.Equal(t, "https://c", got[0].URL)
	assert.Equal(t, 1, broken.calls)
	assert.Zero(t, unconfigured.calls)
}

func TestNewsManagerAllFail(t *testing.T) {
	broken := &fakeNewsProvider{name: "broken", priority: 0, available: true, err: errors.New("down")}

	m := NewNewsManager(zerolog.Nop(), broken)

	assert.Nil(t, m.Search(context.Background(), "query", 5))
}

func TestSearchMultipleDedupesByURL(t *testing.T) {
	p := &fakeNewsProvider{name: "p", priority: 0, available: true, articles: []domain.NewsArticle{
		article("https://a"),
		article("https://b"),
		article(""),
	}}

	m := NewNewsManager(zerolog.Nop(), p)
	got := m.SearchMultiple(context.Background(), []string{"q1", "q2"}, 5)

	// Both queries return the same two URLs; blanks are dropped.
	require.Len(t, got, 2)
	assert.Equal(t, "https://a", got[0].URL)
	assert.Equal(t, "https://b", got[1].URL)
	assert.Equal(t, 2, p.calls)
}

func TestBuildNewsQueriesCN(t *testing.T) {
	got := BuildNewsQueries("600519", "贵州茅台", "CN")

	assert.Equal(t, []string{
		"贵州茅台 最新消息",
		"贵州茅台 研报 分析 评级",
		"600519 风险 公告 减持",
		"贵州茅台 业绩 营收 利润",
		"贵州茅台 行业 竞争 前景",
	}, got)
}

func TestBuildNewsQueriesHK(t *testing.T) {
	got := BuildNewsQueries("00700", "Tencent", "hk")

	assert.Equal(t, []string{
		"Tencent stock news Hong Kong",
		"00700.HK analyst rating",
		"Tencent earnings revenue",
	}, got)
}

func TestBuildNewsQueriesUS(t *testing.T) {
	got := BuildNewsQueries("AAPL", "Apple", "US")

	assert.Equal(t, []string{
		"AAPL Apple stock news",
		"AAPL earnings analyst rating",
		"AAPL risk litigation insider",
		"AAPL revenue growth forecast",
		"AAPL industry outlook",
	}, got)
}

func TestProviderAvailability(t *testing.T) {
	assert.False(t, NewTavilyProvider("").Available())
	assert.True(t, NewTavilyProvider("key").Available())
	assert.Equal(t, 0, NewTavilyProvider("key").Priority())

	assert.False(t, NewBraveProvider("").Available())
	assert.True(t, NewBraveProvider("key").Available())
	assert.Equal(t, 1, NewBraveProvider("key").Priority())
}
