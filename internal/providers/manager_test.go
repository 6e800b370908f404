package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuhaojin/stocklens/internal/domain"
)

type fakeStockProvider struct {
	name       string
	priority   int
	available  bool
	quote      domain.Quote
	quoteErr   error
	series     domain.Series
	dailyErr   error
	dailyCalls int
}

func (f *fakeStockProvider) Name() string    { return f.name }
func (f *fakeStockProvider) Priority() int   { return f.priority }
func (f *fakeStockProvider) Available() bool { return f.available }

func (f *fakeStockProvider) FetchQuote(ctx context.Context, code, market string) (domain.Quote, error) {
	return f.quote, f.quoteErr
}

func (f *fakeStockProvider) FetchDaily(ctx context.Context, code, market string, days int) (domain.Series, error) {
	f.dailyCalls++
	return f.series, f.dailyErr
}

func bars(n int) domain.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(domain.Series, n)
	for i := range s {
		s[i] = domain.Candle{
			Date: start.AddDate(0, 0, i), Open: 10, High: 11, Low: 9, Close: 10, Volume: 1000,
		}
	}
	return s
}

func TestFetchStockDataAssemblesSnapshot(t *testing.T) {
	p := &fakeStockProvider{
		name: "primary", priority: 0, available: true,
		series: bars(3),
		quote: domain.Quote{
			"longName": "Apple Inc",
			"sector":   "Technology",
			"industry": "Consumer Electronics",
		},
	}

	m := NewManager(zerolog.Nop(), nil, p)
	stock, err := m.FetchStockData(context.Background(), "AAPL", 30)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", stock.Code)
	assert.Equal(t, "US", stock.Market)
	assert.Equal(t, "Apple Inc", stock.Name)
	assert.Equal(t, "Technology", stock.Sector)
	assert.Equal(t, "Consumer Electronics", stock.Industry)
	assert.Len(t, stock.Daily, 3)
	assert.Empty(t, stock.News, "no news manager configured")
}

func TestFetchStockDataFailsOverOnDailyError(t *testing.T) {
	broken := &fakeStockProvider{name: "broken", priority: 0, available: true, dailyErr: errors.New("timeout")}
	off := &fakeStockProvider{name: "off", priority: 1, available: false, series: bars(5)}
	backup := &fakeStockProvider{name: "backup", priority: 2, available: true, series: bars(5)}

	m := NewManager(zerolog.Nop(), nil, backup, off, broken)
	stock, err := m.FetchStockData(context.Background(), "600519", 30)
	require.NoError(t, err)

	assert.Equal(t, "CN", stock.Market)
	assert.Len(t, stock.Daily, 5)
	assert.Equal(t, 1, broken.dailyCalls, "highest priority tried first")
	assert.Zero(t, off.dailyCalls, "unavailable provider skipped")
	assert.Equal(t, 1, backup.dailyCalls)
}

func TestFetchStockDataAllProvidersFail(t *testing.T) {
	broken := &fakeStockProvider{name: "broken", priority: 0, available: true, dailyErr: errors.New("down")}
	empty := &fakeStockProvider{name: "empty", priority: 1, available: true}

	m := NewManager(zerolog.Nop(), nil, broken, empty)
	stock, err := m.FetchStockData(context.Background(), "AAPL", 30)

	assert.Nil(t, stock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all data providers failed for AAPL")
}

func TestFetchStockDataQuoteIsBestEffort(t *testing.T) {
	p := &fakeStockProvider{
		name: "p", priority: 0, available: true,
		series:   bars(2),
		quoteErr: errors.New("quote endpoint down"),
	}

	m := NewManager(zerolog.Nop(), nil, p)
	stock, err := m.FetchStockData(context.Background(), "00700", 30)
	require.NoError(t, err)

	assert.Nil(t, stock.Quote)
	assert.Equal(t, "00700", stock.Name, "name falls back to the code")
	assert.Equal(t, "HK", stock.Market)
}

func TestFetchStockDataIncludesNews(t *testing.T) {
	stockP := &fakeStockProvider{name: "p", priority: 0, available: true, series: bars(2)}
	newsP := &fakeNewsProvider{name: "news", priority: 0, available: true, articles: []domain.NewsArticle{
		article("https://a"),
		article("https://b"),
	}}

	m := NewManager(zerolog.Nop(), NewNewsManager(zerolog.Nop(), newsP), stockP)
	stock, err := m.FetchStockData(context.Background(), "AAPL", 30)
	require.NoError(t, err)

	assert.Len(t, stock.News, 2, "duplicate URLs across queries collapse")
	assert.Equal(t, 5, newsP.calls, "one search per query template")
}
