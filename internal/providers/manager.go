package providers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yuhaojin/stocklens/internal/domain"
)

// StockProvider fetches market data for a single stock. Providers are
// tried in priority order with failover, so each method may fail
// independently.
type StockProvider interface {
	Name() string
	Priority() int
	Available() bool
	FetchQuote(ctx context.Context, code, market string) (domain.Quote, error)
	FetchDaily(ctx context.Context, code, market string, days int) (domain.Series, error)
}

// Manager assembles a full StockData snapshot from stock and news
// providers, with priority-based failover on the stock side.
type Manager struct {
	stocks []StockProvider
	news   *NewsManager
	log    zerolog.Logger
}

// NewManager creates a provider manager. The news manager may be nil,
// in which case snapshots carry no articles.
func NewManager(log zerolog.Logger, news *NewsManager, providers ...StockProvider) *Manager {
	sorted := make([]StockProvider, len(providers))
	copy(sorted, providers)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Priority() < sorted[j-1].Priority(); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	mgr := &Manager{
		stocks: sorted,
		news:   news,
		log:    log.With().Str("component", "providers").Logger(),
	}

	available := make([]string, 0, len(sorted))
	for _, p := range sorted {
		if p.Available() {
			available = append(available, p.Name())
		}
	}
	mgr.log.Info().Strs("available", available).Msg("Stock provider manager initialized")

	return mgr
}

// FetchStockData builds the snapshot every pillar consumes: daily bars,
// quote, and news. Daily bars are required; quote and news are best
// effort and missing pieces degrade the relevant pillar instead of
// failing the analysis.
func (m *Manager) FetchStockData(ctx context.Context, code string, days int) (*domain.StockData, error) {
	market := domain.DetectMarket(code)

	daily, err := m.fetchDaily(ctx, code, market, days)
	if err != nil {
		return nil, err
	}

	stock := &domain.StockData{
		Code:   code,
		Market: market,
		Daily:  daily,
	}

	if quote := m.fetchQuote(ctx, code, market); quote != nil {
		stock.Quote = quote
		stock.Realtime = quote
		stock.Name = quote.String("longName", "shortName", "name")
		stock.Sector = quote.String("sector")
		stock.Industry = quote.String("industry")
	}
	if stock.Name == "" {
		stock.Name = code
	}

	if m.news != nil {
		queries := BuildNewsQueries(code, stock.Name, market)
		stock.News = m.news.SearchMultiple(ctx, queries, 5)
	}

	m.log.Info().
		Str("code", code).
		Str("market", market).
		Int("bars", len(stock.Daily)).
		Int("articles", len(stock.News)).
		Msg("Stock data assembled")

	return stock, nil
}

func (m *Manager) fetchDaily(ctx context.Context, code, market string, days int) (domain.Series, error) {
	for _, provider := range m.stocks {
		if !provider.Available() {
			continue
		}
		series, err := provider.FetchDaily(ctx, code, market, days)
		if err != nil {
			m.log.Warn().Err(err).
				Str("provider", provider.Name()).
				Str("code", code).
				Msg("Daily data provider failed")
			continue
		}
		if len(series) > 0 {
			return series, nil
		}
	}
	return nil, fmt.Errorf("all data providers failed for %s", code)
}

func (m *Manager) fetchQuote(ctx context.Context, code, market string) domain.Quote {
	for _, provider := range m.stocks {
		if !provider.Available() {
			continue
		}
		quote, err := provider.FetchQuote(ctx, code, market)
		if err != nil {
			m.log.Warn().Err(err).
				Str("provider", provider.Name()).
				Str("code", code).
				Msg("Quote provider failed")
			continue
		}
		if len(quote) > 0 {
			return quote
		}
	}
	return nil
}
