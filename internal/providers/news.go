package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yuhaojin/stocklens/internal/domain"
)

// NewsProvider searches for recent news articles matching a query.
// Providers are tried in priority order (lowest first).
type NewsProvider interface {
	Name() string
	Priority() int
	Available() bool
	Search(ctx context.Context, query string, maxResults int) ([]domain.NewsArticle, error)
}

// TavilyProvider queries the Tavily search API (priority 0).
type TavilyProvider struct {
	apiKey string
	client *http.Client
}

// NewTavilyProvider creates a Tavily news provider
func NewTavilyProvider(apiKey string) *TavilyProvider {
	return &TavilyProvider{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *TavilyProvider) Name() string    { return "tavily" }
func (p *TavilyProvider) Priority() int   { return 0 }
func (p *TavilyProvider) Available() bool { return p.apiKey != "" }

type tavilyResponse struct {
	Results []struct {
		Title         string `json:"title"`
		Content       string `json:"content"`
		URL           string `json:"url"`
		PublishedDate string `json:"published_date"`
		Source        string `json:"source"`
	} `json:"results"`
}

// Search runs a Tavily search and normalizes the results
func (p *TavilyProvider) Search(ctx context.Context, query string, maxResults int) ([]domain.NewsArticle, error) {
	payload, err := json.Marshal(map[string]any{
		"api_key":        p.apiKey,
		"query":          query,
		"max_results":    maxResults,
		"include_answer": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.tavily.com/search", strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to create tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tavily API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse tavily response: %w", err)
	}

	articles := make([]domain.NewsArticle, 0, len(result.Results))
	for _, item := range result.Results {
		articles = append(articles, domain.NewsArticle{
			Title:       item.Title,
			Content:     item.Content,
			URL:         item.URL,
			PublishedAt: item.PublishedDate,
			Source:      item.Source,
		})
	}
	return articles, nil
}

// BraveProvider queries the Brave Search news API (priority 1).
type BraveProvider struct {
	apiKey string
	client *http.Client
}

// NewBraveProvider creates a Brave Search news provider
func NewBraveProvider(apiKey string) *BraveProvider {
	return &BraveProvider{
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *BraveProvider) Name() string    { return "brave" }
func (p *BraveProvider) Priority() int   { return 1 }
func (p *BraveProvider) Available() bool { return p.apiKey != "" }

type braveResponse struct {
	Results []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Age         string `json:"age"`
		MetaURL     struct {
			Hostname string `json:"hostname"`
		} `json:"meta_url"`
	} `json:"results"`
}

// Search runs a Brave news search and normalizes the results
func (p *BraveProvider) Search(ctx context.Context, query string, maxResults int) ([]domain.NewsArticle, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", fmt.Sprintf("%d", maxResults))

	reqURL := "https://api.search.brave.com/res/v1/news/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create brave request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("brave API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse brave response: %w", err)
	}

	articles := make([]domain.NewsArticle, 0, len(result.Results))
	for _, item := range result.Results {
		articles = append(articles, domain.NewsArticle{
			Title:       item.Title,
			Content:     item.Description,
			URL:         item.URL,
			PublishedAt: item.Age,
			Source:      item.MetaURL.Hostname,
		})
	}
	return articles, nil
}

// NewsManager tries news providers in priority order with failover.
type NewsManager struct {
	providers []NewsProvider
	log       zerolog.Logger
}

// NewNewsManager creates a manager over the given providers, sorted by
// priority. Unconfigured providers are kept but skipped at search time.
func NewNewsManager(log zerolog.Logger, providers ...NewsProvider) *NewsManager {
	sorted := make([]NewsProvider, len(providers))
	copy(sorted, providers)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Priority() < sorted[j-1].Priority(); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	mgr := &NewsManager{
		providers: sorted,
		log:       log.With().Str("component", "news_providers").Logger(),
	}

	available := make([]string, 0, len(sorted))
	for _, p := range sorted {
		if p.Available() {
			available = append(available, p.Name())
		}
	}
	mgr.log.Info().Strs("available", available).Msg("News provider manager initialized")

	return mgr
}

// Search returns results from the first available provider that succeeds.
func (m *NewsManager) Search(ctx context.Context, query string, maxResults int) []domain.NewsArticle {
	for _, provider := range m.providers {
		if !provider.Available() {
			continue
		}
		articles, err := provider.Search(ctx, query, maxResults)
		if err != nil {
			m.log.Warn().Err(err).
				Str("provider", provider.Name()).
				Str("query", query).
				Msg("News provider failed")
			continue
		}
		if len(articles) > 0 {
			m.log.Debug().
				Str("provider", provider.Name()).
				Int("count", len(articles)).
				Str("query", query).
				Msg("News provider returned results")
			return articles
		}
	}

	m.log.Warn().Str("query", query).Msg("All news providers failed")
	return nil
}

// SearchMultiple runs every query and deduplicates results by URL.
func (m *NewsManager) SearchMultiple(ctx context.Context, queries []string, maxResultsPerQuery int) []domain.NewsArticle {
	var all []domain.NewsArticle
	seen := make(map[string]struct{})

	for _, query := range queries {
		for _, article := range m.Search(ctx, query, maxResultsPerQuery) {
			if article.URL == "" {
				continue
			}
			if _, ok := seen[article.URL]; ok {
				continue
			}
			seen[article.URL] = struct{}{}
			all = append(all, article)
		}
	}

	return all
}

// BuildNewsQueries expands a stock into market-appropriate search queries.
func BuildNewsQueries(code, name, market string) []string {
	switch strings.ToUpper(market) {
	case "CN":
		return []string{
			name + " 最新消息",
			name + " 研报 分析 评级",
			code + " 风险 公告 减持",
			name + " 业绩 营收 利润",
			name + " 行业 竞争 前景",
		}
	case "HK":
		return []string{
			name + " stock news Hong Kong",
			code + ".HK analyst rating",
			name + " earnings revenue",
		}
	default:
		return []string{
			code + " " + name + " stock news",
			code + " earnings analyst rating",
			code + " risk litigation insider",
			code + " revenue growth forecast",
			code + " industry outlook",
		}
	}
}
