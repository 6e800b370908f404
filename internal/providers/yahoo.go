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

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// YahooProvider fetches quotes and daily bars from the Yahoo Finance API.
// It serves US and HK symbols; CN symbols are mapped to their exchange
// suffix form (600519 -> 600519.SS).
type YahooProvider struct {
	client *http.Client
	log    zerolog.Logger
}

// NewYahooProvider creates a Yahoo Finance provider
func NewYahooProvider(log zerolog.Logger) *YahooProvider {
	return &YahooProvider{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With().Str("provider", "yahoo").Logger(),
	}
}

func (p *YahooProvider) Name() string    { return "yahoo" }
func (p *YahooProvider) Priority() int   { return 0 }
func (p *YahooProvider) Available() bool { return true }

// YahooSymbol maps an internal code and market to the Yahoo ticker form.
func YahooSymbol(code, market string) string {
	switch strings.ToUpper(market) {
	case "CN":
		if strings.HasPrefix(code, "6") {
			return code + ".SS"
		}
		return code + ".SZ"
	case "HK":
		// Yahoo wants 4-digit HK codes, zero padded
		trimmed := strings.TrimLeft(code, "0")
		for len(trimmed) < 4 {
			trimmed = "0" + trimmed
		}
		return trimmed + ".HK"
	default:
		return code
	}
}

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []map[string]any `json:"result"`
		Error  any              `json:"error"`
	} `json:"quoteResponse"`
}

// FetchQuote returns the quote snapshot for the symbol as a raw key/value
// map. Callers pick fields through domain.Quote accessors.
func (p *YahooProvider) FetchQuote(ctx context.Context, code, market string) (domain.Quote, error) {
	symbol := YahooSymbol(code, market)

	params := url.Values{}
	params.Set("symbols", symbol)

	reqURL := "https://query1.finance.yahoo.com/v7/finance/quote?" + params.Encode()

	body, err := p.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var result yahooQuoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}
	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo quote API error: %v", result.QuoteResponse.Error)
	}
	if len(result.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote data returned for %s", symbol)
	}

	return domain.Quote(result.QuoteResponse.Result[0]), nil
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// FetchDaily returns daily OHLCV bars covering roughly the requested
// number of calendar days. Null bars from Yahoo are skipped.
func (p *YahooProvider) FetchDaily(ctx context.Context, code, market string, days int) (domain.Series, error) {
	symbol := YahooSymbol(code, market)

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", rangeForDays(days))

	reqURL := "https://query1.finance.yahoo.com/v8/finance/chart/" + url.QueryEscape(symbol) + "?" + params.Encode()

	body, err := p.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var result yahooChartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse chart response: %w", err)
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart API error: %v", result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		p.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return domain.Series{}, nil
	}

	chart := result.Chart.Result[0]
	quote := chart.Indicators.Quote[0]

	series := make(domain.Series, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}
		// Yahoo fills halted sessions with zeros
		if quote.Open[i] == 0 && quote.High[i] == 0 && quote.Low[i] == 0 && quote.Close[i] == 0 {
			continue
		}

		var volume float64
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}

		series = append(series, domain.Candle{
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   quote.Open[i],
			High:   quote.High[i],
			Low:    quote.Low[i],
			Close:  quote.Close[i],
			Volume: volume,
		})
	}

	p.log.Debug().
		Str("symbol", symbol).
		Int("count", len(series)).
		Msg("Fetched daily bars")

	return series, nil
}

func (p *YahooProvider) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("yahoo API returned status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func rangeForDays(days int) string {
	switch {
	case days <= 0:
		return "1y"
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	default:
		return "5y"
	}
}
