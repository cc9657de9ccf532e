// Package yahoo is a context-aware Yahoo Finance HTTP client implementing
// quote.Provider and quote.Directory.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wonny/sectorwatch/internal/domain/quote"
)

const maxBodyBytes = 4 << 20

// Config configures the client
type Config struct {
	BaseURL   string // chart and quoteSummary host
	SearchURL string // search host
	UserAgent string
	Timeout   time.Duration
}

// Client handles Yahoo Finance API requests
type Client struct {
	baseURL    string
	searchURL  string
	userAgent  string
	httpClient *http.Client
	log        zerolog.Logger
}

var (
	_ quote.Provider  = (*Client)(nil)
	_ quote.Directory = (*Client)(nil)
)

// NewClient creates a new Yahoo client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = "https://query2.finance.yahoo.com"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		searchURL:  strings.TrimRight(cfg.SearchURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With().Str("client", "yahoo").Logger(),
	}
}

// chartResponse is the subset of /v8/finance/chart we read
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta map[string]interface{} `json:"meta"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type searchResponse struct {
	Quotes []map[string]interface{} `json:"quotes"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price          map[string]interface{} `json:"price"`
			SummaryProfile map[string]interface{} `json:"summaryProfile"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Quote fetches price fields for one symbol from the chart endpoint
func (c *Client) Quote(ctx context.Context, symbol string) (*quote.Record, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d",
		c.baseURL, url.PathEscape(symbol))

	var resp chartResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil || len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", quote.ErrSymbolNotFound, symbol)
	}

	meta := resp.Chart.Result[0].Meta
	rec := &quote.Record{
		Symbol:                     getString(meta, "symbol", symbol),
		RegularMarketPrice:         getFloat64(meta, "regularMarketPrice"),
		PreviousClose:              firstFloat64(meta, "regularMarketPreviousClose", "previousClose", "chartPreviousClose"),
		RegularMarketChange:        getFloat64(meta, "regularMarketChange"),
		RegularMarketChangePercent: getFloat64(meta, "regularMarketChangePercent"),
	}
	return rec, nil
}

// Search returns equity-like matches carrying a symbol and a name
func (c *Client) Search(ctx context.Context, query string, limit int) ([]quote.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("quotesCount", strconv.Itoa(limit))
	params.Set("newsCount", "0")
	endpoint := c.searchURL + "/v1/finance/search?" + params.Encode()

	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	results := []quote.SearchResult{}
	for _, q := range resp.Quotes {
		symbol := getString(q, "symbol", "")
		name := getString(q, "shortname", "")
		if name == "" {
			name = getString(q, "longname", "")
		}
		if symbol == "" || name == "" {
			continue
		}
		exchange := getString(q, "exchDisp", "")
		if exchange == "" {
			exchange = getString(q, "exchange", "")
		}
		results = append(results, quote.SearchResult{Symbol: symbol, Name: name, Exchange: exchange})
	}
	return results, nil
}

// Company fetches the price and summaryProfile modules for one symbol
func (c *Client) Company(ctx context.Context, symbol string) (*quote.CompanyDetails, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price,summaryProfile",
		c.baseURL, url.PathEscape(symbol))

	var resp quoteSummaryResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil || len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", quote.ErrSymbolNotFound, symbol)
	}

	price := resp.QuoteSummary.Result[0].Price
	profile := resp.QuoteSummary.Result[0].SummaryProfile

	longName := getString(price, "longName", "")
	if longName == "" {
		longName = getString(price, "shortName", "")
	}

	return &quote.CompanyDetails{
		Price: quote.CompanyPrice{
			Symbol:                     getString(price, "symbol", symbol),
			LongName:                   longName,
			RegularMarketPrice:         getFloat64(price, "regularMarketPrice"),
			RegularMarketChange:        getFloat64(price, "regularMarketChange"),
			RegularMarketChangePercent: getFloat64(price, "regularMarketChangePercent"),
			ExchangeName:               getString(price, "exchangeName", ""),
		},
		SummaryProfile: quote.CompanyProfile{
			Sector:              getString(profile, "sector", ""),
			Industry:            getString(profile, "industry", ""),
			LongBusinessSummary: getString(profile, "longBusinessSummary", ""),
			Website:             getString(profile, "website", ""),
			Country:             getString(profile, "country", ""),
		},
	}, nil
}

// getJSON performs a GET and decodes the body into out.
// Not-found statuses map to quote.ErrSymbolNotFound, every other failure
// to quote.ErrUpstreamUnavailable.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", quote.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %w", quote.ErrUpstreamUnavailable, err)
		}
		return fmt.Errorf("%w: execute request: %v", quote.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", quote.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return quote.ErrSymbolNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status=%d", quote.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: unmarshal response: %v", quote.ErrUpstreamUnavailable, err)
	}
	return nil
}

// getFloat64 reads a number that may be plain or wrapped as {"raw": n, "fmt": "..."}
func getFloat64(m map[string]interface{}, key string) *float64 {
	val, ok := m[key]
	if !ok || val == nil {
		return nil
	}
	switch v := val.(type) {
	case float64:
		return &v
	case map[string]interface{}:
		return getFloat64(v, "raw")
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

func firstFloat64(m map[string]interface{}, keys ...string) *float64 {
	for _, k := range keys {
		if v := getFloat64(m, k); v != nil {
			return v
		}
	}
	return nil
}

func getString(m map[string]interface{}, key, fallback string) string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return fallback
}
