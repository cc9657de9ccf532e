// Package yfinance adapts github.com/wnjoon/go-yfinance to the quote
// provider interfaces.
package yfinance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/lookup"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/wonny/sectorwatch/internal/domain/quote"
)

// tickerData is the subset of ticker quote and info fields we read
type tickerData struct {
	RegularMarketPrice float64
	PreMarketPrice     float64
	PostMarketPrice    float64
	CurrentPrice       float64
	PreviousClose      float64

	LongName  string
	ShortName string
	Exchange  string
	Industry  string
	Country   string
}

type (
	tickerLoader func(symbol string) (*tickerData, error)
	symbolLookup func(query string, limit int) ([]string, error)
)

// Client fetches quotes through go-yfinance
type Client struct {
	load   tickerLoader
	lookup symbolLookup
	log    zerolog.Logger
}

// NewClient creates a new go-yfinance backed client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		load:   loadTicker,
		lookup: lookupSymbols,
		log:    log.With().Str("client", "yfinance").Logger(),
	}
}

// Quote implements quote.Provider
func (c *Client) Quote(ctx context.Context, symbol string) (*quote.Record, error) {
	data, err := c.loadContext(ctx, symbol)
	if err != nil {
		return nil, err
	}

	rec := &quote.Record{Symbol: symbol}
	if price := data.price(); price > 0 {
		rec.RegularMarketPrice = quote.Float(price)
	}
	if data.PreviousClose > 0 {
		rec.PreviousClose = quote.Float(data.PreviousClose)
	}
	if rec.RegularMarketPrice == nil && rec.PreviousClose == nil {
		return nil, fmt.Errorf("%w: %s", quote.ErrSymbolNotFound, symbol)
	}
	return rec, nil
}

// Company returns name, listing and profile data. Sector is not available
// from the ticker info, so only industry is filled.
func (c *Client) Company(ctx context.Context, symbol string) (*quote.CompanyDetails, error) {
	data, err := c.loadContext(ctx, symbol)
	if err != nil {
		return nil, err
	}

	name := data.LongName
	if name == "" {
		name = data.ShortName
	}
	if name == "" {
		return nil, fmt.Errorf("%w: %s", quote.ErrSymbolNotFound, symbol)
	}

	details := &quote.CompanyDetails{
		Price: quote.CompanyPrice{
			Symbol:       symbol,
			LongName:     name,
			ExchangeName: data.Exchange,
		},
		SummaryProfile: quote.CompanyProfile{
			Industry: data.Industry,
			Country:  data.Country,
		},
	}
	if price := data.price(); price > 0 {
		details.Price.RegularMarketPrice = quote.Float(price)
		if data.PreviousClose > 0 {
			details.Price.RegularMarketChange = quote.Float(price - data.PreviousClose)
			details.Price.RegularMarketChangePercent = quote.Float((price - data.PreviousClose) / data.PreviousClose * 100)
		}
	}
	return details, nil
}

// Search returns equity symbols matching query. Names are left to the
// caller since the lookup endpoint only yields tickers.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	type result struct {
		symbols []string
		err     error
	}
	done := make(chan result, 1)
	go func() {
		symbols, err := c.lookup(query, limit)
		done <- result{symbols, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: lookup %q: %v", quote.ErrUpstreamUnavailable, query, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: lookup %q: %v", quote.ErrUpstreamUnavailable, query, r.err)
		}
		return r.symbols, nil
	}
}

// loadContext runs the blocking library call and gives up when ctx ends.
// The library call itself keeps running until it returns.
func (c *Client) loadContext(ctx context.Context, symbol string) (*tickerData, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", quote.ErrSymbolNotFound)
	}

	type result struct {
		data *tickerData
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := c.load(symbol)
		done <- result{data, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", quote.ErrUpstreamUnavailable, symbol, ctx.Err())
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, quote.ErrSymbolNotFound) {
				return nil, r.err
			}
			c.log.Debug().Err(r.err).Str("symbol", symbol).Msg("Ticker load failed")
			return nil, fmt.Errorf("%w: %s: %v", quote.ErrUpstreamUnavailable, symbol, r.err)
		}
		return r.data, nil
	}
}

// price prefers the regular session, then pre/post market, then info
func (d *tickerData) price() float64 {
	for _, p := range []float64{d.RegularMarketPrice, d.PreMarketPrice, d.PostMarketPrice, d.CurrentPrice} {
		if p > 0 {
			return p
		}
	}
	return 0
}

func loadTicker(symbol string) (*tickerData, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("create ticker: %w", err)
	}
	defer t.Close()

	data := &tickerData{}
	q, quoteErr := t.Quote()
	if quoteErr == nil && q != nil {
		data.RegularMarketPrice = q.RegularMarketPrice
		data.PreMarketPrice = q.PreMarketPrice
		data.PostMarketPrice = q.PostMarketPrice
	}

	info, infoErr := t.Info()
	if infoErr == nil && info != nil {
		data.CurrentPrice = info.CurrentPrice
		data.PreviousClose = info.RegularMarketPreviousClose
		data.LongName = info.LongName
		data.ShortName = info.ShortName
		data.Exchange = info.Exchange
		data.Industry = info.Industry
		data.Country = info.Country
	}

	if quoteErr != nil && infoErr != nil {
		return nil, fmt.Errorf("quote: %v; info: %w", quoteErr, infoErr)
	}
	return data, nil
}

func lookupSymbols(query string, limit int) ([]string, error) {
	l, err := lookup.New(query)
	if err != nil {
		return nil, fmt.Errorf("create lookup: %w", err)
	}
	defer l.Close()

	results, err := l.Stock(limit)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(results))
	for _, r := range results {
		if r.Symbol != "" {
			symbols = append(symbols, r.Symbol)
		}
	}
	return symbols, nil
}
