// Package quotes turns per-symbol provider calls into request-scoped
// snapshots. Provider failures never escape: an affected symbol gets an
// empty snapshot and the rest of the batch proceeds.
package quotes

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wonny/sectorwatch/internal/domain/quote"
	"github.com/wonny/sectorwatch/internal/domain/watchlist"
	"github.com/wonny/sectorwatch/internal/pkg/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Config bounds upstream calls
type Config struct {
	Timeout     time.Duration // per symbol
	Concurrency int           // max in-flight symbols per batch
}

// Gateway wraps a quote.Provider
type Gateway struct {
	provider    quote.Provider
	timeout     time.Duration
	concurrency int
	sf          singleflight.Group
	log         zerolog.Logger
}

// NewGateway creates a Gateway
func NewGateway(provider quote.Provider, cfg Config) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Gateway{
		provider:    provider,
		timeout:     cfg.Timeout,
		concurrency: cfg.Concurrency,
		log:         logger.Component("quotes"),
	}
}

// FetchOne returns the snapshot for one symbol; all price fields nil on
// failure or when ctx ends first
func (g *Gateway) FetchOne(ctx context.Context, symbol string) quote.Snapshot {
	symbol = watchlist.NormalizeSymbol(symbol)
	if symbol == "" {
		return quote.Snapshot{}
	}
	absent := quote.Snapshot{Symbol: symbol}
	if ctx.Err() != nil {
		return absent
	}

	// Concurrent requests for the same symbol share one upstream call.
	// The shared call is detached from any single caller's cancellation
	// but still bounded by the gateway timeout.
	ch := g.sf.DoChan(symbol, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		return g.provider.Quote(callCtx, symbol)
	})

	select {
	case <-ctx.Done():
		g.log.Debug().Err(ctx.Err()).Str("symbol", symbol).Msg("Quote abandoned")
		return absent
	case res := <-ch:
		if res.Err != nil {
			g.log.Warn().Err(res.Err).Str("symbol", symbol).Msg("Quote unavailable")
			return absent
		}
		rec, _ := res.Val.(*quote.Record)
		snap := Derive(rec)
		snap.Symbol = symbol
		return snap
	}
}

type fetched struct {
	symbol string
	snap   quote.Snapshot
}

// FetchMany returns a snapshot for every distinct requested symbol, keyed
// by the symbol as given with surrounding whitespace trimmed. Symbols are
// fetched concurrently. Once ctx ends no further symbols go upstream and
// the unfetched ones get absent snapshots.
func (g *Gateway) FetchMany(ctx context.Context, symbols []string) map[string]quote.Snapshot {
	out := make(map[string]quote.Snapshot, len(symbols))

	// normalized symbol -> requested keys
	keysBySymbol := map[string][]string{}
	for _, s := range symbols {
		key := strings.TrimSpace(s)
		if _, dup := out[key]; dup {
			continue
		}
		out[key] = quote.Snapshot{}
		if norm := watchlist.NormalizeSymbol(key); norm != "" {
			keysBySymbol[norm] = append(keysBySymbol[norm], key)
		}
	}

	results := make(map[string]quote.Snapshot, len(keysBySymbol))
	resultCh := make(chan fetched, len(keysBySymbol))

	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	for symbol := range keysBySymbol {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			resultCh <- fetched{symbol: symbol, snap: g.FetchOne(ctx, symbol)}
			return nil
		})
	}
	_ = eg.Wait()
	close(resultCh)

	for r := range resultCh {
		results[r.symbol] = r.snap
	}
	if err := ctx.Err(); err != nil {
		g.log.Warn().Err(err).
			Int("requested", len(keysBySymbol)).
			Int("scheduled", len(results)).
			Msg("Quote batch cut short")
	}
	for symbol, keys := range keysBySymbol {
		snap, ok := results[symbol]
		if !ok {
			snap = quote.Snapshot{Symbol: symbol}
		}
		for _, key := range keys {
			out[key] = snap
		}
	}

	return out
}
