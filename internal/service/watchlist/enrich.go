package watchlist

import (
	"context"

	"github.com/wonny/sectorwatch/internal/domain/quote"
	domain "github.com/wonny/sectorwatch/internal/domain/watchlist"
)

// QuoteSource is the part of the quote gateway enrichment needs
type QuoteSource interface {
	FetchOne(ctx context.Context, symbol string) quote.Snapshot
	FetchMany(ctx context.Context, symbols []string) map[string]quote.Snapshot
}

// WatchlistView is the externally visible watchlist
type WatchlistView struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	Items []ItemView `json:"items"`
}

// ItemView is a watchlist item with live price fields
type ItemView struct {
	ID            int64    `json:"id"`
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	CurrentPrice  *float64 `json:"currentPrice"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"changePercent"`
}

// Enricher attaches quotes to stored watchlists. It never writes to the store.
type Enricher struct {
	quotes QuoteSource
}

func NewEnricher(quotes QuoteSource) *Enricher {
	return &Enricher{quotes: quotes}
}

// Enrich builds the view of one watchlist
func (e *Enricher) Enrich(ctx context.Context, w *domain.Watchlist) WatchlistView {
	views := e.EnrichAll(ctx, []domain.Watchlist{*w})
	return views[0]
}

// EnrichAll builds views for several watchlists with one batched quote fetch
func (e *Enricher) EnrichAll(ctx context.Context, lists []domain.Watchlist) []WatchlistView {
	var symbols []string
	for _, w := range lists {
		symbols = append(symbols, w.Symbols()...)
	}

	snaps := map[string]quote.Snapshot{}
	if len(symbols) > 0 {
		snaps = e.quotes.FetchMany(ctx, symbols)
	}

	views := make([]WatchlistView, 0, len(lists))
	for _, w := range lists {
		view := WatchlistView{ID: w.ID, Name: w.Name, Items: make([]ItemView, 0, len(w.Items))}
		for _, it := range w.Items {
			view.Items = append(view.Items, itemView(it, snaps[it.Symbol]))
		}
		views = append(views, view)
	}
	return views
}

// EnrichItem builds the view of a single item
func (e *Enricher) EnrichItem(ctx context.Context, it *domain.Item) ItemView {
	return itemView(*it, e.quotes.FetchOne(ctx, it.Symbol))
}

func itemView(it domain.Item, snap quote.Snapshot) ItemView {
	return ItemView{
		ID:            it.ID,
		Symbol:        it.Symbol,
		Name:          it.Name,
		CurrentPrice:  snap.CurrentPrice,
		Change:        snap.Change,
		ChangePercent: snap.ChangePercent,
	}
}
