package watchlist

import (
	"strings"
	"time"
)

// Watchlist is a named list of symbols owned by a single user
// Maps to watchlists table
type Watchlist struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Items     []Item    `json:"items"`
}

// Item is one symbol inside a watchlist
// Maps to watchlist_items table, unique on (watchlist_id, symbol)
type Item struct {
	ID          int64     `json:"id" db:"id"`
	WatchlistID int64     `json:"watchlist_id" db:"watchlist_id"`
	Symbol      string    `json:"symbol" db:"symbol"`
	Name        string    `json:"name" db:"name"`
	Exchange    string    `json:"exchange" db:"exchange"`
	AddedAt     time.Time `json:"added_at" db:"added_at"`
}

// NewItem is the input for AddItem and BulkAddItems
type NewItem struct {
	Symbol   string
	Name     string
	Exchange string
}

// Symbols returns the symbols currently held by the watchlist
func (w *Watchlist) Symbols() []string {
	out := make([]string, 0, len(w.Items))
	for _, it := range w.Items {
		out = append(out, it.Symbol)
	}
	return out
}

// SymbolSet returns the held symbols as a set for exclusion lookups
func (w *Watchlist) SymbolSet() map[string]struct{} {
	set := make(map[string]struct{}, len(w.Items))
	for _, it := range w.Items {
		set[NormalizeSymbol(it.Symbol)] = struct{}{}
	}
	return set
}

// NormalizeSymbol trims and upper-cases a ticker
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Normalize returns a copy with trimmed fields and a normalized symbol
func (n NewItem) Normalize() NewItem {
	return NewItem{
		Symbol:   NormalizeSymbol(n.Symbol),
		Name:     strings.TrimSpace(n.Name),
		Exchange: strings.TrimSpace(n.Exchange),
	}
}
