package watchlist

import "context"

// Repository persists watchlists and their items.
// Every method is scoped to userID: a watchlist owned by someone else
// behaves exactly like a missing one (ErrWatchlistNotFound).
type Repository interface {
	// Create inserts an empty watchlist
	Create(ctx context.Context, userID int64, name string) (*Watchlist, error)

	// CreateWithItems inserts a watchlist and its first items in one transaction
	CreateWithItems(ctx context.Context, userID int64, name string, items []NewItem) (*Watchlist, error)

	// ListForUser returns all watchlists of a user with their items, oldest first
	ListForUser(ctx context.Context, userID int64) ([]Watchlist, error)

	// Get returns one watchlist with its items
	Get(ctx context.Context, userID, watchlistID int64) (*Watchlist, error)

	// AddItem inserts an item or returns the existing row for the same symbol.
	// created is false when the symbol was already present.
	AddItem(ctx context.Context, userID, watchlistID int64, item NewItem) (result *Item, created bool, err error)

	// BulkAddItems inserts items, silently skipping symbols already present.
	// Returns the number of rows actually inserted.
	BulkAddItems(ctx context.Context, userID, watchlistID int64, items []NewItem) (int, error)

	// RemoveItem deletes one item
	RemoveItem(ctx context.Context, userID, watchlistID, itemID int64) error

	// Delete deletes a watchlist and, by cascade, its items
	Delete(ctx context.Context, userID, watchlistID int64) error

	// DeleteUser deletes a user and, by cascade, their watchlists
	DeleteUser(ctx context.Context, userID int64) error
}
