package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wonny/sectorwatch/internal/domain/watchlist"
)

// WatchlistRepository implements watchlist.Repository using PostgreSQL
type WatchlistRepository struct {
	pool *Pool
}

// NewWatchlistRepository creates a new WatchlistRepository
func NewWatchlistRepository(pool *Pool) *WatchlistRepository {
	return &WatchlistRepository{pool: pool}
}

var _ watchlist.Repository = (*WatchlistRepository)(nil)

// querier is satisfied by both *Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func withTx(ctx context.Context, p *Pool, fn func(pgx.Tx) error) (err error) {
	tx, err := p.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const itemColumns = `i.id, i.watchlist_id, i.symbol, i.name, i.exchange, i.added_at`

// Create inserts an empty watchlist
func (r *WatchlistRepository) Create(ctx context.Context, userID int64, name string) (*watchlist.Watchlist, error) {
	return r.CreateWithItems(ctx, userID, name, nil)
}

// CreateWithItems inserts a watchlist and its items in one transaction
func (r *WatchlistRepository) CreateWithItems(ctx context.Context, userID int64, name string, items []watchlist.NewItem) (*watchlist.Watchlist, error) {
	var w *watchlist.Watchlist

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, userID,
		); err != nil {
			return fmt.Errorf("failed to ensure user: %w", err)
		}

		w = &watchlist.Watchlist{UserID: userID, Name: name, Items: []watchlist.Item{}}
		if err := tx.QueryRow(ctx, `
			INSERT INTO watchlists (user_id, name)
			VALUES ($1, $2)
			RETURNING id, created_at
		`, userID, name).Scan(&w.ID, &w.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert watchlist: %w", err)
		}

		if len(items) == 0 {
			return nil
		}
		if _, err := insertItems(ctx, tx, w.ID, items); err != nil {
			return err
		}

		loaded, err := loadItems(ctx, tx, userID, w.ID)
		if err != nil {
			return err
		}
		w.Items = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	return w, nil
}

// ListForUser returns all watchlists of a user with their items
func (r *WatchlistRepository) ListForUser(ctx context.Context, userID int64) ([]watchlist.Watchlist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, created_at
		FROM watchlists
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlists: %w", err)
	}
	defer rows.Close()

	lists := []watchlist.Watchlist{}
	index := map[int64]int{}
	for rows.Next() {
		var w watchlist.Watchlist
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist: %w", err)
		}
		w.Items = []watchlist.Item{}
		index[w.ID] = len(lists)
		lists = append(lists, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlists: %w", err)
	}

	if len(lists) == 0 {
		return lists, nil
	}

	itemRows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM watchlist_items i
		JOIN watchlists w ON w.id = i.watchlist_id
		WHERE w.user_id = $1
		ORDER BY i.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		it, err := scanItem(itemRows)
		if err != nil {
			return nil, err
		}
		if pos, ok := index[it.WatchlistID]; ok {
			lists[pos].Items = append(lists[pos].Items, *it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist items: %w", err)
	}

	return lists, nil
}

// Get returns one owned watchlist with its items
func (r *WatchlistRepository) Get(ctx context.Context, userID, watchlistID int64) (*watchlist.Watchlist, error) {
	var w watchlist.Watchlist
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, created_at
		FROM watchlists
		WHERE id = $1 AND user_id = $2
	`, watchlistID, userID).Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, watchlist.ErrWatchlistNotFound
		}
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}

	items, err := loadItems(ctx, r.pool, userID, watchlistID)
	if err != nil {
		return nil, err
	}
	w.Items = items

	return &w, nil
}

// AddItem inserts an item or returns the existing row for the same symbol.
// The unique constraint decides; two concurrent adds yield one row.
func (r *WatchlistRepository) AddItem(ctx context.Context, userID, watchlistID int64, item watchlist.NewItem) (*watchlist.Item, bool, error) {
	item = item.Normalize()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO watchlist_items (watchlist_id, symbol, name, exchange)
		SELECT w.id, $3, $4, $5
		FROM watchlists w
		WHERE w.id = $1 AND w.user_id = $2
		ON CONFLICT (watchlist_id, symbol) DO NOTHING
		RETURNING id, watchlist_id, symbol, name, exchange, added_at
	`, watchlistID, userID, item.Symbol, item.Name, item.Exchange)

	created, err := scanItem(row)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Nothing inserted: either the symbol exists or the watchlist is not ours
	row = r.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM watchlist_items i
		JOIN watchlists w ON w.id = i.watchlist_id
		WHERE i.watchlist_id = $1 AND w.user_id = $2 AND i.symbol = $3
	`, watchlistID, userID, item.Symbol)

	existing, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, watchlist.ErrWatchlistNotFound
		}
		return nil, false, err
	}
	return existing, false, nil
}

// BulkAddItems inserts items, skipping symbols already present
func (r *WatchlistRepository) BulkAddItems(ctx context.Context, userID, watchlistID int64, items []watchlist.NewItem) (int, error) {
	var inserted int

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.ensureOwned(ctx, tx, userID, watchlistID); err != nil {
			return err
		}
		n, err := insertItems(ctx, tx, watchlistID, items)
		inserted = n
		return err
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// RemoveItem deletes one item of an owned watchlist
func (r *WatchlistRepository) RemoveItem(ctx context.Context, userID, watchlistID, itemID int64) error {
	if err := r.ensureOwned(ctx, r.pool, userID, watchlistID); err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM watchlist_items WHERE id = $1 AND watchlist_id = $2`,
		itemID, watchlistID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return watchlist.ErrItemNotFound
	}
	return nil
}

// Delete deletes an owned watchlist; items go with it via ON DELETE CASCADE
func (r *WatchlistRepository) Delete(ctx context.Context, userID, watchlistID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM watchlists WHERE id = $1 AND user_id = $2`,
		watchlistID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return watchlist.ErrWatchlistNotFound
	}
	return nil
}

// DeleteUser deletes a user and everything they own
func (r *WatchlistRepository) DeleteUser(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *WatchlistRepository) ensureOwned(ctx context.Context, q querier, userID, watchlistID int64) error {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM watchlists WHERE id = $1 AND user_id = $2)`,
		watchlistID, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check watchlist owner: %w", err)
	}
	if !exists {
		return watchlist.ErrWatchlistNotFound
	}
	return nil
}

// insertItems sends one INSERT per item in a single batch round trip
func insertItems(ctx context.Context, tx pgx.Tx, watchlistID int64, items []watchlist.NewItem) (int, error) {
	batch := &pgx.Batch{}
	for _, it := range items {
		it = it.Normalize()
		if it.Symbol == "" {
			continue
		}
		batch.Queue(`
			INSERT INTO watchlist_items (watchlist_id, symbol, name, exchange)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (watchlist_id, symbol) DO NOTHING
		`, watchlistID, it.Symbol, it.Name, it.Exchange)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	results := tx.SendBatch(ctx, batch)
	inserted := 0
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("failed to insert watchlist item: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	return inserted, nil
}

func loadItems(ctx context.Context, q querier, userID, watchlistID int64) ([]watchlist.Item, error) {
	rows, err := q.Query(ctx, `
		SELECT `+itemColumns+`
		FROM watchlist_items i
		JOIN watchlists w ON w.id = i.watchlist_id
		WHERE i.watchlist_id = $1 AND w.user_id = $2
		ORDER BY i.id
	`, watchlistID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist items: %w", err)
	}
	defer rows.Close()

	items := []watchlist.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist items: %w", err)
	}
	return items, nil
}

func scanItem(row pgx.Row) (*watchlist.Item, error) {
	var it watchlist.Item
	if err := row.Scan(&it.ID, &it.WatchlistID, &it.Symbol, &it.Name, &it.Exchange, &it.AddedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
	}
	return &it, nil
}
