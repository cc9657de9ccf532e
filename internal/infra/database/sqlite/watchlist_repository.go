package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/sectorwatch/internal/domain/watchlist"
)

// WatchlistRepository implements watchlist.Repository on SQLite
type WatchlistRepository struct {
	db  *DB
	now func() time.Time
}

// NewWatchlistRepository creates a new WatchlistRepository
func NewWatchlistRepository(db *DB) *WatchlistRepository {
	return &WatchlistRepository{db: db, now: time.Now}
}

var _ watchlist.Repository = (*WatchlistRepository)(nil)

// runner is satisfied by *sql.DB and *sql.Tx
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *WatchlistRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

const itemColumns = `i.id, i.watchlist_id, i.symbol, i.name, i.exchange, i.added_at`

// Create inserts an empty watchlist
func (r *WatchlistRepository) Create(ctx context.Context, userID int64, name string) (*watchlist.Watchlist, error) {
	return r.CreateWithItems(ctx, userID, name, nil)
}

// CreateWithItems inserts a watchlist and its items in one transaction
func (r *WatchlistRepository) CreateWithItems(ctx context.Context, userID int64, name string, items []watchlist.NewItem) (*watchlist.Watchlist, error) {
	now := r.now().UTC()
	w := &watchlist.Watchlist{UserID: userID, Name: name, CreatedAt: now.Truncate(time.Millisecond), Items: []watchlist.Item{}}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, created_at) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
			userID, now.UnixMilli(),
		); err != nil {
			return fmt.Errorf("failed to ensure user: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO watchlists (user_id, name, created_at) VALUES (?, ?, ?)`,
			userID, name, now.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert watchlist: %w", err)
		}
		if w.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read watchlist id: %w", err)
		}

		if len(items) == 0 {
			return nil
		}
		if _, err := r.insertItems(ctx, tx, w.ID, items); err != nil {
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
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM watchlists
		WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlists: %w", err)
	}

	lists := []watchlist.Watchlist{}
	index := map[int64]int{}
	for rows.Next() {
		w, err := scanWatchlist(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[w.ID] = len(lists)
		lists = append(lists, *w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlists: %w", err)
	}

	if len(lists) == 0 {
		return lists, nil
	}

	itemRows, err := r.db.conn.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM watchlist_items i
		JOIN watchlists w ON w.id = i.watchlist_id
		WHERE w.user_id = ?
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
	row := r.db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM watchlists
		WHERE id = ? AND user_id = ?
	`, watchlistID, userID)

	w, err := scanWatchlist(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, watchlist.ErrWatchlistNotFound
		}
		return nil, err
	}

	items, err := loadItems(ctx, r.db.conn, userID, watchlistID)
	if err != nil {
		return nil, err
	}
	w.Items = items

	return w, nil
}

// AddItem inserts an item or returns the existing row for the same symbol.
// The UNIQUE (watchlist_id, symbol) constraint decides which add wins.
func (r *WatchlistRepository) AddItem(ctx context.Context, userID, watchlistID int64, item watchlist.NewItem) (*watchlist.Item, bool, error) {
	item = item.Normalize()

	row := r.db.conn.QueryRowContext(ctx, `
		INSERT INTO watchlist_items (watchlist_id, symbol, name, exchange, added_at)
		SELECT w.id, ?, ?, ?, ?
		FROM watchlists w
		WHERE w.id = ? AND w.user_id = ?
		ON CONFLICT (watchlist_id, symbol) DO NOTHING
		RETURNING id, watchlist_id, symbol, name, exchange, added_at
	`, item.Symbol, item.Name, item.Exchange, r.now().UTC().UnixMilli(), watchlistID, userID)

	created, err := scanItem(row)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	row = r.db.conn.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM watchlist_items i
		JOIN watchlists w ON w.id = i.watchlist_id
		WHERE i.watchlist_id = ? AND w.user_id = ? AND i.symbol = ?
	`, watchlistID, userID, item.Symbol)

	existing, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, watchlist.ErrWatchlistNotFound
		}
		return nil, false, err
	}
	return existing, false, nil
}

// BulkAddItems inserts items, skipping symbols already present
func (r *WatchlistRepository) BulkAddItems(ctx context.Context, userID, watchlistID int64, items []watchlist.NewItem) (int, error) {
	var inserted int

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureOwned(ctx, tx, userID, watchlistID); err != nil {
			return err
		}
		n, err := r.insertItems(ctx, tx, watchlistID, items)
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
	if err := ensureOwned(ctx, r.db.conn, userID, watchlistID); err != nil {
		return err
	}

	res, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM watchlist_items WHERE id = ? AND watchlist_id = ?`,
		itemID, watchlistID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return watchlist.ErrItemNotFound
	}
	return nil
}

// Delete deletes an owned watchlist and its items
func (r *WatchlistRepository) Delete(ctx context.Context, userID, watchlistID int64) error {
	res, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM watchlists WHERE id = ? AND user_id = ?`,
		watchlistID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return watchlist.ErrWatchlistNotFound
	}
	return nil
}

// DeleteUser deletes a user and everything they own
func (r *WatchlistRepository) DeleteUser(ctx context.Context, userID int64) error {
	if _, err := r.db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *WatchlistRepository) insertItems(ctx context.Context, tx *sql.Tx, watchlistID int64, items []watchlist.NewItem) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO watchlist_items (watchlist_id, symbol, name, exchange, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (watchlist_id, symbol) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	addedAt := r.now().UTC().UnixMilli()
	inserted := 0
	for _, it := range items {
		it = it.Normalize()
		if it.Symbol == "" {
			continue
		}
		res, err := stmt.ExecContext(ctx, watchlistID, it.Symbol, it.Name, it.Exchange, addedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to insert watchlist item: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	return inserted, nil
}

func ensureOwned(ctx context.Context, q runner, userID, watchlistID int64) error {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM watchlists WHERE id = ? AND user_id = ?)`,
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

func loadItems(ctx context.Context, q runner, userID, watchlistID int64) ([]watchlist.Item, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM watchlist_items i
		JOIN watchlists w ON w.id = i.watchlist_id
		WHERE i.watchlist_id = ? AND w.user_id = ?
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

func scanWatchlist(s scanner) (*watchlist.Watchlist, error) {
	var w watchlist.Watchlist
	var createdAt int64
	if err := s.Scan(&w.ID, &w.UserID, &w.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan watchlist: %w", err)
	}
	w.CreatedAt = time.UnixMilli(createdAt).UTC()
	w.Items = []watchlist.Item{}
	return &w, nil
}

func scanItem(s scanner) (*watchlist.Item, error) {
	var it watchlist.Item
	var addedAt int64
	if err := s.Scan(&it.ID, &it.WatchlistID, &it.Symbol, &it.Name, &it.Exchange, &addedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
	}
	it.AddedAt = time.UnixMilli(addedAt).UTC()
	return &it, nil
}
