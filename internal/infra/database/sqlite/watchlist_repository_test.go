package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/sectorwatch/internal/domain/watchlist"
)

func newTestRepo(t *testing.T) *WatchlistRepository {
	t.Helper()
	db, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWatchlistRepository(db)
}

func TestCreateAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, 1, "Tech")
	require.NoError(t, err)
	b, err := repo.Create(ctx, 1, "Energy")
	require.NoError(t, err)
	_, err = repo.Create(ctx, 2, "Someone else")
	require.NoError(t, err)

	_, _, err = repo.AddItem(ctx, 1, a.ID, watchlist.NewItem{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ"})
	require.NoError(t, err)

	lists, err := repo.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, a.ID, lists[0].ID)
	assert.Equal(t, b.ID, lists[1].ID)
	assert.Len(t, lists[0].Items, 1)
	assert.Empty(t, lists[1].Items)
	assert.Equal(t, "NASDAQ", lists[0].Items[0].Exchange)
}

func TestAddItem_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w, err := repo.Create(ctx, 1, "Tech")
	require.NoError(t, err)

	first, created, err := repo.AddItem(ctx, 1, w.ID, watchlist.NewItem{Symbol: " aapl ", Name: "Apple Inc."})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "AAPL", first.Symbol)

	second, created, err := repo.AddItem(ctx, 1, w.ID, watchlist.NewItem{Symbol: "AAPL", Name: "Apple"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Apple Inc.", second.Name)

	got, err := repo.Get(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestAddItem_Concurrent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w, err := repo.Create(ctx, 1, "Race")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := repo.AddItem(ctx, 1, w.ID, watchlist.NewItem{Symbol: "MSFT"})
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	got, err := repo.Get(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestOwnershipIsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w, err := repo.Create(ctx, 1, "Mine")
	require.NoError(t, err)
	item, _, err := repo.AddItem(ctx, 1, w.ID, watchlist.NewItem{Symbol: "AAPL"})
	require.NoError(t, err)

	_, err = repo.Get(ctx, 2, w.ID)
	assert.ErrorIs(t, err, watchlist.ErrWatchlistNotFound)

	_, _, err = repo.AddItem(ctx, 2, w.ID, watchlist.NewItem{Symbol: "MSFT"})
	assert.ErrorIs(t, err, watchlist.ErrWatchlistNotFound)

	_, err = repo.BulkAddItems(ctx, 2, w.ID, []watchlist.NewItem{{Symbol: "MSFT"}})
	assert.ErrorIs(t, err, watchlist.ErrWatchlistNotFound)

	assert.ErrorIs(t, repo.RemoveItem(ctx, 2, w.ID, item.ID), watchlist.ErrWatchlistNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 2, w.ID), watchlist.ErrWatchlistNotFound)

	_, err = repo.Get(ctx, 1, 9999)
	assert.ErrorIs(t, err, watchlist.ErrWatchlistNotFound)
}

func TestRemoveItem(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w, err := repo.Create(ctx, 1, "Tech")
	require.NoError(t, err)
	item, _, err := repo.AddItem(ctx, 1, w.ID, watchlist.NewItem{Symbol: "AAPL"})
	require.NoError(t, err)

	require.NoError(t, repo.RemoveItem(ctx, 1, w.ID, item.ID))
	assert.ErrorIs(t, repo.RemoveItem(ctx, 1, w.ID, item.ID), watchlist.ErrItemNotFound)

	got, err := repo.Get(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestDelete_CascadesItems(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w, err := repo.CreateWithItems(ctx, 1, "Energy", []watchlist.NewItem{
		{Symbol: "XOM", Name: "Exxon"},
		{Symbol: "CVX", Name: "Chevron"},
	})
	require.NoError(t, err)
	require.Len(t, w.Items, 2)

	require.NoError(t, repo.Delete(ctx, 1, w.ID))

	_, err = repo.Get(ctx, 1, w.ID)
	assert.ErrorIs(t, err, watchlist.ErrWatchlistNotFound)

	var orphans int
	require.NoError(t, repo.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM watchlist_items WHERE watchlist_id = ?`, w.ID,
	).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestBulkAddItems_SkipsDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w, err := repo.Create(ctx, 1, "Bulk")
	require.NoError(t, err)
	_, _, err = repo.AddItem(ctx, 1, w.ID, watchlist.NewItem{Symbol: "AAPL"})
	require.NoError(t, err)

	n, err := repo.BulkAddItems(ctx, 1, w.ID, []watchlist.NewItem{
		{Symbol: "AAPL"}, {Symbol: "msft"}, {Symbol: "NVDA"}, {Symbol: "MSFT"}, {Symbol: " "},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.Get(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT", "NVDA"}, got.Symbols())
}

func TestDeleteUser_Cascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w, err := repo.CreateWithItems(ctx, 7, "Gone", []watchlist.NewItem{{Symbol: "AAPL"}})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUser(ctx, 7))

	lists, err := repo.ListForUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, lists)

	_, err = repo.Get(ctx, 7, w.ID)
	assert.ErrorIs(t, err, watchlist.ErrWatchlistNotFound)
}

func TestHealth(t *testing.T) {
	db, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	status := db.Health(context.Background())
	assert.True(t, status.IsHealthy())
	assert.Equal(t, "sqlite", status.Driver)
}
