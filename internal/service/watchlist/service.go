// Package watchlist reconciles stored watchlists, the sector reference
// table and live quotes into the views served over HTTP.
package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wonny/sectorwatch/internal/domain/quote"
	domain "github.com/wonny/sectorwatch/internal/domain/watchlist"
	"github.com/wonny/sectorwatch/internal/pkg/logger"
	"github.com/wonny/sectorwatch/internal/service/reference"
)

// Default sample sizes when num_companies is omitted
const (
	DefaultAddRandomCount    = 10
	DefaultCreateRandomCount = 5
)

const searchLimit = 10

// ReferenceSource is the read side of the reference table
type ReferenceSource interface {
	SectorRows
	Sectors() []string
}

// Service implements watchlist operations
type Service struct {
	repo      domain.Repository
	reference ReferenceSource
	sampler   *Sampler
	enricher  *Enricher
	quotes    QuoteSource
	directory quote.Directory
	log       zerolog.Logger
}

// NewService creates a new watchlist service
func NewService(
	repo domain.Repository,
	ref ReferenceSource,
	sampler *Sampler,
	quotes QuoteSource,
	directory quote.Directory,
) *Service {
	return &Service{
		repo:      repo,
		reference: ref,
		sampler:   sampler,
		enricher:  NewEnricher(quotes),
		quotes:    quotes,
		directory: directory,
		log:       logger.Component("watchlist"),
	}
}

// List returns the user's watchlists with live prices
func (s *Service) List(ctx context.Context, userID int64) ([]WatchlistView, error) {
	lists, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list watchlists: %w", err)
	}
	return s.enricher.EnrichAll(ctx, lists), nil
}

// Get returns one watchlist with live prices
func (s *Service) Get(ctx context.Context, userID, watchlistID int64) (*WatchlistView, error) {
	w, err := s.repo.Get(ctx, userID, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("get watchlist %d: %w", watchlistID, err)
	}
	view := s.enricher.Enrich(ctx, w)
	return &view, nil
}

// Create creates an empty watchlist
func (s *Service) Create(ctx context.Context, userID int64, name string) (*WatchlistView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}

	w, err := s.repo.Create(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("create watchlist: %w", err)
	}

	s.log.Info().Int64("user_id", userID).Int64("watchlist_id", w.ID).Msg("Watchlist created")

	view := s.enricher.Enrich(ctx, w)
	return &view, nil
}

// CreateWithRandom creates a watchlist filled with count random companies
// from sector, in one transaction
func (s *Service) CreateWithRandom(ctx context.Context, userID int64, name, sector string, count int) (*WatchlistView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}

	rows, err := s.sampler.Sample(sector, count, nil)
	if err != nil {
		return nil, err
	}

	w, err := s.repo.CreateWithItems(ctx, userID, name, toNewItems(rows))
	if err != nil {
		return nil, fmt.Errorf("create watchlist with items: %w", err)
	}

	s.log.Info().
		Int64("user_id", userID).
		Int64("watchlist_id", w.ID).
		Str("sector", sector).
		Int("items", len(w.Items)).
		Msg("Watchlist created from sector sample")

	view := s.enricher.Enrich(ctx, w)
	return &view, nil
}

// AddItem adds one symbol; created is false when it was already present
func (s *Service) AddItem(ctx context.Context, userID, watchlistID int64, in domain.NewItem) (*ItemView, bool, error) {
	in = in.Normalize()
	if in.Symbol == "" {
		return nil, false, domain.NewValidationError("symbol", "is required")
	}
	if in.Name == "" {
		return nil, false, domain.NewValidationError("name", "is required")
	}

	item, created, err := s.repo.AddItem(ctx, userID, watchlistID, in)
	if err != nil {
		return nil, false, fmt.Errorf("add item to watchlist %d: %w", watchlistID, err)
	}

	view := s.enricher.EnrichItem(ctx, item)
	return &view, created, nil
}

// AddRandom adds up to count random companies of sector that the watchlist
// does not hold yet, and returns the refreshed watchlist
func (s *Service) AddRandom(ctx context.Context, userID, watchlistID int64, sector string, count int) (*WatchlistView, int, error) {
	if err := ValidateCount(count); err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(sector) == "" {
		return nil, 0, domain.NewValidationError("sector", "is required")
	}

	w, err := s.repo.Get(ctx, userID, watchlistID)
	if err != nil {
		return nil, 0, fmt.Errorf("get watchlist %d: %w", watchlistID, err)
	}

	rows, err := s.sampler.Sample(sector, count, w.SymbolSet())
	if err != nil {
		return nil, 0, err
	}

	added, err := s.repo.BulkAddItems(ctx, userID, watchlistID, toNewItems(rows))
	if err != nil {
		return nil, 0, fmt.Errorf("add sampled items to watchlist %d: %w", watchlistID, err)
	}

	s.log.Info().
		Int64("watchlist_id", watchlistID).
		Str("sector", sector).
		Int("requested", count).
		Int("added", added).
		Msg("Random companies added")

	view, err := s.Get(ctx, userID, watchlistID)
	if err != nil {
		return nil, 0, err
	}
	return view, added, nil
}

// RemoveItem removes one item
func (s *Service) RemoveItem(ctx context.Context, userID, watchlistID, itemID int64) error {
	if err := s.repo.RemoveItem(ctx, userID, watchlistID, itemID); err != nil {
		return fmt.Errorf("remove item %d: %w", itemID, err)
	}
	return nil
}

// Delete deletes a watchlist and its items
func (s *Service) Delete(ctx context.Context, userID, watchlistID int64) error {
	if err := s.repo.Delete(ctx, userID, watchlistID); err != nil {
		return fmt.Errorf("delete watchlist %d: %w", watchlistID, err)
	}
	s.log.Info().Int64("user_id", userID).Int64("watchlist_id", watchlistID).Msg("Watchlist deleted")
	return nil
}

// Sectors lists the distinct reference sectors
func (s *Service) Sectors() []string {
	return s.reference.Sectors()
}

// CompaniesInSector lists the reference rows of a sector
func (s *Service) CompaniesInSector(sector string) ([]reference.Row, error) {
	if strings.TrimSpace(sector) == "" {
		return nil, domain.NewValidationError("sector", "is required")
	}
	rows := s.reference.RowsForSector(sector)
	if len(rows) == 0 {
		return nil, domain.ErrUnknownSector
	}
	return rows, nil
}

// Prices returns a snapshot for every non-blank requested symbol, keyed by
// the trimmed symbol
func (s *Service) Prices(ctx context.Context, symbols []string) (map[string]quote.Snapshot, error) {
	var cleaned []string
	for _, sym := range symbols {
		if sym = strings.TrimSpace(sym); sym != "" {
			cleaned = append(cleaned, sym)
		}
	}
	if len(cleaned) == 0 {
		return nil, domain.NewValidationError("symbols", "at least one symbol is required")
	}
	return s.quotes.FetchMany(ctx, cleaned), nil
}

// Search looks up symbols by free text
func (s *Service) Search(ctx context.Context, query string) ([]quote.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("q", "is required")
	}

	results, err := s.directory.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return results, nil
}

// CompanyDetails returns price and profile data for a symbol
func (s *Service) CompanyDetails(ctx context.Context, symbol string) (*quote.CompanyDetails, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.NewValidationError("symbol", "is required")
	}

	details, err := s.directory.Company(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("company %s: %w", symbol, err)
	}
	return details, nil
}

// ParseCount reads num_companies from a decoded JSON value.
// nil means def; numbers and numeric strings are accepted; anything that is
// not a whole number is a ValidationError. Range is checked by the sampler.
func ParseCount(raw any, def int) (int, error) {
	invalid := domain.NewValidationError("num_companies", "must be an integer")

	switch v := raw.(type) {
	case nil:
		return def, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return floatCount(v, invalid)
	case json.Number:
		return parseCountString(v.String(), invalid)
	case string:
		if strings.TrimSpace(v) == "" {
			return def, nil
		}
		return parseCountString(v, invalid)
	default:
		return 0, invalid
	}
}

func parseCountString(s string, invalid error) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, invalid
	}
	return floatCount(f, invalid)
}

// floatCount accepts whole floats; values beyond int32 are clamped so the
// range check reports them
func floatCount(f float64, invalid error) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, invalid
	}
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32, nil
	case f < math.MinInt32:
		return math.MinInt32, nil
	}
	return int(f), nil
}

func toNewItems(rows []reference.Row) []domain.NewItem {
	items := make([]domain.NewItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, domain.NewItem{Symbol: r.Symbol, Name: r.Name, Exchange: r.Exchange})
	}
	return items
}
