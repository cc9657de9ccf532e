// Package reference serves the company reference table loaded from a
// delimiter-separated file, reloaded wholesale after a fixed TTL.
package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wonny/sectorwatch/internal/domain/watchlist"
	"github.com/wonny/sectorwatch/internal/pkg/logger"
)

// DefaultTTL is how long a loaded snapshot is reused
const DefaultTTL = 60 * time.Second

// Row is one company of the reference file
type Row struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Sector   string `json:"sector"`
}

// Config configures a Table
type Config struct {
	Path      string
	Delimiter rune
	TTL       time.Duration
}

// Table is the process-wide reference cache.
// The mutex covers the expiry check and the reload, so concurrent callers
// during expiry trigger exactly one reload and never see a partial snapshot.
type Table struct {
	path      string
	delimiter rune
	ttl       time.Duration
	now       func() time.Time
	log       zerolog.Logger

	mu       sync.Mutex
	rows     []Row
	loadedAt time.Time
	loaded   bool
	loads    int
}

// NewTable creates a Table; nothing is read until the first call
func NewTable(cfg Config) *Table {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ','
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Table{
		path:      cfg.Path,
		delimiter: cfg.Delimiter,
		ttl:       cfg.TTL,
		now:       time.Now,
		log:       logger.Component("reference"),
	}
}

// WithClock replaces the clock, for tests
func (t *Table) WithClock(now func() time.Time) *Table {
	t.now = now
	return t
}

// Load returns the current snapshot, reloading it if the TTL has elapsed.
// The returned slice is shared and must not be modified.
func (t *Table) Load() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.loaded && now.Sub(t.loadedAt) < t.ttl {
		return t.rows
	}

	rows, err := t.readFile()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		t.log.Warn().Str("path", t.path).Msg("Reference file not found, serving empty table")
		rows = []Row{}
	case err != nil:
		// Keep serving the previous snapshot; retry after another TTL
		t.log.Error().Err(err).Str("path", t.path).Msg("Failed to load reference file")
		if t.rows == nil {
			t.rows = []Row{}
		}
		t.loadedAt = now
		t.loaded = true
		return t.rows
	}

	t.rows = rows
	t.loadedAt = now
	t.loaded = true
	t.loads++

	t.log.Debug().Int("rows", len(rows)).Str("path", t.path).Msg("Reference table loaded")

	return t.rows
}

// Sectors returns the sorted distinct sectors, excluding "" and "unknown"
func (t *Table) Sectors() []string {
	seen := map[string]struct{}{}
	for _, r := range t.Load() {
		s := strings.TrimSpace(r.Sector)
		if s == "" || strings.EqualFold(s, "unknown") {
			continue
		}
		seen[s] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// RowsForSector returns rows whose sector matches, ignoring case and
// surrounding whitespace
func (t *Table) RowsForSector(sector string) []Row {
	sector = strings.TrimSpace(sector)
	if sector == "" {
		return []Row{}
	}

	out := []Row{}
	for _, r := range t.Load() {
		if strings.EqualFold(strings.TrimSpace(r.Sector), sector) {
			out = append(out, r)
		}
	}
	return out
}

// Lookup returns the row for a symbol
func (t *Table) Lookup(symbol string) (Row, bool) {
	symbol = watchlist.NormalizeSymbol(symbol)
	for _, r := range t.Load() {
		if watchlist.NormalizeSymbol(r.Symbol) == symbol {
			return r, true
		}
	}
	return Row{}, false
}

func (t *Table) readFile() ([]Row, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f, t.delimiter)
}

// Parse reads a reference file with a header row.
// Missing canonical columns read as empty strings; rows without a symbol
// are skipped.
func Parse(r io.Reader, delimiter rune) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := resolveColumns(append([]string(nil), header...))

	rows := []Row{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		row := Row{
			Symbol:   field(record, cols.symbol),
			Name:     field(record, cols.name),
			Exchange: field(record, cols.exchange),
			Sector:   field(record, cols.sector),
		}
		if row.Symbol == "" {
			continue
		}
		if row.Sector == "" && cols.industry != -1 {
			row.Sector = field(record, cols.industry)
		}
		rows = append(rows, row)
	}

	return rows, nil
}
