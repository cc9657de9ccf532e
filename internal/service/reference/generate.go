package reference

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/sectorwatch/internal/domain/quote"
	"github.com/wonny/sectorwatch/internal/pkg/logger"
)

// GeneratedHeader is the header row written by WriteCSV
var GeneratedHeader = []string{"symbol", "name", "exchange", "sector", "industry"}

// CompanySource looks up profile data for one symbol
type CompanySource interface {
	Company(ctx context.Context, symbol string) (*quote.CompanyDetails, error)
}

// Seed is a listed symbol with the directory's own name and exchange
type Seed struct {
	Symbol   string
	Name     string
	Exchange string
}

// GeneratedRow is one line of a generated reference file
type GeneratedRow struct {
	Symbol   string
	Name     string
	Exchange string
	Sector   string
	Industry string
}

// GenerateStats summarises a run
type GenerateStats struct {
	Requested int
	Written   int
	Failed    int
}

// Generator builds a reference file from listed symbols
type Generator struct {
	source      CompanySource
	concurrency int
	log         zerolog.Logger
}

// NewGenerator creates a Generator with at most concurrency lookups in flight
func NewGenerator(source CompanySource, concurrency int) *Generator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Generator{
		source:      source,
		concurrency: concurrency,
		log:         logger.Component("refdata"),
	}
}

// Generate looks up every seed. Failed lookups are skipped; only context
// cancellation aborts the run. Rows come back sorted by symbol.
func (g *Generator) Generate(ctx context.Context, seeds []Seed) ([]GeneratedRow, GenerateStats, error) {
	stats := GenerateStats{Requested: len(seeds)}

	var (
		mu     sync.Mutex
		rows   = make([]GeneratedRow, 0, len(seeds))
		done   atomic.Int64
		failed atomic.Int64
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)

	for _, seed := range seeds {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			row, err := g.lookup(egCtx, seed)
			if n := done.Add(1); n%100 == 0 {
				g.log.Info().Int64("done", n).Int("total", len(seeds)).Msg("Reference generation progress")
			}
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				failed.Add(1)
				event := g.log.Warn()
				if errors.Is(err, quote.ErrSymbolNotFound) {
					event = g.log.Debug()
				}
				event.Err(err).Str("symbol", seed.Symbol).Msg("Company lookup failed, skipping")
				return nil
			}

			mu.Lock()
			rows = append(rows, row)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })
	stats.Written = len(rows)
	stats.Failed = int(failed.Load())
	return rows, stats, nil
}

func (g *Generator) lookup(ctx context.Context, seed Seed) (GeneratedRow, error) {
	details, err := g.source.Company(ctx, seed.Symbol)
	if err != nil {
		return GeneratedRow{}, err
	}

	row := GeneratedRow{
		Symbol:   seed.Symbol,
		Name:     details.Price.LongName,
		Exchange: details.Price.ExchangeName,
		Sector:   details.SummaryProfile.Sector,
		Industry: details.SummaryProfile.Industry,
	}
	if row.Name == "" {
		row.Name = seed.Name
	}
	if row.Exchange == "" {
		row.Exchange = seed.Exchange
	}
	return row, nil
}

// WriteCSV writes rows with GeneratedHeader
func WriteCSV(w io.Writer, rows []GeneratedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GeneratedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Symbol, r.Name, r.Exchange, r.Sector, r.Industry}); err != nil {
			return fmt.Errorf("write %s: %w", r.Symbol, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
