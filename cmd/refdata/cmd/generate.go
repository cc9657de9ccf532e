package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wonny/sectorwatch/internal/infra/external/nasdaq"
	"github.com/wonny/sectorwatch/internal/infra/external/yahoo"
	"github.com/wonny/sectorwatch/internal/infra/external/yfinance"
	"github.com/wonny/sectorwatch/internal/pkg/config"
	"github.com/wonny/sectorwatch/internal/service/reference"
)

var (
	genSource      string
	genDirectory   string
	genConcurrency int
	genLimit       int
	genIncludeETF  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build the reference file from the NASDAQ symbol directories",
	Long: `Downloads nasdaqlisted.txt and otherlisted.txt, drops test issues and
looks up name, exchange, sector and industry for every symbol.

Examples:
  go run ./cmd/refdata generate
  go run ./cmd/refdata generate --limit 200 --file sample.csv
  go run ./cmd/refdata generate --source yfinance --concurrency 4`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genSource, "source", "", "company lookup source: yahoo | yfinance (default QUOTES_PROVIDER)")
	generateCmd.Flags().StringVar(&genDirectory, "directory-url", nasdaq.DefaultBaseURL, "symbol directory base URL")
	generateCmd.Flags().IntVar(&genConcurrency, "concurrency", 8, "parallel company lookups")
	generateCmd.Flags().IntVar(&genLimit, "limit", 0, "only look up the first N symbols (0 = all)")
	generateCmd.Flags().BoolVar(&genIncludeETF, "include-etf", false, "keep ETFs")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := companySource()
	if err != nil {
		return err
	}

	listings, err := nasdaq.NewClient(genDirectory, 60*time.Second, log.Logger).Listings(ctx)
	if err != nil {
		return fmt.Errorf("fetch symbol directories: %w", err)
	}

	seeds := make([]reference.Seed, 0, len(listings))
	for _, l := range listings {
		if l.ETF && !genIncludeETF {
			continue
		}
		seeds = append(seeds, reference.Seed{Symbol: l.Symbol, Name: l.Name, Exchange: l.Exchange})
	}
	if genLimit > 0 && genLimit < len(seeds) {
		seeds = seeds[:genLimit]
	}

	fmt.Printf("🔎 Looking up %d symbols (%d listed)...\n", len(seeds), len(listings))
	start := time.Now()

	rows, stats, err := reference.NewGenerator(source, genConcurrency).Generate(ctx, seeds)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if err := writeAtomically(referencePath, rows); err != nil {
		return err
	}

	fmt.Printf("✅ Wrote %d companies to %s (%d failed, %s)\n",
		stats.Written, referencePath, stats.Failed, time.Since(start).Round(time.Second))
	return nil
}

func companySource() (reference.CompanySource, error) {
	source := genSource
	if source == "" {
		source = cfg.Quotes.Provider
	}

	switch source {
	case config.ProviderYahoo:
		return yahoo.NewClient(yahoo.Config{
			BaseURL:   cfg.Quotes.BaseURL,
			SearchURL: cfg.Quotes.SearchURL,
			UserAgent: cfg.Quotes.UserAgent,
			Timeout:   cfg.Quotes.Timeout,
		}, log.Logger), nil
	case config.ProviderYFinance:
		return yfinance.NewClient(log.Logger), nil
	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}
}

// writeAtomically writes to a temp file and renames it over path
func writeAtomically(path string, rows []reference.GeneratedRow) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".refdata-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = reference.WriteCSV(tmp, rows); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
