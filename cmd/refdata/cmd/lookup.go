package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wonny/sectorwatch/internal/infra/external/yfinance"
)

var lookupLimit int

var lookupCmd = &cobra.Command{
	Use:   "lookup <query>",
	Short: "Look up ticker symbols and show whether they are in the reference file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		symbols, err := yfinance.NewClient(log.Logger).Search(ctx, query, lookupLimit)
		if err != nil {
			return err
		}
		if len(symbols) == 0 {
			return fmt.Errorf("no symbols found for %q", query)
		}

		table := openTable()
		for _, s := range symbols {
			if row, ok := table.Lookup(s); ok {
				fmt.Printf("%-8s %s (%s)\n", s, row.Name, row.Sector)
				continue
			}
			fmt.Printf("%-8s -\n", s)
		}
		return nil
	},
}

func init() {
	lookupCmd.Flags().IntVar(&lookupLimit, "limit", 10, "maximum number of results")
}
