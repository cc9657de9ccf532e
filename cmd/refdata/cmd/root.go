// Package cmd - refdata CLI commands
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/sectorwatch/internal/pkg/config"
	"github.com/wonny/sectorwatch/internal/pkg/logger"
	"github.com/wonny/sectorwatch/internal/service/reference"
)

var (
	// shared flags
	referencePath string
	verbose       bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "refdata",
	Short: "sectorwatch reference data tool",
	Long: `sectorwatch reference data tool

Usage:
    go run ./cmd/refdata [command]

Commands:
    generate             - build the reference file from the NASDAQ symbol directories
    sectors              - list sectors of the reference file
    companies <sector>   - list companies of one sector
    lookup <query>       - look up ticker symbols
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&referencePath, "file", "", "reference file (default REFERENCE_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(sectorsCmd)
	rootCmd.AddCommand(companiesCmd)
	rootCmd.AddCommand(lookupCmd)
}

func initConfig() error {
	var err error
	if cfg, err = config.Load(); err != nil {
		return err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.Config{
		Level:          level,
		Format:         "pretty",
		ServiceName:    "sectorwatch-refdata",
		ServiceVersion: "1.0.0",
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if referencePath == "" {
		referencePath = cfg.Reference.Path
	}
	return nil
}

func openTable() *reference.Table {
	return reference.NewTable(reference.Config{
		Path:      referencePath,
		Delimiter: cfg.Reference.Delimiter,
		TTL:       cfg.Reference.TTL,
	})
}
