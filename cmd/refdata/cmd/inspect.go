package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "List sectors of the reference file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sectors := openTable().Sectors()
		if len(sectors) == 0 {
			return fmt.Errorf("no sectors found in %s", referencePath)
		}
		for _, s := range sectors {
			fmt.Println(s)
		}
		return nil
	},
}

var companiesCmd = &cobra.Command{
	Use:   "companies <sector>",
	Short: "List companies of one sector",
	Example: `  go run ./cmd/refdata companies Technology
  go run ./cmd/refdata companies "consumer cyclical"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := openTable().RowsForSector(args[0])
		if len(rows) == 0 {
			return fmt.Errorf("no companies found for sector %q", args[0])
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SYMBOL\tNAME\tEXCHANGE")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Symbol, r.Name, r.Exchange)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d companies\n", len(rows))
		return nil
	},
}
