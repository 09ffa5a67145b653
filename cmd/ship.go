package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/lambda-log-shipper/internal/shipper"
)

var shipCmd = &cobra.Command{
	Use:   "ship",
	Short: "Ship JSON-lines log records",
	Long:  "Read log records as JSON lines from a file or stdin and ship them as one batch",
	Example: `  shipper ship --file records.jsonl
  cat records.jsonl | shipper ship`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")

		var in io.Reader = cmd.InOrStdin()
		if path != "" && path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()
			in = f
		}

		records, err := shipper.ReadRecords(in)
		if err != nil {
			return fmt.Errorf("failed to read records: %w", err)
		}

		handled, err := shipper.New(cfgFile, logger).Ship(cmd.Context(), records)
		if err != nil {
			return fmt.Errorf("failed to ship records: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "records: %d handled: %t\n", len(records), handled)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shipCmd)

	shipCmd.Flags().StringP("file", "f", "", "JSON-lines input file (default: stdin)")
}
