package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/lambda-log-shipper/internal/client"
	"github.com/telhawk-systems/lambda-log-shipper/internal/config"
	"github.com/telhawk-systems/lambda-log-shipper/internal/indexmgr"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Search index management",
}

var indexInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Install the index template and retention policy",
	Long:  "Create the lambda-* index template and its ISM retention policy on the search cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		osClient, err := client.NewOpenSearchClient(cfg.Search)
		if err != nil {
			return err
		}

		if err := indexmgr.NewIndexManager(osClient, cfg.Index).Initialize(cmd.Context()); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "installed %s and %s\n", indexmgr.TemplateName, indexmgr.PolicyName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexInitCmd)
}
