package cmd

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/lambda-log-shipper/internal/shipper"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Serve CloudWatch Logs subscription events",
	Long:  "Start the Lambda runtime loop and ship every delivered log batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		lambda.Start(shipper.New(cfgFile, logger).HandleCloudwatchLogs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}
