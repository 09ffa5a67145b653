package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/lambda-log-shipper/internal/config"
	"github.com/telhawk-systems/lambda-log-shipper/internal/logging"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "0.1.0"

const runtimeAPIEnv = "AWS_LAMBDA_RUNTIME_API"

var (
	cfgFile string
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shipper",
	Short: "Lambda log shipper",
	Long: `shipper forwards AWS Lambda logs to a search endpoint and archives
them to S3 when the endpoint cannot take them.

Run without arguments inside the Lambda runtime to serve CloudWatch Logs
subscription events.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv(runtimeAPIEnv) != "" {
			return lambdaCmd.RunE(cmd, args)
		}
		return cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); environment variables take precedence")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format).
		With(logging.Service("lambda-log-shipper"))
	logging.SetDefault(logger)
	return nil
}
