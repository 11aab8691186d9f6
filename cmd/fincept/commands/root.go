package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fincept/analytics/pkg/config"
	"github.com/fincept/analytics/pkg/logger"
)

var (
	// Global flags
	envFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fincept",
	Short: "Fincept - performance & fee analytics engine",
	Long: `Fincept Analytics CLI

Portfolio performance, risk and fee analytics over price series,
return series and cash flows. Results are printed as JSON on stdout;
logs go to stderr.

Usage:
  go run ./cmd/fincept [command]

Examples:
  go run ./cmd/fincept analyze twr --input prices.json
  cat returns.json | go run ./cmd/fincept analyze risk --input -
  go run ./cmd/fincept fees --input returns.json --schedule fees.yaml --profile hedge_2_20
  go run ./cmd/fincept report SPY --from 2023-01-01 --to 2024-01-01
  go run ./cmd/fincept api
  go run ./cmd/fincept scheduler start`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file (default searches .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadRuntime loads configuration and builds the logger every command uses
func loadRuntime() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadWithEnvFile(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}
