package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clearance",
	Short: "SEC investigation-clearance event study",
	Long: `Clearance CLI

Backtests a trading strategy around SEC investigation clearances:
filings that announce the end of an investigation are paired with the
filing that opened it, enriched with news sentiment, and traded over a
fixed holding window.

Usage:
  go run ./cmd/clearance [command]

Examples:
  go run ./cmd/clearance backtest run --from 2020-01-01 --to 2021-12-31
  go run ./cmd/clearance scan --from 2021-01-01 --to 2021-03-31
  go run ./cmd/clearance api
  go run ./cmd/clearance scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
