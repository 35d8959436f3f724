// Command vestingd serves a vesting vault over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vestingd",
	Short: "vestingd - time-locked token release ledger",
	Long: `vestingd hosts a vesting vault behind an HTTP API.

Available commands:
  serve   - Start the HTTP API
  config  - Print the resolved configuration
  version - Show version information

Examples:
  vestingd serve --config vesting.toml
  VESTING_STORE_BACKEND=redis vestingd serve`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit JSON logs")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
