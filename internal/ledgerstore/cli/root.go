// Package cli wires the storage core into a small set of cobra
// subcommands for operating on a Cassandra-backed deployment directly,
// following the same rootCmd/PersistentFlags/OnInitialize shape used
// elsewhere in this codebase.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ledgerstore-bench",
	Short: "Operate on a ledgerstore Cassandra deployment",
	Long: `ledgerstore-bench drives the storage and read-path core directly:
seeding ledgers for benchmarking, reading ranges and single objects back out, and
running the retention procedure once, on demand.`,
	Version: "0.1.0-dev",
}

// Execute runs the root command; it is the only exported entry point,
// called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}
