package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore/config"
)

var ledgersToKeep uint32

var retainCmd = &cobra.Command{
	Use:   "retain",
	Short: "Run the online-delete retention procedure once",
	RunE:  runRetain,
}

func init() {
	rootCmd.AddCommand(retainCmd)
	retainCmd.Flags().Uint32Var(&ledgersToKeep, "keep", 0, "number of most recent ledgers to retain (0 uses the configured default)")
}

func runRetain(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	iface, err := openInterface(ctx, false)
	if err != nil {
		return err
	}
	defer iface.Close()

	keep := ledgersToKeep
	if keep == 0 {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("ledgerstore-bench: retain: %w", err)
		}
		keep = cfg.LedgersToKeep
	}
	if keep == 0 {
		return fmt.Errorf("ledgerstore-bench: retain: --keep or ledgers_to_keep must be greater than zero")
	}
	if err := iface.DoOnlineDelete(ctx, keep); err != nil {
		return fmt.Errorf("ledgerstore-bench: retain: %w", err)
	}
	fmt.Printf("retention complete, kept the most recent %d ledgers\n", keep)
	return nil
}
