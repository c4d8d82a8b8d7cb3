package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Print the persisted ledger range",
	RunE:  runRange,
}

func init() {
	rootCmd.AddCommand(rangeCmd)
}

func runRange(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	iface, err := openInterface(ctx, true)
	if err != nil {
		return err
	}
	defer iface.Close()

	r, err := iface.HardFetchLedgerRangeNoThrow(ctx)
	if err != nil {
		return fmt.Errorf("ledgerstore-bench: range: %w", err)
	}
	if r == nil {
		fmt.Println("range: empty")
		return nil
	}
	fmt.Printf("range: [%d, %d]\n", r.Min, r.Max)
	return nil
}
