package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore"
)

var (
	fetchKeyHex string
	fetchSeq    uint32
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Print the blob stored for a single object key as of a sequence",
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchKeyHex, "key", "", "64-character hex object key")
	fetchCmd.Flags().Uint32Var(&fetchSeq, "seq", 0, "ledger sequence to read as of")
}

func runFetch(cmd *cobra.Command, args []string) error {
	key, err := ledgerstore.ParseHash256(fetchKeyHex)
	if err != nil {
		return fmt.Errorf("ledgerstore-bench: fetch: %w", err)
	}

	ctx := context.Background()
	iface, err := openInterface(ctx, true)
	if err != nil {
		return err
	}
	defer iface.Close()

	blob, err := iface.FetchLedgerObject(ctx, key, ledgerstore.LedgerIndex(fetchSeq))
	if err != nil {
		return fmt.Errorf("ledgerstore-bench: fetch: %w", err)
	}
	if blob == nil {
		fmt.Println("fetch: not found")
		return nil
	}
	fmt.Printf("fetch: %x\n", blob)
	return nil
}
