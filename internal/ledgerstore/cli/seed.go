package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore"
	"github.com/xrplreport/ledgerstore/internal/ledgerstore/codec"
)

var (
	seedCount  int
	seedStart  uint32
	seedKeys   int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write a run of synthetic ledgers for benchmarking",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().IntVar(&seedCount, "ledgers", 100, "number of ledgers to write")
	seedCmd.Flags().Uint32Var(&seedStart, "start", 1, "first ledger sequence to write")
	seedCmd.Flags().IntVar(&seedKeys, "keys", 50, "number of object keys touched per ledger")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	iface, err := openInterface(ctx, false)
	if err != nil {
		return err
	}
	defer iface.Close()

	for i := 0; i < seedCount; i++ {
		seq := ledgerstore.LedgerIndex(seedStart) + ledgerstore.LedgerIndex(i)
		iface.StartWrites()

		prev := ledgerstore.FirstKey
		for k := 0; k < seedKeys; k++ {
			key := syntheticKey(seq, k)
			blob := []byte(fmt.Sprintf("seed-object-%d-%d", seq, k))
			if err := iface.WriteLedgerObject(ctx, key, seq, blob); err != nil {
				return fmt.Errorf("ledgerstore-bench: seed: write object: %w", err)
			}
			if err := iface.WriteSuccessor(ctx, prev, seq, key); err != nil {
				return fmt.Errorf("ledgerstore-bench: seed: write successor: %w", err)
			}
			prev = key
		}
		if err := iface.WriteSuccessor(ctx, prev, seq, ledgerstore.LastKey); err != nil {
			return fmt.Errorf("ledgerstore-bench: seed: write terminal successor: %w", err)
		}

		header := ledgerstore.LedgerHeader{Sequence: seq}
		if err := iface.WriteLedger(ctx, header, codec.EncodeLedgerHeader(header)); err != nil {
			return fmt.Errorf("ledgerstore-bench: seed: write ledger: %w", err)
		}

		ok, err := iface.FinishWrites(ctx, seq)
		if err != nil {
			return fmt.Errorf("ledgerstore-bench: seed: finish writes: %w", err)
		}
		if !ok {
			return fmt.Errorf("ledgerstore-bench: seed: finishWrites(%d) rejected by the monotonic gate", seq)
		}
		if verbose {
			fmt.Printf("wrote ledger %d\n", seq)
		}
	}
	return nil
}

// syntheticKey derives a deterministic 256-bit key from a ledger
// sequence and an index, so repeated seed runs at the same parameters
// touch the same keys.
func syntheticKey(seq ledgerstore.LedgerIndex, idx int) ledgerstore.Hash256 {
	var h ledgerstore.Hash256
	h[28] = byte(seq >> 24)
	h[29] = byte(seq >> 16)
	h[30] = byte(seq >> 8)
	h[31] = byte(seq)
	h[24] = byte(idx >> 24)
	h[25] = byte(idx >> 16)
	h[26] = byte(idx >> 8)
	h[27] = byte(idx)
	return h
}
