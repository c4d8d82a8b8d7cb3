package codec

import (
	"fmt"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore"
)

// ParseHash256 validates that b is exactly 32 bytes and copies it into a
// Hash256. Mirrors the source's writeLedgerObject assert: callers decoding
// a key off the wire get a fast, explicit error rather than a silently
// truncated or zero-padded key. backend.Interface's write path takes an
// already-typed Hash256 and has no length to assert; this is for callers
// still holding a raw byte slice at the point they parse one.
func ParseHash256(b []byte) (ledgerstore.Hash256, error) {
	var h ledgerstore.Hash256
	if len(b) != 32 {
		return h, fmt.Errorf("codec: key has length %d, want 32", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// SeqTuple is the Go-side shape of the account_tx table's seq_idx
// clustering column: a Cassandra tuple<bigint,bigint> of (ledgerSeq,
// txnIndex), held as a plain two-element array with no custom UDT
// marshaler; the cassandra package binds its two values as a []int64.
type SeqTuple [2]int64

// EncodeSeqTuple builds the clustering tuple for one account_tx row.
func EncodeSeqTuple(ledgerSeq ledgerstore.LedgerIndex, txnIndex uint32) SeqTuple {
	return SeqTuple{int64(ledgerSeq), int64(txnIndex)}
}

// Decode splits a SeqTuple back into its ledger sequence and transaction
// index.
func (t SeqTuple) Decode() (ledgerstore.LedgerIndex, uint32) {
	return ledgerstore.LedgerIndex(t[0]), uint32(t[1])
}
