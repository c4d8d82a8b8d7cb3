// Package codec holds the fixed-width binary encodings the cassandra and
// cli packages round-trip through opaque blobs: ledger headers and
// composite clustering keys. The style follows the project's existing
// encoding/binary helpers for node records rather than a general-purpose
// serialization library.
package codec

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore"
)

// headerEncodedLen is the fixed size of an encoded LedgerHeader: four
// Hash256 fields, one uint32 sequence, two int64 unix-nano timestamps, one
// int32 close time resolution, one uint32 close flags, one int64 total
// coins.
const headerEncodedLen = 4*32 + 4 + 8 + 8 + 4 + 4 + 8

// EncodeLedgerHeader serializes a LedgerHeader into a fixed-width,
// little-endian blob suitable for storage in the ledgers table.
func EncodeLedgerHeader(h ledgerstore.LedgerHeader) []byte {
	buf := make([]byte, headerEncodedLen)
	off := 0

	off += copy(buf[off:], h.Hash[:])
	off += copy(buf[off:], h.ParentHash[:])
	off += copy(buf[off:], h.AccountHash[:])
	off += copy(buf[off:], h.TxHash[:])

	binary.LittleEndian.PutUint32(buf[off:], uint32(h.Sequence))
	off += 4

	binary.LittleEndian.PutUint64(buf[off:], uint64(h.CloseTime.UnixNano()))
	off += 8

	binary.LittleEndian.PutUint64(buf[off:], uint64(h.ParentCloseTime.UnixNano()))
	off += 8

	binary.LittleEndian.PutUint32(buf[off:], uint32(h.CloseTimeRes))
	off += 4

	binary.LittleEndian.PutUint32(buf[off:], h.CloseFlags)
	off += 4

	binary.LittleEndian.PutUint64(buf[off:], uint64(h.TotalCoins))
	off += 8

	return buf[:off]
}

// DecodeLedgerHeader parses a blob produced by EncodeLedgerHeader. It
// returns an error for any blob that isn't exactly the expected length
// rather than silently reading past the end.
func DecodeLedgerHeader(b []byte) (ledgerstore.LedgerHeader, error) {
	var h ledgerstore.LedgerHeader
	if len(b) != headerEncodedLen {
		return h, fmt.Errorf("codec: ledger header blob has length %d, want %d", len(b), headerEncodedLen)
	}

	off := 0
	copy(h.Hash[:], b[off:off+32])
	off += 32
	copy(h.ParentHash[:], b[off:off+32])
	off += 32
	copy(h.AccountHash[:], b[off:off+32])
	off += 32
	copy(h.TxHash[:], b[off:off+32])
	off += 32

	h.Sequence = ledgerstore.LedgerIndex(binary.LittleEndian.Uint32(b[off:]))
	off += 4

	h.CloseTime = time.Unix(0, int64(binary.LittleEndian.Uint64(b[off:]))).UTC()
	off += 8

	h.ParentCloseTime = time.Unix(0, int64(binary.LittleEndian.Uint64(b[off:]))).UTC()
	off += 8

	h.CloseTimeRes = int32(binary.LittleEndian.Uint32(b[off:]))
	off += 4

	h.CloseFlags = binary.LittleEndian.Uint32(b[off:])
	off += 4

	h.TotalCoins = int64(binary.LittleEndian.Uint64(b[off:]))

	return h, nil
}
