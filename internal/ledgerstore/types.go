// Package ledgerstore holds the data model shared by the cache, backend,
// and cassandra packages: the shapes a reporting backend reads and writes,
// independent of any particular persistence engine.
package ledgerstore

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Hash256 is a 256-bit key or hash: an object key, a ledger hash, or a
// transaction hash.
type Hash256 [32]byte

// FirstKey and LastKey bracket the key space for successor iteration.
var (
	FirstKey = Hash256{}
	LastKey  = func() Hash256 {
		var h Hash256
		for i := range h {
			h[i] = 0xff
		}
		return h
	}()
)

func (h Hash256) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash256) IsZero() bool {
	return h == Hash256{}
}

// Less reports whether h sorts strictly before other, treating a Hash256
// as a big-endian 256-bit integer.
func (h Hash256) Less(other Hash256) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// ParseHash256 decodes a hex string into a Hash256.
func ParseHash256(s string) (Hash256, error) {
	var h Hash256
	if len(s) != 64 {
		return h, fmt.Errorf("invalid hash length: expected 64 hex chars, got %d", len(s))
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hex string: %w", err)
	}
	copy(h[:], decoded)
	return h, nil
}

// AccountID is an XRPL account identifier: the RIPEMD-160 of an account's
// public key.
type AccountID [20]byte

func (a AccountID) String() string {
	return hex.EncodeToString(a[:])
}

func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// LedgerIndex is a ledger sequence number. Sequences are dense and
// monotonic: ledger S+1 follows ledger S with nothing skipped.
type LedgerIndex uint32

// LedgerHeader carries the fixed-width fields of a committed ledger. The
// core does not validate these fields; it trusts the caller (the ETL
// collaborator) to supply a consistent header per sequence.
type LedgerHeader struct {
	Sequence        LedgerIndex
	Hash            Hash256
	ParentHash      Hash256
	AccountHash     Hash256
	TxHash          Hash256
	CloseTime       time.Time
	ParentCloseTime time.Time
	CloseTimeRes    int32
	CloseFlags      uint32
	TotalCoins      int64
}

// LedgerObject is a single version of a state-tree object. A LedgerObject
// with an empty Blob is a tombstone: the key is absent from Sequence
// onward, until a later, non-empty row reintroduces it.
type LedgerObject struct {
	Key      Hash256
	Sequence LedgerIndex
	Blob     []byte
}

// IsTombstone reports whether this version represents deletion.
func (o LedgerObject) IsTombstone() bool {
	return len(o.Blob) == 0
}

// SuccessorLink records, for the ordered set of live keys at some ledger,
// the key immediately following Key. A link is written at the sequence
// where it first becomes valid and remains correct for every later
// sequence until superseded by a newer link for the same Key.
type SuccessorLink struct {
	Key      Hash256
	Sequence LedgerIndex
	Next     Hash256
}

// LedgerDiff is the set of object changes recorded against one ledger
// sequence, as emitted by the ETL collaborator and consumed by retention.
type LedgerDiff struct {
	Sequence LedgerIndex
	Objects  []LedgerObject
}

// TransactionRecord is a single transaction plus its metadata, keyed by
// hash, with a pointer back to the ledger it was included in.
type TransactionRecord struct {
	Hash      Hash256
	LedgerSeq LedgerIndex
	Date      uint32
	Blob      []byte
	MetaBlob  []byte
}

// AccountTxRow is one row of the per-account transaction history index:
// the transaction at TxnIndex within LedgerSeq involving Account.
type AccountTxRow struct {
	Account   AccountID
	LedgerSeq LedgerIndex
	TxnIndex  uint32
	Hash      Hash256
}

// LedgerRange is the persisted [Min, Max] of complete, retained ledgers.
type LedgerRange struct {
	Min LedgerIndex
	Max LedgerIndex
}

// Empty reports whether no ledger range has been established yet.
func (r LedgerRange) Empty() bool {
	return r.Min == 0 && r.Max == 0
}
