package cassandra

import (
	"context"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore"
	"github.com/xrplreport/ledgerstore/internal/ledgerstore/codec"
)

// DoWriteLedgerObject launches the object-row and diff-row writes for
// one object version asynchronously; the diff row lets the retention
// procedure later enumerate every key touched by this ledger without
// scanning the whole objects table. Both statements are admitted before
// this returns, but neither is awaited here — a failure surfaces at the
// next FinishWrites, not to this call's caller.
func (b *CassandraBackend) DoWriteLedgerObject(ctx context.Context, key ledgerstore.Hash256, seq ledgerstore.LedgerIndex, blob []byte) error {
	b.pipeline.executeWrite(ctx, b.session, b.stmts.insertObject, key[:], int64(seq), blob, b.ttl())
	b.pipeline.executeWrite(ctx, b.session, b.stmts.insertDiff, int64(seq), key[:], b.ttl())
	return nil
}

// WriteSuccessor records that, as of seq, nextKey is the live key
// immediately following prevKey in key order. prevKey and nextKey may be
// the firstKey/lastKey sentinels bracketing the live set. The write is
// launched asynchronously, same as DoWriteLedgerObject.
func (b *CassandraBackend) WriteSuccessor(ctx context.Context, prevKey ledgerstore.Hash256, seq ledgerstore.LedgerIndex, nextKey ledgerstore.Hash256) error {
	b.pipeline.executeWrite(ctx, b.session, b.stmts.insertSuccessor, prevKey[:], int64(seq), nextKey[:], b.ttl())
	return nil
}

// WriteTransaction stores a transaction's raw and metadata blobs, plus
// the ledger_transactions index row that lets
// FetchAllTransactionHashesInLedger enumerate a ledger's transactions.
// Both writes are launched asynchronously.
func (b *CassandraBackend) WriteTransaction(ctx context.Context, tx ledgerstore.TransactionRecord) error {
	b.pipeline.executeWrite(ctx, b.session, b.stmts.insertTransaction,
		tx.Hash[:], int64(tx.LedgerSeq), tx.Date, tx.Blob, tx.MetaBlob, b.ttl())
	b.pipeline.executeWrite(ctx, b.session, b.stmts.insertLedgerTransaction, int64(tx.LedgerSeq), tx.Hash[:], b.ttl())
	return nil
}

// WriteAccountTransactions launches one row write per entry against the
// pipeline's admission gate; a duplicate (account, seq_idx) pair is
// idempotent because it is an overwrite of the same primary key.
func (b *CassandraBackend) WriteAccountTransactions(ctx context.Context, rows []ledgerstore.AccountTxRow) error {
	for _, row := range rows {
		seqIdx := codec.EncodeSeqTuple(row.LedgerSeq, row.TxnIndex)
		b.pipeline.executeWrite(ctx, b.session, b.stmts.insertAccountTx, row.Account[:], []int64{seqIdx[0], seqIdx[1]}, row.Hash[:], b.ttl())
	}
	return nil
}

// WriteLedger stores the ledger header and the hash-to-sequence index
// row FetchLedgerByHash depends on. Both writes are launched
// asynchronously.
func (b *CassandraBackend) WriteLedger(ctx context.Context, header ledgerstore.LedgerHeader, serializedHeader []byte) error {
	b.pipeline.executeWrite(ctx, b.session, b.stmts.insertLedger, int64(header.Sequence), serializedHeader, b.ttl())
	b.pipeline.executeWrite(ctx, b.session, b.stmts.insertLedgerHash, header.Hash[:], int64(header.Sequence), b.ttl())
	return nil
}

// ttl returns the configured row lifetime in seconds for USING TTL
// clauses. Zero (the default) is a valid TTL value to Cassandra and means
// the row never expires on its own, identical to omitting the clause.
func (b *CassandraBackend) ttl() int {
	return b.cfg.TTLSeconds
}

// DoFinishWrites waits for every in-flight write issued since
// StartWrites to complete, propagating the first non-timeout failure any
// of them latched, then advances the persisted range, returning whether
// the ledger is now the new range.max.
func (b *CassandraBackend) DoFinishWrites(ctx context.Context, seq ledgerstore.LedgerIndex) (bool, error) {
	if err := b.pipeline.sync(); err != nil {
		return false, err
	}
	return b.advanceRangeMax(ctx, seq)
}
