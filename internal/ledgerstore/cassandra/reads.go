package cassandra

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore"
	"github.com/xrplreport/ledgerstore/internal/ledgerstore/backend"
	"github.com/xrplreport/ledgerstore/internal/ledgerstore/codec"
)

// DoFetchLedgerObject returns the blob for key as of seq, or nil if the
// most recent row at or below seq carries an empty object (a tombstone)
// or no row exists at all — both read as logical absence.
func (b *CassandraBackend) DoFetchLedgerObject(ctx context.Context, key ledgerstore.Hash256, seq ledgerstore.LedgerIndex) ([]byte, error) {
	b.pipeline.acquire()
	defer b.pipeline.release()

	var object []byte
	err := b.session.Query(b.stmts.selectObject, key[:], int64(seq)).WithContext(ctx).Scan(&object)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return object, nil
}

// DoFetchSuccessorKey returns the smallest key strictly greater than key
// as of seq, or backend.ErrNotFound if the chain has no entry (including
// when the resolved next equals the lastKey sentinel, which marks the
// end of the set rather than a real successor).
func (b *CassandraBackend) DoFetchSuccessorKey(ctx context.Context, key ledgerstore.Hash256, seq ledgerstore.LedgerIndex) (ledgerstore.Hash256, error) {
	b.pipeline.acquire()
	defer b.pipeline.release()

	var next []byte
	err := b.session.Query(b.stmts.selectSuccessor, key[:], int64(seq)).WithContext(ctx).Scan(&next)
	if err != nil {
		if isNotFound(err) {
			return ledgerstore.Hash256{}, backend.ErrNotFound
		}
		return ledgerstore.Hash256{}, classify(err)
	}
	nextKey, err := parseHash(next)
	if err != nil {
		return ledgerstore.Hash256{}, &backend.DataIntegrityError{Operation: "DoFetchSuccessorKey", Cause: err}
	}
	if nextKey == ledgerstore.LastKey {
		return ledgerstore.Hash256{}, backend.ErrNotFound
	}
	return nextKey, nil
}

// DoFetchLedgerObjects resolves every key in keys as of seq concurrently,
// fanning the reads out across goroutines via errgroup while each
// individual read is still independently gated by the pipeline's
// admission cap, then assembles the results at each key's original
// index.
func (b *CassandraBackend) DoFetchLedgerObjects(ctx context.Context, keys []ledgerstore.Hash256, seq ledgerstore.LedgerIndex) ([][]byte, error) {
	out := make([][]byte, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for idx := range keys {
		idx := idx
		g.Go(func() error {
			blob, err := b.DoFetchLedgerObject(gctx, keys[idx], seq)
			if err != nil {
				return err
			}
			out[idx] = blob
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *CassandraBackend) FetchLatestLedgerSequence(ctx context.Context) (ledgerstore.LedgerIndex, error) {
	r, err := b.HardFetchLedgerRange(ctx)
	if err != nil {
		return 0, err
	}
	if r == nil {
		return 0, backend.ErrNotFound
	}
	return r.Max, nil
}

func (b *CassandraBackend) FetchLedgerBySequence(ctx context.Context, seq ledgerstore.LedgerIndex) (*ledgerstore.LedgerHeader, error) {
	b.pipeline.acquire()
	defer b.pipeline.release()

	var raw []byte
	err := b.session.Query(b.stmts.selectLedgerBySeq, int64(seq)).WithContext(ctx).Scan(&raw)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, classify(err)
	}
	header, err := codec.DecodeLedgerHeader(raw)
	if err != nil {
		return nil, &backend.DataIntegrityError{Operation: "FetchLedgerBySequence", Cause: err}
	}
	return &header, nil
}

func (b *CassandraBackend) FetchLedgerByHash(ctx context.Context, hash ledgerstore.Hash256) (*ledgerstore.LedgerHeader, error) {
	b.pipeline.acquire()
	var seq int64
	err := b.session.Query(b.stmts.selectLedgerByHash, hash[:]).WithContext(ctx).Scan(&seq)
	b.pipeline.release()
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return b.FetchLedgerBySequence(ctx, ledgerstore.LedgerIndex(seq))
}

func (b *CassandraBackend) FetchAllTransactionHashesInLedger(ctx context.Context, seq ledgerstore.LedgerIndex) ([]ledgerstore.Hash256, error) {
	b.pipeline.acquire()
	defer b.pipeline.release()

	iter := b.session.Query(b.stmts.selectLedgerTransactions, int64(seq)).WithContext(ctx).Iter()
	var hashes []ledgerstore.Hash256
	var raw []byte
	for iter.Scan(&raw) {
		h, err := parseHash(raw)
		if err != nil {
			iter.Close()
			return nil, &backend.DataIntegrityError{Operation: "FetchAllTransactionHashesInLedger", Cause: err}
		}
		hashes = append(hashes, h)
	}
	if err := iter.Close(); err != nil {
		return nil, classify(err)
	}
	return hashes, nil
}

// FetchAllTransactionsInLedger looks up every transaction hash recorded
// for seq, then fans out a transactions-table read per hash the same
// way DoFetchLedgerObjects does for object reads.
func (b *CassandraBackend) FetchAllTransactionsInLedger(ctx context.Context, seq ledgerstore.LedgerIndex) ([]ledgerstore.TransactionRecord, error) {
	hashes, err := b.FetchAllTransactionHashesInLedger(ctx, seq)
	if err != nil {
		return nil, err
	}

	out := make([]ledgerstore.TransactionRecord, len(hashes))
	g, gctx := errgroup.WithContext(ctx)
	for idx := range hashes {
		idx := idx
		g.Go(func() error {
			tx, err := b.fetchTransaction(gctx, hashes[idx])
			if err != nil {
				return err
			}
			out[idx] = tx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *CassandraBackend) fetchTransaction(ctx context.Context, hash ledgerstore.Hash256) (ledgerstore.TransactionRecord, error) {
	b.pipeline.acquire()
	defer b.pipeline.release()

	var (
		rowHash   []byte
		ledgerSeq int64
		date      uint32
		txBlob    []byte
		metaBlob  []byte
	)
	err := b.session.Query(b.stmts.selectTransaction, hash[:]).WithContext(ctx).
		Scan(&rowHash, &ledgerSeq, &date, &txBlob, &metaBlob)
	if err != nil {
		if isNotFound(err) {
			return ledgerstore.TransactionRecord{}, &backend.DataIntegrityError{
				Operation: "fetchTransaction",
				Cause:     backend.ErrNotFound,
			}
		}
		return ledgerstore.TransactionRecord{}, classify(err)
	}
	return ledgerstore.TransactionRecord{
		Hash:      hash,
		LedgerSeq: ledgerstore.LedgerIndex(ledgerSeq),
		Date:      date,
		Blob:      txBlob,
		MetaBlob:  metaBlob,
	}, nil
}

func (b *CassandraBackend) FetchAccountTransactions(ctx context.Context, account ledgerstore.AccountID, limit int, forward bool, cursor *backend.AccountTxMarker) ([]ledgerstore.AccountTxRow, *backend.AccountTxMarker, error) {
	b.pipeline.acquire()
	defer b.pipeline.release()

	ledgerSeq, txnIndex := int64(0), int64(0)
	if cursor != nil {
		ledgerSeq, txnIndex = int64(cursor.LedgerSeq), int64(cursor.TxnIndex)
	}

	stmt := b.stmts.selectAccountTxReverse
	if forward {
		stmt = b.stmts.selectAccountTxForward
	}

	iter := b.session.Query(stmt, account[:], []int64{ledgerSeq, txnIndex}, limit).WithContext(ctx).Iter()
	var rows []ledgerstore.AccountTxRow
	var seqIdx []int64
	var hash []byte
	for iter.Scan(&seqIdx, &hash) {
		if len(seqIdx) != 2 {
			iter.Close()
			return nil, nil, &backend.DataIntegrityError{Operation: "FetchAccountTransactions", Cause: backend.ErrNotFound}
		}
		h, err := parseHash(hash)
		if err != nil {
			iter.Close()
			return nil, nil, &backend.DataIntegrityError{Operation: "FetchAccountTransactions", Cause: err}
		}
		rows = append(rows, ledgerstore.AccountTxRow{
			Account:   account,
			LedgerSeq: ledgerstore.LedgerIndex(seqIdx[0]),
			TxnIndex:  uint32(seqIdx[1]),
			Hash:      h,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, nil, classify(err)
	}

	var next *backend.AccountTxMarker
	if len(rows) == limit {
		last := rows[len(rows)-1]
		next = &backend.AccountTxMarker{LedgerSeq: last.LedgerSeq, TxnIndex: last.TxnIndex}
	}
	return rows, next, nil
}
