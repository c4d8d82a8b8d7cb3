package cassandra

import (
	"context"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore"
	"github.com/xrplreport/ledgerstore/internal/ledgerstore/backend"
)

// HardFetchLedgerRange reads both rows of the range table directly,
// without the timeout-retry wrapper backend.Interface layers on top.
func (b *CassandraBackend) HardFetchLedgerRange(ctx context.Context) (*ledgerstore.LedgerRange, error) {
	b.pipeline.acquire()
	defer b.pipeline.release()

	iter := b.session.Query(b.stmts.selectRange).WithContext(ctx).Iter()
	var (
		isLatest bool
		sequence int64
		r        ledgerstore.LedgerRange
		seen     bool
	)
	for iter.Scan(&isLatest, &sequence) {
		seen = true
		if isLatest {
			r.Max = ledgerstore.LedgerIndex(sequence)
		} else {
			r.Min = ledgerstore.LedgerIndex(sequence)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, classify(err)
	}
	if !seen {
		return nil, backend.ErrNotFound
	}
	return &r, nil
}

// advanceRangeMax implements the range update protocol: the first
// successful finishWrites inserts both bracketing rows;
// every subsequent call does a conditional advance of is_latest=true
// from seq-1, gated first by a plain read of the range rows so a stale caller fails
// fast instead of issuing a CAS doomed to be rejected. A driver timeout
// on the CAS is treated as a possible success, per the source's "timeout
// with unknown outcome" rule — the mutation may have already landed.
func (b *CassandraBackend) advanceRangeMax(ctx context.Context, seq ledgerstore.LedgerIndex) (bool, error) {
	current, err := b.HardFetchLedgerRange(ctx)
	if err != nil && err != backend.ErrNotFound {
		return false, err
	}

	if current == nil {
		// First ledger ever written. The source performs this insert and
		// the later CAS unconditionally, with no guard against a partial
		// failure leaving the deleted=false row stranded if the second
		// insert never lands; that behavior is reproduced as-is here
		// rather than adding a transactional guard the source lacks.
		if err := b.pipeline.executeSyncWrite(ctx, b.session, b.stmts.insertRange, false, int64(seq)); err != nil {
			return false, err
		}
		if err := b.pipeline.executeSyncWrite(ctx, b.session, b.stmts.insertRange, true, int64(seq)); err != nil {
			return false, err
		}
		return true, nil
	}

	if current.Max != seq-1 {
		return false, nil
	}

	b.pipeline.acquire()
	var observed int64
	applied, err := b.session.Query(b.stmts.advanceRangeMax, int64(seq), int64(seq-1)).WithContext(ctx).ScanCAS(&observed)
	b.pipeline.release()
	if err != nil {
		if isTimeoutClass(classify(err)) {
			return true, nil
		}
		return false, classify(err)
	}
	return applied, nil
}

// advanceRangeMin is the retention procedure's equivalent step: a
// conditional advance of the is_latest=false row once pruning for a
// horizon has completed.
func (b *CassandraBackend) advanceRangeMin(ctx context.Context, from, to ledgerstore.LedgerIndex) (bool, error) {
	b.pipeline.acquire()
	var observed int64
	applied, err := b.session.Query(b.stmts.advanceRangeMin, int64(to), int64(from)).WithContext(ctx).ScanCAS(&observed)
	b.pipeline.release()
	if err != nil {
		if isTimeoutClass(classify(err)) {
			return true, nil
		}
		return false, classify(err)
	}
	return applied, nil
}
