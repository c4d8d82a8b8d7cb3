package cassandra

import (
	"context"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore"
	"github.com/xrplreport/ledgerstore/internal/ledgerstore/backend"
)

// DoOnlineDelete prunes ledgers strictly below minKeep = range.max -
// numLedgersToKeep + 1, preserving the point-in-time read guarantee and
// the successor index's totality guarantee for every sequence still
// inside the kept window.
//
// Successor pruning policy (the source leaves this unspecified): for
// each key touched by a pruned ledger, this keeps the successor row
// with the greatest seq < minKeep and every row with seq >= minKeep,
// deleting the rest — the same "keep the latest qualifying version,
// drop the rest" rule already applied to the objects table, so a
// successor lookup at any kept sequence still resolves to the row that
// was in force at that sequence.
func (b *CassandraBackend) DoOnlineDelete(ctx context.Context, numLedgersToKeep uint32) error {
	b.pipeline.setCap(uint32(b.cfg.IndexerMaxRequestsOutstanding))
	defer b.pipeline.setCap(uint32(b.cfg.MaxRequestsOutstanding))

	r, err := b.HardFetchLedgerRange(ctx)
	if err != nil {
		if err == backend.ErrNotFound {
			return nil
		}
		return err
	}
	if uint32(r.Max-r.Min+1) <= numLedgersToKeep {
		return nil
	}

	minKeep := r.Max - ledgerstore.LedgerIndex(numLedgersToKeep) + 1

	for s := r.Min; s < minKeep; s++ {
		keys, err := b.readDiffKeys(ctx, s)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := b.pruneObjectAndSuccessor(ctx, key, minKeep); err != nil {
				return err
			}
		}
		b.pipeline.executeWrite(ctx, b.session, b.stmts.deleteDiff, int64(s))
		if err := b.pruneLedger(ctx, s); err != nil {
			return err
		}
	}

	if err := b.pipeline.sync(); err != nil {
		return err
	}
	_, err = b.advanceRangeMin(ctx, r.Min, minKeep)
	return err
}

func (b *CassandraBackend) readDiffKeys(ctx context.Context, seq ledgerstore.LedgerIndex) ([]ledgerstore.Hash256, error) {
	b.pipeline.acquire()
	defer b.pipeline.release()

	iter := b.session.Query(b.stmts.selectDiff, int64(seq)).WithContext(ctx).Iter()
	var keys []ledgerstore.Hash256
	var raw []byte
	for iter.Scan(&raw) {
		k, err := parseHash(raw)
		if err != nil {
			iter.Close()
			return nil, &backend.DataIntegrityError{Operation: "readDiffKeys", Cause: err}
		}
		keys = append(keys, k)
	}
	if err := iter.Close(); err != nil {
		return nil, classify(err)
	}
	return keys, nil
}

// pruneObjectAndSuccessor deletes every objects row and every successor
// row for key older than the one in force at minKeep, keeping one row
// per table intact. The two tables are pruned from independent queries:
// a key's successor pointer only changes when a neighbor is
// inserted or deleted, not on every write to the key's own object row,
// so the sequence set for successor(key,*) is generally disjoint from
// objects(key,*)'s — an objects-table sequence cannot be reused to
// locate the successor-table rows that need deleting.
func (b *CassandraBackend) pruneObjectAndSuccessor(ctx context.Context, key ledgerstore.Hash256, minKeep ledgerstore.LedgerIndex) error {
	if err := b.pruneObjectVersions(ctx, key, minKeep); err != nil {
		return err
	}
	return b.pruneSuccessorVersions(ctx, key, minKeep)
}

// pruneObjectVersions deletes every objects row for key strictly below
// minKeep except the greatest one, the version a point-in-time read at
// minKeep resolves to.
func (b *CassandraBackend) pruneObjectVersions(ctx context.Context, key ledgerstore.Hash256, minKeep ledgerstore.LedgerIndex) error {
	b.pipeline.acquire()
	iter := b.session.Query(b.stmts.selectObjectsOlderThan, key[:], int64(minKeep)).WithContext(ctx).Iter()
	var sequences []int64
	var seq int64
	var object []byte
	for iter.Scan(&seq, &object) {
		sequences = append(sequences, seq)
	}
	iterErr := iter.Close()
	b.pipeline.release()
	if iterErr != nil {
		return classify(iterErr)
	}
	if len(sequences) == 0 {
		return nil
	}

	// sequences is ordered DESC, so sequences[0] is the greatest version
	// strictly below minKeep. Every older version is pruned; that row
	// itself is left untouched.
	for _, s := range sequences[1:] {
		b.pipeline.executeWrite(ctx, b.session, b.stmts.deleteObjectVersion, key[:], s)
	}
	return nil
}

// pruneSuccessorVersions deletes every successor row for key strictly
// below minKeep except the greatest one, the pointer a successor lookup
// at minKeep resolves to.
func (b *CassandraBackend) pruneSuccessorVersions(ctx context.Context, key ledgerstore.Hash256, minKeep ledgerstore.LedgerIndex) error {
	b.pipeline.acquire()
	iter := b.session.Query(b.stmts.selectSuccessorsOlderThan, key[:], int64(minKeep)).WithContext(ctx).Iter()
	var sequences []int64
	var seq int64
	for iter.Scan(&seq) {
		sequences = append(sequences, seq)
	}
	iterErr := iter.Close()
	b.pipeline.release()
	if iterErr != nil {
		return classify(iterErr)
	}
	if len(sequences) == 0 {
		return nil
	}

	for _, s := range sequences[1:] {
		b.pipeline.executeWrite(ctx, b.session, b.stmts.deleteSuccessor, key[:], s)
	}
	return nil
}

// pruneLedger removes a ledger's header, its transaction index, and
// every transaction row it alone referenced.
func (b *CassandraBackend) pruneLedger(ctx context.Context, seq ledgerstore.LedgerIndex) error {
	hashes, err := b.FetchAllTransactionHashesInLedger(ctx, seq)
	if err != nil {
		return err
	}
	for _, h := range hashes {
		b.pipeline.executeWrite(ctx, b.session, b.stmts.deleteTransaction, h[:])
	}
	b.pipeline.executeWrite(ctx, b.session, b.stmts.deleteLedgerTransaction, int64(seq))
	b.pipeline.executeWrite(ctx, b.session, b.stmts.deleteLedger, int64(seq))
	return nil
}
