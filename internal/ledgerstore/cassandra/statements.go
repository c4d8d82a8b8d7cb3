package cassandra

import "fmt"

// statementCatalog holds the CQL text for every hot-path query, built
// once at open time against the configured table names. gocql prepares
// statements lazily and caches them per session, so the catalog here is
// just the parameterized query strings the rest of the package issues
// through session.Query.
type statementCatalog struct {
	insertObject string
	selectObject string

	insertSuccessor string
	selectSuccessor string
	deleteSuccessor string

	insertDiff string
	selectDiff string
	deleteDiff string

	insertLedger string
	selectLedgerBySeq string
	deleteLedger string

	insertLedgerHash string
	selectLedgerByHash string

	insertRange string
	selectRange string
	advanceRangeMax string
	advanceRangeMin string

	insertTransaction string
	selectTransaction string
	deleteTransaction string

	insertLedgerTransaction string
	selectLedgerTransactions string
	deleteLedgerTransaction string

	insertAccountTx string
	selectAccountTxForward string
	selectAccountTxReverse string

	selectObjectsOlderThan string
	deleteObjectVersion string

	selectSuccessorsOlderThan string
}

func newStatementCatalog(keyspace string, t tableNames) statementCatalog {
	q := func(format string, args ...interface{}) string {
		return fmt.Sprintf(format, args...)
	}
	kt := func(table string) string { return keyspace + "." + table }

	return statementCatalog{
		insertObject: q(`INSERT INTO %s (key, sequence, object) VALUES (?, ?, ?) USING TTL ?`, kt(t.objects)),
		selectObject: q(`SELECT object FROM %s WHERE key = ? AND sequence <= ? ORDER BY sequence DESC LIMIT 1`, kt(t.objects)),

		insertSuccessor: q(`INSERT INTO %s (key, seq, next) VALUES (?, ?, ?) USING TTL ?`, kt(t.successor)),
		selectSuccessor: q(`SELECT next FROM %s WHERE key = ? AND seq <= ? ORDER BY seq DESC LIMIT 1`, kt(t.successor)),
		deleteSuccessor: q(`DELETE FROM %s WHERE key = ? AND seq = ?`, kt(t.successor)),

		insertDiff: q(`INSERT INTO %s (seq, key) VALUES (?, ?) USING TTL ?`, kt(t.diff)),
		selectDiff: q(`SELECT key FROM %s WHERE seq = ?`, kt(t.diff)),
		deleteDiff: q(`DELETE FROM %s WHERE seq = ?`, kt(t.diff)),

		insertLedger:      q(`INSERT INTO %s (sequence, header) VALUES (?, ?) USING TTL ?`, kt(t.ledgers)),
		selectLedgerBySeq: q(`SELECT header FROM %s WHERE sequence = ?`, kt(t.ledgers)),
		deleteLedger:      q(`DELETE FROM %s WHERE sequence = ?`, kt(t.ledgers)),

		insertLedgerHash:   q(`INSERT INTO %s (hash, sequence) VALUES (?, ?) USING TTL ?`, kt(t.ledgerHashes)),
		selectLedgerByHash: q(`SELECT sequence FROM %s WHERE hash = ?`, kt(t.ledgerHashes)),

		// ledger_range is the singleton CAS-protected min/max row pair, not
		// per-ledger data; it is never TTL'd regardless of cfg.TTLSeconds.
		insertRange:     q(`INSERT INTO %s (is_latest, sequence) VALUES (?, ?)`, kt(t.ledgerRange)),
		selectRange:     q(`SELECT is_latest, sequence FROM %s`, kt(t.ledgerRange)),
		advanceRangeMax: q(`UPDATE %s SET sequence = ? WHERE is_latest = true IF sequence = ?`, kt(t.ledgerRange)),
		advanceRangeMin: q(`UPDATE %s SET sequence = ? WHERE is_latest = false IF sequence = ?`, kt(t.ledgerRange)),

		insertTransaction: q(`INSERT INTO %s (hash, ledger_seq, date, transaction, metadata) VALUES (?, ?, ?, ?, ?) USING TTL ?`, kt(t.transactions)),
		selectTransaction: q(`SELECT hash, ledger_seq, date, transaction, metadata FROM %s WHERE hash = ?`, kt(t.transactions)),
		deleteTransaction: q(`DELETE FROM %s WHERE hash = ?`, kt(t.transactions)),

		insertLedgerTransaction:  q(`INSERT INTO %s (ledger_seq, hash) VALUES (?, ?) USING TTL ?`, kt(t.ledgerTransactions)),
		selectLedgerTransactions: q(`SELECT hash FROM %s WHERE ledger_seq = ?`, kt(t.ledgerTransactions)),
		deleteLedgerTransaction:  q(`DELETE FROM %s WHERE ledger_seq = ?`, kt(t.ledgerTransactions)),

		insertAccountTx:        q(`INSERT INTO %s (account, seq_idx, hash) VALUES (?, ?, ?) USING TTL ?`, kt(t.accountTx)),
		selectAccountTxForward: q(`SELECT seq_idx, hash FROM %s WHERE account = ? AND seq_idx >= ? ORDER BY seq_idx ASC LIMIT ?`, kt(t.accountTx)),
		selectAccountTxReverse: q(`SELECT seq_idx, hash FROM %s WHERE account = ? AND seq_idx <= ? ORDER BY seq_idx DESC LIMIT ?`, kt(t.accountTx)),

		selectObjectsOlderThan: q(`SELECT sequence, object FROM %s WHERE key = ? AND sequence < ? ORDER BY sequence DESC`, kt(t.objects)),
		deleteObjectVersion:    q(`DELETE FROM %s WHERE key = ? AND sequence = ?`, kt(t.objects)),

		selectSuccessorsOlderThan: q(`SELECT seq FROM %s WHERE key = ? AND seq < ? ORDER BY seq DESC`, kt(t.successor)),
	}
}
