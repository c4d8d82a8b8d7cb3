package cassandra

import "fmt"

// tableNames returns the nine table names this backend owns, each
// qualified with the configured prefix so a single keyspace can host
// more than one deployment side by side, the same way this codebase's
// other relational backends take a configurable table prefix.
type tableNames struct {
	objects            string
	successor          string
	diff               string
	ledgers            string
	ledgerHashes       string
	ledgerRange        string
	transactions       string
	ledgerTransactions string
	accountTx          string
}

func newTableNames(prefix string) tableNames {
	return tableNames{
		objects:            prefix + "objects",
		successor:          prefix + "successor",
		diff:               prefix + "diff",
		ledgers:            prefix + "ledgers",
		ledgerHashes:       prefix + "ledger_hashes",
		ledgerRange:        prefix + "ledger_range",
		transactions:       prefix + "transactions",
		ledgerTransactions: prefix + "ledger_transactions",
		accountTx:          prefix + "account_tx",
	}
}

// schemaStatements returns the CREATE TABLE statements for the full
// table set, qualified by keyspace and replication factor.
func schemaStatements(keyspace string, replicationFactor int, t tableNames) []string {
	return []string{
		fmt.Sprintf(
			`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}`,
			keyspace, replicationFactor,
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s.%s (
				key blob,
				sequence bigint,
				object blob,
				PRIMARY KEY (key, sequence)
			) WITH CLUSTERING ORDER BY (sequence DESC)`,
			keyspace, t.objects,
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s.%s (
				key blob,
				seq bigint,
				next blob,
				PRIMARY KEY (key, seq)
			) WITH CLUSTERING ORDER BY (seq ASC)`,
			keyspace, t.successor,
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s.%s (
				seq bigint,
				key blob,
				PRIMARY KEY (seq, key)
			)`,
			keyspace, t.diff,
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s.%s (
				sequence bigint PRIMARY KEY,
				header blob
			)`,
			keyspace, t.ledgers,
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s.%s (
				hash blob PRIMARY KEY,
				sequence bigint
			)`,
			keyspace, t.ledgerHashes,
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s.%s (
				is_latest boolean PRIMARY KEY,
				sequence bigint
			)`,
			keyspace, t.ledgerRange,
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s.%s (
				hash blob PRIMARY KEY,
				ledger_seq bigint,
				date bigint,
				transaction blob,
				metadata blob
			)`,
			keyspace, t.transactions,
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s.%s (
				ledger_seq bigint,
				hash blob,
				PRIMARY KEY (ledger_seq, hash)
			)`,
			keyspace, t.ledgerTransactions,
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s.%s (
				account blob,
				seq_idx tuple<bigint, bigint>,
				hash blob,
				PRIMARY KEY (account, seq_idx)
			) WITH CLUSTERING ORDER BY (seq_idx DESC)`,
			keyspace, t.accountTx,
		),
	}
}
