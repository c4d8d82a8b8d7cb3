// Package backend defines the storage-backend capability set and the
// cache-glue read/write path layered in front of it. Dynamic dispatch over
// backend variants is expressed as a plain Go interface rather than
// reflection or a plugin loader, the same capability-set design this
// codebase's other Backend interfaces already use.
package backend

import (
	"context"
	"log"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore"
)

// AccountTxMarker is a forward/reverse pagination cursor for
// FetchAccountTransactions, keyed by the account_tx table's composite
// clustering column.
type AccountTxMarker struct {
	LedgerSeq ledgerstore.LedgerIndex
	TxnIndex  uint32
}

// Logger is the narrow logging surface every package in this module
// depends on, kept small enough that a single adapter over the standard
// library's log package can satisfy it everywhere.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// DefaultLogger adapts the standard library's log package to Logger.
type DefaultLogger struct {
	logger *log.Logger
}

// NewDefaultLogger builds a DefaultLogger around log.Default().
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{logger: log.Default()}
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) { l.logger.Printf("[DEBUG] "+msg, fields...) }
func (l *DefaultLogger) Info(msg string, fields ...interface{})  { l.logger.Printf("[INFO] "+msg, fields...) }
func (l *DefaultLogger) Warn(msg string, fields ...interface{})  { l.logger.Printf("[WARN] "+msg, fields...) }
func (l *DefaultLogger) Error(msg string, fields ...interface{}) { l.logger.Printf("[ERROR] "+msg, fields...) }

// Backend is the capability set any persistent storage engine must
// provide. Only cassandra.CassandraBackend ships in this repository; a
// second engine would wire in the same way, via explicit constructor
// injection (the cassandra package exposes NewBackend(cfg, log), and the
// caller then calls Open on the result) rather than a runtime registry,
// since there is exactly one production engine to wire up.
type Backend interface {
	// Open prepares the backend for use: establishes the driver session,
	// builds the prepared-statement catalog, and creates the schema if
	// readOnly is false and it does not already exist.
	Open(ctx context.Context, readOnly bool) error

	// Close releases the driver session and any other resources acquired
	// by Open, in reverse order of acquisition.
	Close() error

	// --- read path, consulted by Interface after a cache miss ---

	DoFetchLedgerObject(ctx context.Context, key ledgerstore.Hash256, seq ledgerstore.LedgerIndex) ([]byte, error)
	DoFetchSuccessorKey(ctx context.Context, key ledgerstore.Hash256, seq ledgerstore.LedgerIndex) (ledgerstore.Hash256, error)
	DoFetchLedgerObjects(ctx context.Context, keys []ledgerstore.Hash256, seq ledgerstore.LedgerIndex) ([][]byte, error)

	FetchLatestLedgerSequence(ctx context.Context) (ledgerstore.LedgerIndex, error)
	FetchLedgerBySequence(ctx context.Context, seq ledgerstore.LedgerIndex) (*ledgerstore.LedgerHeader, error)
	FetchLedgerByHash(ctx context.Context, hash ledgerstore.Hash256) (*ledgerstore.LedgerHeader, error)

	FetchAllTransactionsInLedger(ctx context.Context, seq ledgerstore.LedgerIndex) ([]ledgerstore.TransactionRecord, error)
	FetchAllTransactionHashesInLedger(ctx context.Context, seq ledgerstore.LedgerIndex) ([]ledgerstore.Hash256, error)
	FetchAccountTransactions(ctx context.Context, account ledgerstore.AccountID, limit int, forward bool, cursor *AccountTxMarker) ([]ledgerstore.AccountTxRow, *AccountTxMarker, error)

	HardFetchLedgerRange(ctx context.Context) (*ledgerstore.LedgerRange, error)

	// --- write path, issued between StartWrites and DoFinishWrites ---

	StartWrites()
	DoWriteLedgerObject(ctx context.Context, key ledgerstore.Hash256, seq ledgerstore.LedgerIndex, blob []byte) error
	WriteSuccessor(ctx context.Context, prevKey ledgerstore.Hash256, seq ledgerstore.LedgerIndex, nextKey ledgerstore.Hash256) error
	WriteTransaction(ctx context.Context, tx ledgerstore.TransactionRecord) error
	WriteAccountTransactions(ctx context.Context, rows []ledgerstore.AccountTxRow) error
	WriteLedger(ctx context.Context, header ledgerstore.LedgerHeader, serializedHeader []byte) error
	DoFinishWrites(ctx context.Context, seq ledgerstore.LedgerIndex) (bool, error)

	// --- retention ---

	DoOnlineDelete(ctx context.Context, numLedgersToKeep uint32) error
}
