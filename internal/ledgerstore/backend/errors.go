package backend

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates logical absence: a missing ledger, transaction, or
// object. Read methods that return a pointer or blob (object and header
// lookups) report absence as (nil, nil); DoFetchSuccessorKey,
// FetchLatestLedgerSequence and HardFetchLedgerRange report it by
// returning this sentinel, which callers check with errors.Is.
var ErrNotFound = errors.New("ledgerstore: not found")

// ErrDatabaseTimeout is the distinguished condition for a driver outcome
// that did not confirm whether the operation applied. Writes retry
// forever on this condition; reads propagate it, except the range-read
// wrapper, which retries until it gets a definite answer.
var ErrDatabaseTimeout = errors.New("ledgerstore: database operation timed out")

// InvalidQueryError marks a query the server rejected outright — a
// programmer error in the statement catalog rather than a transient
// condition. It is never retried.
type InvalidQueryError struct {
	Operation string
	Cause     error
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("ledgerstore: invalid query in %s: %v", e.Operation, e.Cause)
}

func (e *InvalidQueryError) Unwrap() error { return e.Cause }

// DataIntegrityError marks an unexpected row shape: a missing column, a
// wrong type, or a row that otherwise violates what the schema promises.
// It is fatal to the call that hit it.
type DataIntegrityError struct {
	Operation string
	Cause     error
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("ledgerstore: data integrity error in %s: %v", e.Operation, e.Cause)
}

func (e *DataIntegrityError) Unwrap() error { return e.Cause }

// WrapTimeout tags err as a database timeout, joining it with
// ErrDatabaseTimeout so errors.Is(result, ErrDatabaseTimeout) succeeds
// while the original driver error still matches errors.Is and errors.As.
// The result wraps two errors, so errors.Unwrap on it returns nil.
func WrapTimeout(operation string, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("ledgerstore: %s: %w: %w", operation, ErrDatabaseTimeout, cause)
}
