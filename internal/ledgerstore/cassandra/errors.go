package cassandra

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore/backend"
)

// classify maps a driver error onto the taxonomy the write pipeline and
// read wrappers act on. The timeout-class conditions named here mirror the
// CQL binary protocol's own error codes (unavailable, overloaded, read
// timeout, write timeout) plus the client-side "no hosts available"/
// "request timed out" cases the driver raises before a request ever
// reaches a coordinator, and an expired context deadline.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return backend.WrapTimeout("classify", err)
	}
	if errors.Is(err, gocql.ErrNoConnections) || errors.Is(err, gocql.ErrTimeoutNoResponse) {
		return backend.WrapTimeout("classify", err)
	}

	switch err.(type) {
	case *gocql.RequestErrUnavailable, *gocql.RequestErrReadTimeout, *gocql.RequestErrWriteTimeout:
		return backend.WrapTimeout("classify", err)
	}

	if reqErr, ok := err.(gocql.RequestError); ok {
		switch reqErr.Code() {
		case gocql.ErrCodeOverloaded:
			return backend.WrapTimeout("classify", err)
		case gocql.ErrCodeInvalid, gocql.ErrCodeSyntax, gocql.ErrCodeConfig:
			return &backend.InvalidQueryError{Operation: "classify", Cause: err}
		}
	}

	return err
}

func isTimeoutClass(err error) bool {
	return errors.Is(err, backend.ErrDatabaseTimeout)
}
