// Package store provides error types for conversation store operations.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested conversation does not exist or is
	// not owned by the requesting user.
	ErrNotFound = errors.New("conversation not found")

	// ErrTransactionConflict indicates a SurrealDB transaction conflict.
	// Two dispatches appending to the same conversation may race; Append
	// retries the conflicting statement a few times before surfacing it.
	ErrTransactionConflict = errors.New("transaction conflict")
)

// wrapQueryError inspects a SurrealDB error and wraps it with the appropriate
// sentinel error if it's a known query error type. Returns the original error
// if it's not a QueryError or doesn't match known patterns.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		if strings.Contains(queryErr.Message, "Transaction conflict") {
			return fmt.Errorf("%w: %s", ErrTransactionConflict, queryErr.Message)
		}
	}

	return err
}
