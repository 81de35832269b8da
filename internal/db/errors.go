package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/recipebox/internal/stepgraph"
	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for database operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrRecordAlreadyExists indicates a record with the same ID or unique key
	// already exists.
	ErrRecordAlreadyExists = errors.New("record already exists")

	// ErrTransactionConflict indicates a SurrealDB transaction conflict.
	// This occurs when multiple concurrent operations attempt to modify the same records.
	// Callers should typically retry or skip the operation.
	ErrTransactionConflict = errors.New("transaction conflict")
)

// Messages raised with THROW inside the store's transactions.
const (
	throwHasDependents  = "step has dependents"
	throwUnknownStep    = "unknown step"
	throwStepNotFound   = "step not found"
	throwRecipeNotFound = "recipe not found"
	throwStepMoved      = "step moved"
)

// wrapQueryError inspects a SurrealDB error and wraps it with the appropriate
// sentinel error if it's a known query error type. Returns the original error
// if it's not a QueryError or doesn't match known patterns.
//
// A failed transaction reports one error per statement, so the whole joined
// message is searched rather than only the first QueryError.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if !errors.As(err, &queryErr) {
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, throwHasDependents):
		return fmt.Errorf("%w: %s", stepgraph.ErrHasDependents, queryErr.Message)
	case strings.Contains(msg, throwUnknownStep):
		return fmt.Errorf("%w: %s", stepgraph.ErrUnknownStep, queryErr.Message)
	case strings.Contains(msg, throwStepMoved):
		return fmt.Errorf("%w: %s", stepgraph.ErrStepMoved, queryErr.Message)
	case strings.Contains(msg, throwStepNotFound), strings.Contains(msg, throwRecipeNotFound):
		return fmt.Errorf("%w: %s", stepgraph.ErrNotFound, queryErr.Message)
	case strings.Contains(msg, "already exists"), strings.Contains(msg, "already contains"):
		return fmt.Errorf("%w: %s", ErrRecordAlreadyExists, queryErr.Message)
	case strings.Contains(msg, "Transaction conflict"), strings.Contains(msg, "transaction conflict"):
		return fmt.Errorf("%w: %s", ErrTransactionConflict, queryErr.Message)
	}
	return err
}
