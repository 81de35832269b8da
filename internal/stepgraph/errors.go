package stepgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is() to check for these in calling code.
var (
	// ErrNotFound indicates the step or recipe does not resolve, or resolves
	// to a different recipe than the caller claimed.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a request the caller can correct.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreFailure indicates the persistence layer failed for
	// infrastructure reasons.
	ErrStoreFailure = errors.New("store failure")

	// ErrHasDependents is returned by StepStore.DeleteStepCascade when the
	// step is still consumed by another step.
	ErrHasDependents = errors.New("step has dependents")

	// ErrUnknownStep is returned by StepStore.CreateStepWithEdges when a
	// declared dependency does not exist.
	ErrUnknownStep = errors.New("unknown step")

	// ErrStepMoved is returned by StepStore.SwapStepNums when either step no
	// longer holds the number the caller read.
	ErrStepMoved = errors.New("step moved")
)

// DeletionBlockedError reports that a step cannot be deleted because other
// steps consume its output. No mutation happened.
type DeletionBlockedError struct {
	StepNum          int
	BlockingStepNums []int // ascending
}

func (e *DeletionBlockedError) Error() string {
	return FormatDeletionBlocked(e.StepNum, e.BlockingStepNums)
}

// ValidationError describes a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// StoreError wraps an unexpected persistence error with the operation that
// failed. It matches ErrStoreFailure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes every StoreError match ErrStoreFailure.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

func storeFailure(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
