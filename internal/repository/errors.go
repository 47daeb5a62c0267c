package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Store-level failures surfaced by repositories. Services decide how they map
// onto API errors.
var (
	ErrUniqueViolation    = errors.New("unique constraint violated")
	ErrExclusionViolation = errors.New("exclusion constraint violated")
	ErrSerialization      = errors.New("transaction could not be serialized")
	ErrTxBegin            = errors.New("could not begin transaction")
)

const (
	pqUniqueViolation      = "23505"
	pqExclusionViolation   = "23P01"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// classify tags PostgreSQL errors with the matching sentinel while keeping the
// driver error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		return &storeError{kind: ErrUniqueViolation, err: err, constraint: pqErr.Constraint}
	case pqExclusionViolation:
		return &storeError{kind: ErrExclusionViolation, err: err, constraint: pqErr.Constraint}
	case pqSerializationFailure, pqDeadlockDetected:
		return &storeError{kind: ErrSerialization, err: err}
	}
	return err
}

type storeError struct {
	kind       error
	err        error
	constraint string
}

func (e *storeError) Error() string {
	if e.constraint != "" {
		return e.kind.Error() + " (" + e.constraint + "): " + e.err.Error()
	}
	return e.kind.Error() + ": " + e.err.Error()
}

func (e *storeError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// Constraint returns the violated constraint name when err carries one.
func Constraint(err error) string {
	var se *storeError
	if errors.As(err, &se) {
		return se.constraint
	}
	return ""
}

// IsRetryable reports whether a transaction failing with err may succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSerialization)
}
