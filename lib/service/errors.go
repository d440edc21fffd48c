package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError rejects malformed or out-of-range input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvariantViolation rejects a write that would break a ledger invariant.
// Currently the only invariant guarded this way is grant overspend.
type InvariantViolation struct {
	GrantID   int64
	GrantName string
	Requested decimal.Decimal
	Used      decimal.Decimal
	Total     decimal.Decimal
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("grant %q cannot cover expense of %s: %s of %s already used",
		e.GrantName, e.Requested, e.Used, e.Total)
}

// NotFoundError signals that a referenced record does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ConcurrencyConflict signals that a row changed between validation and
// write. The whole surrounding transaction is rolled back, callers may
// retry.
type ConcurrencyConflict struct {
	Entity string
	ID     int64
}

func (e *ConcurrencyConflict) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently", e.Entity, e.ID)
}
