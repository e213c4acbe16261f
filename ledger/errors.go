/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Outer surfaces (api, cmd, assistant) classify failures with errors.Is
  against the sentinels below; the structured errors carry the context a
  caller needs to render a useful message.

ERROR CATEGORIES:
  1. Validation errors - Malformed or inconsistent commands
  2. Funding errors - Insufficient funds, over-settlement
  3. Lookup errors - Unknown transaction, person, account
  4. Store errors - Nothing persisted yet, corrupt blob, I/O failures

USAGE:
  if errors.Is(err, ledger.ErrInsufficientFunds) {
      var ife *ledger.InsufficientFundsError
      errors.As(err, &ife)
      ...
  }

SEE ALSO:
  - processor.go: Produces these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when a command is malformed or references
	// something that does not exist in the ledger.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientFunds is returned when an operation would leave an
	// account it debits below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotFound is returned when a referenced transaction, person or
	// account doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrOverSettlement is returned when a repayment exceeds the
	// outstanding loan or liability.
	ErrOverSettlement = errors.New("settlement exceeds outstanding balance")

	// ErrNoState is returned by stores that have nothing persisted yet.
	ErrNoState = errors.New("no persisted ledger state")

	// ErrCorruptState is returned by stores whose persisted blob cannot be
	// decoded.
	ErrCorruptState = errors.New("persisted ledger state is corrupt")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending command field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientFundsError provides details about an account shortage.
type InsufficientFundsError struct {
	Account   string
	Available Amount
	Requested Amount
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in %s: available %v, requested %v",
		e.Account, e.Available.Value, e.Requested.Value)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// NotFoundError names what was looked up. What is one of "transaction",
// "person", "account" or "category".
type NotFoundError struct {
	What string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// OverSettlementError provides details about a repayment larger than the
// outstanding balance.
type OverSettlementError struct {
	Person      string
	Outstanding Amount
	Requested   Amount
}

func (e *OverSettlementError) Error() string {
	return fmt.Sprintf("settlement for %s exceeds outstanding balance: outstanding %v, requested %v",
		e.Person, e.Outstanding.Value, e.Requested.Value)
}

func (e *OverSettlementError) Unwrap() error {
	return ErrOverSettlement
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// or a business rule the client can fix.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrOverSettlement)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
