package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ValidationError reports malformed or out-of-range input.
// It never accompanies a state change and is safe to show to the caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientFundsError reports that the requested debit (plus fee) exceeds the balance
type InsufficientFundsError struct {
	Requested decimal.Decimal
	Fee       decimal.Decimal
	Total     decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	if e.Fee.IsPositive() {
		return fmt.Sprintf("insufficient funds including fee: fee %s, total needed %s, available %s (short by %s)",
			e.Fee.StringFixed(2), e.Total.StringFixed(2), e.Available.StringFixed(2), e.Shortfall().StringFixed(2))
	}
	return fmt.Sprintf("insufficient funds: requested %s, available %s (short by %s)",
		e.Total.StringFixed(2), e.Available.StringFixed(2), e.Shortfall().StringFixed(2))
}

// Shortfall returns how much is missing to cover the total debit
func (e *InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Total.Sub(e.Available)
}

// NotFoundError reports a missing vault, goal or recipient.
// Records owned by someone else report the same message.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// LockedError reports a pension withdrawal attempted before the lock period ends
type LockedError struct {
	UnlockAt time.Time
	Reason   string
}

func (e *LockedError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "funds are locked"
	}
	return fmt.Sprintf("%s until %s", reason, e.UnlockAt.UTC().Format("2006-01-02"))
}

// ConflictError reports a concurrent-modification abort from the store.
// The whole operation may be retried once after re-reading state.
type ConflictError struct {
	Err error
}

func (e *ConflictError) Error() string {
	if e.Err == nil {
		return "concurrent modification, please retry"
	}
	return "concurrent modification, please retry: " + e.Err.Error()
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether err is (or wraps) a ConflictError
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// Common not-found errors
var (
	ErrVaultNotFound     = &NotFoundError{Resource: "vault"}
	ErrGoalNotFound      = &NotFoundError{Resource: "goal"}
	ErrRecipientNotFound = &NotFoundError{Resource: "recipient"}
	ErrProfileNotFound   = &NotFoundError{Resource: "profile"}
)

// ErrVaultExists is returned when an owner already holds a vault of the requested type
var ErrVaultExists = errors.New("vault already exists for this owner and type")
