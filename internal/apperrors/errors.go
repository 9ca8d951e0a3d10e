package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the request conflicts with the current ledger state.
var ErrConflict = errors.New("conflict with current state")

// ErrInternal indicates a failure in a collaborator (database, driver) rather than in the input.
var ErrInternal = errors.New("internal error")

// AppError wraps an infrastructure failure with a status-like code and a message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes both the cause and ErrInternal to errors.Is/As.
func (e *AppError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInternal}
	}
	return []error{e.Err, ErrInternal}
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// InvalidAmountError reports a proposed line amount that is zero, negative or
// finer than the ledger's minor unit.
type InvalidAmountError struct {
	AccountCode string
	Amount      decimal.Decimal
	Reason      string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s for account %s: %s", e.Amount.String(), e.AccountCode, e.Reason)
}

func (e *InvalidAmountError) Unwrap() error { return ErrValidation }

// EmptyEntryError reports a draft with fewer than two lines.
type EmptyEntryError struct {
	Lines int
}

func (e *EmptyEntryError) Error() string {
	return fmt.Sprintf("journal entry must have at least two lines, got %d", e.Lines)
}

func (e *EmptyEntryError) Unwrap() error { return ErrValidation }

// UnbalancedEntryError reports a draft whose debit and credit sums disagree.
// Discrepancy is debits minus credits.
type UnbalancedEntryError struct {
	Debits      decimal.Decimal
	Credits     decimal.Decimal
	Discrepancy decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("journal entry does not balance: debits %s, credits %s, discrepancy %s",
		e.Debits.String(), e.Credits.String(), e.Discrepancy.String())
}

func (e *UnbalancedEntryError) Unwrap() error { return ErrValidation }

// DuplicateCodeError reports an account code collision.
type DuplicateCodeError struct {
	Code string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("account with code %s already exists", e.Code)
}

func (e *DuplicateCodeError) Unwrap() error { return ErrDuplicate }

// Resource kinds carried by NotFoundError.
const (
	KindAccount      = "account"
	KindJournalEntry = "journal entry"
)

// NotFoundError reports a reference to a nonexistent account or journal entry.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// AlreadyReversedError reports a second reversal attempt against one entry.
type AlreadyReversedError struct {
	EntryID    string
	ReversalID string
}

func (e *AlreadyReversedError) Error() string {
	if e.ReversalID == "" {
		return fmt.Sprintf("journal entry %s is already reversed", e.EntryID)
	}
	return fmt.Sprintf("journal entry %s is already reversed by %s", e.EntryID, e.ReversalID)
}

func (e *AlreadyReversedError) Unwrap() error { return ErrConflict }
