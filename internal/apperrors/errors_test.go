package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"invalid amount", &InvalidAmountError{AccountCode: "1000", Amount: decimal.Zero, Reason: "zero"}, ErrValidation},
		{"empty entry", &EmptyEntryError{Lines: 1}, ErrValidation},
		{"unbalanced", &UnbalancedEntryError{Debits: decimal.NewFromInt(100), Credits: decimal.NewFromInt(90), Discrepancy: decimal.NewFromInt(10)}, ErrValidation},
		{"duplicate", &DuplicateCodeError{Code: "1000"}, ErrDuplicate},
		{"not found", NewNotFoundError(KindAccount, "1000"), ErrNotFound},
		{"already reversed", &AlreadyReversedError{EntryID: "e1", ReversalID: "e2"}, ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("posting: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.NotErrorIs(t, wrapped, ErrInternal)
		})
	}
}

func TestErrorMessagesCarryDetails(t *testing.T) {
	unbalanced := &UnbalancedEntryError{Debits: decimal.NewFromInt(100), Credits: decimal.NewFromInt(90), Discrepancy: decimal.NewFromInt(10)}
	assert.Contains(t, unbalanced.Error(), "discrepancy 10")

	assert.Equal(t, "account 9999 not found", NewNotFoundError(KindAccount, "9999").Error())
	assert.Contains(t, (&InvalidAmountError{AccountCode: "1000", Amount: decimal.NewFromInt(-5), Reason: "negative"}).Error(), "-5")
	assert.Equal(t, "journal entry e1 is already reversed", (&AlreadyReversedError{EntryID: "e1"}).Error())
	assert.Equal(t, "journal entry e1 is already reversed by e2", (&AlreadyReversedError{EntryID: "e1", ReversalID: "e2"}).Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewAppError(500, "failed to commit transaction", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, "failed to commit transaction: connection reset", err.Error())

	bare := NewAppError(500, "no cause", nil)
	assert.ErrorIs(t, bare, ErrInternal)
	assert.Equal(t, "no cause", bare.Error())
}
