package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a committed journal entry.
// Drafts are never persisted so they have no status.
type EntryStatus string

const (
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// Side indicates whether a journal line is a debit or a credit.
type Side string

const (
	Debit  Side = "DEBIT"
	Credit Side = "CREDIT"
)

// IsValid reports whether s is Debit or Credit.
func (s Side) IsValid() bool {
	return s == Debit || s == Credit
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Debit {
		return Credit
	}
	return Debit
}

// JournalEntry is a posted, balanced financial event. Its stored fields never
// change after posting; Status and ReversedByID are derived from whether a
// later reversal references it.
type JournalEntry struct {
	EntryID         string        `json:"entryID"`
	EntryDate       time.Time     `json:"entryDate"` // UTC calendar day
	Description     string        `json:"description"`
	Reference       string        `json:"reference,omitempty"`
	ReversesEntryID *string       `json:"reversesEntryID,omitempty"` // Set on reversal entries
	ReversedByID    *string       `json:"reversedByID,omitempty"`    // Derived
	Status          EntryStatus   `json:"status"`
	Lines           []JournalLine `json:"lines"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// IsReversal reports whether the entry reverses another entry.
func (e JournalEntry) IsReversal() bool {
	return e.ReversesEntryID != nil
}

// Totals returns the debit and credit sums over the entry's lines.
func (e JournalEntry) Totals() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		if l.Side == Debit {
			debits = debits.Add(l.Amount)
		} else {
			credits = credits.Add(l.Amount)
		}
	}
	return debits, credits
}

// JournalLine is a single line of a journal entry affecting one account.
// Amount is always positive; Side carries the direction.
type JournalLine struct {
	LineID      string          `json:"lineID"`
	EntryID     string          `json:"entryID"`
	AccountCode string          `json:"accountCode"`
	Amount      decimal.Decimal `json:"amount"`
	Side        Side            `json:"side"`
	EntryDate   time.Time       `json:"entryDate"` // Copied from the parent entry for ordering
	CreatedAt   time.Time       `json:"createdAt"`
}
