package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineSide indicates whether a journal line is a Debit or a Credit.
type LineSide string

const (
	Debit  LineSide = "DEBIT"
	Credit LineSide = "CREDIT"
)

// JournalEntry is a row of the journal_entries table. Rows are append-only.
type JournalEntry struct {
	EntryID         string    `db:"entry_id"`
	EntryDate       time.Time `db:"entry_date"`
	Description     string    `db:"description"`
	Reference       string    `db:"reference"`
	ReversesEntryID *string   `db:"reverses_entry_id"` // Nullable
	CreatedAt       time.Time `db:"created_at"`

	// ReversedByID is not a column; it comes from joining the reversal row.
	ReversedByID *string `db:"reversed_by_id"`
}

// JournalLine is a row of the journal_lines table. Rows are append-only.
type JournalLine struct {
	LineID      string          `db:"line_id"`
	EntryID     string          `db:"entry_id"`
	AccountCode string          `db:"account_code"`
	Amount      decimal.Decimal `db:"amount"` // Always positive
	Side        LineSide        `db:"side"`
	EntryDate   time.Time       `db:"entry_date"` // Denormalized from the entry for activity scans
	CreatedAt   time.Time       `db:"created_at"`
}
