package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/mma_ledger/internal/core/domain"
	"github.com/SscSPs/mma_ledger/internal/utils/pagination"
)

// LineQuery selects posted lines of one account within an inclusive date range,
// strictly after an optional cursor.
type LineQuery struct {
	AccountCode string
	From        time.Time
	To          time.Time
	After       *pagination.Cursor
	Limit       int
}

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindEntryByID retrieves an entry with its lines and derived reversal status.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)
}

// LineReader defines aggregate and ordered reads over posted lines.
type LineReader interface {
	// SumLines totals the posted lines of one account with entry date <= asOf.
	// A nil asOf covers the full history.
	SumLines(ctx context.Context, accountCode string, asOf *time.Time) (domain.LineTotals, error)

	// ListAccountTotals returns every account ordered by code with the totals of
	// its lines dated <= asOf. Accounts and totals are read from one snapshot, so
	// a posting commits either wholly before or wholly after the read.
	ListAccountTotals(ctx context.Context, asOf *time.Time) ([]domain.AccountTotals, error)

	// ListLines returns up to q.Limit lines ordered by (entry date, entry id, line id).
	ListLines(ctx context.Context, q LineQuery) ([]domain.JournalLine, error)
}
