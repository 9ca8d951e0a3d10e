package services

import (
	"context"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/mma_ledger/internal/core/domain"
)

// BalanceReaderSvc answers point-in-time balance questions.
type BalanceReaderSvc interface {
	// BalanceAsOf sums posted lines dated on or before date under the account's
	// normal-balance sign. Zero when there are none.
	BalanceAsOf(ctx context.Context, code string, date time.Time) (decimal.Decimal, error)
}

// ActivityReaderSvc lists posted lines of an account.
type ActivityReaderSvc interface {
	// Activity yields lines dated within [from, to] ordered by
	// (entry date, entry id, line id). Each range over the sequence re-reads the store.
	Activity(ctx context.Context, code string, from, to time.Time) iter.Seq2[domain.JournalLine, error]

	// ActivityPage returns one page of the same ordering and a token for the next page.
	ActivityPage(ctx context.Context, code string, from, to time.Time, limit int, nextToken *string) ([]domain.JournalLine, *string, error)
}

// IntegrityReaderSvc reports on ledger-wide consistency.
type IntegrityReaderSvc interface {
	// TrialBalance totals every account up to asOf (nil for all history).
	TrialBalance(ctx context.Context, asOf *time.Time) (*domain.TrialBalance, error)

	// VerifyBalances recomputes every account from its lines and returns the drifts.
	VerifyBalances(ctx context.Context) ([]domain.BalanceDrift, error)
}

// LedgerQuerySvcFacade combines the read-only ledger queries
type LedgerQuerySvcFacade interface {
	BalanceReaderSvc
	ActivityReaderSvc
	IntegrityReaderSvc
}
