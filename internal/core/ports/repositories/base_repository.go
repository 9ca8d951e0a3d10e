package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/mma_ledger/internal/core/domain"
)

// StoreTx is the set of operations available inside a transactional scope.
// Nothing written through a StoreTx is visible to other readers until the
// scope commits.
type StoreTx interface {
	// LockAccounts loads and locks the given accounts for the rest of the scope.
	// Implementations lock in ascending code order. Any missing code yields an
	// error matching apperrors.ErrNotFound.
	LockAccounts(ctx context.Context, codes []string) (map[string]domain.Account, error)

	// ApplyBalanceDelta adds delta to an account's running balance.
	ApplyBalanceDelta(ctx context.Context, code string, delta decimal.Decimal, at time.Time) error

	// SaveEntry persists a posted entry and all of its lines.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// LockEntry loads an entry for the rest of the scope so concurrent reversals serialize.
	LockEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)
}

// TransactionManager runs a function inside a single all-or-nothing scope.
// If fn returns an error or ctx is cancelled before commit, every write made
// through the StoreTx is discarded.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error
}

// Store is the persistence collaborator of the ledger.
type Store interface {
	AccountRepositoryFacade
	JournalReader
	LineReader
	TransactionManager
}
