package pgsql

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/mma_ledger/internal/apperrors"
	"github.com/SscSPs/mma_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_ledger/internal/core/ports/repositories"
)

// PgxStore is the PostgreSQL-backed ledger store. Postings run in one pgx
// transaction that row-locks every touched account, so concurrent postings
// to the same account serialize and readers never see half an entry.
type PgxStore struct {
	*PgxAccountRepository
	*PgxJournalRepository
	BaseRepository
}

// NewPgxStore creates a store over pool.
func NewPgxStore(pool *pgxpool.Pool) *PgxStore {
	return &PgxStore{
		PgxAccountRepository: newPgxAccountRepository(pool),
		PgxJournalRepository: newPgxJournalRepository(pool),
		BaseRepository:       BaseRepository{Pool: pool},
	}
}

var _ portsrepo.Store = (*PgxStore)(nil)

// RunInTx runs fn inside a database transaction. The transaction is rolled
// back when fn fails or ctx is cancelled before commit.
func (s *PgxStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.StoreTx) error) error {
	tx, err := s.BaseRepository.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// A cancelled ctx would abort the rollback round trip itself.
		if rerr := s.BaseRepository.Rollback(context.WithoutCancel(ctx), tx); rerr != nil {
			slog.ErrorContext(ctx, "Failed to roll back ledger transaction", slog.String("error", rerr.Error()))
		}
	}()

	if err := fn(ctx, &pgxStoreTx{tx: tx, pool: s.Pool}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.BaseRepository.Commit(ctx, tx)
}

// pgxStoreTx is the StoreTx handed to RunInTx callbacks.
type pgxStoreTx struct {
	tx   pgx.Tx
	pool *pgxpool.Pool
}

func (t *pgxStoreTx) LockAccounts(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	return lockAccountsForUpdate(ctx, t.tx, codes)
}

func (t *pgxStoreTx) ApplyBalanceDelta(ctx context.Context, code string, delta decimal.Decimal, at time.Time) error {
	return applyBalanceDelta(ctx, t.tx, code, delta, at)
}

func (t *pgxStoreTx) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	err := saveEntry(ctx, t.tx, entry)
	var already *apperrors.AlreadyReversedError
	if errors.As(err, &already) && already.ReversalID == "" {
		// t.tx is aborted by the violation. The winning reversal has committed,
		// so the pool can see it.
		if id, lerr := findReversalID(ctx, t.pool, already.EntryID); lerr == nil {
			already.ReversalID = id
		} else {
			slog.WarnContext(ctx, "Failed to look up winning reversal",
				slog.String("entry_id", already.EntryID), slog.String("error", lerr.Error()))
		}
	}
	return err
}

func (t *pgxStoreTx) LockEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return findEntry(ctx, t.tx, entryID, true)
}
