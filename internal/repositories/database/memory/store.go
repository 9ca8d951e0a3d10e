// Package memory is an in-process ledger store for tests and embedded hosts.
// It holds no state outside the process.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/mma_ledger/internal/apperrors"
	"github.com/SscSPs/mma_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_ledger/internal/core/ports/repositories"
)

// Store keeps accounts, entries and lines in maps guarded by one RWMutex.
// RunInTx holds the write lock for the whole scope, so readers either see the
// state before a posting or after it, never in between. RunInTx must not be
// called again from inside fn.
type Store struct {
	mu         sync.RWMutex
	accounts   map[string]domain.Account
	entries    map[string]domain.JournalEntry  // stored without derived fields
	lines      map[string][]domain.JournalLine // per account, in activity order
	reversedBy map[string]string               // original entry id -> reversal id
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]domain.Account),
		entries:    make(map[string]domain.JournalEntry),
		lines:      make(map[string][]domain.JournalLine),
		reversedBy: make(map[string]string),
	}
}

var _ portsrepo.Store = (*Store)(nil)

// SaveAccount persists a new account.
func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Code]; ok {
		return &apperrors.DuplicateCodeError{Code: account.Code}
	}
	s.accounts[account.Code] = account
	return nil
}

// FindAccountByCode retrieves a specific account by its code.
func (s *Store) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[code]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.KindAccount, code)
	}
	return &acc, nil
}

// ListAccounts retrieves every account ordered by code.
func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := slices.Collect(maps.Values(s.accounts))
	slices.SortFunc(accounts, func(a, b domain.Account) int { return cmp.Compare(a.Code, b.Code) })
	return accounts, nil
}

// FindEntryByID retrieves an entry with its lines and derived reversal status.
func (s *Store) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entryLocked(entryID)
}

// entryLocked returns a copy of a stored entry. Callers hold s.mu.
func (s *Store) entryLocked(entryID string) (*domain.JournalEntry, error) {
	stored, ok := s.entries[entryID]
	if !ok {
		return nil, apperrors.NewNotFoundError(apperrors.KindJournalEntry, entryID)
	}
	entry := stored
	entry.Lines = slices.Clone(stored.Lines)
	entry.Status = domain.Posted
	if rev, ok := s.reversedBy[entryID]; ok {
		entry.ReversedByID = &rev
		entry.Status = domain.Reversed
	}
	return &entry, nil
}

// SumLines totals the posted lines of one account with entry date <= asOf.
func (s *Store) SumLines(ctx context.Context, accountCode string, asOf *time.Time) (domain.LineTotals, error) {
	if err := ctx.Err(); err != nil {
		return domain.LineTotals{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sumLines(s.lines[accountCode], asOf), nil
}

// ListAccountTotals returns every account with its line totals under a
// single read lock.
func (s *Store) ListAccountTotals(ctx context.Context, asOf *time.Time) ([]domain.AccountTotals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AccountTotals, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, domain.AccountTotals{Account: acc, Totals: sumLines(s.lines[acc.Code], asOf)})
	}
	slices.SortFunc(out, func(a, b domain.AccountTotals) int { return cmp.Compare(a.Account.Code, b.Account.Code) })
	return out, nil
}

func sumLines(lines []domain.JournalLine, asOf *time.Time) domain.LineTotals {
	totals := domain.LineTotals{Debits: decimal.Zero, Credits: decimal.Zero}
	for _, l := range lines {
		if asOf != nil && l.EntryDate.After(*asOf) {
			// Lines are date ordered.
			break
		}
		totals = totals.Add(l.Amount, l.Side)
	}
	return totals
}

// ListLines returns up to q.Limit lines ordered by (entry date, entry id, line id).
func (s *Store) ListLines(ctx context.Context, q portsrepo.LineQuery) ([]domain.JournalLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.JournalLine, 0, q.Limit)
	for _, l := range s.lines[q.AccountCode] {
		if l.EntryDate.Before(q.From) {
			continue
		}
		if l.EntryDate.After(q.To) {
			break
		}
		if q.After != nil && !q.After.After(l.EntryDate, l.EntryID, l.LineID) {
			continue
		}
		out = append(out, l)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// RunInTx runs fn with exclusive access to the store. Writes are staged on the
// tx and applied only if fn succeeds and ctx is still live.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.StoreTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &storeTx{
		store:    s,
		accounts: make(map[string]domain.Account),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	s.apply(tx)
	return nil
}

func (s *Store) apply(tx *storeTx) {
	maps.Copy(s.accounts, tx.accounts)

	touched := make(map[string]struct{})
	for _, entry := range tx.entries {
		stored := entry
		stored.ReversedByID = nil
		stored.Status = ""
		stored.Lines = slices.Clone(entry.Lines)
		s.entries[entry.EntryID] = stored
		if entry.ReversesEntryID != nil {
			s.reversedBy[*entry.ReversesEntryID] = entry.EntryID
		}
		for _, l := range entry.Lines {
			s.lines[l.AccountCode] = append(s.lines[l.AccountCode], l)
			touched[l.AccountCode] = struct{}{}
		}
	}
	for code := range touched {
		slices.SortFunc(s.lines[code], compareLines)
	}
}

func compareLines(a, b domain.JournalLine) int {
	return cmp.Or(
		a.EntryDate.Compare(b.EntryDate),
		cmp.Compare(a.EntryID, b.EntryID),
		cmp.Compare(a.LineID, b.LineID),
	)
}

// storeTx stages writes made inside RunInTx. The store's write lock is held
// for its whole life, so it reads the committed maps directly.
type storeTx struct {
	store    *Store
	accounts map[string]domain.Account
	entries  []domain.JournalEntry
}

func (t *storeTx) account(code string) (domain.Account, bool) {
	if acc, ok := t.accounts[code]; ok {
		return acc, true
	}
	acc, ok := t.store.accounts[code]
	return acc, ok
}

func (t *storeTx) LockAccounts(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]domain.Account, len(codes))
	for _, code := range codes {
		acc, ok := t.account(code)
		if !ok {
			return nil, apperrors.NewNotFoundError(apperrors.KindAccount, code)
		}
		out[code] = acc
	}
	return out, nil
}

func (t *storeTx) ApplyBalanceDelta(ctx context.Context, code string, delta decimal.Decimal, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	acc, ok := t.account(code)
	if !ok {
		return apperrors.NewNotFoundError(apperrors.KindAccount, code)
	}
	acc.Balance = acc.Balance.Add(delta)
	acc.UpdatedAt = at
	t.accounts[code] = acc
	return nil
}

func (t *storeTx) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.store.entries[entry.EntryID]; ok {
		return fmt.Errorf("%w: entry %s already exists", apperrors.ErrDuplicate, entry.EntryID)
	}
	if entry.ReversesEntryID != nil {
		orig := *entry.ReversesEntryID
		if rev, ok := t.store.reversedBy[orig]; ok {
			return &apperrors.AlreadyReversedError{EntryID: orig, ReversalID: rev}
		}
		for _, staged := range t.entries {
			if staged.ReversesEntryID != nil && *staged.ReversesEntryID == orig {
				return &apperrors.AlreadyReversedError{EntryID: orig, ReversalID: staged.EntryID}
			}
		}
	}
	t.entries = append(t.entries, entry)
	return nil
}

func (t *storeTx) LockEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.store.entryLocked(entryID)
}
