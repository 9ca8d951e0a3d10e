package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/mma_ledger/internal/apperrors"
	"github.com/SscSPs/mma_ledger/internal/core/domain"
	"github.com/SscSPs/mma_ledger/internal/core/ports"
	portsrepo "github.com/SscSPs/mma_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mma_ledger/internal/core/ports/services"
	"github.com/SscSPs/mma_ledger/internal/core/services"
	"github.com/SscSPs/mma_ledger/internal/dto"
	"github.com/SscSPs/mma_ledger/internal/repositories/database/memory"
)

const (
	cashCode    = "1000-Cash"
	loanCode    = "2000-Loan"
	capitalCode = "3000-Capital"
	revenueCode = "4000-Revenue"
	rentCode    = "5000-Rent"
)

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// LedgerSuite runs the services against the in-memory store.
type LedgerSuite struct {
	suite.Suite
	store  *memory.Store
	ledger *portssvc.ServiceContainer
	ctx    context.Context
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.ledger = services.NewServiceContainer(
		portsrepo.RepositoryProvider{Store: s.store},
		services.WithClock(ports.FixedClock{T: testNow}),
		services.WithActivityPageSize(2),
	)

	s.createAccount(cashCode, "Cash", domain.Asset)
	s.createAccount(loanCode, "Bank Loan", domain.Liability)
	s.createAccount(capitalCode, "Owner Capital", domain.Equity)
	s.createAccount(revenueCode, "Revenue", domain.Revenue)
	s.createAccount(rentCode, "Rent", domain.Expense)
}

func (s *LedgerSuite) createAccount(code, name string, t domain.AccountType) {
	_, err := s.ledger.Account.CreateAccount(s.ctx, dto.CreateAccountRequest{Code: code, Name: name, AccountType: t})
	s.Require().NoError(err)
}

func (s *LedgerSuite) draft(date time.Time, desc string, build func(b *domain.EntryBuilder)) *domain.DraftEntry {
	b := domain.NewEntryBuilder()
	build(b)
	d, err := b.Build(date, desc, "")
	s.Require().NoError(err)
	return d
}

func (s *LedgerSuite) post(date time.Time, desc string, build func(b *domain.EntryBuilder)) *domain.JournalEntry {
	entry, err := s.ledger.Journal.Post(s.ctx, s.draft(date, desc, build))
	s.Require().NoError(err)
	return entry
}

func (s *LedgerSuite) balance(code string) decimal.Decimal {
	bal, err := s.ledger.Account.GetBalance(s.ctx, code, nil)
	s.Require().NoError(err)
	return bal
}

func (s *LedgerSuite) assertBalance(code, want string) {
	got := s.balance(code)
	s.Truef(amt(want).Equal(got), "balance of %s: want %s, got %s", code, want, got)
}

func (s *LedgerSuite) snapshot() map[string]decimal.Decimal {
	accounts, err := s.ledger.Account.ListAccounts(s.ctx)
	s.Require().NoError(err)
	out := make(map[string]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		out[a.Code] = a.Balance
	}
	return out
}

func (s *LedgerSuite) assertSnapshot(want map[string]decimal.Decimal) {
	got := s.snapshot()
	s.Require().Len(got, len(want))
	for code, bal := range want {
		s.Truef(bal.Equal(got[code]), "balance of %s: want %s, got %s", code, bal, got[code])
	}
}

func (s *LedgerSuite) assertNoDrift() {
	drifts, err := s.ledger.Query.VerifyBalances(s.ctx)
	s.Require().NoError(err)
	s.Empty(drifts)
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) TestPost_CashSaleScenario() {
	entry := s.post(day(2024, 1, 1), "Cash sale", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("1000")).Credit(revenueCode, amt("1000"))
	})

	s.NotEmpty(entry.EntryID)
	s.Equal(domain.Posted, entry.Status)
	s.Equal(day(2024, 1, 1), entry.EntryDate)
	s.Len(entry.Lines, 2)
	for _, l := range entry.Lines {
		s.Equal(entry.EntryID, l.EntryID)
		s.NotEmpty(l.LineID)
		s.Equal(entry.EntryDate, l.EntryDate)
	}

	s.assertBalance(cashCode, "1000")
	s.assertBalance(revenueCode, "1000")

	asOf := day(2024, 1, 1)
	bal, err := s.ledger.Account.GetBalance(s.ctx, cashCode, &asOf)
	s.Require().NoError(err)
	s.True(amt("1000").Equal(bal))

	bal, err = s.ledger.Query.BalanceAsOf(s.ctx, cashCode, day(2023, 12, 31))
	s.Require().NoError(err)
	s.True(bal.IsZero())

	s.assertNoDrift()
}

func (s *LedgerSuite) TestPost_DebitsEqualCreditsOnEveryEntry() {
	entry := s.post(day(2024, 1, 5), "Split", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("70.25")).
			Debit(rentCode, amt("29.75")).
			Credit(revenueCode, amt("60")).
			Credit(loanCode, amt("40"))
	})

	debits, credits := entry.Totals()
	s.True(debits.Equal(credits))
	s.True(amt("100").Equal(debits))

	stored, err := s.ledger.Journal.GetEntry(s.ctx, entry.EntryID)
	s.Require().NoError(err)
	d, c := stored.Totals()
	s.True(d.Equal(c))
	s.Len(stored.Lines, 4)
}

func (s *LedgerSuite) TestPost_SignConventionPerAccountType() {
	s.post(day(2024, 1, 1), "Owner funding", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("500")).Credit(capitalCode, amt("500"))
	})
	s.post(day(2024, 1, 2), "Loan drawdown", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("200")).Credit(loanCode, amt("200"))
	})
	s.post(day(2024, 1, 3), "Rent", func(b *domain.EntryBuilder) {
		b.Debit(rentCode, amt("120")).Credit(cashCode, amt("120"))
	})

	s.assertBalance(cashCode, "580")
	s.assertBalance(capitalCode, "500")
	s.assertBalance(loanCode, "200")
	s.assertBalance(rentCode, "120")
	s.assertNoDrift()
}

func (s *LedgerSuite) TestPost_DefaultsDateToClockDay() {
	entry := s.post(time.Time{}, "Undated", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("1")).Credit(revenueCode, amt("1"))
	})
	s.Equal(day(2024, 3, 15), entry.EntryDate)
	s.Equal(testNow, entry.CreatedAt)
}

func (s *LedgerSuite) TestPost_UnbalancedLeavesBalancesUnchanged() {
	s.post(day(2024, 1, 1), "Seed", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("10")).Credit(revenueCode, amt("10"))
	})
	before := s.snapshot()

	d := s.draft(day(2024, 1, 2), "Bad", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("100")).Credit(revenueCode, amt("90"))
	})
	entry, err := s.ledger.Journal.Post(s.ctx, d)

	s.Require().Error(err)
	s.Nil(entry)
	var unbalanced *apperrors.UnbalancedEntryError
	s.Require().ErrorAs(err, &unbalanced)
	s.True(amt("10").Equal(unbalanced.Discrepancy))
	s.ErrorIs(err, apperrors.ErrValidation)
	s.assertSnapshot(before)
}

func (s *LedgerSuite) TestPost_UnknownAccountLeavesBalancesUnchanged() {
	before := s.snapshot()

	d := s.draft(day(2024, 1, 2), "Ghost", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("5")).Credit("9999-Ghost", amt("5"))
	})
	_, err := s.ledger.Journal.Post(s.ctx, d)

	var nf *apperrors.NotFoundError
	s.Require().ErrorAs(err, &nf)
	s.Equal("9999-Ghost", nf.ID)
	s.Equal(apperrors.KindAccount, nf.Kind)
	s.assertSnapshot(before)

	lines, _, err := s.ledger.Query.ActivityPage(s.ctx, cashCode, day(2024, 1, 1), day(2024, 12, 31), 10, nil)
	s.Require().NoError(err)
	s.Empty(lines)
}

func (s *LedgerSuite) TestPost_RejectsAmountsFinerThanScale() {
	ledger := services.NewJournalService(s.store, services.WithMinorUnitScale(0))
	d := s.draft(day(2024, 1, 1), "Cents", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("1.50")).Credit(revenueCode, amt("1.50"))
	})

	_, err := ledger.Post(s.ctx, d)

	var invalid *apperrors.InvalidAmountError
	s.Require().ErrorAs(err, &invalid)
	s.Equal(cashCode, invalid.AccountCode)
	s.assertBalance(cashCode, "0")
}

func (s *LedgerSuite) TestPost_NilDraft() {
	_, err := s.ledger.Journal.Post(s.ctx, nil)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LedgerSuite) TestPost_CancelledBeforeCallHasNoEffect() {
	before := s.snapshot()
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	d := s.draft(day(2024, 1, 1), "Cancelled", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("5")).Credit(revenueCode, amt("5"))
	})
	_, err := s.ledger.Journal.Post(ctx, d)

	s.ErrorIs(err, context.Canceled)
	s.assertSnapshot(before)
}

func (s *LedgerSuite) TestPost_CancelledMidTransactionRollsBack() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	store := &hookStore{Store: s.store, beforeSave: func() error { cancel(); return nil }}
	ledger := services.NewJournalService(store)
	before := s.snapshot()

	d := s.draft(day(2024, 1, 1), "Aborted", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("5")).Credit(revenueCode, amt("5"))
	})
	_, err := ledger.Post(ctx, d)

	s.ErrorIs(err, context.Canceled)
	s.assertSnapshot(before)
	s.assertNoDrift()
}

func (s *LedgerSuite) TestPost_PersistenceFailureRollsBack() {
	boom := errors.New("disk full")
	store := &hookStore{Store: s.store, beforeSave: func() error { return boom }}
	ledger := services.NewJournalService(store)
	before := s.snapshot()

	d := s.draft(day(2024, 1, 1), "Fails", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("5")).Credit(revenueCode, amt("5"))
	})
	entry, err := ledger.Post(s.ctx, d)

	s.Nil(entry)
	s.ErrorIs(err, boom)
	s.assertSnapshot(before)
	s.assertNoDrift()
}

func (s *LedgerSuite) TestPost_ConcurrentPostingsDoNotLoseUpdates() {
	const pairs = 100
	g, ctx := errgroup.WithContext(s.ctx)
	for range pairs {
		g.Go(func() error {
			b := domain.NewEntryBuilder().Debit(cashCode, amt("50")).Credit(revenueCode, amt("50"))
			d, err := b.Build(day(2024, 2, 1), "Sale", "")
			if err != nil {
				return err
			}
			_, err = s.ledger.Journal.Post(ctx, d)
			return err
		})
		g.Go(func() error {
			b := domain.NewEntryBuilder().Debit(rentCode, amt("30")).Credit(cashCode, amt("30"))
			d, err := b.Build(day(2024, 2, 1), "Rent", "")
			if err != nil {
				return err
			}
			_, err = s.ledger.Journal.Post(ctx, d)
			return err
		})
	}
	s.Require().NoError(g.Wait())

	s.assertBalance(cashCode, "2000")
	s.assertBalance(revenueCode, "5000")
	s.assertBalance(rentCode, "3000")
	s.assertNoDrift()
}

func (s *LedgerSuite) TestReverse_RoundTripNetsToZero() {
	s.post(day(2024, 1, 1), "Seed", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("40")).Credit(capitalCode, amt("40"))
	})
	before := s.snapshot()

	original := s.post(day(2024, 1, 10), "Invoice 7", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("250")).Debit(rentCode, amt("50")).Credit(revenueCode, amt("300"))
	})
	reversal, err := s.ledger.Journal.Reverse(s.ctx, original.EntryID)
	s.Require().NoError(err)

	s.assertSnapshot(before)
	s.Equal(original.EntryDate, reversal.EntryDate)
	s.Equal("Reversal of Invoice 7", reversal.Description)
	s.Require().NotNil(reversal.ReversesEntryID)
	s.Equal(original.EntryID, *reversal.ReversesEntryID)
	s.True(reversal.IsReversal())
	s.Len(reversal.Lines, len(original.Lines))
	for i, l := range reversal.Lines {
		s.Equal(original.Lines[i].AccountCode, l.AccountCode)
		s.True(original.Lines[i].Amount.Equal(l.Amount))
		s.Equal(original.Lines[i].Side.Opposite(), l.Side)
	}

	stored, err := s.ledger.Journal.GetEntry(s.ctx, original.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.Reversed, stored.Status)
	s.Require().NotNil(stored.ReversedByID)
	s.Equal(reversal.EntryID, *stored.ReversedByID)
	s.Equal(original.Description, stored.Description)

	bal, err := s.ledger.Query.BalanceAsOf(s.ctx, revenueCode, day(2024, 1, 10))
	s.Require().NoError(err)
	s.True(bal.IsZero())
	s.assertNoDrift()
}

func (s *LedgerSuite) TestReverse_Twice() {
	original := s.post(day(2024, 1, 1), "Once", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("9")).Credit(revenueCode, amt("9"))
	})
	first, err := s.ledger.Journal.Reverse(s.ctx, original.EntryID)
	s.Require().NoError(err)
	before := s.snapshot()

	_, err = s.ledger.Journal.Reverse(s.ctx, original.EntryID)

	var already *apperrors.AlreadyReversedError
	s.Require().ErrorAs(err, &already)
	s.Equal(original.EntryID, already.EntryID)
	s.Equal(first.EntryID, already.ReversalID)
	s.ErrorIs(err, apperrors.ErrConflict)
	s.assertSnapshot(before)
}

func (s *LedgerSuite) TestReverse_ConcurrentAttemptsOnlyOneWins() {
	original := s.post(day(2024, 1, 1), "Race", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("15")).Credit(revenueCode, amt("15"))
	})

	const attempts = 10
	errs := make([]error, attempts)
	var g errgroup.Group
	for i := range attempts {
		g.Go(func() error {
			_, errs[i] = s.ledger.Journal.Reverse(s.ctx, original.EntryID)
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, apperrors.ErrConflict)
	}
	s.Equal(1, succeeded)
	s.assertBalance(cashCode, "0")
	s.assertNoDrift()
}

func (s *LedgerSuite) TestReverse_ReversalCanBeReversed() {
	original := s.post(day(2024, 1, 1), "Oops", func(b *domain.EntryBuilder) {
		b.Debit(cashCode, amt("3")).Credit(revenueCode, amt("3"))
	})
	reversal, err := s.ledger.Journal.Reverse(s.ctx, original.EntryID)
	s.Require().NoError(err)

	restored, err := s.ledger.Journal.Reverse(s.ctx, reversal.EntryID)
	s.Require().NoError(err)

	s.Equal("Reversal of Reversal of Oops", restored.Description)
	s.assertBalance(cashCode, "3")
	s.assertNoDrift()
}

func (s *LedgerSuite) TestReverse_UnknownEntry() {
	_, err := s.ledger.Journal.Reverse(s.ctx, "missing")

	var nf *apperrors.NotFoundError
	s.Require().ErrorAs(err, &nf)
	s.Equal(apperrors.KindJournalEntry, nf.Kind)
}

func (s *LedgerSuite) TestGetEntry_Unknown() {
	_, err := s.ledger.Journal.GetEntry(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

// hookStore wraps a store so tests can interfere right before an entry is saved.
type hookStore struct {
	*memory.Store
	beforeSave func() error
}

func (h *hookStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.StoreTx) error) error {
	return h.Store.RunInTx(ctx, func(ctx context.Context, tx portsrepo.StoreTx) error {
		return fn(ctx, &hookTx{StoreTx: tx, beforeSave: h.beforeSave})
	})
}

type hookTx struct {
	portsrepo.StoreTx
	beforeSave func() error
}

func (t *hookTx) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	if err := t.beforeSave(); err != nil {
		return err
	}
	return t.StoreTx.SaveEntry(ctx, entry)
}
