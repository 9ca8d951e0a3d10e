package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/SscSPs/mma_ledger/internal/apperrors"
	"github.com/SscSPs/mma_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mma_ledger/internal/core/ports/services"
	"github.com/SscSPs/mma_ledger/internal/utils/accounting"
	"github.com/SscSPs/mma_ledger/internal/utils/pagination"
)

const (
	defaultActivityPageLimit = 20
	maxActivityPageLimit     = 1000
)

// reportingService answers read-only ledger questions. It never writes.
type reportingService struct {
	BaseService
	store    portsrepo.Store
	pageSize int
}

// NewReportingService creates the ledger query service.
func NewReportingService(store portsrepo.Store, opts ...ServiceOption) portssvc.LedgerQuerySvcFacade {
	return newQueryService(store, newServiceOptions(opts))
}

func newQueryService(store portsrepo.Store, o serviceOptions) *reportingService {
	return &reportingService{
		BaseService: newBaseService(o),
		store:       store,
		pageSize:    o.activityPage,
	}
}

var _ portssvc.LedgerQuerySvcFacade = (*reportingService)(nil)

// BalanceAsOf sums lines dated on or before date. Lines posted later with an
// earlier date are included, so the answer for a past date can change.
func (s *reportingService) BalanceAsOf(ctx context.Context, code string, date time.Time) (decimal.Decimal, error) {
	ctx, span := s.startSpan(ctx, "ledger.balance_as_of", attribute.String("account_code", code))
	balance, err := s.balanceAsOf(ctx, code, date)
	endSpan(span, err)
	return balance, err
}

func (s *reportingService) balanceAsOf(ctx context.Context, code string, date time.Time) (decimal.Decimal, error) {
	account, err := s.store.FindAccountByCode(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}

	asOf := domain.NormalizeDate(date)
	totals, err := s.store.SumLines(ctx, code, &asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum lines", slog.String("account_code", code))
		return decimal.Zero, fmt.Errorf("failed to sum lines for account %s: %w", code, err)
	}
	return accounting.BalanceFromTotals(totals, account.Type), nil
}

// Activity yields every line of the account dated within [from, to], fetching
// pageSize lines per round trip. Each page is read consistently; a posting that
// commits between pages shows up only if it sorts after the cursor.
func (s *reportingService) Activity(ctx context.Context, code string, from, to time.Time) iter.Seq2[domain.JournalLine, error] {
	from, to = domain.NormalizeDate(from), domain.NormalizeDate(to)

	return func(yield func(domain.JournalLine, error) bool) {
		if _, err := s.store.FindAccountByCode(ctx, code); err != nil {
			yield(domain.JournalLine{}, err)
			return
		}
		if from.After(to) {
			return
		}

		var after *pagination.Cursor
		for {
			if err := ctx.Err(); err != nil {
				yield(domain.JournalLine{}, err)
				return
			}
			page, err := s.store.ListLines(ctx, portsrepo.LineQuery{
				AccountCode: code,
				From:        from,
				To:          to,
				After:       after,
				Limit:       s.pageSize,
			})
			if err != nil {
				s.LogError(ctx, err, "Failed to list lines", slog.String("account_code", code))
				yield(domain.JournalLine{}, fmt.Errorf("failed to list lines for account %s: %w", code, err))
				return
			}
			for _, line := range page {
				if !yield(line, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			last := page[len(page)-1]
			after = &pagination.Cursor{EntryDate: last.EntryDate, EntryID: last.EntryID, LineID: last.LineID}
		}
	}
}

// ActivityPage returns one page of activity and a token for the next page,
// nil when there are no more lines.
func (s *reportingService) ActivityPage(ctx context.Context, code string, from, to time.Time, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	if _, err := s.store.FindAccountByCode(ctx, code); err != nil {
		return nil, nil, err
	}

	if limit <= 0 {
		limit = defaultActivityPageLimit
	}
	if limit > maxActivityPageLimit {
		limit = maxActivityPageLimit
	}

	var after *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		after = &cursor
	}

	from, to = domain.NormalizeDate(from), domain.NormalizeDate(to)
	if from.After(to) {
		return []domain.JournalLine{}, nil, nil
	}

	// Fetch one extra line to know whether another page exists.
	lines, err := s.store.ListLines(ctx, portsrepo.LineQuery{
		AccountCode: code,
		From:        from,
		To:          to,
		After:       after,
		Limit:       limit + 1,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list lines", slog.String("account_code", code))
		return nil, nil, fmt.Errorf("failed to list lines for account %s: %w", code, err)
	}

	var next *string
	if len(lines) > limit {
		lines = lines[:limit]
		last := lines[limit-1]
		token := pagination.EncodeToken(pagination.Cursor{EntryDate: last.EntryDate, EntryID: last.EntryID, LineID: last.LineID})
		next = &token
	}
	return lines, next, nil
}

// TrialBalance totals every account's lines up to asOf. Accounts without
// lines appear with zero totals.
func (s *reportingService) TrialBalance(ctx context.Context, asOf *time.Time) (*domain.TrialBalance, error) {
	ctx, span := s.startSpan(ctx, "ledger.trial_balance")
	defer span.End()

	var cutoff *time.Time
	report := &domain.TrialBalance{TotalDebits: decimal.Zero, TotalCredits: decimal.Zero}
	if asOf != nil {
		d := domain.NormalizeDate(*asOf)
		cutoff = &d
		report.AsOf = d
	}

	accounts, err := s.store.ListAccountTotals(ctx, cutoff)
	if err != nil {
		s.LogError(ctx, err, "Failed to load account totals for trial balance")
		return nil, fmt.Errorf("failed to load account totals: %w", err)
	}

	report.Rows = make([]domain.TrialBalanceRow, 0, len(accounts))
	for _, at := range accounts {
		acc, t := at.Account, at.Totals
		report.Rows = append(report.Rows, domain.TrialBalanceRow{
			AccountCode: acc.Code,
			AccountName: acc.Name,
			AccountType: acc.Type,
			Debit:       t.Debits,
			Credit:      t.Credits,
			Balance:     accounting.BalanceFromTotals(t, acc.Type),
		})
		report.TotalDebits = report.TotalDebits.Add(t.Debits)
		report.TotalCredits = report.TotalCredits.Add(t.Credits)
	}
	report.Balanced = report.TotalDebits.Equal(report.TotalCredits)

	if !report.Balanced {
		s.LogError(ctx, errors.New("trial balance does not balance"), "Ledger integrity violation",
			slog.String("total_debits", report.TotalDebits.String()),
			slog.String("total_credits", report.TotalCredits.String()))
	}
	return report, nil
}

// VerifyBalances recomputes every account from its full history and reports
// accounts whose stored running balance disagrees.
func (s *reportingService) VerifyBalances(ctx context.Context) ([]domain.BalanceDrift, error) {
	ctx, span := s.startSpan(ctx, "ledger.verify_balances")
	defer span.End()

	accounts, err := s.store.ListAccountTotals(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load account totals: %w", err)
	}

	var drifts []domain.BalanceDrift
	for _, at := range accounts {
		acc := at.Account
		recomputed := accounting.BalanceFromTotals(at.Totals, acc.Type)
		if !recomputed.Equal(acc.Balance) {
			s.LogWarn(ctx, "Balance drift detected",
				slog.String("account_code", acc.Code),
				slog.String("stored", acc.Balance.String()),
				slog.String("recomputed", recomputed.String()))
			drifts = append(drifts, domain.BalanceDrift{AccountCode: acc.Code, Stored: acc.Balance, Recomputed: recomputed})
		}
	}
	span.SetAttributes(attribute.Int("drifts", len(drifts)), attribute.Int("accounts", len(accounts)))
	return drifts, nil
}
