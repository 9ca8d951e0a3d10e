package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/mma_ledger/internal/apperrors"
	"github.com/SscSPs/mma_ledger/internal/core/domain"
)

// SignedAmount returns the effect of a line on an account balance.
// This is used in both services and repositories to ensure consistent accounting logic.
//
//	DEBIT to ASSET/EXPENSE             -> +amount
//	CREDIT to ASSET/EXPENSE            -> -amount
//	DEBIT to LIABILITY/EQUITY/REVENUE  -> -amount
//	CREDIT to LIABILITY/EQUITY/REVENUE -> +amount
func SignedAmount(amount decimal.Decimal, side domain.Side, accountType domain.AccountType) (decimal.Decimal, error) {
	if !accountType.IsValid() {
		return decimal.Zero, fmt.Errorf("unknown account type '%s'", accountType)
	}
	if side == accountType.NormalBalance() {
		return amount, nil
	}
	return amount.Neg(), nil
}

// BalanceFromTotals converts raw debit/credit totals into a balance under the
// account type's normal-balance convention.
func BalanceFromTotals(totals domain.LineTotals, accountType domain.AccountType) decimal.Decimal {
	if accountType.NormalBalance() == domain.Debit {
		return totals.Debits.Sub(totals.Credits)
	}
	return totals.Credits.Sub(totals.Debits)
}

// SumSides adds up the debit and credit lines of a draft.
func SumSides(lines []domain.DraftLine) domain.LineTotals {
	totals := domain.LineTotals{Debits: decimal.Zero, Credits: decimal.Zero}
	for _, l := range lines {
		totals = totals.Add(l.Amount, l.Side)
	}
	return totals
}

// ValidateBalance checks that the lines' debits equal their credits exactly.
func ValidateBalance(lines []domain.DraftLine) error {
	if len(lines) < 2 {
		return &apperrors.EmptyEntryError{Lines: len(lines)}
	}
	totals := SumSides(lines)
	if !totals.Debits.Equal(totals.Credits) {
		return &apperrors.UnbalancedEntryError{
			Debits:      totals.Debits,
			Credits:     totals.Credits,
			Discrepancy: totals.Debits.Sub(totals.Credits),
		}
	}
	return nil
}

// BalanceChanges nets the signed effect of the lines per account.
func BalanceChanges(lines []domain.DraftLine, accounts map[string]domain.Account) (map[string]decimal.Decimal, error) {
	changes := make(map[string]decimal.Decimal, len(accounts))
	for _, l := range lines {
		acc, ok := accounts[l.AccountCode]
		if !ok {
			return nil, apperrors.NewNotFoundError(apperrors.KindAccount, l.AccountCode)
		}
		signed, err := SignedAmount(l.Amount, l.Side, acc.Type)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", acc.Code, err)
		}
		changes[l.AccountCode] = changes[l.AccountCode].Add(signed)
	}
	return changes, nil
}
