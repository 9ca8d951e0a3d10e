package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineTotals holds the raw debit and credit sums posted to one account.
type LineTotals struct {
	Debits  decimal.Decimal `json:"debits"`
	Credits decimal.Decimal `json:"credits"`
}

// Add accumulates one line into the totals.
func (t LineTotals) Add(amount decimal.Decimal, side Side) LineTotals {
	if side == Debit {
		t.Debits = t.Debits.Add(amount)
	} else {
		t.Credits = t.Credits.Add(amount)
	}
	return t
}

// AccountTotals pairs an account, stored running balance included, with the
// totals of its posted lines. Both halves come from the same snapshot.
type AccountTotals struct {
	Account Account
	Totals  LineTotals
}

// TrialBalanceRow represents a single row in a trial balance report
type TrialBalanceRow struct {
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"` // Under the account's normal-balance convention
}

// TrialBalance lists per-account totals up to AsOf (zero AsOf means all history).
type TrialBalance struct {
	AsOf         time.Time         `json:"asOf"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  decimal.Decimal   `json:"totalDebits"`
	TotalCredits decimal.Decimal   `json:"totalCredits"`
	Balanced     bool              `json:"balanced"`
}

// BalanceDrift reports an account whose stored balance disagrees with the
// balance recomputed from its posted lines.
type BalanceDrift struct {
	AccountCode string          `json:"accountCode"`
	Stored      decimal.Decimal `json:"stored"`
	Recomputed  decimal.Decimal `json:"recomputed"`
}
